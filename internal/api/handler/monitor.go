package handler

import (
	"github.com/mltrain/trainwatch/internal/monitor"
	"github.com/mltrain/trainwatch/pkg/models"
)

// Monitor defines the view-root operations the handlers depend on.
type Monitor interface {
	View() monitor.View
	Selection() models.Selection
	Select(jobID string) error
	Deselect()
	Subscribe() (<-chan models.Selection, func())
}

var _ Monitor = (*monitor.Root)(nil)
