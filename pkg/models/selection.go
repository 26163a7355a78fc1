package models

import "time"

// Phase is the selection lifecycle state of the job inspector.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseActive  Phase = "active"
)

// Selection is the published view of the inspector. A new value is
// published after every state change; consumers never mutate it.
type Selection struct {
	Phase     Phase      `json:"phase"`
	JobID     string     `json:"job_id,omitempty"`
	Detail    *JobDetail `json:"detail,omitempty"`
	Columns   []string   `json:"columns"`
	Rows      []ChartRow `json:"rows"`
	LastError string     `json:"last_error,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}
