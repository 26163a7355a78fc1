// Package models contains the data shapes shared between the orchestrator
// client, the monitor and the local view API.
package models

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus is the orchestrator's lifecycle state for a training job.
// Values the orchestrator adds later are carried through verbatim.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether the job can no longer produce metrics.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// JobSummary is one entry of GET /api/v1/jobs.
type JobSummary struct {
	ID        string     `json:"id"`
	Name      *string    `json:"name,omitempty"`
	Status    JobStatus  `json:"status"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
}

// JobDetail is the flat object returned by GET /api/v1/jobs/{id}.
// It is fetched once per selection and never polled.
type JobDetail struct {
	JobSummary
	Config         map[string]any `json:"config,omitempty"`
	ClusterJobName *string        `json:"k8s_job_name,omitempty"`
	ErrorMessage   *string        `json:"error_message,omitempty"`
	FinishedAt     *Timestamp     `json:"finished_at,omitempty"`
	Source         string         `json:"source,omitempty"`
}

// Timestamp accepts RFC 3339 and the zone-less ISO 8601 form the
// orchestrator emits for naive datetimes (read as UTC).
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*t = Timestamp{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}
