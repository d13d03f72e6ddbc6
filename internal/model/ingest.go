package model

import "time"

// IngestStatus is the lifecycle state of a deferred CRM upsert.
type IngestStatus string

const (
	IngestPending   IngestStatus = "pending"
	IngestSucceeded IngestStatus = "succeeded"
	IngestFailed    IngestStatus = "failed"
)

// IngestTask records the outcome of persisting one search's results into the
// CRM. It is created as pending when the search responds and is finished by
// an ingest worker.
type IngestTask struct {
	ID          string       `json:"id"                   db:"id"`
	UserID      string       `json:"-"                    db:"user_id"`
	Category    string       `json:"category"             db:"category"`
	RecordCount int          `json:"recordCount"          db:"record_count"`
	Status      IngestStatus `json:"status"               db:"status"`
	Error       string       `json:"error,omitempty"      db:"error"`
	CreatedAt   time.Time    `json:"createdAt"            db:"created_at"`
	FinishedAt  *time.Time   `json:"finishedAt,omitempty" db:"finished_at"`
}
