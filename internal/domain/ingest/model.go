package ingest

import "time"

// Status is the classification state of a pending ingest.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusMatched  Status = "MATCHED"
	StatusAssigned Status = "ASSIGNED"
	StatusIgnored  Status = "IGNORED"
)

// Unresolved lists the statuses automatic classification may change.
var Unresolved = []Status{StatusPending, StatusMatched}

// Final reports whether automatic classification must leave s alone.
func (s Status) Final() bool {
	return s == StatusAssigned || s == StatusIgnored
}

// PendingIngest is a file reported by a watcher awaiting assignment to a
// sample.
type PendingIngest struct {
	ID                       string     `json:"id"`
	ProjectID                string     `json:"project_id"`
	StorageRootID            string     `json:"storage_root_id"`
	RelativePath             string     `json:"relative_path"`
	FileSizeBytes            int64      `json:"file_size_bytes"`
	FileHashSHA256           *string    `json:"file_hash_sha256,omitempty"`
	ObservedAt               time.Time  `json:"observed_at"`
	ReportedBy               string     `json:"reported_by,omitempty"`
	Status                   Status     `json:"status"`
	InferredSampleIdentifier *string    `json:"inferred_sample_identifier"`
	MatchedSampleID          *string    `json:"matched_sample_id,omitempty"`
	SampleID                 *string    `json:"sample_id,omitempty"`
	Blocked                  bool       `json:"blocked"`
	Reason                   string     `json:"reason,omitempty"`
	AssignedBy               *string    `json:"assigned_by,omitempty"`
	AssignedAt               *time.Time `json:"assigned_at,omitempty"`
	IgnoredBy                *string    `json:"ignored_by,omitempty"`
	ClassifiedAt             *time.Time `json:"classified_at,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// FileEvent is a watcher's report of one observed file.
type FileEvent struct {
	ProjectID      string    `json:"project_id"`
	StorageRootID  string    `json:"storage_root_id"`
	RelativePath   string    `json:"relative_path"`
	FileSizeBytes  int64     `json:"file_size_bytes"`
	FileHashSHA256 string    `json:"file_hash_sha256,omitempty"`
	ObservedAt     time.Time `json:"observed_at"`
}

// ListOptions provides filtering options for listing ingests.
type ListOptions struct {
	ProjectID string
	SampleID  string
	Statuses  []Status
	Limit     int
	Offset    int
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Projects int `json:"projects"`
	Examined int `json:"examined"`
	Changed  int `json:"changed"`
}
