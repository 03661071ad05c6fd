package audit

import "time"

// Action is the type of an audited event.
type Action string

const (
	ActionProjectCreated     Action = "project_created"
	ActionProjectRulesSet    Action = "extraction_rules_set"
	ActionIgnorePatternsSet  Action = "ignore_patterns_set"
	ActionMemberAdded        Action = "member_added"
	ActionMemberRemoved      Action = "member_removed"
	ActionStorageRootCreated Action = "storage_root_created"
	ActionDraftCreated       Action = "rdmp_draft_created"
	ActionDraftUpdated       Action = "rdmp_draft_updated"
	ActionDraftDiscarded     Action = "rdmp_draft_discarded"
	ActionVersionActivated   Action = "rdmp_activated"
	ActionSampleCreated      Action = "sample_created"
	ActionSampleDeleted      Action = "sample_deleted"
	ActionFieldValueSet      Action = "field_value_set"
	ActionIngestReported     Action = "ingest_reported"
	ActionIngestAssigned     Action = "ingest_assigned"
	ActionIngestIgnored      Action = "ingest_ignored"
	ActionReleaseCreated     Action = "release_created"
)

// Entry is one row of the audit log.
type Entry struct {
	ID         int64     `json:"id"`
	ProjectID  string    `json:"project_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	Action     Action    `json:"action"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	Summary    string    `json:"summary"`
	Details    string    `json:"details,omitempty"` // JSON string
	CreatedAt  time.Time `json:"created_at"`
}

// ListOptions filters audit log queries.
type ListOptions struct {
	ProjectID string
	ActorID   *string
	TargetID  *string
	Action    *Action
	Limit     int
	Offset    int
}
