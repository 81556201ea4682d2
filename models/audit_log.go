package models

import (
	"time"
)

// Audit actions recorded by the lifecycle handlers. Each entry asserts
// the named side effect actually committed, so handlers only write one
// after their transaction succeeds.
const (
	AuditSubmissionCreated          = "submission_created"
	AuditSubmissionUnderReview      = "submission_under_review"
	AuditSubmissionChangesRequested = "submission_changes_requested"
	AuditSubmissionApproved         = "submission_approved"
	AuditSubmissionRejected         = "submission_rejected"
	AuditSubmissionResubmitted      = "submission_resubmitted"
	AuditSubmissionWithdrawn        = "submission_withdrawn"
	AuditFeedbackAdded              = "feedback_added"
)

// AuditLog rows are append-only. Nothing updates or deletes them.
type AuditLog struct {
	LogID        int       `gorm:"primaryKey;column:log_id" json:"log_id"`
	UserID       int       `gorm:"column:user_id" json:"user_id"`
	Action       string    `gorm:"column:action;index" json:"action"`
	EntityType   string    `gorm:"column:entity_type" json:"entity_type"`
	EntityID     *int      `gorm:"column:entity_id;index" json:"entity_id,omitempty"`
	EntityNumber *string   `gorm:"column:entity_number" json:"entity_number,omitempty"`
	TourID       *int      `gorm:"column:tour_id;index" json:"tour_id,omitempty"`
	OldValues    *string   `gorm:"column:old_values;type:text" json:"old_values,omitempty"`
	NewValues    *string   `gorm:"column:new_values;type:text" json:"new_values,omitempty"`
	Description  *string   `gorm:"column:description" json:"description,omitempty"`
	IPAddress    string    `gorm:"column:ip_address" json:"ip_address"`
	UserAgent    *string   `gorm:"column:user_agent" json:"user_agent,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
