package models

import (
	"time"
)

// SubmissionStatus is the state machine value of a publishing
// submission. "draft" tours exist, but a submission is created already
// submitted, so submitted is the machine's initial state.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted        SubmissionStatus = "submitted"
	SubmissionStatusUnderReview      SubmissionStatus = "under_review"
	SubmissionStatusChangesRequested SubmissionStatus = "changes_requested"
	SubmissionStatusApproved         SubmissionStatus = "approved"
	SubmissionStatusRejected         SubmissionStatus = "rejected"
	SubmissionStatusWithdrawn        SubmissionStatus = "withdrawn"
)

// IsTerminal reports whether no further transitions may leave s.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case SubmissionStatusApproved, SubmissionStatusRejected, SubmissionStatusWithdrawn:
		return true
	}
	return false
}

// PublishingSubmission is the unit of review: it wraps one tour version
// and carries the review state. Submissions are never deleted;
// resubmission increments resubmission_count instead of replacing the
// document.
type PublishingSubmission struct {
	SubmissionID              int              `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	SubmissionNumber          string           `gorm:"column:submission_number;unique" json:"submission_number"`
	TourID                    int              `gorm:"column:tour_id;index" json:"tour_id"`
	VersionID                 int              `gorm:"column:version_id" json:"version_id"`
	CreatorID                 int              `gorm:"column:creator_id;index" json:"creator_id"`
	Status                    SubmissionStatus `gorm:"column:status;index" json:"status"`
	ReviewerID                *int             `gorm:"column:reviewer_id" json:"reviewer_id,omitempty"`
	ReviewerName              *string          `gorm:"column:reviewer_name" json:"reviewer_name,omitempty"`
	RejectionReason           *string          `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	ResubmissionCount         int              `gorm:"column:resubmission_count" json:"resubmission_count"`
	CreatorIgnoredSuggestions bool             `gorm:"column:creator_ignored_suggestions" json:"creator_ignored_suggestions"`
	SubmittedAt               time.Time        `gorm:"column:submitted_at" json:"submitted_at"`
	CreateAt                  time.Time        `gorm:"column:create_at" json:"create_at"`
	UpdateAt                  time.Time        `gorm:"column:update_at" json:"update_at"`

	// Relations
	Tour     *Tour            `gorm:"foreignKey:TourID" json:"tour,omitempty"`
	Version  *TourVersion     `gorm:"foreignKey:VersionID" json:"version,omitempty"`
	Feedback []ReviewFeedback `gorm:"foreignKey:SubmissionID" json:"feedback,omitempty"`
}

func (PublishingSubmission) TableName() string {
	return "publishing_submissions"
}
