package models

import (
	"time"
)

const (
	FeedbackTypeIssue      = "issue"
	FeedbackTypeSuggestion = "suggestion"
	FeedbackTypeCompliment = "compliment"
	FeedbackTypeRequired   = "required"
)

// ReviewFeedback is a single reviewer remark attached to a submission.
// Created only by reviewers; the only later mutation allowed is the
// resolved toggle.
type ReviewFeedback struct {
	FeedbackID   int        `gorm:"primaryKey;column:feedback_id" json:"feedback_id"`
	SubmissionID int        `gorm:"column:submission_id;index" json:"submission_id"`
	ReviewerID   int        `gorm:"column:reviewer_id" json:"reviewer_id"`
	ReviewerName string     `gorm:"column:reviewer_name" json:"reviewer_name"`
	Type         string     `gorm:"column:type" json:"type"`
	Message      string     `gorm:"column:message;type:text" json:"message"`
	StopRef      *string    `gorm:"column:stop_ref" json:"stop_ref,omitempty"`
	Priority     int        `gorm:"column:priority" json:"priority"`
	Resolved     bool       `gorm:"column:resolved" json:"resolved"`
	ResolvedBy   *int       `gorm:"column:resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
}

func (ReviewFeedback) TableName() string {
	return "review_feedback"
}

func IsValidFeedbackType(t string) bool {
	switch t {
	case FeedbackTypeIssue, FeedbackTypeSuggestion, FeedbackTypeCompliment, FeedbackTypeRequired:
		return true
	}
	return false
}
