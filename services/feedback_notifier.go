package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"tour-marketplace-api/models"

	"gorm.io/gorm"
)

// FeedbackNotifier reacts to feedback-creation events: one audit entry
// plus a best-effort creator notification. It runs independently of the
// status transitions and never mutates tours or versions.
type FeedbackNotifier struct {
	db       *gorm.DB
	audits   *AuditService
	notifier Notifier
}

func NewFeedbackNotifier(db *gorm.DB, audits *AuditService, notifier Notifier) *FeedbackNotifier {
	return &FeedbackNotifier{db: db, audits: audits, notifier: notifier}
}

func (s *FeedbackNotifier) Register(d *Dispatcher) {
	d.OnFeedbackCreated(s.HandleFeedbackCreated)
}

func (s *FeedbackNotifier) HandleFeedbackCreated(ev FeedbackEvent) error {
	fb := ev.Feedback

	var sub models.PublishingSubmission
	if err := s.db.First(&sub, fb.SubmissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("anomaly: feedback %d references missing submission %d, ignoring", fb.FeedbackID, fb.SubmissionID)
			return nil
		}
		return err
	}

	// Redelivered create events must not duplicate the audit entry.
	var existing int64
	if err := s.db.Model(&models.AuditLog{}).
		Where("action = ? AND entity_type = ? AND entity_id = ?",
			models.AuditFeedbackAdded, "feedback", fb.FeedbackID).
		Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	feedbackID := fb.FeedbackID
	tourID := sub.TourID
	values := map[string]interface{}{
		"submission_id": fb.SubmissionID,
		"reviewer_id":   fb.ReviewerID,
		"reviewer_name": fb.ReviewerName,
		"type":          fb.Type,
	}
	if fb.StopRef != nil {
		values["stop_ref"] = *fb.StopRef
	}
	serialized, _ := json.Marshal(values)
	newStr := string(serialized)

	entry := &models.AuditLog{
		UserID:     fb.ReviewerID,
		Action:     models.AuditFeedbackAdded,
		EntityType: "feedback",
		EntityID:   &feedbackID,
		TourID:     &tourID,
		NewValues:  &newStr,
	}
	if err := s.audits.Record(nil, entry); err != nil {
		return err
	}

	if s.notifier != nil {
		title := "New review feedback on your submission"
		message := fmt.Sprintf("Reviewer %s left a %s on submission %s.", fb.ReviewerName, fb.Type, sub.SubmissionNumber)
		s.notifier.NotifyCreator(sub.CreatorID, sub.SubmissionID, NotifyFeedbackAdded, title, message)
	}
	return nil
}
