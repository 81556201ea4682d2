package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tour-marketplace-api/models"

	"gorm.io/gorm"
)

// Requester identifies who asked for a transition. Authorization is
// enforced here, not trusted from the caller.
type Requester struct {
	ID   int
	Role string
}

type transitionKey struct {
	from models.SubmissionStatus
	to   models.SubmissionStatus
}

type transitionRule struct {
	action     string            // audit action recorded on success
	tourStatus models.TourStatus // "" = no tour status change
	promote    bool              // run the version-promotion batch
	notifyKind string            // "" = no creator notification
	roles      []string          // roles allowed to request the pair
}

// transitionTable is the single source of legal (from, to) pairs. Every
// pair not listed here is rejected, never applied.
var transitionTable = map[transitionKey]transitionRule{
	{models.SubmissionStatusSubmitted, models.SubmissionStatusUnderReview}: {
		action: models.AuditSubmissionUnderReview,
		roles:  []string{models.RoleReviewer, models.RoleAdmin},
	},
	{models.SubmissionStatusUnderReview, models.SubmissionStatusChangesRequested}: {
		action:     models.AuditSubmissionChangesRequested,
		tourStatus: models.TourStatusDraft,
		notifyKind: NotifyChangesRequested,
		roles:      []string{models.RoleReviewer, models.RoleAdmin},
	},
	{models.SubmissionStatusUnderReview, models.SubmissionStatusApproved}: {
		action:     models.AuditSubmissionApproved,
		promote:    true,
		notifyKind: NotifyApproved,
		roles:      []string{models.RoleReviewer, models.RoleAdmin},
	},
	{models.SubmissionStatusUnderReview, models.SubmissionStatusRejected}: {
		action:     models.AuditSubmissionRejected,
		tourStatus: models.TourStatusRejected,
		notifyKind: NotifyRejected,
		roles:      []string{models.RoleReviewer, models.RoleAdmin},
	},
	{models.SubmissionStatusChangesRequested, models.SubmissionStatusSubmitted}: {
		action:     models.AuditSubmissionResubmitted,
		tourStatus: models.TourStatusPendingReview,
		roles:      []string{models.RoleCreator},
	},
	{models.SubmissionStatusSubmitted, models.SubmissionStatusWithdrawn}: {
		action:     models.AuditSubmissionWithdrawn,
		tourStatus: models.TourStatusDraft,
		roles:      []string{models.RoleCreator},
	},
	{models.SubmissionStatusUnderReview, models.SubmissionStatusWithdrawn}: {
		action:     models.AuditSubmissionWithdrawn,
		tourStatus: models.TourStatusDraft,
		roles:      []string{models.RoleCreator},
	},
	{models.SubmissionStatusChangesRequested, models.SubmissionStatusWithdrawn}: {
		action:     models.AuditSubmissionWithdrawn,
		tourStatus: models.TourStatusDraft,
		roles:      []string{models.RoleCreator},
	},
}

// LifecycleService reacts to submission change events, validates the
// observed transition against the table, and orchestrates the side
// effects. It is the only writer of tours.status / tours.live_version_id
// (through TourService).
type LifecycleService struct {
	db       *gorm.DB
	tours    *TourService
	audits   *AuditService
	notifier Notifier
}

func NewLifecycleService(db *gorm.DB, tours *TourService, audits *AuditService, notifier Notifier) *LifecycleService {
	return &LifecycleService{db: db, tours: tours, audits: audits, notifier: notifier}
}

// Register subscribes the lifecycle handlers to the change dispatcher.
func (s *LifecycleService) Register(d *Dispatcher) {
	d.OnSubmissionChange(s.HandleSubmissionChange)
}

// Authorize checks whether the requester may move the submission to
// newStatus. Creators act only on their own submissions; reviewers and
// admins act on any. Called by the transition endpoint before the
// status write, so an unauthorized request never produces an event.
func (s *LifecycleService) Authorize(requester Requester, sub *models.PublishingSubmission, newStatus models.SubmissionStatus) error {
	rule, ok := transitionTable[transitionKey{sub.Status, newStatus}]
	if !ok {
		return &IllegalTransitionError{From: sub.Status, To: newStatus}
	}

	for _, role := range rule.roles {
		if requester.Role != role {
			continue
		}
		if role == models.RoleCreator && requester.ID != sub.CreatorID {
			continue
		}
		return nil
	}
	return ErrNotAuthorized
}

// HandleSubmissionChange is the change-event entry point for both
// creation (Before == nil) and update events.
func (s *LifecycleService) HandleSubmissionChange(ev SubmissionEvent) error {
	if ev.Before == nil {
		return s.handleCreated(ev)
	}
	return s.handleUpdated(ev)
}

func (s *LifecycleService) handleCreated(ev SubmissionEvent) error {
	sub := ev.After
	if sub.Status != models.SubmissionStatusSubmitted {
		log.Printf("anomaly: submission %d created with status %q, ignoring", sub.SubmissionID, sub.Status)
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tours.SyncTourStatus(tx, sub.TourID, models.TourStatusPendingReview, nil); err != nil {
			return err
		}
		return s.audits.Record(tx, s.auditEntry(ev, models.AuditSubmissionCreated, nil))
	})
}

func (s *LifecycleService) handleUpdated(ev SubmissionEvent) error {
	before, after := ev.Before, ev.After

	// Equal statuses mean a redelivered event or an unrelated field
	// change. Ignoring it entirely is the sole defense against
	// at-least-once delivery duplicating side effects.
	if before.Status == after.Status {
		return nil
	}

	rule, ok := transitionTable[transitionKey{before.Status, after.Status}]
	if !ok {
		log.Printf("anomaly: event %s carries unrecognized transition %s -> %s for submission %d, no mutation applied",
			ev.EventID, before.Status, after.Status, after.SubmissionID)
		return nil
	}

	if rule.promote {
		return s.applyApproval(ev, rule)
	}
	return s.applyStatusSync(ev, rule)
}

// applyApproval runs the promotion batch, then records the audit entry.
// If promotion fails the audit entry is not written: audit entries
// assert that the side effect actually happened. The error propagates
// so the transport may redeliver; the promotion batch itself is guarded
// against duplicate application.
func (s *LifecycleService) applyApproval(ev SubmissionEvent, rule transitionRule) error {
	sub := ev.After
	if err := s.tours.PromoteVersion(sub.TourID, sub.VersionID); err != nil {
		log.Printf("promotion failed for submission %d (tour=%d version=%d): %v — submission remains approved, see reconciliation",
			sub.SubmissionID, sub.TourID, sub.VersionID, err)
		return err
	}

	if err := s.audits.Record(nil, s.auditEntry(ev, rule.action, nil)); err != nil {
		return err
	}

	s.notify(rule, sub)
	return nil
}

func (s *LifecycleService) applyStatusSync(ev SubmissionEvent, rule transitionRule) error {
	sub := ev.After

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if rule.tourStatus != "" {
			extra := map[string]interface{}{}
			if rule.tourStatus == models.TourStatusRejected {
				extra["rejected_at"] = time.Now()
				if sub.RejectionReason != nil {
					extra["rejection_reason"] = *sub.RejectionReason
				}
			}
			if err := s.tours.SyncTourStatus(tx, sub.TourID, rule.tourStatus, extra); err != nil {
				return err
			}
		}

		var detail map[string]interface{}
		if rule.action == models.AuditSubmissionResubmitted {
			detail = map[string]interface{}{
				"resubmission_count":  sub.ResubmissionCount,
				"ignored_suggestions": sub.CreatorIgnoredSuggestions,
			}
		}
		return s.audits.Record(tx, s.auditEntry(ev, rule.action, detail))
	})
	if err != nil {
		return err
	}

	s.notify(rule, sub)
	return nil
}

func (s *LifecycleService) notify(rule transitionRule, sub models.PublishingSubmission) {
	if rule.notifyKind == "" || s.notifier == nil {
		return
	}
	title, message := notificationText(rule.notifyKind, sub)
	s.notifier.NotifyCreator(sub.CreatorID, sub.SubmissionID, rule.notifyKind, title, message)
}

func notificationText(kind string, sub models.PublishingSubmission) (string, string) {
	switch kind {
	case NotifyApproved:
		return "Your tour is live",
			fmt.Sprintf("Submission %s was approved and the reviewed version is now the live version of your tour.", sub.SubmissionNumber)
	case NotifyRejected:
		reason := ""
		if sub.RejectionReason != nil {
			reason = *sub.RejectionReason
		}
		return "Your submission was rejected",
			fmt.Sprintf("Submission %s was rejected. Reason: %s", sub.SubmissionNumber, reason)
	case NotifyChangesRequested:
		return "Changes requested on your submission",
			fmt.Sprintf("A reviewer requested changes on submission %s. Check the review feedback and resubmit when ready.", sub.SubmissionNumber)
	}
	return "Submission update", fmt.Sprintf("Submission %s changed state.", sub.SubmissionNumber)
}

func (s *LifecycleService) auditEntry(ev SubmissionEvent, action string, detail map[string]interface{}) *models.AuditLog {
	sub := ev.After
	submissionID := sub.SubmissionID
	tourID := sub.TourID
	number := sub.SubmissionNumber

	entry := &models.AuditLog{
		UserID:       ev.ActorID,
		Action:       action,
		EntityType:   "submission",
		EntityID:     &submissionID,
		EntityNumber: &number,
		TourID:       &tourID,
	}

	values := map[string]interface{}{
		"status":     sub.Status,
		"version_id": sub.VersionID,
	}
	if ev.Before != nil {
		old, _ := json.Marshal(map[string]interface{}{"status": ev.Before.Status})
		oldStr := string(old)
		entry.OldValues = &oldStr
	}
	for k, v := range detail {
		values[k] = v
	}
	if sub.RejectionReason != nil && action == models.AuditSubmissionRejected {
		values["rejection_reason"] = *sub.RejectionReason
	}
	serialized, _ := json.Marshal(values)
	newStr := string(serialized)
	entry.NewValues = &newStr

	return entry
}
