package services

import (
	"testing"
	"time"

	"tour-marketplace-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackCreationAuditsAndNotifies(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	fn := NewFeedbackNotifier(db, NewAuditService(db), notifier)

	creator := seedCreator(t, db)
	tour := seedTour(t, db, creator.UserID, models.TourStatusPendingReview)
	v1 := seedVersion(t, db, tour.TourID, 1, models.VersionTypeDraft)
	sub := seedSubmission(t, db, tour.TourID, v1.VersionID, creator.UserID, models.SubmissionStatusUnderReview)

	stop := "stop-3"
	feedback := models.ReviewFeedback{
		SubmissionID: sub.SubmissionID,
		ReviewerID:   42,
		ReviewerName: "Rex Reviewer",
		Type:         models.FeedbackTypeIssue,
		Message:      "Audio clipping at the cathedral stop",
		StopRef:      &stop,
		CreateAt:     time.Now(),
	}
	require.NoError(t, db.Create(&feedback).Error)

	ev := FeedbackEvent{ActorID: 42, Feedback: feedback}
	require.NoError(t, fn.HandleFeedbackCreated(ev))

	var entry models.AuditLog
	require.NoError(t, db.Where("action = ?", models.AuditFeedbackAdded).First(&entry).Error)
	require.NotNil(t, entry.TourID)
	assert.Equal(t, tour.TourID, *entry.TourID)
	require.NotNil(t, entry.NewValues)
	assert.Contains(t, *entry.NewValues, `"stop_ref":"stop-3"`)
	assert.Contains(t, *entry.NewValues, `"type":"issue"`)

	calls := notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, creator.UserID, calls[0].UserID)
	assert.Equal(t, NotifyFeedbackAdded, calls[0].Kind)

	// Redelivery of the same create event must not duplicate the entry.
	require.NoError(t, fn.HandleFeedbackCreated(ev))
	assert.EqualValues(t, 1, countAudits(t, db, models.AuditFeedbackAdded))
}

func TestFeedbackForMissingSubmissionIsDropped(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	fn := NewFeedbackNotifier(db, NewAuditService(db), notifier)

	feedback := models.ReviewFeedback{
		FeedbackID:   7,
		SubmissionID: 12345,
		ReviewerID:   42,
		ReviewerName: "Rex Reviewer",
		Type:         models.FeedbackTypeSuggestion,
		Message:      "orphan",
	}

	require.NoError(t, fn.HandleFeedbackCreated(FeedbackEvent{Feedback: feedback}))
	assert.EqualValues(t, 0, countAudits(t, db, models.AuditFeedbackAdded))
	assert.Empty(t, notifier.Calls())
}
