package services

import (
	"testing"

	"tour-marketplace-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventMovesTourToPendingReview(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	lifecycle := NewLifecycleService(db, NewTourService(db), NewAuditService(db), notifier)

	creator := seedCreator(t, db)
	tour := seedTour(t, db, creator.UserID, models.TourStatusDraft)
	version := seedVersion(t, db, tour.TourID, 1, models.VersionTypeDraft)
	sub := seedSubmission(t, db, tour.TourID, version.VersionID, creator.UserID, models.SubmissionStatusSubmitted)

	err := lifecycle.HandleSubmissionChange(SubmissionEvent{ActorID: creator.UserID, After: sub})
	require.NoError(t, err)

	var got models.Tour
	require.NoError(t, db.First(&got, tour.TourID).Error)
	assert.Equal(t, models.TourStatusPendingReview, got.Status)
	assert.EqualValues(t, 1, countAudits(t, db, models.AuditSubmissionCreated))
	assert.Empty(t, notifier.Calls())
}

func TestApprovalPromotesReviewedVersion(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	tours := NewTourService(db)
	lifecycle := NewLifecycleService(db, tours, NewAuditService(db), notifier)

	creator := seedCreator(t, db)
	tour := seedTour(t, db, creator.UserID, models.TourStatusPendingReview)
	v1 := seedVersion(t, db, tour.TourID, 1, models.VersionTypeLive)
	v2 := seedVersion(t, db, tour.TourID, 2, models.VersionTypeDraft)
	require.NoError(t, db.Model(&models.Tour{}).Where("tour_id = ?", tour.TourID).
		Update("live_version_id", v1.VersionID).Error)

	sub := seedSubmission(t, db, tour.TourID, v2.VersionID, creator.UserID, models.SubmissionStatusUnderReview)
	before := sub
	after := sub
	after.Status = models.SubmissionStatusApproved

	err := lifecycle.HandleSubmissionChange(SubmissionEvent{ActorID: 99, Before: &before, After: after})
	require.NoError(t, err)

	var gotTour models.Tour
	require.NoError(t, db.First(&gotTour, tour.TourID).Error)
	require.NotNil(t, gotTour.LiveVersionID)
	assert.Equal(t, v2.VersionID, *gotTour.LiveVersionID)
	assert.Equal(t, models.TourStatusApproved, gotTour.Status)

	var gotV1, gotV2 models.TourVersion
	require.NoError(t, db.First(&gotV1, v1.VersionID).Error)
	require.NoError(t, db.First(&gotV2, v2.VersionID).Error)
	assert.Equal(t, models.VersionTypeArchived, gotV1.VersionType)
	assert.Equal(t, models.VersionTypeLive, gotV2.VersionType)

	assert.EqualValues(t, 1, countAudits(t, db, models.AuditSubmissionApproved))

	calls := notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, creator.UserID, calls[0].UserID)
	assert.Equal(t, NotifyApproved, calls[0].Kind)
}

func TestFirstApprovalStampsPublishedAtOnce(t *testing.T) {
	db := newTestDB(t)
	tours := NewTourService(db)
	lifecycle := NewLifecycleService(db, tours, NewAuditService(db), &fakeNotifier{})

	creator := seedCreator(t, db)
	tour := seedTour(t, db, creator.UserID, models.TourStatusPendingReview)
	v1 := seedVersion(t, db, tour.TourID, 1, models.VersionTypeDraft)

	sub := seedSubmission(t, db, tour.TourID, v1.VersionID, creator.UserID, models.SubmissionStatusUnderReview)
	before := sub
	after := sub
	after.Status = models.SubmissionStatusApproved
	require.NoError(t, lifecycle.HandleSubmissionChange(SubmissionEvent{Before: &before, After: after}))

	var got models.Tour
	require.NoError(t, db.First(&got, tour.TourID).Error)
	require.NotNil(t, got.PublishedAt)
	firstPublish := *got.PublishedAt

	// Second cycle with a new version: published_at must not move.
	v2 := seedVersion(t, db, tour.TourID, 2, models.VersionTypeDraft)
	sub2 := seedSubmission(t, db, tour.TourID, v2.VersionID, creator.UserID, models.SubmissionStatusUnderReview)
	before2 := sub2
	after2 := sub2
	after2.Status = models.SubmissionStatusApproved
	require.NoError(t, lifecycle.HandleSubmissionChange(SubmissionEvent{Before: &before2, After: after2}))

	require.NoError(t, db.First(&got, tour.TourID).Error)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, got.PublishedAt.Equal(firstPublish), "republishing must not reset published_at")
	require.NotNil(t, got.LiveVersionID)
	assert.Equal(t, v2.VersionID, *got.LiveVersionID)
}

func TestDuplicateDeliveryIsIgnored(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	lifecycle := NewLifecycleService(db, NewTourService(db), NewAuditService(db), notifier)

	creator := seedCreator(t, db)
	tour := seedTour(t, db, creator.UserID, models.TourStatusPendingReview)
	v1 := seedVersion(t, db, tour.TourID, 1, models.VersionTypeDraft)
	sub := seedSubmission(t, db, tour.TourID, v1.VersionID, creator.UserID, models.SubmissionStatusUnderReview)

	before := sub
	after := sub
	after.Status = models.SubmissionStatusRejected
	reason := "Low audio quality"
	after.RejectionReason = &reason

	ev := SubmissionEvent{ActorID: 5, Before: &before, After: after}
	require.NoError(t, lifecycle.HandleSubmissionChange(ev))

	// Redelivery after the store already holds the new status: before
	// and after carry the same status, so nothing may happen.
	dup := SubmissionEvent{ActorID: 5, Before: &after, After: after}
	require.NoError(t, lifecycle.HandleSubmissionChange(dup))

	assert.EqualValues(t, 1, countAudits(t, db, models.AuditSubmissionRejected))
	assert.Len(t, notifier.Calls(), 1)
}

func TestUnrecognizedPairProducesNoMutation(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	lifecycle := NewLifecycleService(db, NewTourService(db), NewAuditService(db), notifier)

	creator := seedCreator(t, db)
	tour := seedTour(t, db, creator.UserID, models.TourStatusApproved)
	v1 := seedVersion(t, db, tour.TourID, 1, models.VersionTypeLive)
	sub := seedSubmission(t, db, tour.TourID, v1.VersionID, creator.UserID, models.SubmissionStatusApproved)

	before := sub
	after := sub
	after.Status = models.SubmissionStatusSubmitted

	// approved -> submitted is not in the table: logged, dropped, not
	// surfaced to the transport.
	require.NoError(t, lifecycle.HandleSubmissionChange(SubmissionEvent{Before: &before, After: after}))

	var got models.Tour
	require.NoError(t, db.First(&got, tour.TourID).Error)
	assert.Equal(t, models.TourStatusApproved, got.Status)

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&audits).Error)
	assert.EqualValues(t, 0, audits)
	assert.Empty(t, notifier.Calls())
}

func TestRejectionSyncsTourAndReason(t *testing.T) {
	db := newTestDB(t)
	lifecycle := NewLifecycleService(db, NewTourService(db), NewAuditService(db), &fakeNotifier{})

	creator := seedCreator(t, db)
	tour := seedTour(t, db, creator.UserID, models.TourStatusPendingReview)
	v1 := seedVersion(t, db, tour.TourID, 1, models.VersionTypeDraft)
	sub := seedSubmission(t, db, tour.TourID, v1.VersionID, creator.UserID, models.SubmissionStatusUnderReview)

	before := sub
	after := sub
	after.Status = models.SubmissionStatusRejected
	reason := "Low audio quality"
	after.RejectionReason = &reason

	require.NoError(t, lifecycle.HandleSubmissionChange(SubmissionEvent{Before: &before, After: after}))

	var got models.Tour
	require.NoError(t, db.First(&got, tour.TourID).Error)
	assert.Equal(t, models.TourStatusRejected, got.Status)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "Low audio quality", *got.RejectionReason)
	require.NotNil(t, got.RejectedAt)

	// No version mutation on rejection.
	var gotV1 models.TourVersion
	require.NoError(t, db.First(&gotV1, v1.VersionID).Error)
	assert.Equal(t, models.VersionTypeDraft, gotV1.VersionType)

	assert.EqualValues(t, 1, countAudits(t, db, models.AuditSubmissionRejected))
}

func TestResubmissionAuditCarriesCount(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	lifecycle := NewLifecycleService(db, NewTourService(db), NewAuditService(db), notifier)

	creator := seedCreator(t, db)
	tour := seedTour(t, db, creator.UserID, models.TourStatusDraft)
	v1 := seedVersion(t, db, tour.TourID, 1, models.VersionTypeDraft)
	sub := seedSubmission(t, db, tour.TourID, v1.VersionID, creator.UserID, models.SubmissionStatusChangesRequested)

	before := sub
	after := sub
	after.Status = models.SubmissionStatusSubmitted
	after.ResubmissionCount = 2
	after.CreatorIgnoredSuggestions = true

	require.NoError(t, lifecycle.HandleSubmissionChange(SubmissionEvent{Before: &before, After: after}))

	var got models.Tour
	require.NoError(t, db.First(&got, tour.TourID).Error)
	assert.Equal(t, models.TourStatusPendingReview, got.Status)

	var entry models.AuditLog
	require.NoError(t, db.Where("action = ?", models.AuditSubmissionResubmitted).First(&entry).Error)
	require.NotNil(t, entry.NewValues)
	assert.Contains(t, *entry.NewValues, `"resubmission_count":2`)
	assert.Contains(t, *entry.NewValues, `"ignored_suggestions":true`)

	// Resubmission does not notify.
	assert.Empty(t, notifier.Calls())
}

func TestWithdrawalReturnsTourToDraft(t *testing.T) {
	db := newTestDB(t)
	lifecycle := NewLifecycleService(db, NewTourService(db), NewAuditService(db), &fakeNotifier{})

	creator := seedCreator(t, db)
	tour := seedTour(t, db, creator.UserID, models.TourStatusPendingReview)
	v1 := seedVersion(t, db, tour.TourID, 1, models.VersionTypeDraft)
	sub := seedSubmission(t, db, tour.TourID, v1.VersionID, creator.UserID, models.SubmissionStatusUnderReview)

	before := sub
	after := sub
	after.Status = models.SubmissionStatusWithdrawn

	require.NoError(t, lifecycle.HandleSubmissionChange(SubmissionEvent{Before: &before, After: after}))

	var got models.Tour
	require.NoError(t, db.First(&got, tour.TourID).Error)
	assert.Equal(t, models.TourStatusDraft, got.Status)
	assert.EqualValues(t, 1, countAudits(t, db, models.AuditSubmissionWithdrawn))
}

func TestFailedPromotionWritesNoAuditEntry(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	lifecycle := NewLifecycleService(db, NewTourService(db), NewAuditService(db), notifier)

	creator := seedCreator(t, db)
	tour := seedTour(t, db, creator.UserID, models.TourStatusPendingReview)
	v1 := seedVersion(t, db, tour.TourID, 1, models.VersionTypeLive)
	require.NoError(t, db.Model(&models.Tour{}).Where("tour_id = ?", tour.TourID).
		Update("live_version_id", v1.VersionID).Error)

	// The version under review was already archived by a concurrent
	// duplicate delivery: the promotion batch must fail whole.
	v2 := seedVersion(t, db, tour.TourID, 2, models.VersionTypeArchived)
	sub := seedSubmission(t, db, tour.TourID, v2.VersionID, creator.UserID, models.SubmissionStatusUnderReview)

	before := sub
	after := sub
	after.Status = models.SubmissionStatusApproved

	err := lifecycle.HandleSubmissionChange(SubmissionEvent{Before: &before, After: after})
	var promoErr *PromotionError
	require.ErrorAs(t, err, &promoErr)

	var got models.Tour
	require.NoError(t, db.First(&got, tour.TourID).Error)
	require.NotNil(t, got.LiveVersionID)
	assert.Equal(t, v1.VersionID, *got.LiveVersionID, "live version must be unchanged after the failed attempt")

	assert.EqualValues(t, 0, countAudits(t, db, models.AuditSubmissionApproved))
	assert.Empty(t, notifier.Calls())
}

func TestAuthorizeEnforcesRequesterCapabilities(t *testing.T) {
	db := newTestDB(t)
	lifecycle := NewLifecycleService(db, NewTourService(db), NewAuditService(db), &fakeNotifier{})

	sub := &models.PublishingSubmission{
		SubmissionID: 1,
		CreatorID:    10,
		Status:       models.SubmissionStatusUnderReview,
	}

	// Creators cannot approve, even their own submission.
	err := lifecycle.Authorize(Requester{ID: 10, Role: models.RoleCreator}, sub, models.SubmissionStatusApproved)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Reviewers can.
	assert.NoError(t, lifecycle.Authorize(Requester{ID: 99, Role: models.RoleReviewer}, sub, models.SubmissionStatusApproved))

	// The owning creator may withdraw, another creator may not.
	assert.NoError(t, lifecycle.Authorize(Requester{ID: 10, Role: models.RoleCreator}, sub, models.SubmissionStatusWithdrawn))
	err = lifecycle.Authorize(Requester{ID: 11, Role: models.RoleCreator}, sub, models.SubmissionStatusWithdrawn)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Illegal pairs are reported as such before any role check.
	terminal := &models.PublishingSubmission{SubmissionID: 2, CreatorID: 10, Status: models.SubmissionStatusApproved}
	err = lifecycle.Authorize(Requester{ID: 99, Role: models.RoleReviewer}, terminal, models.SubmissionStatusSubmitted)
	var illegal *IllegalTransitionError
	assert.ErrorAs(t, err, &illegal)
}
