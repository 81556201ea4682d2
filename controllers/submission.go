package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tour-marketplace-api/config"
	"tour-marketplace-api/models"
	"tour-marketplace-api/services"
	"tour-marketplace-api/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var submissionStatuses = map[string]models.SubmissionStatus{
	"submitted":         models.SubmissionStatusSubmitted,
	"under_review":      models.SubmissionStatusUnderReview,
	"changes_requested": models.SubmissionStatusChangesRequested,
	"approved":          models.SubmissionStatusApproved,
	"rejected":          models.SubmissionStatusRejected,
	"withdrawn":         models.SubmissionStatusWithdrawn,
}

type CreateSubmissionRequest struct {
	TourID    int `json:"tour_id" binding:"required"`
	VersionID int `json:"version_id" binding:"required"`
}

// CreateSubmission opens a review request for a tour version. The
// submission is born submitted; the lifecycle handler reacting to the
// create event moves the tour to pending_review.
func CreateSubmission(c *gin.Context) {
	requester, ok := requesterFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	var tour models.Tour
	if err := config.DB.First(&tour, req.TourID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tour not found"})
		return
	}
	if tour.CreatorID != requester.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your tour"})
		return
	}

	var version models.TourVersion
	if err := config.DB.Where("version_id = ? AND tour_id = ?", req.VersionID, req.TourID).
		First(&version).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Version not found for tour"})
		return
	}
	if version.VersionType == models.VersionTypeArchived {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Archived versions cannot be submitted"})
		return
	}

	var open int64
	if err := config.DB.Model(&models.PublishingSubmission{}).
		Where("tour_id = ? AND status IN ?", req.TourID, []models.SubmissionStatus{
			models.SubmissionStatusSubmitted,
			models.SubmissionStatusUnderReview,
			models.SubmissionStatusChangesRequested,
		}).Count(&open).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check open submissions"})
		return
	}
	if open > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Tour already has an open submission"})
		return
	}

	now := time.Now()
	submission := models.PublishingSubmission{
		SubmissionNumber: utils.GenerateSubmissionNumber(),
		TourID:           req.TourID,
		VersionID:        req.VersionID,
		CreatorID:        requester.ID,
		Status:           models.SubmissionStatusSubmitted,
		SubmittedAt:      now,
		CreateAt:         now,
		UpdateAt:         now,
	}
	if err := config.DB.Create(&submission).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create submission"})
		return
	}

	services.Events.DispatchSubmissionChange(services.SubmissionEvent{
		ActorID: requester.ID,
		Before:  nil,
		After:   submission,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": submission,
	})
}

type TransitionRequest struct {
	Status             string `json:"status" binding:"required"`
	RejectionReason    string `json:"rejection_reason"`
	IgnoredSuggestions bool   `json:"ignored_suggestions"`
}

// TransitionSubmission is the only sanctioned way a submission's status
// changes. It authorizes the requester against the transition table,
// commits the status write, and fires the change event that performs
// the side effects asynchronously.
func TransitionSubmission(c *gin.Context) {
	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	newStatus, ok := submissionStatuses[strings.ToLower(strings.TrimSpace(req.Status))]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	var before models.PublishingSubmission
	if err := config.DB.First(&before, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submission"})
		return
	}

	if err := services.Lifecycle.Authorize(requester, &before, newStatus); err != nil {
		var illegal *services.IllegalTransitionError
		if errors.As(err, &illegal) {
			c.JSON(http.StatusConflict, gin.H{"error": illegal.Error()})
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to perform this transition"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":    newStatus,
		"update_at": now,
	}

	switch newStatus {
	case models.SubmissionStatusUnderReview:
		// Reviewer identity is stamped only once, when the review is
		// first claimed.
		if before.ReviewerID == nil {
			var reviewer models.User
			if err := config.DB.Select("user_id, display_name").First(&reviewer, requester.ID).Error; err == nil {
				updates["reviewer_id"] = reviewer.UserID
				updates["reviewer_name"] = reviewer.DisplayName
			}
		}
	case models.SubmissionStatusRejected:
		reason := strings.TrimSpace(req.RejectionReason)
		if reason == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Rejection reason is required"})
			return
		}
		updates["rejection_reason"] = reason
	case models.SubmissionStatusSubmitted:
		// changes_requested -> submitted is the resubmission cycle.
		updates["resubmission_count"] = before.ResubmissionCount + 1
		updates["creator_ignored_suggestions"] = req.IgnoredSuggestions
		updates["submitted_at"] = now
	}

	// The status predicate makes the write conditional on the state we
	// authorized against; a concurrent transition that lands first wins.
	res := config.DB.Model(&models.PublishingSubmission{}).
		Where("submission_id = ? AND status = ?", submissionID, before.Status).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update submission"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Submission was modified concurrently"})
		return
	}

	var after models.PublishingSubmission
	if err := config.DB.First(&after, submissionID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload submission"})
		return
	}

	services.Events.DispatchSubmissionChange(services.SubmissionEvent{
		ActorID: requester.ID,
		Before:  &before,
		After:   after,
	})

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": after,
	})
}

// GetSubmission returns one submission with its feedback thread.
func GetSubmission(c *gin.Context) {
	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var submission models.PublishingSubmission
	if err := config.DB.Preload("Feedback").Preload("Tour").Preload("Version").
		First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submission"})
		return
	}

	if requester.Role == models.RoleCreator && submission.CreatorID != requester.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your submission"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
	})
}

// ListSubmissions lists the review queue. Creators see their own
// submissions; reviewers and admins see all, optionally filtered by
// status.
func ListSubmissions(c *gin.Context) {
	requester, ok := requesterFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	query := config.DB.Model(&models.PublishingSubmission{}).Order("submitted_at DESC")

	if requester.Role == models.RoleCreator {
		query = query.Where("creator_id = ?", requester.ID)
	}

	if statusParam := strings.TrimSpace(c.Query("status")); statusParam != "" {
		status, ok := submissionStatuses[strings.ToLower(statusParam)]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		query = query.Where("status = ?", status)
	}

	var submissions []models.PublishingSubmission
	if err := query.Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch submissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"submissions": submissions,
		"total":       len(submissions),
	})
}
