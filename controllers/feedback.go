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

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AddFeedbackRequest struct {
	Type     string  `json:"type" binding:"required"`
	Message  string  `json:"message" binding:"required"`
	StopRef  *string `json:"stop_ref"`
	Priority int     `json:"priority"`
}

// AddFeedback attaches a reviewer remark to a submission under review.
// Creation fires the feedback event; the notifier handles audit and
// creator notification from there.
func AddFeedback(c *gin.Context) {
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

	var req AddFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}
	if !models.IsValidFeedbackType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback type"})
		return
	}

	var submission models.PublishingSubmission
	if err := config.DB.First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submission"})
		return
	}

	if submission.Status != models.SubmissionStatusUnderReview &&
		submission.Status != models.SubmissionStatusChangesRequested {
		c.JSON(http.StatusConflict, gin.H{"error": "Submission is not being reviewed"})
		return
	}

	var reviewer models.User
	if err := config.DB.Select("user_id, display_name").First(&reviewer, requester.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reviewer"})
		return
	}

	feedback := models.ReviewFeedback{
		SubmissionID: submissionID,
		ReviewerID:   reviewer.UserID,
		ReviewerName: reviewer.DisplayName,
		Type:         req.Type,
		Message:      strings.TrimSpace(req.Message),
		StopRef:      req.StopRef,
		Priority:     req.Priority,
		CreateAt:     time.Now(),
	}
	if err := config.DB.Create(&feedback).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save feedback"})
		return
	}

	services.Events.DispatchFeedbackCreated(services.FeedbackEvent{
		ActorID:  requester.ID,
		Feedback: feedback,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"feedback": feedback,
	})
}

type ResolveFeedbackRequest struct {
	Resolved bool `json:"resolved"`
}

// ResolveFeedback toggles the resolved flag. Allowed for the
// submission's creator and for reviewers; nothing else on a feedback
// item is ever mutated.
func ResolveFeedback(c *gin.Context) {
	feedbackID, err := strconv.Atoi(c.Param("feedbackId"))
	if err != nil || feedbackID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback ID"})
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req ResolveFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var feedback models.ReviewFeedback
	if err := config.DB.First(&feedback, feedbackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Feedback not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feedback"})
		return
	}

	var submission models.PublishingSubmission
	if err := config.DB.First(&submission, feedback.SubmissionID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submission"})
		return
	}

	if requester.Role == models.RoleCreator && submission.CreatorID != requester.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your submission"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"resolved": req.Resolved,
	}
	if req.Resolved {
		updates["resolved_by"] = requester.ID
		updates["resolved_at"] = now
	} else {
		updates["resolved_by"] = nil
		updates["resolved_at"] = nil
	}

	if err := config.DB.Model(&models.ReviewFeedback{}).
		Where("feedback_id = ?", feedbackID).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update feedback"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
