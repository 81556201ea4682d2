package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"tour-marketplace-api/config"
	"tour-marketplace-api/models"
	"tour-marketplace-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateTourRequest struct {
	Title    string `json:"title" binding:"required"`
	Category string `json:"category" binding:"required"`
	StopsRef string `json:"stops_ref"`
	Route    string `json:"route"`
}

// CreateTour creates the tour shell plus its first draft version.
// tours.status starts at draft; only the lifecycle handlers move it
// afterwards.
func CreateTour(c *gin.Context) {
	requester, ok := requesterFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req CreateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	now := time.Now()
	tour := models.Tour{
		CreatorID: requester.ID,
		Title:     req.Title,
		Category:  req.Category,
		Status:    models.TourStatusDraft,
		CreateAt:  now,
		UpdateAt:  now,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tour).Error; err != nil {
			return err
		}

		version := models.TourVersion{
			TourID:        tour.TourID,
			VersionNumber: 1,
			VersionType:   models.VersionTypeDraft,
			Title:         req.Title,
			StopsRef:      req.StopsRef,
			Route:         req.Route,
			CreateAt:      now,
			UpdateAt:      now,
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}

		tour.DraftVersionID = version.VersionID
		return tx.Model(&models.Tour{}).
			Where("tour_id = ?", tour.TourID).
			Update("draft_version_id", version.VersionID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tour"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"tour":    tour,
	})
}

// GetMyTours lists the requester's tours.
func GetMyTours(c *gin.Context) {
	requester, ok := requesterFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var tours []models.Tour
	if err := config.DB.Where("creator_id = ?", requester.ID).
		Order("update_at DESC").Find(&tours).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tours"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tours":   tours,
		"total":   len(tours),
	})
}

// GetTour returns a tour with its versions. Creators see their own
// tours; reviewers and admins see any.
func GetTour(c *gin.Context) {
	tourID, err := strconv.Atoi(c.Param("id"))
	if err != nil || tourID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tour ID"})
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var tour models.Tour
	if err := config.DB.Preload("Versions").First(&tour, tourID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tour not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tour"})
		return
	}

	if requester.Role == models.RoleCreator && tour.CreatorID != requester.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your tour"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tour":    tour,
	})
}

// GetPublishedTours is the public catalog read model: approved tours
// with a live version.
func GetPublishedTours(c *gin.Context) {
	var tours []models.Tour
	if err := config.DB.Where("status = ? AND live_version_id IS NOT NULL", models.TourStatusApproved).
		Order("published_at DESC").Find(&tours).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tours"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tours":   tours,
		"total":   len(tours),
	})
}

type CreateVersionRequest struct {
	Title    string `json:"title" binding:"required"`
	StopsRef string `json:"stops_ref"`
	Route    string `json:"route"`
}

// CreateTourVersion snapshots a new draft version with the next
// monotonic version number and points draft_version_id at it. The
// tour's status and live version are untouched.
func CreateTourVersion(c *gin.Context) {
	tourID, err := strconv.Atoi(c.Param("id"))
	if err != nil || tourID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tour ID"})
		return
	}

	requester, ok := requesterFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req CreateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	var version models.TourVersion
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		var tour models.Tour
		if err := tx.First(&tour, tourID).Error; err != nil {
			return err
		}
		if tour.CreatorID != requester.ID {
			return services.ErrNotAuthorized
		}

		number, err := services.Tours.NextVersionNumber(tx, tourID)
		if err != nil {
			return err
		}

		now := time.Now()
		version = models.TourVersion{
			TourID:        tourID,
			VersionNumber: number,
			VersionType:   models.VersionTypeDraft,
			Title:         req.Title,
			StopsRef:      req.StopsRef,
			Route:         req.Route,
			CreateAt:      now,
			UpdateAt:      now,
		}
		if err := tx.Create(&version).Error; err != nil {
			return err
		}

		return tx.Model(&models.Tour{}).
			Where("tour_id = ?", tourID).
			Updates(map[string]interface{}{
				"draft_version_id": version.VersionID,
				"update_at":        now,
			}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Tour not found"})
		case errors.Is(err, services.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not your tour"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create version"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"version": version,
	})
}
