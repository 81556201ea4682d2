package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"tour-marketplace-api/services"

	"github.com/gin-gonic/gin"
)

// GetDivergences is the operator view of the one accepted inconsistency
// window: approved submissions whose tour never got the promotion.
func GetDivergences(c *gin.Context) {
	divergences, err := services.Reconciliation.FindDivergences()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run reconciliation query"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"divergences": divergences,
		"total":       len(divergences),
	})
}

// ListAuditLogs is the admin audit query surface.
func ListAuditLogs(c *gin.Context) {
	filter := services.ListFilter{
		Action: strings.TrimSpace(c.Query("action")),
	}

	if raw := c.Query("tour_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tour_id"})
			return
		}
		filter.TourID = &id
	}
	if raw := c.Query("submission_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission_id"})
			return
		}
		filter.SubmissionID = &id
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = limit
	}

	entries, err := services.Audits.List(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"entries": entries,
		"total":   len(entries),
	})
}
