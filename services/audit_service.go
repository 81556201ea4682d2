package services

import (
	"time"

	"tour-marketplace-api/models"

	"gorm.io/gorm"
)

// AuditService appends immutable audit rows. An entry asserts its side
// effect actually committed, so callers write entries only after (or in
// the same transaction as) the mutation they describe.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) Record(tx *gorm.DB, entry *models.AuditLog) error {
	if tx == nil {
		tx = s.db
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return tx.Create(entry).Error
}

// ListFilter narrows the admin audit query.
type ListFilter struct {
	TourID       *int
	SubmissionID *int
	Action       string
	Limit        int
}

func (s *AuditService) List(filter ListFilter) ([]models.AuditLog, error) {
	query := s.db.Model(&models.AuditLog{}).Order("created_at DESC, log_id DESC")

	if filter.TourID != nil {
		query = query.Where("tour_id = ?", *filter.TourID)
	}
	if filter.SubmissionID != nil {
		query = query.Where("entity_type = ? AND entity_id = ?", "submission", *filter.SubmissionID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []models.AuditLog
	if err := query.Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
