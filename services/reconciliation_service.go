package services

import (
	"tour-marketplace-api/models"

	"gorm.io/gorm"
)

// Divergence is an approved submission whose tour never reflected the
// promotion (a failed promotion batch left the submission approved but
// the tour unpromoted). These are surfaced to operators for manual
// reconciliation instead of being retried blindly.
type Divergence struct {
	SubmissionID     int               `gorm:"column:submission_id" json:"submission_id"`
	SubmissionNumber string            `gorm:"column:submission_number" json:"submission_number"`
	TourID           int               `gorm:"column:tour_id" json:"tour_id"`
	VersionID        int               `gorm:"column:version_id" json:"version_id"`
	TourStatus       models.TourStatus `gorm:"column:tour_status" json:"tour_status"`
	LiveVersionID    *int              `gorm:"column:live_version_id" json:"live_version_id"`
}

type ReconciliationService struct {
	db *gorm.DB
}

func NewReconciliationService(db *gorm.DB) *ReconciliationService {
	return &ReconciliationService{db: db}
}

// FindDivergences compares every approved submission against its tour's
// promoted state.
func (s *ReconciliationService) FindDivergences() ([]Divergence, error) {
	var divergences []Divergence
	err := s.db.Table("publishing_submissions AS s").
		Select("s.submission_id, s.submission_number, s.tour_id, s.version_id, t.status AS tour_status, t.live_version_id").
		Joins("JOIN tours t ON t.tour_id = s.tour_id").
		Where("s.status = ?", models.SubmissionStatusApproved).
		Where("t.live_version_id IS NULL OR t.live_version_id <> s.version_id").
		Order("s.submission_id").
		Scan(&divergences).Error
	if err != nil {
		return nil, err
	}
	return divergences, nil
}
