package services

import (
	"errors"
	"fmt"
	"time"

	"tour-marketplace-api/models"

	"gorm.io/gorm"
)

// TourService owns all writes to tours.status and
// tours.live_version_id. Nothing else in the codebase updates those
// columns.
type TourService struct {
	db *gorm.DB
}

func NewTourService(db *gorm.DB) *TourService {
	return &TourService{db: db}
}

// SyncTourStatus updates the tour's review status plus any
// transition-specific columns in extra. It runs on tx when given so the
// caller can commit it together with the audit entry.
func (s *TourService) SyncTourStatus(tx *gorm.DB, tourID int, status models.TourStatus, extra map[string]interface{}) error {
	if tx == nil {
		tx = s.db
	}

	updates := map[string]interface{}{
		"status":    status,
		"update_at": time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&models.Tour{}).Where("tour_id = ?", tourID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTourNotFound
	}
	return nil
}

// PromoteVersion makes versionID the tour's live version in one atomic
// batch: the prior live version (if any, and different) is archived, the
// new version goes live, and the tour gets live_version_id + approved
// status. published_at is stamped only on the tour's first promotion;
// republishing never resets it.
//
// The archive and live flips carry current-state predicates so a
// duplicate delivery of the same approval commits as a no-op instead of
// double-archiving.
func (s *TourService) PromoteVersion(tourID, versionID int) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var tour models.Tour
		if err := tx.Where("tour_id = ?", tourID).First(&tour).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTourNotFound
			}
			return err
		}

		var version models.TourVersion
		if err := tx.Where("version_id = ? AND tour_id = ?", versionID, tourID).First(&version).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVersionNotFound
			}
			return err
		}

		// An archived version is never promoted again.
		if version.VersionType == models.VersionTypeArchived {
			return fmt.Errorf("version %d is archived and cannot go live", versionID)
		}

		now := time.Now()

		if tour.LiveVersionID != nil && *tour.LiveVersionID != versionID {
			if err := tx.Model(&models.TourVersion{}).
				Where("version_id = ? AND tour_id = ? AND version_type = ?",
					*tour.LiveVersionID, tourID, models.VersionTypeLive).
				Updates(map[string]interface{}{
					"version_type": models.VersionTypeArchived,
					"update_at":    now,
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.TourVersion{}).
			Where("version_id = ? AND version_type <> ?", versionID, models.VersionTypeArchived).
			Updates(map[string]interface{}{
				"version_type": models.VersionTypeLive,
				"update_at":    now,
			}).Error; err != nil {
			return err
		}

		tourUpdates := map[string]interface{}{
			"live_version_id": versionID,
			"status":          models.TourStatusApproved,
			"update_at":       now,
		}
		if tour.PublishedAt == nil {
			tourUpdates["published_at"] = now
		}

		return tx.Model(&models.Tour{}).Where("tour_id = ?", tourID).Updates(tourUpdates).Error
	})

	if err != nil {
		if errors.Is(err, ErrTourNotFound) || errors.Is(err, ErrVersionNotFound) {
			return err
		}
		return &PromotionError{TourID: tourID, VersionID: versionID, Err: err}
	}
	return nil
}

// NextVersionNumber returns the next monotonic version number for a
// tour. Numbers are never reused, even after versions are archived.
func (s *TourService) NextVersionNumber(tx *gorm.DB, tourID int) (int, error) {
	if tx == nil {
		tx = s.db
	}
	var max int
	if err := tx.Model(&models.TourVersion{}).
		Where("tour_id = ?", tourID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max + 1, nil
}
