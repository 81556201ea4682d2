package models

import (
	"time"
)

// TourStatus mirrors the submission-derived review state of a tour.
// It is written only by the submission lifecycle handlers; tour CRUD
// endpoints never touch it.
type TourStatus string

const (
	TourStatusDraft         TourStatus = "draft"
	TourStatusPendingReview TourStatus = "pending_review"
	TourStatusApproved      TourStatus = "approved"
	TourStatusRejected      TourStatus = "rejected"
)

type Tour struct {
	TourID          int        `gorm:"primaryKey;column:tour_id" json:"tour_id"`
	CreatorID       int        `gorm:"column:creator_id;index" json:"creator_id"`
	Title           string     `gorm:"column:title" json:"title"`
	Category        string     `gorm:"column:category" json:"category"`
	Status          TourStatus `gorm:"column:status" json:"status"`
	LiveVersionID   *int       `gorm:"column:live_version_id" json:"live_version_id,omitempty"`
	DraftVersionID  int        `gorm:"column:draft_version_id" json:"draft_version_id"`
	PublishedAt     *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	RejectedAt      *time.Time `gorm:"column:rejected_at" json:"rejected_at,omitempty"`
	RejectionReason *string    `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	HiddenAt        *time.Time `gorm:"column:hidden_at" json:"hidden_at,omitempty"`
	HideReason      *string    `gorm:"column:hide_reason" json:"hide_reason,omitempty"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt        time.Time  `gorm:"column:update_at" json:"update_at"`

	// Relations
	Creator  *User         `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Versions []TourVersion `gorm:"foreignKey:TourID" json:"versions,omitempty"`
}

func (Tour) TableName() string {
	return "tours"
}
