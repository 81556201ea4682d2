package models

import (
	"time"
)

type VersionType string

const (
	VersionTypeDraft    VersionType = "draft"
	VersionTypeLive     VersionType = "live"
	VersionTypeArchived VersionType = "archived"
)

// TourVersion is an immutable content snapshot of a tour. Version
// numbers are monotonic per tour and never reused; at most one version
// per tour is live at any time, and an archived version is never
// promoted again.
type TourVersion struct {
	VersionID     int         `gorm:"primaryKey;column:version_id" json:"version_id"`
	TourID        int         `gorm:"column:tour_id;index" json:"tour_id"`
	VersionNumber int         `gorm:"column:version_number" json:"version_number"`
	VersionType   VersionType `gorm:"column:version_type" json:"version_type"`
	Title         string      `gorm:"column:title" json:"title"`
	StopsRef      string      `gorm:"column:stops_ref" json:"stops_ref"`
	Route         string      `gorm:"column:route;type:text" json:"route"`
	CreateAt      time.Time   `gorm:"column:create_at" json:"create_at"`
	UpdateAt      time.Time   `gorm:"column:update_at" json:"update_at"`
}

func (TourVersion) TableName() string {
	return "tour_versions"
}
