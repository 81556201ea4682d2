package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"tour-marketplace-api/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tour{},
		&models.TourVersion{},
		&models.PublishingSubmission{},
		&models.ReviewFeedback{},
		&models.AuditLog{},
		&models.Notification{},
	))
	return db
}

type notifyCall struct {
	UserID       int
	SubmissionID int
	Kind         string
	Title        string
	Message      string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (f *fakeNotifier) NotifyCreator(userID int, submissionID int, kind, title, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifyCall{
		UserID:       userID,
		SubmissionID: submissionID,
		Kind:         kind,
		Title:        title,
		Message:      message,
	})
}

func (f *fakeNotifier) Calls() []notifyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notifyCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func seedCreator(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		DisplayName: "Maya Creator",
		Email:       fmt.Sprintf("creator-%s@example.com", t.Name()),
		Password:    "irrelevant",
		Role:        models.RoleCreator,
		CreateAt:    time.Now(),
		UpdateAt:    time.Now(),
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedTour(t *testing.T, db *gorm.DB, creatorID int, status models.TourStatus) models.Tour {
	t.Helper()
	now := time.Now()
	tour := models.Tour{
		CreatorID: creatorID,
		Title:     "Old Town Walk",
		Category:  "history",
		Status:    status,
		CreateAt:  now,
		UpdateAt:  now,
	}
	require.NoError(t, db.Create(&tour).Error)
	return tour
}

func seedVersion(t *testing.T, db *gorm.DB, tourID, number int, vtype models.VersionType) models.TourVersion {
	t.Helper()
	now := time.Now()
	version := models.TourVersion{
		TourID:        tourID,
		VersionNumber: number,
		VersionType:   vtype,
		Title:         fmt.Sprintf("Old Town Walk v%d", number),
		CreateAt:      now,
		UpdateAt:      now,
	}
	require.NoError(t, db.Create(&version).Error)
	return version
}

func seedSubmission(t *testing.T, db *gorm.DB, tourID, versionID, creatorID int, status models.SubmissionStatus) models.PublishingSubmission {
	t.Helper()
	now := time.Now()
	sub := models.PublishingSubmission{
		SubmissionNumber: fmt.Sprintf("PS-TEST-%d-%d", tourID, versionID),
		TourID:           tourID,
		VersionID:        versionID,
		CreatorID:        creatorID,
		Status:           status,
		SubmittedAt:      now,
		CreateAt:         now,
		UpdateAt:         now,
	}
	require.NoError(t, db.Create(&sub).Error)
	return sub
}

func countAudits(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&n).Error)
	return n
}
