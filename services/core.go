package services

import (
	"gorm.io/gorm"
)

// Package-level service registry wired at startup. Controllers reach
// the core through these.
var (
	Tours          *TourService
	Audits         *AuditService
	Notifications  *NotificationService
	Lifecycle      *LifecycleService
	Feedback       *FeedbackNotifier
	Reconciliation *ReconciliationService
	Events         *Dispatcher
)

// Init builds the service graph over db and subscribes the lifecycle
// handlers to the change dispatcher.
func Init(db *gorm.DB) {
	Tours = NewTourService(db)
	Audits = NewAuditService(db)
	Notifications = NewNotificationService(db)
	Lifecycle = NewLifecycleService(db, Tours, Audits, Notifications)
	Feedback = NewFeedbackNotifier(db, Audits, Notifications)
	Reconciliation = NewReconciliationService(db)

	Events = NewDispatcher()
	Lifecycle.Register(Events)
	Feedback.Register(Events)
}
