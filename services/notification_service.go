package services

import (
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"tour-marketplace-api/config"
	"tour-marketplace-api/models"

	"gorm.io/gorm"
)

// Notifier is the best-effort notification collaborator. Calls never
// block the state machine and never return errors: delivery failures
// are logged and swallowed.
type Notifier interface {
	NotifyCreator(userID int, submissionID int, kind, title, message string)
}

// NotificationService stores in-app notification rows and mirrors them
// to email in a fire-and-forget goroutine.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notification kinds used by the lifecycle handlers.
const (
	NotifyChangesRequested = "submission_changes_requested"
	NotifyApproved         = "submission_approved"
	NotifyRejected         = "submission_rejected"
	NotifyFeedbackAdded    = "feedback_added"
)

func notificationType(kind string) string {
	switch kind {
	case NotifyApproved:
		return "success"
	case NotifyRejected:
		return "error"
	case NotifyChangesRequested:
		return "warning"
	}
	return "info"
}

func (s *NotificationService) NotifyCreator(userID int, submissionID int, kind, title, message string) {
	related := submissionID
	n := models.Notification{
		UserID:              userID,
		Title:               title,
		Message:             message,
		Type:                notificationType(kind),
		RelatedSubmissionID: &related,
		IsRead:              false,
		CreateAt:            time.Now(),
	}
	if err := s.db.Create(&n).Error; err != nil {
		log.Printf("notification insert failed (user=%d kind=%s): %v", userID, kind, err)
	}

	var user models.User
	if err := s.db.Select("user_id, display_name, email").First(&user, userID).Error; err != nil {
		log.Printf("notification email skipped, user %d not loaded: %v", userID, err)
		return
	}

	go func() {
		html := buildEmailHTML(title, user.DisplayName, message)
		sendMailSafe([]string{user.Email}, title, html)
	}()
}

func sendMailSafe(to []string, subject, html string) {
	if err := config.SendMail(to, subject, html); err != nil {
		log.Printf("notification email send failed (subject=%q to=%v): %v", subject, to, err)
	}
}

func buildEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "Creator"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
