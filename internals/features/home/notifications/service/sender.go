package service

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/lib/pq"
	"gorm.io/gorm"

	flowService "kartacademy_backend/internals/features/enrollments/flow/service"
	"kartacademy_backend/internals/features/home/notifications/model"
)

// Sender delivers checkout notices: an in-app notification row plus an
// email. Email delivery goes through the log until a real provider is
// configured via SMTP_* env vars.
type Sender struct {
	DB        *gorm.DB
	EmailFrom string
}

func NewSender(db *gorm.DB) *Sender {
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = "noreply@kartacademy.example"
	}
	return &Sender{DB: db, EmailFrom: from}
}

var _ flowService.NotificationSender = (*Sender)(nil)

func (s *Sender) SendEnrollmentConfirmation(ctx context.Context, n flowService.ConfirmationNotice) error {
	body := fmt.Sprintf("%s is enrolled in %s.", n.StudentName, n.CourseName)

	row := &model.Notification{
		NotificationParentID: n.ParentID,
		NotificationTitle:    "Enrollment confirmed",
		NotificationBody:     body,
		NotificationTags:     pq.StringArray{model.NotificationTagEnrollment},
	}
	if err := s.DB.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if n.ParentEmail != "" {
		log.Printf("[MAIL] to=%s from=%s subject=%q enrollment=%s",
			n.ParentEmail, s.EmailFrom, "Enrollment confirmed", n.EnrollmentID)
	}
	return nil
}

func (s *Sender) SendPaymentConfirmation(ctx context.Context, n flowService.PaymentNotice) error {
	body := fmt.Sprintf(
		"Payment of %.2f %s received for %s (transaction %s).",
		n.Amount, n.Currency, n.CourseName, n.TransactionID,
	)

	row := &model.Notification{
		NotificationParentID: n.ParentID,
		NotificationTitle:    "Payment received",
		NotificationBody:     body,
		NotificationTags:     pq.StringArray{model.NotificationTagPayment},
	}
	if err := s.DB.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	if n.ParentEmail != "" {
		log.Printf("[MAIL] to=%s from=%s subject=%q enrollment=%s",
			n.ParentEmail, s.EmailFrom, "Payment received", n.EnrollmentID)
	}
	return nil
}
