package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	NotificationTagEnrollment = "enrollment"
	NotificationTagPayment    = "payment"
)

// Notification is an in-app message shown on a parent's dashboard.
type Notification struct {
	NotificationID uuid.UUID `gorm:"column:notification_id;type:uuid;default:gen_random_uuid();primaryKey" json:"notification_id"`

	NotificationParentID uuid.UUID `gorm:"column:notification_parent_id;type:uuid;not null;index" json:"notification_parent_id"`

	NotificationTitle string         `gorm:"column:notification_title;type:varchar(200);not null" json:"notification_title"`
	NotificationBody  string         `gorm:"column:notification_body;type:text;not null" json:"notification_body"`
	NotificationTags  pq.StringArray `gorm:"column:notification_tags;type:text[]" json:"notification_tags"`

	NotificationIsRead bool `gorm:"column:notification_is_read;not null;default:false" json:"notification_is_read"`

	CreatedAt time.Time      `gorm:"column:notification_created_at;autoCreateTime" json:"notification_created_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:notification_deleted_at;index" json:"notification_deleted_at,omitempty"`
}

func (Notification) TableName() string { return "notifications" }
