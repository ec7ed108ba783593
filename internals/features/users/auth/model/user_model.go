package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;default:gen_random_uuid();primaryKey" json:"user_id"`
	UserName     string    `gorm:"column:user_name;type:varchar(100);not null" json:"user_name"`
	UserEmail    string    `gorm:"column:user_email;type:varchar(255);uniqueIndex;not null" json:"user_email"`
	UserPassword *string   `gorm:"column:user_password;type:text" json:"-"` // null for google-only accounts
	UserGoogleID *string   `gorm:"column:user_google_id;type:varchar(64);index" json:"-"`
	UserPhone    *string   `gorm:"column:user_phone;type:varchar(32)" json:"user_phone,omitempty"`
	UserRole     string    `gorm:"column:user_role;type:varchar(20);not null;default:'parent'" json:"user_role"`
	UserIsActive bool      `gorm:"column:user_is_active;not null;default:true" json:"user_is_active"`

	CreatedAt time.Time      `gorm:"column:user_created_at;autoCreateTime" json:"user_created_at"`
	UpdatedAt time.Time      `gorm:"column:user_updated_at;autoUpdateTime" json:"user_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:user_deleted_at;index" json:"user_deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }
