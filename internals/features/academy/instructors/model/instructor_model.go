package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Instructor struct {
	InstructorID uuid.UUID `gorm:"column:instructor_id;type:uuid;default:gen_random_uuid();primaryKey" json:"instructor_id"`

	InstructorName  string  `gorm:"column:instructor_name;type:varchar(100);not null" json:"instructor_name"`
	InstructorBio   string  `gorm:"column:instructor_bio;type:text" json:"instructor_bio"`
	InstructorPhoto *string `gorm:"column:instructor_photo_url" json:"instructor_photo_url,omitempty"`

	// racing licenses, podiums, years on track
	InstructorCredentials pq.StringArray `gorm:"column:instructor_credentials;type:text[]" json:"instructor_credentials"`

	InstructorIsActive bool `gorm:"column:instructor_is_active;not null;default:true" json:"instructor_is_active"`

	CreatedAt time.Time      `gorm:"column:instructor_created_at;autoCreateTime" json:"instructor_created_at"`
	UpdatedAt time.Time      `gorm:"column:instructor_updated_at;autoUpdateTime" json:"instructor_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:instructor_deleted_at;index" json:"instructor_deleted_at,omitempty"`
}

func (Instructor) TableName() string { return "instructors" }
