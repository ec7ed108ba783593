package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

const (
	CourseLevelRookie       = "rookie"
	CourseLevelIntermediate = "intermediate"
	CourseLevelAdvanced     = "advanced"
	CourseLevelCompetition  = "competition"
)

/* ===================== Model ===================== */

type Course struct {
	CourseID uuid.UUID `gorm:"column:course_id;type:uuid;default:gen_random_uuid();primaryKey" json:"course_id"`

	CourseName        string `gorm:"column:course_name;type:varchar(150);not null" json:"course_name"`
	CourseSlug        string `gorm:"column:course_slug;type:varchar(160);uniqueIndex;not null" json:"course_slug"`
	CourseDescription string `gorm:"column:course_description;type:text" json:"course_description"`
	CourseLevel       string `gorm:"column:course_level;type:varchar(20);not null;default:'rookie'" json:"course_level"`

	// Price snapshot source for enrollments; must not drift silently after create
	CoursePriceAmount   float64 `gorm:"column:course_price_amount;type:numeric(12,2);not null;check:course_price_amount >= 0" json:"course_price_amount"`
	CoursePriceCurrency string  `gorm:"column:course_price_currency;type:varchar(3);not null;default:'USD'" json:"course_price_currency"`

	CourseCapacity int `gorm:"column:course_capacity;not null;default:12" json:"course_capacity"`

	CourseStartDate *time.Time `gorm:"column:course_start_date" json:"course_start_date,omitempty"`
	CourseEndDate   *time.Time `gorm:"column:course_end_date" json:"course_end_date,omitempty"`
	// session times, e.g. [{"day":"sat","from":"09:00","to":"11:00"}]
	CourseSessionSchedule datatypes.JSON `gorm:"column:course_session_schedule;type:jsonb" json:"course_session_schedule,omitempty"`

	CourseImageURL     *string    `gorm:"column:course_image_url" json:"course_image_url,omitempty"`
	CourseInstructorID *uuid.UUID `gorm:"column:course_instructor_id;type:uuid;index" json:"course_instructor_id,omitempty"`
	CourseIsActive     bool       `gorm:"column:course_is_active;not null;default:true" json:"course_is_active"`

	CreatedAt time.Time      `gorm:"column:course_created_at;autoCreateTime" json:"course_created_at"`
	UpdatedAt time.Time      `gorm:"column:course_updated_at;autoUpdateTime" json:"course_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:course_deleted_at;index" json:"course_deleted_at,omitempty"`
}

func (Course) TableName() string { return "courses" }

/* ===================== Helpers ===================== */

func (co *Course) IsUpcoming(now time.Time) bool {
	return co.CourseStartDate != nil && co.CourseStartDate.After(now)
}

func (co *Course) IsRunning(now time.Time) bool {
	if co.CourseStartDate == nil {
		return false
	}
	if co.CourseEndDate == nil {
		return !co.CourseStartDate.After(now)
	}
	return !co.CourseStartDate.After(now) && co.CourseEndDate.After(now)
}
