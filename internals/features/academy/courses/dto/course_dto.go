package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"kartacademy_backend/internals/features/academy/courses/model"
)

/* ===================== REQUEST DTOs ===================== */

type CreateCourseRequest struct {
	CourseName        string `json:"course_name" validate:"required,min=3,max=150"`
	CourseSlug        string `json:"course_slug" validate:"omitempty,max=160"`
	CourseDescription string `json:"course_description" validate:"omitempty"`
	CourseLevel       string `json:"course_level" validate:"omitempty,oneof=rookie intermediate advanced competition"`

	CoursePriceAmount   float64 `json:"course_price_amount" validate:"required,gte=0"`
	CoursePriceCurrency string  `json:"course_price_currency" validate:"omitempty,len=3"`

	CourseCapacity int `json:"course_capacity" validate:"omitempty,gt=0"`

	CourseStartDate       *time.Time     `json:"course_start_date,omitempty"`
	CourseEndDate         *time.Time     `json:"course_end_date,omitempty"`
	CourseSessionSchedule datatypes.JSON `json:"course_session_schedule,omitempty"`

	CourseInstructorID *uuid.UUID `json:"course_instructor_id,omitempty"`
}

func (r *CreateCourseRequest) ToModel() *model.Course {
	level := r.CourseLevel
	if level == "" {
		level = model.CourseLevelRookie
	}
	cur := strings.ToUpper(strings.TrimSpace(r.CoursePriceCurrency))
	if cur == "" {
		cur = "USD"
	}
	cap := r.CourseCapacity
	if cap <= 0 {
		cap = 12
	}
	slug := strings.TrimSpace(r.CourseSlug)
	if slug == "" {
		slug = Slugify(r.CourseName)
	}
	return &model.Course{
		CourseName:            strings.TrimSpace(r.CourseName),
		CourseSlug:            slug,
		CourseDescription:     r.CourseDescription,
		CourseLevel:           level,
		CoursePriceAmount:     r.CoursePriceAmount,
		CoursePriceCurrency:   cur,
		CourseCapacity:        cap,
		CourseStartDate:       r.CourseStartDate,
		CourseEndDate:         r.CourseEndDate,
		CourseSessionSchedule: r.CourseSessionSchedule,
		CourseInstructorID:    r.CourseInstructorID,
		CourseIsActive:        true,
	}
}

type UpdateCourseRequest struct {
	CourseName        *string `json:"course_name" validate:"omitempty,min=3,max=150"`
	CourseDescription *string `json:"course_description,omitempty"`
	CourseLevel       *string `json:"course_level" validate:"omitempty,oneof=rookie intermediate advanced competition"`

	// Price changes are explicit admin actions; existing enrollments keep their snapshot.
	CoursePriceAmount   *float64 `json:"course_price_amount" validate:"omitempty,gte=0"`
	CoursePriceCurrency *string  `json:"course_price_currency" validate:"omitempty,len=3"`

	CourseCapacity        *int            `json:"course_capacity" validate:"omitempty,gt=0"`
	CourseStartDate       *time.Time      `json:"course_start_date,omitempty"`
	CourseEndDate         *time.Time      `json:"course_end_date,omitempty"`
	CourseSessionSchedule *datatypes.JSON `json:"course_session_schedule,omitempty"`
	CourseInstructorID    *uuid.UUID      `json:"course_instructor_id,omitempty"`
	CourseIsActive        *bool           `json:"course_is_active,omitempty"`
}

// ApplyPatch builds the update map so only provided fields change.
func (r *UpdateCourseRequest) ApplyPatch() map[string]interface{} {
	patch := map[string]interface{}{}
	if r.CourseName != nil {
		patch["course_name"] = strings.TrimSpace(*r.CourseName)
	}
	if r.CourseDescription != nil {
		patch["course_description"] = *r.CourseDescription
	}
	if r.CourseLevel != nil {
		patch["course_level"] = *r.CourseLevel
	}
	if r.CoursePriceAmount != nil {
		patch["course_price_amount"] = *r.CoursePriceAmount
	}
	if r.CoursePriceCurrency != nil {
		patch["course_price_currency"] = strings.ToUpper(strings.TrimSpace(*r.CoursePriceCurrency))
	}
	if r.CourseCapacity != nil {
		patch["course_capacity"] = *r.CourseCapacity
	}
	if r.CourseStartDate != nil {
		patch["course_start_date"] = *r.CourseStartDate
	}
	if r.CourseEndDate != nil {
		patch["course_end_date"] = *r.CourseEndDate
	}
	if r.CourseSessionSchedule != nil {
		patch["course_session_schedule"] = *r.CourseSessionSchedule
	}
	if r.CourseInstructorID != nil {
		patch["course_instructor_id"] = *r.CourseInstructorID
	}
	if r.CourseIsActive != nil {
		patch["course_is_active"] = *r.CourseIsActive
	}
	return patch
}

// Slugify: lowercase, dashes, alnum only
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prevDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
