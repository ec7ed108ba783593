package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

const (
	StudentExperienceNone   = "none"
	StudentExperienceSome   = "some"
	StudentExperienceRacing = "racing"
)

/* ===================== Model ===================== */

// Student is the racer profile, created once payment has cleared and the
// guardian submits racer details.
type Student struct {
	StudentID uuid.UUID `gorm:"column:student_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_id"`

	StudentParentID uuid.UUID `gorm:"column:student_parent_id;type:uuid;not null;index" json:"student_parent_id"`

	StudentFirstName   string    `gorm:"column:student_first_name;type:varchar(80);not null" json:"student_first_name"`
	StudentLastName    string    `gorm:"column:student_last_name;type:varchar(80)" json:"student_last_name"`
	StudentDateOfBirth time.Time `gorm:"column:student_date_of_birth;type:date;not null" json:"student_date_of_birth"`

	StudentEmergencyName  string `gorm:"column:student_emergency_name;type:varchar(120);not null" json:"student_emergency_name"`
	StudentEmergencyPhone string `gorm:"column:student_emergency_phone;type:varchar(32);not null" json:"student_emergency_phone"`

	StudentMedicalNotes *string `gorm:"column:student_medical_notes;type:text" json:"student_medical_notes,omitempty"`
	StudentExperience   string  `gorm:"column:student_experience;type:varchar(20);not null;default:'none'" json:"student_experience"`

	CreatedAt time.Time      `gorm:"column:student_created_at;autoCreateTime" json:"student_created_at"`
	UpdatedAt time.Time      `gorm:"column:student_updated_at;autoUpdateTime" json:"student_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:student_deleted_at;index" json:"student_deleted_at,omitempty"`
}

func (Student) TableName() string { return "students" }

func (s *Student) Age(now time.Time) int {
	years := now.Year() - s.StudentDateOfBirth.Year()
	if now.YearDay() < s.StudentDateOfBirth.YearDay() {
		years--
	}
	return years
}
