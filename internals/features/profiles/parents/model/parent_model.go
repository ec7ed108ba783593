package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Parent is the guardian/account-holder profile. Guests get a row with a
// nil user id; signed-in guardians link to their auth account.
type Parent struct {
	ParentID uuid.UUID `gorm:"column:parent_id;type:uuid;default:gen_random_uuid();primaryKey" json:"parent_id"`

	ParentUserID *uuid.UUID `gorm:"column:parent_user_id;type:uuid;uniqueIndex" json:"parent_user_id,omitempty"`

	ParentFirstName string  `gorm:"column:parent_first_name;type:varchar(80);not null" json:"parent_first_name"`
	ParentLastName  string  `gorm:"column:parent_last_name;type:varchar(80)" json:"parent_last_name"`
	ParentEmail     string  `gorm:"column:parent_email;type:varchar(255);not null;index" json:"parent_email"`
	ParentPhone     string  `gorm:"column:parent_phone;type:varchar(32);not null" json:"parent_phone"`
	ParentAddress   *string `gorm:"column:parent_address;type:text" json:"parent_address,omitempty"`

	// back-reference: ids of the racers this guardian owns
	ParentStudentIDs pq.StringArray `gorm:"column:parent_student_ids;type:text[]" json:"parent_student_ids"`

	CreatedAt time.Time      `gorm:"column:parent_created_at;autoCreateTime" json:"parent_created_at"`
	UpdatedAt time.Time      `gorm:"column:parent_updated_at;autoUpdateTime" json:"parent_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:parent_deleted_at;index" json:"parent_deleted_at,omitempty"`
}

func (Parent) TableName() string { return "parents" }

func (p *Parent) FullName() string {
	if p.ParentLastName == "" {
		return p.ParentFirstName
	}
	return p.ParentFirstName + " " + p.ParentLastName
}

func (p *Parent) HasStudent(id uuid.UUID) bool {
	s := id.String()
	for _, v := range p.ParentStudentIDs {
		if v == s {
			return true
		}
	}
	return false
}
