package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Facility struct {
	FacilityID uuid.UUID `gorm:"column:facility_id;type:uuid;default:gen_random_uuid();primaryKey" json:"facility_id"`

	FacilityName        string `gorm:"column:facility_name;type:varchar(120);not null" json:"facility_name"`
	FacilitySlug        string `gorm:"column:facility_slug;type:varchar(140);uniqueIndex;not null" json:"facility_slug"`
	FacilityDescription string `gorm:"column:facility_description;type:text" json:"facility_description"`

	// track length, corner count, surface, safety gear...
	FacilitySpecs datatypes.JSONMap `gorm:"column:facility_specs;type:jsonb" json:"facility_specs,omitempty"`

	FacilityGallery pq.StringArray `gorm:"column:facility_gallery;type:text[]" json:"facility_gallery"`

	FacilityIsActive bool `gorm:"column:facility_is_active;not null;default:true" json:"facility_is_active"`

	CreatedAt time.Time      `gorm:"column:facility_created_at;autoCreateTime" json:"facility_created_at"`
	UpdatedAt time.Time      `gorm:"column:facility_updated_at;autoUpdateTime" json:"facility_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:facility_deleted_at;index" json:"facility_deleted_at,omitempty"`
}

func (Facility) TableName() string { return "facilities" }
