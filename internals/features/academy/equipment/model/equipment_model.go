package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

const (
	EquipmentCategoryKart   = "kart"
	EquipmentCategoryHelmet = "helmet"
	EquipmentCategorySuit   = "suit"
	EquipmentCategoryGloves = "gloves"
	EquipmentCategoryOther  = "other"
)

const (
	EquipmentConditionNew         = "new"
	EquipmentConditionGood        = "good"
	EquipmentConditionWorn        = "worn"
	EquipmentConditionMaintenance = "maintenance"
	EquipmentConditionRetired     = "retired"
)

/* ===================== Model ===================== */

type Equipment struct {
	EquipmentID uuid.UUID `gorm:"column:equipment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"equipment_id"`

	EquipmentLabel    string `gorm:"column:equipment_label;type:varchar(60);uniqueIndex;not null" json:"equipment_label"` // e.g. KART-07
	EquipmentCategory string `gorm:"column:equipment_category;type:varchar(20);not null" json:"equipment_category"`
	EquipmentSize     string `gorm:"column:equipment_size;type:varchar(20)" json:"equipment_size"`

	EquipmentCondition string `gorm:"column:equipment_condition;type:varchar(20);not null;default:'good'" json:"equipment_condition"`

	// append-only maintenance log
	EquipmentMaintenanceNotes pq.StringArray `gorm:"column:equipment_maintenance_notes;type:text[]" json:"equipment_maintenance_notes"`

	EquipmentIsAssigned bool `gorm:"column:equipment_is_assigned;not null;default:false" json:"equipment_is_assigned"`

	CreatedAt time.Time      `gorm:"column:equipment_created_at;autoCreateTime" json:"equipment_created_at"`
	UpdatedAt time.Time      `gorm:"column:equipment_updated_at;autoUpdateTime" json:"equipment_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:equipment_deleted_at;index" json:"equipment_deleted_at,omitempty"`
}

func (Equipment) TableName() string { return "equipment" }

func (e *Equipment) IsUsable() bool {
	switch e.EquipmentCondition {
	case EquipmentConditionMaintenance, EquipmentConditionRetired:
		return false
	default:
		return true
	}
}
