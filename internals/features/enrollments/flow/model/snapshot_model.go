package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FlowSnapshot persists one in-progress enrollment flow so a client can pick
// it up again after a reload or a dropped connection. The course id lives in
// its own column so the flow can restart even when the payload is unreadable.
type FlowSnapshot struct {
	SnapshotID uuid.UUID `gorm:"column:snapshot_id;type:uuid;default:gen_random_uuid();primaryKey" json:"snapshot_id"`

	SnapshotFlowKey  string    `gorm:"column:snapshot_flow_key;type:varchar(64);uniqueIndex;not null" json:"snapshot_flow_key"`
	SnapshotCourseID uuid.UUID `gorm:"column:snapshot_course_id;type:uuid;not null" json:"snapshot_course_id"`
	SnapshotStep     string    `gorm:"column:snapshot_step;type:varchar(30);not null" json:"snapshot_step"`

	SnapshotPayload datatypes.JSON `gorm:"column:snapshot_payload;type:jsonb;not null" json:"-"`

	CreatedAt time.Time `gorm:"column:snapshot_created_at;autoCreateTime" json:"snapshot_created_at"`
	UpdatedAt time.Time `gorm:"column:snapshot_updated_at;autoUpdateTime" json:"snapshot_updated_at"`
}

func (FlowSnapshot) TableName() string { return "enrollment_flow_snapshots" }
