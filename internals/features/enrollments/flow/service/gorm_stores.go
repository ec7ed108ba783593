package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	courseModel "kartacademy_backend/internals/features/academy/courses/model"
	enrollModel "kartacademy_backend/internals/features/enrollments/enrollments/model"
	flowModel "kartacademy_backend/internals/features/enrollments/flow/model"
	paymentModel "kartacademy_backend/internals/features/finance/payments/model"
	parentModel "kartacademy_backend/internals/features/profiles/parents/model"
	studentModel "kartacademy_backend/internals/features/profiles/students/model"
)

/* ===================== CourseStore ===================== */

type GormCourseStore struct{ DB *gorm.DB }

func (s *GormCourseStore) GetActive(ctx context.Context, id uuid.UUID) (*CourseRef, error) {
	var c courseModel.Course
	err := s.DB.WithContext(ctx).
		First(&c, "course_id = ? AND course_is_active = TRUE", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &CourseRef{
		ID:       c.CourseID,
		Name:     c.CourseName,
		Amount:   c.CoursePriceAmount,
		Currency: c.CoursePriceCurrency,
	}, nil
}

/* ===================== ProfileStore ===================== */

type GormProfileStore struct{ DB *gorm.DB }

func (s *GormProfileStore) FindParentByUserID(ctx context.Context, userID uuid.UUID) (*parentModel.Parent, error) {
	var p parentModel.Parent
	err := s.DB.WithContext(ctx).First(&p, "parent_user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *GormProfileStore) CreateParent(ctx context.Context, p *parentModel.Parent) error {
	return s.DB.WithContext(ctx).Create(p).Error
}

func (s *GormProfileStore) CreateStudent(ctx context.Context, st *studentModel.Student) error {
	return s.DB.WithContext(ctx).Create(st).Error
}

func (s *GormProfileStore) LinkStudent(ctx context.Context, parentID, studentID uuid.UUID) error {
	return s.DB.WithContext(ctx).Model(&parentModel.Parent{}).
		Where("parent_id = ?", parentID).
		Update("parent_student_ids",
			gorm.Expr("array_append(COALESCE(parent_student_ids, '{}'), ?)", studentID.String())).Error
}

/* ===================== EnrollmentStore ===================== */

type GormEnrollmentStore struct{ DB *gorm.DB }

func (s *GormEnrollmentStore) UpsertPending(ctx context.Context, e *enrollModel.Enrollment) (*enrollModel.Enrollment, error) {
	// insert-or-fetch on the idempotency key; DoNothing keeps the first
	// row's price snapshot intact
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_idempotency_key"}},
			DoNothing: true,
		}).
		Create(e).Error
	if err != nil {
		return nil, err
	}
	var row enrollModel.Enrollment
	if err := s.DB.WithContext(ctx).
		First(&row, "enrollment_idempotency_key = ?", *e.EnrollmentIdempotencyKey).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *GormEnrollmentStore) GetByID(ctx context.Context, id uuid.UUID) (*enrollModel.Enrollment, error) {
	var row enrollModel.Enrollment
	if err := s.DB.WithContext(ctx).First(&row, "enrollment_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *GormEnrollmentStore) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Model(&enrollModel.Enrollment{}).
		Where("enrollment_id = ?", id).
		Update("enrollment_payment_status", enrollModel.EnrollPaymentStatusProcessing).Error
}

func (s *GormEnrollmentStore) RecordPaymentSuccess(ctx context.Context, id uuid.UUID, transactionID string, paymentID uuid.UUID) error {
	return s.DB.WithContext(ctx).Model(&enrollModel.Enrollment{}).
		Where("enrollment_id = ?", id).
		Updates(map[string]interface{}{
			"enrollment_payment_status":         enrollModel.EnrollPaymentStatusCompleted,
			"enrollment_payment_transaction_id": transactionID,
			"enrollment_payment_id":             paymentID,
			"enrollment_payment_error":          nil,
		}).Error
}

func (s *GormEnrollmentStore) RecordPaymentFailure(ctx context.Context, id uuid.UUID, message string) error {
	return s.DB.WithContext(ctx).Model(&enrollModel.Enrollment{}).
		Where("enrollment_id = ?", id).
		Updates(map[string]interface{}{
			"enrollment_payment_status": enrollModel.EnrollPaymentStatusFailed,
			"enrollment_payment_error":  message,
		}).Error
}

func (s *GormEnrollmentStore) AttachStudentAndConfirm(ctx context.Context, id, studentID uuid.UUID) error {
	return s.DB.WithContext(ctx).Model(&enrollModel.Enrollment{}).
		Where("enrollment_id = ?", id).
		Updates(map[string]interface{}{
			"enrollment_student_id": studentID,
			"enrollment_status":     enrollModel.EnrollmentStatusConfirmed,
		}).Error
}

func (s *GormEnrollmentStore) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Model(&enrollModel.Enrollment{}).
		Where("enrollment_id = ?", id).
		Update("enrollment_status", enrollModel.EnrollmentStatusCancelled).Error
}

/* ===================== PaymentStore ===================== */

type GormPaymentStore struct{ DB *gorm.DB }

func (s *GormPaymentStore) Create(ctx context.Context, p *paymentModel.Payment) error {
	return s.DB.WithContext(ctx).Create(p).Error
}

/* ===================== SnapshotStore ===================== */

type GormSnapshotStore struct{ DB *gorm.DB }

func (s *GormSnapshotStore) Save(ctx context.Context, st *FlowState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "snapshot_flow_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"snapshot_step":       st.Step,
				"snapshot_payload":    raw,
				"snapshot_updated_at": time.Now(),
			}),
		}).
		Create(&flowModel.FlowSnapshot{
			SnapshotFlowKey:  st.FlowKey,
			SnapshotCourseID: st.CourseID,
			SnapshotStep:     st.Step,
			SnapshotPayload:  raw,
		}).Error
}

func (s *GormSnapshotStore) Load(ctx context.Context, flowKey string) (*FlowState, error) {
	var row flowModel.FlowSnapshot
	err := s.DB.WithContext(ctx).First(&row, "snapshot_flow_key = ?", flowKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		return nil, err
	}

	st, ok := decodeSnapshot(&row)
	if !ok {
		log.Printf("[FLOW] discarding corrupt snapshot %s", row.SnapshotFlowKey)
		if serr := s.Save(ctx, &st); serr != nil {
			return nil, serr
		}
	}
	return &st, nil
}

// decodeSnapshot restores flow state from a stored payload. An unreadable
// payload, a flow key that does not match its row, or a step this build no
// longer knows all count as corrupt: the caller gets a fresh state for the
// same course back at the auth step, with ok=false.
func decodeSnapshot(row *flowModel.FlowSnapshot) (FlowState, bool) {
	var st FlowState
	uerr := json.Unmarshal(row.SnapshotPayload, &st)
	_, knownStep := stepRank[st.Step]
	if uerr == nil && st.FlowKey == row.SnapshotFlowKey && knownStep {
		return st, true
	}
	return FlowState{
		FlowKey:   row.SnapshotFlowKey,
		Step:      StepAuth,
		CourseID:  row.SnapshotCourseID,
		StartedAt: row.CreatedAt,
	}, false
}

func (s *GormSnapshotStore) Delete(ctx context.Context, flowKey string) error {
	return s.DB.WithContext(ctx).
		Where("snapshot_flow_key = ?", flowKey).
		Delete(&flowModel.FlowSnapshot{}).Error
}
