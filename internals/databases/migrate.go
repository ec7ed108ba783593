package database

import (
	"log"
	"os"
	"strconv"

	courseModel "kartacademy_backend/internals/features/academy/courses/model"
	equipmentModel "kartacademy_backend/internals/features/academy/equipment/model"
	facilityModel "kartacademy_backend/internals/features/academy/facilities/model"
	instructorModel "kartacademy_backend/internals/features/academy/instructors/model"
	enrollModel "kartacademy_backend/internals/features/enrollments/enrollments/model"
	flowModel "kartacademy_backend/internals/features/enrollments/flow/model"
	paymentModel "kartacademy_backend/internals/features/finance/payments/model"
	notificationModel "kartacademy_backend/internals/features/home/notifications/model"
	parentModel "kartacademy_backend/internals/features/profiles/parents/model"
	studentModel "kartacademy_backend/internals/features/profiles/students/model"
	authModel "kartacademy_backend/internals/features/users/auth/model"
)

// AutoMigrate applies the GORM schema. Off by default so managed
// environments can keep running SQL migrations by hand; enable with
// DB_AUTOMIGRATE=true.
func AutoMigrate() {
	enabled, _ := strconv.ParseBool(os.Getenv("DB_AUTOMIGRATE"))
	if !enabled {
		return
	}

	log.Println("[DB] running auto-migration...")
	err := DB.AutoMigrate(
		&authModel.User{},
		&authModel.TokenBlacklist{},
		&courseModel.Course{},
		&instructorModel.Instructor{},
		&facilityModel.Facility{},
		&equipmentModel.Equipment{},
		&parentModel.Parent{},
		&studentModel.Student{},
		&enrollModel.Enrollment{},
		&flowModel.FlowSnapshot{},
		&paymentModel.Payment{},
		&paymentModel.PaymentToken{},
		&notificationModel.Notification{},
	)
	if err != nil {
		log.Fatalf("❌ auto-migration failed: %v", err)
	}
	log.Println("[DB] auto-migration complete")
}
