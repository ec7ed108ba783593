package seeds

import (
	"gorm.io/gorm"

	"kartacademy_backend/internals/seeds/academy"
	"kartacademy_backend/internals/seeds/users"
)

// RunAllSeeds is idempotent and safe to call on every boot. Enable with
// RUN_SEEDS=true.
func RunAllSeeds(db *gorm.DB) {
	users.SeedAdminUser(db)
	academy.SeedCoursesFromJSON(db, "internals/seeds/academy/data_courses.json")
}
