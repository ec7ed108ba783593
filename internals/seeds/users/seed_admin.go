package users

import (
	"log"
	"os"

	"gorm.io/gorm"

	"kartacademy_backend/internals/constants"
	"kartacademy_backend/internals/features/users/auth/model"
	"kartacademy_backend/internals/features/users/auth/service"
)

// SeedAdminUser creates the back-office account from ADMIN_EMAIL /
// ADMIN_PASSWORD. Does nothing when the account already exists or the env
// vars are unset.
func SeedAdminUser(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("[SEED] ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return
	}

	var existing model.User
	if err := db.First(&existing, "user_email = ?", email).Error; err == nil {
		return
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		log.Printf("[SEED ERROR] hash admin password: %v", err)
		return
	}

	user := model.User{
		UserName:     "Back Office",
		UserEmail:    email,
		UserPassword: &hash,
		UserRole:     constants.RoleAdmin,
		UserIsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Printf("[SEED ERROR] create admin user: %v", err)
		return
	}
	log.Printf("[SEED] admin user %s created", email)
}
