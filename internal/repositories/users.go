package repositories

import (
	"errors"
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jukalemanmath/mydrive-backend/internal/models"
)

// UserByID looks up a user by primary key.
func UserByID(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserByEmail looks up a user by email address.
func UserByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserByCredential looks up a user by username or email, for login.
func UserByCredential(db *gorm.DB, nameOrEmail string) (*models.User, error) {
	var user models.User
	err := db.Where("username = ? OR email = ?", nameOrEmail, nameOrEmail).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureDefaultAdmin creates the bootstrap admin account if no user named
// "admin" exists yet.
func EnsureDefaultAdmin(db *gorm.DB) error {
	var admin models.User
	err := db.Where("username = ?", "admin").First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin = models.User{
		Username: "admin",
		Email:    "admin@admin.com",
		Password: string(hashed),
		IsActive: true,
		IsAdmin:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Println("Default admin user created")
	return nil
}
