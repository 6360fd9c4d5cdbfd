package handlers

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/jukalemanmath/mydrive-backend/internal/models"
	"github.com/jukalemanmath/mydrive-backend/internal/repositories"
	"github.com/jukalemanmath/mydrive-backend/internal/utils"
)

// GET /api/v1/users/me
func Me(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "User retrieved successfully",
		Data:    user,
	})
}

// PATCH /api/v1/users/me
func UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var input struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if input.Email != nil && *input.Email != user.Email {
		var existing models.User
		if err := db.Where("email = ? AND id <> ?", *input.Email, user.ID).First(&existing).Error; err == nil {
			utils.Fail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		user.Email = *input.Email
	}
	if input.Username != nil && *input.Username != user.Username {
		var existing models.User
		if err := db.Where("username = ? AND id <> ?", *input.Username, user.ID).First(&existing).Error; err == nil {
			utils.Fail(w, http.StatusBadRequest, "Username already taken")
			return
		}
		user.Username = *input.Username
	}

	if err := db.Save(user).Error; err != nil {
		utils.Fail(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Profile updated successfully",
		Data:    user,
	})
}

// PATCH /api/v1/users/me/password
func ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var input struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Incorrect current password")
		return
	}
	if len(input.NewPassword) < 6 {
		utils.Fail(w, http.StatusBadRequest, "New password must be at least 6 characters long")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.Fail(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}
	user.Password = string(hashed)
	if err := db.Save(user).Error; err != nil {
		utils.Fail(w, http.StatusInternalServerError, "Failed to update password")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Password updated successfully",
	})
}

// requireAdmin writes a 403 and returns nil when the caller is not an admin.
func requireAdmin(w http.ResponseWriter, r *http.Request) *models.User {
	user := requireUser(w, r)
	if user == nil {
		return nil
	}
	if !user.IsAdmin {
		utils.Fail(w, http.StatusForbidden, "Not enough permissions")
		return nil
	}
	return user
}

// GET /api/v1/admin/users
func AdminListUsers(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}

	var users []models.User
	if err := db.Order("created_at asc").Find(&users).Error; err != nil {
		utils.Fail(w, http.StatusInternalServerError, "Database error")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Users retrieved successfully",
		Data:    users,
	})
}

// GET /api/v1/admin/users/{userID}
func AdminGetUser(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	user, err := repositories.UserByID(db, userID)
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "User not found")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "User retrieved successfully",
		Data:    user,
	})
}

// PATCH /api/v1/admin/users/{userID}
// Admin can toggle activation and admin status.
func AdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	user, err := repositories.UserByID(db, userID)
	if err != nil {
		utils.Fail(w, http.StatusNotFound, "User not found")
		return
	}

	var input struct {
		IsActive *bool `json:"isActive"`
		IsAdmin  *bool `json:"isAdmin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}
	if err := db.Save(user).Error; err != nil {
		utils.Fail(w, http.StatusInternalServerError, "Failed to update user")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "User updated successfully",
		Data:    user,
	})
}

// DELETE /api/v1/admin/users/{userID}
func AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if requireAdmin(w, r) == nil {
		return
	}
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}

	result := db.Delete(&models.User{}, "id = ?", userID)
	if result.Error != nil {
		utils.Fail(w, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	if result.RowsAffected == 0 {
		utils.Fail(w, http.StatusNotFound, "User not found")
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "User deleted successfully",
	})
}
