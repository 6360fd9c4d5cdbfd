package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jukalemanmath/mydrive-backend/internal/models"
	"github.com/jukalemanmath/mydrive-backend/internal/utils"
)

// POST /api/v1/files/{fileID}/share
// ShareItem godoc
// @Summary Share a file or folder with another user
// @Description Grants read or write access. Sharing a folder also grants its direct file children.
// @Tags Share
// @Accept json
// @Produce json
// @Param fileID path string true "Item id"
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/files/{fileID}/share [post]
func ShareItem(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	itemID, ok := pathUUID(w, r, "fileID")
	if !ok {
		return
	}

	var input struct {
		SharedWithEmail string            `json:"sharedWithEmail"`
		Permission      models.Permission `json:"permission"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.SharedWithEmail == "" {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Permission == "" {
		input.Permission = models.PermissionRead
	}

	share, err := sharing.ShareItem(r.Context(), user, itemID, input.SharedWithEmail, input.Permission)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Item shared successfully",
		Data: map[string]any{
			"itemId":     share.ItemID,
			"sharedWith": input.SharedWithEmail,
			"permission": share.Permission,
		},
	})
}

// GET /api/v1/files/shared-with-me
func SharedWithMe(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	shared, err := sharing.ListSharedWith(r.Context(), user, 0)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Shared files retrieved successfully",
		Data:    shared,
	})
}

// GET /api/v1/files/recent-shared
// The three most recent grants, for the dashboard.
func RecentShared(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	shared, err := sharing.ListSharedWith(r.Context(), user, 3)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Recent shared files retrieved successfully",
		Data:    shared,
	})
}
