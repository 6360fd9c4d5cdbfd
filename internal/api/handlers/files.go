package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jukalemanmath/mydrive-backend/internal/core"
	"github.com/jukalemanmath/mydrive-backend/internal/models"
	"github.com/jukalemanmath/mydrive-backend/internal/utils"
)

const maxUploadSize = 100 << 20 // 100 MB

// POST /api/v1/files/upload
// UploadFile godoc
// @Summary Upload a file
// @Description Upload a file (≤100 MB), optionally into a folder via parent_id
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param parent_id formData string false "Destination folder id"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/v1/files/upload [post]
func UploadFile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid file upload form")
		return
	}

	src, header, err := r.FormFile("file")
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer src.Close()

	var parentID *uuid.UUID
	if raw := r.FormValue("parent_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.Fail(w, http.StatusBadRequest, "Invalid parent_id")
			return
		}
		parentID = &id
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !utils.IsAllowedContentType(contentType) {
		utils.Fail(w, http.StatusBadRequest, "File type not allowed")
		return
	}

	// Reject an invalid destination before any bytes reach the blob store.
	if err := hierarchy.CheckCreate(r.Context(), user, parentID); err != nil {
		failFromError(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	if len(data) > maxUploadSize {
		utils.Fail(w, http.StatusBadRequest, "File exceeds the 100 MB limit")
		return
	}

	// Blob first, record second: a crash in between leaves an orphaned
	// object, never a dangling database row.
	key := utils.ObjectKey(user.ID, header.Filename)
	if err := blobs.Put(r.Context(), key, data); err != nil {
		utils.Fail(w, http.StatusBadGateway, "Failed to store file")
		return
	}

	item, err := hierarchy.CreateItem(r.Context(), user, header.Filename, models.KindFile, parentID, &core.ContentRef{
		StorageKey:  key,
		SizeBytes:   int64(len(data)),
		ContentType: contentType,
	})
	if err != nil {
		// Compensate: the record failed, so drop the blob we just wrote.
		if cleanupErr := blobs.Delete(r.Context(), key); cleanupErr != nil {
			log.Printf("Failed to clean up blob %s after failed upload: %v", key, cleanupErr)
		}
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "File uploaded successfully",
		Data:    item,
	})
}

// POST /api/v1/folders
func CreateFolder(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var input struct {
		Name     string     `json:"name"`
		ParentID *uuid.UUID `json:"parentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Name == "" {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	folder, err := hierarchy.CreateItem(r.Context(), user, input.Name, models.KindFolder, input.ParentID, nil)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Folder created successfully",
		Data:    folder,
	})
}

// GET /api/v1/files?parent_id=...
// Lists the caller's items at the given folder, or at the root.
func ListFiles(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var parentID *uuid.UUID
	if raw := r.URL.Query().Get("parent_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.Fail(w, http.StatusBadRequest, "Invalid parent_id")
			return
		}
		parentID = &id
	}

	items, err := hierarchy.ListOwned(r.Context(), user, parentID)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Files retrieved successfully",
		Data:    items,
	})
}

// GET /api/v1/files/all
func ListAllFiles(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	items, err := hierarchy.ListAllOwned(r.Context(), user)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Files retrieved successfully",
		Data:    items,
	})
}

// GET /api/v1/files/{fileID}
// Returns the item with its descendants materialized for display.
func GetFile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	fileID, ok := pathUUID(w, r, "fileID")
	if !ok {
		return
	}

	level, err := sharing.ResolveAccess(r.Context(), user, fileID)
	if err != nil {
		failFromError(w, err)
		return
	}
	if level == core.AccessNone {
		utils.Fail(w, http.StatusForbidden, "Access denied")
		return
	}

	tree, err := hierarchy.Tree(r.Context(), fileID)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "File retrieved successfully",
		Data:    tree,
	})
}

// GET /api/v1/files/{fileID}/contents
// Direct children of a folder, for anyone with at least read access.
func FolderContents(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	folderID, ok := pathUUID(w, r, "fileID")
	if !ok {
		return
	}

	level, err := sharing.ResolveAccess(r.Context(), user, folderID)
	if err != nil {
		failFromError(w, err)
		return
	}
	if level == core.AccessNone {
		utils.Fail(w, http.StatusForbidden, "Not authorized to access this folder")
		return
	}

	children, err := hierarchy.ListChildren(r.Context(), folderID)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Folder contents retrieved successfully",
		Data:    children,
	})
}

// PATCH /api/v1/files/{fileID}/move
func MoveItem(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	itemID, ok := pathUUID(w, r, "fileID")
	if !ok {
		return
	}

	var input struct {
		TargetParentID *uuid.UUID `json:"targetParentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	item, err := hierarchy.MoveItem(r.Context(), user, itemID, input.TargetParentID)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Item moved successfully",
		Data:    item,
	})
}

// DELETE /api/v1/files/{fileID}
func DeleteFile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	itemID, ok := pathUUID(w, r, "fileID")
	if !ok {
		return
	}

	if err := hierarchy.DeleteItem(r.Context(), user, itemID); err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "File deleted successfully",
	})
}

// GET /api/v1/files/{fileID}/content
// Text-like files come back inline; binary files get a presigned URL.
func GetFileContent(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	fileID, ok := pathUUID(w, r, "fileID")
	if !ok {
		return
	}

	file, level, err := accessibleFile(r, user, fileID)
	if err != nil {
		failFromError(w, err)
		return
	}
	if level == core.AccessNone {
		utils.Fail(w, http.StatusForbidden, "Access denied")
		return
	}
	if file.IsFolder() {
		utils.Fail(w, http.StatusBadRequest, "Cannot get content of a folder")
		return
	}

	exists, err := blobs.Exists(r.Context(), file.StorageKey)
	if err != nil {
		utils.Fail(w, http.StatusBadGateway, "Failed to check storage")
		return
	}
	if !exists {
		utils.Fail(w, http.StatusNotFound, "File not found in storage")
		return
	}

	if utils.IsTextualContentType(file.ContentType) {
		data, err := blobs.Get(r.Context(), file.StorageKey)
		if err != nil {
			utils.Fail(w, http.StatusBadGateway, "Error reading file content")
			return
		}
		utils.JSONResponse(w, http.StatusOK, utils.Payload{
			Success: true,
			Message: "File content retrieved successfully",
			Data:    map[string]any{"content": string(data)},
		})
		return
	}

	url, err := blobs.URL(r.Context(), file.StorageKey, 15*time.Minute)
	if err != nil {
		utils.Fail(w, http.StatusBadGateway, "Failed to generate download URL")
		return
	}
	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Download URL generated successfully",
		Data: map[string]any{
			"url":          url,
			"filename":     file.Name,
			"content_type": file.ContentType,
		},
	})
}

// GET /api/v1/files/{fileID}/download
// Proxies the raw bytes with attachment headers.
func DownloadFile(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	fileID, ok := pathUUID(w, r, "fileID")
	if !ok {
		return
	}

	file, level, err := accessibleFile(r, user, fileID)
	if err != nil {
		failFromError(w, err)
		return
	}
	if level == core.AccessNone {
		utils.Fail(w, http.StatusForbidden, "Access denied")
		return
	}
	if file.IsFolder() {
		utils.Fail(w, http.StatusBadRequest, "Cannot download a folder")
		return
	}

	data, err := blobs.Get(r.Context(), file.StorageKey)
	if err != nil {
		utils.Fail(w, http.StatusBadGateway, "Error retrieving file from storage")
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// accessibleFile fetches an item together with the caller's access level.
func accessibleFile(r *http.Request, user *models.User, fileID uuid.UUID) (*models.Item, core.AccessLevel, error) {
	file, err := hierarchy.GetItem(r.Context(), fileID)
	if err != nil {
		return nil, core.AccessNone, err
	}
	level, err := sharing.ResolveAccess(r.Context(), user, fileID)
	if err != nil {
		return nil, core.AccessNone, err
	}
	return file, level, nil
}
