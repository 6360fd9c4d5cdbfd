package handlers

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jukalemanmath/mydrive-backend/internal/core"
	"github.com/jukalemanmath/mydrive-backend/internal/utils"
)

// POST /api/v1/files/{fileID}/versions
// CreateVersion godoc
// @Summary Upload new content as the file's next version
// @Tags Versions
// @Accept multipart/form-data
// @Produce json
// @Param fileID path string true "File id"
// @Param file formData file true "New content"
// @Param comment formData string false "Version comment"
// @Success 201 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /api/v1/files/{fileID}/versions [post]
func CreateVersion(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	fileID, ok := pathUUID(w, r, "fileID")
	if !ok {
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
	comment := r.FormValue("comment")

	file, err := hierarchy.GetItem(r.Context(), fileID)
	if err != nil {
		failFromError(w, err)
		return
	}
	if file.IsFolder() {
		utils.Fail(w, http.StatusBadRequest, "Folders have no versions")
		return
	}

	// Authorize before accepting the upload so an actor without write
	// access costs no blob traffic.
	level, err := sharing.ResolveAccess(r.Context(), user, fileID)
	if err != nil {
		failFromError(w, err)
		return
	}
	if level < core.AccessWrite {
		utils.Fail(w, http.StatusForbidden, "Write access required")
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

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = file.ContentType
	}

	// Write the blob before recording the version so a failed write never
	// leaves a version row pointing at missing content.
	key := utils.VersionObjectKey(file.OwnerID, file.Name)
	if err := blobs.Put(r.Context(), key, data); err != nil {
		utils.Fail(w, http.StatusBadGateway, "Failed to store version content")
		return
	}

	version, err := versions.CreateVersion(r.Context(), user, fileID, core.ContentRef{
		StorageKey:  key,
		SizeBytes:   int64(len(data)),
		ContentType: contentType,
	}, comment)
	if err != nil {
		if cleanupErr := blobs.Delete(r.Context(), key); cleanupErr != nil {
			log.Printf("Failed to clean up blob %s after failed version create: %v", key, cleanupErr)
		}
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Version created successfully",
		Data:    version,
	})
}

// GET /api/v1/files/{fileID}/versions
func ListVersions(w http.ResponseWriter, r *http.Request) {
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

	history, err := versions.History(r.Context(), fileID)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Versions retrieved successfully",
		Data:    history,
	})
}

// GET /api/v1/files/{fileID}/versions/{number}/content
func GetVersionContent(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	fileID, ok := pathUUID(w, r, "fileID")
	if !ok {
		return
	}
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid version number")
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

	version, err := versions.Version(r.Context(), fileID, number)
	if err != nil {
		failFromError(w, err)
		return
	}

	if utils.IsTextualContentType(file.ContentType) {
		data, err := blobs.Get(r.Context(), version.StorageKey)
		if err != nil {
			utils.Fail(w, http.StatusBadGateway, "Error reading version content")
			return
		}
		utils.JSONResponse(w, http.StatusOK, utils.Payload{
			Success: true,
			Message: "Version content retrieved successfully",
			Data:    map[string]any{"content": string(data)},
		})
		return
	}

	url, err := blobs.URL(r.Context(), version.StorageKey, 15*time.Minute)
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

// POST /api/v1/files/{fileID}/versions/{number}/restore
func RestoreVersion(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	fileID, ok := pathUUID(w, r, "fileID")
	if !ok {
		return
	}
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid version number")
		return
	}

	version, err := versions.Version(r.Context(), fileID, number)
	if err != nil {
		failFromError(w, err)
		return
	}

	restored, err := versions.RestoreVersion(r.Context(), user, version.ID)
	if err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Version restored successfully",
		Data:    restored,
	})
}

// DELETE /api/v1/files/{fileID}/versions/{number}
func DeleteVersion(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}
	fileID, ok := pathUUID(w, r, "fileID")
	if !ok {
		return
	}
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid version number")
		return
	}

	if err := versions.DeleteVersion(r.Context(), user, fileID, number); err != nil {
		failFromError(w, err)
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Version deleted successfully",
	})
}
