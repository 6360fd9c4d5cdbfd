package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jukalemanmath/mydrive-backend/internal/api/middleware"
	"github.com/jukalemanmath/mydrive-backend/internal/core"
	"github.com/jukalemanmath/mydrive-backend/internal/models"
	"github.com/jukalemanmath/mydrive-backend/internal/repositories"
	"github.com/jukalemanmath/mydrive-backend/internal/storage"
	"github.com/jukalemanmath/mydrive-backend/internal/utils"
)

// Engine instances shared by all handlers, constructed once at startup.
var (
	db        *gorm.DB
	blobs     storage.BlobStore
	hierarchy *core.Hierarchy
	versions  *core.Versions
	sharing   *core.Sharing
)

// Init wires the handlers to their collaborators. Must be called before the
// router serves traffic.
func Init(database *gorm.DB, store storage.BlobStore) {
	db = database
	blobs = store
	hierarchy = core.NewHierarchy(database, store)
	versions = core.NewVersions(database, store)
	sharing = core.NewSharing(database)
}

// currentUser resolves the authenticated user from the request context.
func currentUser(r *http.Request) (*models.User, error) {
	idStr := middleware.UserID(r.Context())
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, errors.New("invalid user id in token")
	}
	user, err := repositories.UserByID(db, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.New("inactive user")
	}
	return user, nil
}

// requireUser writes a 401 and returns nil when no active user is attached
// to the request.
func requireUser(w http.ResponseWriter, r *http.Request) *models.User {
	user, err := currentUser(r)
	if err != nil {
		utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return nil
	}
	return user
}

// failFromError maps engine failure kinds onto distinct status codes so
// clients can react specifically.
func failFromError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		utils.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrForbidden):
		utils.Fail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrInvalidOperation):
		utils.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrStorage):
		utils.Fail(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, gorm.ErrDuplicatedKey):
		utils.Fail(w, http.StatusConflict, "Conflicting concurrent update, please retry")
	default:
		utils.Fail(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathUUID parses a UUID path segment, failing the request on bad input.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
