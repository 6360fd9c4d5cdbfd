package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jukalemanmath/mydrive-backend/internal/models"
	"github.com/jukalemanmath/mydrive-backend/internal/storage"
	"github.com/jukalemanmath/mydrive-backend/internal/utils"
)

// Versions owns the linear version chain of every file: creation, restore,
// deletion and history. Version numbers per file are gapless from 1, and the
// newest version can never be deleted.
type Versions struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

func NewVersions(db *gorm.DB, blobs storage.BlobStore) *Versions {
	return &Versions{db: db, blobs: blobs}
}

// createVersionAttempts bounds the retry loop for concurrent creators. Each
// loser of a number race needs exactly one more attempt, so contention past
// this depth means something else is wrong.
const createVersionAttempts = 5

// CreateVersion records content that has already been written to the blob
// store as the file's new current version. The actor must own the file or
// hold a write share on it. Clearing the old current flag, inserting the new
// row and mirroring the file pointer happen in one transaction. Concurrent
// creators race to the same number; the unique (file_id, version_number)
// index fails the loser, whose transaction rolls back and retries with a
// fresh read, so both end up recorded under sequential numbers.
func (e *Versions) CreateVersion(ctx context.Context, actor *models.User, fileID uuid.UUID, content ContentRef, comment string) (*models.Version, error) {
	var version *models.Version
	var err error
	for attempt := 0; attempt < createVersionAttempts; attempt++ {
		err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			file, err := findItem(tx, fileID)
			if err != nil {
				return err
			}
			if err := requireWrite(tx, actor, file); err != nil {
				return err
			}
			version, err = createVersion(tx, actor, file, content, comment)
			return err
		})
		if err == nil {
			return version, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	return nil, err
}

// RestoreVersion makes an old version the file's content again by copying
// its bytes into a fresh blob and recording that as a brand new version.
// History is append-only: the old row keeps its number and stays non-current.
func (e *Versions) RestoreVersion(ctx context.Context, actor *models.User, versionID uuid.UUID) (*models.Version, error) {
	var old models.Version
	if err := e.db.WithContext(ctx).First(&old, "id = ?", versionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: version %s", ErrNotFound, versionID)
		}
		return nil, err
	}
	file, err := findItem(e.db.WithContext(ctx), old.FileID)
	if err != nil {
		return nil, err
	}
	// Authorize before touching any content: an actor without write access
	// gets rejected without a byte copied.
	if err := requireWrite(e.db.WithContext(ctx), actor, file); err != nil {
		return nil, err
	}

	data, err := e.blobs.Get(ctx, old.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: reading version content: %v", ErrStorage, err)
	}
	newKey := utils.VersionObjectKey(file.OwnerID, file.Name)
	if err := e.blobs.Put(ctx, newKey, data); err != nil {
		return nil, fmt.Errorf("%w: copying version content: %v", ErrStorage, err)
	}

	content := ContentRef{
		StorageKey:  newKey,
		SizeBytes:   int64(len(data)),
		ContentType: file.ContentType,
	}
	comment := fmt.Sprintf("Restored from version %d", old.VersionNumber)

	restored, err := e.CreateVersion(ctx, actor, file.ID, content, comment)
	if err != nil {
		// The copy is already in the blob store; clean it up so a failed
		// restore does not leak an object.
		if cleanupErr := e.blobs.Delete(ctx, newKey); cleanupErr != nil {
			log.Printf("Failed to clean up blob %s after failed restore: %v", newKey, cleanupErr)
		}
		return nil, err
	}
	return restored, nil
}

// DeleteVersion removes one version row and, after commit, its blob. The
// version with the highest number is protected regardless of its is_current
// flag: a file always retains the snapshot of its latest state.
func (e *Versions) DeleteVersion(ctx context.Context, actor *models.User, fileID uuid.UUID, versionNumber int) error {
	var blobKey string
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := findItem(tx, fileID)
		if err != nil {
			return err
		}
		if file.OwnerID != actor.ID {
			return fmt.Errorf("%w: only the owner can delete versions", ErrForbidden)
		}

		var version models.Version
		err = tx.Where("file_id = ? AND version_number = ?", file.ID, versionNumber).First(&version).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: version %d", ErrNotFound, versionNumber)
			}
			return err
		}

		maxNumber, err := maxVersionNumber(tx, file.ID)
		if err != nil {
			return err
		}
		if version.VersionNumber == maxNumber {
			return fmt.Errorf("%w: cannot delete the current version of a file", ErrInvalidOperation)
		}

		blobKey = version.StorageKey
		return tx.Delete(&models.Version{}, "id = ?", version.ID).Error
	})
	if err != nil {
		return err
	}

	if err := e.blobs.Delete(ctx, blobKey); err != nil {
		log.Printf("Failed to delete version blob %s: %v", blobKey, err)
	}
	return nil
}

// History returns every version of a file, oldest first.
func (e *Versions) History(ctx context.Context, fileID uuid.UUID) ([]models.Version, error) {
	tx := e.db.WithContext(ctx)
	if _, err := findItem(tx, fileID); err != nil {
		return nil, err
	}
	var versions []models.Version
	err := tx.Where("file_id = ?", fileID).Order("version_number asc").Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// Version looks up one version of a file by number.
func (e *Versions) Version(ctx context.Context, fileID uuid.UUID, versionNumber int) (*models.Version, error) {
	var version models.Version
	err := e.db.WithContext(ctx).
		Where("file_id = ? AND version_number = ?", fileID, versionNumber).
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: version %d", ErrNotFound, versionNumber)
		}
		return nil, err
	}
	return &version, nil
}

// createVersion appends the next version inside an open transaction and
// mirrors the file row's content pointer onto the new current version.
func createVersion(tx *gorm.DB, actor *models.User, file *models.Item, content ContentRef, comment string) (*models.Version, error) {
	if file.IsFolder() {
		return nil, fmt.Errorf("%w: folders have no versions", ErrInvalidOperation)
	}

	maxNumber, err := maxVersionNumber(tx, file.ID)
	if err != nil {
		return nil, err
	}

	err = tx.Model(&models.Version{}).Where("file_id = ?", file.ID).Update("is_current", false).Error
	if err != nil {
		return nil, err
	}

	version := models.Version{
		FileID:        file.ID,
		VersionNumber: maxNumber + 1,
		StorageKey:    content.StorageKey,
		SizeBytes:     content.SizeBytes,
		CreatedBy:     &actor.ID,
		Comment:       comment,
		IsCurrent:     true,
	}
	if err := tx.Create(&version).Error; err != nil {
		return nil, err
	}

	updates := map[string]any{
		"storage_key": content.StorageKey,
		"size_bytes":  content.SizeBytes,
	}
	if content.ContentType != "" {
		updates["content_type"] = content.ContentType
	}
	if err := tx.Model(&models.Item{}).Where("id = ?", file.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &version, nil
}

func maxVersionNumber(tx *gorm.DB, fileID uuid.UUID) (int, error) {
	var maxNumber int
	err := tx.Model(&models.Version{}).
		Where("file_id = ?", fileID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&maxNumber).Error
	return maxNumber, err
}

// requireWrite fails unless the actor owns the file or holds a write share,
// directly or via a shared ancestor folder.
func requireWrite(tx *gorm.DB, actor *models.User, file *models.Item) error {
	level, err := resolveAccess(tx, actor, file)
	if err != nil {
		return err
	}
	if level < AccessWrite {
		return fmt.Errorf("%w: write access required", ErrForbidden)
	}
	return nil
}
