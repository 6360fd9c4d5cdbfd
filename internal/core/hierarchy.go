package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/jukalemanmath/mydrive-backend/internal/models"
	"github.com/jukalemanmath/mydrive-backend/internal/storage"
)

// ContentRef points at content already written to the blob store.
type ContentRef struct {
	StorageKey  string
	SizeBytes   int64
	ContentType string
}

// Hierarchy owns the item tree: creation, moves, deletion and listing. Every
// structural mutation runs in one transaction and keeps the tree acyclic with
// parents that are folders owned by the same user.
type Hierarchy struct {
	db    *gorm.DB
	blobs storage.BlobStore
}

func NewHierarchy(db *gorm.DB, blobs storage.BlobStore) *Hierarchy {
	return &Hierarchy{db: db, blobs: blobs}
}

// CreateItem creates a file or folder under parentID (nil means root). Files
// require content that has already been uploaded; the initial version row is
// written in the same transaction, so a file never exists without at least
// one version.
func (h *Hierarchy) CreateItem(ctx context.Context, owner *models.User, name string, kind models.ItemKind, parentID *uuid.UUID, content *ContentRef) (*models.Item, error) {
	if kind == models.KindFile && content == nil {
		return nil, fmt.Errorf("%w: file creation requires content", ErrInvalidOperation)
	}

	var item models.Item
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateParent(tx, owner, parentID); err != nil {
			return err
		}

		item = models.Item{
			Name:     name,
			OwnerID:  owner.ID,
			Kind:     kind,
			ParentID: parentID,
		}
		if kind == models.KindFile {
			item.StorageKey = content.StorageKey
			item.SizeBytes = content.SizeBytes
			item.ContentType = content.ContentType
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		if kind == models.KindFile {
			version := models.Version{
				FileID:        item.ID,
				VersionNumber: 1,
				StorageKey:    content.StorageKey,
				SizeBytes:     content.SizeBytes,
				CreatedBy:     &owner.ID,
				IsCurrent:     true,
			}
			if err := tx.Create(&version).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CheckCreate verifies that the owner may create an item under parentID
// without creating anything. Handlers call it before accepting upload bytes,
// so an invalid destination is rejected before any blob traffic.
func (h *Hierarchy) CheckCreate(ctx context.Context, owner *models.User, parentID *uuid.UUID) error {
	return validateParent(h.db.WithContext(ctx), owner, parentID)
}

// validateParent enforces the placement rule: a nil parent is the root,
// anything else must be a folder owned by the same user.
func validateParent(tx *gorm.DB, owner *models.User, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	parent, err := findItem(tx, *parentID)
	if err != nil {
		return err
	}
	if parent.OwnerID != owner.ID || !parent.IsFolder() {
		return fmt.Errorf("%w: parent must be a folder owned by the caller", ErrForbidden)
	}
	return nil
}

// MoveItem reparents an item. Moving an item into itself or one of its
// descendants is rejected; the ancestor walk runs inside the same transaction
// as the update so a concurrent move cannot slip a cycle past the check.
func (h *Hierarchy) MoveItem(ctx context.Context, actor *models.User, itemID uuid.UUID, newParentID *uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findItem(tx, itemID)
		if err != nil {
			return err
		}
		item = *found
		if item.OwnerID != actor.ID {
			return fmt.Errorf("%w: only the owner can move an item", ErrForbidden)
		}

		if newParentID != nil {
			target, err := findItem(tx, *newParentID)
			if err != nil {
				return err
			}
			if target.OwnerID != actor.ID || !target.IsFolder() {
				return fmt.Errorf("%w: target parent must be a folder you own", ErrNotFound)
			}

			cycle := false
			err = walkAncestors(tx, target.ID, func(ancestor *models.Item) bool {
				if ancestor.ID == item.ID {
					cycle = true
					return true
				}
				return false
			})
			if err != nil {
				return err
			}
			if cycle {
				return fmt.Errorf("%w: cannot move an item into itself or a descendant", ErrInvalidOperation)
			}
		}

		item.ParentID = newParentID
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		// Re-validate under the transaction: the chain above the item must
		// still reach the root without passing through the item itself.
		if newParentID != nil {
			err = walkAncestors(tx, *newParentID, func(ancestor *models.Item) bool {
				return false
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem hard-deletes an item, cascading to its versions and shares in
// one transaction. Blob deletion happens after commit and is best effort:
// a failed delete leaves an orphaned object, never a dangling row.
func (h *Hierarchy) DeleteItem(ctx context.Context, actor *models.User, itemID uuid.UUID) error {
	var blobKeys []string
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := findItem(tx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != actor.ID {
			return fmt.Errorf("%w: only the owner can delete an item", ErrForbidden)
		}

		var versions []models.Version
		if err := tx.Where("file_id = ?", item.ID).Find(&versions).Error; err != nil {
			return err
		}
		for _, v := range versions {
			blobKeys = append(blobKeys, v.StorageKey)
		}
		if item.Kind == models.KindFile && item.StorageKey != "" {
			blobKeys = append(blobKeys, item.StorageKey)
		}

		if err := tx.Where("file_id = ?", item.ID).Delete(&models.Version{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", item.ID).Delete(&models.Share{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Item{}, "id = ?", item.ID).Error
	})
	if err != nil {
		return err
	}

	h.deleteBlobs(ctx, blobKeys)
	return nil
}

// deleteBlobs removes blobs concurrently, logging failures instead of
// surfacing them. Duplicate keys are fine: deleting a missing key is a no-op.
func (h *Hierarchy) deleteBlobs(ctx context.Context, keys []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, key := range keys {
		g.Go(func() error {
			if err := h.blobs.Delete(gctx, key); err != nil {
				log.Printf("Failed to delete blob %s: %v", key, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// GetItem looks up a single item.
func (h *Hierarchy) GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	return findItem(h.db.WithContext(ctx), itemID)
}

// ListChildren returns the direct children of a folder, non-recursive.
func (h *Hierarchy) ListChildren(ctx context.Context, folderID uuid.UUID) ([]models.Item, error) {
	tx := h.db.WithContext(ctx)
	folder, err := findItem(tx, folderID)
	if err != nil {
		return nil, err
	}
	if !folder.IsFolder() {
		return nil, fmt.Errorf("%w: not a folder", ErrInvalidOperation)
	}
	var children []models.Item
	if err := tx.Where("parent_id = ?", folder.ID).Order("name asc").Find(&children).Error; err != nil {
		return nil, err
	}
	return children, nil
}

// ListOwned returns the actor's items directly under parentID, or at the
// root when parentID is nil.
func (h *Hierarchy) ListOwned(ctx context.Context, owner *models.User, parentID *uuid.UUID) ([]models.Item, error) {
	q := h.db.WithContext(ctx).Where("owner_id = ?", owner.ID)
	if parentID != nil {
		q = q.Where("parent_id = ?", *parentID)
	} else {
		q = q.Where("parent_id IS NULL")
	}
	var items []models.Item
	if err := q.Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListAllOwned returns every item the user owns, regardless of location.
func (h *Hierarchy) ListAllOwned(ctx context.Context, owner *models.User) ([]models.Item, error) {
	var items []models.Item
	err := h.db.WithContext(ctx).Where("owner_id = ?", owner.ID).Order("name asc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Tree materializes an item and its descendants for display.
func (h *Hierarchy) Tree(ctx context.Context, itemID uuid.UUID) (*TreeNode, error) {
	tx := h.db.WithContext(ctx)
	item, err := findItem(tx, itemID)
	if err != nil {
		return nil, err
	}
	return buildTree(tx, *item)
}

func findItem(tx *gorm.DB, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := tx.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &item, nil
}
