package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jukalemanmath/mydrive-backend/internal/models"
)

// AccessLevel is the result of resolving a user's rights on an item.
// Ordering matters: higher levels include everything below them.
type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessRead
	AccessWrite
	AccessOwner
)

func (l AccessLevel) String() string {
	switch l {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessOwner:
		return "owner"
	default:
		return "none"
	}
}

// SharedItem pairs an item with the permission it was shared at.
type SharedItem struct {
	Item       models.Item       `json:"item"`
	Permission models.Permission `json:"permission"`
	GrantedAt  time.Time         `json:"grantedAt"`
}

// Sharing owns the share-grant relation: granting, folder propagation and
// the access resolution every read path goes through.
type Sharing struct {
	db *gorm.DB
}

func NewSharing(db *gorm.DB) *Sharing {
	return &Sharing{db: db}
}

// ShareItem grants the user identified by granteeEmail access to an item.
// An existing grant for the same pair is updated in place, never duplicated.
// Sharing a folder also grants its direct file children at this moment;
// subfolders are left untouched and files added later get nothing. That
// shallow one-shot propagation is the observed contract of the system, not
// an accident of implementation.
func (s *Sharing) ShareItem(ctx context.Context, actor *models.User, itemID uuid.UUID, granteeEmail string, permission models.Permission) (*models.Share, error) {
	if permission != models.PermissionRead && permission != models.PermissionWrite {
		return nil, fmt.Errorf("%w: unknown permission %q", ErrInvalidOperation, permission)
	}

	var share *models.Share
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := findItem(tx, itemID)
		if err != nil {
			return err
		}
		if item.OwnerID != actor.ID {
			return fmt.Errorf("%w: only the owner can share an item", ErrForbidden)
		}

		var grantee models.User
		err = tx.Where("email = ?", granteeEmail).First(&grantee).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no user with email %s", ErrNotFound, granteeEmail)
			}
			return err
		}

		share, err = upsertShare(tx, item.ID, grantee.ID, permission)
		if err != nil {
			return err
		}

		if item.IsFolder() {
			var children []models.Item
			err := tx.Where("parent_id = ? AND kind = ?", item.ID, models.KindFile).Find(&children).Error
			if err != nil {
				return err
			}
			for _, child := range children {
				if _, err := upsertShare(tx, child.ID, grantee.ID, permission); err != nil {
					return err
				}
				err := tx.Model(&models.Item{}).Where("id = ?", child.ID).Update("is_shared", true).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

// ResolveAccess reports what the user may do with an item. It is evaluated
// fresh on every call so a revoked grant takes effect immediately.
func (s *Sharing) ResolveAccess(ctx context.Context, user *models.User, itemID uuid.UUID) (AccessLevel, error) {
	tx := s.db.WithContext(ctx)
	item, err := findItem(tx, itemID)
	if err != nil {
		return AccessNone, err
	}
	return resolveAccess(tx, user, item)
}

// ListSharedWith returns the items directly shared with the user, most
// recent grant first. limit <= 0 means no limit.
func (s *Sharing) ListSharedWith(ctx context.Context, user *models.User, limit int) ([]SharedItem, error) {
	q := s.db.WithContext(ctx).
		Preload("Item").
		Where("grantee_id = ?", user.ID).
		Order("granted_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var shares []models.Share
	if err := q.Find(&shares).Error; err != nil {
		return nil, err
	}

	items := make([]SharedItem, 0, len(shares))
	for _, share := range shares {
		items = append(items, SharedItem{
			Item:       share.Item,
			Permission: share.Permission,
			GrantedAt:  share.GrantedAt,
		})
	}
	return items, nil
}

// resolveAccess is the authorization primitive: ownership beats a direct
// share, which beats a share on any ancestor folder found by walking the
// parent chain to the root.
func resolveAccess(tx *gorm.DB, user *models.User, item *models.Item) (AccessLevel, error) {
	if item.OwnerID == user.ID {
		return AccessOwner, nil
	}

	var direct models.Share
	err := tx.Where("item_id = ? AND grantee_id = ?", item.ID, user.ID).First(&direct).Error
	switch {
	case err == nil:
		return permissionLevel(direct.Permission), nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return AccessNone, err
	}

	level := AccessNone
	if item.ParentID != nil {
		err = walkAncestors(tx, *item.ParentID, func(ancestor *models.Item) bool {
			var share models.Share
			findErr := tx.Where("item_id = ? AND grantee_id = ?", ancestor.ID, user.ID).First(&share).Error
			if findErr == nil {
				level = permissionLevel(share.Permission)
				return true
			}
			return false
		})
		if err != nil {
			return AccessNone, err
		}
	}
	return level, nil
}

func permissionLevel(p models.Permission) AccessLevel {
	if p == models.PermissionWrite {
		return AccessWrite
	}
	return AccessRead
}

func upsertShare(tx *gorm.DB, itemID, granteeID uuid.UUID, permission models.Permission) (*models.Share, error) {
	var existing models.Share
	err := tx.Where("item_id = ? AND grantee_id = ?", itemID, granteeID).First(&existing).Error
	switch {
	case err == nil:
		existing.Permission = permission
		if err := tx.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		share := models.Share{ItemID: itemID, GranteeID: granteeID, Permission: permission}
		if err := tx.Create(&share).Error; err != nil {
			return nil, err
		}
		return &share, nil
	default:
		return nil, err
	}
}
