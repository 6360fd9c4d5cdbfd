package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Share grants a user access to an item. The (item, grantee) pair is unique;
// sharing again updates the permission in place.
type Share struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ItemID     uuid.UUID  `json:"itemId" gorm:"type:uuid;not null;uniqueIndex:idx_item_grantee"`
	GranteeID  uuid.UUID  `json:"granteeId" gorm:"type:uuid;not null;uniqueIndex:idx_item_grantee"`
	Permission Permission `json:"permission" gorm:"type:varchar(10);not null;default:'read'"`
	GrantedAt  time.Time  `json:"grantedAt" gorm:"autoCreateTime"`

	Item Item `json:"item" gorm:"foreignKey:ItemID"`
}

func (s *Share) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
