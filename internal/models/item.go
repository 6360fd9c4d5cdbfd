package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemKind string

const (
	KindFile   ItemKind = "file"
	KindFolder ItemKind = "folder"
)

// Item is a node in the file/folder tree. Files carry a storage key, size and
// content type; for folders those fields stay empty. ParentID is nil at the
// root and must otherwise point at a folder with the same owner.
type Item struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string     `json:"name" gorm:"index;not null"`
	OwnerID     uuid.UUID  `json:"ownerId" gorm:"type:uuid;index;not null"`
	Kind        ItemKind   `json:"kind" gorm:"type:varchar(10);not null;default:'file'"`
	ParentID    *uuid.UUID `json:"parentId" gorm:"type:uuid;index"`
	StorageKey  string     `json:"storageKey"`
	SizeBytes   int64      `json:"sizeBytes"`
	ContentType string     `json:"contentType"`
	IsShared    bool       `json:"isShared" gorm:"default:false"`
	// Reserved for a future trash feature; delete is hard today.
	IsDeleted bool      `json:"isDeleted" gorm:"default:false"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Versions []Version `json:"-" gorm:"foreignKey:FileID"`
	Shares   []Share   `json:"-" gorm:"foreignKey:ItemID"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *Item) IsFolder() bool {
	return i.Kind == KindFolder
}
