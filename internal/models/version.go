package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Version is an immutable snapshot of a file's content. Version numbers are
// gapless per file starting at 1; exactly one version per file is current.
// Each version owns its own blob, so deleting one never invalidates another.
type Version struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	FileID        uuid.UUID  `json:"fileId" gorm:"type:uuid;not null;uniqueIndex:idx_file_version_number"`
	VersionNumber int        `json:"versionNumber" gorm:"not null;uniqueIndex:idx_file_version_number"`
	StorageKey    string     `json:"storageKey" gorm:"not null"`
	SizeBytes     int64      `json:"sizeBytes" gorm:"not null"`
	CreatedBy     *uuid.UUID `json:"createdBy" gorm:"type:uuid"`
	Comment       string     `json:"comment"`
	IsCurrent     bool       `json:"isCurrent" gorm:"default:false"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"autoCreateTime"`
}

func (v *Version) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
