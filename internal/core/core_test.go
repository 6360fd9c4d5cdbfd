package core

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jukalemanmath/mydrive-backend/internal/models"
	"github.com/jukalemanmath/mydrive-backend/internal/storage"
)

var dbCounter atomic.Int64

// testDB opens a fresh in-memory sqlite database with the full schema.
// cache=shared keeps every pooled connection pointed at the same database.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:coretest%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// sqlite allows one writer; funneling everything through a single
	// connection makes concurrent engine tests deterministic.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = db.AutoMigrate(&models.User{}, &models.Item{}, &models.Version{}, &models.Share{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db        *gorm.DB
	blobs     *storage.Memory
	hierarchy *Hierarchy
	versions  *Versions
	sharing   *Sharing
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)
	blobs := storage.NewMemory()
	return &fixture{
		db:        db,
		blobs:     blobs,
		hierarchy: NewHierarchy(db, blobs),
		versions:  NewVersions(db, blobs),
		sharing:   NewSharing(db),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := models.User{
		Username: name,
		Email:    name + "@example.com",
		Password: "x",
		IsActive: true,
	}
	if err := f.db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return &u
}

func (f *fixture) folder(t *testing.T, owner *models.User, name string, parentID *uuid.UUID) *models.Item {
	t.Helper()
	item, err := f.hierarchy.CreateItem(context.Background(), owner, name, models.KindFolder, parentID, nil)
	if err != nil {
		t.Fatalf("create folder %s: %v", name, err)
	}
	return item
}

// file uploads content to the blob store and creates the item, mirroring
// what the upload handler does.
func (f *fixture) file(t *testing.T, owner *models.User, name string, parentID *uuid.UUID, content string) *models.Item {
	t.Helper()
	key := fmt.Sprintf("uploads/%s/%s_%s", owner.ID, uuid.New(), name)
	if err := f.blobs.Put(context.Background(), key, []byte(content)); err != nil {
		t.Fatalf("put blob: %v", err)
	}
	item, err := f.hierarchy.CreateItem(context.Background(), owner, name, models.KindFile, parentID, &ContentRef{
		StorageKey:  key,
		SizeBytes:   int64(len(content)),
		ContentType: "text/plain",
	})
	if err != nil {
		t.Fatalf("create file %s: %v", name, err)
	}
	return item
}

// newVersion uploads new content and records it as the file's next version.
func (f *fixture) newVersion(t *testing.T, actor *models.User, file *models.Item, content, comment string) *models.Version {
	t.Helper()
	key := fmt.Sprintf("uploads/%s/versions/%s_%s", file.OwnerID, uuid.New(), file.Name)
	if err := f.blobs.Put(context.Background(), key, []byte(content)); err != nil {
		t.Fatalf("put blob: %v", err)
	}
	v, err := f.versions.CreateVersion(context.Background(), actor, file.ID, ContentRef{
		StorageKey:  key,
		SizeBytes:   int64(len(content)),
		ContentType: "text/plain",
	}, comment)
	if err != nil {
		t.Fatalf("create version: %v", err)
	}
	return v
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.Item {
	t.Helper()
	var item models.Item
	if err := f.db.First(&item, "id = ?", id).Error; err != nil {
		t.Fatalf("reload item %s: %v", id, err)
	}
	return &item
}
