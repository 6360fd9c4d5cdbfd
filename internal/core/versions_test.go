package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/jukalemanmath/mydrive-backend/internal/models"
)

func TestCreateVersionChain(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ctx := context.Background()

	// Upload "hello", then replace with "hello world".
	file := f.file(t, owner, "report.txt", nil, "hello")
	v2 := f.newVersion(t, owner, file, "hello world", "longer greeting")

	if v2.VersionNumber != 2 || !v2.IsCurrent {
		t.Errorf("v2 = (number=%d, current=%t), want (2, true)", v2.VersionNumber, v2.IsCurrent)
	}

	history, err := f.versions.History(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d versions, want 2", len(history))
	}
	if history[0].VersionNumber != 1 || history[0].IsCurrent {
		t.Errorf("v1 = (number=%d, current=%t), want (1, false)", history[0].VersionNumber, history[0].IsCurrent)
	}

	// The file row mirrors its current version.
	reloaded := f.reload(t, file.ID)
	if reloaded.SizeBytes != int64(len("hello world")) {
		t.Errorf("file size = %d, want %d", reloaded.SizeBytes, len("hello world"))
	}
	if reloaded.StorageKey != v2.StorageKey {
		t.Errorf("file storage key = %s, want %s", reloaded.StorageKey, v2.StorageKey)
	}
}

func TestVersionNumbersAreGapless(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ctx := context.Background()

	file := f.file(t, owner, "log.txt", nil, "0")
	for i := 1; i < 6; i++ {
		f.newVersion(t, owner, file, fmt.Sprintf("content %d", i), "")
	}

	history, err := f.versions.History(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 6 {
		t.Fatalf("got %d versions, want 6", len(history))
	}
	currentCount := 0
	for i, v := range history {
		if v.VersionNumber != i+1 {
			t.Errorf("history[%d].VersionNumber = %d, want %d", i, v.VersionNumber, i+1)
		}
		if v.IsCurrent {
			currentCount++
			if v.VersionNumber != 6 {
				t.Errorf("version %d is current, want 6", v.VersionNumber)
			}
		}
	}
	if currentCount != 1 {
		t.Errorf("%d current versions, want exactly 1", currentCount)
	}
}

func TestCreateVersionConcurrent(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ctx := context.Background()

	file := f.file(t, owner, "busy.txt", nil, "base")

	// Racing creators must all be recorded under sequential numbers, never
	// rejected or collapsed onto the same number.
	const writers = 4
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("uploads/%s/versions/writer%d", file.OwnerID, i)
			if err := f.blobs.Put(ctx, key, []byte("x")); err != nil {
				errs[i] = err
				return
			}
			_, errs[i] = f.versions.CreateVersion(ctx, owner, file.ID, ContentRef{StorageKey: key, SizeBytes: 1}, "")
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("writer %d: %v", i, err)
		}
	}

	history, err := f.versions.History(ctx, file.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != writers+1 {
		t.Fatalf("got %d versions, want %d", len(history), writers+1)
	}
	currentCount := 0
	for i, v := range history {
		if v.VersionNumber != i+1 {
			t.Errorf("history[%d].VersionNumber = %d, want %d", i, v.VersionNumber, i+1)
		}
		if v.IsCurrent {
			currentCount++
			if v.VersionNumber != writers+1 {
				t.Errorf("version %d is current, want %d", v.VersionNumber, writers+1)
			}
		}
	}
	if currentCount != 1 {
		t.Errorf("%d current versions, want exactly 1", currentCount)
	}
}

func TestVersionNumberConflictIsDuplicatedKey(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")

	file := f.file(t, owner, "x.txt", nil, "a")

	// The retry loop in CreateVersion keys on this translation.
	dup := models.Version{FileID: file.ID, VersionNumber: 1, StorageKey: "k", SizeBytes: 1}
	err := f.db.Create(&dup).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("duplicate version number: got %v, want gorm.ErrDuplicatedKey", err)
	}
}

func TestCreateVersionAuthorization(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	reader := f.user(t, "bob")
	writer := f.user(t, "carol")
	stranger := f.user(t, "dave")
	ctx := context.Background()

	file := f.file(t, owner, "shared.txt", nil, "base")
	if _, err := f.sharing.ShareItem(ctx, owner, file.ID, reader.Email, models.PermissionRead); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sharing.ShareItem(ctx, owner, file.ID, writer.Email, models.PermissionWrite); err != nil {
		t.Fatal(err)
	}

	put := func(actor *models.User) error {
		key := fmt.Sprintf("uploads/%s/versions/%s", file.OwnerID, actor.Username)
		if err := f.blobs.Put(ctx, key, []byte("new")); err != nil {
			t.Fatal(err)
		}
		_, err := f.versions.CreateVersion(ctx, actor, file.ID, ContentRef{StorageKey: key, SizeBytes: 3}, "")
		return err
	}

	if err := put(owner); err != nil {
		t.Errorf("owner: %v", err)
	}
	if err := put(writer); err != nil {
		t.Errorf("write share: %v", err)
	}
	if err := put(reader); !errors.Is(err, ErrForbidden) {
		t.Errorf("read share: got %v, want ErrForbidden", err)
	}
	if err := put(stranger); !errors.Is(err, ErrForbidden) {
		t.Errorf("no share: got %v, want ErrForbidden", err)
	}
}

func TestRestoreVersion(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ctx := context.Background()

	file := f.file(t, owner, "essay.txt", nil, "first draft")
	f.newVersion(t, owner, file, "second draft", "")

	history, _ := f.versions.History(ctx, file.ID)
	v1 := history[0]

	restored, err := f.versions.RestoreVersion(ctx, owner, v1.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Restore appends; it never rewinds.
	if restored.VersionNumber != 3 {
		t.Errorf("restored number = %d, want 3", restored.VersionNumber)
	}
	if restored.Comment != "Restored from version 1" {
		t.Errorf("comment = %q", restored.Comment)
	}
	if restored.StorageKey == v1.StorageKey {
		t.Error("restored version aliases the old blob; want an independent copy")
	}

	data, err := f.blobs.Get(ctx, restored.StorageKey)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "first draft" {
		t.Errorf("restored content = %q, want %q", data, "first draft")
	}

	// Old row unchanged, exactly one current.
	history, _ = f.versions.History(ctx, file.ID)
	if len(history) != 3 {
		t.Fatalf("got %d versions, want 3", len(history))
	}
	for _, v := range history {
		if v.IsCurrent != (v.VersionNumber == 3) {
			t.Errorf("version %d current = %t", v.VersionNumber, v.IsCurrent)
		}
	}
}

func TestRestoreVersionAuthorizesBeforeContent(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	reader := f.user(t, "bob")
	ctx := context.Background()

	file := f.file(t, owner, "plan.txt", nil, "v1")
	f.newVersion(t, owner, file, "v2", "")
	if _, err := f.sharing.ShareItem(ctx, owner, file.ID, reader.Email, models.PermissionRead); err != nil {
		t.Fatal(err)
	}

	history, _ := f.versions.History(ctx, file.ID)
	v1 := history[0]

	// Remove the old blob: an access failure must surface before the engine
	// ever tries to read it.
	if err := f.blobs.Delete(ctx, v1.StorageKey); err != nil {
		t.Fatal(err)
	}

	if _, err := f.versions.RestoreVersion(ctx, reader, v1.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("read-only restore: got %v, want ErrForbidden", err)
	}

	// The owner reaches the content read and hits the missing blob.
	if _, err := f.versions.RestoreVersion(ctx, owner, v1.ID); !errors.Is(err, ErrStorage) {
		t.Errorf("owner restore with missing blob: got %v, want ErrStorage", err)
	}
}

func TestDeleteVersion(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	other := f.user(t, "bob")
	ctx := context.Background()

	file := f.file(t, owner, "data.txt", nil, "one")
	f.newVersion(t, owner, file, "two", "")
	f.newVersion(t, owner, file, "three", "")

	t.Run("highest version is protected", func(t *testing.T) {
		err := f.versions.DeleteVersion(ctx, owner, file.ID, 3)
		if !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("got %v, want ErrInvalidOperation", err)
		}
	})

	t.Run("missing version", func(t *testing.T) {
		err := f.versions.DeleteVersion(ctx, owner, file.ID, 42)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("owner only", func(t *testing.T) {
		err := f.versions.DeleteVersion(ctx, other, file.ID, 1)
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("got %v, want ErrForbidden", err)
		}
	})

	t.Run("older version can go, newest survives with its blob", func(t *testing.T) {
		history, _ := f.versions.History(ctx, file.ID)
		deleted := history[0]

		if err := f.versions.DeleteVersion(ctx, owner, file.ID, 1); err != nil {
			t.Fatal(err)
		}

		history, _ = f.versions.History(ctx, file.ID)
		if len(history) != 2 {
			t.Fatalf("got %d versions, want 2", len(history))
		}

		if exists, _ := f.blobs.Exists(ctx, deleted.StorageKey); exists {
			t.Error("deleted version's blob still stored")
		}
		newest := history[len(history)-1]
		data, err := f.blobs.Get(ctx, newest.StorageKey)
		if err != nil || string(data) != "three" {
			t.Errorf("newest content = %q (%v), want %q", data, err, "three")
		}
	})
}

func TestVersionLookup(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ctx := context.Background()

	file := f.file(t, owner, "x.txt", nil, "a")
	f.newVersion(t, owner, file, "b", "")

	v, err := f.versions.Version(ctx, file.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if v.VersionNumber != 2 {
		t.Errorf("number = %d, want 2", v.VersionNumber)
	}

	if _, err := f.versions.Version(ctx, file.ID, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestVersionsRejectFolders(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "alice")
	ctx := context.Background()

	folder := f.folder(t, owner, "docs", nil)
	_, err := f.versions.CreateVersion(ctx, owner, folder.ID, ContentRef{StorageKey: "k"}, "")
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("got %v, want ErrInvalidOperation", err)
	}
}
