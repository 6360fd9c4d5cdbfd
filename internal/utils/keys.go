package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// ObjectKey builds the blob store key for newly uploaded file content.
// Keys are namespaced by owning user; the random component keeps uploads of
// the same filename from colliding.
func ObjectKey(ownerID uuid.UUID, filename string) string {
	return fmt.Sprintf("uploads/%s/%s_%s", ownerID, uuid.New(), filename)
}

// VersionObjectKey builds the blob store key for a file version snapshot.
// Every version owns an independent key, so deleting one version's blob
// never invalidates another.
func VersionObjectKey(ownerID uuid.UUID, filename string) string {
	return fmt.Sprintf("uploads/%s/versions/%s_%s", ownerID, uuid.New(), filename)
}
