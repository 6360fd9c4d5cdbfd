package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestIsAllowedContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/png", true},
		{"application/pdf", true},
		{"text/plain", true},
		{"text/plain; charset=utf-8", true},
		{"TEXT/PLAIN", true},
		{" text/markdown ", true},
		{"application/octet-stream", true},
		{"text/x-go", true},
		{"video/mp4", false},
		{"application/x-msdownload", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := IsAllowedContentType(tt.contentType); got != tt.want {
				t.Errorf("IsAllowedContentType(%q) = %t, want %t", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestIsTextualContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/plain", true},
		{"text/html; charset=utf-8", true},
		{"text/x-python", true},
		{"application/json", true},
		{"application/javascript", true},
		{"image/png", false},
		{"application/pdf", false},
		{"application/octet-stream", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := IsTextualContentType(tt.contentType); got != tt.want {
				t.Errorf("IsTextualContentType(%q) = %t, want %t", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestObjectKeys(t *testing.T) {
	owner := uuid.New()

	key := ObjectKey(owner, "report.pdf")
	if !strings.HasPrefix(key, "uploads/"+owner.String()+"/") {
		t.Errorf("ObjectKey = %q, want owner-namespaced prefix", key)
	}
	if !strings.HasSuffix(key, "_report.pdf") {
		t.Errorf("ObjectKey = %q, want filename suffix", key)
	}

	versionKey := VersionObjectKey(owner, "report.pdf")
	if !strings.HasPrefix(versionKey, "uploads/"+owner.String()+"/versions/") {
		t.Errorf("VersionObjectKey = %q, want versions prefix", versionKey)
	}

	if key == ObjectKey(owner, "report.pdf") {
		t.Error("two keys for the same filename collide; want unique keys")
	}
}
