package utils

import "strings"

// allowedContentTypes is the upload whitelist: images, documents and the
// text/code formats the viewer can render.
var allowedContentTypes = map[string]bool{
	// Images
	"image/jpeg": true, "image/png": true, "image/gif": true,
	"image/webp": true, "image/svg+xml": true,
	// Documents
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	// Text and data
	"text/plain": true, "text/csv": true, "text/html": true, "text/css": true,
	"text/markdown": true, "text/yaml": true, "application/json": true,
	"application/xml": true,
	// Code
	"text/javascript": true, "application/javascript": true,
	"text/x-python": true, "application/x-python": true,
	"text/x-java": true, "text/x-c": true, "text/x-c++": true,
	"text/x-go": true, "text/x-rust": true, "text/x-ruby": true,
	"text/x-php": true, "text/x-swift": true, "text/x-shell": true,
	"text/typescript": true, "text/x-typescript": true,

	"application/octet-stream": true,
}

// textualContentTypes are served inline as decoded text; everything else is
// handed out as a download URL.
var textualContentTypes = map[string]bool{
	"application/json":       true,
	"application/xml":        true,
	"application/javascript": true,
	"application/x-python":   true,
}

// IsAllowedContentType reports whether uploads of this content type are accepted.
func IsAllowedContentType(contentType string) bool {
	return allowedContentTypes[normalize(contentType)]
}

// IsTextualContentType reports whether content should be returned inline as text.
func IsTextualContentType(contentType string) bool {
	ct := normalize(contentType)
	return strings.HasPrefix(ct, "text/") || textualContentTypes[ct]
}

// normalize strips any media-type parameters, e.g. "; charset=utf-8".
func normalize(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
