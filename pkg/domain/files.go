package domain

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// DefaultMaxFileSize caps uploads accepted for signing or validation.
	DefaultMaxFileSize int64 = 20 * 1024 * 1024
	// SignedPrefix is prepended to the original name of a signed file.
	SignedPrefix = "ASSINADO_"

	maxFileNameLength = 100
)

var (
	allowedContentTypes = map[string]bool{
		"application/pdf": true,
		"application/xml": true,
		"text/xml":        true,
	}
	unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// ValidateFile rejects files above maxSize or outside the PDF/XML family.
// A non-positive maxSize falls back to DefaultMaxFileSize.
func ValidateFile(name, contentType string, size, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if strings.TrimSpace(name) == "" {
		return invalid("file", "name is required")
	}
	if size > maxSize {
		return invalid("file", "exceeds the %d MB limit", maxSize/(1024*1024))
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !allowedContentTypes[ct] && !strings.HasSuffix(strings.ToLower(name), ".xml") {
		return invalid("file", "type %q is not allowed, use PDF or XML", contentType)
	}
	return nil
}

// SanitizeFileName replaces characters outside [A-Za-z0-9._-] and caps the length.
func SanitizeFileName(name string) string {
	clean := unsafeFileChars.ReplaceAllString(name, "_")
	if len(clean) > maxFileNameLength {
		clean = clean[:maxFileNameLength]
	}
	return clean
}

// FileTypeFromName derives the artefact type from the file extension.
func FileTypeFromName(name string) FileType {
	if strings.EqualFold(filepath.Ext(name), ".xml") {
		return FileXML
	}
	return FilePDF
}

func SignedFileName(original string) string {
	return SignedPrefix + original
}
