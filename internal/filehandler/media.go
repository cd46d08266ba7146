// Package filehandler provides photo file handling for the trip pipeline:
// extension/MIME detection, EXIF metadata extraction, directory loading for
// the CLI and the downscale/re-encode step applied before AI analysis.
//
// Metadata is read in pure Go with evanoberholster/imagemeta, which supports:
//   - HEIC/HEIF (parses the BMFF container to find the EXIF block)
//   - JPEG (standard EXIF at file start)
//   - TIFF (standard IFD structure)
//   - PNG/WebP (graceful handling of limited metadata)
package filehandler

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SupportedImageExtensions defines the file extensions accepted as trip photos.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, error) {
	ext = strings.ToLower(ext)

	if mimeType, ok := SupportedImageExtensions[ext]; ok {
		return mimeType, nil
	}

	return "", fmt.Errorf("unsupported file extension: %s", ext)
}

// MIMETypeForFilename resolves the MIME type from a filename's extension,
// falling back to application/octet-stream for unknown extensions.
func MIMETypeForFilename(filename string) string {
	mimeType, err := GetMIMEType(filepath.Ext(filename))
	if err != nil {
		return "application/octet-stream"
	}
	return mimeType
}

// IsImage returns true if the file extension corresponds to a supported image.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// SanitizeFilename reduces an uploaded filename to a safe base name for use in
// storage keys. Path separators are dropped and anything outside
// [A-Za-z0-9._-] becomes an underscore.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "photo"
	}

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	out := strings.TrimLeft(sb.String(), ".")
	if out == "" {
		return "photo"
	}
	return out
}
