// Package blobstore persists trip photo files and hands back opaque
// reference strings that are safe to store in the database and later
// resolve back to bytes.
//
// Object keys are scoped as {owner}/{category}/{tripKey}/{uuid}_{filename}.
package blobstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fpang/trip-journal/internal/filehandler"
)

// CategoryTrip scopes photos that belong to a trip journal.
const CategoryTrip = "trip"

// ErrNotFound is returned by Open when a reference does not resolve to a blob.
var ErrNotFound = errors.New("blob not found")

// Location is the caller-chosen logical path for a blob.
type Location struct {
	OwnerID     string
	Category    string
	TripKey     string
	Filename    string
	ContentType string
}

// ObjectKey builds the storage key for loc. id makes the key unique even
// when the same filename is uploaded twice for one trip.
func ObjectKey(loc Location, id string) (string, error) {
	if strings.TrimSpace(loc.OwnerID) == "" {
		return "", fmt.Errorf("blob location requires an owner")
	}
	if strings.TrimSpace(loc.TripKey) == "" {
		return "", fmt.Errorf("blob location requires a trip key")
	}
	category := loc.Category
	if category == "" {
		category = CategoryTrip
	}
	return fmt.Sprintf("%s/%s/%s/%s_%s",
		filehandler.SanitizeFilename(loc.OwnerID),
		filehandler.SanitizeFilename(category),
		filehandler.SanitizeFilename(loc.TripKey),
		id,
		filehandler.SanitizeFilename(loc.Filename),
	), nil
}
