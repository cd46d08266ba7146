// Package trip implements the automated trip-journal pipeline: photos are
// ordered by capture time, described one by one by a vision model, composed
// into a single narrative, and persisted as a Trip with its records, photos
// and travel-style tags.
package trip

import (
	"time"
)

// Visibility controls who can see a trip.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// RawPhoto is one uploaded photo. It lives only for the duration of a request.
type RawPhoto struct {
	Filename string
	Data     []byte
}

// PhotoMetadata is what the Metadata Extractor could recover from a photo.
// Nil fields mean the value was not present.
type PhotoMetadata struct {
	CapturedAt *time.Time `json:"capturedAt,omitempty"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
}

// HasLocation reports whether both coordinates are known.
func (m PhotoMetadata) HasLocation() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// OrderedPhoto pairs a photo with its metadata and its sequence index.
// Index is assigned once by SortChronologically and never changes.
type OrderedPhoto struct {
	Index    int
	Photo    RawPhoto
	Metadata PhotoMetadata
}

// Trip is the persisted root of a journal.
type Trip struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	// StorageKey scopes the trip's blobs; it exists before the row does.
	StorageKey        string     `gorm:"size:36;uniqueIndex;not null" json:"storageKey"`
	OwnerID           string     `gorm:"size:64;index;not null" json:"ownerId"`
	Title             string     `gorm:"size:255;not null" json:"title"`
	Narrative         string     `gorm:"type:text" json:"narrative"`
	NarrativeDegraded bool       `gorm:"not null;default:false" json:"narrativeDegraded"`
	StartDate         time.Time  `gorm:"not null" json:"startDate"`
	EndDate           time.Time  `gorm:"not null" json:"endDate"`
	Visibility        Visibility `gorm:"size:16;not null" json:"visibility"`
	CreatedAt         time.Time  `gorm:"not null" json:"createdAt"`

	Records []TripRecord `gorm:"-" json:"records,omitempty"`
	Tags    []TripTag    `gorm:"-" json:"tags,omitempty"`
}

// TableName pins the table name.
func (Trip) TableName() string { return "trips" }

// TripRecord is one stop of the trip, backed by exactly one surviving photo.
type TripRecord struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	TripID uint64 `gorm:"index;not null" json:"tripId"`
	// Sequence is the photo's sequence index; gaps mark dropped photos.
	Sequence  int        `gorm:"not null" json:"sequence"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	VisitedAt *time.Time `json:"visitedAt,omitempty"`

	Photos []TripPhoto `gorm:"-" json:"photos,omitempty"`
}

func (TripRecord) TableName() string { return "trip_records" }

// TripPhoto is the stored media for a record.
type TripPhoto struct {
	ID               uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordID         uint64 `gorm:"index;not null" json:"recordId"`
	StorageRef       string `gorm:"size:512;not null" json:"storageRef"`
	OriginalFilename string `gorm:"size:255" json:"originalFilename"`
	ContentType      string `gorm:"size:64" json:"contentType"`
	// Caption is Description truncated for display.
	Caption     string `gorm:"size:64" json:"caption"`
	Description string `gorm:"type:text" json:"description"`
}

func (TripPhoto) TableName() string { return "trip_photos" }

// TripTag attaches one travel style to a trip.
type TripTag struct {
	ID     uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TripID uint64      `gorm:"index;not null" json:"tripId"`
	Style  TravelStyle `gorm:"size:32;not null" json:"style"`
}

func (TripTag) TableName() string { return "trip_tags" }
