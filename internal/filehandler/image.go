package filehandler

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
)

// ImageMetadata contains EXIF metadata extracted from a photo.
type ImageMetadata struct {
	// GPS coordinates (converted from EXIF Rational format to float64)
	Latitude  float64
	Longitude float64
	HasGPS    bool

	// Timestamp (with timezone if available in OffsetTimeOriginal)
	DateTaken time.Time
	HasDate   bool

	// Camera info
	CameraMake  string
	CameraModel string
}

// ExtractImageMetadata reads EXIF metadata from an in-memory photo.
func ExtractImageMetadata(data []byte) (*ImageMetadata, error) {
	return ExtractImageMetadataFrom(bytes.NewReader(data))
}

// ExtractImageMetadataFrom reads EXIF metadata using the io.ReadSeeker
// pattern, so only the metadata block is consumed rather than the full image.
//
// GPS coordinates are stored in EXIF as "Rational" values (pairs of 32-bit integers).
// The library handles the conversion to float64 including reference direction (N/S, E/W).
// A GPS block that decodes to exactly 0/0 is treated the same as a missing one.
func ExtractImageMetadataFrom(r io.ReadSeeker) (*ImageMetadata, error) {
	exifData, err := imagemeta.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	metadata := &ImageMetadata{}

	gps := exifData.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		metadata.Latitude = gps.Latitude()
		metadata.Longitude = gps.Longitude()
		metadata.HasGPS = true
	}

	// Priority: DateTimeOriginal > CreateDate > ModifyDate
	if t := exifData.DateTimeOriginal(); !t.IsZero() {
		metadata.DateTaken = t
		metadata.HasDate = true
	} else if t := exifData.CreateDate(); !t.IsZero() {
		metadata.DateTaken = t
		metadata.HasDate = true
	} else if t := exifData.ModifyDate(); !t.IsZero() {
		metadata.DateTaken = t
		metadata.HasDate = true
	}

	metadata.CameraMake = strings.TrimSpace(exifData.Make)
	metadata.CameraModel = strings.TrimSpace(exifData.Model)

	log.Debug().
		Bool("has_gps", metadata.HasGPS).
		Bool("has_date", metadata.HasDate).
		Str("camera", strings.TrimSpace(metadata.CameraMake+" "+metadata.CameraModel)).
		Msg("Image metadata extraction complete")

	return metadata, nil
}
