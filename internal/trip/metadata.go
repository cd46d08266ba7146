package trip

import (
	"github.com/fpang/trip-journal/internal/filehandler"
	"github.com/rs/zerolog/log"
)

// MetadataReader decodes EXIF metadata from raw image bytes.
type MetadataReader func(data []byte) (*filehandler.ImageMetadata, error)

// ExtractPhotoMetadata never fails: unreadable or missing metadata yields an
// empty PhotoMetadata. A missing GPS block and a 0/0 fix both mean no location.
func ExtractPhotoMetadata(read MetadataReader, photo RawPhoto) PhotoMetadata {
	if read == nil {
		read = filehandler.ExtractImageMetadata
	}

	meta, err := read(photo.Data)
	if err != nil || meta == nil {
		log.Debug().Err(err).Str("filename", photo.Filename).Msg("No readable metadata, continuing without it")
		return PhotoMetadata{}
	}

	var out PhotoMetadata
	if meta.HasDate && !meta.DateTaken.IsZero() {
		t := meta.DateTaken
		out.CapturedAt = &t
	}
	if meta.HasGPS && !(meta.Latitude == 0 && meta.Longitude == 0) {
		lat, lon := meta.Latitude, meta.Longitude
		out.Latitude = &lat
		out.Longitude = &lon
	}
	return out
}
