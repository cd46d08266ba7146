package filehandler

import (
	"testing"
)

func TestExtractImageMetadata_Garbage(t *testing.T) {
	meta, err := ExtractImageMetadata([]byte("not an image at all"))
	if err == nil {
		t.Fatalf("expected error for non-image input, got metadata %+v", meta)
	}
	if meta != nil {
		t.Errorf("expected nil metadata on error, got %+v", meta)
	}
}

func TestExtractImageMetadata_NoEXIF(t *testing.T) {
	// A PNG without an EXIF chunk either fails to decode or yields empty
	// metadata; it must never report a location or a timestamp.
	meta, err := ExtractImageMetadata(makePNG(t, 4, 4))
	if err != nil {
		return
	}
	if meta.HasGPS {
		t.Errorf("HasGPS = true for image without EXIF (lat=%v lon=%v)", meta.Latitude, meta.Longitude)
	}
	if meta.HasDate {
		t.Errorf("HasDate = true for image without EXIF (%v)", meta.DateTaken)
	}
}
