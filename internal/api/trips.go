package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fpang/trip-journal/internal/blobstore"
	"github.com/fpang/trip-journal/internal/filehandler"
	"github.com/fpang/trip-journal/internal/trip"
)

const photosField = "photos"

// uploadError carries the status a failed upload should produce.
type uploadError struct {
	status int
	code   string
	msg    string
}

func (e *uploadError) Error() string { return e.msg }

// readPhotos parses the multipart body and loads every "photos" part.
func (h *httpHandler) readPhotos(c *gin.Context) ([]trip.RawPhoto, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &uploadError{http.StatusRequestEntityTooLarge, "upload_too_large",
				fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes)}
		}
		return nil, &uploadError{http.StatusBadRequest, "invalid_multipart", "expected a multipart/form-data body"}
	}

	files := form.File[photosField]
	if len(files) > h.maxPhotos {
		return nil, &uploadError{http.StatusBadRequest, "too_many_photos",
			fmt.Sprintf("at most %d photos per trip", h.maxPhotos)}
	}

	photos := make([]trip.RawPhoto, 0, len(files))
	for _, fh := range files {
		if !filehandler.IsImage(filepath.Ext(fh.Filename)) {
			return nil, &uploadError{http.StatusBadRequest, "unsupported_file",
				fmt.Sprintf("%s is not a supported image", fh.Filename)}
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read upload %s: %w", fh.Filename, err)
		}
		photos = append(photos, trip.RawPhoto{Filename: fh.Filename, Data: data})
	}
	return photos, nil
}

func (h *httpHandler) respondUploadError(c *gin.Context, err error) {
	var ue *uploadError
	if errors.As(err, &ue) {
		httpError(c, ue.status, ue.code, ue.msg, nil)
		return
	}
	httpError(c, http.StatusBadRequest, "invalid_upload", "could not read uploaded photos", err)
}

func (h *httpHandler) handleCreateTrip(c *gin.Context) {
	photos, err := h.readPhotos(c)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}

	created, err := h.service.CreateAutoTrip(c.Request.Context(), c.PostForm("ownerId"), c.PostForm("title"), photos)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *httpHandler) handleAnalyzePhotos(c *gin.Context) {
	photos, err := h.readPhotos(c)
	if err != nil {
		h.respondUploadError(c, err)
		return
	}

	summaries, err := h.service.ExtractMetadata(photos)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": summaries})
}

func (h *httpHandler) handleGetTrip(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}

	detail, err := h.service.GetTripDetail(c.Request.Context(), tripID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *httpHandler) handleListTrips(c *gin.Context) {
	ownerID := c.Param("ownerId")
	trips, err := h.service.ListTrips(c.Request.Context(), ownerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if trips == nil {
		trips = []trip.Trip{}
	}
	c.JSON(http.StatusOK, gin.H{"trips": trips})
}

func (h *httpHandler) handleDeleteTrip(c *gin.Context) {
	tripID, ok := parseTripID(c)
	if !ok {
		return
	}
	ownerID := strings.TrimSpace(c.Query("ownerId"))
	if ownerID == "" {
		httpError(c, http.StatusBadRequest, "invalid_input", "ownerId query parameter is required", nil)
		return
	}

	if err := h.service.DeleteTrip(c.Request.Context(), ownerID, tripID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleMedia(c *gin.Context) {
	ref := h.mediaPrefix + c.Param("path")
	data, err := h.media.Open(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			httpError(c, http.StatusNotFound, "media_not_found", "media not found", nil)
			return
		}
		httpError(c, http.StatusBadRequest, "invalid_media_ref", "invalid media reference", err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, filehandler.MIMETypeForFilename(ref), data)
}

func parseTripID(c *gin.Context) (uint64, bool) {
	tripID, err := strconv.ParseUint(c.Param("tripId"), 10, 64)
	if err != nil || tripID == 0 {
		httpError(c, http.StatusBadRequest, "invalid_trip_id", "tripId must be a positive integer", nil)
		return 0, false
	}
	return tripID, true
}
