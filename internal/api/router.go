// Package api exposes the trip service over HTTP with gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/fpang/trip-journal/internal/blobstore"
	"github.com/fpang/trip-journal/internal/trip"
)

// Upload limits applied when Dependencies leaves them unset.
const (
	DefaultMaxPhotos      = 50
	DefaultMaxUploadBytes = 200 << 20
)

var errMissingTripService = errors.New("trip service dependency required")

// TripService is the subset of *trip.Service the handlers call.
type TripService interface {
	CreateAutoTrip(ctx context.Context, ownerID, title string, photos []trip.RawPhoto) (*trip.Trip, error)
	ExtractMetadata(photos []trip.RawPhoto) ([]trip.PhotoSummary, error)
	GetTripDetail(ctx context.Context, tripID uint64) (*trip.Trip, error)
	ListTrips(ctx context.Context, ownerID string) ([]trip.Trip, error)
	DeleteTrip(ctx context.Context, ownerID string, tripID uint64) error
}

// MediaReader resolves a stored blob reference back to bytes.
type MediaReader interface {
	Open(ctx context.Context, ref string) ([]byte, error)
}

// Dependencies configures NewHTTPHandler.
type Dependencies struct {
	Service TripService
	// Media serves local blob references under MediaPrefix; nil disables the route.
	Media       MediaReader
	MediaPrefix string

	CORSOrigins    []string
	MaxPhotos      int
	MaxUploadBytes int64
}

// NewHTTPHandler builds the router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Service == nil {
		return nil, errMissingTripService
	}

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	h := &httpHandler{
		service:        deps.Service,
		media:          deps.Media,
		mediaPrefix:    strings.TrimRight(deps.MediaPrefix, "/"),
		maxPhotos:      deps.MaxPhotos,
		maxUploadBytes: deps.MaxUploadBytes,
	}
	if h.maxPhotos <= 0 {
		h.maxPhotos = DefaultMaxPhotos
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = DefaultMaxUploadBytes
	}
	if h.mediaPrefix == "" {
		h.mediaPrefix = blobstore.DefaultPublicPrefix
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	apiGroup.POST("/trips", h.handleCreateTrip)
	apiGroup.POST("/trips/analyze", h.handleAnalyzePhotos)
	apiGroup.GET("/trips/:tripId", h.handleGetTrip)
	apiGroup.DELETE("/trips/:tripId", h.handleDeleteTrip)
	apiGroup.GET("/members/:ownerId/trips", h.handleListTrips)

	if h.media != nil {
		router.GET(h.mediaPrefix+"/*path", h.handleMedia)
	}

	return router, nil
}

type httpHandler struct {
	service        TripService
	media          MediaReader
	mediaPrefix    string
	maxPhotos      int
	maxUploadBytes int64
}

// requestLogger logs one line per request after it completes.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		evt := log.Info()
		if status >= http.StatusInternalServerError {
			evt = log.Error()
		} else if status >= http.StatusBadRequest {
			evt = log.Warn()
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes", c.Writer.Size()).
			Msg("HTTP request")
	}
}
