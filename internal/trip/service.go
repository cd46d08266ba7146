package trip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fpang/trip-journal/internal/blobstore"
	"github.com/fpang/trip-journal/internal/chat"
	"github.com/fpang/trip-journal/internal/filehandler"
	"github.com/fpang/trip-journal/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	errMissingRecordStore = errors.New("record store dependency required")
	errMissingBlobStore   = errors.New("blob store dependency required")
	errMissingGenerator   = errors.New("generator dependency required")
)

// ServiceConfig wires the pipeline's collaborators and tunables.
type ServiceConfig struct {
	Records   RecordStore
	Blobs     BlobStore
	Generator chat.Generator
	// CompositionGenerator serves the narrative call; nil means Generator.
	CompositionGenerator chat.Generator
	// MetadataReader defaults to filehandler.ExtractImageMetadata.
	MetadataReader MetadataReader

	Analyzer           chat.AnalyzerConfig
	CompositionTimeout time.Duration
	// CaptionLength defaults to DefaultCaptionLength.
	CaptionLength int

	Clock      func() time.Time
	IDProvider func() string
	// MetricsOutput receives one EMF line per pipeline run; nil means stdout.
	MetricsOutput io.Writer
}

// Service runs the trip-journal pipeline and the read/delete operations on
// persisted trips.
type Service struct {
	records       RecordStore
	blobs         BlobStore
	readMetadata  MetadataReader
	analyzer      *chat.PhotoAnalyzer
	composer      *chat.Composer
	captionLength int
	clock         func() time.Time
	newID         func() string
	metricsOut    io.Writer
}

// NewService validates cfg and applies defaults.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Records == nil {
		return nil, errMissingRecordStore
	}
	if cfg.Blobs == nil {
		return nil, errMissingBlobStore
	}
	if cfg.Generator == nil {
		return nil, errMissingGenerator
	}

	composeGen := cfg.CompositionGenerator
	if composeGen == nil {
		composeGen = cfg.Generator
	}

	s := &Service{
		records:       cfg.Records,
		blobs:         cfg.Blobs,
		readMetadata:  cfg.MetadataReader,
		analyzer:      chat.NewPhotoAnalyzer(cfg.Generator, cfg.Analyzer),
		composer:      chat.NewComposer(composeGen, cfg.CompositionTimeout),
		captionLength: cfg.CaptionLength,
		clock:         cfg.Clock,
		newID:         cfg.IDProvider,
		metricsOut:    cfg.MetricsOutput,
	}
	if s.readMetadata == nil {
		s.readMetadata = filehandler.ExtractImageMetadata
	}
	if s.captionLength <= 0 {
		s.captionLength = DefaultCaptionLength
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.metricsOut == nil {
		s.metricsOut = os.Stdout
	}
	return s, nil
}

// survivor is an analyzed photo on its way to persistence.
type survivor struct {
	OrderedPhoto
	Description string
}

// CreateAutoTrip turns a batch of photos into a persisted trip journal. It
// returns the fully populated tree, or a *PipelineError and no side effects.
func (s *Service) CreateAutoTrip(ctx context.Context, ownerID, title string, photos []RawPhoto) (*Trip, error) {
	start := s.clock()
	rec := metrics.NewWithWriter(metrics.Namespace, s.metricsOut).
		Dimension("Operation", "CreateAutoTrip").
		Metric("PhotosReceived", float64(len(photos)), metrics.UnitCount)

	created, err := s.createAutoTrip(ctx, ownerID, title, photos, rec)

	result := "Success"
	if kind, ok := KindOf(err); ok {
		result = kind.String()
	}
	rec.Dimension("Result", result).Duration("PipelineMs", s.clock().Sub(start))
	if created != nil {
		rec.Property("tripId", created.ID)
	}
	rec.Flush()

	return created, err
}

func (s *Service) createAutoTrip(ctx context.Context, ownerID, title string, photos []RawPhoto, rec *metrics.Recorder) (*Trip, error) {
	if len(photos) == 0 {
		return nil, newPipelineError(KindEmptyInput, "no photos supplied", nil)
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, newPipelineError(KindInvalidInput, "owner id is required", nil)
	}

	log.Info().
		Str("owner_id", ownerID).
		Int("photos", len(photos)).
		Msg("Starting auto trip creation")

	metas := make([]PhotoMetadata, len(photos))
	for i, p := range photos {
		metas[i] = ExtractPhotoMetadata(s.readMetadata, p)
		if metas[i].CapturedAt == nil {
			rec.Add("PhotosWithoutTime", 1, metrics.UnitCount)
		}
	}
	ordered := SortChronologically(photos, metas)

	requests := make([]chat.AnalysisRequest, len(ordered))
	for i, op := range ordered {
		requests[i] = chat.AnalysisRequest{Index: op.Index, Filename: op.Photo.Filename, Data: op.Photo.Data}
	}
	analyses := s.analyzer.Analyze(ctx, requests)
	rec.Metric("PhotosAnalyzed", float64(len(analyses)), metrics.UnitCount).
		Metric("PhotosDropped", float64(len(ordered)-len(analyses)), metrics.UnitCount)
	if len(analyses) == 0 {
		return nil, newPipelineError(KindAllAnalysesFailed,
			fmt.Sprintf("none of %d photos could be analyzed", len(ordered)), nil)
	}

	survivors := make([]survivor, 0, len(analyses))
	entries := make([]chat.NarrativeEntry, 0, len(analyses))
	for _, a := range analyses {
		op := ordered[a.Index]
		survivors = append(survivors, survivor{OrderedPhoto: op, Description: a.Description})
		entries = append(entries, chat.NarrativeEntry{
			Index:       a.Index,
			CapturedAt:  op.Metadata.CapturedAt,
			Description: a.Description,
		})
	}

	composeStart := s.clock()
	raw, err := s.composer.Compose(ctx, entries, StyleNames())
	rec.Duration("CompositionMs", s.clock().Sub(composeStart))
	if err != nil {
		return nil, newPipelineError(KindCompositionFailed, "narrative generation failed", err)
	}

	draft := chat.ParseDraft(raw)
	styles, dropped := ValidateStyles(draft.Hashtags)
	rec.Metric("TagsDropped", float64(len(dropped)), metrics.UnitCount).
		Property("degradedNarrative", draft.Degraded)

	return s.persist(ctx, ownerID, title, survivors, draft, styles)
}

// persist writes blobs sequentially in sequence order, resolves the
// narrative, and inserts the whole tree in one transaction. On failure every
// blob written here is removed again.
func (s *Service) persist(ctx context.Context, ownerID, title string, survivors []survivor, draft chat.Draft, styles []TravelStyle) (*Trip, error) {
	storageKey := s.newID()
	now := s.clock()

	var stored []string
	cleanup := func() {
		cleanupCtx := context.WithoutCancel(ctx)
		for _, ref := range stored {
			if err := s.blobs.Delete(cleanupCtx, ref); err != nil {
				log.Warn().Err(err).Str("ref", ref).Msg("Failed to remove blob after aborted trip creation")
			}
		}
	}

	media := make(map[int]MediaRef, len(survivors))
	photos := make([]TripPhoto, len(survivors))
	for i, sv := range survivors {
		contentType := filehandler.MIMETypeForFilename(sv.Photo.Filename)
		ref, err := s.blobs.Store(ctx, sv.Photo.Data, blobstore.Location{
			OwnerID:     ownerID,
			Category:    blobstore.CategoryTrip,
			TripKey:     storageKey,
			Filename:    sv.Photo.Filename,
			ContentType: contentType,
		})
		if err != nil {
			cleanup()
			return nil, newPipelineError(KindPersistenceFailed,
				fmt.Sprintf("storing photo %d", sv.Index), err)
		}
		stored = append(stored, ref)

		caption := TruncateCaption(sv.Description, s.captionLength)
		media[sv.Index] = MediaRef{Caption: caption, StorageRef: ref}
		photos[i] = TripPhoto{
			StorageRef:       ref,
			OriginalFilename: sv.Photo.Filename,
			ContentType:      contentType,
			Caption:          caption,
			Description:      sv.Description,
		}
	}

	narrative, unresolved := ResolvePlaceholders(draft.Content, media)
	if len(unresolved) > 0 {
		log.Warn().Strs("markers", unresolved).Msg("Narrative references photos that were not analyzed")
	}

	ordered := make([]OrderedPhoto, len(survivors))
	for i, sv := range survivors {
		ordered[i] = sv.OrderedPhoto
	}
	startDate, endDate := DateRange(ordered, now)

	if strings.TrimSpace(title) == "" {
		title = defaultTitle(startDate, endDate)
	}

	trip := &Trip{
		StorageKey:        storageKey,
		OwnerID:           ownerID,
		Title:             strings.TrimSpace(title),
		Narrative:         narrative,
		NarrativeDegraded: draft.Degraded,
		StartDate:         startDate,
		EndDate:           endDate,
		Visibility:        VisibilityPublic,
		CreatedAt:         now,
	}

	err := s.records.WithinTx(ctx, func(tx RecordStore) error {
		if err := tx.InsertTrip(ctx, trip); err != nil {
			return fmt.Errorf("insert trip: %w", err)
		}

		trip.Tags = make([]TripTag, 0, len(styles))
		for _, style := range styles {
			tag := TripTag{TripID: trip.ID, Style: style}
			if err := tx.InsertTripTag(ctx, &tag); err != nil {
				return fmt.Errorf("insert tag %s: %w", style, err)
			}
			trip.Tags = append(trip.Tags, tag)
		}

		trip.Records = make([]TripRecord, 0, len(survivors))
		for i, sv := range survivors {
			record := TripRecord{
				TripID:    trip.ID,
				Sequence:  sv.Index,
				Latitude:  sv.Metadata.Latitude,
				Longitude: sv.Metadata.Longitude,
				VisitedAt: sv.Metadata.CapturedAt,
			}
			if err := tx.InsertTripRecord(ctx, &record); err != nil {
				return fmt.Errorf("insert record %d: %w", sv.Index, err)
			}

			photo := photos[i]
			photo.RecordID = record.ID
			if err := tx.InsertTripPhoto(ctx, &photo); err != nil {
				return fmt.Errorf("insert photo %d: %w", sv.Index, err)
			}
			record.Photos = []TripPhoto{photo}
			trip.Records = append(trip.Records, record)
		}
		return nil
	})
	if err != nil {
		cleanup()
		return nil, newPipelineError(KindPersistenceFailed, "saving trip", err)
	}

	log.Info().
		Uint64("trip_id", trip.ID).
		Str("storage_key", trip.StorageKey).
		Int("records", len(trip.Records)).
		Int("tags", len(trip.Tags)).
		Bool("degraded", trip.NarrativeDegraded).
		Msg("Auto trip created")

	return trip, nil
}

func defaultTitle(start, end time.Time) string {
	const layout = "2006-01-02"
	if start.Equal(end) {
		return start.Format(layout) + " 여행"
	}
	return start.Format(layout) + " ~ " + end.Format(layout) + " 여행"
}

// PhotoSummary is the metadata-only view of one uploaded photo.
type PhotoSummary struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	PhotoMetadata
}

// ExtractMetadata reads and orders photo metadata without any AI calls or
// persistence, so clients can preview the reconstructed timeline.
func (s *Service) ExtractMetadata(photos []RawPhoto) ([]PhotoSummary, error) {
	if len(photos) == 0 {
		return nil, newPipelineError(KindEmptyInput, "no photos supplied", nil)
	}
	metas := make([]PhotoMetadata, len(photos))
	for i, p := range photos {
		metas[i] = ExtractPhotoMetadata(s.readMetadata, p)
	}
	ordered := SortChronologically(photos, metas)

	out := make([]PhotoSummary, len(ordered))
	for i, op := range ordered {
		out[i] = PhotoSummary{Index: op.Index, Filename: op.Photo.Filename, PhotoMetadata: op.Metadata}
	}
	return out, nil
}

// GetTripDetail reads back a trip with its records (by sequence), each
// record's photos, and its tags.
func (s *Service) GetTripDetail(ctx context.Context, tripID uint64) (*Trip, error) {
	trip, err := s.records.SelectTripByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("select trip %d: %w", tripID, err)
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}

	records, err := s.records.SelectRecordsByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("select records of trip %d: %w", tripID, err)
	}
	for i := range records {
		photos, err := s.records.SelectPhotosByRecordID(ctx, records[i].ID)
		if err != nil {
			return nil, fmt.Errorf("select photos of record %d: %w", records[i].ID, err)
		}
		records[i].Photos = photos
	}
	trip.Records = records

	tags, err := s.records.SelectTagsByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("select tags of trip %d: %w", tripID, err)
	}
	trip.Tags = tags

	return trip, nil
}

// ListTrips returns the owner's trips, newest first, without children.
func (s *Service) ListTrips(ctx context.Context, ownerID string) ([]Trip, error) {
	trips, err := s.records.SelectTripListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list trips of %s: %w", ownerID, err)
	}
	return trips, nil
}

// DeleteTrip removes a trip and everything it owns. Rows go in one
// transaction (photos, records, tags, trip); blobs are removed afterwards on
// a best-effort basis. Trips of other owners are reported as not found.
func (s *Service) DeleteTrip(ctx context.Context, ownerID string, tripID uint64) error {
	trip, err := s.GetTripDetail(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.OwnerID != ownerID {
		return ErrTripNotFound
	}

	var refs []string
	err = s.records.WithinTx(ctx, func(tx RecordStore) error {
		for _, record := range trip.Records {
			for _, p := range record.Photos {
				refs = append(refs, p.StorageRef)
			}
			if err := tx.DeletePhotosByRecordID(ctx, record.ID); err != nil {
				return fmt.Errorf("delete photos of record %d: %w", record.ID, err)
			}
		}
		if err := tx.DeleteRecordsByTripID(ctx, tripID); err != nil {
			return fmt.Errorf("delete records: %w", err)
		}
		if err := tx.DeleteTagsByTripID(ctx, tripID); err != nil {
			return fmt.Errorf("delete tags: %w", err)
		}
		if err := tx.DeleteTrip(ctx, tripID); err != nil {
			return fmt.Errorf("delete trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, ref := range refs {
		if err := s.blobs.Delete(ctx, ref); err != nil {
			log.Warn().Err(err).Str("ref", ref).Uint64("trip_id", tripID).Msg("Failed to delete trip blob")
		}
	}

	log.Info().Uint64("trip_id", tripID).Int("blobs", len(refs)).Msg("Trip deleted")
	return nil
}
