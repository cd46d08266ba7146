package trip

import (
	"context"

	"github.com/fpang/trip-journal/internal/blobstore"
)

// RecordStore is the relational persistence boundary for the trip tree.
//
// Insert methods populate the generated ID on the passed entity. Select
// methods return (nil, nil) when a single row does not exist. Deletes are
// plain row deletes; cascading is the Service's job.
type RecordStore interface {
	InsertTrip(ctx context.Context, t *Trip) error
	InsertTripRecord(ctx context.Context, r *TripRecord) error
	InsertTripPhoto(ctx context.Context, p *TripPhoto) error
	InsertTripTag(ctx context.Context, tag *TripTag) error

	SelectTripByID(ctx context.Context, tripID uint64) (*Trip, error)
	// SelectRecordsByTripID returns records ordered by Sequence.
	SelectRecordsByTripID(ctx context.Context, tripID uint64) ([]TripRecord, error)
	SelectPhotosByRecordID(ctx context.Context, recordID uint64) ([]TripPhoto, error)
	SelectTagsByTripID(ctx context.Context, tripID uint64) ([]TripTag, error)
	// SelectTripListByOwner returns the owner's trips, newest first, without children.
	SelectTripListByOwner(ctx context.Context, ownerID string) ([]Trip, error)

	DeleteTrip(ctx context.Context, tripID uint64) error
	DeleteRecordsByTripID(ctx context.Context, tripID uint64) error
	DeletePhotosByRecordID(ctx context.Context, recordID uint64) error
	DeleteTagsByTripID(ctx context.Context, tripID uint64) error

	// WithinTx runs fn against a transactional view of the store. Any error
	// returned by fn rolls back every write made through tx.
	WithinTx(ctx context.Context, fn func(tx RecordStore) error) error
}

// BlobStore persists photo files and resolves nothing itself; references are
// opaque strings the HTTP layer knows how to serve.
type BlobStore interface {
	Store(ctx context.Context, data []byte, loc blobstore.Location) (string, error)
	Delete(ctx context.Context, ref string) error
}
