package trip

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fpang/trip-journal/internal/blobstore"
	"github.com/fpang/trip-journal/internal/filehandler"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("unexpected time error: %v", err)
	}
	return ts
}

func ptrTime(t time.Time) *time.Time { return &t }

// memState is the committed content of memStore.
type memState struct {
	nextID  uint64
	trips   map[uint64]Trip
	records map[uint64]TripRecord
	photos  map[uint64]TripPhoto
	tags    map[uint64]TripTag
}

func (s *memState) clone() *memState {
	c := &memState{
		nextID:  s.nextID,
		trips:   make(map[uint64]Trip, len(s.trips)),
		records: make(map[uint64]TripRecord, len(s.records)),
		photos:  make(map[uint64]TripPhoto, len(s.photos)),
		tags:    make(map[uint64]TripTag, len(s.tags)),
	}
	for k, v := range s.trips {
		c.trips[k] = v
	}
	for k, v := range s.records {
		c.records[k] = v
	}
	for k, v := range s.photos {
		c.photos[k] = v
	}
	for k, v := range s.tags {
		c.tags[k] = v
	}
	return c
}

// memStore is an in-memory RecordStore with copy-on-transaction semantics.
type memStore struct {
	mu     *sync.Mutex
	state  *memState
	failOn string
}

func newMemStore() *memStore {
	return &memStore{
		mu: &sync.Mutex{},
		state: &memState{
			trips:   map[uint64]Trip{},
			records: map[uint64]TripRecord{},
			photos:  map[uint64]TripPhoto{},
			tags:    map[uint64]TripTag{},
		},
	}
}

func (m *memStore) fail(op string) error {
	if m.failOn == op {
		return fmt.Errorf("%s: simulated database failure", op)
	}
	return nil
}

func (m *memStore) id() uint64 {
	m.state.nextID++
	return m.state.nextID
}

func (m *memStore) InsertTrip(ctx context.Context, t *Trip) error {
	if err := m.fail("InsertTrip"); err != nil {
		return err
	}
	t.ID = m.id()
	row := *t
	row.Records, row.Tags = nil, nil
	m.state.trips[t.ID] = row
	return nil
}

func (m *memStore) InsertTripRecord(ctx context.Context, r *TripRecord) error {
	if err := m.fail("InsertTripRecord"); err != nil {
		return err
	}
	r.ID = m.id()
	row := *r
	row.Photos = nil
	m.state.records[r.ID] = row
	return nil
}

func (m *memStore) InsertTripPhoto(ctx context.Context, p *TripPhoto) error {
	if err := m.fail("InsertTripPhoto"); err != nil {
		return err
	}
	p.ID = m.id()
	m.state.photos[p.ID] = *p
	return nil
}

func (m *memStore) InsertTripTag(ctx context.Context, tag *TripTag) error {
	if err := m.fail("InsertTripTag"); err != nil {
		return err
	}
	tag.ID = m.id()
	m.state.tags[tag.ID] = *tag
	return nil
}

func (m *memStore) SelectTripByID(ctx context.Context, tripID uint64) (*Trip, error) {
	t, ok := m.state.trips[tripID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memStore) SelectRecordsByTripID(ctx context.Context, tripID uint64) ([]TripRecord, error) {
	var out []TripRecord
	for _, r := range m.state.records {
		if r.TripID == tripID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (m *memStore) SelectPhotosByRecordID(ctx context.Context, recordID uint64) ([]TripPhoto, error) {
	var out []TripPhoto
	for _, p := range m.state.photos {
		if p.RecordID == recordID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SelectTagsByTripID(ctx context.Context, tripID uint64) ([]TripTag, error) {
	var out []TripTag
	for _, t := range m.state.tags {
		if t.TripID == tripID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SelectTripListByOwner(ctx context.Context, ownerID string) ([]Trip, error) {
	var out []Trip
	for _, t := range m.state.trips {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) DeleteTrip(ctx context.Context, tripID uint64) error {
	if err := m.fail("DeleteTrip"); err != nil {
		return err
	}
	delete(m.state.trips, tripID)
	return nil
}

func (m *memStore) DeleteRecordsByTripID(ctx context.Context, tripID uint64) error {
	for id, r := range m.state.records {
		if r.TripID == tripID {
			delete(m.state.records, id)
		}
	}
	return nil
}

func (m *memStore) DeletePhotosByRecordID(ctx context.Context, recordID uint64) error {
	for id, p := range m.state.photos {
		if p.RecordID == recordID {
			delete(m.state.photos, id)
		}
	}
	return nil
}

func (m *memStore) DeleteTagsByTripID(ctx context.Context, tripID uint64) error {
	for id, t := range m.state.tags {
		if t.TripID == tripID {
			delete(m.state.tags, id)
		}
	}
	return nil
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx RecordStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memStore{mu: &sync.Mutex{}, state: m.state.clone(), failOn: m.failOn}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memStore) rowCount() int {
	return len(m.state.trips) + len(m.state.records) + len(m.state.photos) + len(m.state.tags)
}

// memBlobs is an in-memory BlobStore.
type memBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	order     []string
	failAfter int
	deleted   []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, failAfter: -1}
}

func (b *memBlobs) Store(ctx context.Context, data []byte, loc blobstore.Location) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAfter >= 0 && len(b.order) >= b.failAfter {
		return "", errors.New("disk full")
	}
	key, err := blobstore.ObjectKey(loc, fmt.Sprintf("b%d", len(b.order)))
	if err != nil {
		return "", err
	}
	ref := "mem://" + key
	b.objects[ref] = data
	b.order = append(b.order, ref)
	return ref, nil
}

func (b *memBlobs) Delete(ctx context.Context, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, ref)
	b.deleted = append(b.deleted, ref)
	return nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// testPhoto describes a synthetic upload: its bytes double as its identity.
type testPhoto struct {
	name     string
	captured string // RFC3339 or empty
	lat, lon float64
	hasGPS   bool
}

func buildPhotos(t *testing.T, specs []testPhoto) ([]RawPhoto, MetadataReader) {
	t.Helper()
	photos := make([]RawPhoto, len(specs))
	metas := make(map[string]*filehandler.ImageMetadata, len(specs))
	for i, s := range specs {
		data := "img:" + s.name
		photos[i] = RawPhoto{Filename: s.name + ".jpg", Data: []byte(data)}
		m := &filehandler.ImageMetadata{}
		if s.captured != "" {
			m.DateTaken = mustTime(t, s.captured)
			m.HasDate = true
		}
		if s.hasGPS {
			m.Latitude, m.Longitude, m.HasGPS = s.lat, s.lon, true
		}
		metas[data] = m
	}
	reader := func(data []byte) (*filehandler.ImageMetadata, error) {
		m, ok := metas[string(data)]
		if !ok {
			return nil, errors.New("no exif")
		}
		return m, nil
	}
	return photos, reader
}

func passthroughEncode(data []byte, _, _ int) ([]byte, error) {
	return data, nil
}

// photoName recovers the synthetic photo name from analysis image bytes.
func photoName(data []byte) string {
	return strings.TrimPrefix(string(data), "img:")
}
