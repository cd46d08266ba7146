package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/fpang/trip-journal/internal/blobstore"
	"github.com/fpang/trip-journal/internal/trip"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	createErr   error
	gotOwner    string
	gotTitle    string
	gotPhotos   []trip.RawPhoto
	trips       map[uint64]*trip.Trip
	deletedID   uint64
	deleteOwner string
}

func (f *fakeService) CreateAutoTrip(ctx context.Context, ownerID, title string, photos []trip.RawPhoto) (*trip.Trip, error) {
	f.gotOwner, f.gotTitle, f.gotPhotos = ownerID, title, photos
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &trip.Trip{ID: 7, OwnerID: ownerID, Title: title, Visibility: trip.VisibilityPublic}, nil
}

func (f *fakeService) ExtractMetadata(photos []trip.RawPhoto) ([]trip.PhotoSummary, error) {
	if len(photos) == 0 {
		return nil, trip.ErrEmptyInput
	}
	out := make([]trip.PhotoSummary, len(photos))
	for i, p := range photos {
		out[i] = trip.PhotoSummary{Index: i, Filename: p.Filename}
	}
	return out, nil
}

func (f *fakeService) GetTripDetail(ctx context.Context, tripID uint64) (*trip.Trip, error) {
	t, ok := f.trips[tripID]
	if !ok {
		return nil, trip.ErrTripNotFound
	}
	return t, nil
}

func (f *fakeService) ListTrips(ctx context.Context, ownerID string) ([]trip.Trip, error) {
	var out []trip.Trip
	for _, t := range f.trips {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeService) DeleteTrip(ctx context.Context, ownerID string, tripID uint64) error {
	t, ok := f.trips[tripID]
	if !ok || t.OwnerID != ownerID {
		return trip.ErrTripNotFound
	}
	f.deletedID, f.deleteOwner = tripID, ownerID
	delete(f.trips, tripID)
	return nil
}

type fakeMedia map[string][]byte

func (m fakeMedia) Open(ctx context.Context, ref string) ([]byte, error) {
	data, ok := m[ref]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return data, nil
}

func newTestHandler(t *testing.T, svc *fakeService, configure func(*Dependencies)) http.Handler {
	t.Helper()
	deps := Dependencies{Service: svc, Media: fakeMedia{"/media/owner-1/trip/k/a_photo.jpg": []byte("jpeg-bytes")}}
	if configure != nil {
		configure(&deps)
	}
	handler, err := NewHTTPHandler(deps)
	if err != nil {
		t.Fatalf("NewHTTPHandler: %v", err)
	}
	return handler
}

type upload struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files []upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(photosField, f.name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(f.data)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var p errorPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("error body is not JSON: %v: %s", err, rec.Body.String())
	}
	return p
}

func TestNewHTTPHandler_RequiresService(t *testing.T) {
	if _, err := NewHTTPHandler(Dependencies{}); !errors.Is(err, errMissingTripService) {
		t.Errorf("err = %v, want errMissingTripService", err)
	}
}

func TestCreateTrip(t *testing.T) {
	svc := &fakeService{}
	handler := newTestHandler(t, svc, nil)

	req := multipartRequest(t, "/api/trips",
		map[string]string{"ownerId": "owner-1", "title": "제주"},
		[]upload{{"b.jpg", []byte("bbb")}, {"a.png", []byte("aa")}})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotOwner != "owner-1" || svc.gotTitle != "제주" {
		t.Errorf("owner/title = %q/%q", svc.gotOwner, svc.gotTitle)
	}
	if len(svc.gotPhotos) != 2 || svc.gotPhotos[0].Filename != "b.jpg" || string(svc.gotPhotos[1].Data) != "aa" {
		t.Errorf("photos = %+v", svc.gotPhotos)
	}
	var created trip.Trip
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.ID != 7 {
		t.Errorf("body = %s (%v)", rec.Body.String(), err)
	}
}

func TestCreateTrip_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"empty", trip.ErrEmptyInput, http.StatusBadRequest, "empty_input"},
		{"invalid", &trip.PipelineError{Kind: trip.KindInvalidInput, Message: "owner id is required"}, http.StatusBadRequest, "invalid_input"},
		{"all failed", fmt.Errorf("wrapped: %w", trip.ErrAllAnalysesFailed), http.StatusUnprocessableEntity, "all_analyses_failed"},
		{"composition", trip.ErrCompositionFailed, http.StatusBadGateway, "composition_failed"},
		{"persistence", trip.ErrPersistenceFailed, http.StatusInternalServerError, "persistence_failed"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(t, &fakeService{createErr: tt.err}, nil)
			req := multipartRequest(t, "/api/trips", map[string]string{"ownerId": "o"}, []upload{{"a.jpg", []byte("a")}})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if got := decodeError(t, rec).Error; got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestCreateTrip_UploadLimits(t *testing.T) {
	svc := &fakeService{}
	handler := newTestHandler(t, svc, func(d *Dependencies) {
		d.MaxPhotos = 2
		d.MaxUploadBytes = 2048
	})

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
		wantErr  string
	}{
		{
			"too many photos",
			multipartRequest(t, "/api/trips", nil, []upload{{"a.jpg", nil}, {"b.jpg", nil}, {"c.jpg", nil}}),
			http.StatusBadRequest, "too_many_photos",
		},
		{
			"too large",
			multipartRequest(t, "/api/trips", nil, []upload{{"a.jpg", bytes.Repeat([]byte("x"), 8192)}}),
			http.StatusRequestEntityTooLarge, "upload_too_large",
		},
		{
			"unsupported type",
			multipartRequest(t, "/api/trips", nil, []upload{{"notes.txt", []byte("hi")}}),
			http.StatusBadRequest, "unsupported_file",
		},
		{
			"not multipart",
			httptest.NewRequest(http.MethodPost, "/api/trips", strings.NewReader(`{"ownerId":"o"}`)),
			http.StatusBadRequest, "invalid_multipart",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, tt.req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if got := decodeError(t, rec).Error; got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
	if svc.gotPhotos != nil {
		t.Error("rejected uploads must not reach the service")
	}
}

func TestAnalyzePhotos(t *testing.T) {
	handler := newTestHandler(t, &fakeService{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartRequest(t, "/api/trips/analyze", nil, []upload{{"a.jpg", []byte("a")}}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Photos []trip.PhotoSummary `json:"photos"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || len(body.Photos) != 1 || body.Photos[0].Filename != "a.jpg" {
		t.Errorf("body = %s (%v)", rec.Body.String(), err)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, multipartRequest(t, "/api/trips/analyze", nil, nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty upload status = %d, want 400", rec.Code)
	}
}

func TestGetListDeleteTrip(t *testing.T) {
	svc := &fakeService{trips: map[uint64]*trip.Trip{
		3: {ID: 3, OwnerID: "owner-1", Title: "부산"},
	}}
	handler := newTestHandler(t, svc, nil)

	do := func(method, target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
		return rec
	}

	if rec := do(http.MethodGet, "/api/trips/3"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "부산") {
		t.Errorf("get = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodGet, "/api/trips/99"); rec.Code != http.StatusNotFound {
		t.Errorf("get missing = %d, want 404", rec.Code)
	}
	if rec := do(http.MethodGet, "/api/trips/abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("get invalid id = %d, want 400", rec.Code)
	}

	rec := do(http.MethodGet, "/api/members/owner-1/trips")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":3`) {
		t.Errorf("list = %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(http.MethodGet, "/api/members/nobody/trips"); !strings.Contains(rec.Body.String(), `"trips":[]`) {
		t.Errorf("empty list = %s", rec.Body.String())
	}

	if rec := do(http.MethodDelete, "/api/trips/3"); rec.Code != http.StatusBadRequest {
		t.Errorf("delete without owner = %d, want 400", rec.Code)
	}
	if rec := do(http.MethodDelete, "/api/trips/3?ownerId=owner-2"); rec.Code != http.StatusNotFound {
		t.Errorf("delete foreign = %d, want 404", rec.Code)
	}
	if rec := do(http.MethodDelete, "/api/trips/3?ownerId=owner-1"); rec.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", rec.Code)
	}
	if svc.deletedID != 3 || svc.deleteOwner != "owner-1" {
		t.Errorf("deleted %d by %s", svc.deletedID, svc.deleteOwner)
	}
}

func TestMediaAndHealth(t *testing.T) {
	handler := newTestHandler(t, &fakeService{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/owner-1/trip/k/a_photo.jpg", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "jpeg-bytes" {
		t.Errorf("media = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/owner-1/trip/k/missing.jpg", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing media = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler(t, &fakeService{}, func(d *Dependencies) {
		d.CORSOrigins = []string{"https://trips.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/trips/3", nil)
	req.Header.Set("Origin", "https://trips.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://trips.example.com" {
		t.Errorf("allow origin = %q", got)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete) {
		t.Errorf("allow methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}
