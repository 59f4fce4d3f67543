package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

// fakeTrack is a minimal in-memory track for device tests.
type fakeTrack struct {
	mu      sync.Mutex
	kind    ports.TrackKind
	enabled bool
	closed  bool
}

func newFakeTrack(kind ports.TrackKind) *fakeTrack {
	return &fakeTrack{kind: kind, enabled: true}
}

func (t *fakeTrack) Kind() ports.TrackKind {
	return t.kind
}

func (t *fakeTrack) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

func (t *fakeTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *fakeTrack) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

type MockMediaDevices struct {
	mock.Mock
}

func (m *MockMediaDevices) AcquireUserMedia(ctx context.Context, video, audio bool) (*ports.CaptureStream, error) {
	args := m.Called(ctx, video, audio)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.CaptureStream), args.Error(1)
}

func (m *MockMediaDevices) AcquireDisplayMedia(ctx context.Context) (ports.Track, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Track), args.Error(1)
}

// fakeRecorder feeds chunks through a channel the test controls.
type fakeRecorder struct {
	mu       sync.Mutex
	chunks   chan []byte
	started  bool
	startErr error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{chunks: make(chan []byte, 16)}
}

func (r *fakeRecorder) Start(ctx context.Context, stream *ports.CaptureStream, flushInterval time.Duration) (<-chan []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return nil, r.startErr
	}
	r.started = true
	return r.chunks, nil
}

func (r *fakeRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		close(r.chunks)
		r.started = false
	}
	return nil
}

func (r *fakeRecorder) emit(chunk []byte) {
	r.chunks <- chunk
}

type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) Create(ctx context.Context, asset *domain.MediaAsset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *MockAssetRepository) GetByID(ctx context.Context, id domain.AssetID) (*domain.MediaAsset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MediaAsset), args.Error(1)
}

func (m *MockAssetRepository) GetByURL(ctx context.Context, url string) (*domain.MediaAsset, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MediaAsset), args.Error(1)
}

func (m *MockAssetRepository) ListByOwner(ctx context.Context, owner domain.UserID) ([]*domain.MediaAsset, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MediaAsset), args.Error(1)
}

func (m *MockAssetRepository) ListAll(ctx context.Context) ([]*domain.MediaAsset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MediaAsset), args.Error(1)
}

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Create(ctx context.Context, template *domain.Template) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) GetByID(ctx context.Context, id domain.TemplateID) (*domain.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) ListByOwner(ctx context.Context, owner domain.UserID) ([]*domain.Template, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) ListAll(ctx context.Context) ([]*domain.Template, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Template), args.Error(1)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetLiveState(ctx context.Context, userID domain.UserID) (*domain.LiveProfileState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LiveProfileState), args.Error(1)
}

func (m *MockProfileRepository) SetLiveState(ctx context.Context, state *domain.LiveProfileState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) AddUsage(ctx context.Context, record *domain.UsageRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockUsageRepository) TotalMegabytes(ctx context.Context, userID domain.UserID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type MockPresenceRepository struct {
	mock.Mock
}

func (m *MockPresenceRepository) Touch(ctx context.Context, row *domain.PresenceRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func (m *MockPresenceRepository) CountActiveSince(ctx context.Context, userID domain.UserID, window time.Duration) (int, error) {
	args := m.Called(ctx, userID, window)
	return args.Int(0), args.Error(1)
}

type MockPreferencesRepository struct {
	mock.Mock
}

func (m *MockPreferencesRepository) Get(ctx context.Context, userID domain.UserID) (*domain.Preferences, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preferences), args.Error(1)
}

func (m *MockPreferencesRepository) Set(ctx context.Context, prefs *domain.Preferences) error {
	args := m.Called(ctx, prefs)
	return args.Error(0)
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, path string, data []byte) (string, error) {
	args := m.Called(ctx, path, data)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStorage) PublicURL(path string) string {
	args := m.Called(path)
	return args.String(0)
}

type MockJobTrigger struct {
	mock.Mock
}

func (m *MockJobTrigger) Invoke(ctx context.Context, job string, payload interface{}) error {
	args := m.Called(ctx, job, payload)
	return args.Error(0)
}

// fakeFeed lets tests push presence events by hand.
type fakeFeed struct {
	mu       sync.Mutex
	handlers []func()
}

func (f *fakeFeed) Subscribe(ctx context.Context, userID string, handler func()) error {
	f.mu.Lock()
	f.handlers = append(f.handlers, handler)
	f.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeFeed) fire() {
	f.mu.Lock()
	handlers := make([]func(), len(f.handlers))
	copy(handlers, f.handlers)
	f.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}

type MockRecordingService struct {
	mock.Mock
}

func (m *MockRecordingService) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRecordingService) Stop(ctx context.Context) (*domain.RecordingBlob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecordingBlob), args.Error(1)
}

func (m *MockRecordingService) AddMarker(markerType domain.MarkerType, label string) (*ports.MarkerResult, error) {
	args := m.Called(markerType, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.MarkerResult), args.Error(1)
}

func (m *MockRecordingService) Markers() []*domain.Marker {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*domain.Marker)
}

func (m *MockRecordingService) SetSelectedAd(ad *domain.AdCreative) {
	m.Called(ad)
}

func (m *MockRecordingService) SelectedAd() *domain.AdCreative {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.AdCreative)
}

func (m *MockRecordingService) Status() domain.RecordingStatus {
	args := m.Called()
	return args.Get(0).(domain.RecordingStatus)
}

func (m *MockRecordingService) Elapsed() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockRecordingService) PendingBlob() *domain.RecordingBlob {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.RecordingBlob)
}

func (m *MockRecordingService) Discard() {
	m.Called()
}

type MockPersistenceService struct {
	mock.Mock
}

func (m *MockPersistenceService) RequestSave(ctx context.Context, blob *domain.RecordingBlob, opts domain.SaveOptions, podcast *domain.PodcastContext) (*domain.SaveResult, error) {
	args := m.Called(ctx, blob, opts, podcast)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SaveResult), args.Error(1)
}

// testContext returns a context carrying the authenticated user.
func testContext(userID domain.UserID) context.Context {
	return context.WithValue(context.Background(), "user_id", userID) //nolint:staticcheck
}
