package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/monitoring"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/realtime"
)

// Prometheus collectors register globally, so tests share one instance.
var testMetrics = monitoring.NewPrometheusCollector()

type MockDeviceService struct{ mock.Mock }

func (m *MockDeviceService) SetCameraEnabled(ctx context.Context, want bool) (ports.DeviceState, error) {
	args := m.Called(ctx, want)
	return args.Get(0).(ports.DeviceState), args.Error(1)
}

func (m *MockDeviceService) SetMicEnabled(ctx context.Context, want bool) (ports.DeviceState, error) {
	args := m.Called(ctx, want)
	return args.Get(0).(ports.DeviceState), args.Error(1)
}

func (m *MockDeviceService) ShareScreen(ctx context.Context) ports.DeviceState {
	args := m.Called(ctx)
	return args.Get(0).(ports.DeviceState)
}

func (m *MockDeviceService) EnsureStream(ctx context.Context) (*ports.CaptureStream, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*ports.CaptureStream), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDeviceService) Stream() *ports.CaptureStream {
	args := m.Called()
	if s := args.Get(0); s != nil {
		return s.(*ports.CaptureStream)
	}
	return nil
}

func (m *MockDeviceService) State() ports.DeviceState {
	args := m.Called()
	return args.Get(0).(ports.DeviceState)
}

func (m *MockDeviceService) Stop() { m.Called() }

type MockRecordingService struct{ mock.Mock }

func (m *MockRecordingService) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRecordingService) Stop(ctx context.Context) (*domain.RecordingBlob, error) {
	args := m.Called(ctx)
	if b := args.Get(0); b != nil {
		return b.(*domain.RecordingBlob), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecordingService) AddMarker(markerType domain.MarkerType, label string) (*ports.MarkerResult, error) {
	args := m.Called(markerType, label)
	if r := args.Get(0); r != nil {
		return r.(*ports.MarkerResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRecordingService) Markers() []*domain.Marker {
	args := m.Called()
	if r := args.Get(0); r != nil {
		return r.([]*domain.Marker)
	}
	return nil
}

func (m *MockRecordingService) SetSelectedAd(ad *domain.AdCreative) { m.Called(ad) }

func (m *MockRecordingService) SelectedAd() *domain.AdCreative {
	args := m.Called()
	if a := args.Get(0); a != nil {
		return a.(*domain.AdCreative)
	}
	return nil
}

func (m *MockRecordingService) Status() domain.RecordingStatus {
	return m.Called().Get(0).(domain.RecordingStatus)
}

func (m *MockRecordingService) Elapsed() int {
	return m.Called().Int(0)
}

func (m *MockRecordingService) PendingBlob() *domain.RecordingBlob {
	args := m.Called()
	if b := args.Get(0); b != nil {
		return b.(*domain.RecordingBlob)
	}
	return nil
}

func (m *MockRecordingService) Discard() { m.Called() }

type MockSceneService struct{ mock.Mock }

func (m *MockSceneService) Upsert(scene *domain.Scene) { m.Called(scene) }

func (m *MockSceneService) List() []*domain.Scene {
	args := m.Called()
	if s := args.Get(0); s != nil {
		return s.([]*domain.Scene)
	}
	return nil
}

func (m *MockSceneService) Active() *domain.Scene {
	args := m.Called()
	if s := args.Get(0); s != nil {
		return s.(*domain.Scene)
	}
	return nil
}

func (m *MockSceneService) Activate(ctx context.Context, id domain.SceneID) (*ports.SceneActivation, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*ports.SceneActivation), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockLiveService struct{ mock.Mock }

func (m *MockLiveService) GoLive(ctx context.Context, input domain.GoLiveInput) (*domain.GoLiveResult, error) {
	args := m.Called(ctx, input)
	if r := args.Get(0); r != nil {
		return r.(*domain.GoLiveResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLiveService) StopLive(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockLiveService) State(ctx context.Context) (*domain.LiveProfileState, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*domain.LiveProfileState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLiveService) IsLive() bool {
	return m.Called().Bool(0)
}

type MockPersistenceService struct{ mock.Mock }

func (m *MockPersistenceService) RequestSave(ctx context.Context, blob *domain.RecordingBlob, opts domain.SaveOptions, podcast *domain.PodcastContext) (*domain.SaveResult, error) {
	args := m.Called(ctx, blob, opts, podcast)
	if r := args.Get(0); r != nil {
		return r.(*domain.SaveResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPresenceMonitor struct{ mock.Mock }

func (m *MockPresenceMonitor) Start(ctx context.Context, userID domain.UserID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockPresenceMonitor) Viewers() int {
	return m.Called().Int(0)
}

func (m *MockPresenceMonitor) Stop() { m.Called() }

type MockPresenceRepository struct{ mock.Mock }

func (m *MockPresenceRepository) Touch(ctx context.Context, row *domain.PresenceRow) error {
	return m.Called(ctx, row).Error(0)
}

func (m *MockPresenceRepository) CountActiveSince(ctx context.Context, userID domain.UserID, window time.Duration) (int, error) {
	args := m.Called(ctx, userID, window)
	return args.Int(0), args.Error(1)
}

type MockProfileRepository struct{ mock.Mock }

func (m *MockProfileRepository) GetLiveState(ctx context.Context, userID domain.UserID) (*domain.LiveProfileState, error) {
	args := m.Called(ctx, userID)
	if s := args.Get(0); s != nil {
		return s.(*domain.LiveProfileState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileRepository) SetLiveState(ctx context.Context, state *domain.LiveProfileState) error {
	return m.Called(ctx, state).Error(0)
}

type handlerFixture struct {
	devices     *MockDeviceService
	recording   *MockRecordingService
	scenes      *MockSceneService
	live        *MockLiveService
	persistence *MockPersistenceService
	monitor     *MockPresenceMonitor
	presence    *MockPresenceRepository
	profiles    *MockProfileRepository
	router      *gin.Engine
}

func newHandlerFixture() *handlerFixture {
	gin.SetMode(gin.TestMode)

	f := &handlerFixture{
		devices:     new(MockDeviceService),
		recording:   new(MockRecordingService),
		scenes:      new(MockSceneService),
		live:        new(MockLiveService),
		persistence: new(MockPersistenceService),
		monitor:     new(MockPresenceMonitor),
		presence:    new(MockPresenceRepository),
		profiles:    new(MockProfileRepository),
	}

	handler := NewSessionHandler(SessionHandlerDeps{
		Devices:     f.devices,
		Recording:   f.recording,
		Scenes:      f.scenes,
		Live:        f.live,
		Persistence: f.persistence,
		Monitor:     f.monitor,
		Presence:    f.presence,
		Profiles:    f.profiles,
		Feed:        realtime.NewMemoryPresenceFeed(),
		Metrics:     testMetrics,
		Logger:      zap.NewNop().Sugar(),
	})

	// Stub auth attaches a fixed identity
	fakeAuth := func(c *gin.Context) {
		c.Set("user_id", domain.UserID("u1"))
		c.Next()
	}

	f.router = gin.New()
	handler.SetupRoutes(f.router, fakeAuth, func(c *gin.Context) { c.Next() })
	return f
}

func (f *handlerFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestSetCameraEndpoint(t *testing.T) {
	f := newHandlerFixture()
	f.devices.On("SetCameraEnabled", mock.Anything, true).
		Return(ports.DeviceState{CameraEnabled: true, MicEnabled: true}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/studio/devices/camera", gin.H{"enabled": true})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"camera_enabled":true`)
	f.devices.AssertExpectations(t)
}

func TestSetCameraRequiresEnabledField(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(http.MethodPost, "/api/v1/studio/devices/camera", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.devices.AssertNotCalled(t, "SetCameraEnabled", mock.Anything, mock.Anything)
}

func TestStartRecordingEndpoint(t *testing.T) {
	f := newHandlerFixture()
	f.recording.On("Start", mock.Anything).Return(nil).Once()
	f.recording.On("Status").Return(domain.StatusRecording)

	w := f.do(http.MethodPost, "/api/v1/studio/recording/start", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recording")
}

func TestStartRecordingConflict(t *testing.T) {
	f := newHandlerFixture()
	f.recording.On("Start", mock.Anything).Return(domain.ErrAlreadyRecording).Once()

	w := f.do(http.MethodPost, "/api/v1/studio/recording/start", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStopRecordingEndpoint(t *testing.T) {
	f := newHandlerFixture()
	blob := &domain.RecordingBlob{Data: []byte("chunks"), DurationSeconds: 42}
	f.recording.On("Stop", mock.Anything).Return(blob, nil).Once()
	f.recording.On("Status").Return(domain.StatusStopped)

	w := f.do(http.MethodPost, "/api/v1/studio/recording/stop", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"duration_seconds":42`)
}

func TestAddMarkerEndpoint(t *testing.T) {
	f := newHandlerFixture()
	result := &ports.MarkerResult{
		Marker: &domain.Marker{ID: "m1", Type: domain.MarkerAd, Seconds: 10},
	}
	f.recording.On("AddMarker", domain.MarkerAd, "intro ad").Return(result, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/studio/markers", gin.H{"type": "ad", "label": "intro ad"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"seconds":10`)
}

func TestActivateSceneNotFound(t *testing.T) {
	f := newHandlerFixture()
	f.scenes.On("Activate", mock.Anything, domain.SceneID("missing")).
		Return(nil, domain.ErrSceneNotFound).Once()

	w := f.do(http.MethodPost, "/api/v1/studio/scenes/missing/activate", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGoLiveEndpointStartsMonitor(t *testing.T) {
	f := newHandlerFixture()
	f.live.On("GoLive", mock.Anything, mock.MatchedBy(func(in domain.GoLiveInput) bool {
		return in.Kind == domain.GoLiveCamera
	})).Return(&domain.GoLiveResult{
		State:                &domain.LiveProfileState{IsLive: true},
		AutoRecordingStarted: true,
	}, nil).Once()
	f.monitor.On("Start", mock.Anything, domain.UserID("u1")).Return(nil).Once()

	w := f.do(http.MethodPost, "/api/v1/studio/live", gin.H{"kind": "camera"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"auto_recording_started":true`)
	f.monitor.AssertExpectations(t)
}

func TestStopLiveEndpointStopsMonitor(t *testing.T) {
	f := newHandlerFixture()
	f.live.On("StopLive", mock.Anything).Return(nil).Once()
	f.live.On("IsLive").Return(false)
	f.monitor.On("Stop").Return().Once()

	w := f.do(http.MethodPost, "/api/v1/studio/live/stop", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	f.monitor.AssertExpectations(t)
}

func TestSaveEndpointDiscardsAfterDurableSave(t *testing.T) {
	f := newHandlerFixture()
	blob := &domain.RecordingBlob{Data: []byte("rec")}
	f.recording.On("PendingBlob").Return(blob)
	f.recording.On("Discard").Return().Once()
	f.persistence.On("RequestSave", mock.Anything, blob, mock.MatchedBy(func(opts domain.SaveOptions) bool {
		return opts.SaveAsRecording && opts.Name == "My session"
	}), (*domain.PodcastContext)(nil)).Return(&domain.SaveResult{
		Asset: &domain.MediaAsset{ID: "a1", SizeBytes: 3},
	}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/studio/save", gin.H{
		"name":              "My session",
		"save_as_recording": true,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	f.recording.AssertExpectations(t)
}

func TestSaveTemplateOnlyKeepsBlob(t *testing.T) {
	f := newHandlerFixture()
	f.recording.On("PendingBlob").Return(nil)
	f.persistence.On("RequestSave", mock.Anything, (*domain.RecordingBlob)(nil), mock.Anything, mock.Anything).
		Return(&domain.SaveResult{Template: &domain.Template{ID: "t1"}}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/studio/save", gin.H{
		"name":             "Layout",
		"save_as_template": true,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	f.recording.AssertNotCalled(t, "Discard")
}

func TestPublicLiveUnknownProfileReadsOffline(t *testing.T) {
	f := newHandlerFixture()
	f.profiles.On("GetLiveState", mock.Anything, domain.UserID("stranger")).
		Return(nil, domain.ErrProfileNotFound).Once()

	w := f.do(http.MethodGet, "/api/v1/profiles/stranger/live", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_live":false`)
}

func TestHeartbeatEndpoint(t *testing.T) {
	f := newHandlerFixture()
	f.presence.On("Touch", mock.Anything, mock.MatchedBy(func(row *domain.PresenceRow) bool {
		return row.ViewerID == "v1" && row.UserID == "u1"
	})).Return(nil).Once()

	w := f.do(http.MethodPost, "/api/v1/profiles/u1/presence", gin.H{"viewer_id": "v1"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	f.presence.AssertExpectations(t)
}

func TestHeartbeatRequiresViewerID(t *testing.T) {
	f := newHandlerFixture()

	w := f.do(http.MethodPost, "/api/v1/profiles/u1/presence", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.presence.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything)
}
