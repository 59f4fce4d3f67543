package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/pkg/retry"
)

// Exercises the full host session in one pass: camera, mic, recording
// with a mid-session marker, stop, save to the library. The device,
// recording and persistence services are the real implementations;
// only the platform and storage boundaries are mocked.
func TestCameraToLibrarySessionFlow(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	devices := new(MockMediaDevices)
	devices.On("AcquireUserMedia", mock.Anything, true, true).
		Return(newTestStream(), nil).Once()

	deviceSvc := NewDeviceService(devices, logger)
	recorder := newFakeRecorder()
	recSvc := NewRecordingService(deviceSvc, recorder, NewMarkerTrack(), testRecordingConfig(), logger).(*recordingService)
	recSvc.clockInterval = time.Millisecond

	templates := new(MockTemplateRepository)
	assets := new(MockAssetRepository)
	usage := new(MockUsageRepository)
	prefs := new(MockPreferencesRepository)
	storage := new(MockObjectStorage)
	jobs := new(MockJobTrigger)
	saveSvc := NewPersistenceService(templates, assets, usage, prefs, storage, jobs, logger).(*persistenceService)
	saveSvc.retryCfg = retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	// Camera then mic: one combined acquisition serves both toggles
	state, err := deviceSvc.SetCameraEnabled(ctx, true)
	require.NoError(t, err)
	assert.True(t, state.CameraEnabled)

	state, err = deviceSvc.SetMicEnabled(ctx, true)
	require.NoError(t, err)
	assert.True(t, state.MicEnabled)
	devices.AssertExpectations(t)

	// Record past the 12-second mark and drop a marker there
	require.NoError(t, recSvc.Start(ctx))
	recorder.emit([]byte("session media bytes"))

	require.Eventually(t, func() bool {
		return recSvc.Elapsed() >= 12
	}, time.Second, time.Millisecond)

	markerResult, err := recSvc.AddMarker(domain.MarkerClip, "key moment")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, markerResult.Marker.Seconds, 12)

	// Keep rolling to 40 seconds, then stop
	require.Eventually(t, func() bool {
		return recSvc.Elapsed() >= 40
	}, time.Second, time.Millisecond)

	blob, err := recSvc.Stop(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, blob.DurationSeconds, 40)
	assert.Equal(t, []byte("session media bytes"), blob.Data)
	assert.LessOrEqual(t, markerResult.Marker.Seconds, blob.DurationSeconds)

	// Save "Ep1" and land in the media library
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(path string) bool {
		return strings.HasPrefix(path, "users/u1/recordings/")
	}), blob.Data).Return("https://cdn.example.com/ep1.webm", nil).Once()
	assets.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.MediaAsset) bool {
		return a.Name == "Ep1" && a.SizeBytes == blob.Size()
	})).Return(nil).Once()
	prefs.On("Get", mock.Anything, domain.UserID("u1")).
		Return(&domain.Preferences{UserID: "u1"}, nil).Once()

	result, err := saveSvc.RequestSave(testContext("u1"), recSvc.PendingBlob(), domain.SaveOptions{
		Name:            "Ep1",
		SaveAsRecording: true,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Asset)
	assert.Equal(t, "https://cdn.example.com/ep1.webm", result.Asset.URL)
	assert.Equal(t, domain.NavigateMediaLibrary, result.Navigation.Kind)
	assert.Equal(t, result.Asset.ID, result.Navigation.AssetID)
	storage.AssertExpectations(t)
	assets.AssertExpectations(t)

	// The durable save releases the session copy
	recSvc.Discard()
	assert.Nil(t, recSvc.PendingBlob())
	assert.Equal(t, domain.StatusIdle, recSvc.Status())
}
