package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	apperrors "github.com/Seeksy-app/studio-engine/pkg/errors"
	"github.com/Seeksy-app/studio-engine/pkg/retry"
)

type persistenceFixture struct {
	templates *MockTemplateRepository
	assets    *MockAssetRepository
	usage     *MockUsageRepository
	prefs     *MockPreferencesRepository
	storage   *MockObjectStorage
	jobs      *MockJobTrigger
	svc       *persistenceService
}

func newPersistenceFixture() *persistenceFixture {
	f := &persistenceFixture{
		templates: new(MockTemplateRepository),
		assets:    new(MockAssetRepository),
		usage:     new(MockUsageRepository),
		prefs:     new(MockPreferencesRepository),
		storage:   new(MockObjectStorage),
		jobs:      new(MockJobTrigger),
	}
	svc := NewPersistenceService(f.templates, f.assets, f.usage, f.prefs, f.storage, f.jobs, zap.NewNop().Sugar())
	f.svc = svc.(*persistenceService)
	f.svc.retryCfg = retry.Config{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	return f
}

func testBlob() *domain.RecordingBlob {
	return &domain.RecordingBlob{
		SessionID:       "session_1",
		Data:            []byte("recorded media bytes"),
		DurationSeconds: 40,
		MimeType:        "video/webm",
		StoppedAt:       time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestTemplateOnlySave(t *testing.T) {
	f := newPersistenceFixture()
	f.templates.On("Create", mock.Anything, mock.MatchedBy(func(tpl *domain.Template) bool {
		return tpl.Name == "My layout" && tpl.OwnerID == domain.UserID("u1")
	})).Return(nil).Once()

	result, err := f.svc.RequestSave(testContext("u1"), testBlob(), domain.SaveOptions{
		Name:           "My layout",
		SaveAsTemplate: true,
	}, nil)

	assert.NoError(t, err)
	assert.NotNil(t, result.Template)
	assert.Nil(t, result.Asset)
	assert.Equal(t, domain.NavigateMediaLibrary, result.Navigation.Kind)
	f.assets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordingOnlySave(t *testing.T) {
	f := newPersistenceFixture()
	blob := testBlob()

	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(path string) bool {
		return strings.HasPrefix(path, "users/u1/recordings/")
	}), blob.Data).Return("https://cdn.example.com/ep1.webm", nil).Once()
	f.assets.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.MediaAsset) bool {
		return a.Name == "Ep1" &&
			a.SizeBytes == blob.Size() &&
			a.Source == domain.AssetSourceStudio &&
			a.Type == domain.AssetTypeVideo
	})).Return(nil).Once()
	f.prefs.On("Get", mock.Anything, domain.UserID("u1")).
		Return(&domain.Preferences{UserID: "u1", AutoTranscribe: false}, nil).Once()

	result, err := f.svc.RequestSave(testContext("u1"), blob, domain.SaveOptions{
		Name:            "Ep1",
		SaveAsRecording: true,
	}, nil)

	assert.NoError(t, err)
	assert.Nil(t, result.Template)
	assert.NotNil(t, result.Asset)
	assert.Equal(t, "https://cdn.example.com/ep1.webm", result.Asset.URL)
	assert.Equal(t, domain.NavigateMediaLibrary, result.Navigation.Kind)
	assert.Equal(t, result.Asset.ID, result.Navigation.AssetID)
	f.templates.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.jobs.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
}

func TestTemplateFailureDoesNotAbortRecordingSave(t *testing.T) {
	f := newPersistenceFixture()
	blob := testBlob()

	f.templates.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("store unavailable")).Once()
	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("https://cdn.example.com/ep1.webm", nil).Once()
	f.assets.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.prefs.On("Get", mock.Anything, mock.Anything).
		Return(&domain.Preferences{}, nil).Once()

	result, err := f.svc.RequestSave(testContext("u1"), blob, domain.SaveOptions{
		Name:            "Ep1",
		SaveAsTemplate:  true,
		SaveAsRecording: true,
	}, nil)

	assert.NoError(t, err)
	assert.Nil(t, result.Template)
	assert.NotEmpty(t, result.TemplateErr)
	assert.NotNil(t, result.Asset)
}

func TestUploadFailureIsFatal(t *testing.T) {
	f := newPersistenceFixture()

	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("", fmt.Errorf("storage down"))

	result, err := f.svc.RequestSave(testContext("u1"), testBlob(), domain.SaveOptions{
		Name:            "Ep1",
		SaveAsRecording: true,
	}, nil)

	assert.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRecordingSave))
	assert.Nil(t, result.Asset)
	// No navigation, no asset record
	f.assets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAssetRecordFailureIsFatal(t *testing.T) {
	f := newPersistenceFixture()

	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("https://cdn.example.com/ep1.webm", nil).Once()
	f.assets.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("insert failed")).Once()

	_, err := f.svc.RequestSave(testContext("u1"), testBlob(), domain.SaveOptions{
		Name:            "Ep1",
		SaveAsRecording: true,
	}, nil)

	assert.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRecordingSave))
}

func TestSaveWithEmptyBlobRejected(t *testing.T) {
	f := newPersistenceFixture()

	_, err := f.svc.RequestSave(testContext("u1"), nil, domain.SaveOptions{
		SaveAsRecording: true,
	}, nil)

	assert.ErrorIs(t, err, domain.ErrNoPendingBlob)
}

func TestUsageTrackedInMegabytesRoundedUp(t *testing.T) {
	f := newPersistenceFixture()
	blob := testBlob() // well under 1 MiB, rounds up to 1

	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("https://cdn.example.com/ep1.webm", nil).Once()
	f.assets.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.prefs.On("Get", mock.Anything, mock.Anything).Return(&domain.Preferences{}, nil).Once()
	f.usage.On("AddUsage", mock.Anything, mock.MatchedBy(func(r *domain.UsageRecord) bool {
		return r.UserID == domain.UserID("u1") && r.Megabytes == 1
	})).Return(nil).Once()

	_, err := f.svc.RequestSave(testContext("u1"), blob, domain.SaveOptions{
		Name:            "Ep1",
		SaveAsRecording: true,
	}, nil)
	assert.NoError(t, err)

	assert.NoError(t, f.svc.batcher.Flush(testContext("u1")))
	f.usage.AssertExpectations(t)
}

func TestUsageFailureIsLoggedOnly(t *testing.T) {
	f := newPersistenceFixture()

	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("https://cdn.example.com/ep1.webm", nil).Once()
	f.assets.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.prefs.On("Get", mock.Anything, mock.Anything).Return(&domain.Preferences{}, nil).Once()
	f.usage.On("AddUsage", mock.Anything, mock.Anything).
		Return(fmt.Errorf("ledger down")).Once()

	result, err := f.svc.RequestSave(testContext("u1"), testBlob(), domain.SaveOptions{
		Name:            "Ep1",
		SaveAsRecording: true,
	}, nil)

	assert.NoError(t, err)
	assert.NotNil(t, result.Asset)
	assert.NoError(t, f.svc.batcher.Flush(testContext("u1")))
}

func TestTranscriptionTriggeredWhenPreferenceOn(t *testing.T) {
	f := newPersistenceFixture()

	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("https://cdn.example.com/ep1.webm", nil).Once()
	f.assets.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.prefs.On("Get", mock.Anything, mock.Anything).
		Return(&domain.Preferences{UserID: "u1", AutoTranscribe: true}, nil).Once()

	triggered := make(chan struct{})
	f.jobs.On("Invoke", mock.Anything, transcriptionJob, mock.Anything).
		Run(func(args mock.Arguments) { close(triggered) }).
		Return(nil).Once()

	_, err := f.svc.RequestSave(testContext("u1"), testBlob(), domain.SaveOptions{
		Name:            "Ep1",
		SaveAsRecording: true,
	}, nil)
	assert.NoError(t, err)

	select {
	case <-triggered:
	case <-time.After(time.Second):
		t.Fatal("transcription job was not triggered")
	}
}

func TestTranscriptionFailureNeverBlocksSave(t *testing.T) {
	f := newPersistenceFixture()

	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("https://cdn.example.com/ep1.webm", nil).Once()
	f.assets.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.prefs.On("Get", mock.Anything, mock.Anything).
		Return(&domain.Preferences{AutoTranscribe: true}, nil).Once()
	f.jobs.On("Invoke", mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("queue down")).Maybe()

	result, err := f.svc.RequestSave(testContext("u1"), testBlob(), domain.SaveOptions{
		Name:            "Ep1",
		SaveAsRecording: true,
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, domain.NavigateMediaLibrary, result.Navigation.Kind)
}

func TestPodcastContextNavigatesToEpisodeCreation(t *testing.T) {
	f := newPersistenceFixture()

	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("https://cdn.example.com/ep1.webm", nil).Once()
	f.assets.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	f.prefs.On("Get", mock.Anything, mock.Anything).Return(&domain.Preferences{}, nil).Once()

	result, err := f.svc.RequestSave(testContext("u1"), testBlob(), domain.SaveOptions{
		Name:            "Ep1",
		SaveAsRecording: true,
	}, &domain.PodcastContext{PodcastID: "p1", Title: "Show"})

	assert.NoError(t, err)
	assert.Equal(t, domain.NavigateEpisodeCreation, result.Navigation.Kind)
	assert.Equal(t, "Show", result.Navigation.Title)
	assert.Equal(t, result.Asset.ID, result.Navigation.AssetID)
	assert.Equal(t, result.Asset.URL, result.Navigation.AssetURL)
}

func TestDefaultNameWhenEmpty(t *testing.T) {
	f := newPersistenceFixture()

	f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("https://cdn.example.com/auto.webm", nil).Once()
	f.assets.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.MediaAsset) bool {
		return strings.HasPrefix(a.Name, "Live session ")
	})).Return(nil).Once()
	f.prefs.On("Get", mock.Anything, mock.Anything).Return(&domain.Preferences{}, nil).Once()

	_, err := f.svc.RequestSave(testContext("u1"), testBlob(), domain.SaveOptions{
		SaveAsRecording: true,
	}, nil)
	assert.NoError(t, err)
	f.assets.AssertExpectations(t)
}

func TestSaveRequiresUser(t *testing.T) {
	f := newPersistenceFixture()

	_, err := f.svc.RequestSave(testContext(""), testBlob(), domain.SaveOptions{
		SaveAsRecording: true,
	}, nil)

	assert.ErrorIs(t, err, domain.ErrNoCurrentUser)
}
