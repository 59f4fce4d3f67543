package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/pkg/batch"
	apperrors "github.com/Seeksy-app/studio-engine/pkg/errors"
	"github.com/Seeksy-app/studio-engine/pkg/retry"
	"github.com/Seeksy-app/studio-engine/pkg/tracing"
	"github.com/Seeksy-app/studio-engine/pkg/utils"
)

const transcriptionJob = "transcribe-media"

// persistenceService orchestrates the post-recording save pipeline:
// template write, blob upload, library record, usage tracking, optional
// transcription trigger, and the navigation decision.
type persistenceService struct {
	templates ports.TemplateRepository
	assets    ports.AssetRepository
	usage     ports.UsageRepository
	prefs     ports.PreferencesRepository
	storage   ports.ObjectStorage
	jobs      ports.JobTrigger
	retryCfg  retry.Config
	batcher   *batch.Batcher
	logger    *zap.SugaredLogger
}

// NewPersistenceService creates the save pipeline service. Usage-ledger
// increments flow through a batcher so bursts of saves coalesce into one
// round trip.
func NewPersistenceService(
	templates ports.TemplateRepository,
	assets ports.AssetRepository,
	usage ports.UsageRepository,
	prefs ports.PreferencesRepository,
	storage ports.ObjectStorage,
	jobs ports.JobTrigger,
	logger *zap.SugaredLogger,
) ports.PersistenceService {
	s := &persistenceService{
		templates: templates,
		assets:    assets,
		usage:     usage,
		prefs:     prefs,
		storage:   storage,
		jobs:      jobs,
		retryCfg:  retry.DefaultConfig(),
		logger:    logger,
	}
	s.batcher = batch.NewBatcher(16, 2*time.Second, &usageProcessor{logger: logger})
	return s
}

func (s *persistenceService) RequestSave(ctx context.Context, blob *domain.RecordingBlob, opts domain.SaveOptions, podcast *domain.PodcastContext) (*domain.SaveResult, error) {
	userID, err := UserFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.SaveResult{}

	// Step 1: template. Failure is reported but never aborts the save;
	// templates and recordings are independent artifacts.
	if opts.SaveAsTemplate {
		template, tmplErr := s.saveTemplate(ctx, userID, opts)
		if tmplErr != nil {
			s.logger.Warnw("template save failed", "user_id", userID, "error", tmplErr)
			result.TemplateErr = apperrors.NewTemplateSaveError(tmplErr).Message
		} else {
			result.Template = template
		}
	}

	// Steps 2-4 only run for a recording save.
	if opts.SaveAsRecording {
		asset, saveErr := s.saveRecording(ctx, userID, blob, opts)
		if saveErr != nil {
			// Fatal: the pending blob stays with the recording service so
			// the user can retry, and navigation does not occur.
			return result, saveErr
		}
		result.Asset = asset

		s.trackUsage(userID, blob)
		s.maybeTriggerTranscription(ctx, userID, asset)
	}

	result.Navigation = s.navigationTarget(result.Asset, opts, podcast)
	return result, nil
}

func (s *persistenceService) saveTemplate(ctx context.Context, userID domain.UserID, opts domain.SaveOptions) (*domain.Template, error) {
	ctx, span := tracing.TraceSaveStep(ctx, "template", string(userID))
	defer span.End()

	template := &domain.Template{
		ID:          domain.TemplateID(utils.GenerateTemplateID()),
		OwnerID:     userID,
		Name:        opts.Name,
		Description: opts.Description,
		CreatedAt:   time.Now(),
	}

	if err := s.templates.Create(ctx, template); err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("failed to create template record: %w", err)
	}

	return template, nil
}

func (s *persistenceService) saveRecording(ctx context.Context, userID domain.UserID, blob *domain.RecordingBlob, opts domain.SaveOptions) (*domain.MediaAsset, error) {
	if blob == nil || len(blob.Data) == 0 {
		return nil, domain.ErrNoPendingBlob
	}

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = fmt.Sprintf("Live session %s", blob.StoppedAt.Format(time.RFC3339))
	}

	uploadCtx, span := tracing.TraceSaveStep(ctx, "upload", string(blob.SessionID))
	path := recordingPath(userID, blob, name)
	url, err := retry.DoWithResult(uploadCtx, s.retryCfg, func() (string, error) {
		return s.storage.Upload(uploadCtx, path, blob.Data)
	})
	if err != nil {
		tracing.RecordError(uploadCtx, err)
		span.End()
		return nil, apperrors.NewRecordingSaveError(err)
	}
	span.End()

	asset := &domain.MediaAsset{
		ID:        domain.AssetID(utils.GenerateAssetID()),
		OwnerID:   userID,
		Name:      name,
		Type:      domain.AssetTypeVideo,
		URL:       url,
		SizeBytes: blob.Size(),
		Source:    domain.AssetSourceStudio,
		CreatedAt: time.Now(),
	}

	recordCtx, span := tracing.TraceSaveStep(ctx, "asset_record", string(blob.SessionID))
	defer span.End()
	if err := s.assets.Create(recordCtx, asset); err != nil {
		tracing.RecordError(recordCtx, err)
		return nil, apperrors.NewRecordingSaveError(err)
	}

	s.logger.Infow("recording saved",
		"user_id", userID,
		"asset_id", asset.ID,
		"size_bytes", asset.SizeBytes)

	return asset, nil
}

// recordingPath namespaces uploads per user and timestamp.
func recordingPath(userID domain.UserID, blob *domain.RecordingBlob, name string) string {
	slug := strings.ToLower(strings.ReplaceAll(utils.SanitizeString(name), " ", "-"))
	slug = utils.TruncateString(slug, 60)
	return fmt.Sprintf("users/%s/recordings/%d-%s.webm", userID, blob.StoppedAt.Unix(), slug)
}

// trackUsage dispatches a megabyte increment (rounded up) to the batcher.
// Failures are logged by the processor, never surfaced.
func (s *persistenceService) trackUsage(userID domain.UserID, blob *domain.RecordingBlob) {
	const mb = 1024 * 1024
	megabytes := (blob.Size() + mb - 1) / mb

	s.batcher.Add(&usageOp{
		usage: s.usage,
		record: &domain.UsageRecord{
			UserID:     userID,
			Megabytes:  megabytes,
			RecordedAt: time.Now(),
		},
	})
}

// maybeTriggerTranscription fires the transcription job when the user has
// auto-transcription on. Fire-and-forget: the save flow never waits on it.
func (s *persistenceService) maybeTriggerTranscription(ctx context.Context, userID domain.UserID, asset *domain.MediaAsset) {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		s.logger.Debugw("failed to read preferences, skipping transcription", "user_id", userID, "error", err)
		return
	}
	if prefs == nil || !prefs.AutoTranscribe {
		return
	}

	payload := map[string]interface{}{
		"asset_id":  string(asset.ID),
		"asset_url": asset.URL,
		"user_id":   string(userID),
	}

	go func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.jobs.Invoke(jobCtx, transcriptionJob, payload); err != nil {
			s.logger.Warnw("transcription trigger failed",
				"asset_id", asset.ID,
				"error", err)
		}
	}()
}

func (s *persistenceService) navigationTarget(asset *domain.MediaAsset, opts domain.SaveOptions, podcast *domain.PodcastContext) domain.NavigationTarget {
	if podcast != nil && asset != nil {
		return domain.NavigationTarget{
			Kind:     domain.NavigateEpisodeCreation,
			AssetID:  asset.ID,
			AssetURL: asset.URL,
			Title:    podcast.Title,
		}
	}

	target := domain.NavigationTarget{Kind: domain.NavigateMediaLibrary}
	if asset != nil {
		target.AssetID = asset.ID
		target.AssetURL = asset.URL
	}
	return target
}

// usageOp is one usage-ledger increment flowing through the batcher.
type usageOp struct {
	usage  ports.UsageRepository
	record *domain.UsageRecord
}

func (op *usageOp) Execute(ctx context.Context) error {
	return op.usage.AddUsage(ctx, op.record)
}

// usageProcessor executes batched ledger increments, logging failures only.
type usageProcessor struct {
	logger *zap.SugaredLogger
}

func (p *usageProcessor) ProcessBatch(ctx context.Context, operations []batch.Operation) error {
	for _, op := range operations {
		if err := op.Execute(ctx); err != nil {
			p.logger.Warnw("usage tracking failed", "error", err)
		}
	}
	return nil
}
