package backup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/pkg/backup"
)

// Scheduler periodically snapshots the media library so an empty or
// rebuilt database can be repopulated from the last export.
type Scheduler struct {
	backupService *backup.BackupService
	assetRepo     ports.AssetRepository
	templateRepo  ports.TemplateRepository
	interval      time.Duration
	retentionDays int
	logger        *zap.SugaredLogger
	stopChan      chan struct{}
}

// Config contains scheduler configuration
type Config struct {
	Interval      time.Duration
	RetentionDays int
}

// NewScheduler creates a new snapshot scheduler
func NewScheduler(
	backupService *backup.BackupService,
	assetRepo ports.AssetRepository,
	templateRepo ports.TemplateRepository,
	cfg Config,
	logger *zap.SugaredLogger,
) *Scheduler {
	return &Scheduler{
		backupService: backupService,
		assetRepo:     assetRepo,
		templateRepo:  templateRepo,
		interval:      cfg.Interval,
		retentionDays: cfg.RetentionDays,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

// Start runs the scheduler until Stop is called or ctx is cancelled.
// An initial snapshot is taken immediately.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runSnapshot(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSnapshot(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) runSnapshot(ctx context.Context) {
	s.logger.Info("starting scheduled library snapshot")

	data, err := s.collectData(ctx)
	if err != nil {
		s.logger.Errorw("failed to collect snapshot data", "error", err)
		return
	}

	name, err := s.backupService.CreateSnapshot(ctx, data)
	if err != nil {
		s.logger.Errorw("failed to create snapshot", "error", err)
		return
	}

	s.logger.Infow("library snapshot created",
		"snapshot", name,
		"assets", len(data.Assets),
		"templates", len(data.Templates))

	if err := s.cleanupOldSnapshots(ctx); err != nil {
		s.logger.Warnw("failed to cleanup old snapshots", "error", err)
	}
}

func (s *Scheduler) collectData(ctx context.Context) (*backup.SnapshotData, error) {
	data := &backup.SnapshotData{
		Assets:    make(map[string]interface{}),
		Templates: make(map[string]interface{}),
		Metadata:  make(map[string]interface{}),
	}

	assets, err := s.assetRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	for _, asset := range assets {
		data.Assets[string(asset.ID)] = asset
	}

	templates, err := s.templateRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	for _, template := range templates {
		data.Templates[string(template.ID)] = template
	}

	data.Metadata["asset_count"] = len(data.Assets)
	data.Metadata["template_count"] = len(data.Templates)
	data.Metadata["snapshot_type"] = "scheduled"

	return data, nil
}

func (s *Scheduler) cleanupOldSnapshots(ctx context.Context) error {
	names, err := s.backupService.ListSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	for _, name := range names {
		ts, err := backup.ParseSnapshotTime(name)
		if err != nil {
			s.logger.Warnw("skipping snapshot with unparseable name", "snapshot", name, "error", err)
			continue
		}

		if ts.Before(cutoff) {
			if err := s.backupService.DeleteSnapshot(ctx, name); err != nil {
				s.logger.Warnw("failed to delete old snapshot", "snapshot", name, "error", err)
				continue
			}
			s.logger.Infow("deleted old snapshot", "snapshot", name, "age", time.Since(ts))
		}
	}

	return nil
}
