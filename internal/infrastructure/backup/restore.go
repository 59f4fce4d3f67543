package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/domain"
	"github.com/Seeksy-app/studio-engine/internal/core/ports"
	"github.com/Seeksy-app/studio-engine/pkg/backup"
)

// RestoreService repopulates the library from a snapshot. Existing
// records are left untouched; only missing assets and templates are
// recreated.
type RestoreService struct {
	backupService *backup.BackupService
	assetRepo     ports.AssetRepository
	templateRepo  ports.TemplateRepository
	logger        *zap.SugaredLogger
}

// NewRestoreService creates a new restore service
func NewRestoreService(
	backupService *backup.BackupService,
	assetRepo ports.AssetRepository,
	templateRepo ports.TemplateRepository,
	logger *zap.SugaredLogger,
) *RestoreService {
	return &RestoreService{
		backupService: backupService,
		assetRepo:     assetRepo,
		templateRepo:  templateRepo,
		logger:        logger,
	}
}

// RestoreOptions selects which parts of a snapshot to restore.
type RestoreOptions struct {
	RestoreAssets    bool
	RestoreTemplates bool
}

// DefaultRestoreOptions returns default restore options
func DefaultRestoreOptions() RestoreOptions {
	return RestoreOptions{
		RestoreAssets:    true,
		RestoreTemplates: true,
	}
}

// RestoreFromSnapshot restores library data from a named snapshot.
func (rs *RestoreService) RestoreFromSnapshot(ctx context.Context, name string, options RestoreOptions) error {
	rs.logger.Infow("starting restore", "snapshot", name, "options", options)

	data, err := rs.backupService.LoadSnapshot(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	if data.Version == "" {
		return fmt.Errorf("invalid snapshot: missing version")
	}

	if options.RestoreAssets {
		if err := rs.restoreAssets(ctx, data.Assets); err != nil {
			return fmt.Errorf("failed to restore assets: %w", err)
		}
	}

	if options.RestoreTemplates {
		if err := rs.restoreTemplates(ctx, data.Templates); err != nil {
			return fmt.Errorf("failed to restore templates: %w", err)
		}
	}

	rs.logger.Infow("restore completed", "snapshot", name)
	return nil
}

func (rs *RestoreService) restoreAssets(ctx context.Context, assets map[string]interface{}) error {
	for idStr, raw := range assets {
		id := domain.AssetID(idStr)

		if _, err := rs.assetRepo.GetByID(ctx, id); err == nil {
			rs.logger.Debugw("skipping existing asset", "asset_id", id)
			continue
		}

		var asset domain.MediaAsset
		if err := decodeInto(raw, &asset); err != nil {
			return fmt.Errorf("failed to decode asset %s: %w", id, err)
		}

		if err := rs.assetRepo.Create(ctx, &asset); err != nil {
			return fmt.Errorf("failed to create asset %s: %w", id, err)
		}

		rs.logger.Debugw("restored asset", "asset_id", id)
	}

	return nil
}

func (rs *RestoreService) restoreTemplates(ctx context.Context, templates map[string]interface{}) error {
	for idStr, raw := range templates {
		id := domain.TemplateID(idStr)

		if _, err := rs.templateRepo.GetByID(ctx, id); err == nil {
			rs.logger.Debugw("skipping existing template", "template_id", id)
			continue
		}

		var template domain.Template
		if err := decodeInto(raw, &template); err != nil {
			return fmt.Errorf("failed to decode template %s: %w", id, err)
		}

		if err := rs.templateRepo.Create(ctx, &template); err != nil {
			return fmt.Errorf("failed to create template %s: %w", id, err)
		}

		rs.logger.Debugw("restored template", "template_id", id)
	}

	return nil
}

// FindSnapshotByTime finds the most recent snapshot taken at or before
// the target time.
func (rs *RestoreService) FindSnapshotByTime(ctx context.Context, target time.Time) (string, error) {
	names, err := rs.backupService.ListSnapshots(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list snapshots: %w", err)
	}

	var best string
	var bestTime time.Time
	var found bool

	for _, name := range names {
		ts, err := backup.ParseSnapshotTime(name)
		if err != nil {
			continue
		}

		if !ts.After(target) {
			if !found || ts.After(bestTime) {
				best = name
				bestTime = ts
				found = true
			}
		}
	}

	if !found {
		return "", fmt.Errorf("no snapshot found before or at %v", target)
	}

	return best, nil
}

// Snapshot values arrive as generic JSON maps; round-trip through JSON
// to get them back into the domain structs.
func decodeInto(raw interface{}, out interface{}) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
