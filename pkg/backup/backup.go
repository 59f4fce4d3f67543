package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

const snapshotPrefix = "library-"

// SnapshotData holds one point-in-time export of the media library.
type SnapshotData struct {
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Assets    map[string]interface{} `json:"assets,omitempty"`
	Templates map[string]interface{} `json:"templates,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Storage defines interface for snapshot storage
type Storage interface {
	Save(ctx context.Context, name string, data io.Reader) error
	Load(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// BackupService handles library snapshot operations
type BackupService struct {
	storage Storage
	version string
}

// NewBackupService creates a new backup service
func NewBackupService(storage Storage, version string) *BackupService {
	return &BackupService{
		storage: storage,
		version: version,
	}
}

// CreateSnapshot serializes the provided data and writes it to storage.
// The returned name encodes the snapshot timestamp.
func (bs *BackupService) CreateSnapshot(ctx context.Context, data *SnapshotData) (string, error) {
	data.Version = bs.version
	data.Timestamp = time.Now()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot data: %w", err)
	}

	name := SnapshotName(data.Timestamp)
	if err := bs.storage.Save(ctx, name, bytes.NewReader(jsonData)); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	return name, nil
}

// LoadSnapshot reads a snapshot back from storage.
func (bs *BackupService) LoadSnapshot(ctx context.Context, name string) (*SnapshotData, error) {
	reader, err := bs.storage.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot data: %w", err)
	}

	var snapshot SnapshotData
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot data: %w", err)
	}

	return &snapshot, nil
}

// ListSnapshots lists all available snapshots
func (bs *BackupService) ListSnapshots(ctx context.Context) ([]string, error) {
	return bs.storage.List(ctx, snapshotPrefix)
}

// DeleteSnapshot deletes a snapshot
func (bs *BackupService) DeleteSnapshot(ctx context.Context, name string) error {
	return bs.storage.Delete(ctx, name)
}

// SnapshotName builds the storage name for a snapshot taken at ts.
func SnapshotName(ts time.Time) string {
	return fmt.Sprintf("%s%s.json", snapshotPrefix, ts.Format("20060102-150405"))
}

// ParseSnapshotTime extracts the timestamp encoded in a snapshot name.
func ParseSnapshotTime(name string) (time.Time, error) {
	raw := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), ".json")
	ts, err := time.Parse("20060102-150405", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse snapshot name %q: %w", name, err)
	}
	return ts, nil
}
