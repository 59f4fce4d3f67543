package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Seeksy-app/studio-engine/internal/core/ports"
)

// FileStorage persists blobs under a base directory on the local filesystem.
// Paths are slash-separated storage keys; PublicURL maps them under the
// configured base URL served by the media file server.
type FileStorage struct {
	basePath      string
	publicBaseURL string
	logger        *zap.SugaredLogger
}

func NewFileStorage(basePath, publicBaseURL string, logger *zap.SugaredLogger) (ports.ObjectStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}

	return &FileStorage{
		basePath:      basePath,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}, nil
}

func (s *FileStorage) Upload(ctx context.Context, path string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	cleaned, err := s.resolve(path)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cleaned), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	// Write to a temp file first so readers never observe partial blobs
	tmp := cleaned + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob %s: %w", path, err)
	}
	if err := os.Rename(tmp, cleaned); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize blob %s: %w", path, err)
	}

	s.logger.Debugw("blob stored", "path", path, "size", len(data))
	return s.PublicURL(path), nil
}

func (s *FileStorage) PublicURL(path string) string {
	return s.publicBaseURL + "/" + strings.TrimPrefix(path, "/")
}

// resolve maps a storage key to an absolute file path, rejecting traversal
// outside the base directory.
func (s *FileStorage) resolve(path string) (string, error) {
	cleaned := filepath.Join(s.basePath, filepath.FromSlash(path))
	base, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(cleaned)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage path: %s", path)
	}
	return abs, nil
}
