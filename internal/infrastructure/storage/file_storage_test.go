package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestUploadAndPublicURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStorage(dir, "http://localhost:8080/media/", zap.NewNop().Sugar())
	assert.NoError(t, err)

	url, err := store.Upload(context.Background(), "users/u1/recordings/rec.webm", []byte("blob"))
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/users/u1/recordings/rec.webm", url)

	data, err := os.ReadFile(filepath.Join(dir, "users", "u1", "recordings", "rec.webm"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("blob"), data)
}

func TestUploadRejectsTraversal(t *testing.T) {
	store, err := NewFileStorage(t.TempDir(), "http://localhost:8080/media", zap.NewNop().Sugar())
	assert.NoError(t, err)

	_, err = store.Upload(context.Background(), "../outside.webm", []byte("x"))
	assert.Error(t, err)
}

func TestUploadOverwrites(t *testing.T) {
	store, err := NewFileStorage(t.TempDir(), "http://localhost:8080/media", zap.NewNop().Sugar())
	assert.NoError(t, err)

	_, err = store.Upload(context.Background(), "a.webm", []byte("one"))
	assert.NoError(t, err)
	url, err := store.Upload(context.Background(), "a.webm", []byte("two"))
	assert.NoError(t, err)
	assert.Contains(t, url, "a.webm")
}
