package backup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndLoadSnapshot(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	service := NewBackupService(storage, "1.0.0")

	data := &SnapshotData{
		Assets: map[string]interface{}{
			"asset-1": map[string]interface{}{
				"id":   "asset-1",
				"name": "Episode 12 recording",
			},
		},
		Templates: map[string]interface{}{
			"tpl-1": map[string]interface{}{
				"id":   "tpl-1",
				"name": "Weekly show",
			},
		},
	}

	name, err := service.CreateSnapshot(context.Background(), data)
	require.NoError(t, err)
	assert.Contains(t, name, "library-")

	loaded, err := service.LoadSnapshot(context.Background(), name)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", loaded.Version)
	assert.Len(t, loaded.Assets, 1)
	assert.Len(t, loaded.Templates, 1)
	assert.False(t, loaded.Timestamp.IsZero())
}

func TestListAndDeleteSnapshots(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	service := NewBackupService(storage, "1.0.0")

	name, err := service.CreateSnapshot(context.Background(), &SnapshotData{})
	require.NoError(t, err)

	names, err := service.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Contains(t, names, name)

	require.NoError(t, service.DeleteSnapshot(context.Background(), name))

	names, err = service.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, names, name)
}

func TestLoadSnapshotMissing(t *testing.T) {
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	service := NewBackupService(storage, "1.0.0")

	_, err = service.LoadSnapshot(context.Background(), "library-20200101-000000.json")
	assert.Error(t, err)
}

func TestSnapshotNameRoundTrip(t *testing.T) {
	ts := time.Date(2026, 8, 30, 12, 4, 5, 0, time.UTC)
	name := SnapshotName(ts)

	parsed, err := ParseSnapshotTime(name)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
}

func TestParseSnapshotTimeInvalid(t *testing.T) {
	_, err := ParseSnapshotTime("garbage.json")
	assert.Error(t, err)
}
