package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gophchat-server/internal/model"
)

func TestStore_UploadDownload(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Upload(ctx, "chats/abc.json", strings.NewReader(`{"a":1}`)))

	rc, err := s.Download(ctx, "chats/abc.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestStore_UploadReplacesWithoutLeftovers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Upload(ctx, "users.json", strings.NewReader("first")))
	require.NoError(t, s.Upload(ctx, "users.json", strings.NewReader("second")))

	data, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "users.json", entries[0].Name())
}

func TestStore_DownloadMissing(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	rc, err := s.Download(context.Background(), "absent.json")
	assert.Nil(t, rc)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
