package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArtifacts_PutGetRoundTrip(t *testing.T) {
	store, err := NewLocalArtifacts(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := "contracts/2026/08/doc.pdf"
	require.NoError(t, store.Put(ctx, key, []byte("%PDF-1.4 test"), ContentTypePDF))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	r, size, err := store.Get(ctx, key)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))
	assert.Equal(t, int64(len(data)), size)

	require.NoError(t, store.Delete(ctx, key))
	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalArtifacts_RejectsEscapingKeys(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalArtifacts(filepath.Join(base, "artifacts"))
	require.NoError(t, err)
	ctx := context.Background()

	outside := filepath.Join(base, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep out"), 0644))

	for _, key := range []string{
		"../secret.txt",
		"contracts/../../secret.txt",
		"../../etc/passwd",
	} {
		assert.Error(t, store.Put(ctx, key, []byte("x"), ContentTypePDF), "put %q", key)

		_, _, err := store.Get(ctx, key)
		assert.Error(t, err, "get %q", key)

		assert.Error(t, store.Delete(ctx, key), "delete %q", key)
	}

	// The file outside the root is untouched.
	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "keep out", string(data))
}
