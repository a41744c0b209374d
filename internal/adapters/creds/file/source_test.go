package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyTrimsWhitespace(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "api_key")
	require.NoError(t, os.WriteFile(path, []byte("  secret-key\n\n"), 0o600))

	key, err := NewSource(path).APIKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret-key", key)
}

func TestAPIKeyMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewSource(filepath.Join(t.TempDir(), "missing")).APIKey(context.Background())
	require.ErrorIs(t, err, ErrKeyFileNotFound)
}

func TestAPIKeyEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "api_key")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := NewSource(path).APIKey(context.Background())
	require.Error(t, err)
}
