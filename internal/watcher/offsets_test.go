package watcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOffsetStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "offsets")
	s := NewOffsetStore(dir)

	offset, err := s.Get("A.log")
	require.NoError(t, err)
	require.Equal(t, int64(0), offset)

	require.NoError(t, s.Set("A.log", 128))
	offset, err = s.Get("A.log")
	require.NoError(t, err)
	require.Equal(t, int64(128), offset)

	require.NoError(t, s.Set("A.log", 256))
	offset, err = s.Get("A.log")
	require.NoError(t, err)
	require.Equal(t, int64(256), offset)
}
