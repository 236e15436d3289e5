package statefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAtomicReplacesFully(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	require.NoError(t, WriteAtomic(path, []byte(`{"a":1}`), 0o644))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, WriteAtomic(path, []byte(`{"a":2}`), 0o644))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"a":2}`, string(got))
}

func TestWriteAtomicFanoutToleratesPartialFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "missing-parent-\x00", "bad.json")

	succeeded, errs := WriteAtomicFanout([]string{good, bad}, []byte("x"), 0o644)

	require.Equal(t, 1, succeeded)
	require.NoError(t, errs[0])
	require.Error(t, errs[1])
}
