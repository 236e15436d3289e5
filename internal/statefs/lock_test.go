package statefs

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireProcessLockWritesPid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pid.lock")

	lock, ok, err := AcquireProcessLock(path)
	require.NoError(t, err)
	require.True(t, ok)
	defer lock.Release()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}

func TestAcquireProcessLockFailsWhenAlreadyHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pid.lock")

	first, ok, err := AcquireProcessLock(path)
	require.NoError(t, err)
	require.True(t, ok)
	defer first.Release()

	_, ok, err = AcquireProcessLock(path)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProcessLockReleaseRemovesPidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pid.lock")

	lock, ok, err := AcquireProcessLock(path)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))

	second, ok, err := AcquireProcessLock(path)
	require.NoError(t, err)
	require.True(t, ok)
	second.Release()
}
