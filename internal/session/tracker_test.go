package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackerFirstMessageStartsSessionNoSeparator(t *testing.T) {
	tr := New(false)
	sep := tr.Observe("/logs/A.log", time.Now())
	require.Nil(t, sep)
	require.Equal(t, "A.log", tr.ActiveSession())
}

func TestTrackerSameFileNoSeparator(t *testing.T) {
	tr := New(false)
	tr.Observe("/logs/A.log", time.Now())
	sep := tr.Observe("/logs/A.log", time.Now())
	require.Nil(t, sep)
}

func TestTrackerNewFileEmitsSeparator(t *testing.T) {
	tr := New(false)
	tr.Observe("/logs/A.log", time.Now())
	sep := tr.Observe("/logs/B.log", time.Now())
	require.NotNil(t, sep)
	require.True(t, sep.IsSeparator())
	require.Equal(t, "B.log", tr.ActiveSession())
	require.Contains(t, sep.Content, "session changed")
}

func TestTrackerResumeEmitsResumeSeparator(t *testing.T) {
	tr := New(false)
	tr.Observe("/logs/A.log", time.Now())
	tr.Observe("/logs/B.log", time.Now())
	sep := tr.Observe("/logs/A.log", time.Now())
	require.NotNil(t, sep)
	require.Contains(t, sep.Content, "session resumed")
}

func TestTrackerSuppressedDuringBackfill(t *testing.T) {
	tr := New(true)
	tr.Observe("/logs/A.log", time.Now())
	sep := tr.Observe("/logs/B.log", time.Now())
	require.Nil(t, sep)
	require.Equal(t, "B.log", tr.ActiveSession())
}
