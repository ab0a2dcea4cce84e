package watcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCountingTracker(result string, err error) (*firestoreStatusTracker, *int) {
	loads := 0
	t := &firestoreStatusTracker{cache: make(map[string]string)}
	t.load = func(_ context.Context, _ string) (string, error) {
		loads++
		return result, err
	}
	return t, &loads
}

func TestTrackerCachesLoadedStatus(t *testing.T) {
	tracker, loads := newCountingTracker("approved", nil)

	for i := 0; i < 3; i++ {
		last, err := tracker.Last(context.Background(), "appt-1")
		require.NoError(t, err)
		assert.Equal(t, "approved", last)
	}

	assert.Equal(t, 1, *loads)
}

func TestTrackerCachesNeverTrackedResult(t *testing.T) {
	tracker, loads := newCountingTracker("", nil)

	for i := 0; i < 3; i++ {
		last, err := tracker.Last(context.Background(), "appt-1")
		require.NoError(t, err)
		assert.Empty(t, last)
	}

	assert.Equal(t, 1, *loads, "an absent state document must be cached, not re-read per event")
}

func TestTrackerDoesNotCacheLoadErrors(t *testing.T) {
	tracker, loads := newCountingTracker("", errors.New("unavailable"))

	_, err := tracker.Last(context.Background(), "appt-1")
	require.Error(t, err)
	_, err = tracker.Last(context.Background(), "appt-1")
	require.Error(t, err)

	assert.Equal(t, 2, *loads, "a failed read must stay retryable")
}
