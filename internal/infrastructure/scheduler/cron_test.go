package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)

	before := time.Date(2025, time.March, 3, 4, 0, 0, 0, time.UTC) // 06:00 local
	assert.Equal(t, time.Date(2025, time.March, 3, 7, 0, 0, 0, loc), NextRun(before, 7, 0, loc))

	exact := time.Date(2025, time.March, 3, 5, 0, 0, 0, time.UTC) // 07:00 local
	assert.Equal(t, time.Date(2025, time.March, 4, 7, 0, 0, 0, loc), NextRun(exact, 7, 0, loc))

	endOfMonth := time.Date(2025, time.March, 31, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.April, 1, 7, 0, 0, 0, loc), NextRun(endOfMonth, 7, 0, loc))
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	h, m, err := ParseClock("07:30")
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 30, m)

	_, _, err = ParseClock("7am")
	require.Error(t, err)
}

func TestDailySchedulerRunOnStart(t *testing.T) {
	t.Parallel()

	s := NewDailyScheduler("07:00", time.UTC, true)
	fired := make(chan time.Time, 1)

	require.NoError(t, s.Start(context.Background(), func(at time.Time) { fired <- at }))
	require.NoError(t, s.Start(context.Background(), func(time.Time) {}))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}

func TestDailySchedulerRejectsBadClock(t *testing.T) {
	t.Parallel()

	err := NewDailyScheduler("noon", nil, false).Start(context.Background(), func(time.Time) {})
	require.Error(t, err)
}
