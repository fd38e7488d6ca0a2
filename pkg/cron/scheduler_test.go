package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ calls atomic.Int32 }

func (c *countingSweeper) SweepChunks() int {
	c.calls.Add(1)
	return 2
}

type countingLoader struct {
	calls atomic.Int32
	err   error
}

func (c *countingLoader) Load(ctx context.Context) error {
	c.calls.Add(1)
	return c.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunNow(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewScheduler(sweeper, "@every 1h", testLogger())

	assert.Equal(t, 2, s.RunNow())
	assert.Equal(t, int32(1), sweeper.calls.Load())
}

func TestScheduler_RunsJobs(t *testing.T) {
	sweeper := &countingSweeper{}
	loader := &countingLoader{err: errors.New("database unavailable")}
	s := NewScheduler(sweeper, "@every 1s", testLogger()).WithMappingRefresh(loader, "@every 1s")

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() > 0 && loader.calls.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	tests := []struct {
		name    string
		sweep   string
		refresh string
	}{
		{"sweep", "not a schedule", ""},
		{"refresh", "@every 1m", "every tuesday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(&countingSweeper{}, tt.sweep, testLogger()).WithMappingRefresh(&countingLoader{}, tt.refresh)
			assert.Error(t, s.Start())
		})
	}
}
