package location

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixNow = time.Date(2025, 6, 16, 8, 0, 0, 0, time.UTC)

func TestParseFix(t *testing.T) {
	s, err := ParseFix(`{"lat":40.4168,"lon":-3.7038,"accuracy":12,"origin":"background","at":"2025-06-16T08:01:00Z"}`, fixNow)
	require.NoError(t, err)
	assert.InDelta(t, 40.4168, s.Coordinate.Latitude, 1e-9)
	assert.InDelta(t, 12, s.AccuracyMeters, 1e-9)
	assert.Equal(t, domain.OriginBackground, s.Origin)
	assert.Equal(t, fixNow.Add(time.Minute), s.At)
}

func TestParseFix_Defaults(t *testing.T) {
	s, err := ParseFix(`{"lat":1,"lon":2}`, fixNow)
	require.NoError(t, err)
	assert.Equal(t, domain.OriginForeground, s.Origin)
	assert.Equal(t, fixNow, s.At)
	assert.Zero(t, s.AccuracyMeters)
}

func TestParseFix_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":  `lat=1`,
		"latitude":  `{"lat":91,"lon":0}`,
		"longitude": `{"lat":0,"lon":-181}`,
		"accuracy":  `{"lat":0,"lon":0,"accuracy":-1}`,
		"origin":    `{"lat":0,"lon":0,"origin":"satellite"}`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFix(line, fixNow)
			assert.ErrorIs(t, err, ErrInvalidFix)
		})
	}
}

func TestFeed_FollowsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixes.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"lat\":1,\"lon\":1}\n# comment\nbogus\n"), 0o644))

	var mu sync.Mutex
	var got []autotimer.Sample
	sink := func(_ context.Context, s autotimer.Sample) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, s)
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	feed := NewFeed(path, FeedOptions{FromStart: true, Poll: true}, logging.NewLogger("test"))
	go func() { done <- feed.Run(ctx, sink) }()

	require.Eventually(t, func() bool { return count() == 1 }, 5*time.Second, 20*time.Millisecond)

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = fh.WriteString("{\"lat\":2,\"lon\":2,\"origin\":\"relaunch\"}\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	require.Eventually(t, func() bool { return count() == 2 }, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, domain.OriginRelaunch, got[1].Origin)
	assert.InDelta(t, 2, got[1].Coordinate.Latitude, 1e-9)
}
