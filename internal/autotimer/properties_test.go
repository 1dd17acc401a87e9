package autotimer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func rapidHarness(t *rapid.T, jobs ...*domain.Job) *harness {
	h := newHarness(jobs...)
	if err := h.engine.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return h
}

func TestProperty_StartHysteresis(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		delayMin := rapid.IntRange(1, domain.MaxDelayMinutes).Draw(t, "delay_start_min")
		dwellSec := rapid.IntRange(0, 15*60).Draw(t, "dwell_sec")

		h := rapidHarness(t, enabledSite(50, delayMin, 2))
		defer h.engine.Close()

		if err := h.sampleAt(10); err != nil {
			t.Fatal(err)
		}
		h.clock.Advance(time.Duration(dwellSec) * time.Second)
		if err := h.sampleAt(400); err != nil {
			t.Fatal(err)
		}
		h.clock.Advance(time.Hour)

		wantStarted := dwellSec >= delayMin*60
		if got := h.sessions.created; (got == 1) != wantStarted || got > 1 {
			t.Fatalf("dwell %ds with %dmin delay: %d sessions started", dwellSec, delayMin, got)
		}
	})
}

func TestProperty_StopHysteresis(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		delayMin := rapid.IntRange(1, domain.MaxDelayMinutes).Draw(t, "delay_stop_min")
		awaySec := rapid.IntRange(0, 15*60).Draw(t, "away_sec")

		h := rapidHarness(t, enabledSite(50, 0, delayMin))
		defer h.engine.Close()

		if err := h.sampleAt(0); err != nil {
			t.Fatal(err)
		}
		h.clock.Advance(time.Hour)
		if err := h.sampleAt(600); err != nil {
			t.Fatal(err)
		}
		h.clock.Advance(time.Duration(awaySec) * time.Second)
		if err := h.sampleAt(0); err != nil {
			t.Fatal(err)
		}

		ended := len(h.sessions.days())
		if awaySec >= delayMin*60 {
			if ended != 1 {
				t.Fatalf("away %ds past %dmin delay: %d records", awaySec, delayMin, ended)
			}
		} else {
			if ended != 0 || h.sessions.created != 1 {
				t.Fatalf("away %ds within %dmin delay ended the session", awaySec, delayMin)
			}
			if h.engine.Status().State != domain.StateActive {
				t.Fatalf("expected active after re-entry, got %s", h.engine.Status().State)
			}
		}
	})
}

// Arbitrary interleavings of samples, time, ownership changes and user
// commands never produce a second concurrent session.
func TestProperty_SingleActiveSession(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := siteJob("a", "Alpha", 50, 1, 1)
		a.AutoTimer.Enabled = true
		b := siteJob("b", "Bravo", 80, 0, 2)
		b.Location = &domain.Coordinate{Latitude: 0.001}
		h := rapidHarness(t, a, b)
		defer h.engine.Close()
		ctx := context.Background()

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 9).Draw(t, "op") {
			case 0, 1, 2:
				_ = h.sampleAt(rapid.Float64Range(0, 400).Draw(t, "metres"))
			case 3:
				h.clock.Advance(time.Duration(rapid.IntRange(1, 300).Draw(t, "advance_sec")) * time.Second)
			case 4:
				_, _ = h.engine.EnableAutoTimer(ctx, rapid.SampledFrom([]string{"a", "b"}).Draw(t, "enable"))
			case 5:
				_, _ = h.engine.ForceEnableAutoTimer(ctx, rapid.SampledFrom([]string{"a", "b"}).Draw(t, "force"))
			case 6:
				_ = h.engine.DisableAutoTimer(ctx, rapid.SampledFrom([]string{"a", "b"}).Draw(t, "disable"))
			case 7:
				_ = h.engine.PauseActive(ctx)
			case 8:
				_ = h.engine.ResumeActive(ctx)
			case 9:
				_, _ = h.engine.StopActive(ctx)
			}

			if h.sessions.violations != 0 {
				t.Fatalf("a session was replaced by another at step %d", i)
			}
			owners := 0
			for _, id := range []string{"a", "b"} {
				if h.jobs.enabled(id) {
					owners++
				}
			}
			if owners > 1 {
				t.Fatalf("%d jobs own the autotimer at step %d", owners, i)
			}
			if st := h.engine.Status(); st.State == domain.StateActive || st.State == domain.StateLeaving {
				if h.sessions.current() == nil {
					t.Fatalf("state %s without a session at step %d", st.State, i)
				}
			}
		}
	})
}

func TestEngine_ConcurrentEventSources(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 0, 0))
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				switch (g + i) % 5 {
				case 0:
					_ = h.sampleAt(0)
				case 1:
					_ = h.sampleAt(300)
				case 2:
					_ = h.engine.PauseActive(ctx)
				case 3:
					_ = h.engine.ResumeActive(ctx)
				case 4:
					_ = h.engine.Status()
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Zero(t, h.sessions.violations)
}
