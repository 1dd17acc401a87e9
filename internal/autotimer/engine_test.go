package autotimer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enabledSite(radius, delayStart, delayStop int) *domain.Job {
	j := siteJob("site", "Site", radius, delayStart, delayStop)
	j.AutoTimer.Enabled = true
	return j
}

func startedHarness(t *testing.T, jobs ...*domain.Job) *harness {
	t.Helper()
	h := newHarness(jobs...)
	require.NoError(t, h.engine.Start(context.Background()))
	t.Cleanup(h.engine.Close)
	return h
}

func TestEngine_GeofenceScenario(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 2, 2))

	require.NoError(t, h.sampleAt(100))
	assert.Equal(t, domain.StateInactive, h.engine.Status().State)

	h.clock.Advance(30 * time.Second)
	require.NoError(t, h.sampleAt(40))
	st := h.engine.Status()
	assert.Equal(t, domain.StateEntering, st.State)
	assert.Equal(t, 120, st.RemainingSeconds)
	assert.Equal(t, 120, st.TotalDelaySeconds)
	assert.Equal(t, "Arrived at Site, starting in 2:00", st.Message)

	// t=150s: the start delay has run while still inside.
	h.clock.Advance(120 * time.Second)
	require.NoError(t, h.sampleAt(40))
	assert.Equal(t, domain.StateActive, h.engine.Status().State)
	s := h.sessions.current()
	require.NotNil(t, s)
	assert.Equal(t, "site", s.JobID)
	assert.Equal(t, domain.AutoStartedNote, s.Notes)
	assert.True(t, t0.Add(150*time.Second).Equal(s.StartTime))

	h.clock.Advance(50 * time.Second)
	require.NoError(t, h.sampleAt(200))
	assert.Equal(t, domain.StateLeaving, h.engine.Status().State)

	// t=320s: outside for the whole stop delay.
	h.clock.Advance(120 * time.Second)
	assert.Equal(t, domain.StateInactive, h.engine.Status().State)
	assert.Nil(t, h.sessions.current())

	days := h.sessions.days()
	require.Len(t, days, 1)
	assert.Equal(t, "site", days[0].JobID)
	assert.Equal(t, "2025-06-16", days[0].Date)
	assert.InDelta(t, 0.05, days[0].Hours, 1e-9) // 170s
	assert.Equal(t, "08:02", days[0].ActualStart)
	assert.Equal(t, "08:05", days[0].ActualEnd)

	assert.Equal(t, []domain.NotificationKind{
		domain.NotifyTimerWillStart,
		domain.NotifyTimerStarted,
		domain.NotifyTimerWillStop,
		domain.NotifyTimerStopped,
	}, h.notifier.kinds())
	assert.Equal(t, []string{"start:Site", "end:170"}, h.live.all())
}

func TestEngine_ExitBeforeStartDelayCancels(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 2, 2))

	require.NoError(t, h.sampleAt(10))
	require.Equal(t, domain.StateEntering, h.engine.Status().State)
	require.Equal(t, 1, h.clock.Pending())

	h.clock.Advance(90 * time.Second)
	require.NoError(t, h.sampleAt(500))

	assert.Equal(t, domain.StateInactive, h.engine.Status().State)
	assert.Zero(t, h.clock.Pending(), "start timer must be cancelled, not ignored")

	h.clock.Advance(10 * time.Minute)
	assert.Nil(t, h.sessions.current())
	assert.Zero(t, h.sessions.created)
}

func TestEngine_ReentryWhileLeavingKeepsSession(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 0, 3))

	require.NoError(t, h.sampleAt(0))
	require.Equal(t, domain.StateActive, h.engine.Status().State, "zero start delay starts immediately")
	start := h.sessions.current().StartTime

	h.clock.Advance(time.Hour)
	require.NoError(t, h.sampleAt(300))
	require.Equal(t, domain.StateLeaving, h.engine.Status().State)

	h.clock.Advance(2 * time.Minute)
	require.NoError(t, h.sampleAt(20))
	assert.Equal(t, domain.StateActive, h.engine.Status().State)
	assert.Zero(t, h.clock.Pending())

	h.clock.Advance(10 * time.Minute)
	s := h.sessions.current()
	require.NotNil(t, s)
	assert.True(t, start.Equal(s.StartTime), "session continues uninterrupted")
	assert.Empty(t, h.sessions.days())
	assert.Equal(t, 1, h.sessions.created)
}

func TestEngine_ZeroStopDelayFinalizesImmediately(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 0, 0))

	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(2 * time.Hour)
	require.NoError(t, h.sampleAt(1000))

	assert.Equal(t, domain.StateInactive, h.engine.Status().State)
	require.Len(t, h.sessions.days(), 1)
	assert.InDelta(t, 2.0, h.sessions.days()[0].Hours, 1e-9)
}

func TestEngine_SameDaySessionsMerge(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 0, 0))

	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(90 * time.Minute)
	require.NoError(t, h.sampleAt(1000))

	h.clock.Advance(30 * time.Minute)
	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(3 * time.Hour)
	require.NoError(t, h.sampleAt(1000))

	days := h.sessions.days()
	require.Len(t, days, 1)
	assert.InDelta(t, 4.5, days[0].Hours, 1e-9)
	assert.Equal(t, "Auto-started\n---\nAuto-started", days[0].Notes)
	assert.Equal(t, "08:00", days[0].ActualStart)
	assert.Equal(t, "13:00", days[0].ActualEnd)
}

func TestEngine_EnableConflictLeavesOwnerUntouched(t *testing.T) {
	a := siteJob("a", "Alpha", 50, 0, 0)
	a.AutoTimer.Enabled = true
	b := siteJob("b", "Bravo", 50, 0, 0)
	h := startedHarness(t, a, b)

	res, err := h.engine.EnableAutoTimer(context.Background(), "b")
	require.NoError(t, err)
	require.NotNil(t, res.Conflict)
	assert.False(t, res.Enabled)
	assert.Equal(t, "a", res.Conflict.JobID)
	assert.Equal(t, "Alpha", res.Conflict.JobName)

	assert.True(t, h.jobs.enabled("a"))
	assert.False(t, h.jobs.enabled("b"))
	assert.Equal(t, "a", h.engine.Status().JobID)
}

func TestEngine_ForceEnableSwitchesAndFinalizes(t *testing.T) {
	a := siteJob("a", "Alpha", 50, 0, 0)
	a.AutoTimer.Enabled = true
	b := siteJob("b", "Bravo", 50, 0, 0)
	h := startedHarness(t, a, b)

	require.NoError(t, h.sampleAt(0))
	require.Equal(t, domain.StateActive, h.engine.Status().State)
	h.clock.Advance(time.Hour)

	res, err := h.engine.ForceEnableAutoTimer(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "a", res.PreviousJobID)
	require.NotNil(t, res.Finalized)
	assert.InDelta(t, 1.0, res.Finalized.Hours, 1e-9)

	assert.False(t, h.jobs.enabled("a"))
	assert.True(t, h.jobs.enabled("b"))
	assert.Nil(t, h.sessions.current())
	st := h.engine.Status()
	assert.Equal(t, "b", st.JobID)
	// Still standing at the same spot, which is also Bravo's site.
	assert.Equal(t, domain.StateInactive, st.State)
	require.NoError(t, h.sampleAt(0))
	assert.Equal(t, domain.StateActive, h.engine.Status().State)
	assert.Equal(t, "b", h.sessions.current().JobID)
}

func TestEngine_EnableUnknownJob(t *testing.T) {
	h := startedHarness(t)
	_, err := h.engine.EnableAutoTimer(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestEngine_DisableFinalizesAutoSession(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 0, 5))

	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(time.Hour)
	require.NoError(t, h.sampleAt(500))
	require.Equal(t, 1, h.clock.Pending())

	require.NoError(t, h.engine.DisableAutoTimer(context.Background(), "site"))
	assert.Zero(t, h.clock.Pending(), "disable cancels the pending stop")
	assert.False(t, h.jobs.enabled("site"))
	assert.Nil(t, h.sessions.current())
	require.Len(t, h.sessions.days(), 1)

	st := h.engine.Status()
	assert.Equal(t, domain.StateInactive, st.State)
	assert.Empty(t, st.JobID)

	assert.ErrorIs(t, h.engine.DisableAutoTimer(context.Background(), "site"), ErrNotMonitored)
}

func TestEngine_DisableKeepsManualSession(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 2, 2))
	ctx := context.Background()

	require.NoError(t, h.engine.StartManual(ctx, "site", "overtime"))
	require.NoError(t, h.engine.DisableAutoTimer(ctx, "site"))

	require.NotNil(t, h.sessions.current())
	assert.Equal(t, domain.StateManual, h.engine.Status().State)
}

func TestEngine_PauseResumeAutoSession(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 0, 2))
	ctx := context.Background()

	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(30 * time.Minute)
	require.NoError(t, h.sampleAt(300))
	require.Equal(t, domain.StateLeaving, h.engine.Status().State)

	require.NoError(t, h.engine.PauseActive(ctx))
	st := h.engine.Status()
	assert.Equal(t, domain.StateManual, st.State)
	assert.True(t, st.Paused)
	assert.Equal(t, "Paused at Site", st.Message)
	assert.Zero(t, h.clock.Pending(), "pause cancels the pending stop")
	assert.ErrorIs(t, h.engine.PauseActive(ctx), domain.ErrSessionPaused)

	// Samples never touch a paused session.
	h.clock.Advance(time.Hour)
	require.NoError(t, h.sampleAt(0))
	require.NoError(t, h.sampleAt(900))
	assert.Equal(t, domain.StateManual, h.engine.Status().State)

	elapsed, err := h.engine.ElapsedSeconds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1800, elapsed)

	require.NoError(t, h.engine.ResumeActive(ctx))
	assert.Equal(t, domain.StateActive, h.engine.Status().State)
	elapsed, err = h.engine.ElapsedSeconds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1800, elapsed)
	assert.ErrorIs(t, h.engine.ResumeActive(ctx), domain.ErrSessionNotPaused)
	assert.Zero(t, h.sessions.violations)
}

func TestEngine_StopThenFreshCycle(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 1, 1))
	ctx := context.Background()

	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(time.Minute)
	require.Equal(t, domain.StateActive, h.engine.Status().State)
	h.clock.Advance(time.Hour)

	res, err := h.engine.StopActive(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.Hours, 1e-9)
	assert.False(t, res.Merged)
	assert.Equal(t, domain.StateManual, h.engine.Status().State)

	// Still inside: no new session.
	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(5 * time.Minute)
	assert.Equal(t, domain.StateManual, h.engine.Status().State)
	assert.Nil(t, h.sessions.current())

	require.NoError(t, h.sampleAt(800))
	assert.Equal(t, domain.StateInactive, h.engine.Status().State)
	require.NoError(t, h.sampleAt(0))
	assert.Equal(t, domain.StateEntering, h.engine.Status().State)

	_, err = h.engine.StopActive(ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestEngine_StartManualRejectsSecondSession(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 0, 0), siteJob("other", "Other", 50, 0, 0))
	ctx := context.Background()

	require.NoError(t, h.engine.StartManual(ctx, "other", "by hand"))
	assert.ErrorIs(t, h.engine.StartManual(ctx, "site", ""), ErrSessionActive)

	st := h.engine.Status()
	assert.Equal(t, domain.StateManual, st.State)
	assert.Equal(t, "Other", st.JobName)

	// Arriving at the monitored site does not start a second session.
	require.NoError(t, h.sampleAt(0))
	assert.Equal(t, "other", h.sessions.current().JobID)
	assert.Equal(t, 1, h.sessions.created)
	assert.Equal(t, []string{"start:Other"}, h.live.all())
}

func TestEngine_SetManualModeSuspendsAutomatic(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 2, 2))
	ctx := context.Background()

	require.NoError(t, h.sampleAt(0))
	require.NoError(t, h.engine.SetManualMode(ctx))
	assert.Zero(t, h.clock.Pending())
	h.clock.Advance(5 * time.Minute)
	assert.Nil(t, h.sessions.current())
	assert.Equal(t, "Manual control, automatic start and stop suspended", h.engine.Status().Message)
}

func TestEngine_ModeGatesSampleOrigin(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 0, 0))
	ctx := context.Background()

	bg := Sample{Coordinate: metresNorth(0), Origin: domain.OriginBackground}
	require.NoError(t, h.engine.HandleSample(ctx, bg))
	assert.Equal(t, domain.StateInactive, h.engine.Status().State)

	h.engine.ApplyMode(domain.ModeSettings{Mode: domain.ModeBackgroundAllowed})
	require.NoError(t, h.engine.HandleSample(ctx, bg))
	assert.Equal(t, domain.StateActive, h.engine.Status().State)

	relaunch := Sample{Coordinate: metresNorth(900), Origin: domain.OriginRelaunch}
	require.NoError(t, h.engine.HandleSample(ctx, relaunch))
	assert.Equal(t, domain.StateActive, h.engine.Status().State)
}

func TestEngine_FullBackgroundWidensRadius(t *testing.T) {
	h := startedHarness(t, enabledSite(30, 0, 0))

	require.NoError(t, h.sampleAt(40))
	assert.Equal(t, domain.StateInactive, h.engine.Status().State)

	h.engine.ApplyMode(domain.ModeSettings{Mode: domain.ModeFullBackground, HasBackgroundPermission: true})
	require.NoError(t, h.sampleAt(40))
	assert.Equal(t, domain.StateActive, h.engine.Status().State)
}

func TestEngine_CoarseSampleIgnored(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 0, 0))

	err := h.engine.HandleSample(context.Background(), Sample{
		Coordinate: metresNorth(0), AccuracyMeters: 1500, Origin: domain.OriginForeground,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateInactive, h.engine.Status().State)
}

func TestEngine_SaveFailureLeavesNoSession(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 0, 0))
	h.sessions.failSave = errors.New("disk full")

	require.NoError(t, h.sampleAt(0))
	assert.Equal(t, domain.StateInactive, h.engine.Status().State)
	assert.Nil(t, h.sessions.current())
}

func TestEngine_ListenersSeeTransitionsInOrder(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 1, 1))

	var states []domain.TimerState
	sub := h.engine.AddStatusListener(func(st domain.AutoTimerStatus) {
		states = append(states, st.State)
	})

	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(time.Minute)
	require.NoError(t, h.sampleAt(500))
	h.clock.Advance(time.Minute)

	assert.Equal(t, []domain.TimerState{
		domain.StateEntering, domain.StateActive, domain.StateLeaving, domain.StateInactive,
	}, states)

	assert.True(t, h.engine.RemoveStatusListener(sub))
	require.NoError(t, h.sampleAt(0))
	assert.Len(t, states, 4)
}

func TestEngine_TicksRebroadcastCountdown(t *testing.T) {
	h := newHarness(enabledSite(50, 1, 1))
	h.engine = NewEngine(Deps{
		Jobs: h.jobs, Sessions: h.sessions, Clock: h.clock,
	}, Config{TickInterval: 10 * time.Second})
	require.NoError(t, h.engine.Start(context.Background()))
	t.Cleanup(h.engine.Close)

	var remaining []int
	h.engine.AddStatusListener(func(st domain.AutoTimerStatus) {
		if st.State == domain.StateEntering {
			remaining = append(remaining, st.RemainingSeconds)
		}
	})

	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(30 * time.Second)

	assert.Equal(t, []int{60, 50, 40, 30}, remaining)
}

func TestEngine_StaleTimerFireDiscarded(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 2, 2))

	require.NoError(t, h.sampleAt(0))
	h.engine.mu.Lock()
	staleGen := h.engine.pending.gen
	h.engine.mu.Unlock()

	require.NoError(t, h.sampleAt(900))
	require.NoError(t, h.sampleAt(0))

	// A callback from the first arming that slipped past Stop.
	h.engine.onTimer(staleGen)
	assert.Equal(t, domain.StateEntering, h.engine.Status().State)
	assert.Nil(t, h.sessions.current())
}

func TestEngine_RestoreFiresExpiredPendingStart(t *testing.T) {
	h := newHarness(enabledSite(50, 2, 2))
	h.snapshots.snap = &Snapshot{
		State:         domain.StateEntering,
		JobID:         "site",
		PendingAction: string(actionStart),
		Deadline:      t0.Add(-time.Minute),
		TotalDelaySec: 120,
	}

	require.NoError(t, h.engine.Start(context.Background()))
	t.Cleanup(h.engine.Close)

	assert.Equal(t, domain.StateActive, h.engine.Status().State)
	require.NotNil(t, h.sessions.current())
}

func TestEngine_RestoreRearmsRemainingStop(t *testing.T) {
	h := newHarness(enabledSite(50, 2, 5))
	h.sessions.active = &domain.ActiveSession{JobID: "site", StartTime: t0.Add(-time.Hour), Notes: domain.AutoStartedNote, Source: domain.SourceAuto}
	h.sessions.created = 1
	h.snapshots.snap = &Snapshot{
		State:         domain.StateLeaving,
		JobID:         "site",
		PendingAction: string(actionStop),
		Deadline:      t0.Add(90 * time.Second),
		TotalDelaySec: 300,
	}

	require.NoError(t, h.engine.Start(context.Background()))
	t.Cleanup(h.engine.Close)

	st := h.engine.Status()
	assert.Equal(t, domain.StateLeaving, st.State)
	assert.Equal(t, 90, st.RemainingSeconds)
	assert.Equal(t, 300, st.TotalDelaySeconds)

	h.clock.Advance(90 * time.Second)
	assert.Equal(t, domain.StateInactive, h.engine.Status().State)
	require.Len(t, h.sessions.days(), 1)
}

func TestEngine_RestoreWithoutSnapshotUsesSession(t *testing.T) {
	h := newHarness(enabledSite(50, 2, 2))
	h.sessions.active = &domain.ActiveSession{JobID: "site", StartTime: t0.Add(-time.Hour), Notes: "typed by hand", Source: domain.SourceManual}

	require.NoError(t, h.engine.Start(context.Background()))
	t.Cleanup(h.engine.Close)
	assert.Equal(t, domain.StateManual, h.engine.Status().State)
}

func TestEngine_SnapshotTracksPendingAction(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 3, 3))

	require.NoError(t, h.sampleAt(0))
	snap, err := h.snapshots.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, domain.StateEntering, snap.State)
	assert.Equal(t, "site", snap.JobID)
	assert.Equal(t, string(actionStart), snap.PendingAction)
	assert.True(t, t0.Add(3*time.Minute).Equal(snap.Deadline))
}

func TestEngine_ReloadJobsShortensPendingDelay(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 10, 10))
	ctx := context.Background()

	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(time.Minute)

	h.jobs.update("site", func(j *domain.Job) { j.AutoTimer.DelayStartMinutes = 2 })
	require.NoError(t, h.engine.ReloadJobs(ctx))
	assert.Equal(t, 120, h.engine.Status().RemainingSeconds)

	h.clock.Advance(2 * time.Minute)
	assert.Equal(t, domain.StateActive, h.engine.Status().State)
}

func TestEngine_ReloadJobsPicksUpNewOwner(t *testing.T) {
	h := startedHarness(t, siteJob("x", "Xray", 50, 0, 0))

	h.jobs.update("x", func(j *domain.Job) { j.AutoTimer.Enabled = true })
	require.NoError(t, h.engine.ReloadJobs(context.Background()))

	assert.Equal(t, "x", h.engine.Status().JobID)
	require.NoError(t, h.sampleAt(0))
	assert.Equal(t, domain.StateActive, h.engine.Status().State)
}

func TestEngine_ClosedRejectsCommands(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 2, 2))
	require.NoError(t, h.sampleAt(0))

	h.engine.Close()
	assert.ErrorIs(t, h.sampleAt(0), ErrClosed)
	h.clock.Advance(5 * time.Minute)
	assert.Nil(t, h.sessions.current())
}

func TestEngine_NotificationsRespectJobSetting(t *testing.T) {
	job := enabledSite(50, 1, 1)
	job.AutoTimer.NotificationsEnabled = false
	h := startedHarness(t, job)

	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(time.Minute)

	assert.Empty(t, h.notifier.kinds())
	assert.Equal(t, []string{"start:Site"}, h.live.all())
}

func TestEngine_ForceEnableSwitchFailureChangesNothing(t *testing.T) {
	a := siteJob("a", "Alpha", 50, 0, 0)
	a.AutoTimer.Enabled = true
	b := siteJob("b", "Bravo", 50, 0, 0)
	h := startedHarness(t, a, b)
	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(time.Hour)

	h.jobs.failSwitch = errors.New("disk full")
	_, err := h.engine.ForceEnableAutoTimer(context.Background(), "b")
	require.ErrorIs(t, err, h.jobs.failSwitch)

	assert.True(t, h.jobs.enabled("a"))
	assert.False(t, h.jobs.enabled("b"))
	require.NotNil(t, h.sessions.current(), "the running session is not finalized")
	assert.Equal(t, "a", h.sessions.current().JobID)
	assert.Empty(t, h.sessions.days())
	st := h.engine.Status()
	assert.Equal(t, domain.StateActive, st.State)
	assert.Equal(t, "a", st.JobID)
}

func TestEngine_ForceEnableFinalizeFailureSettlesManual(t *testing.T) {
	a := siteJob("a", "Alpha", 50, 0, 0)
	a.AutoTimer.Enabled = true
	b := siteJob("b", "Bravo", 50, 0, 0)
	h := startedHarness(t, a, b)
	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(time.Hour)

	h.sessions.failDay = errors.New("disk full")
	_, err := h.engine.ForceEnableAutoTimer(context.Background(), "b")
	require.ErrorIs(t, err, h.sessions.failDay)

	assert.False(t, h.jobs.enabled("a"))
	assert.True(t, h.jobs.enabled("b"))
	require.NotNil(t, h.sessions.current(), "the old session is kept for a manual stop")
	assert.Equal(t, "a", h.sessions.current().JobID)
	assert.Empty(t, h.sessions.days())
	assert.Equal(t, domain.StateManual, h.engine.Status().State)
	assert.Equal(t, domain.StateManual, h.engine.LastStatus().State, "the settled state is broadcast")

	h.sessions.failDay = nil
	fin, err := h.engine.StopActive(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fin.Hours, 1e-9)
}

func TestEngine_StartRetriesAfterFailedRestore(t *testing.T) {
	h := newHarness(enabledSite(50, 0, 0))
	t.Cleanup(h.engine.Close)

	h.jobs.failList = errors.New("database is locked")
	require.ErrorIs(t, h.engine.Start(context.Background()), h.jobs.failList)

	h.jobs.failList = nil
	require.NoError(t, h.engine.Start(context.Background()))
	require.NoError(t, h.sampleAt(0))
	assert.Equal(t, domain.StateActive, h.engine.Status().State)
}

func TestEngine_ListenerReadsLastStatus(t *testing.T) {
	h := startedHarness(t, enabledSite(50, 1, 1))

	var seen []domain.TimerState
	h.engine.AddStatusListener(func(st domain.AutoTimerStatus) {
		assert.Equal(t, st.State, h.engine.LastStatus().State)
		seen = append(seen, h.engine.LastStatus().State)
	})

	require.NoError(t, h.sampleAt(0))
	h.clock.Advance(time.Minute)
	assert.Equal(t, []domain.TimerState{domain.StateEntering, domain.StateActive}, seen)
}
