package autotimer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/geo"
	"github.com/alexanderramin/jobclock/internal/logging"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators an Engine is built from. Jobs and Sessions are
// required; everything else has a usable default.
type Deps struct {
	Jobs      JobStore
	Sessions  SessionStore
	Snapshots SnapshotStore
	Notifier  Notifier
	Live      LiveStatus
	Clock     Clock
	Registry  *Registry
	Effects   EffectRunner
	Logger    *logrus.Entry
}

type Config struct {
	// TickInterval rebroadcasts the countdown while a delay is armed.
	// Zero disables ticking.
	TickInterval time.Duration
	Mode         domain.ModeSettings
}

// Engine is the AutoTimer state machine.
type Engine struct {
	mu     sync.Mutex
	emitMu sync.Mutex

	jobs      JobStore
	sessions  SessionStore
	snapshots SnapshotStore
	notifier  Notifier
	live      LiveStatus
	clock     Clock
	registry  *Registry
	effects   EffectRunner
	finalizer *Finalizer
	log       *logrus.Entry

	tickInterval time.Duration
	mode         domain.ModeSettings

	state          domain.TimerState
	monitoredJobID string
	job            *domain.Job
	pending        *pending
	gen            uint64
	ticker         Timer
	session        sessionView
	started        bool
	closed         bool

	// out collects broadcasts and effects produced while mu is held.
	out []func()
}

// sessionView is what the status needs to know about the active session.
type sessionView struct {
	active  bool
	jobID   string
	jobName string
	paused  bool
}

func NewEngine(d Deps, cfg Config) *Engine {
	e := &Engine{
		jobs:         d.Jobs,
		sessions:     d.Sessions,
		snapshots:    d.Snapshots,
		notifier:     d.Notifier,
		live:         d.Live,
		clock:        d.Clock,
		registry:     d.Registry,
		effects:      d.Effects,
		log:          d.Logger,
		tickInterval: cfg.TickInterval,
		mode:         cfg.Mode,
		state:        domain.StateInactive,
	}
	if e.log == nil {
		e.log = logging.NewLogger("autotimer")
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.registry == nil {
		e.registry = NewRegistry(e.log)
	}
	if e.effects == nil {
		e.effects = InlineEffects{Log: e.log}
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.live == nil {
		e.live = nopLiveStatus{}
	}
	if e.mode.Mode == "" {
		e.mode = domain.DefaultModeSettings()
	}
	e.finalizer = NewFinalizer(e.sessions)
	return e
}

// dispatch is the single entry point that mutates engine state. Broadcasts
// and effects queued by fn run after mu is released, in order, under emitMu
// so concurrent dispatches cannot reorder them. See Listener for what a
// listener may call.
func (e *Engine) dispatch(fn func() error) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	err := fn()
	out := e.out
	e.out = nil

	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()
	for _, f := range out {
		f()
	}
	return err
}

// Start restores persisted state and begins ticking.
func (e *Engine) Start(ctx context.Context) error {
	return e.dispatch(func() error {
		if e.started {
			return nil
		}

		// started stays false on failure so a later Start can retry.
		job, err := e.findEnabledLocked(ctx)
		if err != nil {
			return err
		}
		e.started = true
		e.setJobLocked(job)

		s, err := e.loadSessionLocked(ctx)
		if err != nil {
			e.log.WithError(err).Warn("could not load active session on start")
		}

		var snap *Snapshot
		if e.snapshots != nil {
			snap, err = e.snapshots.LoadSnapshot(ctx)
			if err != nil {
				e.log.WithError(err).Warn("could not load autotimer snapshot")
				snap = nil
			}
		}

		if snap != nil && job != nil && snap.JobID == job.ID && domain.ValidTimerStates[snap.State] {
			e.restoreLocked(ctx, snap, s)
		} else {
			e.settleLocked(s)
		}

		e.scheduleTickLocked()
		e.commitLocked(ctx)
		e.log.WithFields(logrus.Fields{"state": e.state, "job_id": e.monitoredJobID}).Info("autotimer started")
		return nil
	})
}

// Close cancels timers. The persisted snapshot is kept so a later Start
// can pick up where this engine stopped.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.pending != nil {
		e.pending.timer.Stop()
	}
	if e.ticker != nil {
		e.ticker.Stop()
	}
}

func (e *Engine) restoreLocked(ctx context.Context, snap *Snapshot, s *domain.ActiveSession) {
	owned := s != nil && s.JobID == e.job.ID && s.IsAuto() && !s.IsPaused
	switch snap.State {
	case domain.StateEntering:
		if s != nil {
			e.settleLocked(s)
			return
		}
		e.state = domain.StateEntering
		e.resumePendingLocked(ctx, actionStart, snap)
	case domain.StateLeaving:
		if !owned {
			e.settleLocked(s)
			return
		}
		e.state = domain.StateLeaving
		e.resumePendingLocked(ctx, actionStop, snap)
	case domain.StateManual:
		e.state = domain.StateManual
	default:
		e.settleLocked(s)
	}
}

// resumePendingLocked re-arms a delay that was running when the snapshot
// was taken. A deadline already in the past fires straight away.
func (e *Engine) resumePendingLocked(ctx context.Context, kind actionKind, snap *Snapshot) {
	cfg := e.job.AutoTimer.Normalize(e.mode.Mode)
	full := cfg.DelayStart()
	if kind == actionStop {
		full = cfg.DelayStop()
	}
	if snap.PendingAction != string(kind) || snap.Deadline.IsZero() {
		if full <= 0 {
			e.firePendingLocked(ctx, kind)
			return
		}
		e.armLocked(kind, full, full)
		return
	}

	remaining := snap.Deadline.Sub(e.clock.Now())
	if remaining <= 0 {
		e.log.WithField("action", kind).Info("pending action expired while stopped, firing")
		e.firePendingLocked(ctx, kind)
		return
	}
	total := time.Duration(snap.TotalDelaySec) * time.Second
	if total < remaining {
		total = remaining
	}
	e.armLocked(kind, remaining, total)
}

// settleLocked derives a resting state from the active session alone.
func (e *Engine) settleLocked(s *domain.ActiveSession) {
	switch {
	case s == nil:
		e.state = domain.StateInactive
	case e.job != nil && s.JobID == e.job.ID && s.IsAuto() && !s.IsPaused:
		e.state = domain.StateActive
	default:
		e.state = domain.StateManual
	}
}

// HandleSample evaluates one location fix against the monitored job.
func (e *Engine) HandleSample(ctx context.Context, s Sample) error {
	return e.dispatch(func() error {
		e.handleSampleLocked(ctx, s)
		return nil
	})
}

func (e *Engine) handleSampleLocked(ctx context.Context, s Sample) {
	log := e.log.WithFields(logrus.Fields{"origin": s.Origin, "state": e.state})
	if !e.mode.Mode.Allows(s.Origin) {
		log.WithField("mode", e.mode.Mode).Debug("sample origin not permitted in mode")
		return
	}
	job := e.job
	if job == nil || !job.HasLocation() {
		return
	}
	radius := float64(job.EffectiveRadius(e.mode.Mode))
	if !geo.AccuracyAcceptable(s.AccuracyMeters, radius) {
		log.WithField("accuracy_m", s.AccuracyMeters).Debug("sample too coarse, ignoring")
		return
	}
	fix := s.Coordinate
	prox := geo.Evaluate(&fix, job.Location, radius)
	log.WithFields(logrus.Fields{"distance_m": math.Round(prox.DistanceMeters), "inside": prox.Inside}).Debug("sample evaluated")

	switch e.state {
	case domain.StateInactive:
		if prox.Inside {
			e.beginEnteringLocked(ctx)
		}
	case domain.StateEntering:
		if !prox.Inside {
			e.cancelPendingLocked()
			e.state = domain.StateInactive
			e.commitLocked(ctx)
		}
	case domain.StateActive:
		if !prox.Inside {
			e.beginLeavingLocked(ctx)
		}
	case domain.StateLeaving:
		if prox.Inside {
			e.cancelPendingLocked()
			e.state = domain.StateActive
			e.commitLocked(ctx)
		}
	case domain.StateManual:
		// Automatic control resumes only after a full exit once no
		// session is left.
		sess, err := e.loadSessionLocked(ctx)
		if err != nil {
			log.WithError(err).Warn("could not load active session")
			return
		}
		if sess == nil && !prox.Inside {
			e.state = domain.StateInactive
			e.commitLocked(ctx)
		}
	}
}

func (e *Engine) beginEnteringLocked(ctx context.Context) {
	e.state = domain.StateEntering
	delay := e.job.AutoTimer.Normalize(e.mode.Mode).DelayStart()
	if delay <= 0 {
		e.startAutoSessionLocked(ctx)
		return
	}
	e.armLocked(actionStart, delay, delay)
	e.notifyLocked(domain.NotifyTimerWillStart, map[string]any{"minutes": int(delay / time.Minute)})
	e.commitLocked(ctx)
}

func (e *Engine) beginLeavingLocked(ctx context.Context) {
	e.state = domain.StateLeaving
	delay := e.job.AutoTimer.Normalize(e.mode.Mode).DelayStop()
	if delay <= 0 {
		e.stopAutoSessionLocked(ctx)
		return
	}
	e.armLocked(actionStop, delay, delay)
	e.notifyLocked(domain.NotifyTimerWillStop, map[string]any{"minutes": int(delay / time.Minute)})
	e.commitLocked(ctx)
}

func (e *Engine) startAutoSessionLocked(ctx context.Context) {
	job := e.job
	log := e.log.WithField("job_id", job.ID)

	existing, err := e.loadSessionLocked(ctx)
	if err != nil {
		log.WithError(err).Error("could not check for an active session, not starting")
		e.state = domain.StateInactive
		e.commitLocked(ctx)
		return
	}
	if existing != nil {
		if existing.JobID == job.ID && existing.IsAuto() && !existing.IsPaused {
			e.state = domain.StateActive
		} else {
			log.WithField("session_job_id", existing.JobID).Info("session already active, suppressing automatic start")
			e.state = domain.StateManual
		}
		e.commitLocked(ctx)
		return
	}

	s := &domain.ActiveSession{
		JobID:     job.ID,
		StartTime: e.clock.Now(),
		Notes:     domain.AutoStartedNote,
		Source:    domain.SourceAuto,
	}
	if err := e.sessions.SaveActiveSession(ctx, s); err != nil {
		log.WithError(err).Error("could not save automatic session")
		e.state = domain.StateInactive
		e.commitLocked(ctx)
		return
	}
	e.trackSessionLocked(ctx, s)
	e.state = domain.StateActive
	log.Info("automatic session started")
	e.notifyLocked(domain.NotifyTimerStarted, nil)
	e.liveStartLocked(job.Name, job.Address, s.StartTime)
	e.commitLocked(ctx)
}

func (e *Engine) stopAutoSessionLocked(ctx context.Context) {
	log := e.log.WithField("job_id", e.monitoredJobID)
	e.state = domain.StateInactive

	s, err := e.loadSessionLocked(ctx)
	if err != nil {
		log.WithError(err).Error("could not load session to stop")
		e.commitLocked(ctx)
		return
	}
	if s == nil {
		e.commitLocked(ctx)
		return
	}
	if s.JobID != e.monitoredJobID {
		e.state = domain.StateManual
		e.commitLocked(ctx)
		return
	}

	res, err := e.finalizer.Finalize(ctx, s, e.clock.Now())
	if err != nil {
		log.WithError(err).Error("could not finalize automatic session")
		e.commitLocked(ctx)
		return
	}
	e.trackSessionLocked(ctx, nil)
	log.WithFields(logrus.Fields{"hours": res.Hours, "merged": res.Merged}).Info("automatic session stopped")
	e.notifyLocked(domain.NotifyTimerStopped, map[string]any{"hours": res.Hours})
	e.liveEndLocked(res.ElapsedSeconds)
	e.commitLocked(ctx)
}

// EnableAutoTimer hands the AutoTimer to jobID. If another job owns it the
// result carries a Conflict and nothing changes.
func (e *Engine) EnableAutoTimer(ctx context.Context, jobID string) (EnableResult, error) {
	var res EnableResult
	err := e.dispatch(func() error {
		job, err := e.jobs.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if c := e.conflictLocked(ctx, jobID); c != nil {
			res.Conflict = c
			return nil
		}
		if !job.AutoTimer.Enabled {
			if err := e.jobs.SetAutoTimerEnabled(ctx, jobID, true); err != nil {
				return fmt.Errorf("enabling autotimer: %w", err)
			}
			job.AutoTimer.Enabled = true
		}
		res.Enabled = true
		if e.monitoredJobID == jobID {
			e.job = job
			e.commitLocked(ctx)
			return nil
		}
		e.monitorLocked(ctx, job)
		return nil
	})
	return res, err
}

// ForceEnableAutoTimer takes the AutoTimer away from whichever job owns it,
// finalizing that job's session, and gives it to jobID.
func (e *Engine) ForceEnableAutoTimer(ctx context.Context, jobID string) (SwitchResult, error) {
	var res SwitchResult
	err := e.dispatch(func() error {
		job, err := e.jobs.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if c := e.conflictLocked(ctx, jobID); c != nil {
			res.PreviousJobID = c.JobID
		}

		// Ownership moves first. If it fails nothing has changed yet.
		if err := e.jobs.SwitchAutoTimer(ctx, jobID); err != nil {
			return fmt.Errorf("switching autotimer: %w", err)
		}
		job.AutoTimer.Enabled = true
		e.cancelPendingLocked()
		e.log.WithFields(logrus.Fields{"job_id": jobID, "previous_job_id": res.PreviousJobID}).Info("autotimer switched")

		s, err := e.loadSessionLocked(ctx)
		if err != nil {
			e.monitorLocked(ctx, job)
			return err
		}
		var finErr error
		if s != nil && res.PreviousJobID != "" && s.JobID == res.PreviousJobID {
			fin, err := e.finalizer.Finalize(ctx, s, e.clock.Now())
			if err != nil {
				// The old session survives and the engine settles in manual.
				finErr = fmt.Errorf("finalizing session of %s: %w", s.JobID, err)
			} else {
				res.Finalized = fin
				e.trackSessionLocked(ctx, nil)
				e.liveEndLocked(fin.ElapsedSeconds)
			}
		}
		e.monitorLocked(ctx, job)
		return finErr
	})
	return res, err
}

// DisableAutoTimer releases the AutoTimer from jobID. A running automatic
// session for the job is finalized; a manual one keeps running.
func (e *Engine) DisableAutoTimer(ctx context.Context, jobID string) error {
	return e.dispatch(func() error {
		job, err := e.jobs.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		if !job.AutoTimer.Enabled && e.monitoredJobID != jobID {
			return ErrNotMonitored
		}
		if err := e.jobs.SetAutoTimerEnabled(ctx, jobID, false); err != nil {
			return fmt.Errorf("disabling autotimer: %w", err)
		}
		if e.monitoredJobID != jobID {
			return nil
		}

		e.cancelPendingLocked()
		s, err := e.loadSessionLocked(ctx)
		if err != nil {
			e.log.WithError(err).Warn("could not load session while disabling")
		}
		if s != nil && s.JobID == jobID && s.IsAuto() {
			fin, err := e.finalizer.Finalize(ctx, s, e.clock.Now())
			if err != nil {
				return fmt.Errorf("finalizing session: %w", err)
			}
			s = nil
			e.trackSessionLocked(ctx, nil)
			e.liveEndLocked(fin.ElapsedSeconds)
		}
		e.setJobLocked(nil)
		e.settleLocked(s)
		e.commitLocked(ctx)
		return nil
	})
}

// StartManual begins a user-started session. Automatic control is
// suspended until it ends and a fresh geofence entry happens.
func (e *Engine) StartManual(ctx context.Context, jobID, notes string) error {
	return e.dispatch(func() error {
		job, err := e.jobs.GetJob(ctx, jobID)
		if err != nil {
			return err
		}
		s, err := e.loadSessionLocked(ctx)
		if err != nil {
			return err
		}
		if s != nil {
			return ErrSessionActive
		}

		e.cancelPendingLocked()
		ns := &domain.ActiveSession{
			JobID:     job.ID,
			StartTime: e.clock.Now(),
			Notes:     notes,
			Source:    domain.SourceManual,
		}
		if err := e.sessions.SaveActiveSession(ctx, ns); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
		e.trackSessionLocked(ctx, ns)
		e.state = domain.StateManual
		e.liveStartLocked(job.Name, job.Address, ns.StartTime)
		e.commitLocked(ctx)
		return nil
	})
}

func (e *Engine) PauseActive(ctx context.Context) error {
	return e.dispatch(func() error {
		s, err := e.loadSessionLocked(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return ErrNoActiveSession
		}
		if err := s.Pause(e.clock.Now()); err != nil {
			return err
		}
		if err := e.sessions.SaveActiveSession(ctx, s); err != nil {
			return fmt.Errorf("saving paused session: %w", err)
		}
		e.trackSessionLocked(ctx, s)
		e.cancelPendingLocked()
		e.state = domain.StateManual
		e.commitLocked(ctx)
		return nil
	})
}

// ResumeActive continues a paused session. An automatic session of the
// monitored job returns to active; any other stays under manual control.
func (e *Engine) ResumeActive(ctx context.Context) error {
	return e.dispatch(func() error {
		s, err := e.loadSessionLocked(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return ErrNoActiveSession
		}
		if err := s.Resume(e.clock.Now()); err != nil {
			return err
		}
		if err := e.sessions.SaveActiveSession(ctx, s); err != nil {
			return fmt.Errorf("saving resumed session: %w", err)
		}
		e.trackSessionLocked(ctx, s)
		if e.job != nil && s.JobID == e.job.ID && s.IsAuto() {
			e.state = domain.StateActive
		} else {
			e.state = domain.StateManual
		}
		e.commitLocked(ctx)
		return nil
	})
}

// StopActive finalizes the active session into a work-day record.
func (e *Engine) StopActive(ctx context.Context) (*FinalizeResult, error) {
	var res *FinalizeResult
	err := e.dispatch(func() error {
		s, err := e.loadSessionLocked(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return ErrNoActiveSession
		}
		e.cancelPendingLocked()
		fin, err := e.finalizer.Finalize(ctx, s, e.clock.Now())
		if err != nil {
			return fmt.Errorf("finalizing session: %w", err)
		}
		res = fin
		e.trackSessionLocked(ctx, nil)
		if e.job != nil {
			e.state = domain.StateManual
		} else {
			e.state = domain.StateInactive
		}
		e.liveEndLocked(fin.ElapsedSeconds)
		e.commitLocked(ctx)
		return nil
	})
	return res, err
}

// SetManualMode suspends automatic control without touching the session.
func (e *Engine) SetManualMode(ctx context.Context) error {
	return e.dispatch(func() error {
		e.cancelPendingLocked()
		if _, err := e.loadSessionLocked(ctx); err != nil {
			e.log.WithError(err).Warn("could not load active session")
		}
		e.state = domain.StateManual
		e.commitLocked(ctx)
		return nil
	})
}

// ApplyMode switches the sampling policy the engine enforces.
func (e *Engine) ApplyMode(settings domain.ModeSettings) {
	_ = e.dispatch(func() error {
		if e.mode.Mode != settings.Mode {
			e.log.WithFields(logrus.Fields{"from": e.mode.Mode, "to": settings.Mode}).Info("location mode changed")
		}
		e.mode = settings
		e.publishLocked()
		return nil
	})
}

// ReloadJobs picks up job edits. If the owning job changed the engine
// starts over for it; if only its delays changed an armed timer is
// shortened to the new delay when that is sooner.
func (e *Engine) ReloadJobs(ctx context.Context) error {
	return e.dispatch(func() error {
		job, err := e.findEnabledLocked(ctx)
		if err != nil {
			return err
		}
		switch {
		case job == nil && e.job == nil:
			return nil
		case job == nil || e.job == nil || job.ID != e.job.ID:
			e.monitorLocked(ctx, job)
			return nil
		}

		e.job = job
		if p := e.pending; p != nil {
			cfg := job.AutoTimer.Normalize(e.mode.Mode)
			delay := cfg.DelayStart()
			if p.kind == actionStop {
				delay = cfg.DelayStop()
			}
			if delay < p.remaining(e.clock.Now()) {
				kind := p.kind
				if delay <= 0 {
					e.cancelPendingLocked()
					e.firePendingLocked(ctx, kind)
					return nil
				}
				e.armLocked(kind, delay, delay)
			}
		}
		e.commitLocked(ctx)
		return nil
	})
}

// Status returns the current status snapshot.
func (e *Engine) Status() domain.AutoTimerStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked()
}

// LastStatus returns the last broadcast status without taking the engine
// lock. It is the only status accessor a Listener may call.
func (e *Engine) LastStatus() domain.AutoTimerStatus {
	return e.registry.Current()
}

// Mode returns the mode settings the engine is enforcing.
func (e *Engine) Mode() domain.ModeSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// ElapsedSeconds returns the active session's elapsed time, or 0.
func (e *Engine) ElapsedSeconds(ctx context.Context) (int, error) {
	var n int
	err := e.dispatch(func() error {
		s, err := e.loadSessionLocked(ctx)
		if err != nil {
			return err
		}
		if s != nil {
			n = s.Elapsed(e.clock.Now())
		}
		return nil
	})
	return n, err
}

// AddStatusListener registers l. l must not call Engine methods; see Listener.
func (e *Engine) AddStatusListener(l Listener) Subscription {
	return e.registry.Add(l)
}

func (e *Engine) RemoveStatusListener(s Subscription) bool {
	return e.registry.Remove(s)
}

// Watch streams statuses until ctx is done.
func (e *Engine) Watch(ctx context.Context) <-chan domain.AutoTimerStatus {
	return e.registry.Watch(ctx)
}

func (e *Engine) conflictLocked(ctx context.Context, jobID string) *Conflict {
	if e.job != nil && e.monitoredJobID != jobID {
		return &Conflict{JobID: e.job.ID, JobName: e.job.Name}
	}
	jobs, err := e.jobs.ListJobs(ctx)
	if err != nil {
		e.log.WithError(err).Warn("could not list jobs for conflict check")
		return nil
	}
	for _, j := range jobs {
		if j.ID != jobID && j.AutoTimer.Enabled {
			return &Conflict{JobID: j.ID, JobName: j.Name}
		}
	}
	return nil
}

// findEnabledLocked returns the job that owns the AutoTimer, or nil.
func (e *Engine) findEnabledLocked(ctx context.Context) (*domain.Job, error) {
	jobs, err := e.jobs.ListJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	var owner *domain.Job
	for _, j := range jobs {
		if !j.AutoTimer.Enabled {
			continue
		}
		if owner != nil {
			e.log.WithFields(logrus.Fields{"job_id": j.ID, "owner_id": owner.ID}).Warn("more than one job has the autotimer enabled, ignoring")
			continue
		}
		owner = j
	}
	return owner, nil
}

func (e *Engine) monitorLocked(ctx context.Context, job *domain.Job) {
	e.cancelPendingLocked()
	e.setJobLocked(job)
	s, err := e.loadSessionLocked(ctx)
	if err != nil {
		e.log.WithError(err).Warn("could not load active session")
	}
	e.settleLocked(s)
	e.commitLocked(ctx)
}

func (e *Engine) setJobLocked(job *domain.Job) {
	e.job = job
	e.monitoredJobID = ""
	if job != nil {
		e.monitoredJobID = job.ID
	}
}

func (e *Engine) loadSessionLocked(ctx context.Context) (*domain.ActiveSession, error) {
	s, err := e.sessions.GetActiveSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active session: %w", err)
	}
	e.trackSessionLocked(ctx, s)
	return s, nil
}

func (e *Engine) trackSessionLocked(ctx context.Context, s *domain.ActiveSession) {
	if s == nil {
		e.session = sessionView{}
		return
	}
	v := sessionView{active: true, jobID: s.JobID, paused: s.IsPaused}
	switch {
	case e.job != nil && e.job.ID == s.JobID:
		v.jobName = e.job.Name
	case e.session.jobID == s.JobID && e.session.jobName != "":
		v.jobName = e.session.jobName
	default:
		if j, err := e.jobs.GetJob(ctx, s.JobID); err == nil {
			v.jobName = j.Name
		}
	}
	e.session = v
}

func (e *Engine) armLocked(kind actionKind, d, total time.Duration) {
	e.cancelPendingLocked()
	e.gen++
	gen := e.gen
	p := &pending{kind: kind, deadline: e.clock.Now().Add(d), total: total, gen: gen}
	p.timer = e.clock.AfterFunc(d, func() { e.onTimer(gen) })
	e.pending = p
}

func (e *Engine) cancelPendingLocked() {
	if e.pending == nil {
		return
	}
	e.pending.timer.Stop()
	e.pending = nil
}

func (e *Engine) onTimer(gen uint64) {
	ctx := context.Background()
	_ = e.dispatch(func() error {
		p := e.pending
		if p == nil || p.gen != gen {
			e.log.WithField("gen", gen).Debug("discarding stale timer")
			return nil
		}
		e.pending = nil
		e.firePendingLocked(ctx, p.kind)
		return nil
	})
}

func (e *Engine) firePendingLocked(ctx context.Context, kind actionKind) {
	switch kind {
	case actionStart:
		if e.state == domain.StateEntering {
			e.startAutoSessionLocked(ctx)
		}
	case actionStop:
		if e.state == domain.StateLeaving {
			e.stopAutoSessionLocked(ctx)
		}
	}
}

func (e *Engine) scheduleTickLocked() {
	if e.tickInterval <= 0 {
		return
	}
	e.ticker = e.clock.AfterFunc(e.tickInterval, e.onTick)
}

func (e *Engine) onTick() {
	_ = e.dispatch(func() error {
		if e.pending != nil {
			e.publishLocked()
		}
		e.scheduleTickLocked()
		return nil
	})
}

func (e *Engine) statusLocked() domain.AutoTimerStatus {
	st := domain.AutoTimerStatus{State: e.state}
	if e.job != nil {
		st.JobID = e.job.ID
		st.JobName = e.job.Name
	}
	if e.state == domain.StateManual && e.session.active {
		st.JobID = e.session.jobID
		st.JobName = e.session.jobName
		st.Paused = e.session.paused
	}
	if p := e.pending; p != nil {
		st.RemainingSeconds = int(math.Ceil(p.remaining(e.clock.Now()).Seconds()))
		st.TotalDelaySeconds = int(p.total / time.Second)
	}
	st.Message = domain.HumanMessage(st)
	return st
}

// commitLocked persists the snapshot and queues a broadcast.
func (e *Engine) commitLocked(ctx context.Context) {
	e.saveSnapshotLocked(ctx)
	e.publishLocked()
}

func (e *Engine) publishLocked() {
	st := e.statusLocked()
	e.out = append(e.out, func() { e.registry.Broadcast(st) })
}

func (e *Engine) saveSnapshotLocked(ctx context.Context) {
	if e.snapshots == nil {
		return
	}
	snap := &Snapshot{State: e.state, JobID: e.monitoredJobID, SavedAt: e.clock.Now().UTC()}
	if p := e.pending; p != nil {
		snap.PendingAction = string(p.kind)
		snap.Deadline = p.deadline.UTC()
		snap.TotalDelaySec = int(p.total / time.Second)
	}
	if err := e.snapshots.SaveSnapshot(ctx, snap); err != nil {
		e.log.WithError(err).Warn("could not save autotimer snapshot")
	}
}

func (e *Engine) notifyLocked(kind domain.NotificationKind, params map[string]any) {
	job := e.job
	if job == nil || !job.AutoTimer.NotificationsEnabled {
		return
	}
	name := job.Name
	e.out = append(e.out, func() {
		e.effects.Submit("notify:"+string(kind), func(ctx context.Context) error {
			return e.notifier.Send(ctx, kind, name, params)
		})
	})
}

func (e *Engine) liveStartLocked(jobName, address string, start time.Time) {
	e.out = append(e.out, func() {
		e.effects.Submit("live:start", func(ctx context.Context) error {
			return e.live.Start(ctx, jobName, address, start)
		})
	})
}

func (e *Engine) liveEndLocked(elapsed int) {
	e.out = append(e.out, func() {
		e.effects.Submit("live:end", func(ctx context.Context) error {
			return e.live.End(ctx, elapsed)
		})
	})
}
