package autotimer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/testutil"
)

var t0 = time.Date(2025, 6, 16, 8, 0, 0, 0, time.UTC)

// metresNorth returns the point d metres north of (0,0).
func metresNorth(d float64) domain.Coordinate {
	return domain.Coordinate{Latitude: d / (6_371_000.0 * math.Pi / 180)}
}

type memJobs struct {
	mu         sync.Mutex
	jobs       map[string]*domain.Job
	failList   error
	failSwitch error
}

func newMemJobs(jobs ...*domain.Job) *memJobs {
	m := &memJobs{jobs: map[string]*domain.Job{}}
	for _, j := range jobs {
		m.jobs[j.ID] = j
	}
	return m
}

func (m *memJobs) GetJob(_ context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, ErrJobNotFound)
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) ListJobs(_ context.Context) ([]*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	var out []*domain.Job
	for _, j := range m.jobs {
		cp := *j
		out = append(out, &cp)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out, nil
}

func (m *memJobs) SetAutoTimerEnabled(_ context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if enabled {
		for _, o := range m.jobs {
			if o.ID != id && o.AutoTimer.Enabled {
				return fmt.Errorf("job %s already owns the autotimer", o.ID)
			}
		}
	}
	j.AutoTimer.Enabled = enabled
	return nil
}

func (m *memJobs) SwitchAutoTimer(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSwitch != nil {
		return m.failSwitch
	}
	if _, ok := m.jobs[id]; !ok {
		return ErrJobNotFound
	}
	for _, j := range m.jobs {
		j.AutoTimer.Enabled = j.ID == id
	}
	return nil
}

func (m *memJobs) update(id string, fn func(*domain.Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.jobs[id])
}

func (m *memJobs) enabled(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id].AutoTimer.Enabled
}

// memSessions is a SessionStore that also flags any write that would
// replace one session with a different one.
type memSessions struct {
	mu         sync.Mutex
	active     *domain.ActiveSession
	workDays   []*domain.WorkDay
	created    int
	violations int
	failSave   error
	failDay    error
}

func (m *memSessions) GetActiveSession(context.Context) (*domain.ActiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, nil
	}
	cp := *m.active
	return &cp, nil
}

func (m *memSessions) SaveActiveSession(_ context.Context, s *domain.ActiveSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	if m.active == nil {
		m.created++
	} else if m.active.JobID != s.JobID || m.active.Source != s.Source {
		m.violations++
	}
	cp := *s
	m.active = &cp
	return nil
}

func (m *memSessions) ClearActiveSession(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
	return nil
}

func (m *memSessions) AddWorkDay(_ context.Context, w *domain.WorkDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDay != nil {
		return m.failDay
	}
	cp := *w
	m.workDays = append(m.workDays, &cp)
	return nil
}

func (m *memSessions) UpdateWorkDay(_ context.Context, w *domain.WorkDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.workDays {
		if existing.ID == w.ID {
			cp := *w
			m.workDays[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("work day %s not found", w.ID)
}

func (m *memSessions) FindWorkDay(_ context.Context, date, jobID string) (*domain.WorkDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.workDays {
		if w.Date == date && w.JobID == jobID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSessions) GetWorkDays(_ context.Context, _ int, jobID string) ([]*domain.WorkDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.WorkDay
	for _, w := range m.workDays {
		if jobID == "" || w.JobID == jobID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSessions) current() *domain.ActiveSession {
	s, _ := m.GetActiveSession(context.Background())
	return s
}

func (m *memSessions) days() []*domain.WorkDay {
	d, _ := m.GetWorkDays(context.Background(), 0, "")
	return d
}

type memSnapshots struct {
	mu   sync.Mutex
	snap *Snapshot
}

func (m *memSnapshots) LoadSnapshot(context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, nil
	}
	cp := *m.snap
	return &cp, nil
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.snap = &cp
	return nil
}

type sent struct {
	kind    domain.NotificationKind
	jobName string
	params  map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recordingNotifier) Send(_ context.Context, kind domain.NotificationKind, jobName string, params map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{kind, jobName, params})
	return nil
}

func (r *recordingNotifier) kinds() []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.NotificationKind
	for _, s := range r.sent {
		out = append(out, s.kind)
	}
	return out
}

type recordingLive struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingLive) Start(_ context.Context, jobName, _ string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "start:"+jobName)
	return nil
}

func (r *recordingLive) End(_ context.Context, elapsed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("end:%d", elapsed))
	return nil
}

func (r *recordingLive) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type harness struct {
	engine    *Engine
	clock     *testutil.FakeClock
	jobs      *memJobs
	sessions  *memSessions
	snapshots *memSnapshots
	notifier  *recordingNotifier
	live      *recordingLive
}

func siteJob(id, name string, radius, delayStart, delayStop int) *domain.Job {
	return &domain.Job{
		ID:       id,
		Name:     name,
		Location: &domain.Coordinate{},
		AutoTimer: domain.AutoTimerConfig{
			GeofenceRadiusMeters: radius,
			DelayStartMinutes:    delayStart,
			DelayStopMinutes:     delayStop,
			NotificationsEnabled: true,
		},
	}
}

func newHarness(jobs ...*domain.Job) *harness {
	h := &harness{
		clock:     testutil.NewFakeClock(t0),
		jobs:      newMemJobs(jobs...),
		sessions:  &memSessions{},
		snapshots: &memSnapshots{},
		notifier:  &recordingNotifier{},
		live:      &recordingLive{},
	}
	h.engine = h.build(domain.ModeSettings{Mode: domain.ModeForegroundOnly})
	return h
}

func (h *harness) build(mode domain.ModeSettings) *Engine {
	return NewEngine(Deps{
		Jobs:      h.jobs,
		Sessions:  h.sessions,
		Snapshots: h.snapshots,
		Notifier:  h.notifier,
		Live:      h.live,
		Clock:     h.clock,
	}, Config{Mode: mode})
}

func (h *harness) sampleAt(metres float64) error {
	return h.engine.HandleSample(context.Background(), Sample{
		Coordinate: metresNorth(metres),
		Origin:     domain.OriginForeground,
		At:         h.clock.Now(),
	})
}
