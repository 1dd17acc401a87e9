package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/jobclock/internal/db"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/repository"
	"github.com/sirupsen/logrus"
)

var ErrInvalidMode = errors.New("unknown location mode")

type modeService struct {
	settings    repository.RecordRepo[domain.ModeSettings]
	uow         db.UnitOfWork
	permissions PermissionProvider
	log         *logrus.Entry
	observer    UseCaseObserver

	mu     sync.Mutex
	nextID int
	subs   map[int]func(domain.ModeSettings)
}

func NewModeService(
	settings repository.RecordRepo[domain.ModeSettings],
	uow db.UnitOfWork,
	permissions PermissionProvider,
	log *logrus.Entry,
	observers ...UseCaseObserver,
) ModeService {
	return &modeService{
		settings:    settings,
		uow:         uow,
		permissions: permissions,
		log:         log,
		observer:    useCaseObserverOrNoop(observers),
		subs:        make(map[int]func(domain.ModeSettings)),
	}
}

// GetSettings returns the persisted settings, or the defaults. Records
// from before the mode picker existed (foreground-only, never chosen) are
// upgraded to background-allowed and written back.
func (s *modeService) GetSettings(ctx context.Context) (domain.ModeSettings, error) {
	stored, err := s.settings.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.DefaultModeSettings(), nil
	}
	if err != nil {
		return domain.ModeSettings{}, err
	}
	if stored.Mode == domain.ModeForegroundOnly && stored.UserChoice == domain.UserChoiceNotSelected {
		upgraded := domain.ModeSettings{
			Mode:         domain.ModeBackgroundAllowed,
			UserChoice:   domain.UserChoiceNotSelected,
			ConfiguredAt: time.Now().UTC(),
		}
		if err := s.settings.Put(ctx, &upgraded); err != nil {
			s.log.WithError(err).Warn("could not persist upgraded location mode")
		} else {
			s.log.Info("upgraded legacy foreground-only mode to background-allowed")
		}
		return upgraded, nil
	}
	return *stored, nil
}

// SetMode switches modes. A mode that needs the "always" grant is refused
// with PermissionRequired when it is missing, leaving the current mode in
// place. Entering full-background raises every smaller radius to its floor
// in the same transaction that stores the new settings.
func (s *modeService) SetMode(ctx context.Context, mode domain.Mode) (res ModeResult, err error) {
	startedAt := time.Now()
	defer func() {
		observe(ctx, s.observer, "set-mode", startedAt, err, map[string]any{
			"mode":                mode,
			"permission_required": res.PermissionRequired,
			"clamped":             len(res.ClampedJobIDs),
		})
	}()

	if _, ok := domain.ParseMode(string(mode)); !ok {
		return ModeResult{}, fmt.Errorf("%q: %w", mode, ErrInvalidMode)
	}

	current, err := s.GetSettings(ctx)
	if err != nil {
		return ModeResult{}, err
	}

	background, err := s.CheckBackgroundPermission(ctx)
	if err != nil {
		return ModeResult{}, err
	}
	if mode.RequiresElevatedPermission() && !background {
		return ModeResult{Settings: current, PermissionRequired: true}, nil
	}

	next := domain.ModeSettings{
		Mode:                    mode,
		HasBackgroundPermission: background,
		UserChoice:              string(mode),
		ConfiguredAt:            time.Now().UTC(),
	}

	var clamped []string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if mode == domain.ModeFullBackground {
			ids, err := repository.NewSQLiteJobRepo(tx).ClampRadius(ctx, domain.MinRadius(mode))
			if err != nil {
				return err
			}
			clamped = ids
		}
		return repository.NewSQLiteRecordRepo[domain.ModeSettings](tx, repository.KeyModeSettings).Put(ctx, &next)
	})
	if err != nil {
		return ModeResult{}, fmt.Errorf("saving location mode: %w", err)
	}

	res = ModeResult{Settings: next, Changed: current.Mode != mode, ClampedJobIDs: clamped}
	s.publish(next)
	return res, nil
}

func (s *modeService) CheckBackgroundPermission(ctx context.Context) (bool, error) {
	if s.permissions == nil {
		return false, nil
	}
	p, err := s.permissions.Current(ctx)
	if err != nil {
		return false, fmt.Errorf("checking location permission: %w", err)
	}
	return p.Background(), nil
}

// RequestBackgroundPermission asks the platform for the "always" grant and
// records the outcome in the stored settings.
func (s *modeService) RequestBackgroundPermission(ctx context.Context) (bool, error) {
	if s.permissions == nil {
		return false, nil
	}
	p, err := s.permissions.RequestBackground(ctx)
	if err != nil {
		return false, fmt.Errorf("requesting background permission: %w", err)
	}
	granted := p.Background()

	current, err := s.GetSettings(ctx)
	if err != nil {
		return granted, err
	}
	if current.HasBackgroundPermission != granted {
		current.HasBackgroundPermission = granted
		if err := s.settings.Put(ctx, &current); err != nil {
			s.log.WithError(err).Warn("could not record background permission")
		}
	}
	s.log.WithField("granted", granted).Info("background location permission requested")
	return granted, nil
}

func (s *modeService) SamplingPolicy(mode domain.Mode) domain.SamplingPolicy {
	return domain.PolicyFor(mode)
}

func (s *modeService) Subscribe(fn func(domain.ModeSettings)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *modeService) publish(settings domain.ModeSettings) {
	s.mu.Lock()
	fns := make([]func(domain.ModeSettings), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(settings)
	}
}
