package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/cli"
	"github.com/alexanderramin/jobclock/internal/config"
	"github.com/alexanderramin/jobclock/internal/db"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/livestatus"
	"github.com/alexanderramin/jobclock/internal/location"
	"github.com/alexanderramin/jobclock/internal/logging"
	"github.com/alexanderramin/jobclock/internal/notify"
	"github.com/alexanderramin/jobclock/internal/repository"
	"github.com/alexanderramin/jobclock/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := config.DefaultPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logCloser, err := logging.Configure(cfg.Log)
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	defer logCloser.Close()
	log := logging.NewLogger("main")

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	isInteractive := func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Wire repositories
	uow := db.NewSQLiteUnitOfWork(database)
	jobRepo := repository.NewSQLiteJobRepo(database)
	workDayRepo := repository.NewSQLiteWorkDayRepo(database)
	sessionRepo := repository.NewSQLiteRecordRepo[domain.ActiveSession](database, repository.KeyActiveSession)
	modeRepo := repository.NewSQLiteRecordRepo[domain.ModeSettings](database, repository.KeyModeSettings)
	permRepo := repository.NewSQLiteRecordRepo[domain.Permissions](database, repository.KeyPermissions)
	notifyRepo := repository.NewSQLiteRecordRepo[domain.NotificationSettings](database, repository.KeyNotificationSettings)

	// Wire services
	observer := service.NewLogUseCaseObserver(logging.NewLogger("service"))
	permissions := location.NewStoredPermissions(permRepo, cli.BackgroundAccessPrompt(isInteractive), logging.NewLogger("location"))
	modes := service.NewModeService(modeRepo, uow, permissions, logging.NewLogger("mode"), observer)
	notificationSettings := service.NewNotificationSettingsService(notifyRepo)
	sessions := service.NewSessionStore(database, uow)

	hub := livestatus.NewHub(logging.NewLogger("livestatus"))
	dispatcher := notify.NewDispatcher(notificationSettings, logging.NewLogger("notify"),
		notify.LogSink{Log: logging.NewLogger("notification")}, hub)

	effects := autotimer.NewQueueEffects(cfg.EffectQueueSize, cfg.EffectTimeout, logging.NewLogger("effects"))
	defer effects.Close()

	ctx := context.Background()
	modeSettings, err := modes.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("loading location mode: %w", err)
	}

	engine := autotimer.NewEngine(autotimer.Deps{
		Jobs:      service.NewJobStore(database, uow),
		Sessions:  sessions,
		Snapshots: sessions,
		Notifier:  dispatcher,
		Live:      hub,
		Clock:     autotimer.SystemClock{},
		Effects:   effects,
		Logger:    logging.NewLogger("autotimer"),
	}, autotimer.Config{TickInterval: cfg.TickInterval, Mode: modeSettings})
	defer engine.Close()
	unsubscribe := modes.Subscribe(engine.ApplyMode)
	defer unsubscribe()

	app := &cli.App{
		Jobs:          service.NewJobService(jobRepo, sessionRepo, modes, observer),
		WorkDays:      service.NewWorkDayService(workDayRepo, time.Now),
		Modes:         modes,
		Import:        service.NewImportService(uow, modes, observer),
		Notifications: notificationSettings,
		Permissions:   permissions,
		Engine:        engine,
		Sessions:      sessions,
		Hub:           hub,
		Track:         cli.TrackDefaults{FeedPath: cfg.FeedPath, Listen: cfg.Listen},
		Log:           logging.NewLogger("cli"),
		IsInteractive: isInteractive,
	}
	app.WatchConfig = func(ctx context.Context) error {
		return config.Watch(ctx, cfgPath, 0, func(next config.Config) {
			if next.Log.Level != "" {
				logging.SetLevelName(next.Log.Level)
			}
			log.WithField("path", cfgPath).Info("config reloaded")
		}, logging.NewLogger("config"))
	}

	// Execute root command
	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

