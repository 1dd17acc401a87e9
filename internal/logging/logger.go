// Package logging hands out component-scoped logrus entries that share one
// configured logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Config selects level, format and sinks. Zero values mean defaults.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
	File   string `yaml:"file"`
}

var (
	base      = newBase()
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(levelFrom(os.Getenv("JOBCLOCK_LOG_LEVEL"), logrus.InfoLevel))
	l.SetFormatter(textFormatter(os.Stderr))
	return l
}

// NewLogger returns the entry for component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, ok := loggers[component]; ok {
		return logger
	}
	logger := base.WithField("component", component)
	loggers[component] = logger
	return logger
}

// Configure applies cfg to the shared logger. JOBCLOCK_LOG_LEVEL wins over
// cfg.Level. The returned closer releases the log file, if any.
func Configure(cfg Config) (io.Closer, error) {
	levelStr := cfg.Level
	if env := os.Getenv("JOBCLOCK_LOG_LEVEL"); env != "" {
		levelStr = env
	}
	base.SetLevel(levelFrom(levelStr, logrus.InfoLevel))

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		out = f
		closer = f
	}
	base.SetOutput(out)

	switch cfg.Format {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(textFormatter(out))
	}
	return closer, nil
}

// SetOutput redirects the shared logger, mainly for tests and the TUI.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
	if _, ok := base.Formatter.(*logrus.TextFormatter); ok {
		base.SetFormatter(textFormatter(w))
	}
}

// SetLevel overrides the level of the shared logger.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// SetLevelName sets the level by name. Unknown names mean info.
func SetLevelName(name string) {
	base.SetLevel(levelFrom(name, logrus.InfoLevel))
}

func textFormatter(w io.Writer) *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   isTerminal(w),
		DisableColors: !isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func levelFrom(s string, fallback logrus.Level) logrus.Level {
	if s == "" {
		return fallback
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return fallback
	}
	return level
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
