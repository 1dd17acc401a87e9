package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"strings"
	"time"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/hpcloud/tail"
	"github.com/sirupsen/logrus"
)

var ErrInvalidFix = errors.New("invalid location fix")

// Fix is one line of a location feed file.
type Fix struct {
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Origin    string    `json:"origin,omitempty"`
	At        time.Time `json:"at,omitempty"`
}

// ParseFix decodes one JSON line. A missing origin means foreground and a
// missing timestamp means now.
func ParseFix(line string, now time.Time) (autotimer.Sample, error) {
	var f Fix
	if err := json.Unmarshal([]byte(line), &f); err != nil {
		return autotimer.Sample{}, fmt.Errorf("%w: %v", ErrInvalidFix, err)
	}
	if f.Latitude < -90 || f.Latitude > 90 || f.Longitude < -180 || f.Longitude > 180 {
		return autotimer.Sample{}, fmt.Errorf("%w: coordinate out of range", ErrInvalidFix)
	}
	if f.Accuracy < 0 {
		return autotimer.Sample{}, fmt.Errorf("%w: negative accuracy", ErrInvalidFix)
	}
	origin := domain.OriginForeground
	if f.Origin != "" {
		if !domain.ValidOrigins[f.Origin] {
			return autotimer.Sample{}, fmt.Errorf("%w: unknown origin %q", ErrInvalidFix, f.Origin)
		}
		origin = domain.SampleOrigin(f.Origin)
	}
	at := f.At
	if at.IsZero() {
		at = now
	}
	return autotimer.Sample{
		Coordinate:     domain.Coordinate{Latitude: f.Latitude, Longitude: f.Longitude},
		AccuracyMeters: f.Accuracy,
		Origin:         origin,
		At:             at,
	}, nil
}

// FeedOptions controls how a feed file is followed.
type FeedOptions struct {
	// FromStart replays lines already in the file.
	FromStart bool
	// Poll stats the file instead of using inotify.
	Poll bool
}

// Feed follows a JSONL file of fixes, the way a log is tailed.
type Feed struct {
	path string
	opts FeedOptions
	log  *logrus.Entry
	now  func() time.Time
}

func NewFeed(path string, opts FeedOptions, log *logrus.Entry) *Feed {
	return &Feed{path: path, opts: opts, log: log, now: time.Now}
}

// Run delivers every valid fix to sink until ctx is done. Malformed lines
// are logged and skipped.
func (f *Feed) Run(ctx context.Context, sink func(context.Context, autotimer.Sample)) error {
	whence := io.SeekEnd
	if f.opts.FromStart {
		whence = io.SeekStart
	}
	t, err := tail.TailFile(f.path, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Poll:     f.opts.Poll,
		Location: &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:   stdlog.New(io.Discard, "", 0),
	})
	if err != nil {
		return fmt.Errorf("following %s: %w", f.path, err)
	}
	defer t.Cleanup()
	defer t.Stop()

	f.log.WithField("path", f.path).Info("following location feed")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				f.log.WithError(line.Err).Warn("feed read error")
				continue
			}
			text := strings.TrimSpace(line.Text)
			if text == "" || strings.HasPrefix(text, "#") {
				continue
			}
			sample, err := ParseFix(text, f.now())
			if err != nil {
				f.log.WithError(err).WithField("line", text).Warn("skipping fix")
				continue
			}
			sink(ctx, sample)
		}
	}
}
