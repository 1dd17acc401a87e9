package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/jobclock/internal/autotimer"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/location"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newTrackCmd(app *App) *cobra.Command {
	var (
		feedPath  string
		listen    string
		poll      bool
		fromStart bool
	)

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Follow a location feed and run the AutoTimer until interrupted",
		Long: `Follow a JSONL file of location fixes, one {"lat":..,"lon":..,"accuracy":..}
object per line, and feed each fix to the AutoTimer. Pending delays count down in real
time. With --listen, statuses are also served over a websocket.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if feedPath == "" {
				feedPath = app.Track.FeedPath
			}
			if listen == "" {
				listen = app.Track.Listen
			}
			if feedPath == "" {
				return fmt.Errorf("no location feed: pass --feed or set feed in the config file")
			}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTrack(ctx, cmd, app, feedPath, listen, location.FeedOptions{FromStart: fromStart, Poll: poll})
		},
	}

	cmd.Flags().StringVar(&feedPath, "feed", "", "JSONL file of location fixes to follow")
	cmd.Flags().StringVar(&listen, "listen", "", "Address for the live status websocket (e.g. 127.0.0.1:7777)")
	cmd.Flags().BoolVar(&poll, "poll", false, "Poll the feed file instead of using filesystem events")
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "Replay fixes already in the feed")
	return cmd
}

func runTrack(ctx context.Context, cmd *cobra.Command, app *App, feedPath, listen string, opts location.FeedOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 3)
	background := 0
	spawn := func(name string, fn func(context.Context) error) {
		background++
		go func() {
			err := fn(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				err = fmt.Errorf("%s: %w", name, err)
			} else {
				err = nil
			}
			errs <- err
		}()
	}

	if app.Hub != nil && listen != "" {
		sub := app.Engine.AddStatusListener(app.Hub.PublishStatus)
		defer app.Engine.RemoveStatusListener(sub)
		spawn("live status", func(ctx context.Context) error { return app.Hub.Serve(ctx, listen) })
	}
	if app.WatchConfig != nil {
		spawn("config watch", app.WatchConfig)
	}

	feed := location.NewFeed(feedPath, opts, app.Log)
	spawn("feed", func(ctx context.Context) error {
		return feed.Run(ctx, func(ctx context.Context, s autotimer.Sample) {
			if err := app.Engine.HandleSample(ctx, s); err != nil && app.Log != nil {
				app.Log.WithError(err).Warn("sample rejected")
			}
		})
	})

	statuses := app.Engine.Watch(ctx)
	var viewErr error
	if app.interactive() {
		elapsed := func() int {
			n, err := app.Engine.ElapsedSeconds(ctx)
			if err != nil {
				return 0
			}
			return n
		}
		p := tea.NewProgram(newTrackModel(app.Engine.Status(), statuses, elapsed, feedPath), tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout()))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			viewErr = err
		}
	} else {
		printStatusStream(cmd, app.Engine.Status(), statuses)
	}

	cancel()
	var firstErr error
	for i := 0; i < background; i++ {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if viewErr != nil {
		return viewErr
	}
	return firstErr
}

// printStatusStream writes one line per status change until the stream ends.
func printStatusStream(cmd *cobra.Command, initial domain.AutoTimerStatus, statuses <-chan domain.AutoTimerStatus) {
	out := cmd.OutOrStdout()
	printStatusLine(out, initial)
	last := initial
	for st := range statuses {
		if sameLine(last, st) {
			continue
		}
		last = st
		printStatusLine(out, st)
	}
}

func printStatusLine(out io.Writer, st domain.AutoTimerStatus) {
	fmt.Fprintf(out, "%s  %-9s %s\n", time.Now().Format("15:04:05"), st.State, domain.HumanMessage(st))
}

// sameLine reports whether two statuses differ only by countdown ticks.
func sameLine(a, b domain.AutoTimerStatus) bool {
	return a.State == b.State && a.JobID == b.JobID && a.Paused == b.Paused && a.TotalDelaySeconds == b.TotalDelaySeconds
}
