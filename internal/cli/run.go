package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/internal/storage"
)

var (
	runInterval time.Duration
	runDuration time.Duration
	runQuiet    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the event stream headless",
	Long: `Synthesize one event per interval into the stored event list until
interrupted (or until --duration elapses). Each new event is printed unless
--quiet is set.

The runner follows the persisted settings: "flowpulse pause" and
"flowpulse resume" from another shell take effect immediately, and so does
"flowpulse import" or "flowpulse clear".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}

		interval := resolveInterval(runInterval)
		if interval <= 0 {
			return fmt.Errorf("--interval must be positive, got %s", interval)
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()
		if runDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runDuration)
			defer cancel()
		}

		out := cmd.OutOrStdout()
		if !runQuiet {
			Service.Controller().Subscribe(func(prev, next core.StreamState) {
				e, ok := core.Prepended(prev, next)
				if !ok {
					return
				}
				fmt.Fprintf(out, "%s  %-8s %-6s %5.0f ms\n", e.TS, e.Service, e.Severity, e.LatencyMs)
			})
		}

		if err := watchState(ctx, nil); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: not following external changes: %v\n", err)
		}

		state := Service.State()
		fmt.Fprintf(out, "Streaming every %s (%s, %d stored events). Press Ctrl+C to stop.\n",
			interval, runningLabel(state.Running), len(state.Events))

		err := core.NewStreamRunner(Service.Controller(), interval, nil).Run(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	},
}

// resolveInterval prefers an explicit flag value over the configured interval.
func resolveInterval(flag time.Duration) time.Duration {
	if flag != 0 {
		return flag
	}
	if Config != nil && Config.Stream.Interval > 0 {
		return Config.Stream.Interval
	}
	return 900 * time.Millisecond
}

func runningLabel(running bool) string {
	if running {
		return "running"
	}
	return "paused"
}

// watchState applies changes other processes make to the state files.
// notify, if set, is called after each applied change.
func watchState(ctx context.Context, notify func()) error {
	if Store == nil {
		return fmt.Errorf("state store not initialized")
	}
	return storage.Watch(ctx, Store.Dir(), func(change storage.StateChange) {
		switch change {
		case storage.ChangeEvents:
			events, ok := Store.ExternalEvents()
			if !ok {
				return
			}
			Service.ReloadEvents(events)
		case storage.ChangeSettings:
			settings, ok := Store.ExternalSettings()
			if !ok {
				return
			}
			Service.ReloadSettings(settings)
		}
		if notify != nil {
			notify()
		}
	})
}

func init() {
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Tick interval (defaults to stream.interval)")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0, "Stop after this long (0 = until interrupted)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Do not print each new event")
	rootCmd.AddCommand(runCmd)
}
