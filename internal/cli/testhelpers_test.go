package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/internal/observability"
	"github.com/valter-silva-au/flowpulse/internal/storage"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// testEnv is a fully wired stream service on an in-memory filesystem.
type testEnv struct {
	fs      afero.Fs
	base    string
	store   storage.StateStore
	service *core.StreamService
}

// setupTestEnv wires the package-level service variables and resets every
// command flag, restoring the previous values when the test ends.
func setupTestEnv(t *testing.T, events ...models.Event) *testEnv {
	t.Helper()

	origBase, origConfig, origStore, origService := BasePath, Config, Store, Service
	origLog, origAlerts, origMetrics, origNotifier := EventLog, AlertEngine, MetricsCalc, Notifier
	t.Cleanup(func() {
		BasePath, Config, Store, Service = origBase, origConfig, origStore, origService
		EventLog, AlertEngine, MetricsCalc, Notifier = origLog, origAlerts, origMetrics, origNotifier
		resetFlags()
	})
	resetFlags()

	env := &testEnv{fs: afero.NewMemMapFs(), base: t.TempDir()}
	env.store = storage.NewStateStore(env.fs, env.base)

	controller := core.NewStreamController(core.NewStreamState(models.DefaultSettings(), events))
	controller.Subscribe(storage.Persister(env.store, nil))
	env.service = core.NewStreamService(controller, storage.NewTransfer(env.fs), nil)

	BasePath = env.base
	Config = core.DefaultGlobalConfig()
	Store = env.store
	Service = env.service
	EventLog = nil
	AlertEngine = observability.NewAlertEngine(observability.DefaultAlertThresholds())
	MetricsCalc = nil
	Notifier = nil

	return env
}

func resetFlags() {
	eventsJSON, eventsLimit = false, 0
	summaryJSON = false
	synthAppend, synthJSON, synthSeedStr = false, false, ""
	exportDir = ""
	metricsJSON, metricsSince = false, "7d"
	alertsNotify = false
	runInterval, runDuration, runQuiet = 0, 0, false
	dashboardInterval = 0
}

// runCommand invokes cmd's RunE with output captured.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

func errorEvents(n int) []models.Event {
	events := make([]models.Event, n)
	for i := range events {
		// Same residues mod 650 and mod 4: service api, latency 600.
		events[i] = core.Synthesize(1700000000300 + int64(i)*650*4)
	}
	return events
}

// executeRoot runs the root command with args and returns what it wrote.
func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		completionInstall = false
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
