// Package internal provides the App struct that wires all components of
// FlowPulse together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/valter-silva-au/flowpulse/internal/cli"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/internal/observability"
	"github.com/valter-silva-au/flowpulse/internal/storage"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// eventLogFileName is the activity log kept next to the state directory.
const eventLogFileName = ".flowpulse_log.jsonl"

// App holds all service dependencies for FlowPulse.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	Store    storage.StateStore
	Transfer storage.Transfer

	// Core services
	Controller *core.StreamController
	Service    *core.StreamService

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components. basePath is the directory that
// holds .flowpulse.yaml, the .flowpulse/ state directory and the activity log.
func NewApp(basePath string) (*App, error) {
	return newApp(basePath, afero.NewOsFs())
}

func newApp(basePath string, fs afero.Fs) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, eventLogFileName))
	if err != nil {
		// Non-fatal: run without an activity log.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	app.AlertEngine = observability.NewAlertEngine(observability.ThresholdsFromConfig(cfg.Alerts))
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL)
	}

	// --- Storage layer ---
	app.Store = storage.NewStateStore(fs, basePath)
	app.Transfer = storage.NewTransfer(fs)

	// --- Core services ---
	initial := core.NewStreamState(app.Store.LoadSettings(), app.Store.LoadEvents())
	app.Controller = core.NewStreamController(initial)
	app.Controller.Subscribe(storage.Persister(app.Store, func(err error) {
		observability.Record(app.EventLog, observability.LevelError, observability.TypeStorageFailed, err.Error(), nil)
	}))

	var evtAdapter core.EventLogger
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}
	}
	app.Service = core.NewStreamService(app.Controller, app.Transfer, evtAdapter)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.Store = app.Store
	cli.Service = app.Service

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the FlowPulse data directory. It checks the
// FLOWPULSE_HOME env var, then walks up from the current directory looking
// for .flowpulse.yaml, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("FLOWPULSE_HOME"); home != "" {
		return home
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName+".yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(level, eventType, message string, data map[string]any) error {
	return a.log.Write(observability.Entry{
		Time:    time.Now().UTC(),
		Level:   level,
		Type:    eventType,
		Message: message,
		Data:    data,
	})
}
