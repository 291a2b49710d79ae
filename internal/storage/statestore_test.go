package storage

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

const testBase = "/data"

func newMemStore(t *testing.T) (StateStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	return NewStateStore(fs, testBase), fs
}

func writeRaw(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	path := filepath.Join(testBase, stateDirName, name)
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestStateStore_DefaultsWhenMissing(t *testing.T) {
	store, _ := newMemStore(t)

	events := store.LoadEvents()
	if events == nil || len(events) != 0 {
		t.Errorf("LoadEvents = %v, want empty slice", events)
	}
	if got := store.LoadSettings(); got != models.DefaultSettings() {
		t.Errorf("LoadSettings = %+v, want defaults", got)
	}
	if store.Dir() != filepath.Join(testBase, ".flowpulse") {
		t.Errorf("Dir = %q", store.Dir())
	}
}

func TestStateStore_CorruptDataYieldsDefaults(t *testing.T) {
	store, fs := newMemStore(t)
	writeRaw(t, fs, eventsFileName, "{not json")
	writeRaw(t, fs, settingsFileName, "running: [oops\n")

	if got := store.LoadEvents(); len(got) != 0 {
		t.Errorf("LoadEvents = %v, want empty", got)
	}
	if got := store.LoadSettings(); got != models.DefaultSettings() {
		t.Errorf("LoadSettings = %+v, want defaults", got)
	}
}

func TestStateStore_EventsRoundTrip(t *testing.T) {
	store, _ := newMemStore(t)
	events := []models.Event{core.Synthesize(3), core.Synthesize(2), core.Synthesize(1)}

	if err := store.SaveEvents(events); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}
	got := store.LoadEvents()
	if len(got) != 3 {
		t.Fatalf("loaded %d events, want 3", len(got))
	}
	for i := range events {
		if got[i] != events[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], events[i])
		}
	}
}

func TestStateStore_SaveEventsCapsAtMax(t *testing.T) {
	store, _ := newMemStore(t)
	events := make([]models.Event, models.MaxEvents+10)
	for i := range events {
		events[i] = core.Synthesize(int64(i))
	}
	if err := store.SaveEvents(events); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}
	if got := len(store.LoadEvents()); got != models.MaxEvents {
		t.Errorf("loaded %d events, want %d", got, models.MaxEvents)
	}
}

func TestStateStore_LoadEventsDropsInvalidElements(t *testing.T) {
	store, fs := newMemStore(t)
	writeRaw(t, fs, eventsFileName, `[{"id":"a","service":"api","latencyMs":120,"severity":"info","ts":"t"},{"id":"b"}]`)

	got := store.LoadEvents()
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("LoadEvents = %+v", got)
	}
}

func TestStateStore_SettingsRoundTrip(t *testing.T) {
	store, fs := newMemStore(t)
	want := models.Settings{Running: false, SeverityFilter: models.SeverityFilter(models.SeverityWarn)}

	if err := store.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if got := store.LoadSettings(); got != want {
		t.Errorf("LoadSettings = %+v, want %+v", got, want)
	}

	data, err := afero.ReadFile(fs, filepath.Join(store.Dir(), settingsFileName))
	if err != nil {
		t.Fatalf("reading settings: %v", err)
	}
	if string(data) != "running: false\nseverity_filter: warn\n" {
		t.Errorf("settings file = %q", data)
	}
}

func TestStateStore_SettingsFieldsDefaultIndependently(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    models.Settings
	}{
		{"only running", "running: false\n", models.Settings{Running: false, SeverityFilter: models.FilterAll}},
		{"only filter", "severity_filter: error\n", models.Settings{Running: true, SeverityFilter: "error"}},
		{"invalid filter", "running: false\nseverity_filter: loud\n", models.Settings{Running: false, SeverityFilter: models.FilterAll}},
		{"empty", "", models.DefaultSettings()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, fs := newMemStore(t)
			writeRaw(t, fs, settingsFileName, tt.content)
			if got := store.LoadSettings(); got != tt.want {
				t.Errorf("LoadSettings = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStateStore_NoTempFileLeft(t *testing.T) {
	store, fs := newMemStore(t)
	if err := store.SaveEvents(nil); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}
	if ok, _ := afero.Exists(fs, filepath.Join(store.Dir(), eventsFileName+".tmp")); ok {
		t.Error("temp file left behind")
	}
	data, _ := afero.ReadFile(fs, filepath.Join(store.Dir(), eventsFileName))
	if string(data) != "[]" {
		t.Errorf("events file = %q, want []", data)
	}
}

func TestStateStore_ExternalChanges(t *testing.T) {
	store, fs := newMemStore(t)

	if _, ok := store.ExternalEvents(); ok {
		t.Error("missing file reported as external change")
	}

	if err := store.SaveEvents([]models.Event{core.Synthesize(1)}); err != nil {
		t.Fatalf("SaveEvents: %v", err)
	}
	if _, ok := store.ExternalEvents(); ok {
		t.Error("own write reported as external change")
	}

	// A second store on the same files acts as another process.
	other := NewStateStore(fs, testBase)
	if err := other.SaveEvents([]models.Event{core.Synthesize(9), core.Synthesize(8)}); err != nil {
		t.Fatalf("other SaveEvents: %v", err)
	}
	events, ok := store.ExternalEvents()
	if !ok {
		t.Fatal("write from another store not detected")
	}
	if len(events) != 2 || events[0].ID != "evt-9" {
		t.Errorf("ExternalEvents = %+v", events)
	}

	if err := other.SaveSettings(models.Settings{Running: false, SeverityFilter: "info"}); err != nil {
		t.Fatalf("other SaveSettings: %v", err)
	}
	settings, ok := store.ExternalSettings()
	if !ok || settings.Running || settings.SeverityFilter != "info" {
		t.Errorf("ExternalSettings = %+v, %v", settings, ok)
	}
}
