package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/pkg/models"
	"gopkg.in/yaml.v3"
)

const (
	stateDirName     = ".flowpulse"
	eventsFileName   = "events.json"
	settingsFileName = "settings.yaml"

	// recentWrites is how many of its own writes per key a store remembers
	// when telling them apart from external changes.
	recentWrites = 4
)

// StateStore persists the event list and the settings under two
// independent keys. Loads never fail: missing or corrupt data yields
// defaults.
type StateStore interface {
	LoadEvents() []models.Event
	SaveEvents(events []models.Event) error
	LoadSettings() models.Settings
	SaveSettings(settings models.Settings) error
	// ExternalEvents and ExternalSettings load a key only when its file no
	// longer holds what this store last wrote.
	ExternalEvents() ([]models.Event, bool)
	ExternalSettings() (models.Settings, bool)
	Dir() string
}

type fileStateStore struct {
	fs  afero.Fs
	dir string

	writeMu sync.Mutex
	mu      sync.Mutex
	written map[string][][]byte
}

// NewStateStore creates a StateStore rooted at <basePath>/.flowpulse on fs.
func NewStateStore(fs afero.Fs, basePath string) StateStore {
	return &fileStateStore{
		fs:      fs,
		dir:     filepath.Join(basePath, stateDirName),
		written: make(map[string][][]byte),
	}
}

// Dir returns the directory holding the state files.
func (s *fileStateStore) Dir() string {
	return s.dir
}

func (s *fileStateStore) eventsPath() string {
	return filepath.Join(s.dir, eventsFileName)
}

func (s *fileStateStore) settingsPath() string {
	return filepath.Join(s.dir, settingsFileName)
}

// LoadEvents reads the stored event list, keeping only valid events.
func (s *fileStateStore) LoadEvents() []models.Event {
	data, err := afero.ReadFile(s.fs, s.eventsPath())
	if err != nil || len(data) == 0 {
		return []models.Event{}
	}
	return core.DecodeStoredEvents(data)
}

// SaveEvents writes at most MaxEvents events as a JSON array.
func (s *fileStateStore) SaveEvents(events []models.Event) error {
	if len(events) > models.MaxEvents {
		events = events[:models.MaxEvents]
	}
	if events == nil {
		events = []models.Event{}
	}

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("saving events: marshalling: %w", err)
	}
	return s.writeFile(s.eventsPath(), data)
}

// storedSettings mirrors models.Settings with pointer fields so that a
// missing key can be told apart from a false or empty value.
type storedSettings struct {
	Running        *bool   `yaml:"running"`
	SeverityFilter *string `yaml:"severity_filter"`
}

// LoadSettings reads the stored settings, defaulting each field that is
// missing or invalid.
func (s *fileStateStore) LoadSettings() models.Settings {
	settings := models.DefaultSettings()

	data, err := afero.ReadFile(s.fs, s.settingsPath())
	if err != nil {
		return settings
	}

	var raw storedSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return settings
	}

	if raw.Running != nil {
		settings.Running = *raw.Running
	}
	if raw.SeverityFilter != nil {
		if f := models.SeverityFilter(*raw.SeverityFilter); f.IsValid() {
			settings.SeverityFilter = f
		}
	}
	return settings
}

// SaveSettings writes the settings as YAML.
func (s *fileStateStore) SaveSettings(settings models.Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("saving settings: marshalling: %w", err)
	}
	return s.writeFile(s.settingsPath(), data)
}

// writeFile replaces path atomically by writing a temp file and renaming it,
// so a concurrent reader never sees a half-written file.
func (s *fileStateStore) writeFile(path string, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}

	s.mu.Lock()
	recent := append(s.written[path], data)
	if len(recent) > recentWrites {
		recent = recent[len(recent)-recentWrites:]
	}
	s.written[path] = recent
	s.mu.Unlock()

	if err := s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ExternalEvents returns the stored events if another writer changed them.
func (s *fileStateStore) ExternalEvents() ([]models.Event, bool) {
	if !s.changedExternally(s.eventsPath()) {
		return nil, false
	}
	return s.LoadEvents(), true
}

// ExternalSettings returns the stored settings if another writer changed them.
func (s *fileStateStore) ExternalSettings() (models.Settings, bool) {
	if !s.changedExternally(s.settingsPath()) {
		return models.Settings{}, false
	}
	return s.LoadSettings(), true
}

func (s *fileStateStore) changedExternally(path string) bool {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mine := range s.written[path] {
		if bytes.Equal(data, mine) {
			return false
		}
	}
	return true
}
