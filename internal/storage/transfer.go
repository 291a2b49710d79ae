package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// Transfer exports and imports event logs as standalone JSON files.
type Transfer interface {
	Export(dir string, events []models.Event) (string, error)
	ImportFile(path string) ([]models.Event, error)
}

type fileTransfer struct {
	fs afero.Fs
}

// NewTransfer creates a Transfer backed by fs.
func NewTransfer(fs afero.Fs) Transfer {
	return &fileTransfer{fs: fs}
}

// Export writes the full event list, pretty-printed, to
// <dir>/flowpulse-events.json and returns the path written.
func (t *fileTransfer) Export(dir string, events []models.Event) (string, error) {
	if events == nil {
		events = []models.Event{}
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", fmt.Errorf("exporting events: marshalling: %w", err)
	}

	if err := t.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("exporting events: creating directory: %w", err)
	}

	path := filepath.Join(dir, models.ExportFileName)
	if err := afero.WriteFile(t.fs, path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("exporting events: %w", err)
	}
	return path, nil
}

// ImportFile reads path as text and runs it through the import validator.
func (t *fileTransfer) ImportFile(path string) ([]models.Event, error) {
	data, err := afero.ReadFile(t.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return core.ParseImportedEvents(string(data))
}
