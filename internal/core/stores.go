package core

import "github.com/valter-silva-au/flowpulse/pkg/models"

// EventArchive writes and reads standalone event log files.
// This interface is defined locally in core to avoid importing storage.
type EventArchive interface {
	Export(dir string, events []models.Event) (string, error)
	ImportFile(path string) ([]models.Event, error)
}
