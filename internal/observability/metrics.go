package observability

import (
	"fmt"
	"time"
)

// Metrics holds counts derived from the activity log.
type Metrics struct {
	Pauses         int            `json:"pauses"`
	Resumes        int            `json:"resumes"`
	Appends        int            `json:"appends"`
	Clears         int            `json:"clears"`
	Exports        int            `json:"exports"`
	Imports        int            `json:"imports"`
	ImportFailures int            `json:"import_failures"`
	EventsImported int            `json:"events_imported"`
	SaveFailures   int            `json:"save_failures"`
	AlertsRaised   int            `json:"alerts_raised"`
	FilterChanges  map[string]int `json:"filter_changes"`
	EntryCount     int            `json:"entry_count"`
	OldestEntry    *time.Time     `json:"oldest_entry,omitempty"`
	NewestEntry    *time.Time     `json:"newest_entry,omitempty"`
}

// MetricsCalculator derives metrics from the activity log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all entries since the given time and aggregates them.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	entries, err := mc.eventLog.Read(EntryFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading entries for metrics: %w", err)
	}

	m := &Metrics{FilterChanges: make(map[string]int)}
	m.EntryCount = len(entries)

	for i, entry := range entries {
		if i == 0 {
			t := entry.Time
			m.OldestEntry = &t
		}
		t := entry.Time
		m.NewestEntry = &t

		switch entry.Type {
		case TypeStreamPaused:
			m.Pauses++
		case TypeStreamResumed:
			m.Resumes++
		case TypeEventAppended:
			m.Appends++
		case TypeEventsCleared:
			m.Clears++
		case TypeEventsExported:
			m.Exports++
		case TypeEventsImported:
			m.Imports++
			// JSON numbers decode as float64.
			if n, ok := entry.Data["count"].(float64); ok {
				m.EventsImported += int(n)
			}
		case TypeImportFailed:
			m.ImportFailures++
		case TypeStorageFailed:
			m.SaveFailures++
		case TypeAlertsTriggered:
			if n, ok := entry.Data["count"].(float64); ok {
				m.AlertsRaised += int(n)
			}
		case TypeFilterChanged:
			if f, ok := entry.Data["filter"].(string); ok {
				m.FilterChanges[f]++
			}
		}
	}

	return m, nil
}
