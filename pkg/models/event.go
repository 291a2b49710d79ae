package models

// Severity classifies an event by its latency.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Severities lists every valid severity in display order.
var Severities = []Severity{SeverityInfo, SeverityWarn, SeverityError}

// IsValid reports whether s is one of the three known severity tags.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarn, SeverityError:
		return true
	}
	return false
}

// SeverityFilter restricts which events are displayed and summarized.
// It is either a Severity or FilterAll.
type SeverityFilter string

// FilterAll matches every event.
const FilterAll SeverityFilter = "all"

// SeverityFilters lists the filter values in cycle order.
var SeverityFilters = []SeverityFilter{
	FilterAll,
	SeverityFilter(SeverityInfo),
	SeverityFilter(SeverityWarn),
	SeverityFilter(SeverityError),
}

// IsValid reports whether f is "all" or a valid severity.
func (f SeverityFilter) IsValid() bool {
	return f == FilterAll || Severity(f).IsValid()
}

// Matches reports whether an event with the given severity passes the filter.
func (f SeverityFilter) Matches(s Severity) bool {
	return f == FilterAll || Severity(f) == s
}

// Next returns the filter following f in cycle order.
func (f SeverityFilter) Next() SeverityFilter {
	for i, candidate := range SeverityFilters {
		if candidate == f {
			return SeverityFilters[(i+1)%len(SeverityFilters)]
		}
	}
	return FilterAll
}

const (
	// MaxEvents is the most events retained in memory, on disk, or accepted by import.
	MaxEvents = 200

	// EventIDPrefix prefixes the seed in synthesized event IDs.
	EventIDPrefix = "evt-"

	// ExportFileName is the name of the file written by export.
	ExportFileName = "flowpulse-events.json"
)

// Services are the synthetic service names, indexed by seed mod 4.
var Services = [...]string{"api", "worker", "billing", "hooks"}

// Event is one synthetic latency observation for a named service.
type Event struct {
	ID        string   `json:"id"`
	Service   string   `json:"service"`
	LatencyMs float64  `json:"latencyMs"`
	Severity  Severity `json:"severity"`
	TS        string   `json:"ts"`
}

// SeverityCounts holds per-severity event counts. All three keys are always present.
type SeverityCounts struct {
	Info  int `json:"info"`
	Warn  int `json:"warn"`
	Error int `json:"error"`
}

// Summary is an aggregate over a set of events. It is derived on demand and never persisted.
type Summary struct {
	Count      int            `json:"count"`
	AvgLatency int            `json:"avgLatency"`
	BySeverity SeverityCounts `json:"bySeverity"`
}

// Settings is the persisted stream configuration chosen by the user.
type Settings struct {
	Running        bool           `yaml:"running" json:"running"`
	SeverityFilter SeverityFilter `yaml:"severity_filter" json:"severityFilter"`
}

// DefaultSettings returns the settings used when nothing valid is stored.
func DefaultSettings() Settings {
	return Settings{Running: true, SeverityFilter: FilterAll}
}
