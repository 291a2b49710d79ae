package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Log levels recorded in the activity log.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Activity types written by FlowPulse.
const (
	TypeStreamPaused    = "stream.paused"
	TypeStreamResumed   = "stream.resumed"
	TypeFilterChanged   = "filter.changed"
	TypeEventAppended   = "event.appended"
	TypeEventsCleared   = "events.cleared"
	TypeEventsExported  = "events.exported"
	TypeEventsImported  = "events.imported"
	TypeImportFailed    = "import.failed"
	TypeStorageFailed   = "storage.save_failed"
	TypeAlertsTriggered = "alerts.triggered"
)

// Entry is a single operational record in the activity log.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Type    string         `json:"type"`
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// EntryFilter specifies criteria for reading entries.
type EntryFilter struct {
	Since *time.Time
	Until *time.Time
	Type  string
	Level string
}

// EventLog defines the interface for writing and reading activity entries.
type EventLog interface {
	Write(entry Entry) error
	Read(filter EntryFilter) ([]Entry, error)
	Close() error
}

// jsonlEventLog implements EventLog using an append-only JSONL file.
type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NewJSONLEventLog creates a new EventLog backed by a JSONL file at the given path.
func NewJSONLEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{
		path: path,
		file: f,
	}, nil
}

// Write appends a JSON-encoded entry followed by a newline to the log file.
func (l *jsonlEventLog) Write(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling log entry: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing log entry: %w", err)
	}
	return nil
}

// Read scans the log file line by line and returns the entries matching
// filter. Malformed lines are skipped.
func (l *jsonlEventLog) Read(filter EntryFilter) ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}

		if matchesEntryFilter(entry, filter) {
			entries = append(entries, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}

	return entries, nil
}

// Close closes the underlying log file.
func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func matchesEntryFilter(entry Entry, filter EntryFilter) bool {
	if filter.Since != nil && entry.Time.Before(*filter.Since) {
		return false
	}
	if filter.Until != nil && entry.Time.After(*filter.Until) {
		return false
	}
	if filter.Type != "" && entry.Type != filter.Type {
		return false
	}
	if filter.Level != "" && entry.Level != filter.Level {
		return false
	}
	return true
}

// Record writes an entry stamped with the current UTC time. A nil log is a
// no-op and write failures are dropped: the activity log never blocks the
// operation it describes.
func Record(log EventLog, level, typ, msg string, data map[string]any) {
	if log == nil {
		return
	}
	_ = log.Write(Entry{
		Time:    time.Now().UTC(),
		Level:   level,
		Type:    typ,
		Message: msg,
		Data:    data,
	})
}
