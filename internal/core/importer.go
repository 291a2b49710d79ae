package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// ValidationKind distinguishes the ways imported JSON can be rejected.
type ValidationKind string

const (
	KindParse         ValidationKind = "parse"
	KindShape         ValidationKind = "shape"
	KindNoValidEvents ValidationKind = "no_valid_events"
)

// ValidationError reports why an import was rejected.
type ValidationError struct {
	Kind    ValidationKind
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is matches any ValidationError of the same kind, so callers can write
// errors.Is(err, core.ErrShape).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrParse         = &ValidationError{Kind: KindParse, Message: "invalid JSON"}
	ErrShape         = &ValidationError{Kind: KindShape, Message: "imported JSON must be an array"}
	ErrNoValidEvents = &ValidationError{Kind: KindNoValidEvents, Message: "no valid events found in JSON file"}
)

// ParseImportedEvents parses untrusted JSON text into at most MaxEvents
// events. Elements that fail the shape check are dropped. The call fails only
// when the text is not JSON, the top-level value is not an array, or a
// non-empty array contains no valid event. An empty array is not an error.
func ParseImportedEvents(text string) ([]models.Event, error) {
	value, err := decodeJSON([]byte(text))
	if err != nil {
		return nil, &ValidationError{Kind: KindParse, Message: ErrParse.Message, Err: err}
	}

	items, ok := value.([]any)
	if !ok {
		return nil, &ValidationError{Kind: KindShape, Message: ErrShape.Message}
	}

	events := ValidateEvents(items)
	if len(events) == 0 && len(items) > 0 {
		return nil, &ValidationError{Kind: KindNoValidEvents, Message: ErrNoValidEvents.Message}
	}

	return events, nil
}

// DecodeStoredEvents is the lenient counterpart of ParseImportedEvents used
// for previously persisted data: anything unreadable yields an empty list.
func DecodeStoredEvents(data []byte) []models.Event {
	value, err := decodeJSON(data)
	if err != nil {
		return []models.Event{}
	}
	items, ok := value.([]any)
	if !ok {
		return []models.Event{}
	}
	return ValidateEvents(items)
}

// ValidateEvents keeps the items that pass ValidateEvent, in order, capped at
// MaxEvents.
func ValidateEvents(items []any) []models.Event {
	events := make([]models.Event, 0, min(len(items), models.MaxEvents))
	for _, item := range items {
		if len(events) == models.MaxEvents {
			break
		}
		if e, ok := ValidateEvent(item); ok {
			events = append(events, e)
		}
	}
	return events
}

// ValidateEvent checks a decoded JSON value against the event shape: an
// object with string id, service and ts, a finite numeric latencyMs, and a
// known severity.
func ValidateEvent(value any) (models.Event, bool) {
	obj, ok := value.(map[string]any)
	if !ok || obj == nil {
		return models.Event{}, false
	}

	id, ok := obj["id"].(string)
	if !ok {
		return models.Event{}, false
	}
	service, ok := obj["service"].(string)
	if !ok {
		return models.Event{}, false
	}
	ts, ok := obj["ts"].(string)
	if !ok {
		return models.Event{}, false
	}
	severity, ok := obj["severity"].(string)
	if !ok || !models.Severity(severity).IsValid() {
		return models.Event{}, false
	}
	latency, ok := finiteNumber(obj["latencyMs"])
	if !ok {
		return models.Event{}, false
	}

	return models.Event{
		ID:        id,
		Service:   service,
		LatencyMs: latency,
		Severity:  models.Severity(severity),
		TS:        ts,
	}, true
}

func finiteNumber(value any) (float64, bool) {
	var f float64
	switch n := value.(type) {
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, false
		}
	case float64:
		f = n
	default:
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// decodeJSON decodes exactly one JSON value, keeping numbers as json.Number
// so out-of-range values can be rejected instead of failing the whole parse.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return value, nil
}
