package core

import (
	"fmt"
	"sync"

	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// StreamState is the complete application state. Values are replaced
// wholesale by transitions; the Events slice of a published state is never
// modified in place.
type StreamState struct {
	Running bool
	Filter  models.SeverityFilter
	Events  []models.Event
	Status  string
}

// NewStreamState builds the initial state from persisted settings and events.
func NewStreamState(settings models.Settings, events []models.Event) StreamState {
	filter := settings.SeverityFilter
	if !filter.IsValid() {
		filter = models.FilterAll
	}
	if len(events) > models.MaxEvents {
		events = events[:models.MaxEvents]
	}
	return StreamState{
		Running: settings.Running,
		Filter:  filter,
		Events:  events,
	}
}

// Settings returns the persisted part of the state.
func (s StreamState) Settings() models.Settings {
	return models.Settings{Running: s.Running, SeverityFilter: s.Filter}
}

// Visible returns the events that pass the current severity filter.
func (s StreamState) Visible() []models.Event {
	return FilterBySeverity(s.Events, s.Filter)
}

// Summary summarizes the visible events.
func (s StreamState) Summary() models.Summary {
	return Summarize(s.Visible())
}

// Transition computes the next state from the current one.
type Transition func(StreamState) StreamState

// Tick prepends the event synthesized from seed, keeping the newest
// MaxEvents. A paused stream is left unchanged.
func Tick(seed int64) Transition {
	return func(s StreamState) StreamState {
		if !s.Running {
			return s
		}
		return PrependEvent(Synthesize(seed))(s)
	}
}

// PrependEvent adds e to the front of the list regardless of the running flag.
func PrependEvent(e models.Event) Transition {
	return func(s StreamState) StreamState {
		n := min(len(s.Events)+1, models.MaxEvents)
		next := make([]models.Event, 0, n)
		next = append(next, e)
		next = append(next, s.Events[:n-1]...)
		s.Events = next
		return s
	}
}

// TogglePause flips the running flag.
func TogglePause() Transition {
	return func(s StreamState) StreamState {
		s.Running = !s.Running
		if s.Running {
			s.Status = "Stream resumed."
		} else {
			s.Status = "Stream paused."
		}
		return s
	}
}

// SetRunning sets the running flag explicitly.
func SetRunning(running bool) Transition {
	return func(s StreamState) StreamState {
		if s.Running == running {
			return s
		}
		return TogglePause()(s)
	}
}

// SetFilter changes the severity filter. Invalid filters fall back to all.
func SetFilter(filter models.SeverityFilter) Transition {
	return func(s StreamState) StreamState {
		if !filter.IsValid() {
			filter = models.FilterAll
		}
		s.Filter = filter
		return s
	}
}

// Clear drops every event.
func Clear() Transition {
	return func(s StreamState) StreamState {
		s.Events = []models.Event{}
		s.Status = "Cleared event history."
		return s
	}
}

// ReplaceEvents swaps in a new event list, truncated to MaxEvents.
func ReplaceEvents(events []models.Event, status string) Transition {
	return func(s StreamState) StreamState {
		if len(events) > models.MaxEvents {
			events = events[:models.MaxEvents]
		}
		s.Events = append([]models.Event(nil), events...)
		if s.Events == nil {
			s.Events = []models.Event{}
		}
		s.Status = status
		return s
	}
}

// SetStatus only updates the status message.
func SetStatus(status string) Transition {
	return func(s StreamState) StreamState {
		s.Status = status
		return s
	}
}

// ImportedStatus and ImportFailedStatus format the import outcome messages.
func ImportedStatus(n int) string { return fmt.Sprintf("Imported %d events.", n) }

func ImportFailedStatus(err error) string { return fmt.Sprintf("Import failed: %v", err) }

// ExportedStatus formats the export outcome message.
func ExportedStatus(path string) string { return fmt.Sprintf("Exported events to %s.", path) }

// Subscriber is notified after every dispatched transition.
type Subscriber func(prev, next StreamState)

// StreamController owns the current StreamState. All mutation goes through
// Dispatch, which notifies subscribers after the state is replaced.
type StreamController struct {
	// dispatchMu is held from the state swap until every subscriber has
	// returned, so notifications arrive in the order states were published.
	dispatchMu sync.Mutex

	mu    sync.Mutex
	state StreamState
	subs  []Subscriber
}

// NewStreamController creates a controller holding initial.
func NewStreamController(initial StreamState) *StreamController {
	return &StreamController{state: initial}
}

// State returns the current state.
func (c *StreamController) State() StreamState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to be called after each transition.
func (c *StreamController) Subscribe(fn Subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// Dispatch applies t and returns the resulting state. Subscribers run in
// registration order and may read State, but must not call Dispatch.
// Concurrent dispatches are delivered one at a time, so the last
// notification always carries the current state.
func (c *StreamController) Dispatch(t Transition) StreamState {
	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	c.mu.Lock()
	prev := c.state
	next := t(prev)
	c.state = next
	subs := append([]Subscriber(nil), c.subs...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(prev, next)
	}
	return next
}

// Import parses text and, on success, replaces the event list. On failure
// the events are left untouched and the status carries the reason.
func (c *StreamController) Import(text string) (StreamState, error) {
	events, err := ParseImportedEvents(text)
	if err != nil {
		return c.Dispatch(SetStatus(ImportFailedStatus(err))), err
	}
	return c.Dispatch(ReplaceEvents(events, ImportedStatus(len(events)))), nil
}

// EventsChanged reports whether a transition replaced the event list.
// Transitions never edit a slice in place, so identity is enough.
func EventsChanged(prev, next StreamState) bool {
	if len(prev.Events) != len(next.Events) {
		return true
	}
	return len(next.Events) > 0 && &prev.Events[0] != &next.Events[0]
}

// SettingsChanged reports whether the persisted settings differ.
func SettingsChanged(prev, next StreamState) bool {
	return prev.Settings() != next.Settings()
}

// Prepended reports the event a transition added to the front of the list,
// if the transition was a prepend.
func Prepended(prev, next StreamState) (models.Event, bool) {
	if !EventsChanged(prev, next) || len(next.Events) != min(len(prev.Events)+1, models.MaxEvents) {
		return models.Event{}, false
	}
	if len(prev.Events) > 0 && (len(next.Events) < 2 || next.Events[1] != prev.Events[0]) {
		return models.Event{}, false
	}
	return next.Events[0], true
}
