package core

import (
	"fmt"

	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// StreamService is the single entry point for user actions. Each method
// dispatches one transition on the controller and records it in the
// activity log. Keyboard shortcuts, CLI commands and MCP tools all call it.
type StreamService struct {
	controller *StreamController
	archive    EventArchive
	log        EventLogger
}

// NewStreamService creates a StreamService. log may be nil.
func NewStreamService(controller *StreamController, archive EventArchive, log EventLogger) *StreamService {
	return &StreamService{controller: controller, archive: archive, log: log}
}

// Controller returns the underlying controller.
func (s *StreamService) Controller() *StreamController { return s.controller }

// State returns the current state.
func (s *StreamService) State() StreamState { return s.controller.State() }

// Tick synthesizes one event from seed if the stream is running.
func (s *StreamService) Tick(seed int64) StreamState {
	return s.controller.Dispatch(Tick(seed))
}

// TogglePause flips between running and paused.
func (s *StreamService) TogglePause() StreamState {
	next := s.controller.Dispatch(TogglePause())
	s.logRunning(next.Running)
	return next
}

// SetRunning pauses or resumes the stream. It is a no-op when already in
// the requested state.
func (s *StreamService) SetRunning(running bool) StreamState {
	prev := s.controller.State()
	next := s.controller.Dispatch(SetRunning(running))
	if prev.Running != next.Running {
		s.logRunning(next.Running)
	}
	return next
}

func (s *StreamService) logRunning(running bool) {
	if running {
		s.record(levelInfo, activityResumed, "stream resumed", nil)
	} else {
		s.record(levelInfo, activityPaused, "stream paused", nil)
	}
}

// SetFilter changes the severity filter.
func (s *StreamService) SetFilter(filter models.SeverityFilter) (StreamState, error) {
	if !filter.IsValid() {
		return s.controller.State(), fmt.Errorf("invalid severity filter %q: must be one of all, info, warn, error", filter)
	}
	next := s.controller.Dispatch(SetFilter(filter))
	s.record(levelInfo, activityFilter, "severity filter changed", map[string]any{"filter": string(filter)})
	return next, nil
}

// CycleFilter advances the filter all -> info -> warn -> error -> all.
func (s *StreamService) CycleFilter() StreamState {
	next, _ := s.SetFilter(s.controller.State().Filter.Next())
	return next
}

// Append prepends e to the history, capped at MaxEvents, whether or not the
// stream is running.
func (s *StreamService) Append(e models.Event) StreamState {
	next := s.controller.Dispatch(PrependEvent(e))
	s.record(levelInfo, activityAppended, "event appended", map[string]any{"id": e.ID, "service": e.Service})
	return next
}

// Clear drops the whole event history.
func (s *StreamService) Clear() StreamState {
	dropped := len(s.controller.State().Events)
	next := s.controller.Dispatch(Clear())
	s.record(levelInfo, activityCleared, "event history cleared", map[string]any{"count": dropped})
	return next
}

// Export writes the full, unfiltered event list into dir.
func (s *StreamService) Export(dir string) (string, StreamState, error) {
	events := s.controller.State().Events
	path, err := s.archive.Export(dir, events)
	if err != nil {
		return "", s.controller.Dispatch(SetStatus(fmt.Sprintf("Export failed: %v", err))), err
	}
	next := s.controller.Dispatch(SetStatus(ExportedStatus(path)))
	s.record(levelInfo, activityExported, "events exported", map[string]any{"path": path, "count": len(events)})
	return path, next, nil
}

// ImportFile reads and validates path; on success it replaces the event
// list. On failure the events are untouched and the status explains why.
func (s *StreamService) ImportFile(path string) (StreamState, error) {
	events, err := s.archive.ImportFile(path)
	if err != nil {
		return s.importFailed(err, map[string]any{"path": path}), err
	}
	next := s.controller.Dispatch(ReplaceEvents(events, ImportedStatus(len(events))))
	s.record(levelInfo, activityImported, "events imported", map[string]any{"path": path, "count": len(events)})
	return next, nil
}

// ImportText validates raw JSON text and replaces the event list on success.
func (s *StreamService) ImportText(text string) (StreamState, error) {
	next, err := s.controller.Import(text)
	if err != nil {
		s.record(levelWarn, activityFailed, err.Error(), nil)
		return next, err
	}
	s.record(levelInfo, activityImported, "events imported", map[string]any{"count": len(next.Events)})
	return next, nil
}

func (s *StreamService) importFailed(err error, data map[string]any) StreamState {
	s.record(levelWarn, activityFailed, err.Error(), data)
	return s.controller.Dispatch(SetStatus(ImportFailedStatus(err)))
}

// ReloadEvents replaces the in-memory list with events read from elsewhere,
// e.g. after another process rewrote the state files. The status is kept.
// An equal list is ignored so a process never reacts to its own writes.
func (s *StreamService) ReloadEvents(events []models.Event) StreamState {
	current := s.controller.State()
	if equalEvents(current.Events, events) {
		return current
	}
	return s.controller.Dispatch(ReplaceEvents(events, current.Status))
}

// ReloadSettings applies settings read from elsewhere. Equal settings are ignored.
func (s *StreamService) ReloadSettings(settings models.Settings) StreamState {
	current := s.controller.State()
	if current.Settings() == settings {
		return current
	}
	return s.controller.Dispatch(func(st StreamState) StreamState {
		st.Running = settings.Running
		return SetFilter(settings.SeverityFilter)(st)
	})
}

func (s *StreamService) record(level, eventType, message string, data map[string]any) {
	if s.log == nil {
		return
	}
	_ = s.log.LogEvent(level, eventType, message, data)
}

func equalEvents(a, b []models.Event) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
