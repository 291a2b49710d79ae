package core

// EventLogger is the subset of the observability activity log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(level, eventType, message string, data map[string]any) error
}

// Activity types and levels written through EventLogger. They match the
// constants in the observability package.
const (
	levelInfo = "INFO"
	levelWarn = "WARN"

	activityPaused   = "stream.paused"
	activityResumed  = "stream.resumed"
	activityFilter   = "filter.changed"
	activityAppended = "event.appended"
	activityCleared  = "events.cleared"
	activityExported = "events.exported"
	activityImported = "events.imported"
	activityFailed   = "import.failed"
)
