package storage

import (
	"github.com/valter-silva-au/flowpulse/internal/core"
)

// Persister returns a controller subscriber that writes whichever of the two
// keys a transition changed. Write failures are handed to onError and
// otherwise ignored; the in-memory state stays authoritative.
func Persister(store StateStore, onError func(error)) core.Subscriber {
	report := func(err error) {
		if err != nil && onError != nil {
			onError(err)
		}
	}
	return func(prev, next core.StreamState) {
		if core.EventsChanged(prev, next) {
			report(store.SaveEvents(next.Events))
		}
		if core.SettingsChanged(prev, next) {
			report(store.SaveSettings(next.Settings()))
		}
	}
}
