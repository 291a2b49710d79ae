package storage

import (
	"errors"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/valter-silva-au/flowpulse/internal/core"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// countingStore records how often each key is saved.
type countingStore struct {
	StateStore
	eventSaves, settingSaves int
	err                      error
}

func (c *countingStore) SaveEvents(events []models.Event) error {
	c.eventSaves++
	if c.err != nil {
		return c.err
	}
	return c.StateStore.SaveEvents(events)
}

func (c *countingStore) SaveSettings(settings models.Settings) error {
	c.settingSaves++
	if c.err != nil {
		return c.err
	}
	return c.StateStore.SaveSettings(settings)
}

func newPersistedController(t *testing.T, store StateStore, onError func(error)) *core.StreamController {
	t.Helper()
	c := core.NewStreamController(core.NewStreamState(models.DefaultSettings(), nil))
	c.Subscribe(Persister(store, onError))
	return c
}

func TestPersister_SavesOnlyChangedKeys(t *testing.T) {
	store := &countingStore{StateStore: NewStateStore(afero.NewMemMapFs(), "/p")}
	c := newPersistedController(t, store, nil)

	c.Dispatch(core.Tick(1))
	if store.eventSaves != 1 || store.settingSaves != 0 {
		t.Errorf("after tick: events=%d settings=%d", store.eventSaves, store.settingSaves)
	}

	c.Dispatch(core.SetFilter("warn"))
	if store.eventSaves != 1 || store.settingSaves != 1 {
		t.Errorf("after filter: events=%d settings=%d", store.eventSaves, store.settingSaves)
	}

	c.Dispatch(core.SetStatus("hello"))
	if store.eventSaves != 1 || store.settingSaves != 1 {
		t.Errorf("status change triggered a save: events=%d settings=%d", store.eventSaves, store.settingSaves)
	}

	if got := store.LoadEvents(); len(got) != 1 || got[0].ID != "evt-1" {
		t.Errorf("persisted events = %+v", got)
	}
	if got := store.LoadSettings(); got.SeverityFilter != "warn" {
		t.Errorf("persisted settings = %+v", got)
	}
}

func TestPersister_ReportsErrorsAndKeepsState(t *testing.T) {
	store := &countingStore{StateStore: NewStateStore(afero.NewMemMapFs(), "/p"), err: errors.New("quota exceeded")}

	var reported []error
	c := newPersistedController(t, store, func(err error) { reported = append(reported, err) })

	state := c.Dispatch(core.Tick(1))
	if len(state.Events) != 1 {
		t.Errorf("in-memory state lost the event")
	}
	if len(reported) != 1 {
		t.Fatalf("reported %d errors, want 1", len(reported))
	}
}

func TestPersister_RestartRestoresState(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := newPersistedController(t, NewStateStore(fs, "/p"), nil)
	c.Dispatch(core.Tick(5))
	c.Dispatch(core.Tick(6))
	c.Dispatch(core.TogglePause())

	store := NewStateStore(fs, "/p")
	restored := core.NewStreamState(store.LoadSettings(), store.LoadEvents())
	if restored.Running {
		t.Error("restored stream should be paused")
	}
	if len(restored.Events) != 2 || restored.Events[0].ID != "evt-6" {
		t.Errorf("restored events = %+v", restored.Events)
	}
}

func TestPersister_ConcurrentDispatchSavesLatest(t *testing.T) {
	store := NewStateStore(afero.NewMemMapFs(), testBase)
	c := newPersistedController(t, store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			c.Dispatch(core.Tick(seed))
		}(int64(i))
	}
	wg.Wait()

	want := c.State().Events
	got := store.LoadEvents()
	if len(got) != len(want) {
		t.Fatalf("persisted %d events, state has %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("persisted event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
