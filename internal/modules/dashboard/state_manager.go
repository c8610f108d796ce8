package dashboard

import (
	"sync"

	"github.com/rs/zerolog"
)

// subscriberBuffer is the number of views queued per live client.
const subscriberBuffer = 4

// StateManager holds the most recently published View and fans new views out
// to live subscribers. Slow subscribers miss views rather than block the
// refresh cycle.
type StateManager struct {
	log     zerolog.Logger
	current View
	subs    map[int]chan View
	nextID  int
	mu      sync.RWMutex
}

// NewStateManager creates a new dashboard state manager
func NewStateManager(log zerolog.Logger) *StateManager {
	return &StateManager{
		log:  log.With().Str("component", "dashboard_state_manager").Logger(),
		subs: make(map[int]chan View),
	}
}

// Current returns the latest published view. Before the first cycle it is
// the zero View.
func (sm *StateManager) Current() View {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Publish replaces the current view and notifies subscribers.
func (sm *StateManager) Publish(v View) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.current = v

	for id, ch := range sm.subs {
		// Non-blocking send (drop if channel full)
		select {
		case ch <- v:
		default:
			sm.log.Warn().Int("subscriber", id).Msg("Subscriber channel full, dropping view")
		}
	}
}

// Subscribe registers a live client. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (sm *StateManager) Subscribe() (<-chan View, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	id := sm.nextID
	sm.nextID++
	ch := make(chan View, subscriberBuffer)
	sm.subs[id] = ch

	sm.log.Debug().Int("subscriber", id).Msg("Subscriber added")

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subs, id)
			close(ch)
			sm.log.Debug().Int("subscriber", id).Msg("Subscriber removed")
		})
	}
	return ch, cancel
}

// SubscriberCount returns the number of live subscribers.
func (sm *StateManager) SubscriberCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subs)
}
