package wizard

import (
	"sync"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/google/uuid"
)

// Store owns one wizard state. Its only ways in are Dispatch and the
// selection helpers built on it; reads return copies.
//
// A Store is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	state State
}

// NewStore creates a store holding the initial state.
func NewStore() *Store {
	return &Store{state: Initial()}
}

// NewStoreFrom creates a store holding a previously persisted state.
func NewStoreFrom(s State) *Store {
	return &Store{state: s.clone()}
}

// Dispatch applies a to the owned state.
func (st *Store) Dispatch(a Action) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state = Reduce(st.state, a)
}

// State returns a copy of the current state.
func (st *Store) State() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.clone()
}

// Select selects an automation if it is not selected yet and returns the
// handle through which its config can be changed.
func (st *Store) Select(a domain.Automation) ConfigHandle {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.state.IsAutomationSelected(a.ID) {
		st.state = Reduce(st.state, ToggleAutomation{AutomationID: a.ID, Automation: &a})
	}
	return ConfigHandle{store: st, id: a.ID}
}

// Configure returns the config handle of an already selected automation.
func (st *Store) Configure(id uuid.UUID) (ConfigHandle, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.state.IsAutomationSelected(id) {
		return ConfigHandle{}, false
	}
	return ConfigHandle{store: st, id: id}, true
}

// CanProceedToStep reports whether the owned state may enter step n.
func (st *Store) CanProceedToStep(n Step) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.CanProceedToStep(n)
}

// ValidationMessage returns the blocking message for step n, if any.
func (st *Store) ValidationMessage(n Step) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.ValidationMessage(n)
}

// Savings derives the current savings report.
func (st *Store) Savings() domain.SavingsReport {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.state.Savings()
}

// ConfigHandle gives write access to the config of one selected automation.
// A handle whose automation was deselected afterwards is inert.
type ConfigHandle struct {
	store *Store
	id    uuid.UUID
}

// AutomationID returns the automation the handle refers to.
func (h ConfigHandle) AutomationID() uuid.UUID { return h.id }

// Config returns the current config, or false once the automation is deselected.
func (h ConfigHandle) Config() (AutomationConfig, bool) {
	if h.store == nil {
		return AutomationConfig{}, false
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return h.store.state.Config(h.id)
}

// Update merges p into the config. It returns false if the automation is no
// longer selected.
func (h ConfigHandle) Update(p ConfigPatch) bool {
	if h.store == nil {
		return false
	}
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	if !h.store.state.IsAutomationSelected(h.id) {
		return false
	}
	h.store.state = Reduce(h.store.state, UpdateAutomationConfig{AutomationID: h.id, Patch: p})
	return true
}
