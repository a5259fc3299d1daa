package session

import (
	"time"
)

// EventType identifies a lifecycle or activity event.
type EventType string

const (
	// EventRenewed fires on creation and on full renewal.
	EventRenewed EventType = "renewed"
	// EventWarning fires when a session enters the warning window.
	EventWarning EventType = "warning"
	// EventExtended fires on every successful extension.
	EventExtended EventType = "extended"
	// EventExpired fires exactly once per session, on expiry or removal cause.
	EventExpired EventType = "expired"
	// EventActivity fires on every recorded activity.
	EventActivity EventType = "activity"
)

// Event is the payload delivered to listeners.
type Event struct {
	Type           EventType
	SessionID      string
	UserID         string
	Reason         string
	Timestamp      time.Time
	TimeRemaining  time.Duration
	ExtensionsUsed int
	ActivityScore  int
}

// Listener receives events synchronously, in registration order.
type Listener func(Event)

type listenerReg struct {
	id uint64
	fn Listener
}

// Subscribe registers fn for events of type t and returns a subscription id.
func (m *Manager) Subscribe(t EventType, fn Listener) uint64 {
	if fn == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextListener++
	id := m.nextListener
	m.listeners[t] = append(m.listeners[t], listenerReg{id: id, fn: fn})
	return id
}

// Unsubscribe removes a subscription by id and reports whether it existed.
func (m *Manager) Unsubscribe(id uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t, regs := range m.listeners {
		for i, reg := range regs {
			if reg.id == id {
				m.listeners[t] = append(regs[:i:i], regs[i+1:]...)
				return true
			}
		}
	}
	return false
}

// notify delivers event to listeners in registration order before returning.
// A panicking listener is logged and never aborts the remaining fan-out.
func (m *Manager) notify(event Event) {
	m.mu.Lock()
	regs := append([]listenerReg(nil), m.listeners[event.Type]...)
	m.mu.Unlock()

	for _, reg := range regs {
		m.safeNotify(reg, event)
	}
}

func (m *Manager) safeNotify(reg listenerReg, event Event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn().
				Uint64("listener", reg.id).
				Str("event", string(event.Type)).
				Str("session_id", event.SessionID).
				Interface("panic", r).
				Msg("session listener panicked")
		}
	}()
	reg.fn(event)
}
