// Package connectivity derives the offline flag from gateway outcomes.
package connectivity

import (
	"errors"
	"sync"

	"xcar/internal/gateway"

	"go.uber.org/zap"
)

// Monitor tracks whether the API is reachable. It only drives presentation;
// business logic never branches on it.
type Monitor struct {
	logger *zap.Logger

	mu      sync.Mutex
	offline bool
	nextID  int
	subs    map[int]func(offline bool)
}

func NewMonitor(logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		logger: logger,
		subs:   make(map[int]func(bool)),
	}
}

// Observe records the outcome of a gateway call. Only ErrUnreachable marks
// the API offline; a rejection proves it answered.
func (m *Monitor) Observe(err error) {
	m.Set(errors.Is(err, gateway.ErrUnreachable))
}

// Offline reports the current flag.
func (m *Monitor) Offline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offline
}

// Set changes the flag and notifies subscribers when it flips.
func (m *Monitor) Set(offline bool) {
	m.mu.Lock()
	if m.offline == offline {
		m.mu.Unlock()
		return
	}
	m.offline = offline
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if offline {
		m.logger.Warn("API unreachable, switching to offline mode")
	} else {
		m.logger.Info("API reachable again")
	}
	for _, fn := range subs {
		fn(offline)
	}
}

// Subscribe registers fn for flag changes and returns a function that removes
// it.
func (m *Monitor) Subscribe(fn func(offline bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Banner is the passive indicator shown while offline.
func (m *Monitor) Banner() string {
	if m.Offline() {
		return "Offline mode: changes are saved on this device only"
	}
	return ""
}
