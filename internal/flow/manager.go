package flow

import (
	"context"
	"sync"
	"time"
)

// Manager keeps one Controller per session.
type Manager struct {
	deps   Deps
	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewManager(deps Deps) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		deps:        deps,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
		controllers: make(map[string]*Controller),
	}
}

// Controller returns the session's controller. A controller that reached a
// terminal state is replaced so the next visit starts over.
func (m *Manager) Controller(sessionID string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.controllers[sessionID]; ok && !c.State().Terminal() {
		return c
	}
	c := newController(m.ctx, sessionID, m.deps, m.now)
	m.controllers[sessionID] = c
	return c
}

// Lookup returns the session's controller without creating one.
func (m *Manager) Lookup(sessionID string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.controllers[sessionID]
	return c, ok
}

// Rekey moves the controller of from, if any, to the session to. A
// controller already registered under to is replaced.
func (m *Manager) Rekey(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.controllers[from]
	if !ok {
		return
	}
	delete(m.controllers, from)
	c.rekey(to)
	m.controllers[to] = c
}

// Sweep drops controllers idle for longer than idle and returns how many
// were removed. Controllers mid-save are kept.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, c := range m.controllers {
		if c.idleSince(cutoff) {
			delete(m.controllers, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.controllers)
}

// Close cancels in-flight generations and waits for them to return.
func (m *Manager) Close() {
	m.cancel()

	m.mu.Lock()
	controllers := make([]*Controller, 0, len(m.controllers))
	for _, c := range m.controllers {
		controllers = append(controllers, c)
	}
	m.mu.Unlock()

	for _, c := range controllers {
		c.Wait()
	}
}
