package session

import (
	"time"
)

// restTimer is the session-wide countdown started after completing a set.
// Only one countdown runs at a time; starting a new one replaces the old.
// The generation counter lets a replaced ticker goroutine notice it is stale.
type restTimer struct {
	running    bool
	remaining  int
	owner      string
	generation int
}

// startRestLocked begins (or replaces) the countdown for an exercise.
func (m *Manager) startRestLocked(exerciseID string, seconds int) {
	if seconds <= 0 {
		seconds = 1
	}
	m.rest.generation++
	m.rest.running = true
	m.rest.remaining = seconds
	m.rest.owner = exerciseID

	if m.restTicker {
		go m.runRest(m.rest.generation)
	}
}

func (m *Manager) stopRestLocked() {
	m.rest.generation++
	m.rest.running = false
	m.rest.remaining = 0
	m.rest.owner = ""
}

// runRest drives one countdown at one tick per second. It exits when the
// countdown finishes or when its generation is superseded.
func (m *Manager) runRest(gen int) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if done := m.restTick(gen); done {
			return
		}
	}
}

// restTick decrements the countdown once. Returns true when this goroutine
// should stop, either because the timer fired or because it was replaced.
func (m *Manager) restTick(gen int) bool {
	m.mu.Lock()
	if gen != m.rest.generation || !m.rest.running {
		m.mu.Unlock()
		return true
	}
	m.rest.remaining--
	if m.rest.remaining > 0 {
		m.mu.Unlock()
		return false
	}

	owner := m.rest.owner
	vibration := m.vibration
	m.rest.running = false
	m.rest.remaining = 0
	m.rest.owner = ""
	m.mu.Unlock()

	// Fire-and-forget: sound/vibration failures are the notifier's problem.
	m.notifier.RestFinished(owner, vibration)
	return true
}

// SkipRest forces the countdown back to idle immediately.
func (m *Manager) SkipRest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopRestLocked()
}

// AddRestTime extends a running countdown without resetting it. A no-op when
// no countdown is running.
func (m *Manager) AddRestTime(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.rest.running || seconds <= 0 {
		return
	}
	m.rest.remaining += seconds
}
