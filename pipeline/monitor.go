package pipeline

import "sync"

// Monitor is a level-triggered, explicitly-reset signal: a condition
// variable that remembers whether it has been signaled. Separating
// "announce a transition" (Signal) from "consume it" (the Wait loop,
// primed by Reset) closes the missed-wakeup window that a bare
// condition variable leaves open when a signal arrives before the
// waiter does.
//
// A caller that observes Signaled while holding no lock of its own may
// proceed; Wait only returns once that has happened at least once
// since the last Reset.
type Monitor struct {
	mu          sync.Mutex
	cond        *sync.Cond
	signaled    bool
	initialized bool
}

// NewMonitor prepares a Monitor ready for use. The error return exists
// to mirror the failure mode of the hand-rolled primitive this type
// replaces (condition/mutex allocation can fail in the source
// language); constructing a sync.Cond never fails in Go, so NewMonitor
// always succeeds.
func NewMonitor() (*Monitor, error) {
	m := &Monitor{}
	m.cond = sync.NewCond(&m.mu)
	m.initialized = true
	return m, nil
}

// Signal sets the signaled bit and wakes every waiter. Idempotent: a
// second call before the next Reset has no additional effect. No-op on
// an uninitialized or destroyed monitor.
func (m *Monitor) Signal() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return
	}
	m.signaled = true
	m.mu.Unlock()
	m.cond.Broadcast()
}

// Reset clears the signaled bit. No-op on an uninitialized monitor.
func (m *Monitor) Reset() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.signaled = false
	m.mu.Unlock()
}

// Wait blocks until Signal has been observed since the last Reset,
// re-checking on every wakeup to tolerate spurious wakeups. It returns
// ErrMonitorWaitFailed if called on a monitor that was never
// initialized or has since been destroyed.
func (m *Monitor) Wait() error {
	if m == nil {
		return ErrMonitorWaitFailed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ErrMonitorWaitFailed
	}
	for !m.signaled && m.initialized {
		m.cond.Wait()
	}
	if !m.initialized {
		return ErrMonitorWaitFailed
	}
	return nil
}

// Destroy tears down the monitor. It is tolerant of being called
// twice, or on a monitor that was never initialized: any blocked
// waiters are woken so they observe the destroyed state rather than
// hanging forever.
func (m *Monitor) Destroy() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.initialized = false
	m.signaled = false
	m.mu.Unlock()
	if m.cond != nil {
		m.cond.Broadcast()
	}
}
