package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pinger probes the CRM; a nil return means the dashboard is online.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor tracks whether the CRM is reachable, standing in for the browser's
// online/offline events. It probes on an interval and invokes registered
// callbacks on each offline-to-online transition. The monitor starts in the
// offline state, so the first successful probe after startup also fires the
// callbacks, which gives the queue its eager drain on startup.
type Monitor struct {
	pinger   Pinger
	interval time.Duration

	mu       sync.Mutex
	online   bool
	onOnline []func(ctx context.Context)
}

// NewMonitor creates a monitor that probes every interval.
// PRE: pinger is non-nil; interval > 0
// POST: Returns a monitor in the offline state, not yet started
func NewMonitor(pinger Pinger, interval time.Duration) *Monitor {
	return &Monitor{pinger: pinger, interval: interval}
}

// OnOnline registers a callback invoked on every offline-to-online
// transition. Register before Start; callbacks run on the monitor goroutine.
// PRE: fn is non-nil
// POST: fn will be invoked once per transition
func (m *Monitor) OnOnline(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// Online reports the last observed connectivity state. The dashboard shows
// the persistent offline banner whenever this is false, independent of
// whether the queue is empty.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Start probes once immediately, then on every tick until ctx is cancelled.
// PRE: ctx is valid
// POST: Blocks until ctx is done; run it on its own goroutine
func (m *Monitor) Start(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// probe performs one reachability check and fires callbacks on an
// offline-to-online transition.
func (m *Monitor) probe(ctx context.Context) {
	err := m.pinger.Ping(ctx)
	nowOnline := err == nil

	m.mu.Lock()
	wasOnline := m.online
	m.online = nowOnline
	callbacks := m.onOnline
	m.mu.Unlock()

	if nowOnline == wasOnline {
		return
	}
	if nowOnline {
		slog.Info("connectivity_event", "event", "online")
		for _, fn := range callbacks {
			fn(ctx)
		}
	} else {
		slog.Warn("connectivity_event", "event", "offline", "error", err)
	}
}
