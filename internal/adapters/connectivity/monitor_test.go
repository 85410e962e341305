package connectivity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptedPinger returns canned results in sequence, repeating the last one.
type scriptedPinger struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (p *scriptedPinger) Ping(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	if i >= len(p.results) {
		i = len(p.results) - 1
	}
	p.calls++
	return p.results[i]
}

// TestMonitor_EagerOnlineFiresCallback tests that a reachable CRM at startup
// counts as an offline-to-online transition.
func TestMonitor_EagerOnlineFiresCallback(t *testing.T) {
	m := NewMonitor(&scriptedPinger{results: []error{nil}}, time.Hour)

	fired := 0
	m.OnOnline(func(_ context.Context) { fired++ })
	m.probe(context.Background())

	if !m.Online() {
		t.Fatal("expected monitor to be online")
	}
	if fired != 1 {
		t.Fatalf("expected eager callback once, fired %d times", fired)
	}
}

// TestMonitor_TransitionsFireOncePerRecovery tests callback semantics across
// repeated probes.
func TestMonitor_TransitionsFireOncePerRecovery(t *testing.T) {
	down := errors.New("dial refused")
	p := &scriptedPinger{results: []error{down, nil, nil, down, nil}}
	m := NewMonitor(p, time.Hour)

	fired := 0
	m.OnOnline(func(_ context.Context) { fired++ })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		m.probe(ctx)
	}

	// Two recoveries: offline->online at probes 2 and 5. The steady online
	// probe 3 must not re-fire.
	if fired != 2 {
		t.Fatalf("expected 2 transitions, got %d", fired)
	}
	if !m.Online() {
		t.Fatal("expected final state online")
	}
}

// TestMonitor_OfflineState tests that a failing probe flips the banner state.
func TestMonitor_OfflineState(t *testing.T) {
	p := &scriptedPinger{results: []error{nil, errors.New("timeout")}}
	m := NewMonitor(p, time.Hour)

	ctx := context.Background()
	m.probe(ctx)
	if !m.Online() {
		t.Fatal("expected online after first probe")
	}
	m.probe(ctx)
	if m.Online() {
		t.Fatal("expected offline after failed probe")
	}
}
