package kinetics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// mockNotifier is a test implementation of Notifier
type mockNotifier struct {
	id         string
	notifyFunc func(context.Context, Snapshot) error
	mu         sync.Mutex
	received   []Snapshot
	closed     bool
}

func (m *mockNotifier) ID() string   { return m.id }
func (m *mockNotifier) Type() string { return "mock" }
func (m *mockNotifier) Notify(ctx context.Context, snapshot Snapshot) error {
	m.mu.Lock()
	m.received = append(m.received, snapshot)
	m.mu.Unlock()
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, snapshot)
	}
	return nil
}
func (m *mockNotifier) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.received)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSnapshotPublisher_RegisterNotifier(t *testing.T) {
	p := NewSnapshotPublisher(nil)
	defer p.Close()

	if err := p.RegisterNotifier(nil); err == nil {
		t.Error("Expected error for nil notifier")
	}
	if err := p.RegisterNotifier(&mockNotifier{}); err == nil {
		t.Error("Expected error for empty ID")
	}
	if err := p.RegisterNotifier(&mockNotifier{id: "a"}); err != nil {
		t.Fatalf("RegisterNotifier: %v", err)
	}
	if err := p.RegisterNotifier(&mockNotifier{id: "a"}); err == nil {
		t.Error("Expected error for duplicate ID")
	}
	if _, ok := p.GetNotifier("a"); !ok {
		t.Error("Expected notifier a to be registered")
	}
}

func TestSnapshotPublisher_UnregisterClosesNotifier(t *testing.T) {
	p := NewSnapshotPublisher(nil)
	defer p.Close()

	n := &mockNotifier{id: "a"}
	p.RegisterNotifier(n)
	if err := p.UnregisterNotifier("a"); err != nil {
		t.Fatalf("UnregisterNotifier: %v", err)
	}
	if !n.closed {
		t.Error("Expected notifier to be closed")
	}
	if err := p.UnregisterNotifier("a"); err == nil {
		t.Error("Expected error unregistering twice")
	}
}

func TestSnapshotPublisher_EnqueueToAll(t *testing.T) {
	p := NewSnapshotPublisher(nil)
	defer p.Close()

	a := &mockNotifier{id: "a"}
	b := &mockNotifier{id: "b"}
	p.RegisterNotifier(a)
	p.RegisterNotifier(b)

	p.Enqueue(Snapshot{Seq: 1})
	waitFor(t, func() bool { return a.count() == 1 && b.count() == 1 })

	p.Enqueue(Snapshot{Seq: 2}, "b")
	waitFor(t, func() bool { return b.count() == 2 })
	if a.count() != 1 {
		t.Errorf("targeted snapshot reached notifier a")
	}

	if ids := p.ListNotifiers(); len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("unexpected notifier list %v", ids)
	}
}

func TestSnapshotPublisher_Retry(t *testing.T) {
	p := NewSnapshotPublisher(nil)
	defer p.Close()

	var mu sync.Mutex
	failures := 2
	n := &mockNotifier{id: "flaky", notifyFunc: func(context.Context, Snapshot) error {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			return errors.New("temporary failure")
		}
		return nil
	}}
	p.RegisterNotifier(n)

	p.Enqueue(Snapshot{Seq: 1})
	waitFor(t, func() bool { return n.count() == 3 })
}

func TestSnapshotPublisher_Publish(t *testing.T) {
	p := NewSnapshotPublisher(nil)
	defer p.Close()

	p.RegisterNotifier(&mockNotifier{id: "ok"})
	if err := p.Publish(context.Background(), Snapshot{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	p.RegisterNotifier(&mockNotifier{id: "bad", notifyFunc: func(context.Context, Snapshot) error {
		return errors.New("down")
	}})
	if err := p.Publish(context.Background(), Snapshot{}); err == nil {
		t.Fatal("Expected error from failing notifier")
	}
}

func TestSnapshotPublisher_Broadcast(t *testing.T) {
	p := NewSnapshotPublisher(nil)
	defer p.Close()

	n := &mockNotifier{id: "a"}
	p.RegisterNotifier(n)

	sim := newTestSimulation(t, DefaultInitialCounts(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Broadcast(ctx, sim, 5*time.Millisecond)
		close(done)
	}()

	waitFor(t, func() bool { return n.count() >= 2 })
	cancel()
	<-done

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.received[1].Seq <= n.received[0].Seq {
		t.Errorf("broadcast snapshots not ordered: %d then %d", n.received[0].Seq, n.received[1].Seq)
	}
}

func TestSnapshotPublisher_CloseIdempotent(t *testing.T) {
	p := NewSnapshotPublisher(nil)
	n := &mockNotifier{id: "a"}
	p.RegisterNotifier(n)

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if !n.closed {
		t.Error("Expected notifier to be closed")
	}
	// enqueue after close is dropped without panicking
	p.Enqueue(Snapshot{Seq: 1})
}
