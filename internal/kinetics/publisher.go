package kinetics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Notifier is the interface that all snapshot transports must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g., "webhook", "websocket")
	Type() string

	// Notify delivers one snapshot. The context carries cancellation and timeout.
	Notify(ctx context.Context, snapshot Snapshot) error

	// Close closes the notifier and releases any resources
	Close() error
}

// SnapshotSource is anything that can produce an authoritative snapshot.
type SnapshotSource interface {
	Snapshot() Snapshot
}

// publishJob is one snapshot waiting for delivery
type publishJob struct {
	Snapshot    Snapshot
	NotifierIDs []string
}

const (
	publishQueueSize  = 1024
	publishMaxRetries = 3
	publishBackoff    = 100 * time.Millisecond
	publishTimeout    = 30 * time.Second
)

// SnapshotPublisher fans snapshots out to registered notifiers from a
// background worker. It is the only asynchronous boundary of a match: the
// tick never waits on it.
type SnapshotPublisher struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan publishJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger
}

// NewSnapshotPublisher creates a publisher with one delivery worker.
func NewSnapshotPublisher(logger Logger) *SnapshotPublisher {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	p := &SnapshotPublisher{
		notifiers: make(map[string]Notifier),
		jobs:      make(chan publishJob, publishQueueSize),
		logger:    logger,
	}
	p.startWorkers(1)
	return p
}

// RegisterNotifier registers a notifier with the publisher
func (p *SnapshotPublisher) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}

	id := notifier.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}

	p.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier closes and removes a notifier
func (p *SnapshotPublisher) UnregisterNotifier(id string) error {
	p.mu.Lock()
	notifier, exists := p.notifiers[id]
	if exists {
		delete(p.notifiers, id)
	}
	p.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}
	if err := notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}
	return nil
}

// GetNotifier retrieves a notifier by ID
func (p *SnapshotPublisher) GetNotifier(id string) (Notifier, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	notifier, exists := p.notifiers[id]
	return notifier, exists
}

// ListNotifiers returns the registered notifier IDs in sorted order.
func (p *SnapshotPublisher) ListNotifiers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.notifiers))
	for id := range p.notifiers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Enqueue queues snapshot for asynchronous delivery to notifierIDs, or to
// every registered notifier when notifierIDs is empty. It never blocks and
// drops the snapshot when the queue is full.
func (p *SnapshotPublisher) Enqueue(snapshot Snapshot, notifierIDs ...string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}
	if len(notifierIDs) == 0 {
		for id := range p.notifiers {
			notifierIDs = append(notifierIDs, id)
		}
	}
	if len(notifierIDs) == 0 {
		return
	}

	select {
	case p.jobs <- publishJob{Snapshot: snapshot, NotifierIDs: notifierIDs}:
	default:
		p.logger.Warnf("snapshot queue full, dropping snapshot: match=%s seq=%d", snapshot.MatchID, snapshot.Seq)
	}
}

// Publish delivers snapshot synchronously to every registered notifier.
func (p *SnapshotPublisher) Publish(ctx context.Context, snapshot Snapshot) error {
	p.mu.RLock()
	targets := make([]Notifier, 0, len(p.notifiers))
	for _, n := range p.notifiers {
		targets = append(targets, n)
	}
	p.mu.RUnlock()

	var errs []error
	for _, n := range targets {
		if err := n.Notify(ctx, snapshot); err != nil {
			errs = append(errs, fmt.Errorf("notifier %s failed: %w", n.ID(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish errors: %v", errs)
	}
	return nil
}

// Broadcast enqueues a snapshot of source every interval until ctx is done.
func (p *SnapshotPublisher) Broadcast(ctx context.Context, source SnapshotSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Enqueue(source.Snapshot())
		}
	}
}

func (p *SnapshotPublisher) startWorkers(n int) {
	for range n {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *SnapshotPublisher) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.dispatchJob(job)
	}
}

func (p *SnapshotPublisher) dispatchJob(job publishJob) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	for _, id := range job.NotifierIDs {
		p.notifyWithRetry(ctx, id, job.Snapshot)
	}
}

// notifyWithRetry retries a failed delivery with exponential backoff.
func (p *SnapshotPublisher) notifyWithRetry(ctx context.Context, notifierID string, snapshot Snapshot) {
	p.mu.RLock()
	notifier, ok := p.notifiers[notifierID]
	p.mu.RUnlock()

	if !ok {
		p.logger.Warnf("snapshot delivery failed: notifier=%s error=notifier not found", notifierID)
		return
	}

	backoff := publishBackoff
	for attempt := 0; attempt <= publishMaxRetries; attempt++ {
		err := notifier.Notify(ctx, snapshot)
		if err == nil {
			return
		}

		p.logger.Warnf("snapshot delivery failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)
		if attempt == publishMaxRetries {
			p.logger.Errorf("snapshot delivery gave up after %d attempts: notifier=%s", publishMaxRetries+1, notifierID)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}

// Close drains the queue, stops the worker and closes every notifier.
func (p *SnapshotPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	var errs []error
	for id, notifier := range p.notifiers {
		if err := notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	p.notifiers = make(map[string]Notifier)
	p.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("errors closing notifiers: %v", errs)
	}
	return nil
}
