package achem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// EventKind names what a NotificationEvent reports.
type EventKind string

const (
	// EventReaction is published when two particles merge.
	EventReaction EventKind = "reaction"

	// EventFission is published when a particle splits.
	EventFission EventKind = "fission"

	// EventFrame carries a periodic snapshot of a running world.
	EventFrame EventKind = "frame"
)

// NotificationEvent is a single telemetry message about a world.
type NotificationEvent struct {
	WorldID   WorldID   `json:"world_id"`
	Kind      EventKind `json:"kind"`
	Tick      int64     `json:"tick"`
	Timestamp int64     `json:"timestamp"`

	// Cause is set on fission events.
	Cause FissionCause `json:"cause,omitempty"`

	Reactants []BodyState `json:"reactants,omitempty"`
	Products  []BodyState `json:"products,omitempty"`

	// Snapshot and Stats are set on frame events.
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Stats    *Stats    `json:"stats,omitempty"`
}

// JSON returns the event as JSON bytes.
func (ne NotificationEvent) JSON() ([]byte, error) {
	return json.Marshal(ne)
}

// MsgPack returns the event as MessagePack bytes keyed by the JSON field names.
func (ne NotificationEvent) MsgPack() ([]byte, error) {
	return marshalMsgpack(ne)
}

// DecodeNotificationEventMsgpack decodes an event produced by MsgPack.
func DecodeNotificationEventMsgpack(data []byte) (NotificationEvent, error) {
	var ne NotificationEvent
	if err := unmarshalMsgpack(data, &ne); err != nil {
		return NotificationEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	return ne, nil
}

// Notifier is the interface that all notification channels must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g., "webhook", "websocket")
	Type() string

	// Notify sends a notification event. Returns an error if notification fails.
	// The context can be used for cancellation and timeout.
	Notify(ctx context.Context, event NotificationEvent) error

	// Close closes the notifier and releases any resources
	Close() error
}

type notificationJob struct {
	Event       NotificationEvent
	NotifierIDs []string
}

const (
	defaultQueueSize = 1024
	maxNotifyRetries = 3
	initialBackoff   = 100 * time.Millisecond
	dispatchTimeout  = 30 * time.Second
)

// NotificationManager routes world events to registered notifiers through an
// asynchronous queue. Publishing never blocks the simulation: when the queue
// is full the event is dropped.
type NotificationManager struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan notificationJob
	closed    bool
	wg        sync.WaitGroup
	logger    Logger
	dropped   int64
}

// NewNotificationManager creates a new notification manager
func NewNotificationManager() *NotificationManager {
	mgr := &NotificationManager{
		notifiers: make(map[string]Notifier),
		jobs:      make(chan notificationJob, defaultQueueSize),
		logger:    NewNoOpLogger(),
	}
	mgr.startWorkers(1)
	return mgr
}

// SetLogger sets the logger used to report delivery failures.
func (nm *NotificationManager) SetLogger(logger Logger) {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	nm.mu.Lock()
	nm.logger = logger
	nm.mu.Unlock()
}

func (nm *NotificationManager) log() Logger {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.logger
}

// RegisterNotifier registers a notifier with the manager
func (nm *NotificationManager) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}

	id := notifier.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()

	if _, exists := nm.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}

	nm.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier closes and removes a notifier
func (nm *NotificationManager) UnregisterNotifier(id string) error {
	nm.mu.Lock()
	notifier, exists := nm.notifiers[id]
	if exists {
		delete(nm.notifiers, id)
	}
	nm.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}

	if err := notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}
	return nil
}

// GetNotifier retrieves a notifier by ID
func (nm *NotificationManager) GetNotifier(id string) (Notifier, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	notifier, exists := nm.notifiers[id]
	return notifier, exists
}

// ListNotifiers returns the sorted IDs of all registered notifiers
func (nm *NotificationManager) ListNotifiers() []string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	ids := make([]string, 0, len(nm.notifiers))
	for id := range nm.notifiers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Dropped returns how many events were dropped because the queue was full.
func (nm *NotificationManager) Dropped() int64 {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.dropped
}

// Publish stamps the event and enqueues it for every registered notifier.
func (nm *NotificationManager) Publish(event NotificationEvent) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	nm.Enqueue(event, nm.ListNotifiers())
}

// Enqueue enqueues an event for the given notifiers. It never blocks and
// drops the event if the queue is full.
func (nm *NotificationManager) Enqueue(event NotificationEvent, notifierIDs []string) {
	if len(notifierIDs) == 0 {
		return
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()
	if nm.closed {
		return
	}

	select {
	case nm.jobs <- notificationJob{Event: event, NotifierIDs: notifierIDs}:
	default:
		nm.dropped++
		nm.logger.Warnf("notification queue full, dropping %s event: world=%s tick=%d",
			event.Kind, event.WorldID, event.Tick)
	}
}

func (nm *NotificationManager) startWorkers(n int) {
	for range n {
		nm.wg.Add(1)
		go nm.worker()
	}
}

func (nm *NotificationManager) worker() {
	defer nm.wg.Done()
	for job := range nm.jobs {
		nm.dispatchJob(job)
	}
}

func (nm *NotificationManager) dispatchJob(job notificationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	for _, id := range job.NotifierIDs {
		nm.notifyWithRetry(ctx, id, job.Event)
	}
}

// notifyWithRetry attempts delivery with exponential backoff.
func (nm *NotificationManager) notifyWithRetry(ctx context.Context, notifierID string, event NotificationEvent) {
	notifier, ok := nm.GetNotifier(notifierID)
	logger := nm.log()
	if !ok {
		logger.Warnf("notification failed: notifier=%s error=notifier not found", notifierID)
		return
	}

	backoff := initialBackoff
	for attempt := 0; attempt <= maxNotifyRetries; attempt++ {
		err := notifier.Notify(ctx, event)
		if err == nil {
			return
		}

		logger.Warnf("notification failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)

		if attempt == maxNotifyRetries {
			logger.Errorf("notification failed after %d attempts: notifier=%s", maxNotifyRetries+1, notifierID)
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

// Notify sends an event to the given notifiers synchronously.
func (nm *NotificationManager) Notify(ctx context.Context, event NotificationEvent, notifierIDs []string) error {
	var errs []error
	for _, id := range notifierIDs {
		notifier, exists := nm.GetNotifier(id)
		if !exists {
			errs = append(errs, fmt.Errorf("notifier %s not found", id))
			continue
		}

		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("notifier %s failed: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Close drains the queue, stops the worker and closes every notifier.
func (nm *NotificationManager) Close() error {
	nm.mu.Lock()
	if nm.closed {
		nm.mu.Unlock()
		return nil
	}
	nm.closed = true
	close(nm.jobs)
	nm.mu.Unlock()

	nm.wg.Wait()

	nm.mu.Lock()
	var errs []error
	for id, notifier := range nm.notifiers {
		if err := notifier.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	nm.notifiers = make(map[string]Notifier)
	nm.mu.Unlock()

	return errors.Join(errs...)
}
