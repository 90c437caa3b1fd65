package achem

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

// mockNotifier records every event it receives.
type mockNotifier struct {
	id         string
	notifyFunc func(context.Context, NotificationEvent) error
	closeFunc  func() error

	mu     sync.Mutex
	events []NotificationEvent
	calls  int
}

func (m *mockNotifier) ID() string   { return m.id }
func (m *mockNotifier) Type() string { return "mock" }

func (m *mockNotifier) Notify(ctx context.Context, event NotificationEvent) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.notifyFunc != nil {
		if err := m.notifyFunc(ctx, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	return nil
}

func (m *mockNotifier) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockNotifier) received() []NotificationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

func (m *mockNotifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// waitFor polls cond until it holds or the timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNewNotificationManager(t *testing.T) {
	nm := NewNotificationManager()

	notifiers := nm.ListNotifiers()
	if notifiers == nil || len(notifiers) != 0 {
		t.Errorf("Expected empty non-nil notifier list, got %v", notifiers)
	}

	if err := nm.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
	// closing twice is harmless
	if err := nm.Close(); err != nil {
		t.Errorf("Second Close returned error: %v", err)
	}
}

func TestNotificationManager_RegisterNotifier(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	if err := nm.RegisterNotifier(&mockNotifier{id: "test-1"}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := nm.RegisterNotifier(&mockNotifier{id: "test-1"}); err == nil {
		t.Error("Expected error for duplicate registration")
	}
	if err := nm.RegisterNotifier(nil); err == nil {
		t.Error("Expected error for nil notifier")
	}
	if err := nm.RegisterNotifier(&mockNotifier{id: ""}); err == nil {
		t.Error("Expected error for empty ID")
	}

	nm.RegisterNotifier(&mockNotifier{id: "b"})
	nm.RegisterNotifier(&mockNotifier{id: "a"})

	want := []string{"a", "b", "test-1"}
	if got := nm.ListNotifiers(); !slices.Equal(got, want) {
		t.Errorf("ListNotifiers() = %v, want %v", got, want)
	}
	if n, ok := nm.GetNotifier("a"); !ok || n.ID() != "a" {
		t.Error("Expected to find notifier 'a'")
	}
}

func TestNotificationManager_UnregisterNotifier(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	if err := nm.UnregisterNotifier("missing"); err == nil {
		t.Error("Expected error for unknown notifier")
	}

	closed := false
	nm.RegisterNotifier(&mockNotifier{id: "n1", closeFunc: func() error {
		closed = true
		return nil
	}})
	if err := nm.UnregisterNotifier("n1"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !closed {
		t.Error("Expected the notifier to be closed on unregister")
	}
	if _, ok := nm.GetNotifier("n1"); ok {
		t.Error("Notifier should be gone")
	}

	nm.RegisterNotifier(&mockNotifier{id: "n2", closeFunc: func() error {
		return errors.New("boom")
	}})
	if err := nm.UnregisterNotifier("n2"); err == nil {
		t.Error("Expected close error to be reported")
	}
}

func TestNotificationManager_PublishDelivers(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	n1 := &mockNotifier{id: "n1"}
	n2 := &mockNotifier{id: "n2"}
	nm.RegisterNotifier(n1)
	nm.RegisterNotifier(n2)

	nm.Publish(NotificationEvent{WorldID: "w", Kind: EventReaction, Tick: 3})

	waitFor(t, time.Second, func() bool {
		return len(n1.received()) == 1 && len(n2.received()) == 1
	})

	got := n1.received()[0]
	if got.WorldID != "w" || got.Kind != EventReaction || got.Tick != 3 {
		t.Errorf("Unexpected event: %+v", got)
	}
	if got.Timestamp == 0 {
		t.Error("Expected Publish to stamp a timestamp")
	}
}

func TestNotificationManager_PublishWithoutNotifiers(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	nm.Publish(NotificationEvent{Kind: EventFrame})
	if nm.Dropped() != 0 {
		t.Error("Publishing with no notifiers should not count as a drop")
	}
}

func TestNotificationManager_Retry(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	var mu sync.Mutex
	failures := 2
	n := &mockNotifier{id: "flaky", notifyFunc: func(context.Context, NotificationEvent) error {
		mu.Lock()
		defer mu.Unlock()
		if failures > 0 {
			failures--
			return errors.New("temporary")
		}
		return nil
	}}
	nm.RegisterNotifier(n)

	nm.Publish(NotificationEvent{Kind: EventFission})

	waitFor(t, 2*time.Second, func() bool { return len(n.received()) == 1 })
	if n.callCount() != 3 {
		t.Errorf("Expected 3 attempts, got %d", n.callCount())
	}
}

func TestNotificationManager_DropsWhenQueueFull(t *testing.T) {
	nm := NewNotificationManager()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	nm.RegisterNotifier(&mockNotifier{id: "slow", notifyFunc: func(ctx context.Context, _ NotificationEvent) error {
		once.Do(func() { close(started) })
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}})

	nm.Publish(NotificationEvent{Kind: EventFrame, Tick: 0})
	<-started

	// the worker is blocked on the first job; fill the queue and overflow it
	for i := range defaultQueueSize + 1 {
		nm.Publish(NotificationEvent{Kind: EventFrame, Tick: int64(i + 1)})
	}
	if nm.Dropped() != 1 {
		t.Errorf("Expected 1 dropped event, got %d", nm.Dropped())
	}

	close(release)
	if err := nm.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}

func TestNotificationManager_NotifySync(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	ok := &mockNotifier{id: "ok"}
	bad := &mockNotifier{id: "bad", notifyFunc: func(context.Context, NotificationEvent) error {
		return errors.New("refused")
	}}
	nm.RegisterNotifier(ok)
	nm.RegisterNotifier(bad)

	err := nm.Notify(context.Background(), NotificationEvent{Kind: EventReaction}, []string{"ok", "bad", "missing"})
	if err == nil {
		t.Fatal("Expected an error from the failing and missing notifiers")
	}
	if len(ok.received()) != 1 {
		t.Error("Expected the healthy notifier to receive the event")
	}
}

func TestNotificationManager_CloseClosesNotifiers(t *testing.T) {
	nm := NewNotificationManager()

	var closed []string
	var mu sync.Mutex
	for _, id := range []string{"a", "b"} {
		nm.RegisterNotifier(&mockNotifier{id: id, closeFunc: func() error {
			mu.Lock()
			closed = append(closed, id)
			mu.Unlock()
			return nil
		}})
	}

	if err := nm.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	slices.Sort(closed)
	if !slices.Equal(closed, []string{"a", "b"}) {
		t.Errorf("Expected both notifiers closed, got %v", closed)
	}
	if len(nm.ListNotifiers()) != 0 {
		t.Error("Expected no notifiers after Close")
	}

	// publishing after close is a no-op
	nm.Publish(NotificationEvent{Kind: EventFrame})
}

func TestNotificationEvent_Encoding(t *testing.T) {
	event := NotificationEvent{
		WorldID:   "lab",
		Kind:      EventFission,
		Tick:      12,
		Timestamp: 1700000000,
		Cause:     FissionByCollision,
		Reactants: []BodyState{{ID: 4, Kind: "particle", Species: "U", X: 1, Y: 2, Mass: 4, Radius: 2}},
		Products: []BodyState{
			{ID: 5, Kind: "particle", Species: "Re", VX: 3},
			{ID: 6, Kind: "particle", Species: "Gr", VX: -3},
		},
	}

	data, err := event.JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if fields["kind"] != "fission" || fields["cause"] != "collision" || fields["world_id"] != "lab" {
		t.Errorf("Unexpected JSON fields: %s", data)
	}
	if _, ok := fields["snapshot"]; ok {
		t.Error("Snapshot should be omitted from fission events")
	}

	packed, err := event.MsgPack()
	if err != nil {
		t.Fatalf("MsgPack failed: %v", err)
	}
	decoded, err := DecodeNotificationEventMsgpack(packed)
	if err != nil {
		t.Fatalf("DecodeNotificationEventMsgpack failed: %v", err)
	}
	if decoded.Cause != FissionByCollision || len(decoded.Products) != 2 || decoded.Products[1].VX != -3 {
		t.Errorf("Unexpected decoded event: %+v", decoded)
	}

	if _, err := DecodeNotificationEventMsgpack([]byte{0xc1}); err == nil {
		t.Error("Expected error for invalid msgpack")
	}
}
