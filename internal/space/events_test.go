package space

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeNotifier records every delivered event and can be told to fail a
// number of times before succeeding.
type fakeNotifier struct {
	mu       sync.Mutex
	id       string
	events   []ReactionEvent
	failures int
	closed   bool
}

func (f *fakeNotifier) ID() string   { return f.id }
func (f *fakeNotifier) Type() string { return "fake" }

func (f *fakeNotifier) Notify(ctx context.Context, event ReactionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return fmt.Errorf("simulated delivery failure")
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeNotifier) delivered() []ReactionEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ReactionEvent, len(f.events))
	copy(out, f.events)
	return out
}

func waitForDelivery(t *testing.T, f *fakeNotifier, want int) []ReactionEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		events := f.delivered()
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d delivered events, got %d", want, len(f.delivered()))
	return nil
}

func TestEventsFromBag(t *testing.T) {
	out := Bag{
		0: []Message{{ReactionID: "r1", From: "s1", Direction: STP, Amount: 3}},
		2: []Message{NewStockMessage("s1", Stock{"A": 5})},
	}

	events := EventsFromBag("s1", 250*time.Millisecond, out)

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}

	if events[0].Kind != "reaction" {
		t.Errorf("Expected kind 'reaction', got %s", events[0].Kind)
	}
	if events[0].ReactionID != "r1" || events[0].Amount != 3 || events[0].Channel != 0 {
		t.Errorf("Unexpected reaction event: %+v", events[0])
	}
	if events[0].SimTime != 250*time.Millisecond {
		t.Errorf("Expected sim_time 250ms, got %v", events[0].SimTime)
	}

	if events[1].Kind != "biomass" {
		t.Errorf("Expected kind 'biomass', got %s", events[1].Kind)
	}
	if events[1].Metabolites["A"] != 5 || events[1].Channel != 2 {
		t.Errorf("Unexpected biomass event: %+v", events[1])
	}

	if events[0].EventID == events[1].EventID {
		t.Error("Expected distinct event ids")
	}
}

func TestEventsFromBag_Empty(t *testing.T) {
	if events := EventsFromBag("s1", 0, Bag{}); len(events) != 0 {
		t.Errorf("Expected no events from an empty bag, got %d", len(events))
	}
}

func TestNotificationManager_RegisterAndList(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	n := &fakeNotifier{id: "fake-1"}
	if err := nm.RegisterNotifier(n); err != nil {
		t.Fatalf("RegisterNotifier failed: %v", err)
	}

	if err := nm.RegisterNotifier(n); err == nil {
		t.Error("Expected error registering a duplicate id")
	}
	if err := nm.RegisterNotifier(nil); err == nil {
		t.Error("Expected error registering nil")
	}
	if err := nm.RegisterNotifier(&fakeNotifier{}); err == nil {
		t.Error("Expected error registering an empty id")
	}

	ids := nm.ListNotifiers()
	if len(ids) != 1 || ids[0] != "fake-1" {
		t.Errorf("Expected [fake-1], got %v", ids)
	}

	got, ok := nm.GetNotifier("fake-1")
	if !ok || got.ID() != "fake-1" {
		t.Errorf("Expected to retrieve fake-1, got %v (ok=%v)", got, ok)
	}
	if _, ok := nm.GetNotifier("missing"); ok {
		t.Error("Expected lookup miss for unknown id")
	}
}

func TestNotificationManager_Unregister(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	n := &fakeNotifier{id: "fake-1"}
	if err := nm.RegisterNotifier(n); err != nil {
		t.Fatalf("RegisterNotifier failed: %v", err)
	}

	if err := nm.UnregisterNotifier("fake-1"); err != nil {
		t.Fatalf("UnregisterNotifier failed: %v", err)
	}
	if !n.closed {
		t.Error("Expected notifier to be closed on unregister")
	}
	if err := nm.UnregisterNotifier("fake-1"); err == nil {
		t.Error("Expected error unregistering twice")
	}
}

func TestNotificationManager_Broadcast(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	n1 := &fakeNotifier{id: "fake-1"}
	n2 := &fakeNotifier{id: "fake-2"}
	if err := nm.RegisterNotifier(n1); err != nil {
		t.Fatalf("RegisterNotifier failed: %v", err)
	}
	if err := nm.RegisterNotifier(n2); err != nil {
		t.Fatalf("RegisterNotifier failed: %v", err)
	}

	event := ReactionEvent{EventID: "e1", SpaceID: "s1", Kind: "reaction", ReactionID: "r1", Amount: 2}
	nm.Broadcast(event)

	got1 := waitForDelivery(t, n1, 1)
	got2 := waitForDelivery(t, n2, 1)

	if got1[0].EventID != "e1" || got2[0].EventID != "e1" {
		t.Errorf("Expected event e1 on both notifiers, got %v and %v", got1[0].EventID, got2[0].EventID)
	}
}

func TestNotificationManager_RetriesFailedDelivery(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	n := &fakeNotifier{id: "flaky", failures: 2}
	if err := nm.RegisterNotifier(n); err != nil {
		t.Fatalf("RegisterNotifier failed: %v", err)
	}

	nm.Enqueue(ReactionEvent{EventID: "e1", SpaceID: "s1"}, []string{"flaky"})

	got := waitForDelivery(t, n, 1)
	if got[0].EventID != "e1" {
		t.Errorf("Expected event e1 after retries, got %v", got[0].EventID)
	}
}

func TestNotificationManager_EnqueueAfterClose(t *testing.T) {
	nm := NewNotificationManager()
	n := &fakeNotifier{id: "fake-1"}
	if err := nm.RegisterNotifier(n); err != nil {
		t.Fatalf("RegisterNotifier failed: %v", err)
	}

	if err := nm.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !n.closed {
		t.Error("Expected notifier to be closed on manager close")
	}

	// Must not panic or block
	nm.Enqueue(ReactionEvent{EventID: "e1"}, []string{"fake-1"})

	if err := nm.Close(); err != nil {
		t.Errorf("Expected second Close to be a no-op, got %v", err)
	}
}
