package realtime

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func testHub() *Hub {
	return NewHub(slog.Default())
}

// ---------------------------------------------------------------------------
// subscription filtering
// ---------------------------------------------------------------------------

func TestWants_AllEvents(t *testing.T) {
	client := &Client{sub: Subscription{AllEvents: true}}

	event := &Event{Type: EventReviewPosted, Timestamp: time.Now()}
	if !client.wants(event) {
		t.Error("AllEvents client should receive all events")
	}
}

func TestWants_EventTypeFilter(t *testing.T) {
	client := &Client{sub: Subscription{
		EventTypes: []EventType{EventReviewPosted, EventBusinessAdded},
	}}

	review := &Event{Type: EventReviewPosted}
	added := &Event{Type: EventBusinessAdded}
	deal := &Event{Type: EventDealPublished}

	if !client.wants(review) {
		t.Error("Should receive review_posted events")
	}
	if !client.wants(added) {
		t.Error("Should receive business_added events")
	}
	if client.wants(deal) {
		t.Error("Should NOT receive deal_published events")
	}
}

func TestWants_EmptySubscription(t *testing.T) {
	// No filters, not AllEvents
	client := &Client{sub: Subscription{}}

	event := &Event{Type: EventDealPublished}
	if !client.wants(event) {
		t.Error("Empty subscription (no filters) should receive events")
	}
}

// ---------------------------------------------------------------------------
// Hub lifecycle
// ---------------------------------------------------------------------------

func TestHub_Stats_Initial(t *testing.T) {
	h := testHub()

	stats := h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients, got %v", stats["connectedClients"])
	}
	if stats["totalEvents"].(int64) != 0 {
		t.Errorf("Expected 0 total events, got %v", stats["totalEvents"])
	}
}

func TestHub_BroadcastAndStats(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	h.Broadcast(&Event{Type: EventReviewPosted, Timestamp: time.Now()})
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["totalEvents"].(int64) != 1 {
		t.Errorf("Expected 1 total event, got %v", stats["totalEvents"])
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 64),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	stats := h.Stats()
	if stats["connectedClients"].(int) != 1 {
		t.Errorf("Expected 1 connected client, got %v", stats["connectedClients"])
	}

	h.unregister <- client
	time.Sleep(50 * time.Millisecond)

	stats = h.Stats()
	if stats["connectedClients"].(int) != 0 {
		t.Errorf("Expected 0 connected clients after unregister, got %v", stats["connectedClients"])
	}
	// Lifetime counter keeps the departed client
	if stats["totalClients"].(int64) != 1 {
		t.Errorf("Expected 1 total client, got %v", stats["totalClients"])
	}
}

func TestHub_BroadcastToClient(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 64),
		sub:  Subscription{AllEvents: true},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	h.Broadcast(&Event{
		Type:      EventDealPublished,
		Timestamp: time.Now(),
		Data:      map[string]any{"title": "Half-off espresso"},
	})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Timeout waiting for broadcast")
	}
}

func TestHub_Publish(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	client := &Client{
		hub:  h,
		send: make(chan []byte, 64),
		sub:  Subscription{EventTypes: []EventType{EventReviewPosted}},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	// Publisher shape used by the reviews and deals handlers
	h.Publish("review_posted", map[string]any{"businessId": int64(3)})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Client should receive published event")
	}
}

func TestHub_ContextCancellation(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Hub stopped
	case <-time.After(2 * time.Second):
		t.Error("Hub did not stop after context cancellation")
	}
}

func TestHub_FilteredBroadcast(t *testing.T) {
	h := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	time.Sleep(50 * time.Millisecond)

	// Client only wants deal events
	client := &Client{
		hub:  h,
		send: make(chan []byte, 64),
		sub:  Subscription{EventTypes: []EventType{EventDealPublished}},
	}

	h.register <- client
	time.Sleep(50 * time.Millisecond)

	// Review event should be filtered out
	h.Broadcast(&Event{Type: EventReviewPosted, Timestamp: time.Now()})
	time.Sleep(100 * time.Millisecond)

	select {
	case <-client.send:
		t.Error("Client should NOT receive review event")
	default:
		// filtered out
	}

	// Deal event should be received
	h.Broadcast(&Event{Type: EventDealPublished, Timestamp: time.Now()})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("Expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Error("Client should receive deal event")
	}
}
