package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEventBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with buffer size 3, replay all
	pub.ConfigureTopic("test", TopicConfig{
		BufferSize: 3,
		ReplayAll:  true,
	})

	// Publish 5 events
	for i := 1; i <= 5; i++ {
		err := pub.Publish("test", "event", map[string]int{"num": i})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe and verify we get last 3 events
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Should receive last 3 events (3, 4, 5)
	receivedCount := 0
	for receivedCount < 3 {
		select {
		case event := <-sub.Events():
			receivedCount++
			t.Logf("Received replayed event version %d", event.Version)
			// Events should be 3, 4, 5 (last 3 of 5)
			expectedVersion := receivedCount + 2
			if event.Version != expectedVersion {
				t.Errorf("Expected version %d, got %d", expectedVersion, event.Version)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("Timeout waiting for event %d", receivedCount+1)
		}
	}

	if receivedCount != 3 {
		t.Errorf("Expected 3 replayed events, got %d", receivedCount)
	}
}

func TestReplayLastOnly(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Late subscribers to the directory status only need the current state
	pub.ConfigureTopic(TopicDirectoryStatus, TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	states := []string{StateLoading, StateReady, StateLoading}
	for i, state := range states {
		err := pub.Publish(TopicDirectoryStatus, state, DirectoryStatus{State: state, Version: int64(i)})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe and verify we get only last event
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, TopicDirectoryStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Should receive only last event (version 3)
	select {
	case event := <-sub.Events():
		if event.Version != 3 {
			t.Errorf("Expected version 3, got %d", event.Version)
		}
		var status DirectoryStatus
		if err := json.Unmarshal(event.Data, &status); err != nil {
			t.Fatalf("Failed to decode status: %v", err)
		}
		if status.State != StateLoading || status.Version != 2 {
			t.Errorf("Unexpected replayed status %+v", status)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}

	// Verify no more events are sent
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected extra event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
		// Good, no extra events
	}
}

func TestNoBuffer(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	// Configure topic with no buffer
	pub.ConfigureTopic("test", TopicConfig{
		BufferSize: 0,
		ReplayAll:  false,
	})

	// Publish events before subscribing
	for i := 1; i <= 3; i++ {
		err := pub.Publish("test", "event", map[string]int{"num": i})
		if err != nil {
			t.Fatalf("Failed to publish event %d: %v", i, err)
		}
	}

	// Subscribe - should not receive any replayed events
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	sub, err := pub.Subscribe(ctx, "test")
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	defer sub.Close()

	// Verify no events are received (because none were buffered)
	select {
	case event := <-sub.Events():
		t.Errorf("Received unexpected replayed event version %d", event.Version)
	case <-time.After(50 * time.Millisecond):
		// Good, no events replayed
		t.Log("Correctly received no events (buffer disabled)")
	}

	// Now publish a new event - subscriber should receive it
	err = pub.Publish("test", "event", map[string]int{"num": 4})
	if err != nil {
		t.Fatalf("Failed to publish new event: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Version != 4 {
			t.Errorf("Expected version 4, got %d", event.Version)
		}
		t.Logf("Received new event version %d", event.Version)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for new event")
	}
}

func TestSubscriptionClosedOnContextCancel(t *testing.T) {
	pub := NewSSEPublisher()
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := pub.Subscribe(ctx, TopicDirectoryStatus); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for {
		pub.mu.RLock()
		n := len(pub.subscriptions[TopicDirectoryStatus])
		pub.mu.RUnlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Subscription still registered after context cancellation")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublishAfterClose(t *testing.T) {
	pub := NewSSEPublisher()

	sub, err := pub.Subscribe(context.Background(), TopicDirectoryStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	pub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Error("Expected events channel to be closed")
	}
	if err := sub.Close(); err != nil {
		t.Errorf("Closing subscription after publisher: %v", err)
	}
	if err := pub.Publish(TopicDirectoryStatus, StateReady, DirectoryStatus{}); err == nil {
		t.Error("Expected publish on closed publisher to fail")
	}
	if _, err := pub.Subscribe(context.Background(), TopicDirectoryStatus); err == nil {
		t.Error("Expected subscribe on closed publisher to fail")
	}
}

func TestWriteSSE(t *testing.T) {
	data, _ := json.Marshal(DirectoryStatus{State: StateReady, Employees: 26})
	event := Event{Topic: TopicDirectoryStatus, Type: StateReady, Data: data, Version: 7}

	var buf bytes.Buffer
	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "id: 7\nevent: ready\ndata: {") {
		t.Errorf("Unexpected frame header: %q", out)
	}
	if !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("Frame not terminated by a blank line: %q", out)
	}
	if !strings.Contains(out, `"employees":26`) {
		t.Errorf("Payload missing from frame: %q", out)
	}
}

func TestLastAndSubscribers(t *testing.T) {
	pub := NewDirectoryPublisher()
	defer pub.Close()

	if _, ok := pub.Last(TopicDirectoryStatus); ok {
		t.Error("Expected no last event before publishing")
	}

	pub.Publish(TopicDirectoryStatus, StateLoading, DirectoryStatus{State: StateLoading})
	pub.Publish(TopicDirectoryStatus, StateReady, DirectoryStatus{State: StateReady, Employees: 3})

	last, ok := pub.Last(TopicDirectoryStatus)
	if !ok || last.Type != StateReady || last.Version != 2 {
		t.Errorf("Expected ready event version 2, got %+v (ok=%v)", last, ok)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := pub.Subscribe(ctx, TopicDirectoryStatus)
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	if n := pub.Subscribers(TopicDirectoryStatus); n != 1 {
		t.Errorf("Expected 1 subscriber, got %d", n)
	}

	sub.Close()
	cancel()
	if n := pub.Subscribers(TopicDirectoryStatus); n != 0 {
		t.Errorf("Expected 0 subscribers after close, got %d", n)
	}
}
