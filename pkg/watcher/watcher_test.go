package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 20*time.Millisecond, time.Second)
	d.Start(ctx)

	for i := 0; i < 5; i++ {
		input <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"/tmp/org.xlsx"}, Timestamp: time.Now()}
	}

	select {
	case event := <-d.Output():
		if event.Type != ChangeTypeWrite {
			t.Errorf("Expected write event, got %s", event.Type)
		}
		if len(event.Paths) != 1 {
			t.Errorf("Expected paths to be deduplicated, got %v", event.Paths)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for debounced event")
	}

	select {
	case event := <-d.Output():
		t.Errorf("Unexpected second event %+v", event)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDebouncerLastTypeWins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 20*time.Millisecond, time.Second)
	d.Start(ctx)

	// Atomic save: old file renamed away, new file created
	input <- ChangeEvent{Type: ChangeTypeRemove, Paths: []string{"/tmp/org.xlsx"}}
	input <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"/tmp/org.xlsx"}}

	select {
	case event := <-d.Output():
		if event.Type != ChangeTypeWrite {
			t.Errorf("Expected write event, got %s", event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for debounced event")
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 40*time.Millisecond, 100*time.Millisecond)
	d.Start(ctx)

	// Keep the burst alive longer than maxWait
	start := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for time.Since(start) < 300*time.Millisecond {
			select {
			case input <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"a"}}:
			case <-ctx.Done():
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	select {
	case <-d.Output():
		if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
			t.Errorf("Expected flush near maxWait, got %v", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for max wait flush")
	}
	cancel()
	<-done
}

func TestDebouncerFlushesOnInputClose(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	input <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"a"}}
	close(input)

	event, ok := <-d.Output()
	if !ok {
		t.Fatal("Expected pending event before close")
	}
	if event.Type != ChangeTypeWrite {
		t.Errorf("Expected write event, got %s", event.Type)
	}
	if _, ok := <-d.Output(); ok {
		t.Error("Expected output to be closed")
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		event  ChangeEvent
		reload bool
	}{
		{"write", ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"org.xlsx"}}, true},
		{"remove", ChangeEvent{Type: ChangeTypeRemove, Paths: []string{"org.xlsx"}}, false},
		{"unknown", ChangeEvent{Type: ChangeType(42)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.event)
			if d.Reload != tt.reload {
				t.Errorf("Decide(%s).Reload = %v, want %v", tt.event.Type, d.Reload, tt.reload)
			}
			if d.Reason == "" {
				t.Error("Expected a reason")
			}
		})
	}
}

func TestRunSyncsOnWriteOnly(t *testing.T) {
	events := make(chan ChangeEvent, 2)
	events <- ChangeEvent{Type: ChangeTypeRemove, Paths: []string{"org.csv"}}
	events <- ChangeEvent{Type: ChangeTypeWrite, Paths: []string{"org.csv"}}
	close(events)

	var reasons []string
	Run(context.Background(), events, func(ctx context.Context, reason string) error {
		reasons = append(reasons, reason)
		return nil
	})

	if len(reasons) != 1 {
		t.Fatalf("Expected one sync, got %v", reasons)
	}
	if reasons[0] != "file changed: org.csv" {
		t.Errorf("Unexpected reason %q", reasons[0])
	}
}

func TestWatchReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "org.csv")
	if err := os.WriteFile(path, []byte("name\nAda\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Unrelated files in the same directory are ignored
	other := filepath.Join(dir, "notes.txt")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	syncs := 0
	synced := make(chan struct{}, 10)
	err := Watch(ctx, path, 20*time.Millisecond, 500*time.Millisecond, func(ctx context.Context, reason string) error {
		mu.Lock()
		syncs++
		mu.Unlock()
		synced <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(other, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("name\nAda\nBen\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for reload after file change")
	}

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if syncs != 1 {
		t.Errorf("Expected exactly one reload, got %d", syncs)
	}
}

func TestNewFileWatcherMissingDir(t *testing.T) {
	fw, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing", "org.xlsx"))
	if err != nil {
		t.Fatalf("NewFileWatcher: %v", err)
	}
	if err := fw.Start(context.Background()); err == nil {
		t.Error("Expected Start to fail for a missing directory")
	}
}
