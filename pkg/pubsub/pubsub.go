package pubsub

import (
	"context"
	"encoding/json"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "directory_status")
	Type    string          `json:"type"`    // Event type (e.g., "loading", "ready", "error")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// TopicDirectoryStatus carries snapshot load progress
const TopicDirectoryStatus = "directory_status"

// Directory status states
const (
	StateLoading = "loading"
	StateReady   = "ready"
	StateError   = "error"
)

// DirectoryStatus represents the state of the directory snapshot
type DirectoryStatus struct {
	State     string `json:"state"`            // loading, ready, error
	Message   string `json:"message"`          // Human-readable status message
	Reason    string `json:"reason,omitempty"` // What triggered the load (startup, sync, file change...)
	Source    string `json:"source,omitempty"` // Origin of the current snapshot
	Fallback  bool   `json:"fallback"`         // Current snapshot is fallback data
	Employees int    `json:"employees"`        // People in the current snapshot
	Version   int64  `json:"version"`          // Snapshot version
	Cycles    int    `json:"cycles"`           // Management cycles detected
}
