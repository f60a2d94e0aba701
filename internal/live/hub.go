// Package live pushes record-change events to connected clients. Writes
// publish an event per path through redis pub/sub; watchers subscribe to
// the paths they render and reconcile their local state against the
// authoritative record on each push.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "live:"

// Event describes one record change.
type Event struct {
	// Path scopes the change, mirroring the storage layout:
	// "teams", "teams/{id}/members", "collections",
	// "collections/{id}/documents", "settings/{user}".
	Path   string    `json:"path"`
	Action string    `json:"action"` // created, updated, deleted
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
}

// Hub is a redis-backed publish/subscribe fanout.
type Hub struct {
	client *redis.Client
}

// NewHub connects to redis.
func NewHub(redisURL string) (*Hub, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Hub{client: client}, nil
}

// NewHubWithClient builds a hub from an existing client.
func NewHubWithClient(client *redis.Client) *Hub {
	return &Hub{client: client}
}

// Publish broadcasts one change event to the path's channel.
func (h *Hub) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := h.client.Publish(ctx, channelPrefix+ev.Path, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Path, err)
	}
	return nil
}

// Subscribe listens on one or more paths and returns a channel of decoded
// events plus a cancel function. The channel closes after cancel.
func (h *Hub) Subscribe(ctx context.Context, paths ...string) (<-chan Event, func(), error) {
	if len(paths) == 0 {
		return nil, nil, fmt.Errorf("subscribe: no paths")
	}
	channels := make([]string, len(paths))
	for i, p := range paths {
		channels[i] = channelPrefix + p
	}

	pubsub := h.client.Subscribe(ctx, channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { pubsub.Close() }
	return events, cancel, nil
}

// Close releases the redis connection.
func (h *Hub) Close() error {
	return h.client.Close()
}
