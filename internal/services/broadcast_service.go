package services

import (
	"context"
	"encoding/json"
	"time"

	"license-api/internal/database"
	"license-api/pkg/logging"

	"github.com/redis/go-redis/v9"
)

// Event types consumed by the dashboards. Delivery is at-most-once;
// consumers treat every event as a "something changed, re-fetch" signal,
// never as the source of truth.
const (
	EventLicenseUpdated          = "license-updated"
	EventExtensionRequestUpdated = "extension-request-updated"
	EventTopUpStatusUpdated      = "topup-status-updated"
	EventCreditsUpdated          = "credits-updated"
)

// broadcastChannel is the global best-effort fallback. Its payload carries
// the owning username so uninterested subscribers can filter.
const broadcastChannel = "license:broadcast"

// Event is the typed payload published after a committed mutation.
type Event struct {
	Type     string                 `json:"type"`
	Username string                 `json:"username"`
	Data     map[string]interface{} `json:"data,omitempty"`
	At       time.Time              `json:"at"`
}

// eventPublisher is the slice of the Redis client the broadcaster needs.
type eventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	PubSubNumSub(ctx context.Context, channels ...string) *redis.MapStringIntCmd
}

// BroadcastService publishes change events over Redis pub/sub: one publish
// into the owning user's room, plus a duplicate onto the global fallback
// channel whenever the room cannot be confirmed as joined. Publishing is
// fire-and-forget; a failure is logged and must never fail the mutation that
// triggered it.
type BroadcastService struct {
	client eventPublisher
}

// NewBroadcastService creates a new broadcast service
func NewBroadcastService() *BroadcastService {
	rdb := database.GetRedis()
	if rdb == nil {
		return &BroadcastService{}
	}
	return &BroadcastService{client: rdb}
}

// RoomChannel is the per-user private channel name.
func RoomChannel(username string) string {
	return "license:user:" + username
}

// Publish emits one event to the owner's room, falling back to the global
// channel when no subscriber has joined the room yet. Never returns an
// error.
func (s *BroadcastService) Publish(eventType, username string, data map[string]interface{}) {
	if s.client == nil {
		return
	}

	payload, err := json.Marshal(Event{
		Type:     eventType,
		Username: username,
		Data:     data,
		At:       time.Now(),
	})
	if err != nil {
		logging.Errorf("Failed to marshal %s event: %v", eventType, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	room := RoomChannel(username)
	if err := s.client.Publish(ctx, room, payload).Err(); err != nil {
		logging.Errorf("Failed to publish %s to %s: %v", eventType, room, err)
	}

	subs, err := s.client.PubSubNumSub(ctx, room).Result()
	if err != nil || subs[room] == 0 {
		// Room join unconfirmed: duplicate onto the fallback so a client
		// still converges on its next listener invocation.
		if err := s.client.Publish(ctx, broadcastChannel, payload).Err(); err != nil {
			logging.Errorf("Failed to publish %s to fallback: %v", eventType, err)
		}
	}
}
