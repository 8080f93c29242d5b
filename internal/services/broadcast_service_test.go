package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published payloads per channel and reports a
// fixed subscriber count for every room it is asked about.
type recordingPublisher struct {
	published map[string][][]byte
	numSub    int64
}

func newRecordingPublisher(numSub int64) *recordingPublisher {
	return &recordingPublisher{published: make(map[string][][]byte), numSub: numSub}
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	p.published[channel] = append(p.published[channel], message.([]byte))
	return redis.NewIntResult(1, nil)
}

func (p *recordingPublisher) PubSubNumSub(ctx context.Context, channels ...string) *redis.MapStringIntCmd {
	counts := make(map[string]int64, len(channels))
	for _, ch := range channels {
		counts[ch] = p.numSub
	}
	return redis.NewMapStringIntCmdResult(counts, nil)
}

func TestPublishDuplicatesToFallbackWhenRoomEmpty(t *testing.T) {
	pub := newRecordingPublisher(0)
	service := &BroadcastService{client: pub}

	service.Publish(EventCreditsUpdated, "alice", map[string]interface{}{"balance": 70})

	room := RoomChannel("alice")
	require.Len(t, pub.published[room], 1)
	require.Len(t, pub.published[broadcastChannel], 1)

	// The fallback copy carries the owner so other subscribers can filter.
	var event Event
	require.NoError(t, json.Unmarshal(pub.published[broadcastChannel][0], &event))
	assert.Equal(t, EventCreditsUpdated, event.Type)
	assert.Equal(t, "alice", event.Username)
}

func TestPublishSkipsFallbackWhenRoomJoined(t *testing.T) {
	pub := newRecordingPublisher(1)
	service := &BroadcastService{client: pub}

	service.Publish(EventLicenseUpdated, "alice", map[string]interface{}{"code": "abc"})

	assert.Len(t, pub.published[RoomChannel("alice")], 1)
	assert.Empty(t, pub.published[broadcastChannel])
}

func TestPublishWithoutRedisIsNoOp(t *testing.T) {
	service := NewBroadcastService()

	assert.NotPanics(t, func() {
		service.Publish(EventTopUpStatusUpdated, "alice", nil)
	})
}
