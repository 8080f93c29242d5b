package services

import (
	"context"
	"fmt"
	"time"

	"license-api/internal/config"
	"license-api/internal/database"
	"license-api/pkg/logging"

	"github.com/redis/go-redis/v9"
)

// GuardService suppresses duplicate in-flight submissions with short-lived
// Redis keys, one per (operation, subject). This replaces any client-side
// "currently processing" bookkeeping: the guard lives next to the queue's
// own pending state, not in the UI.
type GuardService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuardService creates a new guard service
func NewGuardService() *GuardService {
	ttl := 30 * time.Second
	if config.AppConfig != nil && config.AppConfig.InFlightTTLSeconds > 0 {
		ttl = time.Duration(config.AppConfig.InFlightTTLSeconds) * time.Second
	}
	return &GuardService{client: database.GetRedis(), ttl: ttl}
}

func guardKey(operation, subject string) string {
	return fmt.Sprintf("in_flight:%s:%s", operation, subject)
}

// Acquire claims the guard key for one submission. Returns false when an
// identical submission is already in flight. A Redis failure lets the
// operation through: the queue's own pending-state check remains the real
// guard.
func (s *GuardService) Acquire(operation, subject string) bool {
	if s.client == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ok, err := s.client.SetNX(ctx, guardKey(operation, subject), "1", s.ttl).Result()
	if err != nil {
		logging.Warnf("In-flight guard unavailable for %s/%s: %v", operation, subject, err)
		return true
	}
	return ok
}

// Release drops the guard key once the submission settled.
func (s *GuardService) Release(operation, subject string) {
	if s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.client.Del(ctx, guardKey(operation, subject)).Err(); err != nil {
		logging.Warnf("Failed to release in-flight guard %s/%s: %v", operation, subject, err)
	}
}
