// Package activity records audit events and pushes them to the realtime
// channel subscribed by dashboards.
package activity

import (
	"context"
	"encoding/json"
	"log"

	"atelier/api/internal/store"
	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel carrying activity log inserts.
const Channel = "atelier:activity"

type logStore interface {
	InsertActivityLog(ctx context.Context, item store.ActivityLog) (int64, error)
	ListActivityLogs(ctx context.Context, limit int) ([]store.ActivityLog, error)
}

// Recorder writes activity rows and publishes them. Publishing is best
// effort: a Redis outage never fails the mutation that triggered the event.
type Recorder struct {
	store logStore
	redis *redis.Client
}

func NewRecorder(store logStore, redisClient *redis.Client) *Recorder {
	return &Recorder{store: store, redis: redisClient}
}

// Record inserts the event and fans it out to subscribers.
func (r *Recorder) Record(ctx context.Context, item store.ActivityLog) {
	id, err := r.store.InsertActivityLog(ctx, item)
	if err != nil {
		log.Printf("activity: record %s %s: %v", item.Action, item.EntityID, err)
		return
	}
	item.ID = id

	if r.redis == nil {
		return
	}
	payload, err := json.Marshal(eventPayload{
		ID:         item.ID,
		EntityType: item.EntityType,
		EntityID:   item.EntityID,
		Action:     item.Action,
		Actor:      item.Actor,
		Detail:     item.Detail,
		LinkPath:   item.LinkPath,
	})
	if err != nil {
		log.Printf("activity: marshal event: %v", err)
		return
	}
	if err := r.redis.Publish(ctx, Channel, payload).Err(); err != nil {
		log.Printf("activity: publish event: %v", err)
	}
}

// Recent returns the latest activity rows, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]store.ActivityLog, error) {
	return r.store.ListActivityLogs(ctx, limit)
}

type eventPayload struct {
	ID         int64  `json:"id"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Action     string `json:"action"`
	Actor      string `json:"actor"`
	Detail     string `json:"detail,omitempty"`
	LinkPath   string `json:"linkPath,omitempty"`
}

// Subscribe opens a pub/sub subscription on the activity channel. The caller
// owns the returned PubSub and must close it.
func Subscribe(ctx context.Context, redisClient *redis.Client) *redis.PubSub {
	return redisClient.Subscribe(ctx, Channel)
}
