package activity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"atelier/api/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeLogStore struct {
	rows []store.ActivityLog
}

func (f *fakeLogStore) InsertActivityLog(_ context.Context, item store.ActivityLog) (int64, error) {
	item.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, item)
	return item.ID, nil
}

func (f *fakeLogStore) ListActivityLogs(_ context.Context, limit int) ([]store.ActivityLog, error) {
	if limit > len(f.rows) {
		limit = len(f.rows)
	}
	out := make([]store.ActivityLog, 0, limit)
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.rows[i])
	}
	return out, nil
}

func TestRecordPublishesToChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := Subscribe(ctx, client)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	fs := &fakeLogStore{}
	rec := NewRecorder(fs, client)

	rec.Record(ctx, store.ActivityLog{
		EntityType: "client",
		EntityID:   "c1",
		Action:     "updated",
		Actor:      "Mira",
	})

	if len(fs.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(fs.rows))
	}

	select {
	case msg := <-sub.Channel():
		var got eventPayload
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got.EntityID != "c1" || got.Action != "updated" || got.ID != 1 {
			t.Fatalf("payload = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message on activity channel")
	}
}

func TestRecordWithoutRedisStillInserts(t *testing.T) {
	fs := &fakeLogStore{}
	rec := NewRecorder(fs, nil)

	rec.Record(context.Background(), store.ActivityLog{
		EntityType: "invoice", EntityID: "i1", Action: "created", Actor: "Mira",
	})

	if len(fs.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(fs.rows))
	}
}

func TestRecent(t *testing.T) {
	fs := &fakeLogStore{}
	rec := NewRecorder(fs, nil)
	ctx := context.Background()

	rec.Record(ctx, store.ActivityLog{EntityType: "task", EntityID: "t1", Action: "created", Actor: "Mira"})
	rec.Record(ctx, store.ActivityLog{EntityType: "task", EntityID: "t2", Action: "created", Actor: "Mira"})

	got, err := rec.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 || got[0].EntityID != "t2" {
		t.Fatalf("got %+v, want newest row only", got)
	}
}
