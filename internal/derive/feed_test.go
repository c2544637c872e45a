package derive

import (
	"testing"
	"time"

	"atelier/api/internal/store"
)

func TestFeedStrictlyDescending(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	clients := []store.Client{
		{ID: "c1", Name: "Acme", Status: "Active", UpdatedAt: base.AddDate(0, 0, 2)},
	}
	deliverables := []store.Deliverable{
		{ID: "d1", Name: "Launch video", Status: "In Progress", UpdatedAt: base.AddDate(0, 0, 5)},
	}
	tasks := []store.Task{
		{ID: "t1", Name: "Brief review", Status: "To Do", UpdatedAt: base.AddDate(0, 0, 1)},
	}
	invoices := []store.Invoice{
		{ID: "i1", Code: "INV-0001", Status: "Sent", UpdatedAt: base.AddDate(0, 0, 4)},
	}

	feed := BuildActivityFeed(clients, deliverables, tasks, invoices, 0)

	if len(feed) != 4 {
		t.Fatalf("len = %d, want 4", len(feed))
	}
	for i := 1; i < len(feed); i++ {
		if feed[i].Timestamp.After(feed[i-1].Timestamp) {
			t.Fatalf("feed not descending at index %d: %s after %s", i, feed[i].Timestamp, feed[i-1].Timestamp)
		}
	}
	if feed[0].EntityID != "d1" {
		t.Fatalf("newest = %s, want d1", feed[0].EntityID)
	}
}

func TestFeedFallsBackToCreatedAt(t *testing.T) {
	created := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	clients := []store.Client{{ID: "c1", Name: "Acme", CreatedAt: created}}

	feed := BuildActivityFeed(clients, nil, nil, nil, 0)

	if len(feed) != 1 {
		t.Fatalf("len = %d, want 1", len(feed))
	}
	if !feed[0].Timestamp.Equal(created) {
		t.Fatalf("timestamp = %s, want createdAt", feed[0].Timestamp)
	}
}

func TestFeedSkipsEntitiesWithoutTimestamps(t *testing.T) {
	clients := []store.Client{{ID: "c1", Name: "No clock"}}
	tasks := []store.Task{{ID: "t1", Name: "Dated", UpdatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}}

	feed := BuildActivityFeed(clients, nil, tasks, nil, 0)

	if len(feed) != 1 || feed[0].EntityID != "t1" {
		t.Fatalf("feed = %+v, want only t1", feed)
	}
}

func TestFeedTruncatesToLimit(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	var tasks []store.Task
	for i := 0; i < 10; i++ {
		tasks = append(tasks, store.Task{
			ID: string(rune('a' + i)), Name: "task", UpdatedAt: base.AddDate(0, 0, i),
		})
	}

	feed := BuildActivityFeed(nil, nil, tasks, nil, 3)

	if len(feed) != 3 {
		t.Fatalf("len = %d, want 3", len(feed))
	}
	if feed[0].EntityID != "j" {
		t.Fatalf("newest = %s, want the latest task", feed[0].EntityID)
	}
}
