package derive

import (
	"sort"
	"time"

	"atelier/api/internal/store"
)

type FeedItem struct {
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Title      string    `json:"title"`
	Detail     string    `json:"detail"`
	LinkPath   string    `json:"linkPath"`
	Timestamp  time.Time `json:"timestamp"`
}

// feedTimestamp prefers updatedAt, falls back to createdAt, and reports false
// when neither is usable.
func feedTimestamp(updatedAt, createdAt time.Time) (time.Time, bool) {
	if !updatedAt.IsZero() {
		return updatedAt, true
	}
	if !createdAt.IsZero() {
		return createdAt, true
	}
	return time.Time{}, false
}

// BuildActivityFeed merges recent rows into a strictly descending feed,
// truncated to limit. Entities without any usable timestamp never appear.
func BuildActivityFeed(clients []store.Client, deliverables []store.Deliverable, tasks []store.Task, invoices []store.Invoice, limit int) []FeedItem {
	items := make([]FeedItem, 0, len(clients)+len(deliverables)+len(tasks)+len(invoices))

	for _, c := range clients {
		ts, ok := feedTimestamp(c.UpdatedAt, c.CreatedAt)
		if !ok {
			continue
		}
		items = append(items, FeedItem{
			EntityType: "client",
			EntityID:   c.ID,
			Title:      c.Name,
			Detail:     c.Status,
			LinkPath:   "/clients/" + c.ID,
			Timestamp:  ts,
		})
	}
	for _, d := range deliverables {
		ts, ok := feedTimestamp(d.UpdatedAt, d.CreatedAt)
		if !ok {
			continue
		}
		items = append(items, FeedItem{
			EntityType: "deliverable",
			EntityID:   d.ID,
			Title:      d.Name,
			Detail:     d.Status,
			LinkPath:   "/deliverables/" + d.ID,
			Timestamp:  ts,
		})
	}
	for _, t := range tasks {
		ts, ok := feedTimestamp(t.UpdatedAt, t.CreatedAt)
		if !ok {
			continue
		}
		items = append(items, FeedItem{
			EntityType: "task",
			EntityID:   t.ID,
			Title:      t.Name,
			Detail:     t.Status,
			LinkPath:   "/tasks/" + t.ID,
			Timestamp:  ts,
		})
	}
	for _, inv := range invoices {
		ts, ok := feedTimestamp(inv.UpdatedAt, inv.CreatedAt)
		if !ok {
			continue
		}
		items = append(items, FeedItem{
			EntityType: "invoice",
			EntityID:   inv.ID,
			Title:      inv.Code,
			Detail:     inv.Status,
			LinkPath:   "/invoices/" + inv.ID,
			Timestamp:  ts,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
