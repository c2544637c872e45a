package app

import (
	"context"
	"log"
)

// invalidationGroups maps a mutated entity to every cache group whose reads
// it can change. The map is the single source of truth: a mutation never
// hand-picks keys, it names its entity and this table does the rest. Derived
// reads (health, dashboard, feed, suggestions) live in the dashboard group,
// which is why almost everything invalidates it.
var invalidationGroups = map[string][]string{
	"clients":       {"clients", "dashboard"},
	"deliverables":  {"deliverables", "clients", "dashboard"},
	"invoices":      {"invoices", "clients", "dashboard"},
	"tasks":         {"tasks", "clients", "dashboard"},
	"content":       {"content", "dashboard"},
	"proposals":     {"proposals", "dashboard"},
	"retainers":     {"retainers"},
	"sla":           {"sla", "content"},
	"team":          {"team"},
	"settings":      {"settings"},
	"portal":        {"portal"},
	"notifications": {"notifications"},
}

// invalidate flushes every cache group affected by a mutation to entity.
// Cache trouble is logged, never surfaced: the write already happened.
func (s *Service) invalidate(ctx context.Context, entity string) {
	if s.cache == nil {
		return
	}
	groups, ok := invalidationGroups[entity]
	if !ok {
		log.Printf("app: no invalidation groups for entity %q", entity)
		groups = []string{entity}
	}
	for _, group := range groups {
		if err := s.cache.InvalidateGroup(ctx, group); err != nil {
			log.Printf("app: invalidate %s: %v", group, err)
		}
	}
}
