package store

import (
	"fmt"
	"sort"
	"strings"
)

// FilterAll is the sentinel filter value meaning "no filter applied" for any
// enum-valued field.
const FilterAll = "all"

// whereBuilder accumulates equality conditions, skipping unset fields and the
// "all" sentinel.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) eq(col, val string) {
	val = strings.TrimSpace(val)
	if val == "" || val == FilterAll {
		return
	}
	w.args = append(w.args, val)
	w.conds = append(w.conds, fmt.Sprintf("%s=$%d", col, len(w.args)))
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// filterKey canonicalizes a filter map into a stable cache-key suffix:
// fields sorted by name, unset fields normalized to "all".
func filterKey(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		val := strings.TrimSpace(fields[name])
		if val == "" {
			val = FilterAll
		}
		parts = append(parts, name+"="+val)
	}
	return strings.Join(parts, "|")
}

type ClientFilter struct {
	Market        string
	Status        string
	PlanTier      string
	PipelineStage string
}

func (f ClientFilter) Key() string {
	return filterKey(map[string]string{
		"market":   f.Market,
		"status":   f.Status,
		"planTier": f.PlanTier,
		"stage":    f.PipelineStage,
	})
}

type DeliverableFilter struct {
	ClientID string
	Status   string
	Priority string
}

func (f DeliverableFilter) Key() string {
	return filterKey(map[string]string{
		"clientId": f.ClientID,
		"status":   f.Status,
		"priority": f.Priority,
	})
}

type InvoiceFilter struct {
	ClientID string
	Status   string
	Month    string
}

func (f InvoiceFilter) Key() string {
	return filterKey(map[string]string{
		"clientId": f.ClientID,
		"status":   f.Status,
		"month":    f.Month,
	})
}

type TaskFilter struct {
	ClientID string
	Assignee string
	Status   string
	Category string
}

func (f TaskFilter) Key() string {
	return filterKey(map[string]string{
		"clientId": f.ClientID,
		"assignee": f.Assignee,
		"status":   f.Status,
		"category": f.Category,
	})
}

type ContentFilter struct {
	ClientID    string
	Status      string
	ContentType string
	Platform    string
}

func (f ContentFilter) Key() string {
	return filterKey(map[string]string{
		"clientId": f.ClientID,
		"status":   f.Status,
		"type":     f.ContentType,
		"platform": f.Platform,
	})
}

type ProposalFilter struct {
	ClientID string
	Status   string
}

func (f ProposalFilter) Key() string {
	return filterKey(map[string]string{
		"clientId": f.ClientID,
		"status":   f.Status,
	})
}
