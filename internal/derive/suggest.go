package derive

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"atelier/api/internal/store"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// TaskTemplate is what confirming a suggestion turns into. The caller creates
// the task verbatim; there is no dedup beyond the existence check performed
// at generation time, so a stale list can yield a duplicate task.
type TaskTemplate struct {
	Name          string  `json:"name"`
	Notes         string  `json:"notes"`
	Category      string  `json:"category"`
	ClientID      *string `json:"clientId,omitempty"`
	DeliverableID *string `json:"deliverableId,omitempty"`
	DueDate       string  `json:"dueDate"`
}

type Suggestion struct {
	ID         string       `json:"id"`
	Kind       string       `json:"kind"`
	Priority   string       `json:"priority"`
	Title      string       `json:"title"`
	Detail     string       `json:"detail"`
	EntityType string       `json:"entityType"`
	EntityID   string       `json:"entityId"`
	Task       TaskTemplate `json:"task"`
}

var priorityRank = map[string]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}

// BuildSuggestions scans each collection once and returns actionable items
// ordered high > medium > low with generation order preserved within a tier.
func BuildSuggestions(deliverables []store.Deliverable, invoices []store.Invoice, tasks []store.Task, content []store.ContentItem, now time.Time) []Suggestion {
	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
	var out []Suggestion

	// Overdue deliverables with no open follow-up task.
	for _, d := range deliverables {
		if d.DueDate == nil || !d.DueDate.Before(now) || isDeliverableTerminal(d.Status) {
			continue
		}
		if hasOpenFollowUp(tasks, d.ID) {
			continue
		}
		id := d.ID
		clientID := d.ClientID
		out = append(out, Suggestion{
			ID:         "overdue-deliverable-" + d.ID,
			Kind:       "overdue_deliverable",
			Priority:   PriorityHigh,
			Title:      fmt.Sprintf("%q is overdue", d.Name),
			Detail:     fmt.Sprintf("Due %s, still %s", d.DueDate.Format("2006-01-02"), d.Status),
			EntityType: "deliverable",
			EntityID:   d.ID,
			Task: TaskTemplate{
				Name:          fmt.Sprintf("Follow up: %s", d.Name),
				Notes:         fmt.Sprintf("Deliverable %s (%s) is past due. Chase progress and update the client.", d.Name, d.Code),
				Category:      "Follow-up",
				ClientID:      &clientID,
				DeliverableID: &id,
				DueDate:       tomorrow,
			},
		})
	}

	// Overdue invoices with no payment-reminder task. The reminder is keyed by
	// the invoice code appearing in a task's notes, a deliberately loose match
	// carried over from how the team actually writes reminders.
	for _, inv := range invoices {
		if inv.Status != "Overdue" {
			continue
		}
		if hasReminderTask(tasks, inv.Code) {
			continue
		}
		clientID := inv.ClientID
		out = append(out, Suggestion{
			ID:         "overdue-invoice-" + inv.ID,
			Kind:       "overdue_invoice",
			Priority:   PriorityHigh,
			Title:      fmt.Sprintf("Invoice %s is overdue", inv.Code),
			Detail:     fmt.Sprintf("%s %.2f for %s remains unpaid", inv.Currency, inv.Amount, inv.Month),
			EntityType: "invoice",
			EntityID:   inv.ID,
			Task: TaskTemplate{
				Name:     fmt.Sprintf("Payment reminder for %s", inv.Code),
				Notes:    fmt.Sprintf("Send a payment reminder for invoice %s (%s %.2f, period %s).", inv.Code, inv.Currency, inv.Amount, inv.Month),
				Category: "Finance",
				ClientID: &clientID,
				DueDate:  tomorrow,
			},
		})
	}

	// Deliverables due inside three days that nobody has started.
	dueSoonCutoff := now.AddDate(0, 0, 3)
	for _, d := range deliverables {
		if d.DueDate == nil || d.Status != "Not Started" {
			continue
		}
		if d.DueDate.Before(now) || d.DueDate.After(dueSoonCutoff) {
			continue
		}
		id := d.ID
		clientID := d.ClientID
		out = append(out, Suggestion{
			ID:         "due-soon-" + d.ID,
			Kind:       "due_soon",
			Priority:   PriorityMedium,
			Title:      fmt.Sprintf("%q due soon and not started", d.Name),
			Detail:     fmt.Sprintf("Due %s", d.DueDate.Format("2006-01-02")),
			EntityType: "deliverable",
			EntityID:   d.ID,
			Task: TaskTemplate{
				Name:          fmt.Sprintf("Kick off: %s", d.Name),
				Notes:         fmt.Sprintf("Deliverable %s is due %s and has not been started.", d.Name, d.DueDate.Format("2006-01-02")),
				Category:      "Delivery",
				ClientID:      &clientID,
				DeliverableID: &id,
				DueDate:       tomorrow,
			},
		})
	}

	// Content stuck in Ideation for over a week, capped at the first two.
	staleCutoff := now.AddDate(0, 0, -7)
	staleFound := 0
	for _, c := range content {
		if c.Status != "Ideation" || !c.UpdatedAt.Before(staleCutoff) {
			continue
		}
		if staleFound == 2 {
			break
		}
		staleFound++
		out = append(out, Suggestion{
			ID:         "stale-content-" + c.ID,
			Kind:       "stale_content",
			Priority:   PriorityLow,
			Title:      fmt.Sprintf("%q stuck in ideation", c.Title),
			Detail:     fmt.Sprintf("No movement since %s", c.UpdatedAt.Format("2006-01-02")),
			EntityType: "content",
			EntityID:   c.ID,
			Task: TaskTemplate{
				Name:     fmt.Sprintf("Draft or drop: %s", c.Title),
				Notes:    fmt.Sprintf("Content idea %q has sat in ideation for over a week. Move it to draft or park it.", c.Title),
				Category: "Content",
				ClientID: c.ClientID,
				DueDate:  tomorrow,
			},
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank[out[i].Priority] < priorityRank[out[j].Priority]
	})
	return out
}

func hasOpenFollowUp(tasks []store.Task, deliverableID string) bool {
	for _, t := range tasks {
		if t.DeliverableID != nil && *t.DeliverableID == deliverableID && t.Status != "Done" {
			return true
		}
	}
	return false
}

func hasReminderTask(tasks []store.Task, invoiceCode string) bool {
	if invoiceCode == "" {
		return false
	}
	for _, t := range tasks {
		if t.Status == "Done" {
			continue
		}
		if strings.Contains(t.Notes, invoiceCode) || strings.Contains(t.Name, invoiceCode) {
			return true
		}
	}
	return false
}
