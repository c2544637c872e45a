package derive

import (
	"strings"
	"testing"
	"time"

	"atelier/api/internal/store"
)

var suggestNow = time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

func TestSuggestOverdueDeliverable(t *testing.T) {
	due := suggestNow.AddDate(0, 0, -2)
	deliverables := []store.Deliverable{
		{ID: "d1", Code: "DLV-0001", ClientID: "c1", Name: "Brand refresh", Status: "In Progress", DueDate: &due},
	}

	got := BuildSuggestions(deliverables, nil, nil, nil, suggestNow)

	if len(got) != 1 {
		t.Fatalf("len = %d, want exactly 1", len(got))
	}
	s := got[0]
	if s.Kind != "overdue_deliverable" || s.Priority != PriorityHigh {
		t.Fatalf("kind/priority = %s/%s, want overdue_deliverable/high", s.Kind, s.Priority)
	}
	if !strings.Contains(s.Task.Name, "Brand refresh") {
		t.Fatalf("task name %q does not mention the deliverable", s.Task.Name)
	}
	wantDue := suggestNow.AddDate(0, 0, 1).Format("2006-01-02")
	if s.Task.DueDate != wantDue {
		t.Fatalf("task due = %s, want tomorrow (%s)", s.Task.DueDate, wantDue)
	}
	if s.Task.DeliverableID == nil || *s.Task.DeliverableID != "d1" {
		t.Fatal("task template not linked to the deliverable")
	}
}

func TestSuggestSkipsDeliverableWithOpenFollowUp(t *testing.T) {
	due := suggestNow.AddDate(0, 0, -2)
	d1 := "d1"
	deliverables := []store.Deliverable{
		{ID: "d1", ClientID: "c1", Name: "Brand refresh", Status: "In Progress", DueDate: &due},
	}
	tasks := []store.Task{
		{ID: "t1", Name: "Chase it", Status: "In Progress", DeliverableID: &d1},
	}

	if got := BuildSuggestions(deliverables, nil, tasks, nil, suggestNow); len(got) != 0 {
		t.Fatalf("len = %d, want 0 when a follow-up is open", len(got))
	}

	// A Done follow-up does not count.
	tasks[0].Status = "Done"
	if got := BuildSuggestions(deliverables, nil, tasks, nil, suggestNow); len(got) != 1 {
		t.Fatalf("len = %d, want 1 when the follow-up is done", len(got))
	}
}

func TestSuggestOverdueInvoiceReminderMatch(t *testing.T) {
	invoices := []store.Invoice{
		{ID: "i1", Code: "INV-0042", ClientID: "c1", Status: "Overdue", Amount: 1500, Currency: "SGD", Month: "2026-07"},
	}

	// The reminder is matched by the invoice code appearing anywhere in an open
	// task's notes or name.
	tasks := []store.Task{
		{ID: "t1", Name: "Admin", Notes: "ping finance about INV-0042 again", Status: "To Do"},
	}
	if got := BuildSuggestions(nil, invoices, tasks, nil, suggestNow); len(got) != 0 {
		t.Fatalf("len = %d, want 0 when a reminder mentions the code", len(got))
	}

	if got := BuildSuggestions(nil, invoices, nil, nil, suggestNow); len(got) != 1 {
		t.Fatalf("len = %d, want 1 without a reminder", len(got))
	} else if got[0].Kind != "overdue_invoice" || got[0].Priority != PriorityHigh {
		t.Fatalf("kind/priority = %s/%s", got[0].Kind, got[0].Priority)
	}
}

func TestSuggestDueSoonOnlyNotStarted(t *testing.T) {
	soon := suggestNow.AddDate(0, 0, 2)
	deliverables := []store.Deliverable{
		{ID: "d1", ClientID: "c1", Name: "Untouched", Status: "Not Started", DueDate: &soon},
		{ID: "d2", ClientID: "c1", Name: "Underway", Status: "In Progress", DueDate: &soon},
	}

	got := BuildSuggestions(deliverables, nil, nil, nil, suggestNow)

	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Kind != "due_soon" || got[0].Priority != PriorityMedium || got[0].EntityID != "d1" {
		t.Fatalf("got %+v", got[0])
	}
}

func TestSuggestStaleContentCappedAtTwo(t *testing.T) {
	old := suggestNow.AddDate(0, 0, -10)
	content := []store.ContentItem{
		{ID: "ct1", Title: "Idea one", Status: "Ideation", UpdatedAt: old},
		{ID: "ct2", Title: "Idea two", Status: "Ideation", UpdatedAt: old},
		{ID: "ct3", Title: "Idea three", Status: "Ideation", UpdatedAt: old},
		{ID: "ct4", Title: "Fresh idea", Status: "Ideation", UpdatedAt: suggestNow.AddDate(0, 0, -1)},
	}

	got := BuildSuggestions(nil, nil, nil, content, suggestNow)

	if len(got) != 2 {
		t.Fatalf("len = %d, want cap of 2", len(got))
	}
	if got[0].EntityID != "ct1" || got[1].EntityID != "ct2" {
		t.Fatalf("got %s, %s; want first two stale items", got[0].EntityID, got[1].EntityID)
	}
}

func TestSuggestPriorityOrderIsStable(t *testing.T) {
	overdue := suggestNow.AddDate(0, 0, -1)
	soon := suggestNow.AddDate(0, 0, 2)
	old := suggestNow.AddDate(0, 0, -10)

	deliverables := []store.Deliverable{
		{ID: "d1", ClientID: "c1", Name: "Soon", Status: "Not Started", DueDate: &soon},
		{ID: "d2", ClientID: "c1", Name: "Late", Status: "In Progress", DueDate: &overdue},
	}
	invoices := []store.Invoice{
		{ID: "i1", Code: "INV-0001", ClientID: "c1", Status: "Overdue", Amount: 100, Currency: "SGD", Month: "2026-07"},
	}
	content := []store.ContentItem{
		{ID: "ct1", Title: "Stale", Status: "Ideation", UpdatedAt: old},
	}

	got := BuildSuggestions(deliverables, invoices, nil, content, suggestNow)

	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	wantKinds := []string{"overdue_deliverable", "overdue_invoice", "due_soon", "stale_content"}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Fatalf("index %d kind = %s, want %s", i, got[i].Kind, k)
		}
	}
}
