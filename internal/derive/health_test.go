package derive

import (
	"testing"
	"time"

	"atelier/api/internal/store"
)

var healthNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time { return &t }

func clientRef(id string) *string { return &id }

// A client with nothing at all is the canonical regression fixture:
// 100*0.30 + 100*0.25 + 100*0.25 + 70*0.20 = 94. The engagement factor lands
// on the 70-point empty branch, and the improving check never fires because
// there is no raw completion rate to exceed 80.
func TestHealthScoreEmptyClientFixture(t *testing.T) {
	client := store.Client{ID: "c1", Name: "Fresh Signup"}

	got := CalculateHealthScore(client, nil, nil, nil, healthNow)

	if got.Score != 94 {
		t.Fatalf("score = %d, want 94", got.Score)
	}
	if got.Grade != "A" {
		t.Fatalf("grade = %q, want A", got.Grade)
	}
	if got.Trend != TrendStable {
		t.Fatalf("trend = %q, want stable", got.Trend)
	}
	if got.Engagement != 70 {
		t.Fatalf("engagement = %v, want 70 (empty branch)", got.Engagement)
	}
}

// Declining is evaluated before improving and wins when both hold. This is a
// priority-order contract, not a bug: a client with a strong delivery rate
// but three overdue items reads as declining.
func TestHealthTrendDecliningWinsOverImproving(t *testing.T) {
	client := store.Client{ID: "c1"}
	overdue := datePtr(healthNow.AddDate(0, 0, -3))

	deliverables := []store.Deliverable{
		{ID: "d1", ClientID: "c1", Status: "Approved", UpdatedAt: healthNow},
		{ID: "d2", ClientID: "c1", Status: "Approved", UpdatedAt: healthNow},
		{ID: "d3", ClientID: "c1", Status: "Approved", UpdatedAt: healthNow},
		{ID: "d4", ClientID: "c1", Status: "Approved", UpdatedAt: healthNow},
		{ID: "d5", ClientID: "c1", Status: "Approved", UpdatedAt: healthNow},
	}
	tasks := []store.Task{
		{ID: "t1", ClientID: clientRef("c1"), Status: "To Do", DueDate: overdue},
		{ID: "t2", ClientID: clientRef("c1"), Status: "To Do", DueDate: overdue},
		{ID: "t3", ClientID: clientRef("c1"), Status: "To Do", DueDate: overdue},
	}

	got := CalculateHealthScore(client, deliverables, nil, tasks, healthNow)

	if got.DeliveryRate != 100 {
		t.Fatalf("delivery rate = %v, want 100", got.DeliveryRate)
	}
	if got.OverdueCount != 3 {
		t.Fatalf("overdue count = %d, want 3", got.OverdueCount)
	}
	if got.Trend != TrendDeclining {
		t.Fatalf("trend = %q, want declining (priority order)", got.Trend)
	}
}

func TestHealthTrendImproving(t *testing.T) {
	client := store.Client{ID: "c1"}
	deliverables := []store.Deliverable{
		{ID: "d1", ClientID: "c1", Status: "Approved", UpdatedAt: healthNow},
		{ID: "d2", ClientID: "c1", Status: "Delivered", UpdatedAt: healthNow},
		{ID: "d3", ClientID: "c1", Status: "Approved", UpdatedAt: healthNow},
		{ID: "d4", ClientID: "c1", Status: "Approved", UpdatedAt: healthNow},
		{ID: "d5", ClientID: "c1", Status: "Delivered", UpdatedAt: healthNow},
	}
	invoices := []store.Invoice{
		{ID: "i1", ClientID: "c1", Status: "Paid"},
		{ID: "i2", ClientID: "c1", Status: "Paid"},
	}

	got := CalculateHealthScore(client, deliverables, invoices, nil, healthNow)

	if got.Trend != TrendImproving {
		t.Fatalf("trend = %q, want improving", got.Trend)
	}
}

func TestHealthAnyOverdueInvoiceMeansDeclining(t *testing.T) {
	client := store.Client{ID: "c1"}
	invoices := []store.Invoice{
		{ID: "i1", ClientID: "c1", Status: "Paid"},
		{ID: "i2", ClientID: "c1", Status: "Overdue"},
	}

	got := CalculateHealthScore(client, nil, invoices, nil, healthNow)

	if got.Trend != TrendDeclining {
		t.Fatalf("trend = %q, want declining", got.Trend)
	}
	// payment = 1/2*100 - 20*1 = 30
	if got.PaymentScore != 30 {
		t.Fatalf("payment = %v, want 30", got.PaymentScore)
	}
}

func TestHealthIgnoresOtherClients(t *testing.T) {
	client := store.Client{ID: "c1"}
	overdue := datePtr(healthNow.AddDate(0, 0, -5))
	deliverables := []store.Deliverable{
		{ID: "d1", ClientID: "other", Status: "Not Started", DueDate: overdue},
	}
	tasks := []store.Task{
		{ID: "t1", ClientID: clientRef("other"), Status: "To Do", DueDate: overdue},
		{ID: "t2", Status: "To Do", DueDate: overdue}, // clientless
	}

	got := CalculateHealthScore(client, deliverables, nil, tasks, healthNow)

	if got.OverdueCount != 0 {
		t.Fatalf("overdue count = %d, want 0", got.OverdueCount)
	}
	if got.Score != 94 {
		t.Fatalf("score = %d, want 94 (empty fixture)", got.Score)
	}
}

func TestHealthGradeThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{score: 90, want: "A"},
		{score: 89, want: "B"},
		{score: 75, want: "B"},
		{score: 74, want: "C"},
		{score: 60, want: "C"},
		{score: 59, want: "D"},
		{score: 40, want: "D"},
		{score: 39, want: "F"},
		{score: 0, want: "F"},
	}
	for _, tc := range cases {
		if got := gradeFor(tc.score); got != tc.want {
			t.Errorf("gradeFor(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestHealthOnTimeFloorsAtZero(t *testing.T) {
	client := store.Client{ID: "c1"}
	overdue := datePtr(healthNow.AddDate(0, 0, -1))
	var deliverables []store.Deliverable
	for i := 0; i < 6; i++ {
		deliverables = append(deliverables, store.Deliverable{
			ID: "d", ClientID: "c1", Status: "In Progress", DueDate: overdue, UpdatedAt: healthNow,
		})
	}

	got := CalculateHealthScore(client, deliverables, nil, nil, healthNow)

	if got.OnTimeScore != 0 {
		t.Fatalf("on-time = %v, want 0 floor", got.OnTimeScore)
	}
}
