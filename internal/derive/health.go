// Package derive holds the pure derivation layer: health scores, SLA status,
// the activity feed, and smart suggestions. Everything here is a function over
// already-fetched rows and recomputed on every call.
package derive

import (
	"math"
	"time"

	"atelier/api/internal/store"
)

type HealthScore struct {
	Score        int     `json:"score"`
	Grade        string  `json:"grade"`
	Trend        string  `json:"trend"`
	DeliveryRate float64 `json:"deliveryRate"`
	OnTimeScore  float64 `json:"onTimeScore"`
	PaymentScore float64 `json:"paymentScore"`
	Engagement   float64 `json:"engagement"`
	OverdueCount int     `json:"overdueCount"`
}

const (
	TrendImproving = "improving"
	TrendStable    = "stable"
	TrendDeclining = "declining"
)

func isDeliverableTerminal(status string) bool {
	return status == "Delivered" || status == "Approved"
}

// CalculateHealthScore derives a 0-100 weighted score for one client from the
// full deliverable/invoice/task collections; rows belonging to other clients
// are skipped by an O(n) scan.
func CalculateHealthScore(client store.Client, deliverables []store.Deliverable, invoices []store.Invoice, tasks []store.Task, now time.Time) HealthScore {
	var dels []store.Deliverable
	for _, d := range deliverables {
		if d.ClientID == client.ID {
			dels = append(dels, d)
		}
	}
	var invs []store.Invoice
	for _, inv := range invoices {
		if inv.ClientID == client.ID {
			invs = append(invs, inv)
		}
	}
	var tsks []store.Task
	for _, t := range tasks {
		if t.ClientID != nil && *t.ClientID == client.ID {
			tsks = append(tsks, t)
		}
	}

	// Factor 1: delivery rate (weight 0.30), 100 when there is nothing to deliver.
	completed := 0
	for _, d := range dels {
		if isDeliverableTerminal(d.Status) {
			completed++
		}
	}
	deliveryRate := 100.0
	hasDeliverables := len(dels) > 0
	if hasDeliverables {
		deliveryRate = float64(completed) / float64(len(dels)) * 100
	}

	// Factor 2: on-time delivery (weight 0.25).
	overdueCount := 0
	for _, d := range dels {
		if d.DueDate != nil && d.DueDate.Before(now) && !isDeliverableTerminal(d.Status) {
			overdueCount++
		}
	}
	for _, t := range tsks {
		if t.DueDate != nil && t.DueDate.Before(now) && t.Status != "Done" {
			overdueCount++
		}
	}
	onTime := math.Max(0, 100-25*float64(overdueCount))

	// Factor 3: payment health (weight 0.25), 100 when there are no invoices.
	paid := 0
	overdueInvoices := 0
	for _, inv := range invs {
		switch inv.Status {
		case "Paid":
			paid++
		case "Overdue":
			overdueInvoices++
		}
	}
	payment := 100.0
	if len(invs) > 0 {
		payment = float64(paid)/float64(len(invs))*100 - 20*float64(overdueInvoices)
		payment = math.Min(100, math.Max(0, payment))
	}

	// Factor 4: engagement (weight 0.20). A client with no deliverables and no
	// tasks lands on the 70-point empty branch, not the 100-point recent one.
	engagement := 40.0
	recentCutoff := now.Add(-14 * 24 * time.Hour)
	hasRecent := false
	for _, d := range dels {
		if d.UpdatedAt.After(recentCutoff) {
			hasRecent = true
			break
		}
	}
	if !hasRecent {
		for _, t := range tsks {
			if t.UpdatedAt.After(recentCutoff) {
				hasRecent = true
				break
			}
		}
	}
	switch {
	case hasRecent:
		engagement = 100
	case len(dels) == 0 && len(tsks) == 0:
		engagement = 70
	}

	score := int(math.Round(0.30*deliveryRate + 0.25*onTime + 0.25*payment + 0.20*engagement))

	// Trend priority is a fixed contract: declining is evaluated first and wins
	// even when the improving conditions also hold. The improving check uses
	// the raw completion rate, so a client with zero deliverables can never
	// read as improving.
	trend := TrendStable
	switch {
	case overdueCount > 2 || overdueInvoices > 0:
		trend = TrendDeclining
	case hasDeliverables && deliveryRate > 80 && overdueCount == 0 && payment > 80:
		trend = TrendImproving
	}

	return HealthScore{
		Score:        score,
		Grade:        gradeFor(score),
		Trend:        trend,
		DeliveryRate: deliveryRate,
		OnTimeScore:  onTime,
		PaymentScore: payment,
		Engagement:   engagement,
		OverdueCount: overdueCount,
	}
}

func gradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}
