package export

import (
	"strings"
	"testing"
	"time"
)

func TestRenderInvoiceHTML(t *testing.T) {
	html, err := RenderInvoiceHTML(InvoiceData{
		Code:          "INV-0042",
		Month:         "2026-07",
		Amount:        4500,
		Currency:      "SGD",
		Status:        "Sent",
		ClientName:    "Acme Pte Ltd",
		ClientCode:    "CLT-0001",
		ContactName:   "Dana",
		WorkspaceName: "Atelier",
		IssuedAt:      "31 Aug 2026",
	})
	if err != nil {
		t.Fatalf("RenderInvoiceHTML() error = %v", err)
	}
	for _, want := range []string{"INV-0042", "2026-07", "SGD 4500.00", "Acme Pte Ltd", "CLT-0001"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(html, "Paid on") {
		t.Error("unpaid invoice should not show payment date")
	}
}

func TestRenderInvoiceHTMLEscapes(t *testing.T) {
	html, err := RenderInvoiceHTML(InvoiceData{
		Code:       "INV-0001",
		ClientName: "<script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("RenderInvoiceHTML() error = %v", err)
	}
	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Fatal("client name not escaped")
	}
}

func TestRenderProposalHTML(t *testing.T) {
	html, err := RenderProposalHTML(ProposalData{
		Title:         "Q4 Content Retainer",
		Amount:        12000,
		Currency:      "USD",
		Status:        "Sent",
		SentAt:        "1 Aug 2026",
		ClientName:    "Acme Pte Ltd",
		WorkspaceName: "Atelier",
		IssuedAt:      "31 Aug 2026",
	})
	if err != nil {
		t.Fatalf("RenderProposalHTML() error = %v", err)
	}
	for _, want := range []string{"Q4 Content Retainer", "USD 12000.00", "Sent 1 Aug 2026"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "Invoice INV-0042", want: "Invoice-INV-0042"},
		{in: "Q4 Proposal: Acme!", want: "Q4-Proposal-Acme"},
		{in: "///", want: "document"},
		{in: strings.Repeat("a", 80), want: strings.Repeat("a", 50)},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b<c>")
	if got != "a%20b%3Cc%3E" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatDate(t *testing.T) {
	if got := formatDate(nil); got != "" {
		t.Fatalf("nil date = %q, want empty", got)
	}
	d := time.Date(2026, 7, 9, 0, 0, 0, 0, time.UTC)
	if got := formatDate(&d); got != "9 Jul 2026" {
		t.Fatalf("got %q", got)
	}
}
