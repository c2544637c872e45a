package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// InvoiceData feeds the invoice template.
type InvoiceData struct {
	Code          string
	Month         string
	Amount        float64
	Currency      string
	Status        string
	PaymentDate   string
	ClientName    string
	ClientCode    string
	ContactName   string
	ContactEmail  string
	WorkspaceName string
	IssuedAt      string
}

// ProposalData feeds the proposal template.
type ProposalData struct {
	Title         string
	Amount        float64
	Currency      string
	Status        string
	SentAt        string
	ClientName    string
	ContactName   string
	WorkspaceName string
	IssuedAt      string
}

var templateFuncs = template.FuncMap{
	"money": func(currency string, amount float64) string {
		return fmt.Sprintf("%s %.2f", currency, amount)
	},
}

var invoiceTemplate = template.Must(template.New("invoice").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Invoice {{.Code}}</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #1a1a1a; margin: 0; padding: 32px; }
  .head { display: flex; justify-content: space-between; border-bottom: 3px solid #1a1a1a; padding-bottom: 16px; }
  .head h1 { margin: 0; font-size: 28px; letter-spacing: 1px; }
  .meta { margin-top: 24px; display: flex; justify-content: space-between; }
  .meta h3 { margin: 0 0 6px; font-size: 12px; text-transform: uppercase; color: #888; }
  table { width: 100%; border-collapse: collapse; margin-top: 32px; }
  th { text-align: left; font-size: 12px; text-transform: uppercase; color: #888; border-bottom: 1px solid #ddd; padding: 8px 0; }
  td { padding: 12px 0; border-bottom: 1px solid #eee; }
  .total { margin-top: 24px; text-align: right; font-size: 20px; font-weight: 600; }
  .status { display: inline-block; padding: 2px 10px; border-radius: 10px; background: #f0f0f0; font-size: 12px; }
  .footer { margin-top: 48px; font-size: 11px; color: #999; }
</style>
</head>
<body>
  <div class="head">
    <h1>INVOICE</h1>
    <div>
      <strong>{{.Code}}</strong><br>
      <span class="status">{{.Status}}</span>
    </div>
  </div>
  <div class="meta">
    <div>
      <h3>Billed To</h3>
      <strong>{{.ClientName}}</strong> ({{.ClientCode}})<br>
      {{if .ContactName}}{{.ContactName}}<br>{{end}}
      {{if .ContactEmail}}{{.ContactEmail}}{{end}}
    </div>
    <div>
      <h3>From</h3>
      {{.WorkspaceName}}<br>
      Issued {{.IssuedAt}}
    </div>
  </div>
  <table>
    <tr><th>Description</th><th>Period</th><th style="text-align:right">Amount</th></tr>
    <tr>
      <td>Retainer services</td>
      <td>{{.Month}}</td>
      <td style="text-align:right">{{money .Currency .Amount}}</td>
    </tr>
  </table>
  <div class="total">Total due: {{money .Currency .Amount}}</div>
  {{if .PaymentDate}}<p>Paid on {{.PaymentDate}}.</p>{{end}}
  <div class="footer">Generated by {{.WorkspaceName}}.</div>
</body>
</html>`))

var proposalTemplate = template.Must(template.New("proposal").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #1a1a1a; margin: 0; padding: 32px; }
  .head { border-bottom: 3px solid #1a1a1a; padding-bottom: 16px; }
  .head h1 { margin: 0 0 4px; font-size: 26px; }
  .head .for { color: #666; }
  .amount { margin-top: 32px; font-size: 22px; font-weight: 600; }
  .status { display: inline-block; padding: 2px 10px; border-radius: 10px; background: #f0f0f0; font-size: 12px; }
  .footer { margin-top: 48px; font-size: 11px; color: #999; }
</style>
</head>
<body>
  <div class="head">
    <h1>{{.Title}}</h1>
    <div class="for">Prepared for {{.ClientName}}{{if .ContactName}} · Attn: {{.ContactName}}{{end}}</div>
    <span class="status">{{.Status}}</span>
  </div>
  <div class="amount">Engagement value: {{money .Currency .Amount}}</div>
  {{if .SentAt}}<p>Sent {{.SentAt}}.</p>{{end}}
  <div class="footer">{{.WorkspaceName}} · {{.IssuedAt}}</div>
</body>
</html>`))

// RenderInvoiceHTML renders the printable invoice page.
func RenderInvoiceHTML(data InvoiceData) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render invoice: %w", err)
	}
	return buf.String(), nil
}

// RenderProposalHTML renders the printable proposal page.
func RenderProposalHTML(data ProposalData) (string, error) {
	var buf bytes.Buffer
	if err := proposalTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render proposal: %w", err)
	}
	return buf.String(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2 Jan 2006")
}
