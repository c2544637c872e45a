package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"atelier/api/internal/store"
)

// DataStore defines the interface for data access
type DataStore interface {
	GetInvoice(ctx context.Context, invoiceID string) (store.Invoice, error)
	GetProposal(ctx context.Context, proposalID string) (store.Proposal, error)
	GetClient(ctx context.Context, clientID string) (store.Client, error)
	GetWorkspaceSettings(ctx context.Context) (store.WorkspaceSettings, error)
}

// Service provides invoice and proposal export functionality
type Service struct {
	store   DataStore
	archive *Archive
}

// NewService creates a new export service. archive may be nil when object
// storage is not configured.
func NewService(store DataStore, archive *Archive) *Service {
	return &Service{store: store, archive: archive}
}

// Export renders the requested document and returns the PDF.
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	var html, title string
	var err error

	switch req.Kind {
	case KindInvoice:
		html, title, err = s.buildInvoice(ctx, req.ID)
	case KindProposal:
		html, title, err = s.buildProposal(ctx, req.ID)
	default:
		return nil, fmt.Errorf("unsupported export kind: %s", req.Kind)
	}
	if err != nil {
		return nil, err
	}

	result, err := exportPDF(html, title)
	if err != nil {
		return nil, err
	}

	if req.Archive && s.archive != nil {
		key, err := s.archive.Store(ctx, req.Kind, result)
		if err != nil {
			// The caller still gets their PDF when the archive is down.
			log.Printf("export: archive failed: %v", err)
		} else {
			result.ArchiveKey = key
		}
	}

	return result, nil
}

func (s *Service) buildInvoice(ctx context.Context, invoiceID string) (string, string, error) {
	invoice, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return "", "", fmt.Errorf("get invoice: %w", err)
	}
	client, err := s.store.GetClient(ctx, invoice.ClientID)
	if err != nil {
		return "", "", fmt.Errorf("get client: %w", err)
	}
	workspace, err := s.store.GetWorkspaceSettings(ctx)
	if err != nil {
		return "", "", fmt.Errorf("get workspace settings: %w", err)
	}

	html, err := RenderInvoiceHTML(InvoiceData{
		Code:          invoice.Code,
		Month:         invoice.Month,
		Amount:        invoice.Amount,
		Currency:      invoice.Currency,
		Status:        invoice.Status,
		PaymentDate:   formatDate(invoice.PaymentDate),
		ClientName:    client.Name,
		ClientCode:    client.Code,
		ContactName:   client.ContactName,
		ContactEmail:  client.ContactEmail,
		WorkspaceName: workspace.Name,
		IssuedAt:      time.Now().Format("2 Jan 2006"),
	})
	if err != nil {
		return "", "", err
	}
	return html, "Invoice " + invoice.Code, nil
}

func (s *Service) buildProposal(ctx context.Context, proposalID string) (string, string, error) {
	proposal, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return "", "", fmt.Errorf("get proposal: %w", err)
	}
	client, err := s.store.GetClient(ctx, proposal.ClientID)
	if err != nil {
		return "", "", fmt.Errorf("get client: %w", err)
	}
	workspace, err := s.store.GetWorkspaceSettings(ctx)
	if err != nil {
		return "", "", fmt.Errorf("get workspace settings: %w", err)
	}

	html, err := RenderProposalHTML(ProposalData{
		Title:         proposal.Title,
		Amount:        proposal.Amount,
		Currency:      proposal.Currency,
		Status:        proposal.Status,
		SentAt:        formatDate(proposal.SentAt),
		ClientName:    client.Name,
		ContactName:   client.ContactName,
		WorkspaceName: workspace.Name,
		IssuedAt:      time.Now().Format("2 Jan 2006"),
	})
	if err != nil {
		return "", "", err
	}
	return html, proposal.Title, nil
}
