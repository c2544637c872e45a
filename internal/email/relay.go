package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"atelier/api/internal/store"
)

// ErrNoActiveContact means neither the client nor the portal access id
// resolved to an active portal contact.
var ErrNoActiveContact = errors.New("no active portal contact")

type sender interface {
	SendHTMLEmail(to []string, subject, htmlBody string) error
	IsConfigured() bool
}

type portalResolver interface {
	GetActivePortalAccessByClient(ctx context.Context, clientID string) (*store.PortalAccess, error)
	GetPortalAccess(ctx context.Context, portalAccessID string) (*store.PortalAccess, error)
}

// Relay resolves a portal contact and forwards templated HTML to them.
type Relay struct {
	sender sender
	portal portalResolver
	appURL string
}

func NewRelay(sender sender, portal portalResolver, appURL string) *Relay {
	return &Relay{sender: sender, portal: portal, appURL: appURL}
}

// RelayRequest targets either a client (its active contact) or a specific
// portal access row.
type RelayRequest struct {
	ClientID       string
	PortalAccessID string
	Subject        string
	HTML           string
}

// RelayResult reports who the message went to.
type RelayResult struct {
	To          string `json:"to"`
	ContactName string `json:"contactName"`
	Subject     string `json:"subject"`
}

// Send resolves the contact, substitutes the placeholders, and delivers.
// Inactive contacts surface ErrNoActiveContact regardless of how they were
// addressed.
func (r *Relay) Send(ctx context.Context, req RelayRequest) (RelayResult, error) {
	if req.ClientID == "" && req.PortalAccessID == "" {
		return RelayResult{}, errors.New("clientId or portalAccessId is required")
	}
	if req.Subject == "" || req.HTML == "" {
		return RelayResult{}, errors.New("subject and html are required")
	}

	access, err := r.resolve(ctx, req)
	if err != nil {
		return RelayResult{}, err
	}

	html := Substitute(req.HTML, r.appURL+"/portal", access.ContactName)
	if err := r.sender.SendHTMLEmail([]string{access.ContactEmail}, req.Subject, html); err != nil {
		return RelayResult{}, fmt.Errorf("relay send: %w", err)
	}

	return RelayResult{
		To:          access.ContactEmail,
		ContactName: access.ContactName,
		Subject:     req.Subject,
	}, nil
}

func (r *Relay) resolve(ctx context.Context, req RelayRequest) (*store.PortalAccess, error) {
	if req.PortalAccessID != "" {
		access, err := r.portal.GetPortalAccess(ctx, req.PortalAccessID)
		if err != nil {
			return nil, fmt.Errorf("resolve portal access: %w", err)
		}
		if access == nil || !access.Active {
			return nil, ErrNoActiveContact
		}
		return access, nil
	}

	access, err := r.portal.GetActivePortalAccessByClient(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("resolve client contact: %w", err)
	}
	if access == nil {
		return nil, ErrNoActiveContact
	}
	return access, nil
}

// Substitute replaces the {PORTAL_URL} and {CONTACT_NAME} placeholders. Every
// occurrence is replaced; unknown placeholders pass through untouched.
func Substitute(html, portalURL, contactName string) string {
	html = strings.ReplaceAll(html, "{PORTAL_URL}", portalURL)
	html = strings.ReplaceAll(html, "{CONTACT_NAME}", contactName)
	return html
}
