// Package portal resolves client portal bearer tokens. A portal session is
// scoped to exactly one client; nothing outside that client is reachable
// through it.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log"

	"atelier/api/internal/auth"
	"atelier/api/internal/store"
	"atelier/api/internal/util"
)

var ErrInvalidPortalToken = errors.New("invalid portal token")

type accessStore interface {
	InsertPortalAccess(ctx context.Context, item store.PortalAccess) error
	GetPortalAccessByTokenHash(ctx context.Context, tokenHash string) (*store.PortalAccess, error)
	TouchPortalAccess(ctx context.Context, portalAccessID string) error
	SetPortalAccessActive(ctx context.Context, portalAccessID string, active bool) error
}

type Service struct {
	store accessStore
}

func NewService(store accessStore) *Service {
	return &Service{store: store}
}

// Issue creates (or replaces) the portal access for a client and returns the
// raw token. The token is shown once; only its hash is stored.
func (s *Service) Issue(ctx context.Context, clientID, contactName, contactEmail string) (string, error) {
	if clientID == "" || contactEmail == "" {
		return "", errors.New("client id and contact email are required")
	}

	token := util.NewToken()
	access := store.PortalAccess{
		ID:           util.NewID("pa"),
		ClientID:     clientID,
		TokenHash:    auth.HashToken(token),
		ContactName:  contactName,
		ContactEmail: contactEmail,
		Active:       true,
	}
	if err := s.store.InsertPortalAccess(ctx, access); err != nil {
		return "", fmt.Errorf("issue portal access: %w", err)
	}
	return token, nil
}

// Resolve maps a bearer token to its portal access row and records the use.
// Unknown, revoked, and malformed tokens are indistinguishable to the caller.
func (s *Service) Resolve(ctx context.Context, token string) (store.PortalAccess, error) {
	if token == "" {
		return store.PortalAccess{}, ErrInvalidPortalToken
	}

	access, err := s.store.GetPortalAccessByTokenHash(ctx, auth.HashToken(token))
	if err != nil {
		return store.PortalAccess{}, fmt.Errorf("resolve portal token: %w", err)
	}
	if access == nil {
		return store.PortalAccess{}, ErrInvalidPortalToken
	}

	if err := s.store.TouchPortalAccess(ctx, access.ID); err != nil {
		log.Printf("portal: touch access %s: %v", access.ID, err)
	}
	return *access, nil
}

// Revoke deactivates a portal access without deleting its history.
func (s *Service) Revoke(ctx context.Context, portalAccessID string) error {
	if err := s.store.SetPortalAccessActive(ctx, portalAccessID, false); err != nil {
		return fmt.Errorf("revoke portal access: %w", err)
	}
	return nil
}
