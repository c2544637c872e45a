package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"atelier/api/internal/ai"
	"atelier/api/internal/email"
	"atelier/api/internal/export"
	"atelier/api/internal/search"
	"atelier/api/internal/store"
	"atelier/api/internal/util"
)

type ProposalInput struct {
	ClientID string  `json:"clientId"`
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
	SentAt   string  `json:"sentAt"`
}

func (s *Service) ListProposals(ctx context.Context, filter store.ProposalFilter) ([]store.Proposal, error) {
	return listCached(ctx, s, "proposals", filter.Key(), func() ([]store.Proposal, error) {
		return s.store.ListProposals(ctx, filter)
	})
}

func (s *Service) GetProposal(ctx context.Context, proposalID string) (store.Proposal, error) {
	return s.store.GetProposal(ctx, proposalID)
}

func (s *Service) CreateProposal(ctx context.Context, input ProposalInput, actor string) (store.Proposal, error) {
	if strings.TrimSpace(input.Title) == "" {
		return store.Proposal{}, domainError(http.StatusBadRequest, "VALIDATION", "title is required", nil)
	}
	if strings.TrimSpace(input.ClientID) == "" {
		return store.Proposal{}, domainError(http.StatusBadRequest, "VALIDATION", "clientId is required", nil)
	}
	if _, err := s.store.GetClient(ctx, input.ClientID); err != nil {
		return store.Proposal{}, err
	}
	item := store.Proposal{
		ID:       util.NewID("prp"),
		ClientID: input.ClientID,
		Title:    strings.TrimSpace(input.Title),
		Amount:   input.Amount,
		Currency: strings.ToUpper(defaultString(input.Currency, "SGD")),
		Status:   defaultString(input.Status, "Draft"),
		SentAt:   parseDate(input.SentAt),
	}
	if err := s.store.InsertProposal(ctx, item); err != nil {
		return store.Proposal{}, err
	}
	s.invalidate(ctx, "proposals")
	s.record(ctx, store.ActivityLog{
		EntityType: "proposal", EntityID: item.ID, Action: "created",
		Actor: actor, Detail: item.Title, LinkPath: "/proposals",
	})
	return s.store.GetProposal(ctx, item.ID)
}

func (s *Service) UpdateProposal(ctx context.Context, proposalID string, patch store.ProposalPatch, actor string) (store.Proposal, error) {
	if err := s.store.UpdateProposal(ctx, proposalID, patch); err != nil {
		return store.Proposal{}, err
	}
	updated, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return store.Proposal{}, err
	}
	s.invalidate(ctx, "proposals")
	action := "updated"
	if patch.Status != nil {
		switch *patch.Status {
		case "Accepted":
			action = "accepted"
		case "Rejected":
			action = "rejected"
		}
	}
	s.record(ctx, store.ActivityLog{
		EntityType: "proposal", EntityID: proposalID, Action: action,
		Actor: actor, Detail: updated.Title, LinkPath: "/proposals",
	})
	return updated, nil
}

func (s *Service) DeleteProposal(ctx context.Context, proposalID, actor string) error {
	existing, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProposal(ctx, proposalID); err != nil {
		return err
	}
	s.invalidate(ctx, "proposals")
	s.record(ctx, store.ActivityLog{
		EntityType: "proposal", EntityID: proposalID, Action: "deleted",
		Actor: actor, Detail: existing.Title,
	})
	return nil
}

func (s *Service) ListRetainerTiers(ctx context.Context) ([]store.RetainerTier, error) {
	return listCached(ctx, s, "retainers", "tiers", func() ([]store.RetainerTier, error) {
		return s.store.ListRetainerTiers(ctx)
	})
}

func (s *Service) CreateRetainerTier(ctx context.Context, item store.RetainerTier) (store.RetainerTier, error) {
	if strings.TrimSpace(item.Name) == "" {
		return store.RetainerTier{}, domainError(http.StatusBadRequest, "VALIDATION", "name is required", nil)
	}
	item.ID = util.NewID("rtr")
	if err := s.store.InsertRetainerTier(ctx, item); err != nil {
		return store.RetainerTier{}, err
	}
	s.invalidate(ctx, "retainers")
	return item, nil
}

type RetainerUsageInput struct {
	Month         string `json:"month"`
	BlogsUsed     int    `json:"blogsUsed"`
	PagesUsed     int    `json:"pagesUsed"`
	CampaignsUsed int    `json:"campaignsUsed"`
}

func (s *Service) UpsertRetainerUsage(ctx context.Context, clientID string, input RetainerUsageInput) (*store.RetainerUsage, error) {
	if strings.TrimSpace(input.Month) == "" {
		return nil, domainError(http.StatusBadRequest, "VALIDATION", "month is required", nil)
	}
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	if err := s.store.UpsertRetainerUsage(ctx, store.RetainerUsage{
		ID:            util.NewID("rus"),
		ClientID:      clientID,
		Month:         input.Month,
		BlogsUsed:     input.BlogsUsed,
		PagesUsed:     input.PagesUsed,
		CampaignsUsed: input.CampaignsUsed,
	}); err != nil {
		return nil, err
	}
	s.invalidate(ctx, "retainers")
	return s.store.GetRetainerUsage(ctx, clientID, input.Month)
}

func (s *Service) GetRetainerUsage(ctx context.Context, clientID, month string) (*store.RetainerUsage, error) {
	return s.store.GetRetainerUsage(ctx, clientID, month)
}

func (s *Service) ListSLADefinitions(ctx context.Context) ([]store.SLADefinition, error) {
	return listCached(ctx, s, "sla", "definitions", func() ([]store.SLADefinition, error) {
		return s.store.ListSLADefinitions(ctx)
	})
}

func (s *Service) UpsertSLADefinition(ctx context.Context, item store.SLADefinition) error {
	if strings.TrimSpace(item.ContentType) == "" {
		return domainError(http.StatusBadRequest, "VALIDATION", "contentType is required", nil)
	}
	if item.TotalDays <= 0 {
		return domainError(http.StatusBadRequest, "VALIDATION", "totalDays must be positive", nil)
	}
	if err := s.store.UpsertSLADefinition(ctx, item); err != nil {
		return err
	}
	s.invalidate(ctx, "sla")
	return nil
}

func (s *Service) ListTeamMembers(ctx context.Context) ([]store.TeamMember, error) {
	return listCached(ctx, s, "team", "members", func() ([]store.TeamMember, error) {
		return s.store.ListTeamMembers(ctx)
	})
}

func (s *Service) CreateTeamMember(ctx context.Context, item store.TeamMember) (store.TeamMember, error) {
	if strings.TrimSpace(item.Name) == "" {
		return store.TeamMember{}, domainError(http.StatusBadRequest, "VALIDATION", "name is required", nil)
	}
	item.ID = util.NewID("tm")
	item.Active = true
	if err := s.store.InsertTeamMember(ctx, item); err != nil {
		return store.TeamMember{}, err
	}
	s.invalidate(ctx, "team")
	return item, nil
}

type TimeEntryInput struct {
	TeamMemberID string  `json:"teamMemberId"`
	ClientID     string  `json:"clientId"`
	TaskID       string  `json:"taskId"`
	Hours        float64 `json:"hours"`
	Note         string  `json:"note"`
	EntryDate    string  `json:"entryDate"`
}

func (s *Service) CreateTimeEntry(ctx context.Context, input TimeEntryInput) (store.TimeEntry, error) {
	if strings.TrimSpace(input.TeamMemberID) == "" {
		return store.TimeEntry{}, domainError(http.StatusBadRequest, "VALIDATION", "teamMemberId is required", nil)
	}
	if input.Hours <= 0 {
		return store.TimeEntry{}, domainError(http.StatusBadRequest, "VALIDATION", "hours must be positive", nil)
	}
	entryDate := time.Now()
	if parsed := parseDate(input.EntryDate); parsed != nil {
		entryDate = *parsed
	}
	item := store.TimeEntry{
		ID:           util.NewID("te"),
		TeamMemberID: input.TeamMemberID,
		ClientID:     optionalID(input.ClientID),
		TaskID:       optionalID(input.TaskID),
		Hours:        input.Hours,
		Note:         input.Note,
		EntryDate:    entryDate,
	}
	if err := s.store.InsertTimeEntry(ctx, item); err != nil {
		return store.TimeEntry{}, err
	}
	return item, nil
}

func (s *Service) ListTimeEntries(ctx context.Context, clientID string, limit int) ([]store.TimeEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListTimeEntries(ctx, clientID, limit)
}

func (s *Service) GetWorkspaceSettings(ctx context.Context) (store.WorkspaceSettings, error) {
	return s.store.GetWorkspaceSettings(ctx)
}

func (s *Service) UpdateWorkspaceSettings(ctx context.Context, item store.WorkspaceSettings, actor string) (store.WorkspaceSettings, error) {
	if strings.TrimSpace(item.Name) == "" {
		return store.WorkspaceSettings{}, domainError(http.StatusBadRequest, "VALIDATION", "name is required", nil)
	}
	if err := s.store.UpsertWorkspaceSettings(ctx, item); err != nil {
		return store.WorkspaceSettings{}, err
	}
	s.invalidate(ctx, "settings")
	s.record(ctx, store.ActivityLog{
		EntityType: "settings", EntityID: "workspace", Action: "updated", Actor: actor,
	})
	return s.store.GetWorkspaceSettings(ctx)
}

func (s *Service) ListNotifications(ctx context.Context, profileID string, unreadOnly bool, limit int) ([]store.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListNotifications(ctx, profileID, unreadOnly, limit)
}

func (s *Service) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return s.store.MarkNotificationRead(ctx, notificationID)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, profileID string) error {
	return s.store.MarkAllNotificationsRead(ctx, profileID)
}

func (s *Service) RecentActivity(ctx context.Context, limit int) ([]store.ActivityLog, error) {
	if s.activity == nil {
		return []store.ActivityLog{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.activity.Recent(ctx, limit)
}

func (s *Service) Search(q search.Query) (search.Response, error) {
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "search is not configured", nil)
	}
	return s.search.Search(q), nil
}

func (s *Service) GenerateContentDraft(ctx context.Context, req ai.GenerateRequest) (string, error) {
	if s.ai == nil {
		return "", domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "ai generation is not configured", nil)
	}
	text, err := s.ai.GenerateText(ctx, req)
	if err != nil {
		return "", domainError(http.StatusBadGateway, "AI_FAILED", err.Error(), nil)
	}
	return text, nil
}

func (s *Service) GenerateEmailDraft(ctx context.Context, req ai.GenerateRequest) (ai.Email, error) {
	if s.ai == nil {
		return ai.Email{}, domainError(http.StatusServiceUnavailable, "AI_UNAVAILABLE", "ai generation is not configured", nil)
	}
	draft, err := s.ai.GenerateEmail(ctx, req)
	if err != nil {
		return ai.Email{}, domainError(http.StatusBadGateway, "AI_FAILED", err.Error(), nil)
	}
	return draft, nil
}

func (s *Service) ExportDocument(ctx context.Context, req export.Request) (*export.Result, error) {
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "pdf export is not configured", nil)
	}
	result, err := s.exporter.Export(ctx, req)
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "no chromium available for pdf rendering", nil)
		}
		return nil, err
	}
	return result, nil
}

// RelayEmail sends a templated message to a client's active portal contact.
func (s *Service) RelayEmail(ctx context.Context, req email.RelayRequest, actor string) (email.RelayResult, error) {
	if s.relay == nil {
		return email.RelayResult{}, domainError(http.StatusServiceUnavailable, "RELAY_UNAVAILABLE", "email relay is not configured", nil)
	}
	result, err := s.relay.Send(ctx, req)
	if err != nil {
		if errors.Is(err, email.ErrNoActiveContact) {
			return email.RelayResult{}, domainError(http.StatusNotFound, "NO_ACTIVE_CONTACT", "client has no active portal contact", nil)
		}
		return email.RelayResult{}, err
	}
	s.record(ctx, store.ActivityLog{
		EntityType: "email", EntityID: req.ClientID, Action: "relayed",
		Actor: actor, Detail: result.Subject,
	})
	return result, nil
}
