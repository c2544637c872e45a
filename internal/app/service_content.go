package app

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"atelier/api/internal/derive"
	"atelier/api/internal/search"
	"atelier/api/internal/store"
	"atelier/api/internal/util"
)

type ContentInput struct {
	ClientID    string `json:"clientId"`
	Title       string `json:"title"`
	ContentType string `json:"contentType"`
	Platform    string `json:"platform"`
	Status      string `json:"status"`
	Body        string `json:"body"`
}

// ContentWithSLA is a content row with its derived delivery deadline. The
// deadline is recomputed on read from the SLA definitions, never stored.
type ContentWithSLA struct {
	store.ContentItem
	SLADeadline *time.Time       `json:"slaDeadline,omitempty"`
	SLAStatus   derive.SLAStatus `json:"slaStatus"`
}

func (s *Service) decorateSLA(ctx context.Context, items []store.ContentItem) ([]ContentWithSLA, error) {
	defs, err := s.store.ListSLADefinitions(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]ContentWithSLA, 0, len(items))
	for _, item := range items {
		deadline := derive.SLADeadline(item.ContentType, item.CreatedAt, defs)
		status := derive.SLAOnTrack
		// Finished work no longer has a ticking clock.
		if item.Status != "Published" && item.Status != "Approved" {
			status = derive.SLAStatusFor(deadline, now)
		}
		out = append(out, ContentWithSLA{ContentItem: item, SLADeadline: deadline, SLAStatus: status})
	}
	return out, nil
}

func (s *Service) ListContent(ctx context.Context, filter store.ContentFilter) ([]ContentWithSLA, error) {
	return listCached(ctx, s, "content", filter.Key(), func() ([]ContentWithSLA, error) {
		items, err := s.store.ListContentItems(ctx, filter)
		if err != nil {
			return nil, err
		}
		return s.decorateSLA(ctx, items)
	})
}

func (s *Service) GetContent(ctx context.Context, contentID string) (ContentWithSLA, error) {
	item, err := s.store.GetContentItem(ctx, contentID)
	if err != nil {
		return ContentWithSLA{}, err
	}
	decorated, err := s.decorateSLA(ctx, []store.ContentItem{item})
	if err != nil {
		return ContentWithSLA{}, err
	}
	return decorated[0], nil
}

func (s *Service) CreateContent(ctx context.Context, input ContentInput, actor string) (ContentWithSLA, error) {
	if strings.TrimSpace(input.Title) == "" {
		return ContentWithSLA{}, domainError(http.StatusBadRequest, "VALIDATION", "title is required", nil)
	}
	if strings.TrimSpace(input.ContentType) == "" {
		return ContentWithSLA{}, domainError(http.StatusBadRequest, "VALIDATION", "contentType is required", nil)
	}
	item := store.ContentItem{
		ID:          util.NewID("cnt"),
		ClientID:    optionalID(input.ClientID),
		Title:       strings.TrimSpace(input.Title),
		ContentType: strings.TrimSpace(input.ContentType),
		Platform:    strings.TrimSpace(input.Platform),
		Status:      defaultString(input.Status, "Draft"),
		Body:        input.Body,
	}
	if err := s.store.InsertContentItem(ctx, item); err != nil {
		return ContentWithSLA{}, err
	}
	if item.Body != "" {
		s.snapshotVersion(ctx, item.ID, item.Body, actor)
	}
	s.invalidate(ctx, "content")
	s.record(ctx, store.ActivityLog{
		EntityType: "content", EntityID: item.ID, Action: "created",
		Actor: actor, Detail: item.Title, LinkPath: "/content/" + item.ID,
	})
	s.indexContent(item)
	return s.GetContent(ctx, item.ID)
}

func (s *Service) UpdateContent(ctx context.Context, contentID string, patch store.ContentPatch, actor string) (ContentWithSLA, error) {
	if err := s.store.UpdateContentItem(ctx, contentID, patch); err != nil {
		return ContentWithSLA{}, err
	}
	updated, err := s.store.GetContentItem(ctx, contentID)
	if err != nil {
		return ContentWithSLA{}, err
	}
	// Every body edit snapshots a version; metadata-only edits do not.
	if patch.Body != nil && strings.TrimSpace(*patch.Body) != "" {
		s.snapshotVersion(ctx, contentID, *patch.Body, actor)
	}
	s.invalidate(ctx, "content")
	s.record(ctx, store.ActivityLog{
		EntityType: "content", EntityID: contentID, Action: "updated",
		Actor: actor, Detail: updated.Title, LinkPath: "/content/" + contentID,
	})
	s.indexContent(updated)
	decorated, err := s.decorateSLA(ctx, []store.ContentItem{updated})
	if err != nil {
		return ContentWithSLA{}, err
	}
	return decorated[0], nil
}

func (s *Service) DeleteContent(ctx context.Context, contentID, actor string) error {
	existing, err := s.store.GetContentItem(ctx, contentID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteContentItem(ctx, contentID); err != nil {
		return err
	}
	s.invalidate(ctx, "content")
	s.record(ctx, store.ActivityLog{
		EntityType: "content", EntityID: contentID, Action: "deleted",
		Actor: actor, Detail: existing.Title,
	})
	if s.search != nil {
		s.search.DeleteContent(contentID)
	}
	return nil
}

func (s *Service) snapshotVersion(ctx context.Context, contentID, body, actor string) {
	versions, err := s.store.ListContentVersions(ctx, contentID)
	next := 1
	if err == nil {
		next = len(versions) + 1
	}
	if err := s.store.InsertContentVersion(ctx, store.ContentVersion{
		ID:        util.NewID("cvr"),
		ContentID: contentID,
		Version:   next,
		Body:      body,
		CreatedBy: actor,
	}); err != nil {
		log.Printf("app: snapshot version for %s: %v", contentID, err)
	}
}

func (s *Service) ListContentVersions(ctx context.Context, contentID string) ([]store.ContentVersion, error) {
	if _, err := s.store.GetContentItem(ctx, contentID); err != nil {
		return nil, err
	}
	return s.store.ListContentVersions(ctx, contentID)
}

func (s *Service) ListContentReviews(ctx context.Context, contentID string) ([]store.ContentReview, error) {
	if _, err := s.store.GetContentItem(ctx, contentID); err != nil {
		return nil, err
	}
	return s.store.ListContentReviews(ctx, contentID)
}

type QualityScoreInput struct {
	Score int    `json:"score"`
	Notes string `json:"notes"`
}

// UpsertQualityScore writes the 1:1 quality child keyed by the parent id.
// Repeated submissions overwrite; there is never more than one row per item.
func (s *Service) UpsertQualityScore(ctx context.Context, contentID string, input QualityScoreInput, actor string) (*store.QualityScore, error) {
	if input.Score < 1 || input.Score > 100 {
		return nil, domainError(http.StatusBadRequest, "VALIDATION", "score must be between 1 and 100", nil)
	}
	item, err := s.store.GetContentItem(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpsertQualityScore(ctx, store.QualityScore{
		ContentID: contentID,
		Score:     input.Score,
		Notes:     input.Notes,
	}); err != nil {
		return nil, err
	}
	s.invalidate(ctx, "content")
	s.record(ctx, store.ActivityLog{
		EntityType: "content", EntityID: contentID, Action: "scored",
		Actor: actor, Detail: item.Title, LinkPath: "/content/" + contentID,
	})
	return s.store.GetQualityScore(ctx, contentID)
}

func (s *Service) GetQualityScore(ctx context.Context, contentID string) (*store.QualityScore, error) {
	return s.store.GetQualityScore(ctx, contentID)
}

type PerformanceInput struct {
	Views      int     `json:"views"`
	Clicks     int     `json:"clicks"`
	Engagement float64 `json:"engagement"`
}

func (s *Service) UpsertContentPerformance(ctx context.Context, contentID string, input PerformanceInput, actor string) (*store.ContentPerformance, error) {
	if input.Views < 0 || input.Clicks < 0 || input.Engagement < 0 {
		return nil, domainError(http.StatusBadRequest, "VALIDATION", "performance metrics must not be negative", nil)
	}
	if _, err := s.store.GetContentItem(ctx, contentID); err != nil {
		return nil, err
	}
	if err := s.store.UpsertContentPerformance(ctx, store.ContentPerformance{
		ContentID:  contentID,
		Views:      input.Views,
		Clicks:     input.Clicks,
		Engagement: input.Engagement,
	}); err != nil {
		return nil, err
	}
	s.invalidate(ctx, "content")
	return s.store.GetContentPerformance(ctx, contentID)
}

func (s *Service) GetContentPerformance(ctx context.Context, contentID string) (*store.ContentPerformance, error) {
	return s.store.GetContentPerformance(ctx, contentID)
}

func (s *Service) ListContentRequests(ctx context.Context, clientID string) ([]store.ContentRequest, error) {
	return s.store.ListContentRequests(ctx, clientID)
}

func (s *Service) UpdateContentRequestStatus(ctx context.Context, requestID, status, actor string) error {
	switch status {
	case "new", "accepted", "in_progress", "done", "declined":
	default:
		return domainError(http.StatusBadRequest, "VALIDATION", "unknown request status", nil)
	}
	if err := s.store.UpdateContentRequestStatus(ctx, requestID, status); err != nil {
		return err
	}
	s.record(ctx, store.ActivityLog{
		EntityType: "content_request", EntityID: requestID, Action: status,
		Actor: actor,
	})
	return nil
}

func (s *Service) indexContent(c store.ContentItem) {
	if s.search == nil {
		return
	}
	clientID := ""
	if c.ClientID != nil {
		clientID = *c.ClientID
	}
	s.search.IndexContent(search.ContentRecord{
		ID:          c.ID,
		Title:       c.Title,
		ContentType: c.ContentType,
		ClientID:    clientID,
		Status:      c.Status,
	})
}
