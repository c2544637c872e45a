package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"atelier/api/internal/portal"
	"atelier/api/internal/store"
	"atelier/api/internal/util"
)

// IssuePortalAccess mints a portal token for a client contact. The raw token
// is returned exactly once; only its hash is stored.
func (s *Service) IssuePortalAccess(ctx context.Context, clientID, contactName, contactEmail, actor string) (string, error) {
	if strings.TrimSpace(contactName) == "" || strings.TrimSpace(contactEmail) == "" {
		return "", domainError(http.StatusBadRequest, "VALIDATION", "contactName and contactEmail are required", nil)
	}
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return "", err
	}
	// One active contact per client: a fresh token supersedes the old one.
	if existing, err := s.store.GetActivePortalAccessByClient(ctx, clientID); err == nil && existing != nil {
		if err := s.portal.Revoke(ctx, existing.ID); err != nil {
			return "", err
		}
	}
	token, err := s.portal.Issue(ctx, clientID, strings.TrimSpace(contactName), strings.TrimSpace(contactEmail))
	if err != nil {
		return "", err
	}
	s.invalidate(ctx, "portal")
	s.record(ctx, store.ActivityLog{
		EntityType: "portal", EntityID: clientID, Action: "access_issued",
		Actor: actor, Detail: client.Name, LinkPath: "/clients/" + clientID,
	})
	return token, nil
}

func (s *Service) RevokePortalAccess(ctx context.Context, portalAccessID, actor string) error {
	access, err := s.store.GetPortalAccess(ctx, portalAccessID)
	if err != nil {
		return err
	}
	if access == nil {
		return domainError(http.StatusNotFound, "NOT_FOUND", "portal access not found", nil)
	}
	if err := s.portal.Revoke(ctx, portalAccessID); err != nil {
		return err
	}
	s.invalidate(ctx, "portal")
	s.record(ctx, store.ActivityLog{
		EntityType: "portal", EntityID: access.ClientID, Action: "access_revoked",
		Actor: actor, Detail: access.ContactName,
	})
	return nil
}

func (s *Service) GetPortalAccessForClient(ctx context.Context, clientID string) (*store.PortalAccess, error) {
	return s.store.GetActivePortalAccessByClient(ctx, clientID)
}

// ResolvePortalToken authenticates a portal bearer token.
func (s *Service) ResolvePortalToken(ctx context.Context, token string) (store.PortalAccess, error) {
	access, err := s.portal.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, portal.ErrInvalidPortalToken) {
			return store.PortalAccess{}, domainError(http.StatusUnauthorized, "INVALID_PORTAL_TOKEN", "portal token is not valid", nil)
		}
		return store.PortalAccess{}, err
	}
	return access, nil
}

// PortalOverview is everything a portal visitor sees: their own client record
// and the work, billing, and conversation attached to it.
type PortalOverview struct {
	Client       store.Client           `json:"client"`
	ContactName  string                 `json:"contactName"`
	Deliverables []store.Deliverable    `json:"deliverables"`
	Invoices     []store.Invoice        `json:"invoices"`
	Content      []ContentWithSLA       `json:"content"`
	Messages     []store.PortalMessage  `json:"messages"`
	Files        []store.PortalFile     `json:"files"`
	Requests     []store.ContentRequest `json:"requests"`
}

func (s *Service) PortalOverview(ctx context.Context, access store.PortalAccess) (PortalOverview, error) {
	client, err := s.store.GetClient(ctx, access.ClientID)
	if err != nil {
		return PortalOverview{}, err
	}
	deliverables, err := s.store.ListDeliverables(ctx, store.DeliverableFilter{ClientID: access.ClientID})
	if err != nil {
		return PortalOverview{}, err
	}
	invoices, err := s.store.ListInvoices(ctx, store.InvoiceFilter{ClientID: access.ClientID})
	if err != nil {
		return PortalOverview{}, err
	}
	content, err := s.store.ListContentItems(ctx, store.ContentFilter{ClientID: access.ClientID})
	if err != nil {
		return PortalOverview{}, err
	}
	decorated, err := s.decorateSLA(ctx, content)
	if err != nil {
		return PortalOverview{}, err
	}
	messages, err := s.store.ListPortalMessages(ctx, access.ClientID, 100)
	if err != nil {
		return PortalOverview{}, err
	}
	files, err := s.store.ListPortalFiles(ctx, access.ClientID)
	if err != nil {
		return PortalOverview{}, err
	}
	requests, err := s.store.ListContentRequests(ctx, access.ClientID)
	if err != nil {
		return PortalOverview{}, err
	}
	return PortalOverview{
		Client:       client,
		ContactName:  access.ContactName,
		Deliverables: deliverables,
		Invoices:     invoices,
		Content:      decorated,
		Messages:     messages,
		Files:        files,
		Requests:     requests,
	}, nil
}

// PostPortalMessage writes a message on behalf of the portal contact and
// notifies every staff profile.
func (s *Service) PostPortalMessage(ctx context.Context, access store.PortalAccess, body string) (store.PortalMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return store.PortalMessage{}, domainError(http.StatusBadRequest, "VALIDATION", "message body is required", nil)
	}
	item := store.PortalMessage{
		ID:         util.NewID("pm"),
		ClientID:   access.ClientID,
		Sender:     "client",
		SenderName: access.ContactName,
		Body:       body,
	}
	if err := s.store.InsertPortalMessage(ctx, item); err != nil {
		return store.PortalMessage{}, err
	}
	s.invalidate(ctx, "portal")
	s.notifyStaff(ctx, store.Notification{
		EntityType: "portal_message",
		EntityID:   item.ID,
		Title:      "New portal message from " + access.ContactName,
		Body:       body,
		LinkPath:   "/clients/" + access.ClientID,
	})
	return item, nil
}

// PostStaffMessage writes a staff reply into a client's portal thread.
func (s *Service) PostStaffMessage(ctx context.Context, clientID, body, actor string) (store.PortalMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return store.PortalMessage{}, domainError(http.StatusBadRequest, "VALIDATION", "message body is required", nil)
	}
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return store.PortalMessage{}, err
	}
	item := store.PortalMessage{
		ID:         util.NewID("pm"),
		ClientID:   clientID,
		Sender:     "team",
		SenderName: actor,
		Body:       body,
	}
	if err := s.store.InsertPortalMessage(ctx, item); err != nil {
		return store.PortalMessage{}, err
	}
	s.invalidate(ctx, "portal")
	return item, nil
}

func (s *Service) ListPortalMessages(ctx context.Context, clientID string, limit int) ([]store.PortalMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.store.ListPortalMessages(ctx, clientID, limit)
}

type PortalFileInput struct {
	FileName   string `json:"fileName"`
	FileType   string `json:"fileType"`
	SizeBytes  int64  `json:"sizeBytes"`
	StorageKey string `json:"storageKey"`
}

func (s *Service) AddPortalFile(ctx context.Context, clientID string, input PortalFileInput, actor string) (store.PortalFile, error) {
	if strings.TrimSpace(input.FileName) == "" {
		return store.PortalFile{}, domainError(http.StatusBadRequest, "VALIDATION", "fileName is required", nil)
	}
	if _, err := s.store.GetClient(ctx, clientID); err != nil {
		return store.PortalFile{}, err
	}
	item := store.PortalFile{
		ID:         util.NewID("pf"),
		ClientID:   clientID,
		FileName:   strings.TrimSpace(input.FileName),
		FileType:   input.FileType,
		SizeBytes:  input.SizeBytes,
		StorageKey: input.StorageKey,
		UploadedBy: actor,
	}
	if err := s.store.InsertPortalFile(ctx, item); err != nil {
		return store.PortalFile{}, err
	}
	s.invalidate(ctx, "portal")
	return item, nil
}

func (s *Service) ListPortalFiles(ctx context.Context, clientID string) ([]store.PortalFile, error) {
	return s.store.ListPortalFiles(ctx, clientID)
}

// PortalCreateContentRequest files a work request from the portal.
func (s *Service) PortalCreateContentRequest(ctx context.Context, access store.PortalAccess, requestType, brief string) (store.ContentRequest, error) {
	if strings.TrimSpace(requestType) == "" {
		return store.ContentRequest{}, domainError(http.StatusBadRequest, "VALIDATION", "requestType is required", nil)
	}
	item := store.ContentRequest{
		ID:          util.NewID("crq"),
		ClientID:    access.ClientID,
		RequestType: strings.TrimSpace(requestType),
		Brief:       strings.TrimSpace(brief),
		Status:      "new",
	}
	if err := s.store.InsertContentRequest(ctx, item); err != nil {
		return store.ContentRequest{}, err
	}
	s.notifyStaff(ctx, store.Notification{
		EntityType: "content_request",
		EntityID:   item.ID,
		Title:      "New content request from " + access.ContactName,
		Body:       item.RequestType + ": " + item.Brief,
		LinkPath:   "/clients/" + access.ClientID,
	})
	return item, nil
}

// PortalReviewContent records the contact's sign-off decision on a content
// item. Approving moves the item to Approved; rejecting sends it back to
// Draft. The decision itself is append-only history.
func (s *Service) PortalReviewContent(ctx context.Context, access store.PortalAccess, contentID, decision, note string) (store.ContentItem, error) {
	if decision != "approve" && decision != "reject" {
		return store.ContentItem{}, domainError(http.StatusBadRequest, "VALIDATION", "decision must be approve or reject", nil)
	}
	item, err := s.store.GetContentItem(ctx, contentID)
	if err != nil {
		return store.ContentItem{}, err
	}
	if item.ClientID == nil || *item.ClientID != access.ClientID {
		return store.ContentItem{}, domainError(http.StatusNotFound, "NOT_FOUND", "content not found", nil)
	}
	status, verb := "Approved", "approved"
	if decision == "reject" {
		status, verb = "Draft", "rejected"
	}
	if err := s.store.UpdateContentItem(ctx, contentID, store.ContentPatch{Status: &status}); err != nil {
		return store.ContentItem{}, err
	}
	if err := s.store.InsertContentReview(ctx, store.ContentReview{
		ID:        util.NewID("crv"),
		ContentID: contentID,
		Decision:  decision,
		Note:      strings.TrimSpace(note),
		Reviewer:  access.ContactName,
	}); err != nil {
		return store.ContentItem{}, err
	}
	s.invalidate(ctx, "content")
	s.record(ctx, store.ActivityLog{
		EntityType: "content", EntityID: contentID, Action: "client_" + verb,
		Actor: access.ContactName, Detail: item.Title, LinkPath: "/content/" + contentID,
	})
	s.notifyStaff(ctx, store.Notification{
		EntityType: "content",
		EntityID:   contentID,
		Title:      access.ContactName + " " + verb + " " + item.Title,
		Body:       strings.TrimSpace(note),
		LinkPath:   "/content/" + contentID,
	})
	return s.store.GetContentItem(ctx, contentID)
}

// PortalApproveDeliverable lets the contact sign off work that belongs to
// their client. Anything outside their client reads as not found.
func (s *Service) PortalApproveDeliverable(ctx context.Context, access store.PortalAccess, deliverableID string) (store.Deliverable, error) {
	deliverable, err := s.store.GetDeliverable(ctx, deliverableID)
	if err != nil {
		return store.Deliverable{}, err
	}
	if deliverable.ClientID != access.ClientID {
		return store.Deliverable{}, domainError(http.StatusNotFound, "NOT_FOUND", "deliverable not found", nil)
	}
	approved := true
	if err := s.store.UpdateDeliverable(ctx, deliverableID, store.DeliverablePatch{ClientApproved: &approved}); err != nil {
		return store.Deliverable{}, err
	}
	s.invalidate(ctx, "deliverables")
	s.record(ctx, store.ActivityLog{
		EntityType: "deliverable", EntityID: deliverableID, Action: "client_approved",
		Actor: access.ContactName, Detail: deliverable.Name, LinkPath: "/deliverables/" + deliverableID,
	})
	s.notifyStaff(ctx, store.Notification{
		EntityType: "deliverable",
		EntityID:   deliverableID,
		Title:      access.ContactName + " approved " + deliverable.Name,
		LinkPath:   "/deliverables/" + deliverableID,
	})
	return s.store.GetDeliverable(ctx, deliverableID)
}

// notifyStaff fans one notification out to every profile. Failures are
// logged; notifications never fail the triggering operation.
func (s *Service) notifyStaff(ctx context.Context, template store.Notification) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		log.Printf("app: notify staff: %v", err)
		return
	}
	for _, p := range profiles {
		if p.DeactivatedAt != nil {
			continue
		}
		item := template
		item.ID = util.NewID("ntf")
		item.ProfileID = p.ID
		if err := s.store.InsertNotification(ctx, item); err != nil {
			log.Printf("app: notify %s: %v", p.ID, err)
		}
	}
	s.invalidate(ctx, "notifications")
}
