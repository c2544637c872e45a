package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"atelier/api/internal/config"
	"atelier/api/internal/store"
)

// fakeStore implements the slice of dataStore the tests exercise. The
// embedded interface panics on anything a test forgot to stub, which is the
// point.
type fakeStore struct {
	dataStore

	mu           sync.Mutex
	profiles     map[string]store.Profile
	clients      map[string]store.Client
	deliverables map[string]store.Deliverable
	invoices     map[string]store.Invoice
	tasks        map[string]store.Task
	content      map[string]store.ContentItem
	portalAccess map[string]store.PortalAccess
	messages     []store.PortalMessage
	requests     []store.ContentRequest
	reviews      []store.ContentReview
	notices      []store.Notification

	stageCalls int
	clientSeq  int
	dlvSeq     int
	taskSeq    int
	pingErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:     make(map[string]store.Profile),
		clients:      make(map[string]store.Client),
		deliverables: make(map[string]store.Deliverable),
		invoices:     make(map[string]store.Invoice),
		tasks:        make(map[string]store.Task),
		content:      make(map[string]store.ContentItem),
		portalAccess: make(map[string]store.PortalAccess),
	}
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) GetProfileByEmail(_ context.Context, email string) (store.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return store.Profile{}, sql.ErrNoRows
}

func (f *fakeStore) GetProfileByID(_ context.Context, id string) (store.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return store.Profile{}, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeStore) CreateProfile(_ context.Context, p store.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.CreatedAt = time.Now()
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateProfilePassword(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.PasswordHash = hash
	f.profiles[id] = p
	return nil
}

func (f *fakeStore) ListProfiles(context.Context) ([]store.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GenerateClientCode(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clientSeq++
	return fmt.Sprintf("CLT-%04d", f.clientSeq), nil
}

func (f *fakeStore) ListClients(_ context.Context, filter store.ClientFilter) ([]store.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Client{}
	for _, c := range f.clients {
		if filter.Status != "" && filter.Status != store.FilterAll && c.Status != filter.Status {
			continue
		}
		if filter.Market != "" && filter.Market != store.FilterAll && c.Market != filter.Market {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) GetClient(_ context.Context, id string) (store.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return store.Client{}, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) InsertClient(_ context.Context, item store.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	f.clients[item.ID] = item
	return nil
}

func (f *fakeStore) UpdateClient(_ context.Context, id string, patch store.ClientPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	c.UpdatedAt = time.Now()
	f.clients[id] = c
	return nil
}

func (f *fakeStore) UpdateClientStage(_ context.Context, id, stage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return sql.ErrNoRows
	}
	f.stageCalls++
	c.PipelineStage = stage
	f.clients[id] = c
	return nil
}

func (f *fakeStore) DeleteClient(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.clients, id)
	return nil
}

func (f *fakeStore) GenerateDeliverableCode(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dlvSeq++
	return fmt.Sprintf("DLV-%04d", f.dlvSeq), nil
}

func (f *fakeStore) ListDeliverables(_ context.Context, filter store.DeliverableFilter) ([]store.Deliverable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Deliverable{}
	for _, d := range f.deliverables {
		if filter.ClientID != "" && filter.ClientID != store.FilterAll && d.ClientID != filter.ClientID {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) GetDeliverable(_ context.Context, id string) (store.Deliverable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.deliverables[id]
	if !ok {
		return store.Deliverable{}, sql.ErrNoRows
	}
	return d, nil
}

func (f *fakeStore) InsertDeliverable(_ context.Context, item store.Deliverable) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	f.deliverables[item.ID] = item
	return nil
}

func (f *fakeStore) UpdateDeliverable(_ context.Context, id string, patch store.DeliverablePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.deliverables[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.Name != nil {
		d.Name = *patch.Name
	}
	if patch.Status != nil {
		d.Status = *patch.Status
	}
	if patch.ClientApproved != nil {
		d.ClientApproved = *patch.ClientApproved
	}
	d.UpdatedAt = time.Now()
	f.deliverables[id] = d
	return nil
}

func (f *fakeStore) ListInvoices(_ context.Context, filter store.InvoiceFilter) ([]store.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Invoice{}
	for _, inv := range f.invoices {
		if filter.ClientID != "" && filter.ClientID != store.FilterAll && inv.ClientID != filter.ClientID {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (f *fakeStore) GenerateTaskCode(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taskSeq++
	return fmt.Sprintf("TSK-%04d", f.taskSeq), nil
}

func (f *fakeStore) ListTasks(_ context.Context, filter store.TaskFilter) ([]store.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Task{}
	for _, t := range f.tasks {
		if filter.ClientID != "" && filter.ClientID != store.FilterAll {
			if t.ClientID == nil || *t.ClientID != filter.ClientID {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) GetTask(_ context.Context, id string) (store.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return store.Task{}, sql.ErrNoRows
	}
	return t, nil
}

func (f *fakeStore) InsertTask(_ context.Context, item store.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	f.tasks[item.ID] = item
	return nil
}

func (f *fakeStore) ListContentItems(_ context.Context, filter store.ContentFilter) ([]store.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.ContentItem{}
	for _, c := range f.content {
		if filter.ClientID != "" && filter.ClientID != store.FilterAll {
			if c.ClientID == nil || *c.ClientID != filter.ClientID {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) GetContentItem(_ context.Context, id string) (store.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.content[id]
	if !ok {
		return store.ContentItem{}, sql.ErrNoRows
	}
	return c, nil
}

func (f *fakeStore) UpdateContentItem(_ context.Context, id string, patch store.ContentPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.content[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	c.UpdatedAt = time.Now()
	f.content[id] = c
	return nil
}

func (f *fakeStore) InsertContentReview(_ context.Context, item store.ContentReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.CreatedAt = time.Now()
	f.reviews = append(f.reviews, item)
	return nil
}

func (f *fakeStore) ListContentReviews(_ context.Context, contentID string) ([]store.ContentReview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.ContentReview{}
	for _, rv := range f.reviews {
		if rv.ContentID == contentID {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSLADefinitions(context.Context) ([]store.SLADefinition, error) {
	return nil, nil
}

func (f *fakeStore) InsertPortalAccess(_ context.Context, item store.PortalAccess) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.CreatedAt = time.Now()
	f.portalAccess[item.ID] = item
	return nil
}

func (f *fakeStore) GetPortalAccessByTokenHash(_ context.Context, hash string) (*store.PortalAccess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.portalAccess {
		if a.TokenHash == hash && a.Active {
			copied := a
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetActivePortalAccessByClient(_ context.Context, clientID string) (*store.PortalAccess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.portalAccess {
		if a.ClientID == clientID && a.Active {
			copied := a
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetPortalAccess(_ context.Context, id string) (*store.PortalAccess, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.portalAccess[id]
	if !ok {
		return nil, nil
	}
	copied := a
	return &copied, nil
}

func (f *fakeStore) TouchPortalAccess(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.portalAccess[id]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now()
	a.LastUsedAt = &now
	f.portalAccess[id] = a
	return nil
}

func (f *fakeStore) SetPortalAccessActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.portalAccess[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Active = active
	f.portalAccess[id] = a
	return nil
}

func (f *fakeStore) InsertPortalMessage(_ context.Context, item store.PortalMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.CreatedAt = time.Now()
	f.messages = append(f.messages, item)
	return nil
}

func (f *fakeStore) ListPortalMessages(_ context.Context, clientID string, limit int) ([]store.PortalMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.PortalMessage{}
	for _, m := range f.messages {
		if m.ClientID == clientID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPortalFiles(_ context.Context, clientID string) ([]store.PortalFile, error) {
	return []store.PortalFile{}, nil
}

func (f *fakeStore) InsertContentRequest(_ context.Context, item store.ContentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.CreatedAt = time.Now()
	f.requests = append(f.requests, item)
	return nil
}

func (f *fakeStore) ListContentRequests(_ context.Context, clientID string) ([]store.ContentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.ContentRequest{}
	for _, rq := range f.requests {
		if rq.ClientID == clientID {
			out = append(out, rq)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertNotification(_ context.Context, item store.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, item)
	return nil
}

// fakeRefresh is an in-memory refresh session store.
type fakeRefresh struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newFakeRefresh() *fakeRefresh {
	return &fakeRefresh{sessions: make(map[string]string)}
}

func (f *fakeRefresh) SaveRefreshSession(_ context.Context, tokenHash, profileID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[tokenHash] = profileID
	return nil
}

func (f *fakeRefresh) LookupRefreshSession(_ context.Context, tokenHash string) (store.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.sessions[tokenHash]
	if !ok {
		return store.Profile{}, sql.ErrNoRows
	}
	return store.Profile{ID: id}, nil
}

func (f *fakeRefresh) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, tokenHash)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		Addr:       ":0",
		JWTSecret:  "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		CORSOrigin: "*",
	}
}

func newTestService(fs *fakeStore) *Service {
	return NewService(testConfig(), fs, newFakeRefresh(), Options{})
}
