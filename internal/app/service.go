// Package app wires the HTTP surface to the store and the derivation layer.
// All business rules that are not pure derivations live here.
package app

import (
	"context"
	"net/http"
	"time"

	"atelier/api/internal/activity"
	"atelier/api/internal/ai"
	"atelier/api/internal/auth"
	"atelier/api/internal/authpw"
	"atelier/api/internal/cache"
	"atelier/api/internal/config"
	"atelier/api/internal/email"
	"atelier/api/internal/export"
	"atelier/api/internal/portal"
	"atelier/api/internal/rbac"
	"atelier/api/internal/search"
	"atelier/api/internal/session"
	"atelier/api/internal/store"
	"atelier/api/internal/util"
)

// Session is what a successful sign-in or refresh hands back to the client.
type Session struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	Role         rbac.Role `json:"role"`
	JTI          string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// dataStore is everything the service needs from Postgres. *store.PostgresStore
// satisfies it; tests embed it in a fake and override what they touch.
type dataStore interface {
	Ping(ctx context.Context) error

	ListClients(ctx context.Context, filter store.ClientFilter) ([]store.Client, error)
	GetClient(ctx context.Context, clientID string) (store.Client, error)
	InsertClient(ctx context.Context, item store.Client) error
	UpdateClient(ctx context.Context, clientID string, patch store.ClientPatch) error
	UpdateClientStage(ctx context.Context, clientID, stage string) error
	DeleteClient(ctx context.Context, clientID string) error
	GenerateClientCode(ctx context.Context) (string, error)

	ListDeliverables(ctx context.Context, filter store.DeliverableFilter) ([]store.Deliverable, error)
	GetDeliverable(ctx context.Context, deliverableID string) (store.Deliverable, error)
	InsertDeliverable(ctx context.Context, item store.Deliverable) error
	UpdateDeliverable(ctx context.Context, deliverableID string, patch store.DeliverablePatch) error
	DeleteDeliverable(ctx context.Context, deliverableID string) error
	GenerateDeliverableCode(ctx context.Context) (string, error)

	ListInvoices(ctx context.Context, filter store.InvoiceFilter) ([]store.Invoice, error)
	GetInvoice(ctx context.Context, invoiceID string) (store.Invoice, error)
	InsertInvoice(ctx context.Context, item store.Invoice) error
	UpdateInvoice(ctx context.Context, invoiceID string, patch store.InvoicePatch) error
	DeleteInvoice(ctx context.Context, invoiceID string) error
	GenerateInvoiceCode(ctx context.Context) (string, error)

	ListTasks(ctx context.Context, filter store.TaskFilter) ([]store.Task, error)
	GetTask(ctx context.Context, taskID string) (store.Task, error)
	InsertTask(ctx context.Context, item store.Task) error
	UpdateTask(ctx context.Context, taskID string, patch store.TaskPatch) error
	DeleteTask(ctx context.Context, taskID string) error
	GenerateTaskCode(ctx context.Context) (string, error)

	ListContentItems(ctx context.Context, filter store.ContentFilter) ([]store.ContentItem, error)
	GetContentItem(ctx context.Context, contentID string) (store.ContentItem, error)
	InsertContentItem(ctx context.Context, item store.ContentItem) error
	UpdateContentItem(ctx context.Context, contentID string, patch store.ContentPatch) error
	DeleteContentItem(ctx context.Context, contentID string) error
	GetQualityScore(ctx context.Context, contentID string) (*store.QualityScore, error)
	UpsertQualityScore(ctx context.Context, item store.QualityScore) error
	GetContentPerformance(ctx context.Context, contentID string) (*store.ContentPerformance, error)
	UpsertContentPerformance(ctx context.Context, item store.ContentPerformance) error
	InsertContentVersion(ctx context.Context, item store.ContentVersion) error
	ListContentVersions(ctx context.Context, contentID string) ([]store.ContentVersion, error)
	InsertContentReview(ctx context.Context, item store.ContentReview) error
	ListContentReviews(ctx context.Context, contentID string) ([]store.ContentReview, error)
	InsertContentRequest(ctx context.Context, item store.ContentRequest) error
	ListContentRequests(ctx context.Context, clientID string) ([]store.ContentRequest, error)
	UpdateContentRequestStatus(ctx context.Context, requestID, status string) error

	ListProposals(ctx context.Context, filter store.ProposalFilter) ([]store.Proposal, error)
	GetProposal(ctx context.Context, proposalID string) (store.Proposal, error)
	InsertProposal(ctx context.Context, item store.Proposal) error
	UpdateProposal(ctx context.Context, proposalID string, patch store.ProposalPatch) error
	DeleteProposal(ctx context.Context, proposalID string) error

	ListRetainerTiers(ctx context.Context) ([]store.RetainerTier, error)
	InsertRetainerTier(ctx context.Context, item store.RetainerTier) error
	UpsertRetainerUsage(ctx context.Context, item store.RetainerUsage) error
	GetRetainerUsage(ctx context.Context, clientID, month string) (*store.RetainerUsage, error)
	ListSLADefinitions(ctx context.Context) ([]store.SLADefinition, error)
	UpsertSLADefinition(ctx context.Context, item store.SLADefinition) error

	ListTeamMembers(ctx context.Context) ([]store.TeamMember, error)
	InsertTeamMember(ctx context.Context, item store.TeamMember) error
	InsertTimeEntry(ctx context.Context, item store.TimeEntry) error
	ListTimeEntries(ctx context.Context, clientID string, limit int) ([]store.TimeEntry, error)
	GetWorkspaceSettings(ctx context.Context) (store.WorkspaceSettings, error)
	UpsertWorkspaceSettings(ctx context.Context, item store.WorkspaceSettings) error

	InsertNotification(ctx context.Context, item store.Notification) error
	ListNotifications(ctx context.Context, profileID string, unreadOnly bool, limit int) ([]store.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
	MarkAllNotificationsRead(ctx context.Context, profileID string) error

	InsertPortalAccess(ctx context.Context, item store.PortalAccess) error
	GetPortalAccessByTokenHash(ctx context.Context, tokenHash string) (*store.PortalAccess, error)
	GetActivePortalAccessByClient(ctx context.Context, clientID string) (*store.PortalAccess, error)
	GetPortalAccess(ctx context.Context, portalAccessID string) (*store.PortalAccess, error)
	TouchPortalAccess(ctx context.Context, portalAccessID string) error
	SetPortalAccessActive(ctx context.Context, portalAccessID string, active bool) error
	InsertPortalMessage(ctx context.Context, item store.PortalMessage) error
	ListPortalMessages(ctx context.Context, clientID string, limit int) ([]store.PortalMessage, error)
	InsertPortalFile(ctx context.Context, item store.PortalFile) error
	ListPortalFiles(ctx context.Context, clientID string) ([]store.PortalFile, error)

	GetProfileByEmail(ctx context.Context, email string) (store.Profile, error)
	GetProfileByID(ctx context.Context, profileID string) (store.Profile, error)
	CreateProfile(ctx context.Context, item store.Profile) error
	UpdateProfilePassword(ctx context.Context, profileID, passwordHash string) error
	ListProfiles(ctx context.Context) ([]store.Profile, error)
}

// refreshStore keeps refresh sessions by token hash. Redis when available,
// the refresh_sessions table otherwise; both expose the same three calls.
type refreshStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, profileID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.Profile, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// Options carries the optional collaborators. Anything left nil degrades to a
// 503 on its routes (or to a silent no-op for cache and activity).
type Options struct {
	Cache    *cache.Cache
	Sessions *session.Manager
	Relay    *email.Relay
	AI       *ai.Service
	Search   *search.Service
	Exporter *export.Service
	Activity *activity.Recorder
}

type Service struct {
	cfg      config.Config
	store    dataStore
	refresh  refreshStore
	accounts *authpw.Service
	portal   *portal.Service
	sessions *session.Manager
	cache    *cache.Cache
	relay    *email.Relay
	ai       *ai.Service
	search   *search.Service
	exporter *export.Service
	activity *activity.Recorder
}

func NewService(cfg config.Config, data dataStore, refresh refreshStore, opts Options) *Service {
	if refresh == nil {
		refresh = data.(refreshStore)
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = session.NewManager()
	}
	return &Service{
		cfg:      cfg,
		store:    data,
		refresh:  refresh,
		accounts: authpw.NewService(data),
		portal:   portal.NewService(data),
		sessions: sessions,
		cache:    opts.Cache,
		relay:    opts.Relay,
		ai:       opts.AI,
		search:   opts.Search,
		exporter: opts.Exporter,
		activity: opts.Activity,
	}
}

func (s *Service) Can(role rbac.Role, action rbac.Action) bool {
	return rbac.Can(role, action)
}

func (s *Service) SignUp(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	profile, err := s.accounts.SignUp(ctx, req)
	if err != nil {
		return Session{}, domainError(http.StatusBadRequest, "SIGNUP_FAILED", err.Error(), nil)
	}
	return s.issueSession(ctx, profile, session.EventSignedIn)
}

func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (Session, error) {
	profile, err := s.accounts.SignIn(ctx, emailAddr, password)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error(), nil)
	}
	return s.issueSession(ctx, profile, session.EventSignedIn)
}

// RefreshSession rotates the refresh token: the presented token is revoked
// before its replacement is issued, so each refresh token works exactly once.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	hash := auth.HashToken(refreshToken)
	profile, err := s.refresh.LookupRefreshSession(ctx, hash)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_REFRESH", "refresh token is not valid", nil)
	}
	// The Redis backend stores only the profile id; re-fetch for current role.
	if profile.DisplayName == "" {
		profile, err = s.store.GetProfileByID(ctx, profile.ID)
		if err != nil {
			return Session{}, domainError(http.StatusUnauthorized, "INVALID_REFRESH", "refresh token is not valid", nil)
		}
	}
	if profile.DeactivatedAt != nil {
		return Session{}, domainError(http.StatusUnauthorized, "ACCOUNT_DEACTIVATED", "account is deactivated", nil)
	}
	if err := s.refresh.RevokeRefreshSession(ctx, hash); err != nil {
		return Session{}, domainError(http.StatusInternalServerError, "SERVER_ERROR", "could not rotate session", nil)
	}
	return s.issueSession(ctx, profile, session.EventRefreshed)
}

// SessionFromToken validates a bearer token. The session manager is
// authoritative for live sessions; a valid token unknown to the manager
// (a restart, typically) is re-admitted from the profile row.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	if live, ok := s.sessions.CurrentSession(claims.JTI); ok {
		return Session{
			Token:     token,
			UserID:    live.ProfileID,
			UserName:  live.Name,
			Role:      rbac.Normalize(live.Role),
			JTI:       live.JTI,
			ExpiresAt: live.ExpiresAt,
		}, nil
	}
	profile, err := s.store.GetProfileByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	if profile.DeactivatedAt != nil {
		return Session{}, auth.ErrInvalidToken
	}
	expiresAt := time.Unix(claims.Exp, 0)
	s.sessions.Begin(session.Session{
		ProfileID: profile.ID,
		Name:      profile.DisplayName,
		Role:      profile.Role,
		JTI:       claims.JTI,
		ExpiresAt: expiresAt,
	})
	return Session{
		Token:     token,
		UserID:    profile.ID,
		UserName:  profile.DisplayName,
		Role:      rbac.Normalize(profile.Role),
		JTI:       claims.JTI,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) Logout(ctx context.Context, token, refreshToken string) {
	if claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token); err == nil {
		s.sessions.End(claims.JTI)
	}
	if refreshToken != "" {
		_ = s.refresh.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
}

func (s *Service) ChangePassword(ctx context.Context, profileID, current, next string) error {
	if err := s.accounts.ChangePassword(ctx, profileID, current, next); err != nil {
		return domainError(http.StatusBadRequest, "PASSWORD_CHANGE_FAILED", err.Error(), nil)
	}
	return nil
}

func (s *Service) issueSession(ctx context.Context, profile store.Profile, kind session.EventKind) (Session, error) {
	jti := util.NewID("jti")
	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	role := rbac.Normalize(profile.Role)

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  profile.ID,
		Name: profile.DisplayName,
		Role: string(role),
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, domainError(http.StatusInternalServerError, "SERVER_ERROR", "could not issue token", nil)
	}

	refreshToken := util.NewID("rft") + util.NewID("")
	refreshExpires := time.Now().Add(s.cfg.RefreshTTL)
	if err := s.refresh.SaveRefreshSession(ctx, auth.HashToken(refreshToken), profile.ID, refreshExpires); err != nil {
		return Session{}, domainError(http.StatusInternalServerError, "SERVER_ERROR", "could not persist session", nil)
	}

	sess := session.Session{
		ProfileID: profile.ID,
		Name:      profile.DisplayName,
		Role:      string(role),
		JTI:       jti,
		ExpiresAt: expiresAt,
	}
	if kind == session.EventRefreshed {
		s.sessions.Refresh("", sess)
	} else {
		s.sessions.Begin(sess)
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       profile.ID,
		UserName:     profile.DisplayName,
		Role:         role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// record forwards to the activity recorder when one is wired.
func (s *Service) record(ctx context.Context, item store.ActivityLog) {
	if s.activity == nil {
		return
	}
	s.activity.Record(ctx, item)
}
