package store

import "time"

type Client struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	Market        string     `json:"market"`
	Industry      string     `json:"industry,omitempty"`
	PlanTier      string     `json:"planTier"`
	Status        string     `json:"status"`
	MonthlyValue  float64    `json:"monthlyValue"`
	ContractStart *time.Time `json:"contractStart,omitempty"`
	ContractEnd   *time.Time `json:"contractEnd,omitempty"`
	PipelineStage string     `json:"pipelineStage"`
	ContactName   string     `json:"contactName,omitempty"`
	ContactEmail  string     `json:"contactEmail,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type Deliverable struct {
	ID             string     `json:"id"`
	Code           string     `json:"code"`
	ClientID       string     `json:"clientId"`
	Name           string     `json:"name"`
	ServiceType    string     `json:"serviceType,omitempty"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	DeliveryDate   *time.Time `json:"deliveryDate,omitempty"`
	ClientApproved bool       `json:"clientApproved"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type Invoice struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	ClientID    string     `json:"clientId"`
	Month       string     `json:"month"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	PaymentDate *time.Time `json:"paymentDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Task struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	ClientID      *string    `json:"clientId,omitempty"`
	DeliverableID *string    `json:"deliverableId,omitempty"`
	Name          string     `json:"name"`
	Assignee      string     `json:"assignee,omitempty"`
	Category      string     `json:"category,omitempty"`
	Status        string     `json:"status"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type ContentItem struct {
	ID          string    `json:"id"`
	ClientID    *string   `json:"clientId,omitempty"`
	Title       string    `json:"title"`
	ContentType string    `json:"contentType"`
	Platform    string    `json:"platform,omitempty"`
	Status      string    `json:"status"`
	Body        string    `json:"body,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// QualityScore and ContentPerformance are optional 1:1 children of a content
// item, upserted by parent id rather than folded into the parent row.
type QualityScore struct {
	ContentID string    `json:"contentId"`
	Score     int       `json:"score"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ContentPerformance struct {
	ContentID  string    `json:"contentId"`
	Views      int       `json:"views"`
	Clicks     int       `json:"clicks"`
	Engagement float64   `json:"engagement"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type ContentVersion struct {
	ID        string    `json:"id"`
	ContentID string    `json:"contentId"`
	Version   int       `json:"version"`
	Body      string    `json:"body"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// ContentReview is an append-only sign-off decision from the client portal.
type ContentReview struct {
	ID        string    `json:"id"`
	ContentID string    `json:"contentId"`
	Decision  string    `json:"decision"`
	Note      string    `json:"note,omitempty"`
	Reviewer  string    `json:"reviewer"`
	CreatedAt time.Time `json:"createdAt"`
}

type ContentRequest struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	RequestType string    `json:"requestType"`
	Brief       string    `json:"brief"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ActivityLog struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	Detail     string    `json:"detail,omitempty"`
	LinkPath   string    `json:"linkPath,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Notification struct {
	ID         string    `json:"id"`
	ProfileID  string    `json:"profileId"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	LinkPath   string    `json:"linkPath,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

type PortalAccess struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"clientId"`
	TokenHash    string     `json:"-"`
	ContactName  string     `json:"contactName"`
	ContactEmail string     `json:"contactEmail"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastUsedAt   *time.Time `json:"lastUsedAt,omitempty"`
}

// PortalMessage.Sender is the side of the conversation ("client" or "team");
// SenderName is the display name of whoever wrote it.
type PortalMessage struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"clientId"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"senderName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PortalFile rows carry metadata only; the object bytes live elsewhere.
type PortalFile struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"clientId"`
	FileName   string    `json:"fileName"`
	FileType   string    `json:"fileType,omitempty"`
	SizeBytes  int64     `json:"sizeBytes"`
	StorageKey string    `json:"storageKey,omitempty"`
	UploadedBy string    `json:"uploadedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Proposal struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"clientId"`
	Title     string     `json:"title"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	Status    string     `json:"status"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type RetainerTier struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	MonthlyBlogs     int     `json:"monthlyBlogs"`
	MonthlyPages     int     `json:"monthlyPages"`
	MonthlyCampaigns int     `json:"monthlyCampaigns"`
	PriceMonthly     float64 `json:"priceMonthly"`
}

type RetainerUsage struct {
	ID            string `json:"id"`
	ClientID      string `json:"clientId"`
	Month         string `json:"month"`
	BlogsUsed     int    `json:"blogsUsed"`
	PagesUsed     int    `json:"pagesUsed"`
	CampaignsUsed int    `json:"campaignsUsed"`
}

type SLADefinition struct {
	ContentType string `json:"contentType"`
	TotalDays   int    `json:"totalDays"`
}

type TeamMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type TimeEntry struct {
	ID           string    `json:"id"`
	TeamMemberID string    `json:"teamMemberId"`
	ClientID     *string   `json:"clientId,omitempty"`
	TaskID       *string   `json:"taskId,omitempty"`
	Hours        float64   `json:"hours"`
	Note         string    `json:"note,omitempty"`
	EntryDate    time.Time `json:"entryDate"`
	CreatedAt    time.Time `json:"createdAt"`
}

type WorkspaceSettings struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DefaultCurrency string    `json:"defaultCurrency"`
	Timezone        string    `json:"timezone"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Profile struct {
	ID            string     `json:"id"`
	DisplayName   string     `json:"displayName"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	DeactivatedAt *time.Time `json:"deactivatedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
