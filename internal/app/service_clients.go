package app

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"atelier/api/internal/cache"
	"atelier/api/internal/derive"
	"atelier/api/internal/pipeline"
	"atelier/api/internal/search"
	"atelier/api/internal/store"
	"atelier/api/internal/util"
)

// listCached reads a list query through the cache. A cache read error is a
// miss; a cache write error is logged and swallowed.
func listCached[T any](ctx context.Context, s *Service, entity, filterKey string, load func() ([]T, error)) ([]T, error) {
	key := cache.Key(entity, filterKey)
	if s.cache != nil {
		var items []T
		if hit, err := s.cache.Get(ctx, key, &items); err == nil && hit {
			return items, nil
		}
	}
	items, err := load()
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, items); err != nil {
			log.Printf("app: cache set %s: %v", key, err)
		}
	}
	return items, nil
}

type ClientInput struct {
	Name          string  `json:"name"`
	Market        string  `json:"market"`
	Industry      string  `json:"industry"`
	PlanTier      string  `json:"planTier"`
	Status        string  `json:"status"`
	MonthlyValue  float64 `json:"monthlyValue"`
	ContractStart string  `json:"contractStart"`
	ContractEnd   string  `json:"contractEnd"`
	PipelineStage string  `json:"pipelineStage"`
	ContactName   string  `json:"contactName"`
	ContactEmail  string  `json:"contactEmail"`
}

func (s *Service) ListClients(ctx context.Context, filter store.ClientFilter) ([]store.Client, error) {
	return listCached(ctx, s, "clients", filter.Key(), func() ([]store.Client, error) {
		return s.store.ListClients(ctx, filter)
	})
}

func (s *Service) GetClient(ctx context.Context, clientID string) (store.Client, error) {
	return s.store.GetClient(ctx, clientID)
}

func (s *Service) CreateClient(ctx context.Context, input ClientInput, actor string) (store.Client, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Client{}, domainError(http.StatusBadRequest, "VALIDATION", "name is required", nil)
	}
	stage := pipeline.StageLead
	if input.PipelineStage != "" {
		normalized, err := pipeline.Normalize(input.PipelineStage)
		if err != nil {
			return store.Client{}, domainError(http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		}
		stage = normalized
	}
	code, err := s.store.GenerateClientCode(ctx)
	if err != nil {
		return store.Client{}, err
	}

	item := store.Client{
		ID:            util.NewID("cli"),
		Code:          code,
		Name:          name,
		Market:        strings.TrimSpace(input.Market),
		Industry:      strings.TrimSpace(input.Industry),
		PlanTier:      defaultString(input.PlanTier, "Starter"),
		Status:        defaultString(input.Status, "Active"),
		MonthlyValue:  input.MonthlyValue,
		ContractStart: parseDate(input.ContractStart),
		ContractEnd:   parseDate(input.ContractEnd),
		PipelineStage: string(stage),
		ContactName:   strings.TrimSpace(input.ContactName),
		ContactEmail:  strings.TrimSpace(input.ContactEmail),
	}
	if err := s.store.InsertClient(ctx, item); err != nil {
		return store.Client{}, err
	}

	s.invalidate(ctx, "clients")
	s.record(ctx, store.ActivityLog{
		EntityType: "client", EntityID: item.ID, Action: "created",
		Actor: actor, Detail: item.Name, LinkPath: "/clients/" + item.ID,
	})
	s.indexClient(item)
	return s.store.GetClient(ctx, item.ID)
}

func (s *Service) UpdateClient(ctx context.Context, clientID string, patch store.ClientPatch, actor string) (store.Client, error) {
	if err := s.store.UpdateClient(ctx, clientID, patch); err != nil {
		return store.Client{}, err
	}
	updated, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return store.Client{}, err
	}
	s.invalidate(ctx, "clients")
	s.record(ctx, store.ActivityLog{
		EntityType: "client", EntityID: clientID, Action: "updated",
		Actor: actor, Detail: updated.Name, LinkPath: "/clients/" + clientID,
	})
	s.indexClient(updated)
	return updated, nil
}

func (s *Service) DeleteClient(ctx context.Context, clientID, actor string) error {
	existing, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteClient(ctx, clientID); err != nil {
		return err
	}
	s.invalidate(ctx, "clients")
	s.record(ctx, store.ActivityLog{
		EntityType: "client", EntityID: clientID, Action: "deleted",
		Actor: actor, Detail: existing.Name,
	})
	if s.search != nil {
		s.search.DeleteClient(clientID)
	}
	return nil
}

// MoveClientStage resolves a board drag gesture. A gesture that landed
// nowhere returns the client untouched without a store write.
func (s *Service) MoveClientStage(ctx context.Context, clientID, columnID, cardStage string, hasTarget bool, actor string) (store.Client, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return store.Client{}, err
	}
	drop, err := pipeline.ResolveDrop(columnID, cardStage, hasTarget)
	if err != nil {
		return store.Client{}, domainError(http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	}
	if !drop.Move || string(drop.Stage) == client.PipelineStage {
		return client, nil
	}
	if err := s.store.UpdateClientStage(ctx, clientID, string(drop.Stage)); err != nil {
		return store.Client{}, err
	}
	client.PipelineStage = string(drop.Stage)
	s.invalidate(ctx, "clients")
	s.record(ctx, store.ActivityLog{
		EntityType: "client", EntityID: clientID, Action: "stage_changed",
		Actor: actor, Detail: client.Name + " moved to " + pipeline.Label(drop.Stage),
		LinkPath: "/pipeline",
	})
	return client, nil
}

// PipelineBoard groups every client by stage in board column order.
type PipelineBoard struct {
	Columns []PipelineColumn `json:"columns"`
}

type PipelineColumn struct {
	ID      pipeline.Stage `json:"id"`
	Label   string         `json:"label"`
	Clients []store.Client `json:"clients"`
}

func (s *Service) Pipeline(ctx context.Context) (PipelineBoard, error) {
	clients, err := s.ListClients(ctx, store.ClientFilter{})
	if err != nil {
		return PipelineBoard{}, err
	}
	byStage := make(map[pipeline.Stage][]store.Client)
	for _, c := range clients {
		stage, err := pipeline.Normalize(c.PipelineStage)
		if err != nil {
			stage = pipeline.StageLead
		}
		byStage[stage] = append(byStage[stage], c)
	}
	board := PipelineBoard{}
	for _, stage := range pipeline.Stages() {
		column := PipelineColumn{ID: stage, Label: pipeline.Label(stage), Clients: byStage[stage]}
		if column.Clients == nil {
			column.Clients = []store.Client{}
		}
		board.Columns = append(board.Columns, column)
	}
	return board, nil
}

// ClientHealth is the client row with its derived score attached.
type ClientHealth struct {
	Client store.Client       `json:"client"`
	Health derive.HealthScore `json:"health"`
}

func (s *Service) ClientHealth(ctx context.Context, clientID string) (ClientHealth, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if err != nil {
		return ClientHealth{}, err
	}
	deliverables, err := s.store.ListDeliverables(ctx, store.DeliverableFilter{ClientID: clientID})
	if err != nil {
		return ClientHealth{}, err
	}
	invoices, err := s.store.ListInvoices(ctx, store.InvoiceFilter{ClientID: clientID})
	if err != nil {
		return ClientHealth{}, err
	}
	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{ClientID: clientID})
	if err != nil {
		return ClientHealth{}, err
	}
	return ClientHealth{
		Client: client,
		Health: derive.CalculateHealthScore(client, deliverables, invoices, tasks, time.Now()),
	}, nil
}

type DashboardSummary struct {
	ActiveClients      int                    `json:"activeClients"`
	PipelineCounts     map[pipeline.Stage]int `json:"pipelineCounts"`
	OpenDeliverables   int                    `json:"openDeliverables"`
	OverdueTasks       int                    `json:"overdueTasks"`
	UnpaidInvoiceTotal float64                `json:"unpaidInvoiceTotal"`
	MonthlyRecurring   float64                `json:"monthlyRecurring"`
}

func (s *Service) Dashboard(ctx context.Context) (DashboardSummary, error) {
	key := cache.Key("dashboard", "summary")
	if s.cache != nil {
		var cached DashboardSummary
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	clients, err := s.store.ListClients(ctx, store.ClientFilter{})
	if err != nil {
		return DashboardSummary{}, err
	}
	deliverables, err := s.store.ListDeliverables(ctx, store.DeliverableFilter{})
	if err != nil {
		return DashboardSummary{}, err
	}
	invoices, err := s.store.ListInvoices(ctx, store.InvoiceFilter{})
	if err != nil {
		return DashboardSummary{}, err
	}
	tasks, err := s.store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return DashboardSummary{}, err
	}

	now := time.Now()
	summary := DashboardSummary{PipelineCounts: make(map[pipeline.Stage]int)}
	for _, c := range clients {
		if c.Status == "Active" {
			summary.ActiveClients++
			summary.MonthlyRecurring += c.MonthlyValue
		}
		if stage, err := pipeline.Normalize(c.PipelineStage); err == nil {
			summary.PipelineCounts[stage]++
		}
	}
	for _, d := range deliverables {
		if d.Status != "Delivered" && d.Status != "Approved" {
			summary.OpenDeliverables++
		}
	}
	for _, t := range tasks {
		if t.DueDate != nil && t.DueDate.Before(now) && t.Status != "Done" {
			summary.OverdueTasks++
		}
	}
	for _, inv := range invoices {
		if inv.Status == "Sent" || inv.Status == "Overdue" {
			summary.UnpaidInvoiceTotal += inv.Amount
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary); err != nil {
			log.Printf("app: cache set %s: %v", key, err)
		}
	}
	return summary, nil
}

func (s *Service) Feed(ctx context.Context, limit int) ([]derive.FeedItem, error) {
	if limit <= 0 {
		limit = 20
	}
	return listCached(ctx, s, "dashboard", "feed="+strconv.Itoa(limit), func() ([]derive.FeedItem, error) {
		clients, err := s.store.ListClients(ctx, store.ClientFilter{})
		if err != nil {
			return nil, err
		}
		deliverables, err := s.store.ListDeliverables(ctx, store.DeliverableFilter{})
		if err != nil {
			return nil, err
		}
		tasks, err := s.store.ListTasks(ctx, store.TaskFilter{})
		if err != nil {
			return nil, err
		}
		invoices, err := s.store.ListInvoices(ctx, store.InvoiceFilter{})
		if err != nil {
			return nil, err
		}
		return derive.BuildActivityFeed(clients, deliverables, tasks, invoices, limit), nil
	})
}

func (s *Service) Suggestions(ctx context.Context) ([]derive.Suggestion, error) {
	return listCached(ctx, s, "dashboard", "suggestions", func() ([]derive.Suggestion, error) {
		deliverables, err := s.store.ListDeliverables(ctx, store.DeliverableFilter{})
		if err != nil {
			return nil, err
		}
		invoices, err := s.store.ListInvoices(ctx, store.InvoiceFilter{})
		if err != nil {
			return nil, err
		}
		tasks, err := s.store.ListTasks(ctx, store.TaskFilter{})
		if err != nil {
			return nil, err
		}
		content, err := s.store.ListContentItems(ctx, store.ContentFilter{})
		if err != nil {
			return nil, err
		}
		return derive.BuildSuggestions(deliverables, invoices, tasks, content, time.Now()), nil
	})
}

// ConfirmSuggestion turns a suggestion's task template into a real task.
func (s *Service) ConfirmSuggestion(ctx context.Context, tmpl derive.TaskTemplate, actor string) (store.Task, error) {
	if strings.TrimSpace(tmpl.Name) == "" {
		return store.Task{}, domainError(http.StatusBadRequest, "VALIDATION", "task name is required", nil)
	}
	code, err := s.store.GenerateTaskCode(ctx)
	if err != nil {
		return store.Task{}, err
	}
	item := store.Task{
		ID:            util.NewID("tsk"),
		Code:          code,
		ClientID:      tmpl.ClientID,
		DeliverableID: tmpl.DeliverableID,
		Name:          strings.TrimSpace(tmpl.Name),
		Category:      tmpl.Category,
		Status:        "To Do",
		DueDate:       parseDate(tmpl.DueDate),
		Notes:         tmpl.Notes,
	}
	if err := s.store.InsertTask(ctx, item); err != nil {
		return store.Task{}, err
	}
	s.invalidate(ctx, "tasks")
	s.record(ctx, store.ActivityLog{
		EntityType: "task", EntityID: item.ID, Action: "created",
		Actor: actor, Detail: item.Name + " (from suggestion)", LinkPath: "/tasks",
	})
	return s.store.GetTask(ctx, item.ID)
}

func (s *Service) indexClient(c store.Client) {
	if s.search == nil {
		return
	}
	s.search.IndexClient(search.ClientRecord{
		ID:       c.ID,
		Code:     c.Code,
		Name:     c.Name,
		Industry: c.Industry,
		Market:   c.Market,
		Status:   c.Status,
	})
}

func defaultString(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

// parseDate reads a YYYY-MM-DD form value; anything unparseable reads as
// unset.
func parseDate(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil
	}
	return &parsed
}
