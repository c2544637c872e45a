package app

import (
	"context"
	"net/http"
	"strings"

	"atelier/api/internal/store"
	"atelier/api/internal/util"
)

type DeliverableInput struct {
	ClientID     string `json:"clientId"`
	Name         string `json:"name"`
	ServiceType  string `json:"serviceType"`
	Priority     string `json:"priority"`
	Status       string `json:"status"`
	DueDate      string `json:"dueDate"`
	DeliveryDate string `json:"deliveryDate"`
	Notes        string `json:"notes"`
}

func (s *Service) ListDeliverables(ctx context.Context, filter store.DeliverableFilter) ([]store.Deliverable, error) {
	return listCached(ctx, s, "deliverables", filter.Key(), func() ([]store.Deliverable, error) {
		return s.store.ListDeliverables(ctx, filter)
	})
}

func (s *Service) GetDeliverable(ctx context.Context, deliverableID string) (store.Deliverable, error) {
	return s.store.GetDeliverable(ctx, deliverableID)
}

func (s *Service) CreateDeliverable(ctx context.Context, input DeliverableInput, actor string) (store.Deliverable, error) {
	if strings.TrimSpace(input.Name) == "" {
		return store.Deliverable{}, domainError(http.StatusBadRequest, "VALIDATION", "name is required", nil)
	}
	if strings.TrimSpace(input.ClientID) == "" {
		return store.Deliverable{}, domainError(http.StatusBadRequest, "VALIDATION", "clientId is required", nil)
	}
	// Reject unknown clients up front rather than letting the FK violation
	// surface as a 500.
	if _, err := s.store.GetClient(ctx, input.ClientID); err != nil {
		return store.Deliverable{}, err
	}
	code, err := s.store.GenerateDeliverableCode(ctx)
	if err != nil {
		return store.Deliverable{}, err
	}
	item := store.Deliverable{
		ID:           util.NewID("dlv"),
		Code:         code,
		ClientID:     input.ClientID,
		Name:         strings.TrimSpace(input.Name),
		ServiceType:  strings.TrimSpace(input.ServiceType),
		Priority:     defaultString(input.Priority, "Medium"),
		Status:       defaultString(input.Status, "Not Started"),
		DueDate:      parseDate(input.DueDate),
		DeliveryDate: parseDate(input.DeliveryDate),
		Notes:        input.Notes,
	}
	// A delivery date only makes sense on finished work.
	if item.DeliveryDate != nil && item.Status != "Delivered" && item.Status != "Approved" {
		return store.Deliverable{}, domainError(http.StatusBadRequest, "VALIDATION", "deliveryDate requires status Delivered or Approved", nil)
	}
	if err := s.store.InsertDeliverable(ctx, item); err != nil {
		return store.Deliverable{}, err
	}
	s.invalidate(ctx, "deliverables")
	s.record(ctx, store.ActivityLog{
		EntityType: "deliverable", EntityID: item.ID, Action: "created",
		Actor: actor, Detail: item.Name, LinkPath: "/deliverables/" + item.ID,
	})
	return s.store.GetDeliverable(ctx, item.ID)
}

func (s *Service) UpdateDeliverable(ctx context.Context, deliverableID string, patch store.DeliverablePatch, actor string) (store.Deliverable, error) {
	existing, err := s.store.GetDeliverable(ctx, deliverableID)
	if err != nil {
		return store.Deliverable{}, err
	}
	status := existing.Status
	if patch.Status != nil {
		status = *patch.Status
	}
	hasDelivery := existing.DeliveryDate != nil
	if patch.DeliveryDate != nil {
		hasDelivery = strings.TrimSpace(*patch.DeliveryDate) != ""
	}
	if hasDelivery && status != "Delivered" && status != "Approved" {
		return store.Deliverable{}, domainError(http.StatusBadRequest, "VALIDATION", "deliveryDate requires status Delivered or Approved", nil)
	}
	if err := s.store.UpdateDeliverable(ctx, deliverableID, patch); err != nil {
		return store.Deliverable{}, err
	}
	updated, err := s.store.GetDeliverable(ctx, deliverableID)
	if err != nil {
		return store.Deliverable{}, err
	}
	s.invalidate(ctx, "deliverables")
	s.record(ctx, store.ActivityLog{
		EntityType: "deliverable", EntityID: deliverableID, Action: "updated",
		Actor: actor, Detail: updated.Name, LinkPath: "/deliverables/" + deliverableID,
	})
	return updated, nil
}

func (s *Service) DeleteDeliverable(ctx context.Context, deliverableID, actor string) error {
	existing, err := s.store.GetDeliverable(ctx, deliverableID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDeliverable(ctx, deliverableID); err != nil {
		return err
	}
	s.invalidate(ctx, "deliverables")
	s.record(ctx, store.ActivityLog{
		EntityType: "deliverable", EntityID: deliverableID, Action: "deleted",
		Actor: actor, Detail: existing.Name,
	})
	return nil
}

type InvoiceInput struct {
	ClientID    string  `json:"clientId"`
	Month       string  `json:"month"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
	PaymentDate string  `json:"paymentDate"`
}

func (s *Service) ListInvoices(ctx context.Context, filter store.InvoiceFilter) ([]store.Invoice, error) {
	return listCached(ctx, s, "invoices", filter.Key(), func() ([]store.Invoice, error) {
		return s.store.ListInvoices(ctx, filter)
	})
}

func (s *Service) GetInvoice(ctx context.Context, invoiceID string) (store.Invoice, error) {
	return s.store.GetInvoice(ctx, invoiceID)
}

func (s *Service) CreateInvoice(ctx context.Context, input InvoiceInput, actor string) (store.Invoice, error) {
	if strings.TrimSpace(input.ClientID) == "" {
		return store.Invoice{}, domainError(http.StatusBadRequest, "VALIDATION", "clientId is required", nil)
	}
	if strings.TrimSpace(input.Month) == "" {
		return store.Invoice{}, domainError(http.StatusBadRequest, "VALIDATION", "month is required", nil)
	}
	if input.Amount <= 0 {
		return store.Invoice{}, domainError(http.StatusBadRequest, "VALIDATION", "amount must be positive", nil)
	}
	if _, err := s.store.GetClient(ctx, input.ClientID); err != nil {
		return store.Invoice{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		settings, err := s.store.GetWorkspaceSettings(ctx)
		if err == nil && settings.DefaultCurrency != "" {
			currency = settings.DefaultCurrency
		} else {
			currency = "SGD"
		}
	}
	code, err := s.store.GenerateInvoiceCode(ctx)
	if err != nil {
		return store.Invoice{}, err
	}
	item := store.Invoice{
		ID:          util.NewID("inv"),
		Code:        code,
		ClientID:    input.ClientID,
		Month:       strings.TrimSpace(input.Month),
		Amount:      input.Amount,
		Currency:    currency,
		Status:      defaultString(input.Status, "Draft"),
		PaymentDate: parseDate(input.PaymentDate),
	}
	if err := s.store.InsertInvoice(ctx, item); err != nil {
		return store.Invoice{}, err
	}
	s.invalidate(ctx, "invoices")
	s.record(ctx, store.ActivityLog{
		EntityType: "invoice", EntityID: item.ID, Action: "created",
		Actor: actor, Detail: item.Code, LinkPath: "/invoices",
	})
	return s.store.GetInvoice(ctx, item.ID)
}

func (s *Service) UpdateInvoice(ctx context.Context, invoiceID string, patch store.InvoicePatch, actor string) (store.Invoice, error) {
	if err := s.store.UpdateInvoice(ctx, invoiceID, patch); err != nil {
		return store.Invoice{}, err
	}
	updated, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return store.Invoice{}, err
	}
	s.invalidate(ctx, "invoices")
	action := "updated"
	if patch.Status != nil && *patch.Status == "Paid" {
		action = "paid"
	}
	s.record(ctx, store.ActivityLog{
		EntityType: "invoice", EntityID: invoiceID, Action: action,
		Actor: actor, Detail: updated.Code, LinkPath: "/invoices",
	})
	return updated, nil
}

func (s *Service) DeleteInvoice(ctx context.Context, invoiceID, actor string) error {
	existing, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteInvoice(ctx, invoiceID); err != nil {
		return err
	}
	s.invalidate(ctx, "invoices")
	s.record(ctx, store.ActivityLog{
		EntityType: "invoice", EntityID: invoiceID, Action: "deleted",
		Actor: actor, Detail: existing.Code,
	})
	return nil
}

type TaskInput struct {
	ClientID      string `json:"clientId"`
	DeliverableID string `json:"deliverableId"`
	Name          string `json:"name"`
	Assignee      string `json:"assignee"`
	Category      string `json:"category"`
	Status        string `json:"status"`
	DueDate       string `json:"dueDate"`
	Notes         string `json:"notes"`
}

func (s *Service) ListTasks(ctx context.Context, filter store.TaskFilter) ([]store.Task, error) {
	return listCached(ctx, s, "tasks", filter.Key(), func() ([]store.Task, error) {
		return s.store.ListTasks(ctx, filter)
	})
}

func (s *Service) GetTask(ctx context.Context, taskID string) (store.Task, error) {
	return s.store.GetTask(ctx, taskID)
}

func (s *Service) CreateTask(ctx context.Context, input TaskInput, actor string) (store.Task, error) {
	if strings.TrimSpace(input.Name) == "" {
		return store.Task{}, domainError(http.StatusBadRequest, "VALIDATION", "name is required", nil)
	}
	code, err := s.store.GenerateTaskCode(ctx)
	if err != nil {
		return store.Task{}, err
	}
	item := store.Task{
		ID:            util.NewID("tsk"),
		Code:          code,
		ClientID:      optionalID(input.ClientID),
		DeliverableID: optionalID(input.DeliverableID),
		Name:          strings.TrimSpace(input.Name),
		Assignee:      strings.TrimSpace(input.Assignee),
		Category:      strings.TrimSpace(input.Category),
		Status:        defaultString(input.Status, "To Do"),
		DueDate:       parseDate(input.DueDate),
		Notes:         input.Notes,
	}
	if err := s.store.InsertTask(ctx, item); err != nil {
		return store.Task{}, err
	}
	s.invalidate(ctx, "tasks")
	s.record(ctx, store.ActivityLog{
		EntityType: "task", EntityID: item.ID, Action: "created",
		Actor: actor, Detail: item.Name, LinkPath: "/tasks",
	})
	return s.store.GetTask(ctx, item.ID)
}

func (s *Service) UpdateTask(ctx context.Context, taskID string, patch store.TaskPatch, actor string) (store.Task, error) {
	if err := s.store.UpdateTask(ctx, taskID, patch); err != nil {
		return store.Task{}, err
	}
	updated, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return store.Task{}, err
	}
	s.invalidate(ctx, "tasks")
	action := "updated"
	if patch.Status != nil && *patch.Status == "Done" {
		action = "completed"
	}
	s.record(ctx, store.ActivityLog{
		EntityType: "task", EntityID: taskID, Action: action,
		Actor: actor, Detail: updated.Name, LinkPath: "/tasks",
	})
	return updated, nil
}

func (s *Service) DeleteTask(ctx context.Context, taskID, actor string) error {
	existing, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	s.invalidate(ctx, "tasks")
	s.record(ctx, store.ActivityLog{
		EntityType: "task", EntityID: taskID, Action: "deleted",
		Actor: actor, Detail: existing.Name,
	})
	return nil
}

func optionalID(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
