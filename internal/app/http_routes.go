package app

import (
	"net/http"
	"strconv"
	"strings"

	"atelier/api/internal/ai"
	"atelier/api/internal/derive"
	"atelier/api/internal/email"
	"atelier/api/internal/export"
	"atelier/api/internal/rbac"
	"atelier/api/internal/search"
	"atelier/api/internal/store"
)

func (h *HTTPServer) route(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path := r.URL.Path
	method := r.Method

	if method == http.MethodGet && path == "/api/health" {
		h.handleHealth(w, r)
		return
	}
	if method == http.MethodGet && path == "/api/ready" {
		h.handleReady(w, r)
		return
	}
	if method == http.MethodPost && path == "/api/auth/signup" {
		h.handleSignUp(w, r)
		return
	}
	if method == http.MethodPost && path == "/api/auth/signin" {
		h.handleSignIn(w, r)
		return
	}
	if method == http.MethodPost && path == "/api/auth/refresh" {
		h.handleRefresh(w, r)
		return
	}
	if method == http.MethodPost && path == "/api/auth/logout" {
		h.handleLogout(w, r)
		return
	}

	// The portal surface authenticates with portal tokens, not staff sessions.
	if strings.HasPrefix(path, "/api/portal/") {
		h.routePortal(w, r)
		return
	}

	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}
	h.routeStaff(w, r, sess)
}

func (h *HTTPServer) routePortal(w http.ResponseWriter, r *http.Request) {
	access, ok := h.requirePortal(w, r)
	if !ok {
		return
	}
	parts := splitPath(r.URL.Path)
	method := r.Method

	switch {
	case method == http.MethodGet && r.URL.Path == "/api/portal/me":
		overview, err := h.service.PortalOverview(r.Context(), access)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, overview)

	case method == http.MethodPost && r.URL.Path == "/api/portal/messages":
		var req struct {
			Body string `json:"body"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		msg, err := h.service.PostPortalMessage(r.Context(), access, req.Body)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)

	case method == http.MethodPost && r.URL.Path == "/api/portal/requests":
		var req struct {
			RequestType string `json:"requestType"`
			Brief       string `json:"brief"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		item, err := h.service.PortalCreateContentRequest(r.Context(), access, req.RequestType, req.Brief)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)

	case method == http.MethodPost && len(parts) == 5 && parts[2] == "deliverables" && parts[4] == "approve":
		item, err := h.service.PortalApproveDeliverable(r.Context(), access, parts[3])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case method == http.MethodPost && len(parts) == 5 && parts[2] == "content" && parts[4] == "review":
		var req struct {
			Decision string `json:"decision"`
			Note     string `json:"note"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		item, err := h.service.PortalReviewContent(r.Context(), access, parts[3], req.Decision, req.Note)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeStaff(w http.ResponseWriter, r *http.Request, sess Session) {
	parts := splitPath(r.URL.Path)
	if len(parts) < 2 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
		return
	}

	switch parts[1] {
	case "session":
		if r.Method == http.MethodGet && len(parts) == 2 {
			writeJSON(w, http.StatusOK, sess)
			return
		}
	case "auth":
		if r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "password" {
			h.handleChangePassword(w, r, sess)
			return
		}
	case "clients":
		h.routeClients(w, r, sess, parts)
		return
	case "pipeline":
		h.routePipeline(w, r, sess, parts)
		return
	case "deliverables":
		h.routeDeliverables(w, r, sess, parts)
		return
	case "invoices":
		h.routeInvoices(w, r, sess, parts)
		return
	case "tasks":
		h.routeTasks(w, r, sess, parts)
		return
	case "content":
		h.routeContent(w, r, sess, parts)
		return
	case "content-requests":
		if r.Method == http.MethodPost && len(parts) == 4 && parts[3] == "status" {
			if !h.requireAction(w, sess, rbac.ActionWrite) {
				return
			}
			var req struct {
				Status string `json:"status"`
			}
			if !decodeBody(w, r, &req) {
				return
			}
			if err := h.service.UpdateContentRequestStatus(r.Context(), parts[2], req.Status, sess.UserName); err != nil {
				mapError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	case "proposals":
		h.routeProposals(w, r, sess, parts)
		return
	case "retainer-tiers":
		h.routeRetainerTiers(w, r, sess, parts)
		return
	case "sla":
		h.routeSLA(w, r, sess, parts)
		return
	case "team":
		h.routeTeam(w, r, sess, parts)
		return
	case "time":
		if r.Method == http.MethodPost && len(parts) == 2 {
			if !h.requireAction(w, sess, rbac.ActionWrite) {
				return
			}
			var input TimeEntryInput
			if !decodeBody(w, r, &input) {
				return
			}
			entry, err := h.service.CreateTimeEntry(r.Context(), input)
			if err != nil {
				mapError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, entry)
			return
		}
	case "settings":
		h.routeSettings(w, r, sess, parts)
		return
	case "dashboard":
		if r.Method == http.MethodGet && len(parts) == 2 {
			summary, err := h.service.Dashboard(r.Context())
			if err != nil {
				mapError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, summary)
			return
		}
	case "feed":
		if r.Method == http.MethodGet && len(parts) == 2 {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			feed, err := h.service.Feed(r.Context(), limit)
			if err != nil {
				mapError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": feed})
			return
		}
	case "suggestions":
		h.routeSuggestions(w, r, sess, parts)
		return
	case "activity":
		if r.Method == http.MethodGet && len(parts) == 2 {
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			items, err := h.service.RecentActivity(r.Context(), limit)
			if err != nil {
				mapError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"items": items})
			return
		}
	case "notifications":
		h.routeNotifications(w, r, sess, parts)
		return
	case "search":
		if r.Method == http.MethodGet && len(parts) == 2 {
			h.handleSearch(w, r)
			return
		}
	case "relay":
		if r.Method == http.MethodPost && len(parts) == 2 {
			if !h.requireAction(w, sess, rbac.ActionWrite) {
				return
			}
			var req email.RelayRequest
			if !decodeBody(w, r, &req) {
				return
			}
			result, err := h.service.RelayEmail(r.Context(), req, sess.UserName)
			if err != nil {
				mapError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, result)
			return
		}
	case "ai":
		h.routeAI(w, r, sess, parts)
		return
	case "export":
		h.routeExport(w, r, sess, parts)
		return
	case "portal-access":
		if r.Method == http.MethodDelete && len(parts) == 3 {
			if !h.requireAction(w, sess, rbac.ActionAdmin) {
				return
			}
			if err := h.service.RevokePortalAccess(r.Context(), parts[2], sess.UserName); err != nil {
				mapError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
}

func (h *HTTPServer) routeClients(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	ctx := r.Context()
	q := r.URL.Query()

	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		items, err := h.service.ListClients(ctx, store.ClientFilter{
			Market:        q.Get("market"),
			Status:        q.Get("status"),
			PlanTier:      q.Get("planTier"),
			PipelineStage: q.Get("stage"),
		})
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case r.Method == http.MethodPost && len(parts) == 2:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var input ClientInput
		if !decodeBody(w, r, &input) {
			return
		}
		item, err := h.service.CreateClient(ctx, input, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)

	case r.Method == http.MethodGet && len(parts) == 3:
		item, err := h.service.GetClient(ctx, parts[2])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case r.Method == http.MethodPatch && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var patch store.ClientPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		item, err := h.service.UpdateClient(ctx, parts[2], patch, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case r.Method == http.MethodDelete && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionAdmin) {
			return
		}
		if err := h.service.DeleteClient(ctx, parts[2], sess.UserName); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case r.Method == http.MethodGet && len(parts) == 4 && parts[3] == "health":
		item, err := h.service.ClientHealth(ctx, parts[2])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case r.Method == http.MethodPost && len(parts) == 4 && parts[3] == "stage":
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var req struct {
			ColumnID  string `json:"columnId"`
			CardStage string `json:"cardStage"`
			HasTarget bool   `json:"hasTarget"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		item, err := h.service.MoveClientStage(ctx, parts[2], req.ColumnID, req.CardStage, req.HasTarget, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case len(parts) == 4 && parts[3] == "portal":
		h.routeClientPortal(w, r, sess, parts[2])

	case len(parts) == 4 && parts[3] == "messages":
		h.routeClientMessages(w, r, sess, parts[2])

	case len(parts) == 4 && parts[3] == "files":
		h.routeClientFiles(w, r, sess, parts[2])

	case r.Method == http.MethodGet && len(parts) == 4 && parts[3] == "requests":
		items, err := h.service.ListContentRequests(ctx, parts[2])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case len(parts) == 4 && parts[3] == "retainer":
		h.routeClientRetainer(w, r, sess, parts[2])

	case r.Method == http.MethodGet && len(parts) == 4 && parts[3] == "time":
		limit, _ := strconv.Atoi(q.Get("limit"))
		items, err := h.service.ListTimeEntries(ctx, parts[2], limit)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeClientPortal(w http.ResponseWriter, r *http.Request, sess Session, clientID string) {
	switch r.Method {
	case http.MethodGet:
		access, err := h.service.GetPortalAccessForClient(r.Context(), clientID)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access": access})
	case http.MethodPost:
		if !h.requireAction(w, sess, rbac.ActionAdmin) {
			return
		}
		var req struct {
			ContactName  string `json:"contactName"`
			ContactEmail string `json:"contactEmail"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		token, err := h.service.IssuePortalAccess(r.Context(), clientID, req.ContactName, req.ContactEmail, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"token": token})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeClientMessages(w http.ResponseWriter, r *http.Request, sess Session, clientID string) {
	switch r.Method {
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		items, err := h.service.ListPortalMessages(r.Context(), clientID, limit)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var req struct {
			Body string `json:"body"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		msg, err := h.service.PostStaffMessage(r.Context(), clientID, req.Body, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, msg)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeClientFiles(w http.ResponseWriter, r *http.Request, sess Session, clientID string) {
	switch r.Method {
	case http.MethodGet:
		items, err := h.service.ListPortalFiles(r.Context(), clientID)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var input PortalFileInput
		if !decodeBody(w, r, &input) {
			return
		}
		item, err := h.service.AddPortalFile(r.Context(), clientID, input, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeClientRetainer(w http.ResponseWriter, r *http.Request, sess Session, clientID string) {
	switch r.Method {
	case http.MethodGet:
		usage, err := h.service.GetRetainerUsage(r.Context(), clientID, r.URL.Query().Get("month"))
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"usage": usage})
	case http.MethodPut:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var input RetainerUsageInput
		if !decodeBody(w, r, &input) {
			return
		}
		usage, err := h.service.UpsertRetainerUsage(r.Context(), clientID, input)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"usage": usage})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routePipeline(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		board, err := h.service.Pipeline(r.Context())
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, board)
	case r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "move":
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var req struct {
			ClientID  string `json:"clientId"`
			ColumnID  string `json:"columnId"`
			CardStage string `json:"cardStage"`
			HasTarget bool   `json:"hasTarget"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		item, err := h.service.MoveClientStage(r.Context(), req.ClientID, req.ColumnID, req.CardStage, req.HasTarget, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeDeliverables(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	ctx := r.Context()
	q := r.URL.Query()
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		items, err := h.service.ListDeliverables(ctx, store.DeliverableFilter{
			ClientID: q.Get("clientId"),
			Status:   q.Get("status"),
			Priority: q.Get("priority"),
		})
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodPost && len(parts) == 2:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var input DeliverableInput
		if !decodeBody(w, r, &input) {
			return
		}
		item, err := h.service.CreateDeliverable(ctx, input, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	case r.Method == http.MethodGet && len(parts) == 3:
		item, err := h.service.GetDeliverable(ctx, parts[2])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodPatch && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var patch store.DeliverablePatch
		if !decodeBody(w, r, &patch) {
			return
		}
		item, err := h.service.UpdateDeliverable(ctx, parts[2], patch, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodDelete && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		if err := h.service.DeleteDeliverable(ctx, parts[2], sess.UserName); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeInvoices(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	ctx := r.Context()
	q := r.URL.Query()
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		items, err := h.service.ListInvoices(ctx, store.InvoiceFilter{
			ClientID: q.Get("clientId"),
			Status:   q.Get("status"),
			Month:    q.Get("month"),
		})
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodPost && len(parts) == 2:
		if !h.requireAction(w, sess, rbac.ActionFinance) {
			return
		}
		var input InvoiceInput
		if !decodeBody(w, r, &input) {
			return
		}
		item, err := h.service.CreateInvoice(ctx, input, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	case r.Method == http.MethodGet && len(parts) == 3:
		item, err := h.service.GetInvoice(ctx, parts[2])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodPatch && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionFinance) {
			return
		}
		var patch store.InvoicePatch
		if !decodeBody(w, r, &patch) {
			return
		}
		item, err := h.service.UpdateInvoice(ctx, parts[2], patch, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodDelete && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionFinance) {
			return
		}
		if err := h.service.DeleteInvoice(ctx, parts[2], sess.UserName); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeTasks(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	ctx := r.Context()
	q := r.URL.Query()
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		items, err := h.service.ListTasks(ctx, store.TaskFilter{
			ClientID: q.Get("clientId"),
			Assignee: q.Get("assignee"),
			Status:   q.Get("status"),
			Category: q.Get("category"),
		})
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodPost && len(parts) == 2:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var input TaskInput
		if !decodeBody(w, r, &input) {
			return
		}
		item, err := h.service.CreateTask(ctx, input, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	case r.Method == http.MethodGet && len(parts) == 3:
		item, err := h.service.GetTask(ctx, parts[2])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodPatch && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var patch store.TaskPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		item, err := h.service.UpdateTask(ctx, parts[2], patch, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodDelete && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		if err := h.service.DeleteTask(ctx, parts[2], sess.UserName); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeContent(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	ctx := r.Context()
	q := r.URL.Query()
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		items, err := h.service.ListContent(ctx, store.ContentFilter{
			ClientID:    q.Get("clientId"),
			Status:      q.Get("status"),
			ContentType: q.Get("type"),
			Platform:    q.Get("platform"),
		})
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodPost && len(parts) == 2:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var input ContentInput
		if !decodeBody(w, r, &input) {
			return
		}
		item, err := h.service.CreateContent(ctx, input, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	case r.Method == http.MethodGet && len(parts) == 3:
		item, err := h.service.GetContent(ctx, parts[2])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodPatch && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var patch store.ContentPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		item, err := h.service.UpdateContent(ctx, parts[2], patch, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodDelete && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		if err := h.service.DeleteContent(ctx, parts[2], sess.UserName); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case len(parts) == 4 && parts[3] == "quality":
		h.routeContentQuality(w, r, sess, parts[2])
	case len(parts) == 4 && parts[3] == "performance":
		h.routeContentPerformance(w, r, sess, parts[2])
	case r.Method == http.MethodGet && len(parts) == 4 && parts[3] == "versions":
		items, err := h.service.ListContentVersions(ctx, parts[2])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodGet && len(parts) == 4 && parts[3] == "reviews":
		items, err := h.service.ListContentReviews(ctx, parts[2])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeContentQuality(w http.ResponseWriter, r *http.Request, sess Session, contentID string) {
	switch r.Method {
	case http.MethodGet:
		score, err := h.service.GetQualityScore(r.Context(), contentID)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quality": score})
	case http.MethodPut:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var input QualityScoreInput
		if !decodeBody(w, r, &input) {
			return
		}
		score, err := h.service.UpsertQualityScore(r.Context(), contentID, input, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"quality": score})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeContentPerformance(w http.ResponseWriter, r *http.Request, sess Session, contentID string) {
	switch r.Method {
	case http.MethodGet:
		perf, err := h.service.GetContentPerformance(r.Context(), contentID)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"performance": perf})
	case http.MethodPut:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var input PerformanceInput
		if !decodeBody(w, r, &input) {
			return
		}
		perf, err := h.service.UpsertContentPerformance(r.Context(), contentID, input, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"performance": perf})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeProposals(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	ctx := r.Context()
	q := r.URL.Query()
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		items, err := h.service.ListProposals(ctx, store.ProposalFilter{
			ClientID: q.Get("clientId"),
			Status:   q.Get("status"),
		})
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodPost && len(parts) == 2:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var input ProposalInput
		if !decodeBody(w, r, &input) {
			return
		}
		item, err := h.service.CreateProposal(ctx, input, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	case r.Method == http.MethodGet && len(parts) == 3:
		item, err := h.service.GetProposal(ctx, parts[2])
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodPatch && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var patch store.ProposalPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		item, err := h.service.UpdateProposal(ctx, parts[2], patch, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	case r.Method == http.MethodDelete && len(parts) == 3:
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		if err := h.service.DeleteProposal(ctx, parts[2], sess.UserName); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeRetainerTiers(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		items, err := h.service.ListRetainerTiers(r.Context())
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodPost && len(parts) == 2:
		if !h.requireAction(w, sess, rbac.ActionAdmin) {
			return
		}
		var item store.RetainerTier
		if !decodeBody(w, r, &item) {
			return
		}
		created, err := h.service.CreateRetainerTier(r.Context(), item)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeSLA(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		items, err := h.service.ListSLADefinitions(r.Context())
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodPut && len(parts) == 2:
		if !h.requireAction(w, sess, rbac.ActionAdmin) {
			return
		}
		var item store.SLADefinition
		if !decodeBody(w, r, &item) {
			return
		}
		if err := h.service.UpsertSLADefinition(r.Context(), item); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeTeam(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		items, err := h.service.ListTeamMembers(r.Context())
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodPost && len(parts) == 2:
		if !h.requireAction(w, sess, rbac.ActionAdmin) {
			return
		}
		var item store.TeamMember
		if !decodeBody(w, r, &item) {
			return
		}
		created, err := h.service.CreateTeamMember(r.Context(), item)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeSettings(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		settings, err := h.service.GetWorkspaceSettings(r.Context())
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case r.Method == http.MethodPut && len(parts) == 2:
		if !h.requireAction(w, sess, rbac.ActionAdmin) {
			return
		}
		var item store.WorkspaceSettings
		if !decodeBody(w, r, &item) {
			return
		}
		updated, err := h.service.UpdateWorkspaceSettings(r.Context(), item, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeSuggestions(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		items, err := h.service.Suggestions(r.Context())
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "confirm":
		if !h.requireAction(w, sess, rbac.ActionWrite) {
			return
		}
		var req struct {
			Task derive.TaskTemplate `json:"task"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		task, err := h.service.ConfirmSuggestion(r.Context(), req.Task, sess.UserName)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeNotifications(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	switch {
	case r.Method == http.MethodGet && len(parts) == 2:
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		items, err := h.service.ListNotifications(r.Context(), sess.UserID, q.Get("unread") == "true", limit)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	case r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "read-all":
		if err := h.service.MarkAllNotificationsRead(r.Context(), sess.UserID); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case r.Method == http.MethodPost && len(parts) == 4 && parts[3] == "read":
		if err := h.service.MarkNotificationRead(r.Context(), parts[2]); err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	resp, err := h.service.Search(search.Query{
		Text:           q.Get("q"),
		FilterType:     search.ResultType(q.Get("type")),
		FilterClientID: q.Get("clientId"),
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPServer) routeAI(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	if r.Method != http.MethodPost || len(parts) != 3 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
		return
	}
	if !h.requireAction(w, sess, rbac.ActionWrite) {
		return
	}
	var req ai.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	switch parts[2] {
	case "content":
		text, err := h.service.GenerateContentDraft(r.Context(), req)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"text": text})
	case "email":
		draft, err := h.service.GenerateEmailDraft(r.Context(), req)
		if err != nil {
			mapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, draft)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
	}
}

func (h *HTTPServer) routeExport(w http.ResponseWriter, r *http.Request, sess Session, parts []string) {
	if r.Method != http.MethodGet || len(parts) != 4 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
		return
	}
	kind := export.Kind(parts[2])
	switch kind {
	case export.KindInvoice:
		if !h.requireAction(w, sess, rbac.ActionFinance) {
			return
		}
	case export.KindProposal:
		if !h.requireAction(w, sess, rbac.ActionRead) {
			return
		}
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route", nil)
		return
	}
	result, err := h.service.ExportDocument(r.Context(), export.Request{
		Kind:    kind,
		ID:      parts[3],
		Archive: r.URL.Query().Get("archive") == "true",
	})
	if err != nil {
		mapError(w, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	if result.ArchiveKey != "" {
		w.Header().Set("X-Archive-Key", result.ArchiveKey)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}
