package app

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"atelier/api/internal/auth"
	"atelier/api/internal/authpw"
	"atelier/api/internal/config"
	"atelier/api/internal/rbac"
	"atelier/api/internal/store"
)

type HTTPServer struct {
	cfg     config.Config
	service *Service
}

func NewHTTPServer(cfg config.Config, service *Service) *HTTPServer {
	return &HTTPServer{cfg: cfg, service: service}
}

func (h *HTTPServer) Handler() http.Handler {
	return h.withMiddleware(http.HandlerFunc(h.route))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomHex(8)
		}
		w.Header().Set("X-Request-ID", requestID)
		h.setCORSHeaders(w)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		line, _ := json.Marshal(map[string]any{
			"request_id":  requestID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		log.Printf("%s", line)
	})
}

func (h *HTTPServer) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", h.cfg.CORSOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	w.Header().Set("Cache-Control", "no-store")
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf)[:n]
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	body := map[string]any{"code": code, "error": message}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

// mapError translates service failures into HTTP responses without leaking
// internals for the unexpected ones.
func mapError(w http.ResponseWriter, err error) {
	var domain *DomainError
	if errors.As(err, &domain) {
		writeError(w, domain.Status, domain.Code, domain.Message, domain.Details)
		return
	}
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "session is not valid", nil)
		return
	}
	log.Printf("app: unhandled error: %v", err)
	writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "something went wrong", nil)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

// requireSession resolves the staff session or writes the 401 itself.
func (h *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
		return Session{}, false
	}
	sess, err := h.service.SessionFromToken(r.Context(), token)
	if err != nil {
		mapError(w, err)
		return Session{}, false
	}
	return sess, true
}

// requirePortal resolves a portal contact session from the bearer token.
func (h *HTTPServer) requirePortal(w http.ResponseWriter, r *http.Request) (store.PortalAccess, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing portal token", nil)
		return store.PortalAccess{}, false
	}
	access, err := h.service.ResolvePortalToken(r.Context(), token)
	if err != nil {
		mapError(w, err)
		return store.PortalAccess{}, false
	}
	return access, true
}

// requireAction enforces the role check for an already-resolved session.
func (h *HTTPServer) requireAction(w http.ResponseWriter, sess Session, action rbac.Action) bool {
	if !h.service.Can(sess.Role, action) {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "role does not allow this action", nil)
		return false
	}
	return true
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}
	ok := true
	if err := h.service.store.Ping(r.Context()); err != nil {
		checks["database"] = err.Error()
		ok = false
	}
	status := http.StatusOK
	state := "ready"
	if !ok {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{"ok": ok, "status": state, "checks": checks})
}

func (h *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req authpw.SignUpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := h.service.SignUp(r.Context(), req)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := h.service.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	h.service.Logout(r.Context(), bearerToken(r), req.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *HTTPServer) handleChangePassword(w http.ResponseWriter, r *http.Request, sess Session) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), sess.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
