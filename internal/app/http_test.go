package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"atelier/api/internal/store"
)

func newTestServer(fs *fakeStore) *HTTPServer {
	return NewHTTPServer(testConfig(), newTestService(fs))
}

func doRequest(t *testing.T, h *HTTPServer, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthRoute(t *testing.T) {
	h := newTestServer(newFakeStore())
	rec := doRequest(t, h, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadyReportsDegradedStore(t *testing.T) {
	fs := newFakeStore()
	fs.pingErr = errors.New("connection refused")
	h := newTestServer(fs)

	rec := doRequest(t, h, http.MethodGet, "/api/ready", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body struct {
		OK     bool              `json:"ok"`
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeResponse(t, rec, &body)
	if body.OK || body.Status != "degraded" {
		t.Fatalf("body = %+v", body)
	}
}

func TestStaffRoutesRequireBearerToken(t *testing.T) {
	h := newTestServer(newFakeStore())
	rec := doRequest(t, h, http.MethodGet, "/api/clients", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	h := newTestServer(newFakeStore())
	rec := doRequest(t, h, http.MethodOptions, "/api/clients", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("missing CORS headers on preflight")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestServer(newFakeStore())
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-12345")
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-12345" {
		t.Fatalf("X-Request-ID = %q", got)
	}
}

func signUpOverHTTP(t *testing.T, h *HTTPServer, email, role string) Session {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "correct-horse", "displayName": "Mira", "role": role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", rec.Code, rec.Body.String())
	}
	var sess Session
	decodeResponse(t, rec, &sess)
	return sess
}

func TestViewerCannotCreateClient(t *testing.T) {
	h := newTestServer(newFakeStore())
	sess := signUpOverHTTP(t, h, "viewer@atelier.test", "viewer")

	rec := doRequest(t, h, http.MethodPost, "/api/clients", sess.Token, ClientInput{Name: "Acme"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestClientLifecycleOverHTTP(t *testing.T) {
	fs := newFakeStore()
	h := newTestServer(fs)
	sess := signUpOverHTTP(t, h, "admin@atelier.test", "admin")

	rec := doRequest(t, h, http.MethodPost, "/api/clients", sess.Token, ClientInput{
		Name: "Acme Pte Ltd", Market: "SG", MonthlyValue: 4500,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created store.Client
	decodeResponse(t, rec, &created)
	if created.Code != "CLT-0001" {
		t.Fatalf("code = %s", created.Code)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/clients", sess.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Items []store.Client `json:"items"`
	}
	decodeResponse(t, rec, &list)
	if len(list.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(list.Items))
	}

	rec = doRequest(t, h, http.MethodPatch, "/api/clients/"+created.ID, sess.Token, map[string]string{
		"name": "Acme Holdings",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}
	var updated store.Client
	decodeResponse(t, rec, &updated)
	if updated.Name != "Acme Holdings" {
		t.Fatalf("name = %s", updated.Name)
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/clients/"+created.ID, sess.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodGet, "/api/clients/"+created.ID, sess.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestPipelineMoveWithoutTargetSkipsStore(t *testing.T) {
	fs := newFakeStore()
	fs.clients["cli_1"] = store.Client{ID: "cli_1", Name: "Acme", PipelineStage: "lead"}
	h := newTestServer(fs)
	sess := signUpOverHTTP(t, h, "mira@atelier.test", "manager")

	rec := doRequest(t, h, http.MethodPost, "/api/pipeline/move", sess.Token, map[string]any{
		"clientId": "cli_1", "hasTarget": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if fs.stageCalls != 0 {
		t.Fatalf("stageCalls = %d, want 0", fs.stageCalls)
	}
}

func TestPortalFlowOverHTTP(t *testing.T) {
	fs := newFakeStore()
	fs.clients["cli_1"] = store.Client{ID: "cli_1", Name: "Acme Pte Ltd"}
	h := newTestServer(fs)
	admin := signUpOverHTTP(t, h, "admin@atelier.test", "admin")

	rec := doRequest(t, h, http.MethodPost, "/api/clients/cli_1/portal", admin.Token, map[string]string{
		"contactName": "Dana", "contactEmail": "dana@acme.test",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue status = %d: %s", rec.Code, rec.Body.String())
	}
	var issued struct {
		Token string `json:"token"`
	}
	decodeResponse(t, rec, &issued)
	if issued.Token == "" {
		t.Fatal("no portal token returned")
	}

	rec = doRequest(t, h, http.MethodGet, "/api/portal/me", issued.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("portal me status = %d: %s", rec.Code, rec.Body.String())
	}
	var overview PortalOverview
	decodeResponse(t, rec, &overview)
	if overview.Client.Name != "Acme Pte Ltd" || overview.ContactName != "Dana" {
		t.Fatalf("overview = %+v", overview)
	}

	rec = doRequest(t, h, http.MethodPost, "/api/portal/messages", issued.Token, map[string]string{
		"body": "Looking forward to the drafts.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("message status = %d: %s", rec.Code, rec.Body.String())
	}

	// A staff token is not a portal token.
	rec = doRequest(t, h, http.MethodGet, "/api/portal/me", admin.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("staff token on portal route = %d, want 401", rec.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	h := newTestServer(newFakeStore())
	sess := signUpOverHTTP(t, h, "mira@atelier.test", "member")
	rec := doRequest(t, h, http.MethodGet, "/api/widgets", sess.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRefreshAndLogoutOverHTTP(t *testing.T) {
	h := newTestServer(newFakeStore())
	sess := signUpOverHTTP(t, h, "mira@atelier.test", "member")

	rec := doRequest(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": sess.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d: %s", rec.Code, rec.Body.String())
	}
	var next Session
	decodeResponse(t, rec, &next)

	rec = doRequest(t, h, http.MethodPost, "/api/auth/logout", next.Token, map[string]string{
		"refreshToken": next.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": next.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout = %d, want 401", rec.Code)
	}
}
