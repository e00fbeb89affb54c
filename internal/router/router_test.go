package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/metrics"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/rbac"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stretchr/testify/assert"
)

type stubAuth map[string]*service.Claims

func (s stubAuth) ValidateToken(tokenStr string) (*service.Claims, error) {
	if c, ok := s[tokenStr]; ok {
		return c, nil
	}
	return nil, errors.New("unknown token")
}

func (s stubAuth) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// newTestRouter wires the real route table. Handlers are never reached in
// these tests, so they may be empty.
func newTestRouter() *gin.Engine {
	auth := stubAuth{
		"teacher": {UserID: 11, Role: model.RoleTeacher},
		"parent":  {UserID: 31, Role: model.RoleParent, StudentIDs: []int{1}},
		"head":    {UserID: 21, Role: model.RoleHeadTeacher},
	}
	deps := Deps{
		Auth:    auth,
		Gate:    rbac.NewGate(rbac.DefaultPolicy()),
		Metrics: metrics.New("router_test"),
		Log:     zerolog.Nop(),
	}
	return SetupRouter(deps, &Handlers{}, &config.Config{GinMode: gin.TestMode})
}

func request(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutePermissions(t *testing.T) {
	r := newTestRouter()
	id := "/api/v1/results/6f1f7c2e-8a57-4a55-9f57-0c5d1c3b9a01"

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		code   int
	}{
		{"teacher cannot approve", http.MethodPost, id + "/approve", "teacher", http.StatusForbidden},
		{"teacher cannot reject", http.MethodPost, id + "/reject", "teacher", http.StatusForbidden},
		{"teacher cannot publish", http.MethodPost, id + "/publish", "teacher", http.StatusForbidden},
		{"teacher cannot see queue", http.MethodGet, "/api/v1/results/pending", "teacher", http.StatusForbidden},
		{"parent cannot enter marks", http.MethodPost, "/api/v1/results", "parent", http.StatusForbidden},
		{"parent cannot list students", http.MethodGet, "/api/v1/students", "parent", http.StatusForbidden},
		{"head teacher is not admin", http.MethodGet, "/api/v1/admin/users", "head", http.StatusForbidden},
		{"no token", http.MethodGet, "/api/v1/results/pending", "", http.StatusUnauthorized},
		{"feed needs query token", http.MethodGet, "/ws/v1/results/feed", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(r, tt.method, tt.path, tt.token)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestFeedRequiresReviewPermission(t *testing.T) {
	r := newTestRouter()
	w := request(r, http.MethodGet, "/ws/v1/results/feed?token=teacher", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter()

	w := request(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = request(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "router_test_http_requests_total"))
}
