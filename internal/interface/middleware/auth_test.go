package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
)

type stubVerifier struct {
	claims *helpers.Claims
	err    error
	got    string
}

func (s *stubVerifier) VerifyToken(_ context.Context, token string) (*helpers.Claims, error) {
	s.got = token
	return s.claims, s.err
}

type stubLookup map[string]*entity.User

func (s stubLookup) GetUser(_ context.Context, id string) (*entity.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString(CtxUserIDKey)})
	})
	r.GET("/p", handlers...)
	return r
}

func do(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}

func TestAuth_MissingToken(t *testing.T) {
	w := do(newEngine(Auth(&stubVerifier{}, nil)), "")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied. No token provided.", message(t, w))
}

func TestAuth_InvalidToken(t *testing.T) {
	v := &stubVerifier{err: helpers.ErrTokenExpired}
	w := do(newEngine(Auth(v, helpers.NewDiscardLogger())), "Bearer abc")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid token.", message(t, w))
	assert.Equal(t, "abc", v.got)
}

func TestAuth_AcceptsRawAndBearer(t *testing.T) {
	for _, header := range []string{"tok", "Bearer tok", "bearer  tok"} {
		v := &stubVerifier{claims: &helpers.Claims{UserID: "u1"}}
		w := do(newEngine(Auth(v, nil)), header)

		assert.Equal(t, http.StatusOK, w.Code, header)
		assert.Equal(t, "tok", v.got, header)
		assert.JSONEq(t, `{"userID":"u1"}`, w.Body.String())
	}
}

func TestRequireAdmin(t *testing.T) {
	users := stubLookup{
		"admin":   {ID: "admin", IsAdmin: true},
		"blocked": {ID: "blocked", IsAdmin: true, IsBlocked: true},
		"plain":   {ID: "plain"},
	}
	cases := map[string]int{
		"admin":   http.StatusOK,
		"blocked": http.StatusForbidden,
		"plain":   http.StatusForbidden,
		"ghost":   http.StatusForbidden,
	}
	for id, want := range cases {
		v := &stubVerifier{claims: &helpers.Claims{UserID: id}}
		w := do(newEngine(Auth(v, nil), RequireAdmin(users, nil)), "tok")
		assert.Equal(t, want, w.Code, id)
	}
}

func TestGetAuthClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetAuthClaims(c)
	assert.False(t, ok)

	c.Set(CtxClaimsKey, &helpers.Claims{UserID: "u1"})
	claims, ok := GetAuthClaims(c)
	require.True(t, ok)
	assert.Equal(t, "u1", claims.UserID)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := newEngine()

	w := do(r, "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestHTTPMetrics_CountsByRouteAndStatus(t *testing.T) {
	m := NewHTTPMetrics()
	r := newEngine(m.Middleware(), Auth(&stubVerifier{}, nil))

	do(r, "")
	do(r, "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/p", "403")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/p", "200")))
}

func TestHTTPMetrics_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewHTTPMetrics()
	r := gin.New()
	r.Use(m.Middleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("unknown", "404")))
}

func TestHTTPMetrics_Handler(t *testing.T) {
	m := NewHTTPMetrics()
	do(newEngine(m.Middleware()), "")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `user_accounts_http_requests_total{code="200",route="/p"} 1`)
	assert.Contains(t, w.Body.String(), "user_accounts_http_request_duration_seconds_bucket")
}
