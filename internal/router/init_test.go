package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-accounts/config"
	"github.com/oksasatya/go-user-accounts/internal/container"
	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-user-accounts/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
)

type fixture struct {
	engine *gin.Engine
	repo   *memory.UserRepository
	jwt    *helpers.JWTManager
}

func newFixture(t *testing.T, policy string, withRedis bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	container.Reset()
	t.Cleanup(container.Reset)

	repo := memory.NewUserRepository()
	jwt := helpers.NewJWTManager("router-secret", nil, time.Hour)
	container.SetConfig(&config.Config{AppName: "test", AuthPolicy: policy, BcryptCost: bcrypt.MinCost, DebugMetricsEnabled: true})
	container.SetLogger(helpers.NewDiscardLogger())
	container.SetUserRepo(repo)
	container.SetJWT(jwt)
	container.SetHasher(helpers.NewPasswordHasher(bcrypt.MinCost))
	if withRedis {
		mr := miniredis.RunT(t)
		container.SetRedis(helpers.NewRedisClient(mr.Addr(), "", 0))
	}

	engine := gin.New()
	reg := NewRegistry(engine)
	InitModules(reg)
	reg.RegisterAll()
	return &fixture{engine: engine, repo: repo, jwt: jwt}
}

func (f *fixture) user(t *testing.T, name string, admin bool) (string, string) {
	t.Helper()
	ctx := context.Background()
	u := &entity.User{Name: name, Email: name + "@x.com"}
	require.NoError(t, f.repo.Create(ctx, u))
	if admin {
		yes := true
		_, err := f.repo.UpdateByID(ctx, u.ID, entity.UserPatch{IsAdmin: &yes})
		require.NoError(t, err)
	}
	token, _, err := f.jwt.Issue(u.ID)
	require.NoError(t, err)
	return u.ID, token
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func TestOpenPolicy_NoRouteGated(t *testing.T) {
	f := newFixture(t, config.AuthPolicyOpen, false)
	id, _ := f.user(t, "ann", false)

	assert.Equal(t, http.StatusOK, f.do(http.MethodPut, "/api/users/make-admin/"+id, "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/users/logout", "", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPut, "/api/users/update-user", "", map[string]string{"userId": id, "name": "A"}).Code)
}

func TestProtectedPolicy(t *testing.T) {
	f := newFixture(t, config.AuthPolicyProtected, false)
	targetID, userToken := f.user(t, "ann", false)
	_, adminToken := f.user(t, "root", true)

	w := f.do(http.MethodPut, "/api/users/update-user", "", map[string]string{"userId": targetID, "name": "A"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(http.MethodPut, "/api/users/update-user", "garbage", map[string]string{"userId": targetID, "name": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPut, "/api/users/update-user", userToken, map[string]string{"userId": targetID, "name": "A"})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPatch, "/api/users/block-user/"+targetID, userToken, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPatch, "/api/users/block-user/"+targetID, adminToken, nil).Code)

	// public routes stay open
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/users/all-users", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "nobody@x.com", "password": "p"}).Code)
}

func TestProtectedPolicy_OwnAccountOnly(t *testing.T) {
	f := newFixture(t, config.AuthPolicyProtected, false)
	annID, annToken := f.user(t, "ann", false)
	bobID, bobToken := f.user(t, "bob", false)
	_, adminToken := f.user(t, "root", true)

	w := f.do(http.MethodPut, "/api/users/update-profile", bobToken, map[string]string{"userId": annID, "name": "Mallory"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodPost, "/api/users/upload-profile-picture", bobToken, map[string]string{"userId": annID, "profilePicture": "https://x/p.png"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodDelete, "/api/users/delete-account", bobToken, map[string]string{"userId": annID})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = f.do(http.MethodDelete, "/api/users/delete-user", bobToken, map[string]string{"userId": annID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	u, err := f.repo.FindByID(context.Background(), annID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ann", u.Name)

	w = f.do(http.MethodPut, "/api/users/update-profile", annToken, map[string]string{"userId": annID, "name": "Ann"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodPut, "/api/users/update-user", adminToken, map[string]string{"userId": annID, "name": "Annie"})
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodDelete, "/api/users/delete-account", bobToken, map[string]string{"userId": bobID})
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(http.MethodDelete, "/api/users/delete-user", adminToken, map[string]string{"userId": annID})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedPolicy_LogoutRevokesToken(t *testing.T) {
	f := newFixture(t, config.AuthPolicyProtected, true)
	id, token := f.user(t, "ann", false)

	body := map[string]string{"userId": id, "name": "A"}
	require.Equal(t, http.StatusOK, f.do(http.MethodPut, "/api/users/update-user", token, body).Code)
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/users/logout", token, nil).Code)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, "/api/users/update-user", token, body).Code)
}

func TestSystemRoutes(t *testing.T) {
	f := newFixture(t, config.AuthPolicyOpen, false)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/health", "", nil).Code)
	w := f.do(http.MethodGet, "/api/debug/vars", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memstats")

	w = f.do(http.MethodGet, "/api/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `user_accounts_http_requests_total{code="200",route="/api/health"} 1`)
}
