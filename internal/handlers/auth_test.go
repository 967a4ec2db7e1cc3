package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/workforce-management-api/internal/constants"
	"github.com/yukikurage/workforce-management-api/internal/models"
	"github.com/yukikurage/workforce-management-api/internal/testutil"
)

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	env := newTestEnv(t)

	t.Run("defaults to the worker role", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
			"username":   "alice",
			"email":      "alice@example.com",
			"password":   "password123",
			"first_name": "Alice",
			"skills":     []string{"welding", " forklift "},
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		body := decode(t, w)
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, string(models.RoleWorker), body["role"])

		user, err := env.store.Users.FindByUsername(context.Background(), "alice", "Groups", "Profile")
		require.NoError(t, err)
		assert.True(t, user.IsWorker())
		require.NotNil(t, user.Profile)
		assert.Equal(t, []string{"welding", "forklift"}, []string(user.Profile.Skills))
	})

	t.Run("rejects a duplicate username", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
			"username": "alice",
			"password": "password123",
		}, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
			"username": "bob",
			"password": "short",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("reports the failed rules", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
			"username": "ab",
		}, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)

		body := decode(t, w)
		assert.Equal(t, "INVALID_INPUT", body["code"])
		details, ok := body["details"].([]interface{})
		require.True(t, ok, w.Body.String())
		assert.Contains(t, details, map[string]interface{}{"field": "username", "rule": "min"})
		assert.Contains(t, details, map[string]interface{}{"field": "password", "rule": "required"})
	})

	t.Run("omits details when the body is not an object", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", "alice", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotContains(t, decode(t, w), "details")
	})

	t.Run("rejects an unknown role", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/register", gin.H{
			"username": "carol",
			"password": "password123",
			"role":     "owner",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_RegisterManager(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register-manager", gin.H{
		"username":      "boss",
		"password":      "password123",
		"company_name":  "Acme",
		"work_location": "Osaka",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, string(models.RoleManager), body["role"])
	managerProfile, ok := body["manager_profile"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Acme", managerProfile["company_name"])

	user, err := env.store.Users.FindByUsername(context.Background(), "boss", "Groups")
	require.NoError(t, err)
	assert.True(t, user.IsManager())
}

func TestAuthHandler_LoginAndSession(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateWorker(t, env.db, "worker1")

	t.Run("wrong password", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/login", gin.H{
			"username": "worker1",
			"password": "not-the-password",
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, findCookie(w.Result().Cookies(), constants.AccessTokenCookieName))
	})

	cookies := env.login(t, "worker1")
	require.NotNil(t, findCookie(cookies, constants.AccessTokenCookieName))
	refresh := findCookie(cookies, constants.RefreshTokenCookieName)
	require.NotNil(t, refresh)
	assert.True(t, refresh.HttpOnly)

	t.Run("authenticated with cookie", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/auth/authenticated", nil, cookies)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["authenticated"])
	})

	t.Run("authenticated without cookie", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/auth/authenticated", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("me", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/api/auth/me", nil, cookies)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "worker1", decode(t, w)["username"])
	})

	t.Run("refresh rotates cookies", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/refresh", nil, []*http.Cookie{refresh})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotNil(t, findCookie(w.Result().Cookies(), constants.AccessTokenCookieName))
	})

	t.Run("refresh rejects an access token", func(t *testing.T) {
		access := findCookie(cookies, constants.AccessTokenCookieName)
		w := env.do(t, http.MethodPost, "/api/auth/refresh", nil, []*http.Cookie{
			{Name: constants.RefreshTokenCookieName, Value: access.Value},
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("logout clears cookies", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/logout", nil, cookies)
		require.Equal(t, http.StatusOK, w.Code)
		cleared := findCookie(w.Result().Cookies(), constants.AccessTokenCookieName)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
	})
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unknown email still succeeds", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/password-reset", gin.H{"email": "nobody@example.com"}, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad link is rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/auth/password-reset/confirm", gin.H{
			"uid":          "not-a-uid",
			"token":        "garbage",
			"new_password": "newpassword1",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
