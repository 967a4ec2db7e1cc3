package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/workforce-management-api/internal/constants"
	"github.com/yukikurage/workforce-management-api/internal/models"
)

func userInGroup(id uint64, group string) *models.User {
	return &models.User{
		ID:       id,
		Username: group,
		Groups:   []models.Group{{Name: group}},
	}
}

type stubAuthenticator struct {
	users map[string]*models.User
}

func (a stubAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := a.users[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid token")
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	r.GET("/", handlers...)
	return r
}

func TestRequireAuth(t *testing.T) {
	manager := userInGroup(1, models.GroupManagers)
	auth := stubAuthenticator{users: map[string]*models.User{"good": manager}}
	r := newRouter(RequireAuth(auth))

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: "good"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: "bad"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireManager(t *testing.T) {
	tests := []struct {
		name     string
		user     *models.User
		expected int
	}{
		{"manager", userInGroup(1, models.GroupManagers), http.StatusOK},
		{"worker", userInGroup(2, models.GroupWorkers), http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setUser := func(c *gin.Context) {
				if tt.user != nil {
					c.Set(constants.ContextKeyUserID, tt.user.ID)
					c.Set(constants.ContextKeyUser, tt.user)
				}
			}
			r := newRouter(setUser, RequireManager())

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestFilterSensitive(t *testing.T) {
	out := filterSensitiveBody([]byte(`{"username":"u","password":"secret","nested":{"token":"t"}}`))
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, `"username":"u"`)
}
