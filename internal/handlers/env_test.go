package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/workforce-management-api/internal/repository"
	"github.com/yukikurage/workforce-management-api/internal/services"
	"github.com/yukikurage/workforce-management-api/internal/testutil"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	store  *repository.Store
	svc    Services
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	tokens := services.NewTokenService(testutil.JWTSecret, 15*time.Minute, time.Hour)

	svc := Services{
		Auth:     services.NewAuthService(store.Users, tokens, services.NewLogMailer("no-reply@test.local"), "http://localhost:3000", 4),
		Profiles: services.NewProfileService(store),
		Projects: services.NewProjectService(store),
		Tasks:    services.NewTaskService(store),
		Time:     services.NewTimeTrackingService(store),
		Points:   services.NewPointsService(store),
		Rewards:  services.NewRewardService(store, nil),
		Stats:    services.NewStatsService(store),
	}

	return &testEnv{
		db:     db,
		store:  store,
		svc:    svc,
		router: NewRouter(svc, db, CookieOptions{}),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// login returns the auth cookies for a user created with testutil.Password
func (e *testEnv) login(t *testing.T, username string) []*http.Cookie {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"username": username,
		"password": testutil.Password,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
