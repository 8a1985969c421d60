package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carenest/internal/access"
	"carenest/internal/analytics"
	"carenest/internal/cache"
	"carenest/internal/database"
	"carenest/internal/models"
	"carenest/internal/repository"
	"carenest/internal/security"
	"carenest/internal/service"
)

type noopMailer struct{}

func (noopMailer) SendCaregiverInvite(context.Context, service.CaregiverInvite) error { return nil }

type testServer struct {
	*httptest.Server
	users *repository.UserRepository
	auth  *service.AuthService
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.RunMigrations(context.Background(), "../../migrations")
	require.NoError(t, err)

	logger := zap.NewNop()
	loc := time.UTC

	users := repository.NewUserRepository(db)
	children := repository.NewChildRepository(db)
	activities := repository.NewActivityRepository(db)
	behaviors := repository.NewBehaviorRepository(db)
	library := repository.NewLibraryRepository(db)
	resolver := access.NewResolver(users, children)
	aggregator := analytics.NewAggregator(behaviors, activities, logger)

	c := cache.New(cache.NewMemoryStore(100, time.Minute), time.Minute, logger)
	t.Cleanup(func() { c.Close() })
	limiter := security.NewRateLimiter(rateLimit, time.Minute)
	t.Cleanup(limiter.Stop)

	authService := service.NewAuthService(users, security.NewTokenManager("test-secret", time.Hour), logger)
	userService := service.NewUserService(users, resolver, noopMailer{}, logger)
	analyticsService := service.NewAnalyticsService(aggregator, resolver, users, children, library, loc)
	libraryService := service.NewLibraryService(library, c, "learning_library:", time.Minute, logger)

	router := NewRouter(NewMiddleware(authService, limiter, logger), Handlers{
		Auth:     NewAuthHandler(authService, nil, "", logger),
		Users:    NewUserHandler(userService, logger),
		Admin:    NewAdminHandler(userService, analyticsService, libraryService, logger),
		Children: NewChildHandler(service.NewChildService(children, resolver, loc), service.NewBehaviorService(behaviors, resolver, loc), analyticsService, logger),
		Activity: NewActivityHandler(service.NewActivityService(activities, resolver, aggregator, loc, logger), logger),
		Events:   NewEventHandler(service.NewEventService(repository.NewEventRepository(db), children, resolver, loc), logger),
		Records: NewRecordHandler(service.NewRecordService(repository.NewDocumentRepository(db),
			repository.NewNoteRepository(db), repository.NewProviderRepository(db), resolver, loc), logger),
		Library: NewLibraryHandler(libraryService, logger),
		Inspire: NewInspirationHandler(service.NewInspirationService(repository.NewInspirationRepository(db), loc, logger), logger),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, users: users, auth: authService}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	status, resp := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"fullName": "Parent", "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)
	var result service.AuthResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	return result.Token
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	hash, err := security.HashPassword("password123")
	require.NoError(t, err)
	u := &models.User{FullName: "Admin", Email: "admin@example.com", PasswordHash: hash, Role: models.RoleAdmin}
	require.NoError(t, s.users.Create(context.Background(), u))
	result, err := s.auth.Login(context.Background(), "admin@example.com", "password123")
	require.NoError(t, err)
	return result.Token
}

func TestRouterRequiresAuth(t *testing.T) {
	srv := newTestServer(t, 100)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"valid token", srv.register(t, "p@example.com"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := srv.do(t, http.MethodGet, "/api/v1/children", tt.token, nil)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status == http.StatusOK, resp.Success)
		})
	}
}

func TestRouterAdminRoutes(t *testing.T) {
	srv := newTestServer(t, 100)
	parent := srv.register(t, "p@example.com")
	admin := srv.adminToken(t)

	status, _ := srv.do(t, http.MethodGet, "/api/v1/admin/overview", parent, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp := srv.do(t, http.MethodGet, "/api/v1/admin/overview", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var overview service.Overview
	require.NoError(t, json.Unmarshal(resp.Data, &overview))
	assert.Equal(t, 1, overview.Parents)

	status, _ = srv.do(t, http.MethodPost, "/api/v1/library", parent, map[string]string{
		"title": "Sleep", "content": "Books", "category": "Parent_Support",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = srv.do(t, http.MethodPost, "/api/v1/library", admin, map[string]string{
		"title": "Sleep", "content": "Books", "category": "Parent_Support",
	})
	assert.Equal(t, http.StatusCreated, status)

	status, resp = srv.do(t, http.MethodGet, "/api/v1/library", parent, nil)
	require.Equal(t, http.StatusOK, status)
	var page models.Page[models.Article]
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, 1, page.Meta.Total)

	status, resp = srv.do(t, http.MethodGet, "/api/v1/admin/cache/stats", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal(resp.Data, &stats))
	assert.Equal(t, 1, stats.TotalKeys)
}

func TestRouterChildDashboardFlow(t *testing.T) {
	srv := newTestServer(t, 100)
	token := srv.register(t, "p@example.com")
	stranger := srv.register(t, "s@example.com")

	status, resp := srv.do(t, http.MethodPost, "/api/v1/children", token, map[string]any{
		"fullName": "Mia", "diagnoses": []string{"ASD"},
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)
	var child models.Child
	require.NoError(t, json.Unmarshal(resp.Data, &child))

	status, resp = srv.do(t, http.MethodPost, "/api/v1/children/"+itoa(child.ID)+"/behaviors", token, map[string]any{
		"labels": []string{
			analytics.LabelPottyAttempt, analytics.LabelPottyAttempt,
			analytics.LabelPottySuccess, analytics.LabelPottySuccess, analytics.LabelPottySuccess,
			"Tried Peas", "Stayed Calm",
		},
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)

	status, resp = srv.do(t, http.MethodGet, "/api/v1/children/"+itoa(child.ID)+"/dashboard?period=month", token, nil)
	require.Equal(t, http.StatusOK, status, resp.Message)
	var summary analytics.Summary
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Equal(t, analytics.PeriodMonth, summary.Period)
	assert.Equal(t, "60 %", summary.Potty.Percentage)
	assert.Equal(t, []string{"Peas"}, summary.Foods.Foods)
	assert.Equal(t, 1, summary.Positive.Total)

	status, _ = srv.do(t, http.MethodGet, "/api/v1/children/"+itoa(child.ID)+"/dashboard", stranger, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = srv.do(t, http.MethodGet, "/api/v1/children/"+itoa(child.ID)+"/dashboard?period=year", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, resp.Message, "Invalid period")

	status, _ = srv.do(t, http.MethodGet, "/api/v1/children/999/dashboard", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = srv.do(t, http.MethodGet, "/api/v1/children/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouterActivityCompletedTwice(t *testing.T) {
	srv := newTestServer(t, 100)
	token := srv.register(t, "p@example.com")

	status, resp := srv.do(t, http.MethodPost, "/api/v1/activities", token, map[string]string{"title": "Puzzle"})
	require.Equal(t, http.StatusCreated, status, resp.Message)
	var activity models.Activity
	require.NoError(t, json.Unmarshal(resp.Data, &activity))

	path := "/api/v1/activities/" + itoa(activity.ID) + "/complete"
	status, _ = srv.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusCreated, status)

	status, resp = srv.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Activity already marked as completed today", resp.Message)

	status, resp = srv.do(t, http.MethodGet, "/api/v1/activities/summary", token, nil)
	require.Equal(t, http.StatusOK, status)
	var summary service.ActivitySummary
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Equal(t, 1, summary.Activities.TotalActivityDays)
}

func TestRouterRateLimit(t *testing.T) {
	srv := newTestServer(t, 2)
	body := map[string]string{"email": "nobody@example.com", "password": "password123"}

	for i := 0; i < 2; i++ {
		status, _ := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
		assert.Equal(t, http.StatusForbidden, status)
	}
	status, resp := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, ErrTooManyRequests, resp.Message)
}

func TestRouterValidationErrors(t *testing.T) {
	srv := newTestServer(t, 100)
	token := srv.register(t, "p@example.com")

	status, resp := srv.do(t, http.MethodPost, "/api/v1/events", token, map[string]any{
		"title": "Zoo", "date": "tomorrow",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, resp.Success)

	status, _ = srv.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"fullName": "Again", "email": "p@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestRouterInspirations(t *testing.T) {
	srv := newTestServer(t, 100)
	parent := srv.register(t, "p@example.com")
	admin := srv.adminToken(t)

	status, resp := srv.do(t, http.MethodGet, "/api/v1/inspirations/today", parent, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "No inspiration for today", resp.Message)

	status, _ = srv.do(t, http.MethodPost, "/api/v1/inspirations", parent, map[string]string{"text": "Hi"})
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = srv.do(t, http.MethodPost, "/api/v1/inspirations", admin, map[string]string{"text": "One step at a time"})
	require.Equal(t, http.StatusCreated, status, resp.Message)
	var created models.Inspiration
	require.NoError(t, json.Unmarshal(resp.Data, &created))

	status, _ = srv.do(t, http.MethodPost, "/api/v1/inspirations/"+itoa(created.ID)+"/send", admin, nil)
	require.Equal(t, http.StatusOK, status)

	status, resp = srv.do(t, http.MethodGet, "/api/v1/inspirations/today", parent, nil)
	require.Equal(t, http.StatusOK, status)
	var today models.Inspiration
	require.NoError(t, json.Unmarshal(resp.Data, &today))
	assert.Equal(t, "One step at a time", today.Text)
}
