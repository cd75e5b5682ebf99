package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/periko-gan/linkcurt-backend/internal/auth"
	"github.com/periko-gan/linkcurt-backend/internal/models"
	"github.com/stretchr/testify/mock"
)

var (
	regularUser = models.User{ID: 1, Email: "user@example.com", Name: "User", Role: models.RoleUser}
	adminUser   = models.User{ID: 2, Email: "admin@example.com", Name: "Admin", Role: models.RoleAdmin}
)

type MockLinkService struct {
	mock.Mock
}

func (m *MockLinkService) ShortenLink(ctx context.Context, originalLink string, userID int64) (*models.Link, error) {
	args := m.Called(ctx, originalLink, userID)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (m *MockLinkService) ResolveShortLink(ctx context.Context, raw string) (*models.Link, error) {
	args := m.Called(ctx, raw)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (m *MockLinkService) GetLink(ctx context.Context, id int64) (*models.Link, error) {
	args := m.Called(ctx, id)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (m *MockLinkService) ModifyLink(ctx context.Context, id int64, originalLink string) (*models.Link, error) {
	args := m.Called(ctx, id, originalLink)
	link, _ := args.Get(0).(*models.Link)
	return link, args.Error(1)
}

func (m *MockLinkService) RemoveLink(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLinkService) FilterLinks(ctx context.Context, attribute, value string) ([]models.Link, error) {
	args := m.Called(ctx, attribute, value)
	links, _ := args.Get(0).([]models.Link)
	return links, args.Error(1)
}

func (m *MockLinkService) ListLinksByDateRange(ctx context.Context, from, to time.Time) ([]models.Link, error) {
	args := m.Called(ctx, from, to)
	links, _ := args.Get(0).([]models.Link)
	return links, args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, password, name string, birthDate *time.Time) (*models.User, error) {
	args := m.Called(ctx, email, password, name, birthDate)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	args := m.Called(ctx, email, password)
	user, _ := args.Get(1).(*models.User)
	return args.String(0), user, args.Error(2)
}

func (m *MockUserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *MockUserService) ModifyUser(ctx context.Context, id int64, name string, birthDate *time.Time) (*models.User, error) {
	args := m.Called(ctx, id, name, birthDate)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserService) RemoveUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockVisitService struct {
	mock.Mock
}

func (m *MockVisitService) RecordVisit(ctx context.Context, linkID int64, userID *int64, userAgent, ip string) (*models.Visit, error) {
	args := m.Called(ctx, linkID, userID, userAgent, ip)
	visit, _ := args.Get(0).(*models.Visit)
	return visit, args.Error(1)
}

func (m *MockVisitService) GetVisit(ctx context.Context, id int64) (*models.Visit, error) {
	args := m.Called(ctx, id)
	visit, _ := args.Get(0).(*models.Visit)
	return visit, args.Error(1)
}

func (m *MockVisitService) ListVisitsByLink(ctx context.Context, linkID int64) ([]models.Visit, error) {
	args := m.Called(ctx, linkID)
	visits, _ := args.Get(0).([]models.Visit)
	return visits, args.Error(1)
}

func (m *MockVisitService) ListVisitsByUser(ctx context.Context, userID int64) ([]models.Visit, error) {
	args := m.Called(ctx, userID)
	visits, _ := args.Get(0).([]models.Visit)
	return visits, args.Error(1)
}

func (m *MockVisitService) RemoveVisit(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// api bundles a router wired to mock services and tokens for both roles.
type api struct {
	links  *MockLinkService
	users  *MockUserService
	visits *MockVisitService

	handler http.Handler

	userToken  string
	adminToken string
}

func setupAPI(t testing.TB) *api {
	t.Helper()

	a := &api{
		links:  new(MockLinkService),
		users:  new(MockUserService),
		visits: new(MockVisitService),
	}

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	guard := NewGuard(tokens, a.users)

	logger := httplog.NewLogger("test", httplog.Options{Writer: io.Discard})
	a.handler = NewRouter(logger, a.links, a.users, a.visits, guard, "https://linkcurt.io/")

	var err error
	if a.userToken, err = tokens.Issue(regularUser.Email, regularUser.Role); err != nil {
		t.Fatal(err)
	}
	if a.adminToken, err = tokens.Issue(adminUser.Email, adminUser.Role); err != nil {
		t.Fatal(err)
	}

	a.users.On("GetUserByEmail", mock.Anything, regularUser.Email).Return(&regularUser, nil).Maybe()
	a.users.On("GetUserByEmail", mock.Anything, adminUser.Email).Return(&adminUser, nil).Maybe()

	return a
}

func (a *api) do(t testing.TB, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	return w
}

// envelope mirrors the API response shape for assertions.
type envelope struct {
	OK      bool            `json:"ok"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details []any           `json:"details"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t testing.TB, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	return env
}
