package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"library-service/internal/adapter/gin/handler"
	"library-service/internal/adapter/session"
	"library-service/internal/config"
	domain "library-service/internal/domain/library"
	userdomain "library-service/internal/domain/user"
	"library-service/internal/usecase/auth"
	"library-service/internal/usecase/library"
	pkgerrors "library-service/pkg/errors"
)

// stubAuthService implements auth.Service with pluggable behavior
type stubAuthService struct {
	loginFn    func(ctx context.Context, in auth.LoginRequest) (*userdomain.User, error)
	registerFn func(ctx context.Context, in auth.RegisterRequest) error
}

func (s *stubAuthService) Login(ctx context.Context, in auth.LoginRequest) (*userdomain.User, error) {
	return s.loginFn(ctx, in)
}

func (s *stubAuthService) Register(ctx context.Context, in auth.RegisterRequest) error {
	return s.registerFn(ctx, in)
}

// stubLibraryService implements library.Service and records circulation calls
type stubLibraryService struct {
	books       []domain.Book
	issueErr    error
	returnErr   error
	lastIssue   library.IssueRequest
	lastReturn  library.ReturnRequest
	lastHistory library.HistoryRequest
}

func (s *stubLibraryService) ListIssuable(ctx context.Context, userID int64, query string) ([]domain.Book, error) {
	return s.books, nil
}

func (s *stubLibraryService) ListReturnable(ctx context.Context, userID int64) ([]domain.Book, error) {
	return s.books, nil
}

func (s *stubLibraryService) IssueBook(ctx context.Context, in library.IssueRequest) error {
	s.lastIssue = in
	return s.issueErr
}

func (s *stubLibraryService) ReturnBook(ctx context.Context, in library.ReturnRequest) error {
	s.lastReturn = in
	return s.returnErr
}

func (s *stubLibraryService) History(ctx context.Context, in library.HistoryRequest) (*library.HistoryResponse, error) {
	s.lastHistory = in
	return &library.HistoryResponse{
		Items:      []domain.IssuedItem{},
		Pagination: domain.NewPagination(0, in.Page, library.HistoryPageSize),
	}, nil
}

type testEnv struct {
	router  *gin.Engine
	store   *session.RedisStore
	auth    *stubAuthService
	library *stubLibraryService
}

func setupTestRouter(t *testing.T) *testEnv {
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	log := zaptest.NewLogger(t)
	store := session.NewRedisStore(client, 30*time.Minute, log)

	cfg := &config.Config{
		App: config.AppConfig{
			TemplatesGlob: "../../../../web/templates/*.html",
			StaticDir:     "../../../../web/static",
		},
		Session: config.SessionConfig{
			CookieName: "library_session",
			TTLSeconds: 1800,
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}

	authStub := &stubAuthService{
		loginFn: func(ctx context.Context, in auth.LoginRequest) (*userdomain.User, error) {
			return nil, pkgerrors.ErrInvalidCredentials
		},
		registerFn: func(ctx context.Context, in auth.RegisterRequest) error {
			return nil
		},
	}
	libraryStub := &stubLibraryService{}

	authHandler := handler.NewAuthHandler(authStub, store, cfg.Session, log)
	libraryHandler := handler.NewLibraryHandler(libraryStub, store, cfg.Session, log)

	return &testEnv{
		router:  Setup(cfg, authHandler, libraryHandler, store, client, log),
		store:   store,
		auth:    authStub,
		library: libraryStub,
	}
}

func (e *testEnv) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	e.router.ServeHTTP(w, req)
	return w
}

// loginCookie creates an authenticated session directly in the store.
func (e *testEnv) loginCookie(t *testing.T, userID int64, username string) *http.Cookie {
	sess, err := e.store.Create(context.Background(), userID, username)
	require.NoError(t, err)
	return &http.Cookie{Name: "library_session", Value: sess.ID}
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "library_session" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

// ==================== PUBLIC ROUTES ====================

func TestHealthEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	w := env.get("/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestHome_Anonymous(t *testing.T) {
	env := setupTestRouter(t)

	w := env.get("/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Library Management")
	assert.Contains(t, w.Body.String(), "Log in or register")
}

func TestHome_Authenticated(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.loginCookie(t, 7, "jdoe")

	w := env.get("/", cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome back, jdoe")
}

func TestUnknownAction_GetRendersHome(t *testing.T) {
	env := setupTestRouter(t)

	w := env.get("/no_such_action", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Library Management")
}

func TestUnknownAction_PostRedirectsHome(t *testing.T) {
	env := setupTestRouter(t)

	w := env.postForm("/no_such_action", url.Values{}, nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

// ==================== AUTH FLOWS ====================

func TestLogin_InvalidCredentials(t *testing.T) {
	env := setupTestRouter(t)

	form := url.Values{"username": {"jdoe"}, "password": {"wrong"}}
	w := env.postForm("/login/", form, nil)

	// Re-rendered, not redirected, with the flash drained into the page
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid Credentials")
	assert.Contains(t, w.Body.String(), `value="jdoe"`)
}

func TestLogin_Success_SetsSessionCookie(t *testing.T) {
	env := setupTestRouter(t)
	env.auth.loginFn = func(ctx context.Context, in auth.LoginRequest) (*userdomain.User, error) {
		return &userdomain.User{ID: 7, Username: in.Username}, nil
	}

	form := url.Values{"username": {"jdoe"}, "password": {"secret123"}}
	w := env.postForm("/login/", form, nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	cookie := sessionCookie(t, w)
	sess, err := env.store.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, int64(7), sess.UserID)
	assert.Equal(t, "jdoe", sess.Username)
}

func TestLogin_MissingFields(t *testing.T) {
	env := setupTestRouter(t)

	w := env.postForm("/login/", url.Values{"username": {"jdoe"}}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Username and password are required")
}

func TestRegister_SuccessFlashesOnLoginPage(t *testing.T) {
	env := setupTestRouter(t)

	form := url.Values{
		"first_name": {"John"},
		"last_name":  {"Doe"},
		"username":   {"jdoe"},
		"email":      {"jdoe@example.com"},
		"password1":  {"secret123"},
		"password2":  {"secret123"},
	}
	w := env.postForm("/register/", form, nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/", w.Header().Get("Location"))

	// The flash survives the redirect via the anonymous session cookie
	cookie := sessionCookie(t, w)
	next := env.get("/login/", cookie)
	assert.Contains(t, next.Body.String(), "Registration successful")

	// Drained on first render
	again := env.get("/login/", cookie)
	assert.NotContains(t, again.Body.String(), "Registration successful")
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := setupTestRouter(t)
	env.auth.registerFn = func(ctx context.Context, in auth.RegisterRequest) error {
		return pkgerrors.NewAlreadyExistsError("username", "Username already exists")
	}

	form := url.Values{
		"first_name": {"John"},
		"last_name":  {"Doe"},
		"username":   {"jdoe"},
		"email":      {"jdoe@example.com"},
		"password1":  {"secret123"},
		"password2":  {"secret123"},
	}
	w := env.postForm("/register/", form, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Username already exists")
	// The submitted values are kept in the re-rendered form
	assert.Contains(t, w.Body.String(), `value="jdoe@example.com"`)
}

func TestLogout_ClearsSession(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.loginCookie(t, 7, "jdoe")

	w := env.get("/logout", cookie)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	sess, err := env.store.Get(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLogout_WithoutSession(t *testing.T) {
	env := setupTestRouter(t)

	w := env.get("/logout", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

// ==================== CIRCULATION FLOWS ====================

func TestIssuePage_RequiresLogin(t *testing.T) {
	env := setupTestRouter(t)

	w := env.get("/issue", nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login/", w.Header().Get("Location"))
}

func TestIssuePage_ListsBooks(t *testing.T) {
	env := setupTestRouter(t)
	env.library.books = []domain.Book{
		{ID: 1, Title: "The Go Programming Language", Author: "Donovan", Quantity: 2},
	}
	cookie := env.loginCookie(t, 7, "jdoe")

	w := env.get("/issue", cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "The Go Programming Language")
}

func TestIssue_PostRedirectGet(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.loginCookie(t, 7, "jdoe")

	w := env.postForm("/issue", url.Values{"book_id": {"5"}}, cookie)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/issue", w.Header().Get("Location"))
	assert.Equal(t, library.IssueRequest{UserID: 7, BookID: 5}, env.library.lastIssue)

	next := env.get("/issue", cookie)
	assert.Contains(t, next.Body.String(), "Book issued successfully")
}

func TestIssue_NotAvailableFlash(t *testing.T) {
	env := setupTestRouter(t)
	env.library.issueErr = pkgerrors.NewUnavailableError("Book not available")
	cookie := env.loginCookie(t, 7, "jdoe")

	w := env.postForm("/issue", url.Values{"book_id": {"5"}}, cookie)
	assert.Equal(t, http.StatusFound, w.Code)

	next := env.get("/issue", cookie)
	assert.Contains(t, next.Body.String(), "Book not available")
}

func TestIssue_MissingBookID(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.loginCookie(t, 7, "jdoe")

	w := env.postForm("/issue", url.Values{}, cookie)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/issue", w.Header().Get("Location"))

	next := env.get("/issue", cookie)
	assert.Contains(t, next.Body.String(), "Select a book to issue")
}

func TestReturn_PostRedirectGet(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.loginCookie(t, 7, "jdoe")

	w := env.postForm("/return_item", url.Values{"book_id": {"3"}}, cookie)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/return_item", w.Header().Get("Location"))
	assert.Equal(t, library.ReturnRequest{UserID: 7, BookID: 3}, env.library.lastReturn)

	next := env.get("/return_item", cookie)
	assert.Contains(t, next.Body.String(), "Book returned successfully")
}

func TestHistory_PageParam(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.loginCookie(t, 7, "jdoe")

	w := env.get("/history?page=3", cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, library.HistoryRequest{UserID: 7, Page: 3}, env.library.lastHistory)
}

func TestHistory_MalformedPageFallsBackToFirst(t *testing.T) {
	env := setupTestRouter(t)
	cookie := env.loginCookie(t, 7, "jdoe")

	w := env.get("/history?page=abc", cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.library.lastHistory.Page)
}
