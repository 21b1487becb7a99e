package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/minli-dev/minli/internal/app/model"
	"github.com/minli-dev/minli/internal/app/repository"
	"github.com/minli-dev/minli/internal/app/service"
	httpUtil "github.com/minli-dev/minli/internal/http/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type memoryLinkRepo struct {
	mu    sync.Mutex
	links map[string]*model.Link
}

func newMemoryLinkRepo(links ...*model.Link) *memoryLinkRepo {
	repo := &memoryLinkRepo{links: make(map[string]*model.Link)}
	for _, link := range links {
		repo.links[link.ShortCode] = link
	}
	return repo
}

func (r *memoryLinkRepo) Create(ctx context.Context, link *model.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[link.ShortCode] = link
	return nil
}

func (r *memoryLinkRepo) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	snapshot := *link
	return &snapshot, nil
}

func (r *memoryLinkRepo) List(ctx context.Context, limit, offset int) ([]model.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Link
	for _, link := range r.links {
		result = append(result, *link)
	}
	return result, nil
}

func (r *memoryLinkRepo) Update(ctx context.Context, link *model.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[link.ShortCode]; !ok {
		return repository.ErrLinkNotFound
	}
	r.links[link.ShortCode] = link
	return nil
}

func (r *memoryLinkRepo) ListCodes(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, 0, len(r.links))
	for code := range r.links {
		codes = append(codes, code)
	}
	return codes, nil
}

func (r *memoryLinkRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type failingLinkRepo struct{ memoryLinkRepo }

func (r *failingLinkRepo) GetByCode(ctx context.Context, code string) (*model.Link, error) {
	return nil, errors.New("connection refused")
}

type recordingUsage struct {
	mu       sync.Mutex
	consumed int
}

func (u *recordingUsage) Consume(ctx context.Context, code string, oneTime bool) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.consumed++
	return true, nil
}

func (u *recordingUsage) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.consumed
}

func newTestApp(repo repository.LinkRepository, secret []byte) (*fiber.App, *recordingUsage) {
	usage := &recordingUsage{}
	redirects := service.NewRedirectService(service.RedirectDeps{
		Resolver: service.NewLinkResolver(repo, nil, nil, nil),
		Usage:    usage,
	})

	app := fiber.New()
	NewRedirectHandler(RedirectDeps{Redirects: redirects, Secret: secret}).Register(app)
	return app, usage
}

func browserGet(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", testChromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	return req
}

func browserPost(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("User-Agent", testChromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return string(data)
}

func activeLink(code string) *model.Link {
	return &model.Link{
		ShortCode:   code,
		OriginalURL: "https://example.com/landing",
		IsActive:    true,
	}
}

func TestRedirectHandler_HumanRedirect(t *testing.T) {
	app, usage := newTestApp(newMemoryLinkRepo(activeLink("abc1")), nil)

	resp, err := app.Test(browserGet("/abc1"))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/landing", resp.Header.Get("Location"))
	assert.Equal(t, 1, usage.count())
}

func TestRedirectHandler_BotRedirectDoesNotConsume(t *testing.T) {
	app, usage := newTestApp(newMemoryLinkRepo(activeLink("abc1")), nil)

	req := httptest.NewRequest(http.MethodGet, "/abc1", nil)
	req.Header.Set("User-Agent", "Twitterbot/1.0")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/landing", resp.Header.Get("Location"))
	assert.Equal(t, 0, usage.count())
}

func TestRedirectHandler_UnknownCodeServesShell(t *testing.T) {
	app, usage := newTestApp(newMemoryLinkRepo(), nil)

	resp, err := app.Test(browserGet("/dashboard"))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `id="root"`)
	assert.Equal(t, 0, usage.count())
}

func TestRedirectHandler_TerminalPages(t *testing.T) {
	disabled := activeLink("off")
	disabled.IsActive = false

	past := time.Now().Add(-time.Hour)
	expired := activeLink("old")
	expired.ExpiresAt = &past

	used := activeLink("once")
	used.IsOneTime = true
	used.HasBeenUsed = true

	app, usage := newTestApp(newMemoryLinkRepo(disabled, expired, used), nil)

	tests := []struct {
		code     string
		contains string
	}{
		{code: "off", contains: "disabled"},
		{code: "old", contains: "expired"},
		{code: "once", contains: "already been used"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			resp, err := app.Test(browserGet("/" + tt.code))
			require.NoError(t, err)

			assert.Equal(t, fiber.StatusGone, resp.StatusCode)
			assert.Contains(t, body(t, resp), tt.contains)
		})
	}
	assert.Equal(t, 0, usage.count())
}

func TestRedirectHandler_PasswordFlow(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)

	link := activeLink("vault")
	link.IsPasswordProtected = true
	link.PasswordHash = string(hash)

	app, usage := newTestApp(newMemoryLinkRepo(link), nil)

	t.Run("GET renders the gate", func(t *testing.T) {
		resp, err := app.Test(browserGet("/vault"))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		page := body(t, resp)
		assert.Contains(t, page, "This link is protected")
		assert.NotContains(t, page, "Incorrect password")
		assert.Equal(t, 0, usage.count())
	})

	t.Run("wrong password re-renders with retry", func(t *testing.T) {
		resp, err := app.Test(browserPost("/vault", url.Values{"password": {"nope"}}))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, body(t, resp), "Incorrect password")
		assert.Equal(t, 0, usage.count())
	})

	t.Run("correct password redirects", func(t *testing.T) {
		resp, err := app.Test(browserPost("/vault", url.Values{"password": {"letmein"}}))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "https://example.com/landing", resp.Header.Get("Location"))
		assert.Equal(t, 1, usage.count())
	})
}

func TestRedirectHandler_FormTokenEnforced(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	require.NoError(t, err)

	link := activeLink("vault")
	link.IsPasswordProtected = true
	link.PasswordHash = string(hash)

	secret := []byte("handler-test-secret")
	app, usage := newTestApp(newMemoryLinkRepo(link), secret)

	t.Run("missing token re-renders the gate", func(t *testing.T) {
		resp, err := app.Test(browserPost("/vault", url.Values{"password": {"letmein"}}))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		page := body(t, resp)
		assert.Contains(t, page, "This link is protected")
		assert.NotContains(t, page, "Incorrect password")
		assert.Equal(t, 0, usage.count())
	})

	t.Run("valid token and password redirect", func(t *testing.T) {
		token, err := httpUtil.NewTokenSigner(secret, time.Minute).Issue("vault")
		require.NoError(t, err)

		resp, err := app.Test(browserPost("/vault", url.Values{
			"password": {"letmein"},
			"token":    {token},
		}))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, 1, usage.count())
	})

	t.Run("token for another code is rejected", func(t *testing.T) {
		token, err := httpUtil.NewTokenSigner(secret, time.Minute).Issue("other")
		require.NoError(t, err)

		resp, err := app.Test(browserPost("/vault", url.Values{
			"password": {"letmein"},
			"token":    {token},
		}))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Contains(t, body(t, resp), "This link is protected")
	})
}

func TestRedirectHandler_StorageErrorRendersServerError(t *testing.T) {
	app, _ := newTestApp(&failingLinkRepo{}, nil)

	resp, err := app.Test(browserGet("/abc1"))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Something went wrong")
}

func TestRedirectHandler_Health(t *testing.T) {
	app, _ := newTestApp(newMemoryLinkRepo(), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `"status":"ok"`)
}
