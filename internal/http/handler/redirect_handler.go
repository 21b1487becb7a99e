package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/minli-dev/minli/internal/app/service"
	httpUtil "github.com/minli-dev/minli/internal/http/util"
	"github.com/minli-dev/minli/internal/http/view"
	"go.uber.org/zap"
)

const formTokenTTL = 5 * time.Minute

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger    *zap.Logger
	Redirects *service.RedirectService
	Secret    []byte
}

// RedirectHandler serves the resolution flow: redirect, password gate,
// terminal error pages, and the SPA fall-through.
type RedirectHandler struct {
	logger    *zap.Logger
	redirects *service.RedirectService
	tokens    *httpUtil.TokenSigner
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:    logger,
		redirects: deps.Redirects,
		tokens:    httpUtil.NewTokenSigner(deps.Secret, formTokenTTL),
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/", h.AppShell)
	router.Get("/:code", h.Resolve)
	router.Post("/:code", h.Submit)
}

// Health is a simple endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "minli",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// AppShell serves the frontend shell.
func (h *RedirectHandler) AppShell(c *fiber.Ctx) error {
	return h.renderShell(c)
}

// Resolve handles GET /:code.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	return h.run(c, "")
}

// Submit handles POST /:code with the password form. The form carries a
// signed token tying the submission to a recently rendered gate page; a
// stale or missing token just re-renders the gate rather than counting as
// a failed attempt.
func (h *RedirectHandler) Submit(c *fiber.Ctx) error {
	code := c.Params("code")
	password := c.FormValue("password")

	if h.tokens.Enabled() {
		if err := h.tokens.Validate(code, c.FormValue("token")); err != nil {
			return h.renderPasswordPage(c, code, false)
		}
	}

	return h.run(c, password)
}

func (h *RedirectHandler) run(c *fiber.Ctx, password string) error {
	code := c.Params("code")
	if code == "" {
		return h.renderShell(c)
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	outcome, err := h.redirects.Resolve(ctx, service.ResolveRequest{
		Code:      code,
		UserAgent: c.Get("User-Agent"),
		Headers:   collectHeaders(c),
		Password:  password,
	})
	if err != nil {
		h.logger.Error("resolution failed", zap.Error(err), zap.String("code", code))
		return h.renderServerError(c)
	}

	switch outcome.Kind {
	case service.OutcomePassThrough:
		return h.renderShell(c)
	case service.OutcomeError:
		return h.renderErrorPage(c, code, outcome.Error)
	case service.OutcomePasswordRequired:
		return h.renderPasswordPage(c, code, outcome.Retry)
	case service.OutcomeRedirect:
		h.logger.Debug("redirecting short link",
			zap.String("code", code), zap.String("target", outcome.Destination))
		return c.Redirect(outcome.Destination, fiber.StatusFound)
	default:
		return h.renderServerError(c)
	}
}

func (h *RedirectHandler) renderShell(c *fiber.Ctx) error {
	html, err := view.RenderAppShell()
	if err != nil {
		h.logger.Error("failed to render app shell", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return sendHTML(c, fiber.StatusOK, html)
}

func (h *RedirectHandler) renderErrorPage(c *fiber.Ctx, code string, kind service.ErrorKind) error {
	data := view.ErrorPageData{Code: code}
	switch kind {
	case service.ErrorDisabled:
		data.Title = "Link disabled"
		data.Heading = "This link has been disabled"
		data.Message = "The owner of this link has turned it off."
	case service.ErrorExpired:
		data.Title = "Link expired"
		data.Heading = "This link has expired"
		data.Message = "The link is past its expiration date and no longer works."
	case service.ErrorUsedUp:
		data.Title = "Link already used"
		data.Heading = "This one-time link has already been used"
		data.Message = "One-time links stop working after their first visit."
	}

	html, err := view.RenderErrorPage(data)
	if err != nil {
		h.logger.Error("failed to render error page", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return sendHTML(c, fiber.StatusGone, html)
}

func (h *RedirectHandler) renderPasswordPage(c *fiber.Ctx, code string, retry bool) error {
	token := ""
	if h.tokens.Enabled() {
		t, err := h.tokens.Issue(code)
		if err != nil {
			h.logger.Error("failed to issue form token", zap.Error(err))
		} else {
			token = t
		}
	}

	html, err := view.RenderPasswordPage(view.PasswordPageData{
		Code:  code,
		Token: token,
		Retry: retry,
	})
	if err != nil {
		h.logger.Error("failed to render password page", zap.Error(err))
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return sendHTML(c, fiber.StatusOK, html)
}

func (h *RedirectHandler) renderServerError(c *fiber.Ctx) error {
	html, err := view.RenderErrorPage(view.ErrorPageData{
		Title:   "Something went wrong",
		Heading: "Something went wrong",
		Message: "We could not resolve this link right now. Please try again shortly.",
	})
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	return sendHTML(c, fiber.StatusInternalServerError, html)
}

func sendHTML(c *fiber.Ctx, status int, html string) error {
	return c.Status(status).Type("html", "utf-8").SendString(html)
}

func collectHeaders(c *fiber.Ctx) map[string]string {
	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers[string(key)] = string(value)
	})
	return headers
}
