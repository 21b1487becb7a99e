package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/minli-dev/minli/internal/app/model"
	"github.com/minli-dev/minli/internal/app/repository"
	"github.com/minli-dev/minli/internal/app/service"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	BaseURL     string
}

// APIHandler implements the link management endpoints.
type APIHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	baseURL     string
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:      logger,
		linkService: deps.LinkService,
		baseURL:     deps.BaseURL,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		links := api.Group("/links")
		{
			links.Post("/", h.CreateLink)
			links.Get("/", h.ListLinks)
			links.Get("/:code", h.GetLink)
			links.Patch("/:code", h.UpdateLink)
		}
	}
}

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	Title       string     `json:"title,omitempty"`
	URL         string     `json:"url"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	ExpiresIn   string     `json:"expires_in,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Password    string     `json:"password,omitempty"`
	IsOneTime   bool       `json:"is_one_time,omitempty"`
}

// UpdateLinkRequest represents the request body for updating a link.
// A present-but-empty password removes protection.
type UpdateLinkRequest struct {
	URL       *string    `json:"url,omitempty"`
	Title     *string    `json:"title,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Password  *string    `json:"password,omitempty"`
	IsOneTime *bool      `json:"is_one_time,omitempty"`
}

// LinkResponse is the API representation of a link. The password hash never
// leaves the service.
type LinkResponse struct {
	Code                string     `json:"code"`
	ShortURL            string     `json:"short_url"`
	URL                 string     `json:"url"`
	Title               string     `json:"title,omitempty"`
	IsCustomAlias       bool       `json:"is_custom_alias"`
	IsActive            bool       `json:"is_active"`
	IsPasswordProtected bool       `json:"is_password_protected"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
	IsOneTime           bool       `json:"is_one_time"`
	HasBeenUsed         bool       `json:"has_been_used"`
	ClickCount          int64      `json:"click_count"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (h *APIHandler) toResponse(link *model.Link) LinkResponse {
	return LinkResponse{
		Code:                link.ShortCode,
		ShortURL:            fmt.Sprintf("%s/%s", h.baseURL, link.ShortCode),
		URL:                 link.OriginalURL,
		Title:               link.Title,
		IsCustomAlias:       link.IsCustomAlias,
		IsActive:            link.IsActive,
		IsPasswordProtected: link.IsPasswordProtected,
		ExpiresAt:           link.ExpiresAt,
		IsOneTime:           link.IsOneTime,
		HasBeenUsed:         link.HasBeenUsed,
		ClickCount:          link.ClickCount,
		CreatedAt:           link.CreatedAt,
	}
}

// CreateLink handles POST /api/links
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}

	link, err := h.linkService.CreateLink(h.ctx(c), service.CreateLinkInput{
		Title:       req.Title,
		OriginalURL: req.URL,
		CustomAlias: req.CustomAlias,
		ExpiresIn:   req.ExpiresIn,
		ExpiresAt:   req.ExpiresAt,
		Password:    req.Password,
		IsOneTime:   req.IsOneTime,
	})
	if err != nil {
		return h.createError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(h.toResponse(link))
}

func (h *APIHandler) createError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrSelfReference):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrAliasTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error("failed to create link", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create link",
		})
	}
}

// ListLinks handles GET /api/links
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	limit := 20
	offset := 0

	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 100 {
		limit = parsed
	}
	if parsed := c.QueryInt("offset"); parsed > 0 {
		offset = parsed
	}

	links, err := h.linkService.ListLinks(h.ctx(c), limit, offset)
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list links",
		})
	}

	response := make([]LinkResponse, len(links))
	for i := range links {
		response[i] = h.toResponse(&links[i])
	}

	return c.JSON(fiber.Map{
		"links":  response,
		"limit":  limit,
		"offset": offset,
		"count":  len(response),
	})
}

// GetLink handles GET /api/links/:code
func (h *APIHandler) GetLink(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code is required",
		})
	}

	link, err := h.linkService.GetLink(h.ctx(c), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		}
		h.logger.Error("failed to get link", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to get link",
		})
	}

	return c.JSON(h.toResponse(link))
}

// UpdateLink handles PATCH /api/links/:code
func (h *APIHandler) UpdateLink(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code is required",
		})
	}

	var req UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	link, err := h.linkService.UpdateLink(h.ctx(c), code, service.UpdateLinkInput{
		OriginalURL: req.URL,
		Title:       req.Title,
		IsActive:    req.IsActive,
		ExpiresAt:   req.ExpiresAt,
		Password:    req.Password,
		IsOneTime:   req.IsOneTime,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrLinkNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrSelfReference):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			h.logger.Error("failed to update link", zap.Error(err), zap.String("code", code))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update link",
			})
		}
	}

	return c.JSON(h.toResponse(link))
}

func (h *APIHandler) ctx(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
