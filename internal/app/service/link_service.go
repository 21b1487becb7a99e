package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/minli-dev/minli/internal/app/model"
	"github.com/minli-dev/minli/internal/app/repository"
	"github.com/minli-dev/minli/internal/infra/codefilter"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	codeCharset    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength     = 8
	codeMaxRetries = 5
)

var (
	// ErrInvalidURL signals a destination that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid destination url")
	// ErrSelfReference signals an attempt to shorten one of our own links.
	ErrSelfReference = errors.New("cannot shorten a url from this service")
	// ErrAliasTaken signals a custom alias collision.
	ErrAliasTaken = errors.New("custom alias already in use")
	// ErrCodeExhausted signals repeated random-code collisions.
	ErrCodeExhausted = errors.New("failed to generate a unique short code")
)

// LinkService defines behaviour-level operations on links.
type LinkService interface {
	CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error)
	GetLink(ctx context.Context, code string) (*model.Link, error)
	ListLinks(ctx context.Context, limit, offset int) ([]model.Link, error)
	UpdateLink(ctx context.Context, code string, input UpdateLinkInput) (*model.Link, error)
}

type linkService struct {
	repo    repository.LinkRepository
	cache   *redis.Client
	filter  *codefilter.Filter
	baseURL string
}

// NewLinkService returns a service implementation backed by the given
// repository. cache and filter may be nil.
func NewLinkService(repo repository.LinkRepository, cache *redis.Client, filter *codefilter.Filter, baseURL string) LinkService {
	return &linkService{
		repo:    repo,
		cache:   cache,
		filter:  filter,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// CreateLinkInput captures data required to create a link.
type CreateLinkInput struct {
	Title       string
	OriginalURL string
	CustomAlias string
	// ExpiresIn is a preset ("6h", "12h", "24h", "7d", "30d", "90d", "never").
	// ExpiresAt wins when both are set.
	ExpiresIn string
	ExpiresAt *time.Time
	Password  string
	IsOneTime bool
}

// UpdateLinkInput captures fields that can be changed on an existing link.
// Password semantics: nil leaves protection unchanged, empty string removes
// it, anything else re-hashes.
type UpdateLinkInput struct {
	OriginalURL *string
	Title       *string
	IsActive    *bool
	ExpiresAt   *time.Time
	Password    *string
	IsOneTime   *bool
}

func (s *linkService) CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	if err := s.validateDestination(input.OriginalURL); err != nil {
		return nil, err
	}

	code, isCustom, err := s.pickCode(ctx, input.CustomAlias)
	if err != nil {
		return nil, err
	}

	expiresAt := input.ExpiresAt
	if expiresAt == nil {
		preset, ok := ExpiryFromPreset(input.ExpiresIn, time.Now())
		if !ok {
			return nil, fmt.Errorf("unknown expiration preset %q", input.ExpiresIn)
		}
		expiresAt = preset
	}

	link := &model.Link{
		ShortCode:     code,
		OriginalURL:   input.OriginalURL,
		Title:         input.Title,
		IsCustomAlias: isCustom,
		IsActive:      true,
		ExpiresAt:     expiresAt,
		IsOneTime:     input.IsOneTime,
	}

	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		link.IsPasswordProtected = true
		link.PasswordHash = string(hash)
	}

	if err := s.repo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	if s.filter != nil {
		s.filter.Add(code)
	}

	return link, nil
}

func (s *linkService) GetLink(ctx context.Context, code string) (*model.Link, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context, limit, offset int) ([]model.Link, error) {
	links, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

func (s *linkService) UpdateLink(ctx context.Context, code string, input UpdateLinkInput) (*model.Link, error) {
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	if input.OriginalURL != nil {
		if err := s.validateDestination(*input.OriginalURL); err != nil {
			return nil, err
		}
		link.OriginalURL = *input.OriginalURL
	}
	if input.Title != nil {
		link.Title = *input.Title
	}
	if input.IsActive != nil {
		link.IsActive = *input.IsActive
	}
	if input.ExpiresAt != nil {
		link.ExpiresAt = input.ExpiresAt
	}
	if input.IsOneTime != nil {
		link.IsOneTime = *input.IsOneTime
	}
	if input.Password != nil {
		if *input.Password == "" {
			link.IsPasswordProtected = false
			link.PasswordHash = ""
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hash password: %w", err)
			}
			link.IsPasswordProtected = true
			link.PasswordHash = string(hash)
		}
	}

	if err := s.repo.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}

	s.invalidate(ctx, code)
	return link, nil
}

func (s *linkService) validateDestination(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	// Shortening our own short links would build redirect cycles.
	if s.baseURL != "" && strings.HasPrefix(raw, s.baseURL) {
		return ErrSelfReference
	}
	return nil
}

func (s *linkService) pickCode(ctx context.Context, alias string) (code string, isCustom bool, err error) {
	if alias != "" {
		_, err := s.repo.GetByCode(ctx, alias)
		if err == nil {
			return "", false, ErrAliasTaken
		}
		if !errors.Is(err, repository.ErrLinkNotFound) {
			return "", false, fmt.Errorf("check alias: %w", err)
		}
		return alias, true, nil
	}

	for i := 0; i < codeMaxRetries; i++ {
		candidate, err := randomCode()
		if err != nil {
			return "", false, err
		}
		_, err = s.repo.GetByCode(ctx, candidate)
		if errors.Is(err, repository.ErrLinkNotFound) {
			return candidate, false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("check code: %w", err)
		}
	}
	return "", false, ErrCodeExhausted
}

func (s *linkService) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, linkCacheKey(code)).Err()
}

func randomCode() (string, error) {
	code := make([]byte, codeLength)
	charsetLength := big.NewInt(int64(len(codeCharset)))

	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, charsetLength)
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[n.Int64()]
	}

	return string(code), nil
}
