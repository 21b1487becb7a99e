package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/minli-dev/minli/internal/app/model"
	"github.com/minli-dev/minli/internal/app/repository"
	"github.com/minli-dev/minli/internal/infra/codefilter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const linkCacheTTL = 10 * time.Minute

func linkCacheKey(code string) string {
	return "link:" + code
}

// LinkResolver fetches a link record and evaluates its lifecycle state.
// It never mutates anything; the requester's identity is not its concern.
type LinkResolver struct {
	repo   repository.LinkRepository
	cache  *redis.Client
	filter *codefilter.Filter
	logger *zap.Logger
	now    func() time.Time
}

// NewLinkResolver builds a resolver. cache and filter may be nil; both are
// read-path accelerations, not correctness requirements.
func NewLinkResolver(repo repository.LinkRepository, cache *redis.Client, filter *codefilter.Filter, logger *zap.Logger) *LinkResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkResolver{
		repo:   repo,
		cache:  cache,
		filter: filter,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve evaluates the lifecycle state of the given short code. A storage
// failure comes back as a non-nil error, never folded into LookupNotFound:
// "we don't know" must render differently from "it doesn't exist".
func (r *LinkResolver) Resolve(ctx context.Context, code string) (Lookup, error) {
	// Definitely-unknown codes are SPA routes; skip storage entirely.
	if r.filter != nil && !r.filter.MayContain(code) {
		return Lookup{State: LookupNotFound}, nil
	}

	link, err := r.loadLink(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return Lookup{State: LookupNotFound}, nil
		}
		return Lookup{}, fmt.Errorf("resolve %q: %w", code, err)
	}

	// Check order is user-facing: a disabled link reads "disabled by owner"
	// even when it also happens to be expired.
	if !link.IsActive {
		return Lookup{State: LookupDisabled}, nil
	}
	if link.Expired(r.now()) {
		return Lookup{State: LookupExpired}, nil
	}
	if link.IsOneTime && link.HasBeenUsed {
		return Lookup{State: LookupUsedUp}, nil
	}

	return Lookup{State: LookupValid, Link: link}, nil
}

func (r *LinkResolver) loadLink(ctx context.Context, code string) (*model.Link, error) {
	if r.cache != nil {
		val, err := r.cache.Get(ctx, linkCacheKey(code)).Result()
		if err == nil {
			var link model.Link
			if err := json.Unmarshal([]byte(val), &link); err == nil {
				return &link, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			r.logger.Debug("link cache read failed", zap.Error(err), zap.String("code", code))
		}
	}

	link, err := r.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)
	return link, nil
}

// cacheLink stores active, reusable links. One-time links are excluded: a
// stale cached copy could hand out a consumed link as fresh.
func (r *LinkResolver) cacheLink(ctx context.Context, link *model.Link) {
	if r.cache == nil || link.IsOneTime || !link.IsActive {
		return
	}
	data, err := json.Marshal(link)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, linkCacheKey(link.ShortCode), data, linkCacheTTL).Err(); err != nil {
		r.logger.Debug("link cache write failed", zap.Error(err), zap.String("code", link.ShortCode))
	}
}
