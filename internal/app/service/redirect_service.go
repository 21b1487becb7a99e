package service

import (
	"context"

	"github.com/minli-dev/minli/internal/app/repository"
	infraProm "github.com/minli-dev/minli/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ClickRecorder receives click events for permitted human redirects.
// Implementations must be safe to call from short-lived goroutines.
type ClickRecorder interface {
	Record(linkCode, userAgent string) error
}

// ResolveRequest carries the request metadata the pipeline needs.
type ResolveRequest struct {
	Code      string
	UserAgent string
	// Headers are the inbound header names/values; key casing is irrelevant.
	Headers map[string]string
	// Password is the submitted link password, empty when none was sent.
	Password string
}

// RedirectService runs the full resolution pipeline: classify the client,
// resolve the link, apply access policy, and for permitted human redirects
// consume usage and record the click.
type RedirectService struct {
	resolver *LinkResolver
	bots     BotDetector
	policy   *PolicyEngine
	usage    repository.UsageRepository
	clicks   ClickRecorder
	logger   *zap.Logger
}

// RedirectDeps groups the pipeline's collaborators. Usage and Clicks may be
// nil, in which case redirects still work but nothing is accounted.
type RedirectDeps struct {
	Resolver *LinkResolver
	Bots     BotDetector
	Policy   *PolicyEngine
	Usage    repository.UsageRepository
	Clicks   ClickRecorder
	Logger   *zap.Logger
}

// NewRedirectService wires the resolution pipeline together.
func NewRedirectService(deps RedirectDeps) *RedirectService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bots := deps.Bots
	if bots == nil {
		bots = NewHeuristicDetector()
	}
	policy := deps.Policy
	if policy == nil {
		policy = NewPolicyEngine(nil)
	}
	return &RedirectService{
		resolver: deps.Resolver,
		bots:     bots,
		policy:   policy,
		usage:    deps.Usage,
		clicks:   deps.Clicks,
		logger:   logger,
	}
}

// Resolve produces the outcome for one inbound request. A non-nil error means
// storage was unreachable and the caller should render a generic server error;
// every link-specific condition is expressed through the Outcome instead.
func (s *RedirectService) Resolve(ctx context.Context, req ResolveRequest) (Outcome, error) {
	isBot := s.bots.Classify(req.UserAgent, req.Headers)

	lookup, err := s.resolver.Resolve(ctx, req.Code)
	if err != nil {
		infraProm.ResolutionsTotal.WithLabelValues(infraProm.OutcomeStorageError).Inc()
		return Outcome{}, err
	}

	out := s.policy.Decide(lookup, isBot, req.Password)

	if out.Kind == OutcomeRedirect && !isBot {
		out = s.consumeAndRecord(ctx, req, lookup, out)
	}

	infraProm.ResolutionsTotal.WithLabelValues(outcomeLabel(out, isBot)).Inc()
	return out, nil
}

// consumeAndRecord settles click accounting for a permitted human redirect.
// The one-time claim is decided by a single conditional update in storage;
// losing that race downgrades the outcome to the used-up page. Every other
// failure here is best-effort and never blocks the redirect.
func (s *RedirectService) consumeAndRecord(ctx context.Context, req ResolveRequest, lookup Lookup, out Outcome) Outcome {
	link := lookup.Link

	if s.usage != nil {
		consumed, err := s.usage.Consume(ctx, link.ShortCode, link.IsOneTime)
		switch {
		case err != nil:
			s.logger.Error("click accounting failed",
				zap.Error(err), zap.String("code", link.ShortCode))
		case !consumed && link.IsOneTime:
			// Another request claimed the link between lookup and update.
			return Outcome{Kind: OutcomeError, Error: ErrorUsedUp}
		}
	}

	if s.clicks != nil {
		go s.recordClick(link.ShortCode, req.UserAgent)
	}

	return out
}

func (s *RedirectService) recordClick(code, userAgent string) {
	if err := s.clicks.Record(code, userAgent); err != nil {
		infraProm.ClickEventsDropped.Inc()
		s.logger.Error("failed to record click event",
			zap.Error(err), zap.String("code", code))
		return
	}
	infraProm.ClickEventsPublished.Inc()
}

func outcomeLabel(out Outcome, isBot bool) string {
	switch out.Kind {
	case OutcomePassThrough:
		return infraProm.OutcomePassThrough
	case OutcomePasswordRequired:
		return infraProm.OutcomePasswordRequired
	case OutcomeRedirect:
		if isBot {
			return infraProm.OutcomeBotRedirect
		}
		return infraProm.OutcomeRedirect
	case OutcomeError:
		switch out.Error {
		case ErrorDisabled:
			return infraProm.OutcomeDisabled
		case ErrorExpired:
			return infraProm.OutcomeExpired
		case ErrorUsedUp:
			return infraProm.OutcomeUsedUp
		}
	}
	return "unknown"
}
