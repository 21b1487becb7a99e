package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcome labels for ResolutionsTotal.
const (
	OutcomePassThrough      = "pass_through"
	OutcomeRedirect         = "redirect"
	OutcomeBotRedirect      = "bot_redirect"
	OutcomePasswordRequired = "password_required"
	OutcomeDisabled         = "disabled"
	OutcomeExpired          = "expired"
	OutcomeUsedUp           = "used_up"
	OutcomeStorageError     = "storage_error"
)

var (
	// ResolutionsTotal counts redirect resolutions by final outcome.
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minli",
		Name:      "resolutions_total",
		Help:      "Short link resolutions by outcome.",
	}, []string{"outcome"})

	// ClickEventsPublished counts click events handed to the stream.
	ClickEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "minli",
		Name:      "click_events_published_total",
		Help:      "Click events published to the click stream.",
	})

	// ClickEventsDropped counts click events lost before reaching the stream.
	ClickEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "minli",
		Name:      "click_events_dropped_total",
		Help:      "Click events that could not be published.",
	})

	// ClickEventsStored counts click events persisted by the consumer.
	ClickEventsStored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "minli",
		Name:      "click_events_stored_total",
		Help:      "Click events written to the database.",
	})
)
