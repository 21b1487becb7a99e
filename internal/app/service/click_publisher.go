package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/minli-dev/minli/internal/app/model"
	"github.com/nats-io/nats.go"
)

// ClickPublisher publishes click events to NATS JetStream. The caller fires
// and forgets; durability past the publish is the stream's problem.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher creates a new click event publisher.
func NewClickPublisher(js nats.JetStreamContext) *ClickPublisher {
	return &ClickPublisher{js: js}
}

// Record publishes a click event carrying the raw user agent. Parsing into
// browser/OS/device happens on the consumer side, off the request path.
func (p *ClickPublisher) Record(linkCode, userAgent string) error {
	event := model.ClickEvent{
		ID:        uuid.New().String(),
		LinkCode:  linkCode,
		UserAgent: userAgent,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ClickStreamSubject, data)
	return err
}
