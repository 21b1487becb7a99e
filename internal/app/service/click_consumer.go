package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/minli-dev/minli/internal/app/model"
	apprepository "github.com/minli-dev/minli/internal/app/repository"
	infraProm "github.com/minli-dev/minli/internal/infra/prometheus"
	"github.com/mssola/user_agent"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ClickConsumer consumes click events from NATS JetStream, enriches them with
// parsed user-agent details and persists them.
type ClickConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.ClickEventRepository
}

// NewClickConsumer creates a new click event consumer.
func NewClickConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.ClickEventRepository) *ClickConsumer {
	return &ClickConsumer{js: js, logger: logger, repo: repo}
}

// Start ensures stream and consumer exist, then begins consuming.
func (c *ClickConsumer) Start() error {
	_, err := c.js.StreamInfo(model.ClickStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.ClickStreamName,
			Subjects: []string{model.ClickStreamSubject},
			MaxBytes: model.ClickStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	_, err = c.js.ConsumerInfo(model.ClickStreamName, model.ClickConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.ClickStreamName, &nats.ConsumerConfig{
			Durable:   model.ClickConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.ClickStreamSubject, model.ClickConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *ClickConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.ClickEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal click event", zap.Error(err))
				msg.Nak()
				continue
			}

			event.Browser, event.OS, event.DeviceType = parseUserAgent(event.UserAgent)

			if err := c.repo.Create(ctx, &event); err != nil {
				c.logger.Error("failed to store click event",
					zap.String("id", event.ID),
					zap.String("link_code", event.LinkCode),
					zap.Error(err))
				msg.Nak()
				continue
			}

			infraProm.ClickEventsStored.Inc()
			c.logger.Debug("click event stored",
				zap.String("id", event.ID),
				zap.String("link_code", event.LinkCode),
				zap.String("browser", event.Browser),
				zap.String("os", event.OS),
				zap.String("device_type", event.DeviceType),
			)

			msg.Ack()
		}
	}
}

// parseUserAgent extracts browser, OS and device class, with conservative
// fallbacks when the string is unparseable.
func parseUserAgent(raw string) (browser, os, device string) {
	browser, os, device = "Unknown", "Unknown", "desktop"
	if strings.TrimSpace(raw) == "" {
		return
	}

	ua := user_agent.New(raw)
	if name, _ := ua.Browser(); name != "" {
		browser = name
	}
	if name := ua.OS(); name != "" {
		os = name
	}
	if ua.Mobile() {
		device = "mobile"
	}
	return
}
