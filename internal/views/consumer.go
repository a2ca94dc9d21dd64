package views

import (
	"context"
	"fmt"
	"time"

	"github.com/weiawesome/labor-market/internal/repository"
	"github.com/weiawesome/labor-market/pkg/log"
	"github.com/weiawesome/labor-market/pkg/pubsub"
)

// Consumer applies job.viewed events to the job store.
type Consumer struct {
	subscriber pubsub.Subscriber
	counter    repository.ViewCounter
	topic      string
	timeout    time.Duration
}

// NewConsumer creates a view event consumer.
func NewConsumer(subscriber pubsub.Subscriber, counter repository.ViewCounter, topic string, timeout time.Duration) *Consumer {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Consumer{
		subscriber: subscriber,
		counter:    counter,
		topic:      topic,
		timeout:    timeout,
	}
}

// Run consumes until ctx is cancelled or the subscription ends.
func (c *Consumer) Run(ctx context.Context) error {
	events, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.topic, err)
	}

	l := log.L()
	l.Info().Str("topic", c.topic).Msg("job view consumer started")

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("job view consumer shutting down")
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			c.handle(ctx, event)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, event *pubsub.Event) {
	l := log.L()
	if event.Type != EventJobViewed {
		return
	}

	var payload ViewedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		l.Warn().Err(err).Msg("failed to unmarshal job viewed payload")
		return
	}

	hctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.counter.IncrementViews(hctx, payload.JobIDs...); err != nil {
		l.Warn().Err(err).Int("count", len(payload.JobIDs)).Msg("failed to apply job views")
	}
}
