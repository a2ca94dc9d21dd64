// Package views records job views off the request path. Recording never
// blocks the caller and never reports an error to it; lost increments are
// acceptable.
package views

import (
	"context"
	"sync"
	"time"

	"github.com/weiawesome/labor-market/internal/repository"
	"github.com/weiawesome/labor-market/pkg/log"
	"github.com/weiawesome/labor-market/pkg/pubsub"
)

// EventJobViewed is the event type published for every recorded view batch.
const EventJobViewed = "job.viewed"

const defaultTimeout = 2 * time.Second

// Recorder records that jobs were viewed. Record returns immediately.
type Recorder interface {
	Record(ctx context.Context, jobIDs ...string)
	Close() error
}

// ViewedPayload is the payload of a job.viewed event.
type ViewedPayload struct {
	JobIDs []string `json:"job_ids"`
}

// detach keeps the request logger but drops the request deadline, so the
// background write outlives the response.
func detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(log.WithLogger(context.Background(), log.Ctx(ctx)), timeout)
}

// DirectRecorder increments counters in the job store from a goroutine.
type DirectRecorder struct {
	counter repository.ViewCounter
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDirectRecorder creates a recorder writing straight to the store.
func NewDirectRecorder(counter repository.ViewCounter, timeout time.Duration) *DirectRecorder {
	return &DirectRecorder{counter: counter, timeout: timeout}
}

func (r *DirectRecorder) Record(ctx context.Context, jobIDs ...string) {
	if len(jobIDs) == 0 {
		return
	}
	ids := append([]string(nil), jobIDs...)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		bg, cancel := detach(ctx, r.timeout)
		defer cancel()

		if err := r.counter.IncrementViews(bg, ids...); err != nil {
			l := log.Ctx(bg)
			l.Warn().Err(err).Int("count", len(ids)).Msg("failed to increment job views")
		}
	}()
}

// Close waits for in-flight increments.
func (r *DirectRecorder) Close() error {
	r.wg.Wait()
	return nil
}

// PublishRecorder publishes views as events for a Consumer to apply.
type PublishRecorder struct {
	publisher pubsub.Publisher
	topic     string
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewPublishRecorder creates a recorder publishing job.viewed events.
func NewPublishRecorder(publisher pubsub.Publisher, topic string, timeout time.Duration) *PublishRecorder {
	return &PublishRecorder{publisher: publisher, topic: topic, timeout: timeout}
}

func (r *PublishRecorder) Record(ctx context.Context, jobIDs ...string) {
	if len(jobIDs) == 0 {
		return
	}
	event, err := pubsub.NewEvent(EventJobViewed, jobIDs[0], ViewedPayload{JobIDs: jobIDs})
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to build job viewed event")
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		bg, cancel := detach(ctx, r.timeout)
		defer cancel()

		if err := r.publisher.Publish(bg, r.topic, event); err != nil {
			l := log.Ctx(bg)
			l.Warn().Err(err).Str("topic", r.topic).Msg("failed to publish job viewed event")
		}
	}()
}

// Close waits for in-flight publishes. The publisher itself is owned by the caller.
func (r *PublishRecorder) Close() error {
	r.wg.Wait()
	return nil
}

// NopRecorder drops every view.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, ...string) {}

func (NopRecorder) Close() error { return nil }
