package views_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/labor-market/internal/views"
	"github.com/weiawesome/labor-market/pkg/pubsub"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
	block  chan struct{}
	err    error
	calls  int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int{}}
}

func (f *fakeCounter) IncrementViews(ctx context.Context, ids ...string) error {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	for _, id := range ids {
		f.counts[id]++
	}
	return nil
}

func (f *fakeCounter) get(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[id]
}

func TestDirectRecorder_DoesNotBlock(t *testing.T) {
	counter := newFakeCounter()
	counter.block = make(chan struct{})
	r := views.NewDirectRecorder(counter, time.Second)

	done := make(chan struct{})
	go func() {
		r.Record(context.Background(), "a", "b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on the store")
	}

	close(counter.block)
	require.NoError(t, r.Close())
	assert.Equal(t, 1, counter.get("a"))
	assert.Equal(t, 1, counter.get("b"))
}

func TestDirectRecorder_OutlivesRequestContext(t *testing.T) {
	counter := newFakeCounter()
	r := views.NewDirectRecorder(counter, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	r.Record(ctx, "a")
	cancel()

	require.NoError(t, r.Close())
	assert.Equal(t, 1, counter.get("a"))
}

func TestDirectRecorder_ErrorsAreSwallowed(t *testing.T) {
	counter := newFakeCounter()
	counter.err = errors.New("db down")
	r := views.NewDirectRecorder(counter, time.Second)

	r.Record(context.Background(), "a")
	require.NoError(t, r.Close())
	assert.Equal(t, 1, counter.calls)
}

func TestDirectRecorder_NoIDs(t *testing.T) {
	counter := newFakeCounter()
	r := views.NewDirectRecorder(counter, time.Second)

	r.Record(context.Background())
	require.NoError(t, r.Close())
	assert.Zero(t, counter.calls)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*pubsub.Event
	topics []string
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, event *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func TestPublishRecorder(t *testing.T) {
	pub := &fakePublisher{}
	r := views.NewPublishRecorder(pub, "job.views", time.Second)

	r.Record(context.Background(), "a", "b")
	require.NoError(t, r.Close())

	require.Len(t, pub.events, 1)
	assert.Equal(t, []string{"job.views"}, pub.topics)
	assert.Equal(t, views.EventJobViewed, pub.events[0].Type)
	assert.Equal(t, "a", pub.events[0].Key)

	var payload views.ViewedPayload
	require.NoError(t, pub.events[0].UnmarshalPayload(&payload))
	assert.Equal(t, []string{"a", "b"}, payload.JobIDs)
}

func TestPublishRecorder_ErrorsAreSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	r := views.NewPublishRecorder(pub, "job.views", time.Second)

	r.Record(context.Background(), "a")
	assert.NoError(t, r.Close())
}

func TestNopRecorder(t *testing.T) {
	var r views.Recorder = views.NopRecorder{}
	r.Record(context.Background(), "a")
	assert.NoError(t, r.Close())
}

type chanSubscriber struct {
	ch chan *pubsub.Event
}

func (s *chanSubscriber) Subscribe(context.Context, string) (<-chan *pubsub.Event, error) {
	return s.ch, nil
}

func TestConsumer_AppliesViewedEvents(t *testing.T) {
	counter := newFakeCounter()
	sub := &chanSubscriber{ch: make(chan *pubsub.Event, 4)}
	c := views.NewConsumer(sub, counter, "job.views", time.Second)

	viewed, err := pubsub.NewEvent(views.EventJobViewed, "a", views.ViewedPayload{JobIDs: []string{"a", "b"}})
	require.NoError(t, err)
	other, err := pubsub.NewEvent("job.created", "a", map[string]string{"id": "a"})
	require.NoError(t, err)

	sub.ch <- viewed
	sub.ch <- other
	sub.ch <- &pubsub.Event{Type: views.EventJobViewed, Payload: []byte("{bad")}
	sub.ch <- viewed
	close(sub.ch)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, 2, counter.get("a"))
	assert.Equal(t, 2, counter.get("b"))
	assert.Equal(t, 2, counter.calls)
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	sub := &chanSubscriber{ch: make(chan *pubsub.Event)}
	c := views.NewConsumer(sub, newFakeCounter(), "job.views", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestRedisPubSub_EndToEnd(t *testing.T) {
	mr := miniredis.RunT(t)
	ps := pubsub.NewRedisPubSubWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = ps.Close() })

	counter := newFakeCounter()
	c := views.NewConsumer(ps, counter, "job.views", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	// Wait for the subscription before publishing; redis does not replay.
	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("job.views")) == 1
	}, time.Second, 10*time.Millisecond)

	r := views.NewPublishRecorder(ps, "job.views", time.Second)
	r.Record(context.Background(), "job-1")
	require.NoError(t, r.Close())

	assert.Eventually(t, func() bool { return counter.get("job-1") == 1 }, 2*time.Second, 10*time.Millisecond)
}
