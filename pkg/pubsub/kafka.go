package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	pkglog "github.com/weiawesome/labor-market/pkg/log"
)

// KafkaPubSub implements PubSub on Apache Kafka. Subscribers of the same
// topic join one consumer group, so each event is handled once per group.
type KafkaPubSub struct {
	producer *kafka.Producer
	cancels  []context.CancelFunc
	config   KafkaConfig
	mu       sync.Mutex
	wg       sync.WaitGroup
	doneCh   chan struct{}
}

// NewKafkaPubSub creates a new Kafka-based PubSub instance.
func NewKafkaPubSub(cfg KafkaConfig, topics ...string) (*KafkaPubSub, error) {
	if err := ensureTopics(cfg, topics); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Strs("topics", topics).Msg("failed to ensure kafka topics, may already exist")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kps := &KafkaPubSub{
		producer: p,
		config:   cfg,
		doneCh:   make(chan struct{}),
	}

	go kps.deliveryReportHandler()

	return kps, nil
}

func ensureTopics(cfg KafkaConfig, topics []string) error {
	if len(topics) == 0 {
		return nil
	}

	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	partitions := cfg.Partitions
	if partitions <= 0 {
		partitions = 4
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	specs := make([]kafka.TopicSpecification, 0, len(topics))
	for _, t := range topics {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             t,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		})
	}

	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}

	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError && r.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", r.Topic, r.Error)
		}
	}

	return nil
}

// deliveryReportHandler processes delivery reports from the producer.
func (k *KafkaPubSub) deliveryReportHandler() {
	l := pkglog.L()
	for e := range k.producer.Events() {
		if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
			l.Error().Err(ev.TopicPartition.Error).Msg("kafka delivery failed")
		}
	}
	close(k.doneCh)
}

// Publish enqueues the event on the producer; delivery is reported asynchronously.
func (k *KafkaPubSub) Publish(ctx context.Context, topic string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.Key),
		Value: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	return nil
}

// Subscribe joins the configured consumer group on topic.
func (k *KafkaPubSub) Subscribe(ctx context.Context, topic string) (<-chan *Event, error) {
	groupID := k.config.GroupID
	if groupID == "" {
		groupID = "pubsub-default"
	}

	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       k.config.Brokers,
		"group.id":                groupID,
		"auto.offset.reset":       "earliest",
		"enable.auto.commit":      true,
		"auto.commit.interval.ms": 5000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	if err := c.Subscribe(topic, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	k.mu.Lock()
	k.cancels = append(k.cancels, cancel)
	k.mu.Unlock()

	eventCh := make(chan *Event, 100)

	k.wg.Add(1)
	go k.consumeMessages(subCtx, c, eventCh)

	return eventCh, nil
}

// consumeMessages polls Kafka and forwards events to the channel. It blocks
// on a full channel rather than dropping, since committed offsets move on.
// The consumer is owned by this goroutine and closed when it returns.
func (k *KafkaPubSub) consumeMessages(ctx context.Context, c *kafka.Consumer, eventCh chan<- *Event) {
	defer k.wg.Done()
	defer close(eventCh)
	defer c.Close()

	l := pkglog.L()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := c.ReadMessage(100 * time.Millisecond)
		if err != nil {
			if kerr, ok := err.(kafka.Error); ok {
				if kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				if kerr.IsFatal() {
					l.Error().Err(err).Msg("fatal kafka consumer error")
					return
				}
			}
			l.Warn().Err(err).Msg("kafka consumer error")
			continue
		}

		var event Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			l.Warn().Err(err).Str("topic", *msg.TopicPartition.Topic).Msg("failed to unmarshal event")
			continue
		}

		select {
		case eventCh <- &event:
		case <-ctx.Done():
			return
		}
	}
}

// Close stops consumers and flushes the producer.
func (k *KafkaPubSub) Close() error {
	k.mu.Lock()
	cancels := k.cancels
	k.cancels = nil
	k.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	k.wg.Wait()

	k.producer.Flush(5000)
	k.producer.Close()
	<-k.doneCh

	return nil
}
