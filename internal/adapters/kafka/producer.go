package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"wsbpanel/internal/domain/panel"
	"wsbpanel/internal/metrics"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

// Compile-time check
var _ panel.Publisher = (*Producer)(nil)

// messageWriter is the part of *kafka.Writer the producer relies on
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles Kafka message publishing
type Producer struct {
	mu        sync.Mutex
	writers   map[string]messageWriter
	brokers   []string
	batchSize int
	log       *logger.Logger
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	Brokers   []string
	BatchSize int // messages per WriteMessages call, default 500
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig) *Producer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Producer{
		writers:   make(map[string]messageWriter),
		brokers:   cfg.Brokers,
		batchSize: cfg.BatchSize,
		log:       logger.Get().With("component", "kafka_producer"),
	}
}

// getWriter returns or creates a writer for a topic
func (p *Producer) getWriter(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	p.writers[topic] = w
	return w
}

// Publish sends a message to a topic
func (p *Producer) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal event for %s", topic)
	}

	return p.PublishBatch(ctx, topic, []kafka.Message{{Key: []byte(key), Value: data}})
}

// PublishBatch sends multiple messages to a topic in chunks of batchSize
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []kafka.Message) error {
	w := p.getWriter(topic)

	for start := 0; start < len(messages); start += p.batchSize {
		end := min(start+p.batchSize, len(messages))
		chunk := messages[start:end]

		err := w.WriteMessages(ctx, chunk...)
		metrics.RecordKafkaMessages(topic, len(chunk), err)
		if err != nil {
			p.log.Errorw("Failed to publish batch", "topic", topic, "messages", len(chunk), "error", err)
			return errors.Wrapf(err, "failed to publish to %s", topic)
		}
	}

	p.log.Debugw("Published messages", "topic", topic, "messages", len(messages))
	return nil
}

// PublishRows streams panel rows keyed by ticker, so one ticker stays on one partition
func (p *Producer) PublishRows(ctx context.Context, runID string, rows []panel.Row) error {
	if len(rows) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(NewRowMessage(runID, row))
		if err != nil {
			return errors.Wrapf(err, "failed to marshal panel row %s %s", row.Ticker, row.Date)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(row.Ticker),
			Value: data,
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(runID)},
			},
		})
	}

	return p.PublishBatch(ctx, TopicPanelRows, messages)
}

// PublishStageEvent announces that a stage of a run finished
func (p *Producer) PublishStageEvent(ctx context.Context, event StageEvent) error {
	return p.Publish(ctx, TopicStageEvents, event.RunID, event)
}

// Close closes all writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs errors.MultiError
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			p.log.Errorw("Failed to close writer", "topic", topic, "error", err)
			errs.Add(err)
		}
	}
	return errs.ToError()
}

// StageEvent is the payload of TopicStageEvents
type StageEvent struct {
	RunID      string    `json:"run_id"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status"` // success | failed
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}
