package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var errProducerClosed = errors.New("kafka producer closed")

// producerBatchTimeout bounds how long a synchronous write waits for its batch to fill.
const producerBatchTimeout = 10 * time.Millisecond

// KafkaProducer keeps one writer per topic, created on first use. Records are hashed by key,
// which the dispatcher sets to the user id, so a user's events stay ordered on one partition.
type KafkaProducer struct {
	brokers []string
	logger  logrus.FieldLogger

	mu      sync.Mutex
	closed  bool
	writers map[string]*kafka.Writer
}

// NewKafkaProducer returns a producer for brokers. Only WithLogger applies.
func NewKafkaProducer(brokers []string, opts ...Option) *KafkaProducer {
	o := buildOptions("kafka-producer", opts)
	return &KafkaProducer{
		brokers: brokers,
		logger:  o.logger,
		writers: make(map[string]*kafka.Writer),
	}
}

// WriteMessages writes msgs to topic and blocks until the broker acknowledged all of them.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	writer, err := p.writerForTopic(topic)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writerForTopic(topic string) (*kafka.Writer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errProducerClosed
	}
	if writer, ok := p.writers[topic]; ok {
		return writer, nil
	}

	log := p.logger.WithField("topic", topic)
	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		BatchTimeout: producerBatchTimeout,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Errorf(msg, args...)
		}),
	}
	p.writers[topic] = writer
	return writer, nil
}

// Close flushes and releases every writer. Later writes fail with errProducerClosed.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	var errs error
	for topic, writer := range p.writers {
		errs = multierr.Append(errs, writer.Close())
		delete(p.writers, topic)
	}
	return errs
}
