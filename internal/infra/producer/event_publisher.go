package producer

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model/event"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -source=event_publisher.go -destination=mock/mock_event_publisher.go -package=mock_producer

const eventTypeHeader = "event_type"

// EventPublisher 訂單 domain event 對外發佈, 交易 commit 之後才呼叫
type EventPublisher interface {
	Publish(ctx context.Context, evts ...event.Event) error
	Close() error
}

type KafkaEventPublisher struct {
	writer        Writer
	topic         string
	retryAttempts int
	retryBackoff  time.Duration
	closed        atomic.Bool
}

func NewKafkaEventPublisher(writer Writer, topic string, retryAttempts int) *KafkaEventPublisher {
	if retryAttempts < 0 {
		retryAttempts = 0
	}
	return &KafkaEventPublisher{
		writer:        writer,
		topic:         topic,
		retryAttempts: retryAttempts,
		retryBackoff:  100 * time.Millisecond,
	}
}

var _ EventPublisher = (*KafkaEventPublisher)(nil)

// 以 aggregate id 當 key, 同一張訂單的事件保持順序
func toKafkaMessage(evt event.Event) (kafka.Message, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.GetAggregateID()),
		Value: b,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(evt.Type())},
		},
	}, nil
}

// Publish 同步發送, 會 block 到所有訊息寫入或重試用完
func (p *KafkaEventPublisher) Publish(ctx context.Context, evts ...event.Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(evts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		m, err := toKafkaMessage(evt)
		if err != nil {
			return NewKafkaError("Publish", p.topic, err)
		}
		msgs = append(msgs, m)
	}

	var err error
	for attempt := 0; attempt <= p.retryAttempts; attempt++ {
		if ctx.Err() != nil {
			return NewKafkaError("Publish", p.topic, ctx.Err())
		}
		err = p.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			return nil
		}
		if !IsTemporaryError(err) {
			break
		}
		if attempt < p.retryAttempts {
			select {
			case <-ctx.Done():
				return NewKafkaError("Publish", p.topic, ctx.Err())
			case <-time.After(p.retryBackoff):
			}
		}
	}
	return NewKafkaError("Publish", p.topic, err)
}

func (p *KafkaEventPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

// NoopPublisher 沒有設定 KAFKA_BROKERS 時使用
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, evts ...event.Event) error { return nil }
func (NoopPublisher) Close() error                                         { return nil }
