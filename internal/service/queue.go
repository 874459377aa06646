package service

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/equipcage/cage-service/pkg/circuitbreaker"
)

type Enqueuer interface {
	Enqueue(topic string, v any) error
}

// NewEnqueuer wraps the sync producer in a circuit breaker so a broker outage
// degrades to dropped audit events instead of per-request publish timeouts.
func NewEnqueuer(producer sarama.SyncProducer) Enqueuer {
	return &enqueuerImpl{
		producer: producer,
		cb:       circuitbreaker.New(20, 30*time.Second, 0.5, 5),
	}
}

type enqueuerImpl struct {
	producer sarama.SyncProducer
	cb       circuitbreaker.CircuitBreaker
}

func (q *enqueuerImpl) Enqueue(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return q.cb.Call(func() error {
		msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.StringEncoder(data)}
		_, _, err := q.producer.SendMessage(msg)
		return err
	})
}
