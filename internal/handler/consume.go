package handler

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/equipcage/cage-service/pkg/kafka"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type stats func(ctx context.Context, event kafka.Event) error

type Consumer struct {
	statsHandler stats
	log          *zap.Logger
	ready        chan bool
	readyOnce    sync.Once
}

func NewConsumer(stats stats, log *zap.Logger) *Consumer {
	return &Consumer{
		statsHandler: stats,
		log:          log.Named("consumer"),
		ready:        make(chan bool),
	}
}

// Setup runs once per session and sessions recur on every rebalance, so the
// ready mark must only fire for the first one.
func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	consumer.readyOnce.Do(func() {
		close(consumer.ready)
	})
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var event kafka.Event
			if err := json.Unmarshal(message.Value, &event); err != nil {
				consumer.log.Error("unmarshal event", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.statsHandler(context.Background(), event); err != nil {
				consumer.log.Error("consumer.statsHandler", zap.Error(err))
				continue
			}

			consumer.log.Debug("Message claimed:", zap.String("value", string(message.Value)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}
