package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
}

const (
	EventsTopic        = "cage-events"
	StatsConsumerGroup = "cage-stats"
)

type EventType string

const (
	EventReservationCreated EventType = "RESERVATION_CREATED"
	EventReservationStatus  EventType = "RESERVATION_STATUS"
	EventLoanCheckout       EventType = "LOAN_CHECKOUT"
	EventLoanReturn         EventType = "LOAN_RETURN"
)

// Event is the audit record published after every committed mutation.
// Consumers must tolerate unknown event types.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserName  string    `json:"username"`
	EventType EventType `json:"eventType"`
	ItemUid   string    `json:"itemUid"`
	RefUid    string    `json:"refUid"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status,omitempty"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume runs the consumer-group session loop until ctx is cancelled.
// sarama returns from Consume on rebalance, so it is re-entered.
func Consume(ctx context.Context, cg sarama.ConsumerGroup, h sarama.ConsumerGroupHandler, topic string, log *zap.Logger) {
	for {
		if err := cg.Consume(ctx, []string{topic}, h); err != nil {
			log.Error("kafka consume", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}
	}
}
