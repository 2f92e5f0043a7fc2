package sink

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/congo-pay/payments-engine/internal/batch"
	"github.com/congo-pay/payments-engine/internal/ledger"
)

// messageWriter is the subset of *kafka.Writer the sink needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// AccountSnapshotEvent is published once per account at the end of a run.
type AccountSnapshotEvent struct {
	RunID       uuid.UUID      `json:"run_id"`
	InputDigest string         `json:"input_digest"`
	Account     ledger.Account `json:"account"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Kafka publishes account snapshots keyed by client id.
type Kafka struct {
	writer messageWriter
}

// NewKafka wraps a configured writer, usually from infra.NewKafkaWriter.
func NewKafka(writer messageWriter) *Kafka {
	return &Kafka{writer: writer}
}

// Name implements batch.Sink.
func (k *Kafka) Name() string { return "kafka" }

// Export implements batch.Sink. All messages go out in one write call.
func (k *Kafka) Export(ctx context.Context, res batch.Result) error {
	if len(res.Accounts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(res.Accounts))
	for _, acc := range res.Accounts {
		data, err := json.Marshal(AccountSnapshotEvent{
			RunID:       res.RunID,
			InputDigest: res.InputDigest,
			Account:     acc,
			CompletedAt: res.CompletedAt,
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(uint64(acc.Client), 10)),
			Value: data,
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(res.RunID.String())},
			},
		})
	}
	return k.writer.WriteMessages(ctx, msgs...)
}

var _ batch.Sink = (*Kafka)(nil)
