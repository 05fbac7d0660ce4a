package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"physioflow/internal/platform/kafka/producer"
)

// KafkaSink delivers audit events to a Kafka topic. Events are keyed by
// client ID so one client's trail stays ordered within a partition.
type KafkaSink struct {
	producer *producer.Producer
	topic    string
}

// NewKafkaSink creates a sink writing to the given topic.
func NewKafkaSink(p *producer.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.ClientID),
		Value: value,
		Headers: map[string]string{
			"action": string(event.Action),
		},
	})
}
