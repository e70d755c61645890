// Package kafka forwards activity events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "bgv/pkg/platform/audit"
)

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink publishes one record per event, keyed by check id so every event for a
// Check lands on the same partition in order. Case-level events are keyed by
// case id.
type Sink struct {
	producer Producer
	topic    string
}

func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

type message struct {
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	CheckID   string `json:"checkId,omitempty"`
	CaseID    string `json:"caseId,omitempty"`
	Action    string `json:"action"`
	Zone      string `json:"zone,omitempty"`
	RiskScore *int   `json:"riskScore,omitempty"`
	Actor     string `json:"actor"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Append implements audit.Sink.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	value, err := Encode(event)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(recordKey(event)),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce activity event: %w", err)
	}
	return nil
}

// Encode renders the wire form of an event.
func Encode(event audit.Event) ([]byte, error) {
	m := message{
		Category:  string(event.Category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:    event.Action,
		Zone:      event.Zone,
		RiskScore: event.RiskScore,
		Actor:     event.Actor,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	}
	if !event.CheckID.IsNil() {
		m.CheckID = event.CheckID.String()
	}
	if !event.CaseID.IsNil() {
		m.CaseID = event.CaseID.String()
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode activity event: %w", err)
	}
	return b, nil
}

func recordKey(event audit.Event) string {
	if event.CheckID.IsNil() {
		return event.CaseID.String()
	}
	return event.CheckID.String()
}
