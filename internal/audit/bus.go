// Package audit carries gatekeeper access events over an in-process bus.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/yndnr/linkgate-go/internal/core/service"
)

// DefaultTopic is the topic access events are published on.
const DefaultTopic = "linkgate.access"

// Metadata keys set on every access message.
const (
	MetaOutcome = "outcome"
	MetaAnomaly = "anomaly"
)

// Bus publishes access events to an in-process pub/sub.
type Bus struct {
	pubsub    *gochannel.GoChannel
	topic     string
	published atomic.Uint64
}

// NewBus creates a bus on topic (DefaultTopic when empty).
func NewBus(topic string) *Bus {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, watermill.NopLogger{}),
		topic:  topic,
	}
}

// Topic returns the bus topic.
func (b *Bus) Topic() string {
	return b.topic
}

// PublishAccess implements service.EventPublisher.
func (b *Bus) PublishAccess(_ context.Context, event *service.AccessEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(MetaOutcome, string(event.Outcome))
	if event.Anomaly {
		msg.Metadata.Set(MetaAnomaly, "true")
	}

	if err := b.pubsub.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("audit: publish: %w", err)
	}
	b.published.Add(1)
	return nil
}

// Subscribe returns a channel of access messages. Every message must be
// acked. The channel closes when ctx ends or the bus closes.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, b.topic)
}

// Published returns the number of events published.
func (b *Bus) Published() uint64 {
	return b.published.Load()
}

// Close shuts the bus down and closes subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// DecodeAccess decodes an access event from a bus message.
func DecodeAccess(msg *message.Message) (*service.AccessEvent, error) {
	var ev service.AccessEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return nil, fmt.Errorf("audit: decode event %s: %w", msg.UUID, err)
	}
	return &ev, nil
}

var _ service.EventPublisher = (*Bus)(nil)
