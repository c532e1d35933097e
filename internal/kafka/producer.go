package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-calendar/internal/config"
	"ms-calendar/internal/models"
)

// Producer streams event lifecycle notifications. Messages are keyed by
// event ID so all changes to one event land on the same partition.
type Producer struct {
	Writer *kafka.Writer
	Topics config.TopicConfig
}

func NewProducer(brokers []string, topics config.TopicConfig) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Topics: topics}
}

func (p *Producer) publish(topic string, ev models.Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(ev.ID),
			Value: value,
		},
	)
}

// PublishEventCreated streams a created event to Kafka.
func (p *Producer) PublishEventCreated(ev models.Event) error {
	return p.publish(p.Topics.EventCreated, ev)
}

// PublishEventUpdated streams an updated event, change log included.
func (p *Producer) PublishEventUpdated(ev models.Event) error {
	return p.publish(p.Topics.EventUpdated, ev)
}

// PublishEventDeleted streams the removed event record.
func (p *Producer) PublishEventDeleted(ev models.Event) error {
	return p.publish(p.Topics.EventDeleted, ev)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
