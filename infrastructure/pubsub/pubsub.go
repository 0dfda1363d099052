package pubsub

import (
	"context"
	"fmt"
	"sync"

	"coursemint/domain/repository"
	"coursemint/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// NewPubSub opens a Pub/Sub client for projectID.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id not configured")
	}
	return pubsub.NewClient(ctx, projectID)
}

// EventPublisher publishes domain events to Pub/Sub topics named after the
// event topic. Missing topics are created on first use.
type EventPublisher struct {
	client *pubsub.Client
	mu     sync.Mutex
	topics map[string]*pubsub.Topic
}

var _ repository.IEventPublisher = (*EventPublisher)(nil)

func NewEventPublisher(client *pubsub.Client) *EventPublisher {
	return &EventPublisher{client: client, topics: make(map[string]*pubsub.Topic)}
}

func (p *EventPublisher) Publish(ctx context.Context, topicName string, payload []byte) (string, error) {
	topic, err := p.topic(ctx, topicName)
	if err != nil {
		return "", err
	}
	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", topicName, err)
	}
	logger.GetLogger().WithField("server ID", serverID).WithField("topic", topicName).Debug("Message published")
	return serverID, nil
}

func (p *EventPublisher) topic(ctx context.Context, name string) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[name]; ok {
		return t, nil
	}
	t := p.client.Topic(name)
	exists, err := t.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", name, err)
	}
	if !exists {
		logger.GetLogger().WithField("topic", name).Info("Topic doesn't exist - creating it")
		if t, err = p.client.CreateTopic(ctx, name); err != nil {
			return nil, fmt.Errorf("create topic %s: %w", name, err)
		}
	}
	p.topics[name] = t
	return t, nil
}

// Stop flushes pending messages on every cached topic.
func (p *EventPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.topics {
		t.Stop()
	}
}
