package servicebus

import (
	"context"
	"fmt"
	"sync"

	"coursemint/domain/repository"
	"coursemint/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NewServiceBus connects to namespace (for example "myns.servicebus.windows.net")
// with the default Azure credential chain.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace not configured")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type sender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// EventPublisher sends domain events to the queue or topic named after the
// event topic. Senders are opened lazily and kept until Close.
type EventPublisher struct {
	newSender func(queueOrTopic string) (sender, error)
	mu        sync.Mutex
	senders   map[string]sender
}

var _ repository.IEventPublisher = (*EventPublisher)(nil)

func NewEventPublisher(client *azservicebus.Client) *EventPublisher {
	return &EventPublisher{
		newSender: func(name string) (sender, error) { return client.NewSender(name, nil) },
		senders:   make(map[string]sender),
	}
}

func (p *EventPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	s, err := p.sender(topic)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			WithField("topic", topic).
			Error("Error while making new sender service bus.")
		return "", err
	}
	contentType := "application/json"
	msg := &azservicebus.Message{Body: payload, ContentType: &contentType}
	if err := s.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).WithField("topic", topic).Error("Error while sending message.")
		return "", err
	}
	// Service Bus assigns no id until the message is received.
	return "", nil
}

func (p *EventPublisher) sender(topic string) (sender, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.senders[topic]; ok {
		return s, nil
	}
	s, err := p.newSender(topic)
	if err != nil {
		return nil, err
	}
	p.senders[topic] = s
	return s, nil
}

func (p *EventPublisher) Close(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, s := range p.senders {
		if err := s.Close(ctx); err != nil {
			logger.GetLogger().
				WithField("error", err).
				WithField("topic", name).
				Error("Error while closing sender.")
		}
	}
	p.senders = make(map[string]sender)
}
