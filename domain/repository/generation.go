package repository

import (
	"context"

	"coursemint/domain/model"
)

// IDocumentExtractor turns an uploaded document into plain text.
type IDocumentExtractor interface {
	Extract(ctx context.Context, data []byte, declaredMime string) (string, error)
}

// IGenerator is a generative model that answers with a single JSON object.
type IGenerator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// IImageSearch finds a hero image URL for a query.
type IImageSearch interface {
	FindByQuery(ctx context.Context, query string) (string, error)
}

// IGenerationLog records synthesis attempts.
type IGenerationLog interface {
	Record(ctx context.Context, entry *model.GenerationLogEntry) error
}

// IEventPublisher delivers domain events to a broker.
type IEventPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// IAttemptLimiter counts failed access-code validations.
type IAttemptLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) (int64, error)
}
