package persistence

import (
	"context"
	"fmt"
	"time"

	"coursemint/domain/model"
	"coursemint/domain/repository"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

const generationLogCollection = "generation_log"

// GenerationLogRepository appends synthesis attempts to MongoDB.
type GenerationLogRepository struct {
	collection *mongo.Collection
}

var _ repository.IGenerationLog = (*GenerationLogRepository)(nil)

func NewGenerationLogRepository(client *mongo.Client, dbName string) *GenerationLogRepository {
	if dbName == "" {
		dbName = "coursemint"
	}
	return &GenerationLogRepository{collection: client.Database(dbName).Collection(generationLogCollection)}
}

func (r *GenerationLogRepository) Record(ctx context.Context, entry *model.GenerationLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert generation log: %w", err)
	}
	return nil
}
