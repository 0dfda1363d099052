package model

import "time"

const (
	GenerationSucceeded = "succeeded"
	GenerationFailed    = "failed"
)

// GenerationLogEntry is an append-only audit record of one synthesis attempt.
type GenerationLogEntry struct {
	OwnerID       string      `json:"owner_id" bson:"ownerId"`
	ContentType   ContentType `json:"content_type" bson:"contentType"`
	Status        string      `json:"status" bson:"status"`
	FailureReason string      `json:"failure_reason,omitempty" bson:"failureReason,omitempty"`
	SourceChars   int         `json:"source_chars" bson:"sourceChars"`
	DurationMs    int64       `json:"duration_ms" bson:"durationMs"`
	ContentItemID string      `json:"content_item_id,omitempty" bson:"contentItemId,omitempty"`
	CreatedAt     time.Time   `json:"created_at" bson:"createdAt"`
}
