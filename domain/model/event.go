package model

import "time"

const (
	TopicContentGenerated  = "content.generated"
	TopicPurchaseCompleted = "purchase.completed"
)

type ContentGeneratedEvent struct {
	ContentItemID string      `json:"content_item_id"`
	OwnerID       string      `json:"owner_id"`
	ContentType   ContentType `json:"content_type"`
	Sellable      bool        `json:"sellable"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

type PurchaseCompletedEvent struct {
	GrantID          string    `json:"grant_id"`
	ContentItemID    string    `json:"content_item_id"`
	ExternalOrderRef *string   `json:"external_order_ref,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}
