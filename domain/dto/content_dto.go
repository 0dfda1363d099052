package dto

import "encoding/json"

// GenerateContentForm is the multipart form of POST /api/content/generate.
// The document itself arrives as the "file" part.
type GenerateContentForm struct {
	ContentType string  `form:"contentType" binding:"required"`
	Title       string  `form:"title"`
	Description string  `form:"description"`
	Price       float64 `form:"price"`
}

// UpdateContentRequest represents fields that can be updated on a content item.
// Pointer fields distinguish an omitted field from an explicit empty value.
type UpdateContentRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Tags        *[]string       `json:"tags"`
	KeyPoints   *[]string       `json:"key_points"`
	Price       *float64        `json:"price"`
	Body        json.RawMessage `json:"body"`
}
