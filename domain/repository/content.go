package repository

import (
	"context"
	"errors"

	"coursemint/domain/model"
)

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateSlug is returned when a content slug is already taken.
	ErrDuplicateSlug = errors.New("duplicate slug")
)

// IContent persists content items.
type IContent interface {
	Create(ctx context.Context, item *model.ContentItem) error
	GetByID(ctx context.Context, id string) (*model.ContentItem, error)
	GetBySlug(ctx context.Context, slug string) (*model.ContentItem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.ContentItem, error)
	Update(ctx context.Context, item *model.ContentItem) error
	Delete(ctx context.Context, id string) error
}
