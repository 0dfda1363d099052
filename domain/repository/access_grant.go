package repository

import (
	"context"
	"errors"
	"time"

	"coursemint/domain/model"
)

// ErrDuplicateCode is returned by Insert when the access code already exists.
var ErrDuplicateCode = errors.New("duplicate access code")

// IAccessGrant persists access grants. Rows are append-then-complete-once.
type IAccessGrant interface {
	Insert(ctx context.Context, grant *model.AccessGrant) error
	FindByItemAndCode(ctx context.Context, contentItemID, code string) (*model.AccessGrant, error)
	// MarkCompleted sets completed_at on the anonymous grant if it is not yet
	// completed. It reports whether a row was changed.
	MarkCompleted(ctx context.Context, contentItemID, code string, completedAt time.Time, orderRef *string) (bool, error)
}
