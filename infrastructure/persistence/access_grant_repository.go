package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coursemint/domain/model"
	"coursemint/domain/repository"
)

// AccessGrantRepository stores access grants in PostgreSQL. The unique key on
// code is the only arbiter of code uniqueness.
type AccessGrantRepository struct{ db *sql.DB }

var _ repository.IAccessGrant = (*AccessGrantRepository)(nil)

func NewAccessGrantRepository(db *sql.DB) *AccessGrantRepository {
	return &AccessGrantRepository{db: db}
}

func (r *AccessGrantRepository) Insert(ctx context.Context, g *model.AccessGrant) error {
	if g.IssuedAt.IsZero() {
		g.IssuedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO access_grants (id, content_item_id, owner_user_id, code, issued_at, completed_at, external_order_ref)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		g.ID, g.ContentItemID, g.OwnerUserID, g.Code, g.IssuedAt, g.CompletedAt, g.ExternalOrderRef)
	if err != nil {
		if isUniqueViolation(err, constraintGrantCode) {
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("insert access grant: %w", err)
	}
	return nil
}

func (r *AccessGrantRepository) FindByItemAndCode(ctx context.Context, contentItemID, code string) (*model.AccessGrant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, content_item_id, owner_user_id, code, issued_at, completed_at, external_order_ref
		FROM access_grants WHERE content_item_id=$1 AND code=$2`, contentItemID, code)
	return scanGrant(row)
}

func (r *AccessGrantRepository) MarkCompleted(ctx context.Context, contentItemID, code string, completedAt time.Time, orderRef *string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE access_grants SET completed_at=$1, external_order_ref=COALESCE($2, external_order_ref)
		WHERE content_item_id=$3 AND code=$4 AND owner_user_id IS NULL AND completed_at IS NULL`,
		completedAt, orderRef, contentItemID, code)
	if err != nil {
		return false, fmt.Errorf("complete access grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func scanGrant(row rowScanner) (*model.AccessGrant, error) {
	g := &model.AccessGrant{}
	var owner, orderRef sql.NullString
	var completed sql.NullTime
	if err := row.Scan(&g.ID, &g.ContentItemID, &owner, &g.Code, &g.IssuedAt, &completed, &orderRef); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan access grant: %w", err)
	}
	if owner.Valid {
		v := owner.String
		g.OwnerUserID = &v
	}
	if completed.Valid {
		v := completed.Time
		g.CompletedAt = &v
	}
	if orderRef.Valid {
		v := orderRef.String
		g.ExternalOrderRef = &v
	}
	return g, nil
}
