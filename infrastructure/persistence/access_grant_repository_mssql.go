package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coursemint/domain/model"
	"coursemint/domain/repository"
)

type AccessGrantRepositoryMSSQL struct{ db *sql.DB }

var _ repository.IAccessGrant = (*AccessGrantRepositoryMSSQL)(nil)

func NewAccessGrantRepositoryMSSQL(db *sql.DB) *AccessGrantRepositoryMSSQL {
	return &AccessGrantRepositoryMSSQL{db: db}
}

func (r *AccessGrantRepositoryMSSQL) Insert(ctx context.Context, g *model.AccessGrant) error {
	if g.IssuedAt.IsZero() {
		g.IssuedAt = time.Now().UTC()
	}
	var owner, orderRef sql.NullString
	if g.OwnerUserID != nil {
		owner = sql.NullString{String: *g.OwnerUserID, Valid: true}
	}
	if g.ExternalOrderRef != nil {
		orderRef = sql.NullString{String: *g.ExternalOrderRef, Valid: true}
	}
	var completed sql.NullTime
	if g.CompletedAt != nil {
		completed = sql.NullTime{Time: *g.CompletedAt, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO dbo.[access_grants] (id, content_item_id, owner_user_id, code, issued_at, completed_at, external_order_ref)
VALUES (@p1,@p2,@p3,@p4,@p5,@p6,@p7)`,
		g.ID, g.ContentItemID, owner, g.Code, g.IssuedAt, completed, orderRef)
	if err != nil {
		if isUniqueViolation(err, "") {
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("insert access grant (mssql): %w", err)
	}
	return nil
}

func (r *AccessGrantRepositoryMSSQL) FindByItemAndCode(ctx context.Context, contentItemID, code string) (*model.AccessGrant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT LOWER(CONVERT(NVARCHAR(36), id)), LOWER(CONVERT(NVARCHAR(36), content_item_id)), owner_user_id, code, issued_at, completed_at, external_order_ref
FROM dbo.[access_grants] WHERE content_item_id=@p1 AND code=@p2`, contentItemID, code)
	return scanGrant(row)
}

func (r *AccessGrantRepositoryMSSQL) MarkCompleted(ctx context.Context, contentItemID, code string, completedAt time.Time, orderRef *string) (bool, error) {
	var ref sql.NullString
	if orderRef != nil {
		ref = sql.NullString{String: *orderRef, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `UPDATE dbo.[access_grants] SET completed_at=@p1, external_order_ref=COALESCE(@p2, external_order_ref)
WHERE content_item_id=@p3 AND code=@p4 AND owner_user_id IS NULL AND completed_at IS NULL`,
		completedAt, ref, contentItemID, code)
	if err != nil {
		return false, fmt.Errorf("complete access grant (mssql): %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
