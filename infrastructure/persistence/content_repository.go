package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coursemint/domain/model"
	"coursemint/domain/repository"

	"github.com/lib/pq"
)

// ContentRepository stores content items in PostgreSQL. The body column holds
// the wire form of the body (a markdown string or a lesson array).
type ContentRepository struct{ db *sql.DB }

var _ repository.IContent = (*ContentRepository)(nil)

func NewContentRepository(db *sql.DB) *ContentRepository { return &ContentRepository{db: db} }

const contentColumns = `id, slug, owner_id, title, description, content_type, body, tags, key_points, estimated_read_time, price_cents, published, external_product_ref, hero_image_url, created_at, updated_at`

func (r *ContentRepository) Create(ctx context.Context, item *model.ContentItem) error {
	body, err := model.EncodeBody(item.Body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	q := `INSERT INTO content_items (` + contentColumns + `)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err = r.db.ExecContext(ctx, q,
		item.ID, item.Slug, item.OwnerID, item.Title, item.Description, string(item.ContentType), body,
		pq.Array(nonNil(item.Tags)), pq.Array(nonNil(item.KeyPoints)), item.EstimatedReadTime, item.PriceCents,
		item.Published, item.ExternalProductRef, item.HeroImageURL, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintContentSlug) {
			return repository.ErrDuplicateSlug
		}
		return fmt.Errorf("insert content item: %w", err)
	}
	return nil
}

func (r *ContentRepository) GetByID(ctx context.Context, id string) (*model.ContentItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content_items WHERE id=$1`, id)
	return scanContent(row)
}

func (r *ContentRepository) GetBySlug(ctx context.Context, slug string) (*model.ContentItem, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content_items WHERE slug=$1`, slug)
	return scanContent(row)
}

func (r *ContentRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.ContentItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+contentColumns+` FROM content_items WHERE owner_id=$1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list content items: %w", err)
	}
	defer rows.Close()
	var items []*model.ContentItem
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content items: %w", err)
	}
	return items, nil
}

func (r *ContentRepository) Update(ctx context.Context, item *model.ContentItem) error {
	body, err := model.EncodeBody(item.Body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	item.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `UPDATE content_items SET title=$1, description=$2, body=$3, tags=$4, key_points=$5,
		price_cents=$6, published=$7, external_product_ref=$8, hero_image_url=$9, updated_at=$10 WHERE id=$11`,
		item.Title, item.Description, body, pq.Array(nonNil(item.Tags)), pq.Array(nonNil(item.KeyPoints)),
		item.PriceCents, item.Published, item.ExternalProductRef, item.HeroImageURL, item.UpdatedAt, item.ID)
	if err != nil {
		return fmt.Errorf("update content item: %w", err)
	}
	return expectOneRow(res)
}

func (r *ContentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_items WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete content item: %w", err)
	}
	return expectOneRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*model.ContentItem, error) {
	item := &model.ContentItem{}
	var contentType string
	var body []byte
	var tags, keyPoints pq.StringArray
	var productRef, heroImage sql.NullString
	err := row.Scan(&item.ID, &item.Slug, &item.OwnerID, &item.Title, &item.Description, &contentType, &body,
		&tags, &keyPoints, &item.EstimatedReadTime, &item.PriceCents, &item.Published, &productRef, &heroImage,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan content item: %w", err)
	}
	item.ContentType = model.ContentType(contentType)
	item.Body, err = model.DecodeBody(item.ContentType, body)
	if err != nil {
		return nil, fmt.Errorf("content item %s has corrupt body: %w", item.ID, err)
	}
	item.Tags = []string(tags)
	item.KeyPoints = []string(keyPoints)
	if productRef.Valid {
		v := productRef.String
		item.ExternalProductRef = &v
	}
	if heroImage.Valid {
		v := heroImage.String
		item.HeroImageURL = &v
	}
	return item, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
