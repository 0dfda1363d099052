package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"coursemint/domain/model"
	"coursemint/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contentRowColumns = []string{"id", "slug", "owner_id", "title", "description", "content_type", "body", "tags", "key_points", "estimated_read_time", "price_cents", "published", "external_product_ref", "hero_image_url", "created_at", "updated_at"}

func TestContentRepository_GetBySlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContentRepository(db)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + contentColumns + ` FROM content_items WHERE slug=$1`)).
		WithArgs("intro-to-go-1a2b3c").
		WillReturnRows(sqlmock.NewRows(contentRowColumns).
			AddRow("c-1", "intro-to-go-1a2b3c", "owner-1", "Intro to Go", "basics", "course",
				[]byte(`[{"title":"L1","content":"c","quiz":{"question":"q","options":["a","b","c","d"],"correctAnswer":2}}]`),
				"{go,intro}", "{types}", 7, int64(1999), true, "prod_1", nil, created, created))

	item, err := repo.GetBySlug(context.Background(), "intro-to-go-1a2b3c")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, model.ContentTypeCourse, item.ContentType)
	assert.Equal(t, []string{"go", "intro"}, item.Tags)
	assert.Equal(t, int64(1999), item.PriceCents)
	require.NotNil(t, item.ExternalProductRef)
	assert.Equal(t, "prod_1", *item.ExternalProductRef)
	assert.Nil(t, item.HeroImageURL)
	course, ok := item.Body.(model.CourseBody)
	require.True(t, ok)
	assert.Equal(t, 2, course.Lessons[0].Quiz.CorrectAnswerIndex)
}

func TestContentRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM content_items WHERE id=$1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = NewContentRepository(db).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestContentRepository_Create_DuplicateSlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO content_items`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: constraintContentSlug})

	item := &model.ContentItem{
		ID: "c-1", Slug: "dup", OwnerID: "o", Title: "T", ContentType: model.ContentTypeBlog,
		Body: model.BlogBody{Markdown: "# hi"},
	}
	err = NewContentRepository(db).Create(context.Background(), item)
	assert.ErrorIs(t, err, repository.ErrDuplicateSlug)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestContentRepository_Create_OtherUniqueViolationIsNotSlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO content_items`)).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "content_items_pkey"})

	item := &model.ContentItem{ID: "c-1", Slug: "s", OwnerID: "o", Title: "T", ContentType: model.ContentTypeBlog, Body: model.BlogBody{Markdown: "x"}}
	err = NewContentRepository(db).Create(context.Background(), item)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDuplicateSlug)
}

func TestContentRepository_UpdateAndDelete_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewContentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE content_items SET`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM content_items WHERE id=$1`)).WithArgs("c-1").WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Update(context.Background(), &model.ContentItem{ID: "gone", ContentType: model.ContentTypeListicle, Body: model.ListicleBody{Markdown: "1. a"}})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.NoError(t, repo.Delete(context.Background(), "c-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepository_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE owner_id=$1 ORDER BY created_at DESC`)).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows(contentRowColumns).
			AddRow("c-2", "b", "owner-1", "B", "", "blog", []byte(`"# B"`), "{}", "{}", 1, int64(0), false, nil, "https://img/x", now, now).
			AddRow("c-1", "a", "owner-1", "A", "", "listicle", []byte(`"1. A"`), "{}", "{}", 1, int64(500), true, nil, nil, now, now))

	items, err := NewContentRepository(db).ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "c-2", items[0].ID)
	assert.Equal(t, model.BlogBody{Markdown: "# B"}, items[0].Body)
	require.NotNil(t, items[0].HeroImageURL)
	assert.Equal(t, model.ListicleBody{Markdown: "1. A"}, items[1].Body)
}
