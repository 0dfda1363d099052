package usecase

import (
	"context"
	"errors"
	"strings"

	"coursemint/domain/apperror"
	"coursemint/domain/model"
	"coursemint/domain/repository"
	"coursemint/infrastructure/logger"

	"github.com/google/uuid"
)

const maxSlugAttempts = 5

type IContentUsecase interface {
	// Create persists item, registering a product with the commerce provider
	// when the owner is connected. Registration failures never fail Create.
	Create(ctx context.Context, item *model.ContentItem) (*model.ContentItem, error)
	Get(ctx context.Context, id string) (*model.ContentItem, error)
	GetBySlug(ctx context.Context, slug string) (*model.ContentItem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.ContentItem, error)
	Update(ctx context.Context, callerID, id string, patch model.ContentPatch) (*model.ContentItem, error)
	Publish(ctx context.Context, callerID, id string) (*model.ContentItem, error)
	Unpublish(ctx context.Context, callerID, id string) (*model.ContentItem, error)
	Delete(ctx context.Context, callerID, id string) error
}

type contentUsecase struct {
	repo       repository.IContent
	tokens     ITokenUsecase
	commerce   repository.ICommerce // nil when the provider is not configured
	slugSuffix func() string
}

func NewContentUsecase(repo repository.IContent, tokens ITokenUsecase, commerce repository.ICommerce) IContentUsecase {
	return &contentUsecase{repo: repo, tokens: tokens, commerce: commerce, slugSuffix: randomSlugSuffix}
}

func (u *contentUsecase) Create(ctx context.Context, item *model.ContentItem) (*model.ContentItem, error) {
	if err := item.Validate(); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidInput, err.Error(), err)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	lg := logger.GetLogger().WithField("content_id", item.ID).WithField("owner_id", item.OwnerID)

	item.ExternalProductRef = nil
	if ref, ok := u.registerProduct(ctx, item); ok {
		item.ExternalProductRef = &ref
	}

	base := slugBase(item.Title)
	var err error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		item.Slug = base + "-" + u.slugSuffix()
		err = u.repo.Create(ctx, item)
		if !errors.Is(err, repository.ErrDuplicateSlug) {
			break
		}
		lg.WithField("slug", item.Slug).Debug("slug collision, retrying")
	}
	if err != nil {
		if item.ExternalProductRef != nil {
			u.archiveProduct(ctx, item)
		}
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, apperror.Wrap(apperror.KindConflict, apperror.CodeInternal, "could not allocate a unique slug", err)
		}
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "persist content item", err)
	}
	lg.WithField("slug", item.Slug).WithField("sellable", item.ExternalProductRef != nil).Info("content item created")
	return item, nil
}

// registerProduct is best-effort: every failure is logged and reported as !ok.
func (u *contentUsecase) registerProduct(ctx context.Context, item *model.ContentItem) (string, bool) {
	if u.commerce == nil || u.tokens == nil {
		return "", false
	}
	lg := logger.GetLogger().WithField("content_id", item.ID).WithField("owner_id", item.OwnerID)
	token, err := u.tokens.EnsureFreshToken(ctx, item.OwnerID)
	if err != nil {
		if apperror.CodeOf(err) == apperror.CodeNotConnected {
			lg.Info("owner has no commerce connection; storing item without product")
		} else {
			lg.WithField("error", err).Warn("commerce token unavailable; storing item without product")
		}
		return "", false
	}
	ref, err := u.commerce.CreateProduct(ctx, token, repository.ProductInput{
		Name:        item.Title,
		Description: item.Description,
		PriceCents:  item.PriceCents,
	})
	if err != nil {
		lg.WithField("error", err).Warn("product registration failed; storing item without product")
		return "", false
	}
	return ref, true
}

func (u *contentUsecase) archiveProduct(ctx context.Context, item *model.ContentItem) {
	if u.commerce == nil || u.tokens == nil || item.ExternalProductRef == nil {
		return
	}
	lg := logger.GetLogger().WithField("content_id", item.ID).WithField("product_ref", *item.ExternalProductRef)
	token, err := u.tokens.EnsureFreshToken(ctx, item.OwnerID)
	if err != nil {
		lg.WithField("error", err).Warn("cannot archive product: commerce token unavailable")
		return
	}
	if err := u.commerce.ArchiveProduct(ctx, token, *item.ExternalProductRef); err != nil {
		lg.WithField("error", err).Warn("product archive failed")
	}
}

// validID reports whether id can name a stored row. Ids are UUIDs in every store.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (u *contentUsecase) Get(ctx context.Context, id string) (*model.ContentItem, error) {
	if !validID(id) {
		return nil, apperror.NotFound(apperror.CodeNotFound, "content item not found")
	}
	item, err := u.repo.GetByID(ctx, id)
	return item, mapLookupErr(err)
}

func (u *contentUsecase) GetBySlug(ctx context.Context, slug string) (*model.ContentItem, error) {
	item, err := u.repo.GetBySlug(ctx, slug)
	return item, mapLookupErr(err)
}

func (u *contentUsecase) ListByOwner(ctx context.Context, ownerID string) ([]*model.ContentItem, error) {
	items, err := u.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "list content items", err)
	}
	if items == nil {
		items = []*model.ContentItem{}
	}
	return items, nil
}

func (u *contentUsecase) loadOwned(ctx context.Context, callerID, id string) (*model.ContentItem, error) {
	if !validID(id) {
		return nil, apperror.NotFound(apperror.CodeNotFound, "content item not found")
	}
	item, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	if item.OwnerID != callerID {
		return nil, apperror.New(apperror.KindAuth, apperror.CodeForbidden, "content item belongs to another user")
	}
	return item, nil
}

func (u *contentUsecase) Update(ctx context.Context, callerID, id string, patch model.ContentPatch) (*model.ContentItem, error) {
	item, err := u.loadOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, apperror.Validation(apperror.CodeInvalidInput, "title must not be blank")
		}
		item.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Tags != nil {
		item.Tags = *patch.Tags
	}
	if patch.KeyPoints != nil {
		item.KeyPoints = *patch.KeyPoints
	}
	if patch.PriceCents != nil {
		item.PriceCents = *patch.PriceCents
	}
	if patch.Body != nil {
		item.Body = patch.Body
	}
	if err := item.Validate(); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, apperror.CodeInvalidInput, err.Error(), err)
	}
	return u.save(ctx, item)
}

func (u *contentUsecase) Publish(ctx context.Context, callerID, id string) (*model.ContentItem, error) {
	return u.setPublished(ctx, callerID, id, true)
}

func (u *contentUsecase) Unpublish(ctx context.Context, callerID, id string) (*model.ContentItem, error) {
	return u.setPublished(ctx, callerID, id, false)
}

func (u *contentUsecase) setPublished(ctx context.Context, callerID, id string, published bool) (*model.ContentItem, error) {
	item, err := u.loadOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if item.Published == published {
		return item, nil
	}
	item.Published = published
	return u.save(ctx, item)
}

func (u *contentUsecase) save(ctx context.Context, item *model.ContentItem) (*model.ContentItem, error) {
	if err := u.repo.Update(ctx, item); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(apperror.CodeNotFound, "content item not found")
		}
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "update content item", err)
	}
	return item, nil
}

// Delete removes the item. Its access grants stay behind as purchase history.
func (u *contentUsecase) Delete(ctx context.Context, callerID, id string) error {
	item, err := u.loadOwned(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err := u.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound(apperror.CodeNotFound, "content item not found")
		}
		return apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "delete content item", err)
	}
	// only once the row is gone, so a failed delete leaves the item sellable
	u.archiveProduct(ctx, item)
	logger.GetLogger().WithField("content_id", id).Info("content item deleted")
	return nil
}

func mapLookupErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(apperror.CodeNotFound, "content item not found")
	}
	return apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "load content item", err)
}
