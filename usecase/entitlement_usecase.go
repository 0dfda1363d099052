package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"coursemint/domain/apperror"
	"coursemint/domain/model"
	"coursemint/domain/repository"
	"coursemint/infrastructure/logger"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
)

const maxIssueAttempts = 5

// IssueResult is handed to the buyer when checkout starts.
type IssueResult struct {
	Code        string `json:"code"`
	CheckoutURL string `json:"checkout_url"`
	ReturnURL   string `json:"return_url"`
}

// UnlockResult carries the item together with the verdict on the presented code.
type UnlockResult struct {
	Item   *model.ContentItem
	Result model.ValidationResult
}

type IEntitlementUsecase interface {
	Issue(ctx context.Context, contentItemID string) (*IssueResult, error)
	// Validate reports whether code unlocks the item. clientKey scopes the
	// failed-attempt counter and may be empty.
	Validate(ctx context.Context, contentItemID, code, clientKey string) (model.ValidationResult, error)
	CompletePurchase(ctx context.Context, contentItemID, code string, orderRef *string) (*model.AccessGrant, error)
	UnlockBySlug(ctx context.Context, slug, code, clientKey string) (*UnlockResult, error)
}

type EntitlementOption func(*entitlementUsecase)

// WithCodeGenerator replaces the random access code source.
func WithCodeGenerator(gen CodeGenerator) EntitlementOption {
	return func(u *entitlementUsecase) { u.generate = gen }
}

func WithAttemptLimiter(l repository.IAttemptLimiter) EntitlementOption {
	return func(u *entitlementUsecase) { u.limiter = l }
}

func WithEventPublisher(p repository.IEventPublisher) EntitlementOption {
	return func(u *entitlementUsecase) { u.events = p }
}

type entitlementUsecase struct {
	items         repository.IContent
	grants        repository.IAccessGrant
	tokens        ITokenUsecase
	commerce      repository.ICommerce
	publicBaseURL string
	generate      CodeGenerator
	limiter       repository.IAttemptLimiter
	events        repository.IEventPublisher
	now           func() time.Time
}

func NewEntitlementUsecase(
	items repository.IContent,
	grants repository.IAccessGrant,
	tokens ITokenUsecase,
	commerce repository.ICommerce,
	publicBaseURL string,
	opts ...EntitlementOption,
) IEntitlementUsecase {
	u := &entitlementUsecase{
		items:         items,
		grants:        grants,
		tokens:        tokens,
		commerce:      commerce,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		generate:      RandomAccessCode,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type returnParams struct {
	AccessCode string `url:"access_code"`
}

func (u *entitlementUsecase) Issue(ctx context.Context, contentItemID string) (*IssueResult, error) {
	if !validID(contentItemID) {
		return nil, apperror.NotFound(apperror.CodeContentNotFound, "content not found")
	}
	item, err := u.items.GetByID(ctx, contentItemID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "load content item", err)
	}
	if item == nil || !item.Published {
		return nil, apperror.NotFound(apperror.CodeContentNotFound, "content not found")
	}
	if item.ExternalProductRef == nil || u.commerce == nil {
		return nil, apperror.Validation(apperror.CodeNoSellableProduct, "content is not for sale")
	}
	token, err := u.tokens.EnsureFreshToken(ctx, item.OwnerID)
	if err != nil {
		return nil, err
	}

	lg := logger.GetLogger().WithField("content_id", item.ID)
	var grant *model.AccessGrant
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		code, err := u.generate()
		if err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, apperror.CodePurchaseRecordFailed, "generate access code", err)
		}
		g := &model.AccessGrant{
			ID:            uuid.NewString(),
			ContentItemID: item.ID,
			Code:          code,
			IssuedAt:      u.now().UTC(),
		}
		err = u.grants.Insert(ctx, g)
		if err == nil {
			grant = g
			break
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return nil, apperror.Wrap(apperror.KindInternal, apperror.CodePurchaseRecordFailed, "record purchase", err)
		}
		lg.WithField("attempt", attempt).Warn("access code collision")
	}
	if grant == nil {
		return nil, apperror.New(apperror.KindConflict, apperror.CodePurchaseRecordFailed, "could not allocate a unique access code")
	}

	returnURL, err := u.returnURL(item.Slug, grant.Code)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "build return url", err)
	}
	checkoutURL, err := u.commerce.CreateCheckout(ctx, token, repository.CheckoutInput{
		ProductRef:  *item.ExternalProductRef,
		RedirectURL: returnURL,
		AccessCode:  grant.Code,
		PriceCents:  item.PriceCents,
	})
	if err != nil {
		// the grant stays pending; the buyer can still start over
		lg.WithField("error", err).WithField("grant_id", grant.ID).Error("checkout creation failed")
		return nil, apperror.Upstream(apperror.CodeCheckoutUnavailable, "checkout unavailable", err)
	}
	return &IssueResult{Code: grant.Code, CheckoutURL: checkoutURL, ReturnURL: returnURL}, nil
}

func (u *entitlementUsecase) returnURL(slug, code string) (string, error) {
	v, err := query.Values(returnParams{AccessCode: code})
	if err != nil {
		return "", err
	}
	return u.publicBaseURL + "/" + url.PathEscape(slug) + "?" + v.Encode(), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (u *entitlementUsecase) Validate(ctx context.Context, contentItemID, code, clientKey string) (model.ValidationResult, error) {
	code = normalizeCode(code)
	key := contentItemID + ":" + clientKey
	lg := logger.GetLogger().WithField("content_id", contentItemID)

	if u.limiter != nil {
		blocked, err := u.limiter.Blocked(ctx, key)
		if err != nil {
			lg.WithField("error", err).Warn("attempt limiter unavailable; allowing validation")
		} else if blocked {
			return model.AccessInvalid, apperror.New(apperror.KindRateLimited, apperror.CodeTooManyAttempts, "too many invalid access codes; try again later")
		}
	}

	if !validID(contentItemID) || !model.WellFormedAccessCode(code) {
		u.recordFailure(ctx, key)
		return model.AccessInvalid, nil
	}
	_, err := u.grants.FindByItemAndCode(ctx, contentItemID, code)
	if errors.Is(err, repository.ErrNotFound) {
		u.recordFailure(ctx, key)
		return model.AccessInvalid, nil
	}
	if err != nil {
		return model.AccessInvalid, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "look up access grant", err)
	}
	return model.AccessGranted, nil
}

func (u *entitlementUsecase) recordFailure(ctx context.Context, key string) {
	if u.limiter == nil {
		return
	}
	if _, err := u.limiter.RecordFailure(ctx, key); err != nil {
		logger.GetLogger().WithField("error", err).Warn("failed to record invalid access attempt")
	}
}

func (u *entitlementUsecase) CompletePurchase(ctx context.Context, contentItemID, code string, orderRef *string) (*model.AccessGrant, error) {
	code = normalizeCode(code)
	if !validID(contentItemID) {
		return nil, apperror.NotFound(apperror.CodeNotFound, "access grant not found")
	}
	changed, err := u.grants.MarkCompleted(ctx, contentItemID, code, u.now().UTC(), orderRef)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "complete access grant", err)
	}
	grant, err := u.grants.FindByItemAndCode(ctx, contentItemID, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NotFound(apperror.CodeNotFound, "access grant not found")
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "look up access grant", err)
	}
	if changed {
		logger.GetLogger().WithField("grant_id", grant.ID).WithField("content_id", contentItemID).Info("purchase completed")
		u.publishCompleted(ctx, grant)
	}
	return grant, nil
}

func (u *entitlementUsecase) publishCompleted(ctx context.Context, grant *model.AccessGrant) {
	if u.events == nil {
		return
	}
	occurred := u.now().UTC()
	if grant.CompletedAt != nil {
		occurred = *grant.CompletedAt
	}
	payload, err := json.Marshal(model.PurchaseCompletedEvent{
		GrantID:          grant.ID,
		ContentItemID:    grant.ContentItemID,
		ExternalOrderRef: grant.ExternalOrderRef,
		OccurredAt:       occurred,
	})
	if err != nil {
		return
	}
	if _, err := u.events.Publish(ctx, model.TopicPurchaseCompleted, payload); err != nil {
		logger.GetLogger().WithField("error", err).WithField("grant_id", grant.ID).Warn("failed to publish purchase event")
	}
}

func (u *entitlementUsecase) UnlockBySlug(ctx context.Context, slug, code, clientKey string) (*UnlockResult, error) {
	item, err := u.items.GetBySlug(ctx, slug)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Wrap(apperror.KindInternal, apperror.CodeInternal, "load content item", err)
	}
	if item == nil {
		return nil, apperror.NotFound(apperror.CodeContentNotFound, "content not found")
	}
	// buyers keep access after the owner unpublishes; only the draft itself stays hidden
	res, err := u.Validate(ctx, item.ID, code, clientKey)
	if err != nil {
		return nil, err
	}
	if res != model.AccessGranted && !item.Published {
		return nil, apperror.NotFound(apperror.CodeContentNotFound, "content not found")
	}
	if res == model.AccessGranted {
		if _, err := u.CompletePurchase(ctx, item.ID, code, nil); err != nil {
			logger.GetLogger().WithField("error", err).WithField("content_id", item.ID).Warn("access granted but completion failed")
		}
	}
	return &UnlockResult{Item: item, Result: res}, nil
}
