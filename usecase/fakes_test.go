package usecase_test

import (
	"context"
	"sync"
	"time"

	"coursemint/domain/model"
	"coursemint/domain/repository"

	"github.com/stretchr/testify/mock"
)

// memContentRepo is an in-memory repository.IContent.
type memContentRepo struct {
	mu          sync.Mutex
	items       map[string]*model.ContentItem
	dupSlugs    int // number of Create calls that fail with ErrDuplicateSlug
	createCalls int
	deleteErr   error
}

func newMemContentRepo() *memContentRepo {
	return &memContentRepo{items: map[string]*model.ContentItem{}}
}

func (r *memContentRepo) Create(_ context.Context, item *model.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.dupSlugs > 0 {
		r.dupSlugs--
		return repository.ErrDuplicateSlug
	}
	for _, it := range r.items {
		if it.Slug == item.Slug {
			return repository.ErrDuplicateSlug
		}
	}
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memContentRepo) GetByID(_ context.Context, id string) (*model.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (r *memContentRepo) GetBySlug(_ context.Context, slug string) (*model.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.Slug == slug {
			cp := *it
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memContentRepo) ListByOwner(_ context.Context, ownerID string) ([]*model.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ContentItem
	for _, it := range r.items {
		if it.OwnerID == ownerID {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memContentRepo) Update(_ context.Context, item *model.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *memContentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memContentRepo) put(item *model.ContentItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[item.ID] = &cp
}

// memGrantRepo is an in-memory repository.IAccessGrant with a unique code index.
type memGrantRepo struct {
	mu          sync.Mutex
	byCode      map[string]*model.AccessGrant
	insertCalls int
}

func newMemGrantRepo() *memGrantRepo {
	return &memGrantRepo{byCode: map[string]*model.AccessGrant{}}
}

func (r *memGrantRepo) Insert(_ context.Context, g *model.AccessGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertCalls++
	if _, ok := r.byCode[g.Code]; ok {
		return repository.ErrDuplicateCode
	}
	cp := *g
	r.byCode[g.Code] = &cp
	return nil
}

func (r *memGrantRepo) FindByItemAndCode(_ context.Context, itemID, code string) (*model.AccessGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byCode[code]
	if !ok || g.ContentItemID != itemID {
		return nil, repository.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (r *memGrantRepo) MarkCompleted(_ context.Context, itemID, code string, at time.Time, orderRef *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byCode[code]
	if !ok || g.ContentItemID != itemID || g.OwnerUserID != nil || g.CompletedAt != nil {
		return false, nil
	}
	g.CompletedAt = &at
	if orderRef != nil {
		g.ExternalOrderRef = orderRef
	}
	return true, nil
}

func (r *memGrantRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byCode)
}

// memTokenRepo is an in-memory repository.IOAuthToken.
type memTokenRepo struct {
	mu      sync.Mutex
	tokens  map[string]*model.OAuthToken
	upserts int
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: map[string]*model.OAuthToken{}}
}

func (r *memTokenRepo) UpsertToken(_ context.Context, t *model.OAuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	t.Invalid = false
	cp := *t
	r.tokens[t.UserID+"/"+t.Platform] = &cp
	return nil
}

func (r *memTokenRepo) GetToken(_ context.Context, userID, platform string) (*model.OAuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[userID+"/"+platform]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTokenRepo) MarkInvalid(_ context.Context, userID, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[userID+"/"+platform]
	if !ok {
		return repository.ErrNotFound
	}
	t.Invalid = true
	return nil
}

func (r *memTokenRepo) DeleteToken(_ context.Context, userID, platform string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, userID+"/"+platform)
	return nil
}

func (r *memTokenRepo) put(t *model.OAuthToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tokens[t.UserID+"/"+t.Platform] = &cp
}

type MockRefresher struct {
	mock.Mock
}

func (m *MockRefresher) Refresh(ctx context.Context, rt string) (*model.TokenGrant, error) {
	args := m.Called(ctx, rt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenGrant), args.Error(1)
}

func (m *MockRefresher) Exchange(ctx context.Context, code string) (*model.TokenGrant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TokenGrant), args.Error(1)
}

func (m *MockRefresher) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

type MockCommerce struct {
	mock.Mock
}

func (m *MockCommerce) CreateProduct(ctx context.Context, token string, in repository.ProductInput) (string, error) {
	args := m.Called(ctx, token, in)
	return args.String(0), args.Error(1)
}

func (m *MockCommerce) ArchiveProduct(ctx context.Context, token, ref string) error {
	return m.Called(ctx, token, ref).Error(0)
}

func (m *MockCommerce) CreateCheckout(ctx context.Context, token string, in repository.CheckoutInput) (string, error) {
	args := m.Called(ctx, token, in)
	return args.String(0), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateJSON(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

type MockImageSearch struct {
	mock.Mock
}

func (m *MockImageSearch) FindByQuery(ctx context.Context, q string) (string, error) {
	args := m.Called(ctx, q)
	return args.String(0), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, data []byte, mime string) (string, error) {
	args := m.Called(ctx, data, mime)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	args := m.Called(ctx, topic, payload)
	return args.String(0), args.Error(1)
}

type MockGenerationLog struct {
	mock.Mock
}

func (m *MockGenerationLog) Record(ctx context.Context, e *model.GenerationLogEntry) error {
	return m.Called(ctx, e).Error(0)
}

// countingLimiter is an in-memory repository.IAttemptLimiter.
type countingLimiter struct {
	mu       sync.Mutex
	max      int64
	failures map[string]int64
	err      error
}

func newCountingLimiter(max int64) *countingLimiter {
	return &countingLimiter{max: max, failures: map[string]int64{}}
}

func (l *countingLimiter) Blocked(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	return l.failures[key] >= l.max, nil
}

func (l *countingLimiter) RecordFailure(_ context.Context, key string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	l.failures[key]++
	return l.failures[key], nil
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
