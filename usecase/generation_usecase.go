package usecase

import (
	"context"
	"encoding/json"
	"time"

	"coursemint/domain/apperror"
	"coursemint/domain/model"
	"coursemint/domain/repository"
	"coursemint/infrastructure/logger"
)

// GenerateRequest is one creator upload.
type GenerateRequest struct {
	OwnerID     string
	Document    []byte
	MimeType    string
	ContentType string
	Title       string
	Description string
	Price       float64
}

type IGenerationUsecase interface {
	Generate(ctx context.Context, req GenerateRequest) (*model.ContentItem, error)
}

type generationUsecase struct {
	extractor   repository.IDocumentExtractor
	synthesizer ISynthesisUsecase
	contents    IContentUsecase
	audit       repository.IGenerationLog  // optional
	events      repository.IEventPublisher // optional
	now         func() time.Time
}

func NewGenerationUsecase(
	extractor repository.IDocumentExtractor,
	synthesizer ISynthesisUsecase,
	contents IContentUsecase,
	audit repository.IGenerationLog,
	events repository.IEventPublisher,
) IGenerationUsecase {
	return &generationUsecase{
		extractor:   extractor,
		synthesizer: synthesizer,
		contents:    contents,
		audit:       audit,
		events:      events,
		now:         time.Now,
	}
}

func (u *generationUsecase) Generate(ctx context.Context, req GenerateRequest) (*model.ContentItem, error) {
	started := u.now()
	contentType, err := model.ParseContentType(req.ContentType)
	if err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, err.Error())
	}
	entry := &model.GenerationLogEntry{OwnerID: req.OwnerID, ContentType: contentType}
	fail := func(err error) (*model.ContentItem, error) {
		entry.Status = model.GenerationFailed
		entry.FailureReason = apperror.CodeOf(err)
		if entry.FailureReason == "" {
			entry.FailureReason = apperror.CodeInternal
		}
		u.record(ctx, entry, started)
		return nil, err
	}

	text, err := u.extractor.Extract(ctx, req.Document, req.MimeType)
	if err != nil {
		return fail(err)
	}
	entry.SourceChars = len(text)

	sc, err := u.synthesizer.Synthesize(ctx, text, contentType, Metadata{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		return fail(err)
	}

	item, err := u.contents.Create(ctx, &model.ContentItem{
		OwnerID:           req.OwnerID,
		Title:             sc.Title,
		Description:       sc.Description,
		ContentType:       sc.ContentType,
		Body:              sc.Body,
		Tags:              sc.Tags,
		KeyPoints:         sc.KeyPoints,
		EstimatedReadTime: sc.EstimatedReadTime,
		PriceCents:        sc.PriceCents,
		HeroImageURL:      sc.HeroImageURL,
	})
	if err != nil {
		return fail(err)
	}

	entry.Status = model.GenerationSucceeded
	entry.ContentItemID = item.ID
	u.record(ctx, entry, started)
	u.publishGenerated(ctx, item)
	return item, nil
}

func (u *generationUsecase) record(ctx context.Context, entry *model.GenerationLogEntry, started time.Time) {
	if u.audit == nil {
		return
	}
	entry.DurationMs = u.now().Sub(started).Milliseconds()
	entry.CreatedAt = u.now().UTC()
	if err := u.audit.Record(ctx, entry); err != nil {
		logger.GetLogger().WithField("error", err).WithField("owner_id", entry.OwnerID).Warn("failed to write generation log")
	}
}

func (u *generationUsecase) publishGenerated(ctx context.Context, item *model.ContentItem) {
	if u.events == nil {
		return
	}
	payload, err := json.Marshal(model.ContentGeneratedEvent{
		ContentItemID: item.ID,
		OwnerID:       item.OwnerID,
		ContentType:   item.ContentType,
		Sellable:      item.ExternalProductRef != nil,
		OccurredAt:    item.CreatedAt,
	})
	if err != nil {
		return
	}
	if _, err := u.events.Publish(ctx, model.TopicContentGenerated, payload); err != nil {
		logger.GetLogger().WithField("error", err).WithField("content_id", item.ID).Warn("failed to publish content event")
	}
}
