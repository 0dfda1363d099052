package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"coursemint/domain/apperror"
	"coursemint/domain/model"
	"coursemint/domain/repository"
	"coursemint/infrastructure/logger"
)

const (
	defaultModelTimeout = 60 * time.Second
	heroImageTimeout    = 3 * time.Second
	wordsPerMinute      = 200
)

// Metadata is what the creator supplied alongside the document.
type Metadata struct {
	Title       string
	Description string
	Price       float64
}

// StructuredContent is validated model output with creator overrides applied.
type StructuredContent struct {
	Title             string
	Description       string
	ContentType       model.ContentType
	Tags              []string
	KeyPoints         []string
	EstimatedReadTime int
	PriceCents        int64
	Body              model.Body
	HeroImageURL      *string
}

type ISynthesisUsecase interface {
	Synthesize(ctx context.Context, sourceText string, contentType model.ContentType, meta Metadata) (*StructuredContent, error)
}

type synthesisUsecase struct {
	generator    repository.IGenerator
	images       repository.IImageSearch // optional
	modelTimeout time.Duration
}

func NewSynthesisUsecase(generator repository.IGenerator, images repository.IImageSearch, modelTimeout time.Duration) ISynthesisUsecase {
	if modelTimeout <= 0 {
		modelTimeout = defaultModelTimeout
	}
	return &synthesisUsecase{generator: generator, images: images, modelTimeout: modelTimeout}
}

// modelOutput mirrors the JSON contract given to the model.
type modelOutput struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Tags              []string        `json:"tags"`
	KeyPoints         []string        `json:"keyPoints"`
	EstimatedReadTime int             `json:"estimatedReadTime"`
	Price             *float64        `json:"price"`
	Content           json.RawMessage `json:"content"`
}

func (u *synthesisUsecase) Synthesize(ctx context.Context, sourceText string, contentType model.ContentType, meta Metadata) (*StructuredContent, error) {
	if _, err := model.ParseContentType(string(contentType)); err != nil {
		return nil, apperror.Validation(apperror.CodeInvalidInput, err.Error())
	}
	if meta.Price < 0 || math.IsNaN(meta.Price) || math.IsInf(meta.Price, 0) {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "price must be a non-negative number")
	}
	lg := logger.GetLogger().WithField("content_type", contentType)

	system, user := buildPrompts(sourceText, contentType, meta)
	callCtx, cancel := context.WithTimeout(ctx, u.modelTimeout)
	raw, err := u.generator.GenerateJSON(callCtx, system, user)
	cancel()
	if err != nil {
		lg.WithField("error", err).Error("generative model call failed")
		return nil, apperror.Upstream(apperror.CodeUpstreamUnavailable, "content generation service unavailable", err)
	}
	raw = stripCodeFence(raw)
	if raw == "" {
		return nil, apperror.Upstream(apperror.CodeEmptyOutput, "model returned no content", nil)
	}

	out, err := parseModelOutput(raw, contentType)
	if err != nil {
		lg.WithField("error", err).Warn("model output rejected")
		return nil, apperror.Upstream(apperror.CodeSchemaViolation, "model output does not match the content schema", err)
	}

	if t := strings.TrimSpace(meta.Title); t != "" {
		out.Title = t
	}
	if d := strings.TrimSpace(meta.Description); d != "" {
		out.Description = d
	}
	if out.Title == "" {
		return nil, apperror.Upstream(apperror.CodeSchemaViolation, "model output does not match the content schema", fmt.Errorf("title is empty"))
	}
	// the creator's price always wins over whatever the model echoed
	out.PriceCents = int64(math.Round(meta.Price * 100))

	if u.images != nil {
		u.attachHeroImage(ctx, out)
	}
	return out, nil
}

func (u *synthesisUsecase) attachHeroImage(ctx context.Context, out *StructuredContent) {
	imgCtx, cancel := context.WithTimeout(ctx, heroImageTimeout)
	defer cancel()
	url, err := u.images.FindByQuery(imgCtx, out.Title)
	if err != nil || url == "" {
		logger.GetLogger().WithField("error", err).WithField("title", out.Title).Warn("hero image lookup failed; continuing without image")
		return
	}
	out.HeroImageURL = &url
}

func parseModelOutput(raw string, contentType model.ContentType) (*StructuredContent, error) {
	var mo modelOutput
	if err := json.Unmarshal([]byte(raw), &mo); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	tags := compact(mo.Tags)
	if len(tags) == 0 {
		return nil, fmt.Errorf("tags must not be empty")
	}
	keyPoints := compact(mo.KeyPoints)
	if len(keyPoints) == 0 {
		return nil, fmt.Errorf("keyPoints must not be empty")
	}
	if len(mo.Content) == 0 {
		return nil, fmt.Errorf("content is missing")
	}
	body, err := model.DecodeBody(contentType, mo.Content)
	if err != nil {
		return nil, err
	}
	readTime := mo.EstimatedReadTime
	if readTime <= 0 {
		readTime = estimateReadTime(body)
	}
	return &StructuredContent{
		Title:             strings.TrimSpace(mo.Title),
		Description:       strings.TrimSpace(mo.Description),
		ContentType:       contentType,
		Tags:              tags,
		KeyPoints:         keyPoints,
		EstimatedReadTime: readTime,
		Body:              body,
	}, nil
}

func estimateReadTime(body model.Body) int {
	words := 0
	switch b := body.(type) {
	case model.BlogBody:
		words = len(strings.Fields(b.Markdown))
	case model.ListicleBody:
		words = len(strings.Fields(b.Markdown))
	case model.CourseBody:
		for _, l := range b.Lessons {
			words += len(strings.Fields(l.Content))
		}
	}
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
