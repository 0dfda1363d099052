package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ContentType is the shape a content item was generated as.
type ContentType string

const (
	ContentTypeBlog     ContentType = "blog"
	ContentTypeListicle ContentType = "listicle"
	ContentTypeCourse   ContentType = "course"
)

// QuizOptionCount is the fixed number of answers every lesson quiz offers.
const QuizOptionCount = 4

func ParseContentType(s string) (ContentType, error) {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case ContentTypeBlog:
		return ContentTypeBlog, nil
	case ContentTypeListicle:
		return ContentTypeListicle, nil
	case ContentTypeCourse:
		return ContentTypeCourse, nil
	}
	return "", fmt.Errorf("unsupported content type %q", s)
}

// Body is the polymorphic payload of a content item. Only the types in this
// file implement it.
type Body interface {
	Kind() ContentType
	isBody()
}

type BlogBody struct {
	Markdown string
}

type ListicleBody struct {
	Markdown string
}

type CourseBody struct {
	Lessons []Lesson
}

func (BlogBody) Kind() ContentType     { return ContentTypeBlog }
func (ListicleBody) Kind() ContentType { return ContentTypeListicle }
func (CourseBody) Kind() ContentType   { return ContentTypeCourse }

func (BlogBody) isBody()     {}
func (ListicleBody) isBody() {}
func (CourseBody) isBody()   {}

type Lesson struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Quiz    Quiz   `json:"quiz"`
}

type Quiz struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswer"`
}

func (q Quiz) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return errors.New("quiz question is empty")
	}
	if len(q.Options) != QuizOptionCount {
		return fmt.Errorf("quiz must have %d options, got %d", QuizOptionCount, len(q.Options))
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("quiz option %d is empty", i)
		}
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex > len(q.Options)-1 {
		return fmt.Errorf("correct answer index %d out of range [0,%d]", q.CorrectAnswerIndex, len(q.Options)-1)
	}
	return nil
}

func (l Lesson) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return errors.New("lesson title is empty")
	}
	if strings.TrimSpace(l.Content) == "" {
		return errors.New("lesson content is empty")
	}
	return l.Quiz.Validate()
}

// ValidateBody checks that body is non-empty and well-formed for its kind.
func ValidateBody(body Body) error {
	switch b := body.(type) {
	case BlogBody:
		if strings.TrimSpace(b.Markdown) == "" {
			return errors.New("blog body is empty")
		}
	case ListicleBody:
		if strings.TrimSpace(b.Markdown) == "" {
			return errors.New("listicle body is empty")
		}
	case CourseBody:
		if len(b.Lessons) == 0 {
			return errors.New("course has no lessons")
		}
		for i, l := range b.Lessons {
			if err := l.Validate(); err != nil {
				return fmt.Errorf("lesson %d: %w", i, err)
			}
		}
	case nil:
		return errors.New("body is missing")
	default:
		return fmt.Errorf("unknown body type %T", body)
	}
	return nil
}

// EncodeBody renders a body in its wire form: a markdown string, or a lesson array.
func EncodeBody(body Body) ([]byte, error) {
	switch b := body.(type) {
	case BlogBody:
		return json.Marshal(b.Markdown)
	case ListicleBody:
		return json.Marshal(b.Markdown)
	case CourseBody:
		return json.Marshal(b.Lessons)
	}
	return nil, fmt.Errorf("unknown body type %T", body)
}

// DecodeBody interprets raw JSON according to contentType and validates the result.
func DecodeBody(contentType ContentType, raw []byte) (Body, error) {
	var body Body
	switch contentType {
	case ContentTypeBlog, ContentTypeListicle:
		var md string
		if err := json.Unmarshal(raw, &md); err != nil {
			return nil, fmt.Errorf("%s content must be a markdown string: %w", contentType, err)
		}
		if contentType == ContentTypeBlog {
			body = BlogBody{Markdown: md}
		} else {
			body = ListicleBody{Markdown: md}
		}
	case ContentTypeCourse:
		var lessons []Lesson
		if err := json.Unmarshal(raw, &lessons); err != nil {
			return nil, fmt.Errorf("course content must be a lesson array: %w", err)
		}
		body = CourseBody{Lessons: lessons}
	default:
		return nil, fmt.Errorf("unsupported content type %q", contentType)
	}
	if err := ValidateBody(body); err != nil {
		return nil, err
	}
	return body, nil
}

// ContentItem is a generated, sellable unit of content.
type ContentItem struct {
	ID                 string      `json:"id"`
	Slug               string      `json:"slug"`
	OwnerID            string      `json:"owner_id"`
	Title              string      `json:"title"`
	Description        string      `json:"description"`
	ContentType        ContentType `json:"content_type"`
	Body               Body        `json:"-"`
	Tags               []string    `json:"tags"`
	KeyPoints          []string    `json:"key_points"`
	EstimatedReadTime  int         `json:"estimated_read_time"`
	PriceCents         int64       `json:"price_cents"`
	Published          bool        `json:"published"`
	ExternalProductRef *string     `json:"external_product_ref,omitempty"`
	HeroImageURL       *string     `json:"hero_image_url,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Validate enforces the invariants that must hold before an item is stored.
func (c *ContentItem) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return errors.New("owner id is required")
	}
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("title is required")
	}
	if _, err := ParseContentType(string(c.ContentType)); err != nil {
		return err
	}
	if c.PriceCents < 0 {
		return errors.New("price must not be negative")
	}
	if c.Body == nil {
		return errors.New("body is missing")
	}
	if c.Body.Kind() != c.ContentType {
		return fmt.Errorf("body kind %s does not match content type %s", c.Body.Kind(), c.ContentType)
	}
	return ValidateBody(c.Body)
}

func (c ContentItem) MarshalJSON() ([]byte, error) {
	type alias ContentItem
	out := struct {
		alias
		Body json.RawMessage `json:"body,omitempty"`
	}{alias: alias(c)}
	if c.Body != nil {
		raw, err := EncodeBody(c.Body)
		if err != nil {
			return nil, err
		}
		out.Body = raw
	}
	return json.Marshal(out)
}

// Preview is the locked view shown to buyers without a valid code.
type Preview struct {
	ID                string      `json:"id"`
	Slug              string      `json:"slug"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	ContentType       ContentType `json:"content_type"`
	Tags              []string    `json:"tags"`
	KeyPoints         []string    `json:"key_points"`
	EstimatedReadTime int         `json:"estimated_read_time"`
	PriceCents        int64       `json:"price_cents"`
	HeroImageURL      *string     `json:"hero_image_url,omitempty"`
	Locked            bool        `json:"locked"`
}

func (c *ContentItem) Preview() Preview {
	return Preview{
		ID:                c.ID,
		Slug:              c.Slug,
		Title:             c.Title,
		Description:       c.Description,
		ContentType:       c.ContentType,
		Tags:              c.Tags,
		KeyPoints:         c.KeyPoints,
		EstimatedReadTime: c.EstimatedReadTime,
		PriceCents:        c.PriceCents,
		HeroImageURL:      c.HeroImageURL,
		Locked:            true,
	}
}

// ContentPatch carries owner edits; nil fields are left untouched.
type ContentPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	KeyPoints   *[]string `json:"key_points"`
	PriceCents  *int64    `json:"price_cents"`
	Body        Body      `json:"-"`
}
