package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coursemint/domain/apperror"
	"coursemint/domain/model"
	"coursemint/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const courseOutput = `{
  "title": "Model Title",
  "description": "Model description",
  "tags": ["go", " ", "concurrency"],
  "keyPoints": ["channels", "select"],
  "estimatedReadTime": 12,
  "price": 5,
  "content": [
    {"title": "Channels", "content": "Channels connect goroutines.", "quiz": {"question": "What connects goroutines?", "options": ["channels", "maps", "slices", "structs"], "correctAnswer": 0}},
    {"title": "Select", "content": "Select waits on many channels.", "quiz": {"question": "Select waits on?", "options": ["files", "channels", "locks", "none"], "correctAnswer": 1}}
  ]
}`

func TestSynthesize_CourseAppliesCreatorOverrides(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateJSON", mock.Anything, mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "source text") && strings.Contains(p, `"correctAnswer"`)
	})).Return(courseOutput, nil).Once()
	images := new(MockImageSearch)
	images.On("FindByQuery", mock.Anything, "Concurrency in Go").Return("https://img.example/hero.jpg", nil)

	uc := usecase.NewSynthesisUsecase(gen, images, 0)
	sc, err := uc.Synthesize(context.Background(), "source text", model.ContentTypeCourse,
		usecase.Metadata{Title: "Concurrency in Go", Price: 19.99})
	require.NoError(t, err)

	assert.Equal(t, "Concurrency in Go", sc.Title)
	assert.Equal(t, "Model description", sc.Description)
	assert.Equal(t, int64(1999), sc.PriceCents, "creator price wins over the echoed price")
	assert.Equal(t, []string{"go", "concurrency"}, sc.Tags)
	assert.Equal(t, 12, sc.EstimatedReadTime)
	course, ok := sc.Body.(model.CourseBody)
	require.True(t, ok)
	require.Len(t, course.Lessons, 2)
	assert.Equal(t, 1, course.Lessons[1].Quiz.CorrectAnswerIndex)
	require.NotNil(t, sc.HeroImageURL)
	assert.Equal(t, "https://img.example/hero.jpg", *sc.HeroImageURL)
	gen.AssertExpectations(t)
}

func TestSynthesize_BodyShapeMatchesType(t *testing.T) {
	tests := []struct {
		contentType model.ContentType
		output      string
		wantBody    model.Body
	}{
		{model.ContentTypeBlog, `{"title":"t","tags":["a"],"keyPoints":["k"],"content":"# Blog"}`, model.BlogBody{Markdown: "# Blog"}},
		{model.ContentTypeListicle, "```json\n{\"title\":\"t\",\"tags\":[\"a\"],\"keyPoints\":[\"k\"],\"content\":\"1. one\"}\n```", model.ListicleBody{Markdown: "1. one"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.contentType), func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).Return(tt.output, nil)
			sc, err := usecase.NewSynthesisUsecase(gen, nil, 0).Synthesize(context.Background(), "src", tt.contentType, usecase.Metadata{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, sc.Body)
			assert.Equal(t, tt.contentType, sc.Body.Kind())
			assert.Equal(t, 1, sc.EstimatedReadTime)
			assert.Nil(t, sc.HeroImageURL)
		})
	}
}

func TestSynthesize_SchemaViolations(t *testing.T) {
	tests := []struct {
		name        string
		contentType model.ContentType
		output      string
	}{
		{"not json", model.ContentTypeBlog, `here is your post`},
		{"empty tags", model.ContentTypeBlog, `{"title":"t","tags":[],"keyPoints":["k"],"content":"x"}`},
		{"missing key points", model.ContentTypeBlog, `{"title":"t","tags":["a"],"content":"x"}`},
		{"blog content is array", model.ContentTypeBlog, `{"title":"t","tags":["a"],"keyPoints":["k"],"content":[]}`},
		{"blank markdown", model.ContentTypeListicle, `{"title":"t","tags":["a"],"keyPoints":["k"],"content":"  "}`},
		{"no lessons", model.ContentTypeCourse, `{"title":"t","tags":["a"],"keyPoints":["k"],"content":[]}`},
		{"three options", model.ContentTypeCourse, `{"title":"t","tags":["a"],"keyPoints":["k"],"content":[{"title":"l","content":"c","quiz":{"question":"q","options":["a","b","c"],"correctAnswer":0}}]}`},
		{"answer out of range", model.ContentTypeCourse, `{"title":"t","tags":["a"],"keyPoints":["k"],"content":[{"title":"l","content":"c","quiz":{"question":"q","options":["a","b","c","d"],"correctAnswer":4}}]}`},
		{"no title anywhere", model.ContentTypeBlog, `{"title":"","tags":["a"],"keyPoints":["k"],"content":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := new(MockGenerator)
			gen.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).Return(tt.output, nil)
			_, err := usecase.NewSynthesisUsecase(gen, nil, 0).Synthesize(context.Background(), "src", tt.contentType, usecase.Metadata{})
			assert.Equal(t, apperror.KindUpstream, apperror.KindOf(err))
			assert.Equal(t, apperror.CodeSchemaViolation, apperror.CodeOf(err))
		})
	}
}

func TestSynthesize_UpstreamAndEmpty(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Once()
	uc := usecase.NewSynthesisUsecase(gen, nil, 0)
	_, err := uc.Synthesize(context.Background(), "src", model.ContentTypeBlog, usecase.Metadata{})
	assert.Equal(t, apperror.CodeUpstreamUnavailable, apperror.CodeOf(err))
	gen.AssertNumberOfCalls(t, "GenerateJSON", 1)

	gen = new(MockGenerator)
	gen.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).Return("   ", nil)
	_, err = usecase.NewSynthesisUsecase(gen, nil, 0).Synthesize(context.Background(), "src", model.ContentTypeBlog, usecase.Metadata{})
	assert.Equal(t, apperror.CodeEmptyOutput, apperror.CodeOf(err))
}

func TestSynthesize_RejectsBadInput(t *testing.T) {
	gen := new(MockGenerator)
	uc := usecase.NewSynthesisUsecase(gen, nil, 0)

	_, err := uc.Synthesize(context.Background(), "src", model.ContentType("podcast"), usecase.Metadata{})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	_, err = uc.Synthesize(context.Background(), "src", model.ContentTypeBlog, usecase.Metadata{Price: -1})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	gen.AssertNotCalled(t, "GenerateJSON", mock.Anything, mock.Anything, mock.Anything)
}

func TestSynthesize_HeroImageFailureIsIgnored(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(`{"title":"t","tags":["a"],"keyPoints":["k"],"content":"x"}`, nil)
	images := new(MockImageSearch)
	images.On("FindByQuery", mock.Anything, "t").Return("", errors.New("rate limited"))

	sc, err := usecase.NewSynthesisUsecase(gen, images, 0).Synthesize(context.Background(), "src", model.ContentTypeBlog, usecase.Metadata{})
	require.NoError(t, err)
	assert.Nil(t, sc.HeroImageURL)
}

func TestSynthesize_TruncatesLongSource(t *testing.T) {
	long := strings.Repeat("a", 60000)
	gen := new(MockGenerator)
	gen.On("GenerateJSON", mock.Anything, mock.Anything, mock.MatchedBy(func(p string) bool {
		return !strings.Contains(p, strings.Repeat("a", 48001)) && strings.Contains(p, strings.Repeat("a", 48000))
	})).Return(`{"title":"t","tags":["a"],"keyPoints":["k"],"content":"x"}`, nil).Once()

	_, err := usecase.NewSynthesisUsecase(gen, nil, 0).Synthesize(context.Background(), long, model.ContentTypeBlog, usecase.Metadata{})
	require.NoError(t, err)
	gen.AssertExpectations(t)
}
