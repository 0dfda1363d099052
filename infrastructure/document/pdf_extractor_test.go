package document

import (
	"context"
	"errors"
	"testing"
	"time"

	"coursemint/domain/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(parse parseFunc) *PDFExtractor {
	e := NewPDFExtractor(1024, 50*time.Millisecond)
	e.parse = parse
	return e
}

func TestExtract_RejectsWrongMime(t *testing.T) {
	e := newTestExtractor(func([]byte) (string, error) { return "text", nil })
	_, err := e.Extract(context.Background(), []byte("data"), "text/plain")
	assert.Equal(t, apperror.CodeInvalidType, apperror.CodeOf(err))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestExtract_AcceptsMimeWithParameters(t *testing.T) {
	e := newTestExtractor(func([]byte) (string, error) { return "  Time   management\r\n\r\n\r\nbasics ", nil })
	text, err := e.Extract(context.Background(), []byte("%PDF"), "Application/PDF; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "Time management\n\nbasics", text)
}

func TestExtract_TooLarge(t *testing.T) {
	e := newTestExtractor(func([]byte) (string, error) { return "text", nil })
	_, err := e.Extract(context.Background(), make([]byte, 2048), AcceptedMime)
	assert.Equal(t, apperror.CodeTooLarge, apperror.CodeOf(err))
}

func TestExtract_EmptyResultIsFailure(t *testing.T) {
	e := newTestExtractor(func([]byte) (string, error) { return " \n\t ", nil })
	_, err := e.Extract(context.Background(), []byte("%PDF"), AcceptedMime)
	assert.Equal(t, apperror.CodeEmptyResult, apperror.CodeOf(err))
}

func TestExtract_ParserErrorAndPanic(t *testing.T) {
	e := newTestExtractor(func([]byte) (string, error) { return "", errors.New("bad xref") })
	_, err := e.Extract(context.Background(), []byte("%PDF"), AcceptedMime)
	assert.Equal(t, apperror.CodeExtractionFailed, apperror.CodeOf(err))

	e = newTestExtractor(func([]byte) (string, error) { panic("corrupt stream") })
	_, err = e.Extract(context.Background(), []byte("%PDF"), AcceptedMime)
	assert.Equal(t, apperror.CodeExtractionFailed, apperror.CodeOf(err))
}

func TestExtract_StuckParserTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	e := newTestExtractor(func([]byte) (string, error) {
		<-release
		return "late", nil
	})
	start := time.Now()
	_, err := e.Extract(context.Background(), []byte("%PDF"), AcceptedMime)
	assert.Equal(t, apperror.CodeExtractionFailed, apperror.CodeOf(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestExtract_GarbageBytesWithRealParser(t *testing.T) {
	e := NewPDFExtractor(0, time.Second)
	_, err := e.Extract(context.Background(), []byte("definitely not a pdf"), AcceptedMime)
	assert.Equal(t, apperror.CodeExtractionFailed, apperror.CodeOf(err))
}
