package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"coursemint/domain/apperror"
	"coursemint/infrastructure/logger"

	"github.com/ledongthuc/pdf"
)

const (
	AcceptedMime        = "application/pdf"
	DefaultMaxBytes     = 10 << 20
	DefaultParseTimeout = 20 * time.Second
)

type parseFunc func(data []byte) (string, error)

// PDFExtractor pulls plain text out of uploaded PDF documents.
type PDFExtractor struct {
	maxBytes int64
	timeout  time.Duration
	parse    parseFunc
}

func NewPDFExtractor(maxBytes int64, timeout time.Duration) *PDFExtractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if timeout <= 0 {
		timeout = DefaultParseTimeout
	}
	return &PDFExtractor{maxBytes: maxBytes, timeout: timeout, parse: parsePDF}
}

func (e *PDFExtractor) Extract(ctx context.Context, data []byte, declaredMime string) (string, error) {
	if !acceptedMime(declaredMime) {
		return "", apperror.Validation(apperror.CodeInvalidType, fmt.Sprintf("unsupported document type %q, only %s is accepted", declaredMime, AcceptedMime))
	}
	if len(data) == 0 {
		return "", apperror.Validation(apperror.CodeInvalidType, "document is empty")
	}
	if int64(len(data)) > e.maxBytes {
		return "", apperror.Validation(apperror.CodeTooLarge, fmt.Sprintf("document exceeds %d bytes", e.maxBytes))
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("parser panic: %v", r)}
			}
		}()
		text, err := e.parse(data)
		done <- result{text: text, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		logger.GetLogger().WithField("timeout", e.timeout.String()).Warn("document extraction timed out")
		return "", apperror.Wrap(apperror.KindValidation, apperror.CodeExtractionFailed, "document extraction timed out", ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		logger.GetLogger().WithField("error", res.err).Warn("document extraction failed")
		return "", apperror.Wrap(apperror.KindValidation, apperror.CodeExtractionFailed, "could not read document text", res.err)
	}
	text := normalizeWhitespace(res.text)
	if text == "" {
		return "", apperror.Validation(apperror.CodeEmptyResult, "document contains no extractable text")
	}
	return text, nil
}

func acceptedMime(declared string) bool {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return strings.EqualFold(mt, AcceptedMime)
}

func parsePDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	if r.NumPage() == 0 {
		return "", errors.New("pdf has no pages")
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return buf.String(), nil
}

// normalizeWhitespace collapses runs of spaces and keeps paragraph breaks.
func normalizeWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
