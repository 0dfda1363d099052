package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindAndCodeThroughWrapping(t *testing.T) {
	base := Upstream(CodeSchemaViolation, "model output rejected", errors.New("missing tags"))
	wrapped := fmt.Errorf("generate: %w", base)

	assert.Equal(t, KindUpstream, KindOf(wrapped))
	assert.Equal(t, CodeSchemaViolation, CodeOf(wrapped))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindUpstream}))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindUpstream, Code: CodeSchemaViolation}))
	assert.False(t, errors.Is(wrapped, &Error{Kind: KindUpstream, Code: CodeEmptyOutput}))
	assert.Contains(t, base.Error(), "missing tags")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "", CodeOf(errors.New("boom")))
}
