package ragErrors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading collection: %w", New(NotFound, "collections.get", io.EOF))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInvalidInput))
	assert.True(t, errors.Is(err, io.EOF))
	assert.Equal(t, NotFound, KindOf(err))
}

func TestReasonNarrowing(t *testing.T) {
	err := Remote(EmbeddingRemote, ReasonRateLimited, "embed", ErrRateLimited)

	assert.True(t, errors.Is(err, ErrEmbeddingRemote))
	assert.True(t, errors.Is(err, &Error{Kind: EmbeddingRemote, Reason: ReasonRateLimited}))
	assert.False(t, errors.Is(err, &Error{Kind: EmbeddingRemote, Reason: ReasonTooLong}))
	assert.True(t, IsRateLimited(err))
	assert.False(t, IsTooLong(err))
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: NotFound}, "not_found"},
		{&Error{Kind: GenerationRemote, Reason: ReasonTooLong, Op: "llm"}, "llm: generation_remote_error(too_long)"},
		{New(ExtractionFailure, "pdf", errors.New("bad xref")), "pdf: extraction_failure: bad xref"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("x")))
	assert.Equal(t, ReasonNone, ReasonOf(nil))
}
