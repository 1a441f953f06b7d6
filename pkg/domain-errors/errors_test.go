package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := errors.New("boom")
	inner := Wrap(base, CodeNotFound, "credential not found")
	outer := Wrap(inner, CodeInternal, "lookup failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeNotFound))
	assert.False(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(base, CodeInternal))
	assert.ErrorIs(t, outer, base)
}

func TestHasCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("verify: %w", New(CodeBadRequest, "identifier missing"))
	assert.True(t, HasCode(err, CodeBadRequest))
	assert.Equal(t, CodeBadRequest, CodeOf(err))
	assert.Equal(t, "identifier missing", Message(err))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:            http.StatusNotFound,
		CodeBadRequest:          http.StatusBadRequest,
		CodeInvalidState:        http.StatusBadRequest,
		CodeUpstream:            http.StatusBadGateway,
		CodeTimeout:             http.StatusGatewayTimeout,
		CodeAmbiguousCredential: http.StatusUnprocessableEntity,
		CodeConfiguration:       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), code)
	}
}

type upstreamish struct{}

func (upstreamish) Error() string         { return "upstream said no" }
func (upstreamish) DomainCode() Code      { return CodeUpstream }
func (upstreamish) DomainMessage() string { return "upstream request failed" }

func TestCodeOfUsesCoder(t *testing.T) {
	err := fmt.Errorf("sign: %w", upstreamish{})
	assert.Equal(t, CodeUpstream, CodeOf(err))
	assert.Equal(t, "upstream request failed", Message(err))

	wrapped := Wrap(upstreamish{}, CodeTimeout, "timed out")
	assert.Equal(t, CodeTimeout, CodeOf(wrapped))
}
