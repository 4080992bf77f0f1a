package provider

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"auth status", eris.New("claude: create message: status 401 invalid x-api-key"), KindAuth},
		{"unauthorized text", eris.New("unauthorized"), KindAuth},
		{"rate limited", eris.New("deepseek: unexpected status 429: slow down"), KindUnavailable},
		{"server error", eris.New("openai: chat completion: status 503"), KindUnavailable},
		{"timeout text", eris.New("request timeout while awaiting headers"), KindTimeout},
		{"connection refused", eris.New("dial tcp: connection refused"), KindUnavailable},
		{"anything else", eris.New("weird failure"), KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify("test", tt.err).Kind)
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	orig := NewError("claude", KindMalformed, eris.New("no code"))
	got := Classify("claude", orig)
	assert.Same(t, orig, got)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(NewError("p", KindTimeout, eris.New("x"))))
	assert.True(t, Retryable(NewError("p", KindUnavailable, eris.New("x"))))
	assert.False(t, Retryable(NewError("p", KindAuth, eris.New("x"))))
	assert.False(t, Retryable(NewError("p", KindMalformed, eris.New("x"))))
	assert.False(t, Retryable(eris.New("unclassified")))
}

func TestKindOf(t *testing.T) {
	wrapped := eris.Wrap(NewError("p", KindAuth, eris.New("bad key")), "outer")
	assert.Equal(t, KindAuth, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(eris.New("plain")))
}
