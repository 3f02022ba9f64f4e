package security

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskCredential(t *testing.T) {
	assert.Equal(t, "", MaskCredential(""))
	assert.Equal(t, "***", MaskCredential("abc"))
	assert.Equal(t, "ab****", MaskCredential("abcdef"))
	assert.Equal(t, "abcd****mnop", MaskCredential("abcdefghmnop"))
}

func TestRedact(t *testing.T) {
	token := "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"

	tests := []struct {
		name    string
		input   string
		secret  string
		keepsIn string
	}{
		{
			name:    "telegram url",
			input:   fmt.Sprintf(`Post "https://api.telegram.org/bot%s/sendMessage": dial tcp: timeout`, token),
			secret:  token,
			keepsIn: "/sendMessage",
		},
		{
			name:    "kite authorization header",
			input:   "request failed: Authorization: token kitekey123:accesstok456789",
			secret:  "kitekey123:accesstok456789",
			keepsIn: "Authorization: token ",
		},
		{
			name:    "key value pair",
			input:   "config: api_key=supersecretvalue other=1",
			secret:  "supersecretvalue",
			keepsIn: "other=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Redact(tt.input)
			assert.NotContains(t, out, tt.secret)
			assert.Contains(t, out, tt.keepsIn)
		})
	}

	assert.Equal(t, "nothing to hide", Redact("nothing to hide"))
}

func TestRedactError_KeepsChain(t *testing.T) {
	base := fmt.Errorf("Post https://api.telegram.org/bot123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw/sendMessage: %w", context.DeadlineExceeded)

	err := RedactError(base)
	assert.NotContains(t, err.Error(), "AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	plain := errors.New("plain")
	assert.Same(t, plain, RedactError(plain))
	assert.Nil(t, RedactError(nil))
}
