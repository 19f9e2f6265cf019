package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sha(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		signals  Signals
		expected string
	}{
		{
			name:     "account wins over anonymous signals",
			signals:  Signals{AccountID: "ada@example.com", Origin: "10.0.0.1"},
			expected: "account:ada@example.com",
		},
		{
			name:     "anonymous digest",
			signals:  Signals{Origin: "10.0.0.1", ClientSignature: "Mozilla/5.0", Fingerprint: "fp-1"},
			expected: sha("10.0.0.1-Mozilla/5.0-fp-1"),
		},
		{
			name:     "placeholders for missing signals",
			signals:  Signals{},
			expected: sha("127.0.0.1-unknown-none"),
		},
		{
			name:     "blank account id is anonymous",
			signals:  Signals{AccountID: "  ", Origin: "10.0.0.2"},
			expected: sha("10.0.0.2-unknown-none"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.signals))
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	s := Signals{Origin: "1.2.3.4", ClientSignature: "curl/8", Fingerprint: "x"}

	first := Resolve(s)
	assert.Equal(t, first, Resolve(s))
	assert.Len(t, first, 64)
	assert.False(t, IsAccount(first))
	assert.NotEqual(t, first, Resolve(Signals{Origin: "1.2.3.5", ClientSignature: "curl/8", Fingerprint: "x"}))
}

func TestForChat(t *testing.T) {
	assert.Equal(t, sha("telegram-telegram-bot-42"), Resolve(ForChat("telegram", "42")))
	assert.NotEqual(t, Resolve(ForChat("telegram", "42")), Resolve(ForChat("telegram", "43")))
}

func TestFromOperator(t *testing.T) {
	hash := sha("127.0.0.1-unknown-none")
	assert.Equal(t, "account:ada@example.com", FromOperator(" ada@example.com "))
	assert.Equal(t, "account:ada@example.com", FromOperator("account:ada@example.com"))
	assert.Equal(t, hash, FromOperator(hash))
}
