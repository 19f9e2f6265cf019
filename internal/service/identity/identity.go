// Package identity maps request signals to the key the quota ledger counts against.
//
// Anonymous identities are the lowercase hex SHA-256 of origin, client signature
// and fingerprint joined with "-". The digest is one-way: the ledger can tell
// callers apart without storing their address or user agent.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	accountPrefix = "account:"

	placeholderOrigin      = "127.0.0.1"
	placeholderSignature   = "unknown"
	placeholderFingerprint = "none"
)

type Signals struct {
	Origin          string
	ClientSignature string
	Fingerprint     string
	AccountID       string
}

// Resolve never fails; missing signals fall back to fixed placeholders.
func Resolve(s Signals) string {
	if id := strings.TrimSpace(s.AccountID); id != "" {
		return accountPrefix + id
	}

	raw := strings.Join([]string{
		orDefault(s.Origin, placeholderOrigin),
		orDefault(s.ClientSignature, placeholderSignature),
		orDefault(s.Fingerprint, placeholderFingerprint),
	}, "-")

	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func IsAccount(identity string) bool {
	return strings.HasPrefix(identity, accountPrefix)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

// ForChat derives signals for a messenger chat. Chats have no network origin,
// so the channel name stands in for it and the chat id for the fingerprint.
func ForChat(channel, chatID string) Signals {
	return Signals{Origin: channel, ClientSignature: channel + "-bot", Fingerprint: chatID}
}

// FromOperator accepts an identity as the ledger stores it, or a bare account
// email as an operator would type it.
func FromOperator(s string) string {
	s = strings.TrimSpace(s)
	if !IsAccount(s) && strings.Contains(s, "@") {
		return Resolve(Signals{AccountID: s})
	}
	return s
}
