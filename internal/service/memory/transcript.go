package memory

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/lifecoach/internal/core"
)

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding("cl100k_base")
	})
	return tk, tkErr
}

// countTokens falls back to a rune estimate when the BPE ranks cannot be loaded.
func countTokens(text string) int {
	if text == "" {
		return 0
	}
	if enc, err := getTokenizer(); err == nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}

// Transcript renders messages as "role: content" lines, keeping the most
// recent lines that fit in maxTokens. A non-positive budget keeps everything.
func Transcript(msgs []core.Message, maxTokens int) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == core.RoleSystem || strings.TrimSpace(m.Content) == "" {
			continue
		}
		lines = append(lines, m.Role+": "+m.Content)
	}
	if maxTokens <= 0 {
		return strings.Join(lines, "\n")
	}

	budget := maxTokens
	start := len(lines)
	for start > 0 {
		cost := countTokens(lines[start-1]) + 1
		if cost > budget {
			break
		}
		budget -= cost
		start--
	}

	// Always keep the last line, cut to the budget if it alone is too long.
	if start == len(lines) && len(lines) > 0 {
		return truncateTokens(lines[len(lines)-1], maxTokens)
	}
	return strings.Join(lines[start:], "\n")
}

func truncateTokens(text string, maxTokens int) string {
	if enc, err := getTokenizer(); err == nil {
		ids := enc.Encode(text, nil, nil)
		if len(ids) <= maxTokens {
			return text
		}
		return enc.Decode(ids[len(ids)-maxTokens:])
	}
	runes := []rune(text)
	if limit := maxTokens * 4; len(runes) > limit {
		return string(runes[len(runes)-limit:])
	}
	return text
}
