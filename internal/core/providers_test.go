package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidates_Prefer(t *testing.T) {
	c := Candidates{Text: []string{"a", "b", "c"}, Vision: []string{"v1", "b"}}

	tests := []struct {
		name   string
		model  string
		text   []string
		vision []string
	}{
		{name: "unknown model ignored", model: "zzz", text: []string{"a", "b", "c"}, vision: []string{"v1", "b"}},
		{name: "empty model ignored", model: "", text: []string{"a", "b", "c"}, vision: []string{"v1", "b"}},
		{name: "moved to front in both lists", model: "b", text: []string{"b", "a", "c"}, vision: []string{"b", "v1"}},
		{name: "already first", model: "a", text: []string{"a", "b", "c"}, vision: []string{"v1", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Prefer(tt.model)
			assert.Equal(t, tt.text, got.Text)
			assert.Equal(t, tt.vision, got.Vision)
		})
	}
	assert.Equal(t, []string{"a", "b", "c"}, c.Text, "original untouched")
}

func TestConversation_NeedsVision(t *testing.T) {
	assert.False(t, Conversation{}.NeedsVision())
	assert.False(t, Conversation{Attachment: &Attachment{MimeType: "text/plain"}}.NeedsVision())
	assert.True(t, Conversation{Attachment: &Attachment{MimeType: "IMAGE/JPEG"}}.NeedsVision())
}

func TestCeilMinutes(t *testing.T) {
	assert.Equal(t, int64(0), CeilMinutes(0))
	assert.Equal(t, int64(1), CeilMinutes(1))
	assert.Equal(t, int64(1), CeilMinutes(60_000_000_000))
	assert.Equal(t, int64(120), CeilMinutes(7_199_000_000_000))
}
