package gateway

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/identity"
	"github.com/sandevgo/lifecoach/pkg/conv"
)

const maxAttachmentBytes = 8 << 20

type Request struct {
	Message string
	History []core.Message
	Signals identity.Signals
	// AccountEmail is an unverified account claim. It selects where the
	// exchange is saved and which sessions feed memory, but never the quota
	// identity; only Signals.AccountID does that.
	AccountEmail string
	Tier       string
	SessionID  int64
	Model      string
	Attachment *core.Attachment
}

type Response struct {
	Content   string
	SessionID int64
	Model     string
}

var inlineTypes = map[string]bool{
	"text/plain":    true,
	"text/markdown": true,
	"text/csv":      true,
	"text/html":     true,
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Message) == "" && r.Attachment == nil {
		return fmt.Errorf("%w: message is empty", core.ErrInvalidRequest)
	}
	if a := r.Attachment; a != nil {
		if a.Data == "" {
			return fmt.Errorf("%w: attachment %q has no data", core.ErrInvalidRequest, a.Name)
		}
		if base64.StdEncoding.DecodedLen(len(a.Data)) > maxAttachmentBytes {
			return fmt.Errorf("%w: attachment %q is too large", core.ErrInvalidRequest, a.Name)
		}
		if !a.IsImage() && !inlineTypes[mediaType(a.MimeType)] {
			return fmt.Errorf("%w: unsupported attachment type %q", core.ErrInvalidRequest, a.MimeType)
		}
	}
	return nil
}

// priorTurns keeps only user and assistant turns with content; clients must
// not be able to smuggle system instructions through history.
func priorTurns(history []core.Message) []core.Message {
	out := make([]core.Message, 0, len(history))
	for _, m := range history {
		if m.Role != core.RoleUser && m.Role != core.RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, core.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// currentTurn inlines text attachments into the user message. Images are
// passed separately so the dispatcher can route them to vision models.
func currentTurn(message string, a *core.Attachment) (string, *core.Attachment, error) {
	if a == nil {
		return message, nil, nil
	}
	if a.IsImage() {
		if strings.TrimSpace(message) == "" {
			message = "Describe this image."
		}
		return message, a, nil
	}

	raw, err := base64.StdEncoding.DecodeString(a.Data)
	if err != nil {
		return "", nil, fmt.Errorf("%w: attachment %q is not valid base64", core.ErrInvalidRequest, a.Name)
	}

	text := string(raw)
	if mediaType(a.MimeType) == "text/html" {
		if text, err = conv.HTMLToText(text); err != nil {
			return "", nil, fmt.Errorf("%w: attachment %q: %w", core.ErrInvalidRequest, a.Name, err)
		}
	}

	var sb strings.Builder
	sb.WriteString(message)
	if message != "" {
		sb.WriteString("\n\n")
	}
	sb.WriteString("Attached file ")
	sb.WriteString(a.Name)
	sb.WriteString(":\n")
	sb.WriteString(text)
	return sb.String(), nil, nil
}

func mediaType(mime string) string {
	mt, _, _ := strings.Cut(strings.ToLower(mime), ";")
	return strings.TrimSpace(mt)
}
