package core

import (
	"strings"
)

const (
	CoachName          = "LifeCoach"
	CoachUserAgent     = "LifeCoach-Gateway/0.1"
	CoachRepositoryURL = "https://github.com/sandevgo/lifecoach"
	CoachVersion       = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Feedback string `json:"feedback,omitempty"`
}

// Attachment is a client-supplied file. Data is base64 without the data: prefix.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

func (a *Attachment) IsImage() bool {
	return a != nil && strings.HasPrefix(strings.ToLower(a.MimeType), "image/")
}

// DataURL renders the attachment as a data URL accepted by vision models.
func (a *Attachment) DataURL() string {
	return "data:" + a.MimeType + ";base64," + a.Data
}

// Conversation is the immutable snapshot sent to the completion provider.
type Conversation struct {
	SystemInstructions string
	PriorTurns         []Message
	CurrentTurn        string
	Attachment         *Attachment
}

func (c Conversation) NeedsVision() bool {
	return c.Attachment.IsImage()
}

// Messages flattens the conversation into provider order: system, prior turns, current turn.
func (c Conversation) Messages() []Message {
	msgs := make([]Message, 0, len(c.PriorTurns)+2)
	if c.SystemInstructions != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: c.SystemInstructions})
	}
	msgs = append(msgs, c.PriorTurns...)
	msgs = append(msgs, Message{Role: RoleUser, Content: c.CurrentTurn})
	return msgs
}

// Completion is a successful dispatch result.
type Completion struct {
	Content  string
	Model    string
	Attempts []AttemptFailure
}
