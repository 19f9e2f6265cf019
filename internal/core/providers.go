package core

import (
	"context"
	"slices"
	"time"
)

type AIProvider interface {
	Chat(ctx context.Context, model string, conv Conversation) (string, error)
}

type Dispatcher interface {
	Complete(ctx context.Context, conv Conversation, candidates Candidates, timeout time.Duration) (Completion, error)
}

// Candidates are ordered model identifiers, highest priority first.
type Candidates struct {
	Text   []string
	Vision []string
}

// Select returns the list matching the conversation's modality.
func (c Candidates) Select(needsVision bool) []string {
	if needsVision {
		return c.Vision
	}
	return c.Text
}

// Prefer moves model to the front of whichever lists already contain it.
// Unknown models leave the candidates untouched.
func (c Candidates) Prefer(model string) Candidates {
	if model == "" {
		return c
	}
	return Candidates{
		Text:   promote(c.Text, model),
		Vision: promote(c.Vision, model),
	}
}

func promote(list []string, model string) []string {
	idx := slices.Index(list, model)
	if idx <= 0 {
		return slices.Clone(list)
	}
	out := make([]string, 0, len(list))
	out = append(out, model)
	out = append(out, list[:idx]...)
	out = append(out, list[idx+1:]...)
	return out
}

type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length,omitempty"`
}

type ModelLister interface {
	Models(ctx context.Context) ([]Model, error)
}
