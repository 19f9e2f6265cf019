package core

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	GoalActive    = "active"
	GoalCompleted = "completed"
)

type Session struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

type SessionSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

type Goal struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	CreatedAt   int64      `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Account is a registered user as stored in the users collection.
// Fields owned by the auth component (password hash and the like) are kept
// verbatim in extra so a rewrite never drops them.
type Account struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Tier            string     `json:"tier,omitempty"`
	Sessions        []Session  `json:"sessions"`
	Goals           []Goal     `json:"goals"`
	Streak          int        `json:"streak"`
	LastCheckinDate *time.Time `json:"lastCheckinDate"`

	extra map[string]json.RawMessage
}

type accountAlias Account

var accountFields = []string{"id", "name", "email", "tier", "sessions", "goals", "streak", "lastCheckinDate"}

func (a *Account) UnmarshalJSON(data []byte) error {
	var alias accountAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("failed to decode account: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode account fields: %w", err)
	}
	for _, f := range accountFields {
		delete(raw, f)
	}

	*a = Account(alias)
	if len(raw) > 0 {
		a.extra = raw
	}
	return nil
}

func (a Account) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(accountAlias(a))
	if err != nil {
		return nil, err
	}
	if len(a.extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(a.extra)+len(accountFields))
	for k, v := range a.extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Session returns a pointer into the account's sessions, or nil.
func (a *Account) Session(id int64) *Session {
	for i := range a.Sessions {
		if a.Sessions[i].ID == id {
			return &a.Sessions[i]
		}
	}
	return nil
}

func (a *Account) ActiveGoals() []Goal {
	var active []Goal
	for _, g := range a.Goals {
		if g.Status == GoalActive {
			active = append(active, g)
		}
	}
	return active
}
