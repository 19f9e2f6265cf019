// Package account serves the per-account endpoints around chat: session
// history, feedback, goals and the daily check-in streak.
package account

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/pkg/log"
)

const (
	FeedbackLike    = "like"
	FeedbackDislike = "dislike"
)

type Service struct {
	accounts core.AccountsRepository
	now      func() time.Time
}

func NewService(accounts core.AccountsRepository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{accounts: accounts, now: now}
}

// History lists session ids and titles, newest first. Unknown accounts have none.
func (s *Service) History(ctx context.Context, email string) ([]core.SessionSummary, error) {
	acc, err := s.accounts.Find(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return []core.SessionSummary{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]core.SessionSummary, 0, len(acc.Sessions))
	for _, sess := range acc.Sessions {
		out = append(out, core.SessionSummary{ID: sess.ID, Title: sess.Title})
	}
	return out, nil
}

func (s *Service) Session(ctx context.Context, email string, id int64) (*core.Session, error) {
	acc, err := s.accounts.Find(ctx, email)
	if err != nil {
		return nil, err
	}
	sess := acc.Session(id)
	if sess == nil {
		return nil, fmt.Errorf("session %d: %w", id, core.ErrNotFound)
	}
	return sess, nil
}

func (s *Service) DeleteSession(ctx context.Context, email string, id int64) error {
	_, err := s.accounts.Update(ctx, email, func(a *core.Account) error {
		idx := slices.IndexFunc(a.Sessions, func(sess core.Session) bool { return sess.ID == id })
		if idx < 0 {
			return fmt.Errorf("session %d: %w", id, core.ErrNotFound)
		}
		a.Sessions = slices.Delete(a.Sessions, idx, idx+1)
		return nil
	})
	return err
}

// Feedback marks the first assistant message in the session whose content matches.
func (s *Service) Feedback(ctx context.Context, email string, sessionID int64, content, feedback string) error {
	if feedback != FeedbackLike && feedback != FeedbackDislike {
		return fmt.Errorf("%w: feedback must be %q or %q", core.ErrInvalidRequest, FeedbackLike, FeedbackDislike)
	}

	_, err := s.accounts.Update(ctx, email, func(a *core.Account) error {
		sess := a.Session(sessionID)
		if sess == nil {
			return fmt.Errorf("session %d: %w", sessionID, core.ErrNotFound)
		}
		for i := range sess.Messages {
			m := &sess.Messages[i]
			if m.Role == core.RoleAssistant && m.Content == content {
				m.Feedback = feedback
				return nil
			}
		}
		return fmt.Errorf("message in session %d: %w", sessionID, core.ErrNotFound)
	})
	return err
}

func (s *Service) Goals(ctx context.Context, email string) ([]core.Goal, error) {
	acc, err := s.accounts.Find(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return []core.Goal{}, nil
	}
	if err != nil {
		return nil, err
	}
	if acc.Goals == nil {
		return []core.Goal{}, nil
	}
	return acc.Goals, nil
}

func (s *Service) AddGoal(ctx context.Context, email, title string) ([]core.Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: goal title is empty", core.ErrInvalidRequest)
	}

	now := s.now()
	return s.updateGoals(ctx, email, func(goals []core.Goal) ([]core.Goal, error) {
		return append(goals, core.Goal{
			ID:        now.UnixMilli(),
			Title:     title,
			Status:    core.GoalActive,
			CreatedAt: now.UnixMilli(),
		}), nil
	})
}

func (s *Service) CompleteGoal(ctx context.Context, email string, id int64) ([]core.Goal, error) {
	now := s.now().UTC()
	return s.updateGoals(ctx, email, func(goals []core.Goal) ([]core.Goal, error) {
		idx := slices.IndexFunc(goals, func(g core.Goal) bool { return g.ID == id })
		if idx < 0 {
			return nil, fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
		}
		goals[idx].Status = core.GoalCompleted
		goals[idx].CompletedAt = &now
		return goals, nil
	})
}

func (s *Service) DeleteGoal(ctx context.Context, email string, id int64) ([]core.Goal, error) {
	return s.updateGoals(ctx, email, func(goals []core.Goal) ([]core.Goal, error) {
		idx := slices.IndexFunc(goals, func(g core.Goal) bool { return g.ID == id })
		if idx < 0 {
			return nil, fmt.Errorf("goal %d: %w", id, core.ErrNotFound)
		}
		return slices.Delete(goals, idx, idx+1), nil
	})
}

func (s *Service) updateGoals(ctx context.Context, email string, fn func([]core.Goal) ([]core.Goal, error)) ([]core.Goal, error) {
	acc, err := s.accounts.Update(ctx, email, func(a *core.Account) error {
		goals, err := fn(a.Goals)
		if err != nil {
			return err
		}
		a.Goals = goals
		return nil
	})
	if err != nil {
		return nil, err
	}
	if acc.Goals == nil {
		return []core.Goal{}, nil
	}
	return acc.Goals, nil
}

type Badge struct {
	Streak          int        `json:"streak"`
	Stars           int        `json:"stars"`
	LastCheckinDate *time.Time `json:"lastCheckinDate"`
}

// Stars awards one star per completed week of streak, up to four.
func Stars(streak int) int {
	switch {
	case streak >= 28:
		return 4
	case streak >= 21:
		return 3
	case streak >= 14:
		return 2
	case streak >= 7:
		return 1
	}
	return 0
}

func (s *Service) Badge(ctx context.Context, email string) (Badge, error) {
	acc, err := s.accounts.Find(ctx, email)
	if err != nil {
		return Badge{}, err
	}
	return Badge{Streak: acc.Streak, Stars: Stars(acc.Streak), LastCheckinDate: acc.LastCheckinDate}, nil
}

// CheckIn extends the streak once per UTC day, and only after a goal was
// completed that day. Missing a day restarts the streak at one.
func (s *Service) CheckIn(ctx context.Context, email string) (int, error) {
	now := s.now().UTC()
	today := now.Format(time.DateOnly)
	yesterday := now.AddDate(0, 0, -1).Format(time.DateOnly)

	acc, err := s.accounts.Update(ctx, email, func(a *core.Account) error {
		completedToday := slices.ContainsFunc(a.Goals, func(g core.Goal) bool {
			return g.Status == core.GoalCompleted && g.CompletedAt != nil && utcDay(*g.CompletedAt) == today
		})
		if !completedToday {
			return fmt.Errorf("%w: complete at least one goal today before checking in", core.ErrInvalidRequest)
		}

		last := ""
		if a.LastCheckinDate != nil {
			last = utcDay(*a.LastCheckinDate)
		}
		if last == today {
			return fmt.Errorf("%w: already checked in today", core.ErrInvalidRequest)
		}

		if last == yesterday {
			a.Streak++
		} else {
			a.Streak = 1
		}
		a.LastCheckinDate = &now
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.FromCtx(ctx).Info().Int("streak", acc.Streak).Msg("daily check-in recorded")
	return acc.Streak, nil
}

func (s *Service) UserCount(ctx context.Context) (int, error) {
	return s.accounts.Count(ctx)
}

func utcDay(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
