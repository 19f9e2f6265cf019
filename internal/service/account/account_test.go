package account

import (
	"context"
	"testing"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/storage/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const email = "ada@example.com"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T, acc core.Account) (*Service, *clock) {
	t.Helper()
	accounts := kv.NewAccounts(kv.NewMemoryStore())
	acc.Email = email
	require.NoError(t, accounts.Insert(context.Background(), acc))

	c := &clock{t: time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)}
	return NewService(accounts, c.now), c
}

func TestHistoryAndSessions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, core.Account{Sessions: []core.Session{
		{ID: 2, Title: "Newer", Messages: []core.Message{{Role: core.RoleUser, Content: "b"}}},
		{ID: 1, Title: "Older"},
	}})

	history, err := svc.History(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, []core.SessionSummary{{ID: 2, Title: "Newer"}, {ID: 1, Title: "Older"}}, history)

	sess, err := svc.Session(ctx, email, 2)
	require.NoError(t, err)
	assert.Len(t, sess.Messages, 1)

	_, err = svc.Session(ctx, email, 42)
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, svc.DeleteSession(ctx, email, 2))
	assert.ErrorIs(t, svc.DeleteSession(ctx, email, 2), core.ErrNotFound)

	history, err = svc.History(ctx, email)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	history, err = svc.History(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestFeedback(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, core.Account{Sessions: []core.Session{{ID: 1, Messages: []core.Message{
		{Role: core.RoleUser, Content: "same"},
		{Role: core.RoleAssistant, Content: "same"},
		{Role: core.RoleAssistant, Content: "same"},
	}}}})

	require.NoError(t, svc.Feedback(ctx, email, 1, "same", FeedbackLike))

	sess, err := svc.Session(ctx, email, 1)
	require.NoError(t, err)
	assert.Empty(t, sess.Messages[0].Feedback, "user turns are never marked")
	assert.Equal(t, FeedbackLike, sess.Messages[1].Feedback)
	assert.Empty(t, sess.Messages[2].Feedback, "only the first match is marked")

	assert.ErrorIs(t, svc.Feedback(ctx, email, 1, "missing", FeedbackLike), core.ErrNotFound)
	assert.ErrorIs(t, svc.Feedback(ctx, email, 9, "same", FeedbackLike), core.ErrNotFound)
	assert.ErrorIs(t, svc.Feedback(ctx, email, 1, "same", "meh"), core.ErrInvalidRequest)
}

func TestGoals(t *testing.T) {
	ctx := context.Background()
	svc, c := newTestService(t, core.Account{})

	goals, err := svc.Goals(ctx, email)
	require.NoError(t, err)
	assert.Empty(t, goals)

	goals, err = svc.AddGoal(ctx, email, "  Run 5k  ")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Run 5k", goals[0].Title)
	assert.Equal(t, core.GoalActive, goals[0].Status)
	id := goals[0].ID

	c.t = c.t.Add(time.Second)
	goals, err = svc.AddGoal(ctx, email, "Read")
	require.NoError(t, err)
	require.Len(t, goals, 2)

	goals, err = svc.CompleteGoal(ctx, email, id)
	require.NoError(t, err)
	assert.Equal(t, core.GoalCompleted, goals[0].Status)
	require.NotNil(t, goals[0].CompletedAt)

	goals, err = svc.DeleteGoal(ctx, email, id)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Read", goals[0].Title)

	_, err = svc.CompleteGoal(ctx, email, id)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = svc.AddGoal(ctx, email, " ")
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestCheckIn(t *testing.T) {
	day := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	yesterday := day.AddDate(0, 0, -1)
	lastWeek := day.AddDate(0, 0, -7)
	completedToday := core.Goal{ID: 1, Status: core.GoalCompleted, CompletedAt: &day}
	completedYesterday := core.Goal{ID: 2, Status: core.GoalCompleted, CompletedAt: &yesterday}

	tests := []struct {
		name       string
		acc        core.Account
		wantStreak int
		wantErr    error
	}{
		{name: "first check-in", acc: core.Account{Goals: []core.Goal{completedToday}}, wantStreak: 1},
		{name: "continues streak", acc: core.Account{Streak: 6, LastCheckinDate: &yesterday, Goals: []core.Goal{completedToday}}, wantStreak: 7},
		{name: "broken streak restarts", acc: core.Account{Streak: 6, LastCheckinDate: &lastWeek, Goals: []core.Goal{completedToday}}, wantStreak: 1},
		{name: "needs goal completed today", acc: core.Account{Goals: []core.Goal{completedYesterday}}, wantErr: core.ErrInvalidRequest},
		{name: "once per day", acc: core.Account{Streak: 3, LastCheckinDate: &day, Goals: []core.Goal{completedToday}}, wantErr: core.ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.acc)

			streak, err := svc.CheckIn(context.Background(), email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStreak, streak)

			badge, err := svc.Badge(context.Background(), email)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStreak, badge.Streak)
			require.NotNil(t, badge.LastCheckinDate)
		})
	}
}

func TestStars(t *testing.T) {
	cases := map[int]int{0: 0, 6: 0, 7: 1, 13: 1, 14: 2, 21: 3, 27: 3, 28: 4, 100: 4}
	for streak, stars := range cases {
		assert.Equalf(t, stars, Stars(streak), "streak %d", streak)
	}
}

func TestUserCount(t *testing.T) {
	svc, _ := newTestService(t, core.Account{})
	n, err := svc.UserCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
