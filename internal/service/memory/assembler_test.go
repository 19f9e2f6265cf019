package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/storage/kv"
	"github.com/sandevgo/lifecoach/internal/storage/kv/kvtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	convs    []core.Conversation
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	reply    func(conv core.Conversation) (string, error)
}

func (f *fakeDispatcher) Complete(ctx context.Context, conv core.Conversation, _ core.Candidates, _ time.Duration) (core.Completion, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.convs = append(f.convs, conv)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return core.Completion{}, ctx.Err()
		}
	}

	content, err := f.reply(conv)
	if err != nil {
		return core.Completion{}, &core.DispatchError{Attempts: []core.AttemptFailure{{Model: "m", Err: err}}}
	}
	return core.Completion{Content: content, Model: "m"}, nil
}

func session(id int64, text string) core.Session {
	return core.Session{ID: id, Title: text, Messages: []core.Message{
		{Role: core.RoleUser, Content: text},
		{Role: core.RoleAssistant, Content: "reply to " + text},
	}}
}

func seed(t *testing.T, sessions ...core.Session) *kv.Accounts {
	t.Helper()
	accounts := kv.NewAccounts(kv.NewMemoryStore())
	require.NoError(t, accounts.Insert(context.Background(), core.Account{ID: 1, Email: "ada@example.com", Sessions: sessions}))
	return accounts
}

// summaryOf echoes the first user line so tests can tell sessions apart.
func summaryOf(conv core.Conversation) (string, error) {
	body := strings.TrimPrefix(conv.CurrentTurn, summaryPrefix)
	first := strings.SplitN(body, "\n", 2)[0]
	return "summary of " + strings.TrimPrefix(first, "user: "), nil
}

func TestBuildContext_RecentOtherSessions(t *testing.T) {
	accounts := seed(t,
		session(5000, "five"),
		session(4000, "four"),
		session(3000, "three"),
		session(2000, "two"),
		session(1000, "one"),
	)
	d := &fakeDispatcher{reply: summaryOf, delay: 20 * time.Millisecond}
	a := NewAssembler(accounts, d, Options{TranscriptTokens: -1})

	got := a.BuildContext(context.Background(), "ada@example.com", 4000, 3)

	assert.Equal(t, DigestHeader+
		"- summary of five\n"+
		"- summary of three\n"+
		"- summary of two\n\n", got)
	assert.Len(t, d.convs, 3)
	assert.Greater(t, d.peak.Load(), int32(1), "summaries should run concurrently")
	assert.Equal(t, summaryInstruction, d.convs[0].SystemInstructions)
}

func TestBuildContext_FewerSessionsThanMax(t *testing.T) {
	accounts := seed(t, session(1000, "only"))
	a := NewAssembler(accounts, &fakeDispatcher{reply: summaryOf}, Options{TranscriptTokens: -1})

	got := a.BuildContext(context.Background(), "ada@example.com", 0, 3)
	assert.Equal(t, DigestHeader+"- summary of only\n\n", got)
}

func TestBuildContext_Empty(t *testing.T) {
	failing := &fakeDispatcher{reply: func(core.Conversation) (string, error) { return "", errors.New("boom") }}

	tests := []struct {
		name     string
		accounts *kv.Accounts
		d        *fakeDispatcher
		account  string
		exclude  int64
	}{
		{name: "no account id", accounts: seed(t, session(1, "x")), d: &fakeDispatcher{reply: summaryOf}},
		{name: "unknown account", accounts: seed(t, session(1, "x")), d: &fakeDispatcher{reply: summaryOf}, account: "nobody@example.com"},
		{name: "only active session", accounts: seed(t, session(1, "x")), d: &fakeDispatcher{reply: summaryOf}, account: "ada@example.com", exclude: 1},
		{name: "no sessions", accounts: seed(t), d: &fakeDispatcher{reply: summaryOf}, account: "ada@example.com"},
		{name: "empty sessions skipped", accounts: seed(t, core.Session{ID: 1}), d: &fakeDispatcher{reply: summaryOf}, account: "ada@example.com"},
		{name: "all summaries fail", accounts: seed(t, session(1, "x"), session(2, "y")), d: failing, account: "ada@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler(tt.accounts, tt.d, Options{TranscriptTokens: -1})
			assert.Empty(t, a.BuildContext(context.Background(), tt.account, tt.exclude, 3))
		})
	}
}

func TestBuildContext_PartialFailureKeepsOthers(t *testing.T) {
	accounts := seed(t, session(2000, "keep"), session(1000, "drop"))
	d := &fakeDispatcher{reply: func(conv core.Conversation) (string, error) {
		if strings.Contains(conv.CurrentTurn, "drop") {
			return "", errors.New("boom")
		}
		return summaryOf(conv)
	}}

	got := NewAssembler(accounts, d, Options{TranscriptTokens: -1}).BuildContext(context.Background(), "ada@example.com", 0, 3)
	assert.Equal(t, DigestHeader+"- summary of keep\n\n", got)
}

func TestBuildContext_StoreFaultIsAbsorbed(t *testing.T) {
	store := kvtest.NewFaultStore(kv.NewMemoryStore())
	store.FailGet.Store(true)

	a := NewAssembler(kv.NewAccounts(store), &fakeDispatcher{reply: summaryOf}, Options{TranscriptTokens: -1})
	assert.Empty(t, a.BuildContext(context.Background(), "ada@example.com", 0, 3))
}

func TestBuildContext_SummaryTimeout(t *testing.T) {
	accounts := seed(t, session(1000, "slow"))
	d := &fakeDispatcher{reply: summaryOf, delay: time.Second}
	a := NewAssembler(accounts, d, Options{SummaryTimeout: 20 * time.Millisecond, TranscriptTokens: -1})

	start := time.Now()
	assert.Empty(t, a.BuildContext(context.Background(), "ada@example.com", 0, 3))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
