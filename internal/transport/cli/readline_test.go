package cli

import (
	"context"
	"testing"

	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/gateway"
	"github.com/sandevgo/lifecoach/internal/storage/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedChatter struct {
	reqs []gateway.Request
}

func (s *scriptedChatter) Chat(_ context.Context, req gateway.Request) (gateway.Response, error) {
	s.reqs = append(s.reqs, req)
	return gateway.Response{Content: "reply " + req.Message, SessionID: 77}, nil
}

func TestReadLine_SendCarriesHistoryAndSession(t *testing.T) {
	chat := &scriptedChatter{}
	r := &ReadLine{chat: chat, history: kv.NewChatLog(10), account: "ada@example.com"}

	reply, err := r.send(context.Background(), "one")
	require.NoError(t, err)
	assert.Equal(t, "reply one", reply)

	_, err = r.send(context.Background(), "two")
	require.NoError(t, err)

	require.Len(t, chat.reqs, 2)
	assert.Equal(t, "ada@example.com", chat.reqs[0].Signals.AccountID)
	assert.Zero(t, chat.reqs[0].SessionID)
	assert.Equal(t, int64(77), chat.reqs[1].SessionID)
	assert.Equal(t, []core.Message{
		{Role: core.RoleUser, Content: "one"},
		{Role: core.RoleAssistant, Content: "reply one"},
	}, chat.reqs[1].History)
}
