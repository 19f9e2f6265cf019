package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/sandevgo/lifecoach/internal/service/quota"
	"github.com/sandevgo/lifecoach/internal/storage/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *quota.Ledger) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ledger := quota.NewLedger(kv.NewLimits(kv.NewMemoryStore()), quota.WithClock(func() time.Time { return now }))
	return NewServer(quota.NewDefaultCatalog(), ledger), ledger
}

func call(args map[string]any) mcpproto.CallToolRequest {
	req := mcpproto.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcpproto.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := mcpproto.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func TestListPlans(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.listPlans(context.Background(), call(nil))
	require.NoError(t, err)

	var plans []planView
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &plans))
	require.Len(t, plans, 3)
	assert.Equal(t, "free", plans[0].Name)
	assert.Equal(t, uint(10), plans[0].MessageLimit)
	assert.True(t, plans[2].Unlimited)
}

func TestQuotaStatus(t *testing.T) {
	ctx := context.Background()
	s, ledger := newTestServer(t)
	plan := quota.NewDefaultCatalog().Lookup("free")
	require.True(t, ledger.Admit(ctx, "account:ada@example.com", plan).Allowed)

	res, err := s.quotaStatus(ctx, call(map[string]any{"identity": "ada@example.com", "tier": "free"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &st))
	assert.Equal(t, "account:ada@example.com", st["identity"])
	assert.Equal(t, float64(1), st["used"])
	assert.Equal(t, float64(9), st["remaining"])
	assert.Equal(t, "2h0m0s", st["resetIn"])

	res, err = s.quotaStatus(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestBlockAndUnblock(t *testing.T) {
	ctx := context.Background()
	s, ledger := newTestServer(t)
	plan := quota.NewDefaultCatalog().Lookup("")

	res, err := s.quotaBlock(ctx, call(map[string]any{"identity": "abc"}))
	require.NoError(t, err)
	assert.Equal(t, "abc blocked", text(t, res))
	assert.True(t, ledger.Admit(ctx, "abc", plan).Indefinite)

	res, err = s.quotaUnblock(ctx, call(map[string]any{"identity": "abc"}))
	require.NoError(t, err)
	assert.Equal(t, "abc unblocked", text(t, res))
	assert.True(t, ledger.Admit(ctx, "abc", plan).Allowed)
}

func TestQuotaSweep(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.quotaSweep(context.Background(), call(map[string]any{"ttl": "bogus"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.quotaSweep(context.Background(), call(map[string]any{"ttl": "1h"}))
	require.NoError(t, err)
	assert.Equal(t, "removed 0 idle records", text(t, res))
}
