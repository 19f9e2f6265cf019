// Package mcp serves quota administration as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/lifecoach/internal/core"
	"github.com/sandevgo/lifecoach/internal/service/identity"
	"github.com/sandevgo/lifecoach/pkg/log"
)

const defaultSweepTTL = 24 * time.Hour

type QuotaAdmin interface {
	Status(ctx context.Context, identity string, plan core.Plan) (core.QuotaStatus, error)
	Block(ctx context.Context, identity string) error
	Unblock(ctx context.Context, identity string) error
	Sweep(ctx context.Context, ttl time.Duration) (int, error)
}

type Server struct {
	catalog core.PlanCatalog
	ledger  QuotaAdmin
	mcp     *server.MCPServer
}

func NewServer(catalog core.PlanCatalog, ledger QuotaAdmin) *Server {
	s := &Server{
		catalog: catalog,
		ledger:  ledger,
		mcp:     server.NewMCPServer(core.CoachName, core.CoachVersion, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcpproto.NewTool("list_plans",
		mcpproto.WithDescription("List the plans and their message limits"),
	), s.listPlans)

	s.mcp.AddTool(mcpproto.NewTool("quota_status",
		mcpproto.WithDescription("Show usage for an identity under a plan"),
		mcpproto.WithString("identity", mcpproto.Required(),
			mcpproto.Description("Identity hash, account:<email>, or a bare account email")),
		mcpproto.WithString("tier", mcpproto.Description("Plan name; defaults to the most restrictive plan")),
	), s.quotaStatus)

	s.mcp.AddTool(mcpproto.NewTool("quota_block",
		mcpproto.WithDescription("Block an identity until it is unblocked"),
		mcpproto.WithString("identity", mcpproto.Required(), mcpproto.Description("Identity to block")),
	), s.quotaBlock)

	s.mcp.AddTool(mcpproto.NewTool("quota_unblock",
		mcpproto.WithDescription("Lift a block from an identity"),
		mcpproto.WithString("identity", mcpproto.Required(), mcpproto.Description("Identity to unblock")),
	), s.quotaUnblock)

	s.mcp.AddTool(mcpproto.NewTool("quota_sweep",
		mcpproto.WithDescription("Delete quota records idle for longer than ttl"),
		mcpproto.WithString("ttl", mcpproto.Description("Go duration, default 24h")),
	), s.quotaSweep)

	return s
}

// Serve blocks until stdin closes or ctx ends.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	log.FromCtx(ctx).Info().Msg("serving mcp tools on stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

type planView struct {
	Name         string `json:"name"`
	MessageLimit uint   `json:"messageLimit,omitempty"`
	Unlimited    bool   `json:"unlimited"`
	Window       string `json:"window"`
}

type statusView struct {
	Identity  string `json:"identity"`
	Plan      string `json:"plan"`
	Used      uint   `json:"used"`
	Remaining any    `json:"remaining"`
	Blocked   bool   `json:"blocked"`
	ResetIn   string `json:"resetIn,omitempty"`
	LastSeen  string `json:"lastSeen,omitempty"`
}

func (s *Server) listPlans(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	plans := s.catalog.Plans()
	out := make([]planView, 0, len(plans))
	for _, p := range plans {
		v := planView{Name: p.Name, Unlimited: p.Unbounded, Window: p.Window.String()}
		if !p.Unbounded {
			v.MessageLimit = p.MessageLimit
		}
		out = append(out, v)
	}
	return jsonResult(out)
}

func (s *Server) quotaStatus(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	raw, err := req.RequireString("identity")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	id := identity.FromOperator(raw)
	plan := s.catalog.Lookup(req.GetString("tier", ""))

	st, err := s.ledger.Status(ctx, id, plan)
	if err != nil {
		return mcpproto.NewToolResultError(fmt.Sprintf("failed to read quota: %v", err)), nil
	}

	v := statusView{
		Identity:  id,
		Plan:      plan.Name,
		Used:      st.Used,
		Remaining: st.Remaining,
		Blocked:   st.Blocked,
	}
	if plan.Unbounded {
		v.Remaining = "unlimited"
	}
	if st.ResetIn > 0 {
		v.ResetIn = st.ResetIn.Round(time.Second).String()
	}
	if !st.LastSeen.IsZero() {
		v.LastSeen = st.LastSeen.UTC().Format(time.RFC3339)
	}
	return jsonResult(v)
}

func (s *Server) quotaBlock(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	return s.setBlocked(ctx, req, true)
}

func (s *Server) quotaUnblock(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	return s.setBlocked(ctx, req, false)
}

func (s *Server) setBlocked(ctx context.Context, req mcpproto.CallToolRequest, blocked bool) (*mcpproto.CallToolResult, error) {
	raw, err := req.RequireString("identity")
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}
	id := identity.FromOperator(raw)

	op, verb := s.ledger.Unblock, "unblocked"
	if blocked {
		op, verb = s.ledger.Block, "blocked"
	}
	if err := op(ctx, id); err != nil {
		return mcpproto.NewToolResultError(fmt.Sprintf("failed to update %s: %v", id, err)), nil
	}
	return mcpproto.NewToolResultText(fmt.Sprintf("%s %s", id, verb)), nil
}

func (s *Server) quotaSweep(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	ttl := defaultSweepTTL
	if raw := req.GetString("ttl", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return mcpproto.NewToolResultError(fmt.Sprintf("invalid ttl %q", raw)), nil
		}
		ttl = d
	}

	n, err := s.ledger.Sweep(ctx, ttl)
	if err != nil {
		return mcpproto.NewToolResultError(fmt.Sprintf("sweep failed: %v", err)), nil
	}
	return mcpproto.NewToolResultText(fmt.Sprintf("removed %d idle records", n)), nil
}

func jsonResult(v any) (*mcpproto.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcpproto.NewToolResultText(string(data)), nil
}
