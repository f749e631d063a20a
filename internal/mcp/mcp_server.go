// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/devscore/core"
	"github.com/huangsam/devscore/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the devscore MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, engine *core.Engine, store contract.ScoreStore) *server.MCPServer {
	s := server.NewMCPServer(
		"Contribution Score Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		engine:  engine,
		store:   store,
	}

	// --- 1. Tool: get_leaderboard ---
	s.AddTool(mcp.NewTool("get_leaderboard",
		mcp.WithDescription("Fetch the ranked leaderboard snapshot for a scoring period."),
		mcp.WithString("period_type", mcp.Description("Period granularity (daily, weekly, monthly)."), mcp.Required(), mcp.Enum("daily", "weekly", "monthly")),
		mcp.WithString("period_key", mcp.Description("Canonical period key (e.g. 2026-02-18, 2026-W08, 2026-02)."), mcp.Required()),
	), h.handleGetLeaderboard)

	// --- 2. Tool: get_user_score ---
	s.AddTool(mcp.NewTool("get_user_score",
		mcp.WithDescription("Fetch one user's score rows (aggregate plus per-project) for a scoring period."),
		mcp.WithString("user_email", mcp.Description("Email of the contributor."), mcp.Required()),
		mcp.WithString("period_type", mcp.Description("Period granularity (daily, weekly, monthly)."), mcp.Required(), mcp.Enum("daily", "weekly", "monthly")),
		mcp.WithString("period_key", mcp.Description("Canonical period key."), mcp.Required()),
	), h.handleGetUserScore)

	// --- 3. Tool: list_score_rows ---
	s.AddTool(mcp.NewTool("list_score_rows",
		mcp.WithDescription("List every persisted score row for a scoring period."),
		mcp.WithString("period_type", mcp.Description("Period granularity (daily, weekly, monthly)."), mcp.Required(), mcp.Enum("daily", "weekly", "monthly")),
		mcp.WithString("period_key", mcp.Description("Canonical period key."), mcp.Required()),
	), h.handleListScoreRows)

	// --- 4. Tool: compute_period ---
	s.AddTool(mcp.NewTool("compute_period",
		mcp.WithDescription("Recompute contribution scores for a period and return the fresh leaderboard."),
		mcp.WithString("period_type", mcp.Description("Period granularity (daily, weekly, monthly)."), mcp.Required(), mcp.Enum("daily", "weekly", "monthly")),
		mcp.WithString("period_key", mcp.Description("Canonical period key."), mcp.Required()),
		mcp.WithNumber("rule_id", mcp.Description("Scoring rule id (defaults to the configured rule).")),
	), h.handleComputePeriod)

	return s
}

// StartMCPServer starts the devscore MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, engine *core.Engine, store contract.ScoreStore) error {
	s := NewMCPServer(baseCfg, engine, store)
	return server.ServeStdio(s)
}
