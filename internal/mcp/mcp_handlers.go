package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/devscore/core"
	"github.com/huangsam/devscore/internal/contract"
	"github.com/huangsam/devscore/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	engine  *core.Engine
	store   contract.ScoreStore
}

// resolvePeriod parses and validates the period arguments shared by all tools.
func resolvePeriod(request mcp.CallToolRequest) (schema.Period, error) {
	granularity := schema.Granularity(request.GetString("period_type", ""))
	periodKey := request.GetString("period_key", "")
	return core.ResolvePeriod(granularity, periodKey)
}

func (h *toolHandler) handleGetLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := resolvePeriod(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid period: %v", err)), nil
	}

	snapshot, err := h.store.GetSnapshot(ctx, period.Granularity, period.Key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot lookup failed: %v", err)), nil
	}
	if snapshot == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no leaderboard snapshot for %s %s", period.Granularity, period.Key)), nil
	}

	jsonData, _ := json.MarshalIndent(snapshot, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetUserScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userEmail := request.GetString("user_email", "")
	if userEmail == "" {
		return mcp.NewToolResultError("user_email is required"), nil
	}
	period, err := resolvePeriod(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid period: %v", err)), nil
	}

	rows, err := h.store.ListUserRows(ctx, userEmail, period.Granularity, period.Key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("score lookup failed: %v", err)), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no score rows for %s in %s %s", userEmail, period.Granularity, period.Key)), nil
	}

	jsonData, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListScoreRows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := resolvePeriod(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid period: %v", err)), nil
	}

	rows, err := h.store.ListPeriodRows(ctx, period.Granularity, period.Key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("score lookup failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleComputePeriod(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := resolvePeriod(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid period: %v", err)), nil
	}
	ruleID := h.baseCfg.RuleID
	if id := request.GetInt("rule_id", 0); id > 0 {
		ruleID = int64(id)
	}

	if err := h.engine.ComputePeriod(ctx, period.Granularity, period.Key, ruleID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("computation failed: %v", err)), nil
	}

	snapshot, err := h.store.GetSnapshot(ctx, period.Granularity, period.Key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("snapshot lookup failed: %v", err)), nil
	}
	if snapshot == nil {
		return mcp.NewToolResultText(fmt.Sprintf("computed %s %s: no eligible contributors", period.Granularity, period.Key)), nil
	}

	jsonData, _ := json.MarshalIndent(snapshot, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
