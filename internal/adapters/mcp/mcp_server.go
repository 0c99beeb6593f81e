// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server   *server.MCPServer
	control  ports.SessionControl
	insights ports.InsightsProvider
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(control ports.SessionControl, insights ports.InsightsProvider, version string) *Server {
	s := &Server{
		control:  control,
		insights: insights,
	}

	s.server = server.NewMCPServer(
		"studify",
		version,
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_session_state",
			mcp.WithDescription("Get the current study session: state, mode, remaining time and last results"),
		),
		s.handleGetSessionState,
	)

	startTool := mcp.NewTool(
		"start_session",
		mcp.WithDescription("Start a study session. Without a mode, the next mode of the selected technique is used"),
		mcp.WithString(
			"mode",
			mcp.Description("Session mode"),
			mcp.Enum(string(domain.ModeFocus), string(domain.ModeShortBreak), string(domain.ModeLongBreak)),
		),
	)
	s.server.AddTool(startTool, s.handleStartSession)

	s.server.AddTool(
		mcp.NewTool(
			"pause_session",
			mcp.WithDescription("Pause the running session"),
		),
		s.handlePauseSession,
	)

	s.server.AddTool(
		mcp.NewTool(
			"resume_session",
			mcp.WithDescription("Resume the paused session"),
		),
		s.handleResumeSession,
	)

	endTool := mcp.NewTool(
		"end_session",
		mcp.WithDescription("End the current session. Refused while time remains unless force is set"),
		mcp.WithBoolean(
			"force",
			mcp.Description("End early, recording only the time studied so far"),
		),
	)
	s.server.AddTool(endTool, s.handleEndSession)

	cancelTool := mcp.NewTool(
		"cancel_session",
		mcp.WithDescription("Cancel the current session without saving progress"),
		mcp.WithBoolean(
			"confirm",
			mcp.Required(),
			mcp.Description("Must be true to cancel"),
		),
	)
	s.server.AddTool(cancelTool, s.handleCancelSession)

	s.server.AddTool(
		mcp.NewTool(
			"get_streak",
			mcp.WithDescription("Get the current and longest study streak"),
		),
		s.handleGetStreak,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_stats",
			mcp.WithDescription("Get completed focus sessions today, this week and in total, with daily goal progress"),
		),
		s.handleGetStats,
	)

	historyTool := mcp.NewTool(
		"get_history",
		mcp.WithDescription("Get finished sessions, most recent first"),
		mcp.WithNumber(
			"page",
			mcp.Description("Page number starting at 1 (default: 1)"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Sessions per page (default: 10)"),
		),
	)
	s.server.AddTool(historyTool, s.handleGetHistory)
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	return server.ServeStdio(s.server)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

func (s *Server) handleGetSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(snapshotData(s.control.Snapshot()))
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var mode domain.Mode
	if raw := request.GetString("mode", ""); raw != "" {
		m, err := domain.ParseMode(raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		mode = m
	}

	if err := s.control.Start(ctx, mode); err != nil {
		return toolError("start session", err), nil
	}
	return jsonResult(snapshotData(s.control.Snapshot()))
}

func (s *Server) handlePauseSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.control.Pause(ctx); err != nil {
		return toolError("pause session", err), nil
	}
	return jsonResult(snapshotData(s.control.Snapshot()))
}

func (s *Server) handleResumeSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.control.Resume(ctx); err != nil {
		return toolError("resume session", err), nil
	}
	return jsonResult(snapshotData(s.control.Snapshot()))
}

func (s *Server) handleEndSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	force := request.GetBool("force", false)
	if err := s.control.Complete(ctx, force); err != nil {
		return toolError("end session", err), nil
	}
	return jsonResult(snapshotData(s.control.Snapshot()))
}

func (s *Server) handleCancelSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	confirm := request.GetBool("confirm", false)
	confirmer := ports.ConfirmFunc(func(context.Context, string) (bool, error) { return confirm, nil })

	if err := s.control.Cancel(ctx, confirmer); err != nil {
		return toolError("cancel session", err), nil
	}
	return jsonResult(snapshotData(s.control.Snapshot()))
}

func (s *Server) handleGetStreak(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.insights.Streak(ctx)
	if err != nil {
		return toolError("get streak", err), nil
	}

	result := map[string]interface{}{
		"has_streak": !view.Empty,
		"current":    view.Current,
		"longest":    view.Longest,
		"message":    view.Message,
		"tip":        view.Tip,
	}
	if view.Empty {
		result["message"] = view.Headline
	}
	if view.LastActivity != nil {
		result["last_activity"] = view.LastActivity.Format(domain.DateLayout)
	}
	if view.Milestone != nil {
		result["next_milestone"] = view.Milestone.Next
		result["days_to_milestone"] = view.Milestone.DaysLeft
	}
	return jsonResult(result)
}

func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := s.insights.Stats(ctx)
	if err != nil {
		return toolError("get stats", err), nil
	}

	return jsonResult(map[string]interface{}{
		"today":         view.Counts.Today,
		"week":          view.Counts.Week,
		"total":         view.Counts.Total,
		"daily_goal":    view.Goal,
		"goal_progress": view.Progress,
		"goal_reached":  view.GoalReached(),
	})
}

func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := int(request.GetFloat("page", 0))
	limit := int(request.GetFloat("limit", 0))

	result, err := s.insights.History(ctx, page, limit)
	if err != nil {
		return toolError("get history", err), nil
	}

	sessions := make([]map[string]interface{}, 0, len(result.Sessions))
	for _, session := range result.Sessions {
		sessions = append(sessions, sessionData(session))
	}

	return jsonResult(map[string]interface{}{
		"sessions": sessions,
		"total":    result.Total,
		"page":     result.Page,
		"limit":    result.Limit,
		"pages":    result.Pages(),
	})
}

func snapshotData(snap domain.Snapshot) map[string]interface{} {
	result := map[string]interface{}{
		"state":          snap.State.String(),
		"mode":           string(snap.Mode),
		"active_session": nil,
	}

	if snap.Session != nil {
		data := sessionData(snap.Session)
		data["remaining"] = snap.Clock()
		data["remaining_seconds"] = snap.Remaining
		data["elapsed_seconds"] = snap.Elapsed
		data["progress"] = snap.Progress
		result["active_session"] = data
	}

	if snap.ShowResults && snap.Results != nil {
		results := map[string]interface{}{}
		if snap.Results.Session != nil {
			results["session"] = sessionData(snap.Results.Session)
		}
		if snap.Results.Streak != nil {
			results["streak"] = snap.Results.Streak.Current
		}
		names := make([]string, 0, len(snap.Results.NewAchievements))
		for _, a := range snap.Results.NewAchievements {
			names = append(names, a.Name)
		}
		results["new_achievements"] = names
		result["last_results"] = results
	}

	if snap.LastError != nil {
		result["last_error"] = domain.UserMessage(snap.LastError)
	}
	return result
}

func sessionData(session *domain.Session) map[string]interface{} {
	data := map[string]interface{}{
		"id":           session.ID,
		"type":         string(session.Kind),
		"status":       session.StatusLabel(),
		"duration":     domain.FormatClock(session.Duration),
		"completed":    session.Completed,
		"started_at":   session.StartTime.Format("2006-01-02T15:04:05"),
		"is_paused":    session.IsPaused,
		"is_completed": session.IsCompleted,
		"is_cancelled": session.IsCancelled,
	}
	if session.EndTime != nil {
		data["ended_at"] = session.EndTime.Format("2006-01-02T15:04:05")
	}
	return data
}

func toolError(action string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("failed to %s: %s", action, domain.UserMessage(err))
	if domain.Retryable(err) {
		msg += " (retry later)"
	}
	return mcp.NewToolResultError(msg)
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
