package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/devnotmax/studify/internal/domain"
	"github.com/devnotmax/studify/internal/ports"
	"github.com/mark3labs/mcp-go/mcp"
)

// mockControl is a mock implementation of ports.SessionControl for testing.
type mockControl struct {
	snap       domain.Snapshot
	startMode  domain.Mode
	force      bool
	confirmed  bool
	err        error
	cancelCall int
}

func (m *mockControl) Snapshot() domain.Snapshot { return m.snap }

func (m *mockControl) Start(ctx context.Context, mode domain.Mode) error {
	m.startMode = mode
	if m.err != nil {
		return m.err
	}
	m.snap.State = domain.StateRunning
	m.snap.Session = &domain.Session{ID: "s1", Kind: domain.KindFocus, Duration: 1500, StartTime: time.Now()}
	m.snap.Remaining = 1500
	return nil
}

func (m *mockControl) Pause(ctx context.Context) error  { return m.err }
func (m *mockControl) Resume(ctx context.Context) error { return m.err }

func (m *mockControl) Complete(ctx context.Context, force bool) error {
	m.force = force
	return m.err
}

func (m *mockControl) Cancel(ctx context.Context, confirm ports.Confirmer) error {
	m.cancelCall++
	ok, _ := confirm.Confirm(ctx, "")
	m.confirmed = ok
	if !ok {
		return domain.ErrCancelNotConfirmed
	}
	return m.err
}

func (m *mockControl) Refresh(ctx context.Context) error { return m.err }
func (m *mockControl) DismissResults()                   {}

// mockInsights is a mock implementation of ports.InsightsProvider for testing.
type mockInsights struct {
	streak  domain.StreakView
	stats   domain.StatsView
	history *domain.HistoryPage
	err     error
}

func (m *mockInsights) Streak(ctx context.Context) (domain.StreakView, error) { return m.streak, m.err }
func (m *mockInsights) Stats(ctx context.Context) (domain.StatsView, error)   { return m.stats, m.err }

func (m *mockInsights) History(ctx context.Context, page, limit int) (*domain.HistoryPage, error) {
	page, limit = domain.NormalizePaging(page, limit)
	if m.history == nil {
		return &domain.HistoryPage{Page: page, Limit: limit}, m.err
	}
	return m.history, m.err
}

func request(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func decode(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("empty result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	if result.IsError {
		t.Fatalf("tool error: %s", text.Text)
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	return out
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if !result.IsError {
		t.Fatal("expected an error result")
	}
	text, _ := result.Content[0].(mcp.TextContent)
	return text.Text
}

func TestNewServer(t *testing.T) {
	control := &mockControl{}
	server := NewServer(control, &mockInsights{}, "test")

	if server.server == nil {
		t.Error("NewServer() did not create MCP server")
	}
	if server.IsRunning() {
		t.Error("IsRunning() should return false before Start()")
	}
	if err := server.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestServer_handleGetSessionState(t *testing.T) {
	control := &mockControl{snap: domain.Snapshot{State: domain.StateIdle, Mode: domain.ModeFocus}}
	server := NewServer(control, &mockInsights{}, "test")

	result, err := server.handleGetSessionState(context.Background(), request(nil))
	if err != nil {
		t.Fatalf("handleGetSessionState() error = %v", err)
	}
	out := decode(t, result)
	if out["state"] != "idle" || out["active_session"] != nil {
		t.Errorf("result = %v", out)
	}
}

func TestServer_handleStartSession(t *testing.T) {
	control := &mockControl{}
	server := NewServer(control, &mockInsights{}, "test")

	result, err := server.handleStartSession(context.Background(), request(map[string]interface{}{"mode": "short_break"}))
	if err != nil {
		t.Fatal(err)
	}
	out := decode(t, result)
	if control.startMode != domain.ModeShortBreak {
		t.Errorf("start mode = %q", control.startMode)
	}
	session, ok := out["active_session"].(map[string]interface{})
	if !ok || session["remaining"] != "25:00" {
		t.Errorf("active_session = %v", out["active_session"])
	}

	result, _ = server.handleStartSession(context.Background(), request(map[string]interface{}{"mode": "nap"}))
	if !result.IsError {
		t.Error("invalid mode should be a tool error")
	}
}

func TestServer_handleStartSession_Conflict(t *testing.T) {
	control := &mockControl{err: domain.NewGatewayError("start", domain.ErrConflict, 409, "active session exists")}
	server := NewServer(control, &mockInsights{}, "test")

	result, err := server.handleStartSession(context.Background(), request(nil))
	if err != nil {
		t.Fatal(err)
	}
	if msg := errorText(t, result); !strings.Contains(msg, "start session") {
		t.Errorf("error text = %q", msg)
	}
}

func TestServer_handleEndSession(t *testing.T) {
	control := &mockControl{}
	server := NewServer(control, &mockInsights{}, "test")

	if _, err := server.handleEndSession(context.Background(), request(map[string]interface{}{"force": true})); err != nil {
		t.Fatal(err)
	}
	if !control.force {
		t.Error("force flag not passed")
	}

	control.err = domain.ErrTimeRemaining
	result, _ := server.handleEndSession(context.Background(), request(nil))
	errorText(t, result)
}

func TestServer_handleCancelSession(t *testing.T) {
	control := &mockControl{}
	server := NewServer(control, &mockInsights{}, "test")

	result, _ := server.handleCancelSession(context.Background(), request(map[string]interface{}{"confirm": false}))
	errorText(t, result)
	if control.confirmed {
		t.Error("cancel confirmed without confirm=true")
	}

	result, _ = server.handleCancelSession(context.Background(), request(map[string]interface{}{"confirm": true}))
	decode(t, result)
	if !control.confirmed {
		t.Error("confirm=true was not passed through")
	}
}

func TestServer_handleGetStreak(t *testing.T) {
	insights := &mockInsights{streak: domain.NewStreakView(domain.StreakReport{Info: &domain.StreakInfo{Current: 8, Longest: 12}})}
	server := NewServer(&mockControl{}, insights, "test")

	result, err := server.handleGetStreak(context.Background(), request(nil))
	if err != nil {
		t.Fatal(err)
	}
	out := decode(t, result)
	if out["current"] != float64(8) || out["next_milestone"] != float64(14) || out["has_streak"] != true {
		t.Errorf("result = %v", out)
	}

	insights.streak = domain.NewStreakView(domain.StreakReport{})
	out = decode(t, mustResult(server.handleGetStreak(context.Background(), request(nil))))
	if out["has_streak"] != false {
		t.Errorf("result = %v", out)
	}
}

func TestServer_handleGetStats(t *testing.T) {
	insights := &mockInsights{stats: domain.NewStatsView(domain.SessionCounts{Today: 6, Week: 20, Total: 80}, 6)}
	server := NewServer(&mockControl{}, insights, "test")

	out := decode(t, mustResult(server.handleGetStats(context.Background(), request(nil))))
	if out["goal_reached"] != true || out["goal_progress"] != float64(100) {
		t.Errorf("result = %v", out)
	}

	insights.err = domain.NewGatewayError("stats", domain.ErrNetwork, 0, "dial tcp")
	msg := errorText(t, mustResult(server.handleGetStats(context.Background(), request(nil))))
	if !strings.Contains(msg, "retry") {
		t.Errorf("network error should offer a retry: %q", msg)
	}
}

func TestServer_handleGetHistory(t *testing.T) {
	end := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	insights := &mockInsights{history: &domain.HistoryPage{
		Sessions: []*domain.Session{{ID: "s1", Kind: domain.KindFocus, Duration: 1500, Completed: 1500, IsCompleted: true, EndTime: &end}},
		Total:    11,
		Page:     1,
		Limit:    10,
	}}
	server := NewServer(&mockControl{}, insights, "test")

	out := decode(t, mustResult(server.handleGetHistory(context.Background(), request(map[string]interface{}{"page": 1.0}))))
	if out["pages"] != float64(2) {
		t.Errorf("pages = %v", out["pages"])
	}
	sessions, _ := out["sessions"].([]interface{})
	if len(sessions) != 1 {
		t.Fatalf("sessions = %v", out["sessions"])
	}
}

func TestToolError(t *testing.T) {
	result := toolError("pause session", errors.New("boom"))
	if !result.IsError {
		t.Error("toolError() should mark the result as an error")
	}
}

func mustResult(result *mcp.CallToolResult, err error) *mcp.CallToolResult {
	if err != nil {
		panic(err)
	}
	return result
}
