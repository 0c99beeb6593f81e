package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/devnotmax/studify/internal/domain"
)

type sessionEnvelope struct {
	Message string          `json:"message,omitempty"`
	Session json.RawMessage `json:"session"`
}

// decodeSession requires a non-null, valid session in the envelope.
func (c *Client) decodeSession(op string, body []byte) (*domain.Session, error) {
	var env sessionEnvelope
	if err := decode(body, &env); err != nil {
		return nil, c.malformed(op, err.Error())
	}
	if isNull(env.Session) {
		return nil, c.malformed(op, "missing session")
	}
	var s domain.Session
	if err := json.Unmarshal(env.Session, &s); err != nil {
		return nil, c.malformed(op, err.Error())
	}
	if err := s.Validate(); err != nil {
		return nil, c.malformed(op, err.Error())
	}
	return &s, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Start creates a session.
func (c *Client) Start(ctx context.Context, kind domain.SessionKind, durationSeconds int) (*domain.Session, error) {
	const op = "start"
	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/sessions",
		body:   map[string]any{"sessionType": kind, "duration": durationSeconds},
	})
	if err != nil {
		return nil, err
	}
	return c.decodeSession(op, body)
}

// Active returns the active session or nil.
func (c *Client) Active(ctx context.Context) (*domain.Session, error) {
	const op = "active"
	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/sessions/active"})
	if err != nil {
		return nil, err
	}

	var env map[string]json.RawMessage
	if err := decode(body, &env); err != nil {
		return nil, c.malformed(op, err.Error())
	}
	raw, ok := env["session"]
	if !ok {
		return nil, c.malformed(op, "missing session field")
	}
	if isNull(raw) {
		return nil, nil
	}
	return c.decodeSession(op, body)
}

// Pause freezes a session.
func (c *Client) Pause(ctx context.Context, id string) (*domain.Session, error) {
	const op = "pause"
	body, err := c.do(ctx, request{op: op, method: http.MethodPut, path: sessionPath(id, "pause"), id: id})
	if err != nil {
		return nil, err
	}
	return c.decodeSession(op, body)
}

// Resume unfreezes a session.
func (c *Client) Resume(ctx context.Context, id string) (*domain.Session, error) {
	const op = "resume"
	body, err := c.do(ctx, request{op: op, method: http.MethodPut, path: sessionPath(id, "resume"), id: id})
	if err != nil {
		return nil, err
	}
	return c.decodeSession(op, body)
}

// Remaining returns the server's seconds left.
func (c *Client) Remaining(ctx context.Context, id string) (int, error) {
	const op = "remaining"
	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: sessionPath(id, "remaining"), id: id})
	if err != nil {
		return 0, err
	}

	var payload struct {
		Remaining *float64 `json:"remaining"`
	}
	if err := decode(body, &payload); err != nil {
		return 0, c.malformed(op, err.Error())
	}
	if payload.Remaining == nil {
		return 0, c.malformed(op, "missing remaining")
	}
	return int(*payload.Remaining), nil
}

// End finalizes a session.
func (c *Client) End(ctx context.Context, id string, completedSeconds int) (*domain.SessionResults, error) {
	const op = "end"
	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPut,
		path:   sessionPath(id, "end"),
		body:   map[string]int{"completedTime": completedSeconds},
		id:     id,
	})
	if err != nil {
		return nil, err
	}

	session, err := c.decodeSession(op, body)
	if err != nil {
		return nil, err
	}

	// The end is committed once the session decodes; extras that fail to
	// decode are dropped rather than failing the call.
	results := &domain.SessionResults{Session: session, NewAchievements: []domain.Achievement{}}
	var payload struct {
		Streak          json.RawMessage `json:"streak"`
		NewAchievements json.RawMessage `json:"newAchievements"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return results, nil
	}
	if !isNull(payload.Streak) {
		var info domain.StreakInfo
		if err := json.Unmarshal(payload.Streak, &info); err != nil {
			c.logger.Warn().Err(err).Str("session_id", id).Msg("ignoring undecodable streak in end response")
		} else {
			results.Streak = &info
		}
	}
	if !isNull(payload.NewAchievements) {
		var achievements []domain.Achievement
		if err := json.Unmarshal(payload.NewAchievements, &achievements); err != nil {
			c.logger.Warn().Err(err).Str("session_id", id).Msg("ignoring undecodable achievements in end response")
		} else if achievements != nil {
			results.NewAchievements = achievements
		}
	}
	return results, nil
}

// Cancel abandons a session.
func (c *Client) Cancel(ctx context.Context, id string) error {
	_, err := c.do(ctx, request{op: "cancel", method: http.MethodPut, path: sessionPath(id, "cancel"), id: id})
	return err
}
