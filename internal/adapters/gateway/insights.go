package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/devnotmax/studify/internal/domain"
)

// History returns a page of finished sessions.
func (c *Client) History(ctx context.Context, page, limit int) (*domain.HistoryPage, error) {
	const op = "history"
	page, limit = domain.NormalizePaging(page, limit)
	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/sessions/history",
		query:  pageQuery(page, limit),
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Sessions []*domain.Session `json:"sessions"`
		Total    *int              `json:"total"`
		Page     int               `json:"page"`
		Limit    int               `json:"limit"`
	}
	if err := decode(body, &payload); err != nil {
		return nil, c.malformed(op, err.Error())
	}
	if payload.Sessions == nil || payload.Total == nil {
		return nil, c.malformed(op, "missing sessions or total")
	}
	if payload.Page == 0 {
		payload.Page = page
	}
	if payload.Limit == 0 {
		payload.Limit = limit
	}
	return &domain.HistoryPage{
		Sessions: payload.Sessions,
		Total:    *payload.Total,
		Page:     payload.Page,
		Limit:    payload.Limit,
	}, nil
}

// Streak returns the streak, or a no-streak report when the server answers
// with a message instead.
func (c *Client) Streak(ctx context.Context) (domain.StreakReport, error) {
	const op = "streak"
	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/sessions/streak"})
	if err != nil {
		return domain.StreakReport{}, err
	}

	var payload struct {
		Streak  json.RawMessage `json:"streak"`
		Message string          `json:"message"`
	}
	if err := decode(body, &payload); err != nil {
		return domain.StreakReport{}, c.malformed(op, err.Error())
	}
	if isNull(payload.Streak) {
		if payload.Message == "" {
			return domain.StreakReport{}, c.malformed(op, "neither streak nor message")
		}
		return domain.StreakReport{Message: payload.Message}, nil
	}

	var info domain.StreakInfo
	if err := json.Unmarshal(payload.Streak, &info); err != nil {
		return domain.StreakReport{}, c.malformed(op, err.Error())
	}
	if err := info.Validate(); err != nil {
		return domain.StreakReport{}, c.malformed(op, err.Error())
	}
	return domain.StreakReport{Info: &info, Message: payload.Message}, nil
}

// Stats returns completed-session counts.
func (c *Client) Stats(ctx context.Context) (domain.SessionCounts, error) {
	const op = "stats"
	body, err := c.do(ctx, request{op: op, method: http.MethodGet, path: "/sessions/stats"})
	if err != nil {
		return domain.SessionCounts{}, err
	}

	var payload struct {
		Today *int `json:"today"`
		Week  *int `json:"week"`
		Total *int `json:"total"`
	}
	if err := decode(body, &payload); err != nil {
		return domain.SessionCounts{}, c.malformed(op, err.Error())
	}
	if payload.Today == nil || payload.Week == nil || payload.Total == nil {
		return domain.SessionCounts{}, c.malformed(op, "missing counts")
	}
	return domain.SessionCounts{Today: *payload.Today, Week: *payload.Week, Total: *payload.Total}, nil
}
