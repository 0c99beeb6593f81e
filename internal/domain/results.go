package domain

// Achievement is a badge unlocked by completing sessions.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SessionResults summarizes a finished session for the post-completion view.
type SessionResults struct {
	Session         *Session      `json:"session"`
	Streak          *StreakInfo   `json:"streak,omitempty"`
	NewAchievements []Achievement `json:"newAchievements"`
}

// HistoryPage is one page of terminal sessions, most recent first.
type HistoryPage struct {
	Sessions []*Session `json:"sessions"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
}

const (
	DefaultHistoryPage  = 1
	DefaultHistoryLimit = 10
)

// NormalizePaging applies the default page and limit.
func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultHistoryPage
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return page, limit
}

// Pages returns the number of pages needed for the total.
func (h *HistoryPage) Pages() int {
	if h.Limit <= 0 || h.Total <= 0 {
		return 0
	}
	return (h.Total + h.Limit - 1) / h.Limit
}
