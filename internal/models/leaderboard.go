package models

import "time"

// Timeframe filters read models by result creation time
type Timeframe string

const (
	TimeframeAll   Timeframe = "all"
	TimeframeToday Timeframe = "today"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

// ParseTimeframe maps a query value onto a Timeframe, defaulting to all
func ParseTimeframe(s string) (Timeframe, bool) {
	switch Timeframe(s) {
	case "", TimeframeAll:
		return TimeframeAll, true
	case TimeframeToday, TimeframeWeek, TimeframeMonth:
		return Timeframe(s), true
	}
	return "", false
}

// Since returns the lower bound for the timeframe, or the zero time for all
func (tf Timeframe) Since(now time.Time) time.Time {
	now = now.UTC()
	switch tf {
	case TimeframeToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case TimeframeWeek:
		return now.AddDate(0, 0, -7)
	case TimeframeMonth:
		return now.AddDate(0, 0, -30)
	}
	return time.Time{}
}

// LeaderboardEntry is one ranked user
type LeaderboardEntry struct {
	Rank        int     `json:"rank" db:"-"`
	UserID      int64   `json:"id" db:"id"`
	Username    string  `json:"username" db:"username"`
	AvatarURL   string  `json:"avatarUrl,omitempty" db:"avatar_url"`
	BestWPM     float64 `json:"bestWpm" db:"best_wpm"`
	AvgWPM      float64 `json:"avgWpm" db:"avg_wpm"`
	TotalTests  int     `json:"totalTests" db:"total_tests"`
	AvgAccuracy float64 `json:"avgAccuracy" db:"avg_accuracy"`
}

// HistoryEntry is one result row with its text
type HistoryEntry struct {
	ID              int64     `json:"id" db:"id"`
	WPM             float64   `json:"wpm" db:"wpm"`
	RawWPM          float64   `json:"rawWpm" db:"raw_wpm"`
	Accuracy        float64   `json:"accuracy" db:"accuracy"`
	CorrectChars    int       `json:"correctChars" db:"correct_chars"`
	IncorrectChars  int       `json:"incorrectChars" db:"incorrect_chars"`
	TotalChars      int       `json:"totalChars" db:"total_chars"`
	DurationSeconds int       `json:"testDurationSeconds" db:"duration_seconds"`
	TextSnippet     string    `json:"textSnippet" db:"text_snippet"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	TextContent     string    `json:"textContent" db:"text_content"`
	TextWordCount   int       `json:"textWordCount" db:"text_word_count"`
}

// GlobalStats summarises all activity
type GlobalStats struct {
	TotalUsers         int     `json:"totalUsers" db:"total_users"`
	TotalTests         int     `json:"totalTests" db:"total_tests"`
	TotalGuestSessions int     `json:"totalGuestSessions" db:"total_guest_sessions"`
	AvgWPM             float64 `json:"avgWpm" db:"avg_wpm"`
	BestWPM            float64 `json:"bestWpm" db:"best_wpm"`
	AvgAccuracy        float64 `json:"avgAccuracy" db:"avg_accuracy"`
	Tests15s           int     `json:"tests15s" db:"tests_15s"`
	Tests30s           int     `json:"tests30s" db:"tests_30s"`
	Tests60s           int     `json:"tests60s" db:"tests_60s"`
}

// Pagination describes a page of a larger result set
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// MaxPageLimit caps page sizes
const MaxPageLimit = 100

// NewPagination normalises page and limit and fills the derived fields
func NewPagination(page, limit, total int) Pagination {
	page, limit = NormalizePage(page, limit)
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page*limit < total,
		HasPrev:    page > 1,
	}
}

// NormalizePage clamps page to >= 1 and limit to [1, MaxPageLimit], defaulting limit to 20
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
