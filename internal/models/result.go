package models

import "time"

// SnippetMaxRunes bounds the stored text excerpt of a result
const SnippetMaxRunes = 100

// TestResult is a scored, persisted test
type TestResult struct {
	ID              int64     `json:"id"`
	Owner           Owner     `json:"-"`
	TestSessionID   int64     `json:"-"`
	WPM             float64   `json:"wpm"`
	RawWPM          float64   `json:"rawWpm"`
	Accuracy        float64   `json:"accuracy"`
	CorrectChars    int       `json:"correctChars"`
	IncorrectChars  int       `json:"incorrectChars"`
	TotalChars      int       `json:"totalChars"`
	DurationSeconds int       `json:"testDurationSeconds"`
	TextSnippet     string    `json:"textSnippet,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// TrimSnippet cuts s to SnippetMaxRunes runes
func TrimSnippet(s string) string {
	r := []rune(s)
	if len(r) <= SnippetMaxRunes {
		return s
	}
	return string(r[:SnippetMaxRunes])
}
