package models

import (
	"strings"
	"time"
)

// Accepted text filters
var (
	Languages    = []string{"en", "es", "fr", "de", "it", "pt"}
	Difficulties = []string{"easy", "medium", "hard"}
)

const (
	DefaultLanguage   = "en"
	DefaultDifficulty = "medium"
)

// TestText is a passage a client types during a test
type TestText struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	Language   string    `json:"language"`
	Difficulty string    `json:"difficulty"`
	WordCount  int       `json:"wordCount"`
	IsActive   bool      `json:"-"`
	CreatedAt  time.Time `json:"-"`
}

// NewText is the input for creating a text
type NewText struct {
	Content    string
	Language   string
	Difficulty string
	WordCount  int
}

// CountWords returns the number of whitespace-separated words in content
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// IsValidLanguage reports whether lang is an accepted language code
func IsValidLanguage(lang string) bool {
	return contains(Languages, lang)
}

// IsValidDifficulty reports whether d is an accepted difficulty
func IsValidDifficulty(d string) bool {
	return contains(Difficulties, d)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
