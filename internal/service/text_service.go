package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"typeracer/internal/database"
	"typeracer/internal/models"
	"typeracer/internal/repository"
	"typeracer/internal/validation"
)

// TextService provides the passages clients type
type TextService struct {
	db     *database.DB
	texts  *repository.TextRepository
	logger *zap.Logger
	intn   func(n int) int
}

// NewTextService creates a new text service
func NewTextService(db *database.DB, texts *repository.TextRepository, logger *zap.Logger) *TextService {
	return &TextService{
		db:     db,
		texts:  texts,
		logger: logger,
		intn:   rand.IntN,
	}
}

// NormalizeFilters applies defaults and checks language and difficulty
func NormalizeFilters(language, difficulty string) (string, string, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if language == "" {
		language = models.DefaultLanguage
	}
	if difficulty == "" {
		difficulty = models.DefaultDifficulty
	}
	if !models.IsValidLanguage(language) {
		return "", "", validation.ValidationError{Field: "language", Message: "invalid language"}
	}
	if !models.IsValidDifficulty(difficulty) {
		return "", "", validation.ValidationError{Field: "difficulty", Message: "difficulty must be easy, medium, or hard"}
	}
	return language, difficulty, nil
}

// PickText returns a uniformly random active text matching both filters
func (s *TextService) PickText(ctx context.Context, language, difficulty string) (*models.TestText, error) {
	language, difficulty, err := NormalizeFilters(language, difficulty)
	if err != nil {
		return nil, err
	}

	// A text deactivated between count and read shrinks the set; retry with a fresh count.
	for attempt := 0; attempt < 3; attempt++ {
		count, err := s.texts.CountActive(ctx, language, difficulty)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrNoTextAvailable
		}

		text, err := s.texts.GetActiveAt(ctx, language, difficulty, s.intn(count))
		if err != nil {
			return nil, err
		}
		if text != nil {
			return text, nil
		}
	}
	return nil, ErrNoTextAvailable
}

// GetText retrieves a text by id
func (s *TextService) GetText(ctx context.Context, id int64) (*models.TestText, error) {
	text, err := s.texts.GetTextByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if text == nil {
		return nil, ErrTextNotFound
	}
	return text, nil
}

func prepareText(t models.NewText) (models.NewText, error) {
	t.Content = strings.TrimSpace(t.Content)
	if t.Content == "" {
		return t, validation.ValidationError{Field: "content", Message: "content is required"}
	}
	lang, diff, err := NormalizeFilters(t.Language, t.Difficulty)
	if err != nil {
		return t, err
	}
	t.Language, t.Difficulty = lang, diff
	if t.WordCount <= 0 {
		t.WordCount = models.CountWords(t.Content)
	}
	return t, nil
}

// CreateText validates and stores a new active text
func (s *TextService) CreateText(ctx context.Context, t models.NewText) (*models.TestText, error) {
	t, err := prepareText(t)
	if err != nil {
		return nil, err
	}
	return s.texts.CreateText(ctx, t, database.Now())
}

// DeactivateText soft-deletes a text so it is no longer picked
func (s *TextService) DeactivateText(ctx context.Context, id int64) error {
	ok, err := s.texts.DeactivateText(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTextNotFound
	}
	return nil
}

// ListActiveTexts returns every text that can currently be picked
func (s *TextService) ListActiveTexts(ctx context.Context) ([]models.TestText, error) {
	return s.texts.ListActive(ctx)
}

// ImportTexts validates every text and inserts them in one transaction.
// Invalid rows abort the import and name the offending row.
func (s *TextService) ImportTexts(ctx context.Context, texts []models.NewText) (int, error) {
	prepared := make([]models.NewText, 0, len(texts))
	for i, t := range texts {
		p, err := prepareText(t)
		if err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		prepared = append(prepared, p)
	}

	now := database.Now()
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		repo := s.texts.WithTx(tx)
		for _, t := range prepared {
			if _, err := repo.CreateText(ctx, t, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import texts: %w", err)
	}

	s.logger.Info("imported texts", zap.Int("count", len(prepared)))
	return len(prepared), nil
}

// SeedDefaultTexts inserts the built-in passages when no text exists yet
func (s *TextService) SeedDefaultTexts(ctx context.Context) error {
	count, err := s.texts.CountAll(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	n, err := s.ImportTexts(ctx, defaultTexts)
	if err != nil {
		return fmt.Errorf("failed to seed default texts: %w", err)
	}
	s.logger.Info("seeded default texts", zap.Int("count", n))
	return nil
}
