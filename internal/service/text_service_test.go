package service

import (
	"context"
	"errors"
	"testing"

	"typeracer/internal/models"
	"typeracer/internal/validation"
)

func TestNormalizeFilters(t *testing.T) {
	tests := []struct {
		name           string
		lang, diff     string
		wantLang       string
		wantDiff       string
		wantValidation bool
	}{
		{"defaults", "", "", "en", "medium", false},
		{"case and space", " FR ", "Hard", "fr", "hard", false},
		{"unknown language", "xx", "easy", "", "", true},
		{"unknown difficulty", "en", "extreme", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, diff, err := NormalizeFilters(tt.lang, tt.diff)
			var verr validation.ValidationError
			if errors.As(err, &verr) != tt.wantValidation {
				t.Fatalf("NormalizeFilters() error = %v, wantValidation %v", err, tt.wantValidation)
			}
			if lang != tt.wantLang || diff != tt.wantDiff {
				t.Errorf("NormalizeFilters() = %s/%s, want %s/%s", lang, diff, tt.wantLang, tt.wantDiff)
			}
		})
	}
}

func TestPickTextHonoursFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	for i := 0; i < 30; i++ {
		text, err := env.texts.PickText(ctx, "en", "easy")
		if err != nil {
			t.Fatalf("PickText() error = %v", err)
		}
		if text.Language != "en" || text.Difficulty != "easy" || !text.IsActive {
			t.Fatalf("PickText() = %+v, want active en/easy", text)
		}
		seen[text.ID] = true
	}
	if len(seen) < 2 {
		t.Errorf("PickText() returned %d distinct texts over 30 picks", len(seen))
	}
}

func TestPickTextUsesOffset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.texts.CreateText(ctx, models.NewText{Content: "uno dos tres", Language: "es", Difficulty: "easy"})
	if err != nil {
		t.Fatalf("CreateText() error = %v", err)
	}
	if created.WordCount != 3 {
		t.Errorf("WordCount = %d, want 3", created.WordCount)
	}

	env.texts.intn = func(n int) int {
		if n != 1 {
			t.Errorf("intn(%d), want 1 candidate", n)
		}
		return 0
	}
	text, err := env.texts.PickText(ctx, "es", "easy")
	if err != nil {
		t.Fatalf("PickText() error = %v", err)
	}
	if text.ID != created.ID {
		t.Errorf("PickText() = %d, want %d", text.ID, created.ID)
	}

	if err := env.texts.DeactivateText(ctx, created.ID); err != nil {
		t.Fatalf("DeactivateText() error = %v", err)
	}
	if _, err := env.texts.PickText(ctx, "es", "easy"); !errors.Is(err, ErrNoTextAvailable) {
		t.Errorf("PickText() after deactivate error = %v, want ErrNoTextAvailable", err)
	}
	if err := env.texts.DeactivateText(ctx, created.ID); !errors.Is(err, ErrTextNotFound) {
		t.Errorf("second DeactivateText() error = %v, want ErrTextNotFound", err)
	}

	got, err := env.texts.GetText(ctx, created.ID)
	if err != nil || got.IsActive {
		t.Errorf("GetText() = %+v, %v; want inactive text", got, err)
	}
}

func TestImportTextsIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before, err := env.texts.ListActiveTexts(ctx)
	if err != nil {
		t.Fatalf("ListActiveTexts() error = %v", err)
	}

	_, err = env.texts.ImportTexts(ctx, []models.NewText{
		{Content: "le chat noir", Language: "fr", Difficulty: "easy"},
		{Content: "   ", Language: "fr", Difficulty: "easy"},
	})
	if err == nil {
		t.Fatal("ImportTexts() with blank row succeeded")
	}

	n, err := env.texts.ImportTexts(ctx, []models.NewText{
		{Content: "le chat noir", Language: "fr", Difficulty: "easy"},
		{Content: "der schnelle braune fuchs", Language: "de", Difficulty: "medium", WordCount: 4},
	})
	if err != nil || n != 2 {
		t.Fatalf("ImportTexts() = %d, %v; want 2", n, err)
	}

	after, err := env.texts.ListActiveTexts(ctx)
	if err != nil {
		t.Fatalf("ListActiveTexts() error = %v", err)
	}
	if len(after) != len(before)+2 {
		t.Errorf("active texts = %d, want %d", len(after), len(before)+2)
	}
}

func TestSeedDefaultTextsOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.texts.SeedDefaultTexts(ctx); err != nil {
		t.Fatalf("SeedDefaultTexts() error = %v", err)
	}
	texts, err := env.texts.ListActiveTexts(ctx)
	if err != nil {
		t.Fatalf("ListActiveTexts() error = %v", err)
	}
	if len(texts) != len(defaultTexts) {
		t.Errorf("texts = %d, want %d", len(texts), len(defaultTexts))
	}
}
