package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"typeracer/internal/validation"
)

var zeroTime time.Time

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ada := env.createUser(t, "ada")
	bob := env.createUser(t, "bob")
	cy := env.createUser(t, "cy")
	guest := env.createGuest(t)

	env.takeTest(t, Identity{UserID: ada.ID}, 50)
	env.takeTest(t, Identity{UserID: bob.ID}, 70)
	env.takeTest(t, Identity{UserID: bob.ID}, 30)
	env.takeTest(t, Identity{GuestSessionID: guest.ID}, 120)

	page, err := env.board.GetLeaderboard(ctx, LeaderboardQuery{Page: 1, Limit: 10}, ada.ID)
	if err != nil {
		t.Fatalf("GetLeaderboard() error = %v", err)
	}
	if len(page.Entries) != 2 {
		t.Fatalf("entries = %d, want 2 (guests and idle users excluded)", len(page.Entries))
	}
	if page.Entries[0].UserID != bob.ID || page.Entries[0].Rank != 1 {
		t.Errorf("first entry = %+v, want bob at rank 1", page.Entries[0])
	}
	if page.Entries[0].BestWPM != 70 || page.Entries[0].TotalTests != 2 {
		t.Errorf("bob best/total = %v/%d, want 70/2", page.Entries[0].BestWPM, page.Entries[0].TotalTests)
	}
	if page.UserRank != 2 {
		t.Errorf("UserRank = %d, want 2", page.UserRank)
	}
	if page.Pagination.Total != 2 || page.Pagination.HasNext {
		t.Errorf("pagination = %+v", page.Pagination)
	}

	rank, err := env.board.GetUserRank(ctx, cy.ID, "all", "")
	if err != nil {
		t.Fatalf("GetUserRank() error = %v", err)
	}
	if rank != 0 {
		t.Errorf("rank of user with no results = %d, want 0", rank)
	}

	hard, err := env.board.GetLeaderboard(ctx, LeaderboardQuery{Difficulty: "hard"}, 0)
	if err != nil {
		t.Fatalf("GetLeaderboard(hard) error = %v", err)
	}
	if len(hard.Entries) != 0 {
		t.Errorf("hard entries = %d, want 0", len(hard.Entries))
	}

	stats, err := env.board.GetGlobalStats(ctx)
	if err != nil {
		t.Fatalf("GetGlobalStats() error = %v", err)
	}
	if stats.TotalTests != 4 || stats.TotalUsers != 3 || stats.BestWPM != 120 || stats.Tests60s != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestLeaderboardRejectsBadFilters(t *testing.T) {
	env := newTestEnv(t)

	tests := []LeaderboardQuery{
		{Timeframe: "year"},
		{Difficulty: "insane"},
	}
	for _, q := range tests {
		_, err := env.board.GetLeaderboard(context.Background(), q, 0)
		var verr validation.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("GetLeaderboard(%+v) error = %v, want ValidationError", q, err)
		}
	}
}

func TestHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ada")
	guest := env.createGuest(t)

	for _, wpm := range []int{30, 40, 50} {
		env.takeTest(t, Identity{UserID: user.ID}, wpm)
	}
	env.takeTest(t, Identity{GuestSessionID: guest.ID}, 20)

	page, err := env.board.GetUserHistory(ctx, user.ID, 1, 2, "week")
	if err != nil {
		t.Fatalf("GetUserHistory() error = %v", err)
	}
	if len(page.Results) != 2 || page.Pagination.Total != 3 || !page.Pagination.HasNext {
		t.Errorf("page 1 = %d results, pagination %+v", len(page.Results), page.Pagination)
	}
	if page.Results[0].WPM != 50 {
		t.Errorf("newest result WPM = %v, want 50", page.Results[0].WPM)
	}
	if page.Results[0].TextContent == "" {
		t.Error("history entry is missing its text")
	}

	guestPage, err := env.board.GetGuestHistory(ctx, guest.ID, 1, 20)
	if err != nil {
		t.Fatalf("GetGuestHistory() error = %v", err)
	}
	if len(guestPage.Results) != 1 || guestPage.Results[0].WPM != 20 {
		t.Errorf("guest history = %+v", guestPage.Results)
	}

	if _, err := env.board.GetUserHistory(ctx, user.ID, 1, 20, "decade"); err == nil {
		t.Error("GetUserHistory() with bad timeframe succeeded")
	}
}
