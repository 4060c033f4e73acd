package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"typeracer/internal/database"
	"typeracer/internal/models"
)

func TestSweepRun(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	idle := env.createGuest(t)
	active := env.createGuest(t)
	env.takeTest(t, Identity{GuestSessionID: active.ID}, 40)

	// An issued session that is never consumed.
	if _, err := env.sessions.Issue(ctx, models.GuestOwner(idle.ID), 1, 30, testFingerprint); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	report, err := env.sweep.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report != (SweepReport{}) {
		t.Errorf("first Run() = %+v, want nothing swept", report)
	}

	env.sweep.now = func() time.Time { return database.Now().Add(100 * 24 * time.Hour) }

	report, err = env.sweep.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := SweepReport{ExpiredSessions: 1, RetiredGuests: 2, DeletedGuests: 1}
	if report != want {
		t.Errorf("Run() = %+v, want %+v", report, want)
	}

	if got := testutil.ToFloat64(env.metrics.SweepRows.WithLabelValues("guests_retired")); got != 2 {
		t.Errorf("guests_retired metric = %v, want 2", got)
	}

	// The guest with a result survives as a retired row.
	if got, _ := env.guests.Resolve(ctx, active.GuestID); got != nil {
		t.Errorf("Resolve(retired guest) = %+v, want nil", got)
	}
	history, err := env.board.GetGuestHistory(ctx, active.ID, 1, 10)
	if err != nil || history.Pagination.Total != 1 {
		t.Errorf("guest history after sweep = %+v, %v", history, err)
	}
}
