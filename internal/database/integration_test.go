package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openMigrated(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(filepath.Join(t.TempDir(), "integration.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	tables := []string{"users", "test_texts", "guest_sessions", "test_sessions", "test_results", "refresh_tokens"}
	for _, table := range tables {
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		var name string
		if err := db.QueryRowContext(ctx, query, table).Scan(&name); err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running again is a no-op
	if err := db.RunMigrations(ctx); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

func TestOwnerCheckConstraint(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()
	now := time.Now().UTC()

	userID, err := db.ExecReturningID(ctx,
		"INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)", "typist", "t@example.com", "x")
	if err != nil {
		t.Fatalf("Failed to insert user: %v", err)
	}
	guestID, err := db.ExecReturningID(ctx,
		"INSERT INTO guest_sessions (guest_id, created_at, last_seen_at) VALUES (?, ?, ?)", "g-1", now, now)
	if err != nil {
		t.Fatalf("Failed to insert guest: %v", err)
	}
	textID, err := db.ExecReturningID(ctx,
		"INSERT INTO test_texts (content, word_count) VALUES (?, ?)", "hello world", 2)
	if err != nil {
		t.Fatalf("Failed to insert text: %v", err)
	}

	insert := `INSERT INTO test_sessions (token_hash, user_id, guest_session_id, test_text_id, duration_seconds, issued_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	tests := []struct {
		name    string
		userID  interface{}
		guestID interface{}
		wantErr bool
	}{
		{name: "user only", userID: userID, guestID: nil},
		{name: "guest only", userID: nil, guestID: guestID},
		{name: "both owners", userID: userID, guestID: guestID, wantErr: true},
		{name: "no owner", userID: nil, guestID: nil, wantErr: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := string(rune('a' + i))
			_, err := db.ExecContext(ctx, insert, hash, tt.userID, tt.guestID, textID, 60, now, now.Add(time.Minute))
			if (err != nil) != tt.wantErr {
				t.Errorf("insert error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestWithTx tests commit and rollback through the transaction helper
func TestWithTx(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	insert := "INSERT INTO test_texts (content, word_count) VALUES (?, ?)"

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecReturningID(ctx, insert, "committed", 1)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, insert, "rolled back", 2); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM test_texts").Scan(&count); err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 text after rollback, got %d", count)
	}
}

// TestConcurrentAccess tests concurrent writers on the WAL database
func TestConcurrentAccess(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			errs <- db.WithTx(ctx, func(tx *Tx) error {
				_, err := tx.ExecContext(ctx, "INSERT INTO test_texts (content, word_count) VALUES (?, ?)", "concurrent", 1)
				return err
			})
		}()
	}
	for i := 0; i < 10; i++ {
		if err := <-errs; err != nil {
			t.Errorf("Concurrent write failed: %v", err)
		}
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM test_texts").Scan(&count); err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 10 {
		t.Errorf("Expected 10 texts, got %d", count)
	}
}
