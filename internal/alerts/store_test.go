package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"crowsnest/internal/threat"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db), mock
}

func sampleAlert() threat.Alert {
	return threat.Alert{
		ID:          "3f1b2a10-0000-4000-8000-000000000001",
		Platform:    threat.PlatformTwitter,
		Author:      "@anonymous_user_123",
		Content:     "I will kill you",
		URL:         "https://twitter.com/status/1",
		Timestamp:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Score:       0.82,
		ThreatLevel: threat.LevelHigh,
		Reason:      "Toxic content detected: threatening phrases: i will kill",
		AIAnalysis:  "Direct threat of violence",
	}
}

func TestSQLStore_Insert(t *testing.T) {
	store, mock := newMockStore(t)
	alert := sampleAlert()

	mock.ExpectQuery(`INSERT INTO crowsnest\.threat_alerts`).
		WithArgs(alert.ID, "Twitter", alert.Author, alert.Content, alert.URL,
			alert.Timestamp, alert.Score, "high", alert.Reason, alert.AIAnalysis).
		WillReturnRows(sqlmock.NewRows([]string{"detected_at"}).AddRow(alert.Timestamp))

	saved, err := store.Insert(context.Background(), alert)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if saved.ID != alert.ID {
		t.Fatalf("unexpected id: %s", saved.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	alert := sampleAlert()

	rows := sqlmock.NewRows([]string{
		"id", "platform", "author", "content", "url", "detected_at",
		"score", "threat_level", "reason", "ai_analysis",
	}).AddRow(alert.ID, "Twitter", alert.Author, alert.Content, alert.URL,
		alert.Timestamp, alert.Score, "high", alert.Reason, alert.AIAnalysis)

	mock.ExpectQuery(`SELECT id, platform, author, content, url, detected_at, score, threat_level, reason, ai_analysis\s+FROM crowsnest\.threat_alerts\s+ORDER BY detected_at DESC`).
		WithArgs(50).
		WillReturnRows(rows)

	got, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(got))
	}
	if got[0].Platform != threat.PlatformTwitter || got[0].ThreatLevel != threat.LevelHigh {
		t.Fatalf("unexpected alert: %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSQLStore_ExistsForPost(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("Twitter", "https://twitter.com/status/1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.ExistsForPost(context.Background(), threat.PlatformTwitter, "https://twitter.com/status/1")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
}

func TestSQLStore_Clear(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM crowsnest\.threat_alerts`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.Clear(context.Background())
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted, got %d", n)
	}
}

func TestSQLStore_ClearRowsAffectedError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM crowsnest\.threat_alerts`).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver does not report rows affected")))

	if _, err := store.Clear(context.Background()); err == nil {
		t.Fatal("expected error when the deleted count is unavailable")
	}
}

func TestSQLStore_NilDB(t *testing.T) {
	store := NewSQLStore(nil)
	if _, err := store.Insert(context.Background(), sampleAlert()); err == nil {
		t.Fatal("expected error for nil db")
	}
	if _, err := store.Count(context.Background()); err == nil {
		t.Fatal("expected error for nil db")
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a1 := sampleAlert()
	a2 := sampleAlert()
	a2.ID = "3f1b2a10-0000-4000-8000-000000000002"
	a2.URL = "https://twitter.com/status/2"
	a2.Timestamp = a1.Timestamp.Add(time.Hour)

	for _, a := range []threat.Alert{a1, a2} {
		if _, err := store.Insert(ctx, a); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(got))
	}
	if got[0].ID != a2.ID {
		t.Fatalf("expected newest first, got %s", got[0].ID)
	}

	recent, err := store.ListSince(ctx, a1.Timestamp.Add(time.Minute))
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != a2.ID {
		t.Fatalf("unexpected recent alerts: %+v", recent)
	}

	exists, _ := store.ExistsForPost(ctx, threat.PlatformTwitter, a1.URL)
	if !exists {
		t.Fatal("expected dedup hit for existing platform+url")
	}
	exists, _ = store.ExistsForPost(ctx, threat.PlatformFacebook, a1.URL)
	if exists {
		t.Fatal("platform must participate in the dedup key")
	}

	n, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 cleared, got %d", n)
	}
	if count, _ := store.Count(ctx); count != 0 {
		t.Fatalf("expected empty store, got %d", count)
	}
}
