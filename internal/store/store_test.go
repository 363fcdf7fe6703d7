package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"statusdeck/internal/db"
	"statusdeck/internal/domain"
	"statusdeck/internal/migrate"
	"statusdeck/internal/store"
)

func newTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.New(conn)
}

func sampleApps() []domain.Application {
	return []domain.Application{
		{
			ID:               "APP-1",
			CustomerFacingID: "REF-999",
			Statuses: map[domain.Family][]domain.StatusRecord{
				domain.FamilyCard: {{StatusCode: "APPROVED", StatusChangeTimestamp: "2024-05-20T10:20:20Z"}},
			},
			Raw: json.RawMessage(`{"productApplicationIdentifier":"APP-1","extra":{"keep":"me"}}`),
		},
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Load(ctx); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v", ok, err)
	}

	apps := sampleApps()
	if err := s.Save(ctx, apps); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].ID != "APP-1" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if got[0].Statuses[domain.FamilyCard][0].StatusCode != "APPROVED" {
		t.Fatalf("status records lost: %+v", got[0].Statuses)
	}
	if string(got[0].Raw) != string(apps[0].Raw) {
		t.Fatalf("raw subtree lost: %s", got[0].Raw)
	}
}

func TestSaveReplacesSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, sampleApps()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	second := []domain.Application{{ID: "APP-2"}}
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].ID != "APP-2" {
		t.Fatalf("snapshot not replaced: %+v", got)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear on empty store: %v", err)
	}
	if err := s.Save(ctx, sampleApps()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Fatal("snapshot survived clear")
	}
	if _, ok, _ := s.SavedAt(ctx); ok {
		t.Fatal("saved_at survived clear")
	}
}

func TestSavedAt(t *testing.T) {
	s := newTestStore(t)
	s.Now = func() time.Time { return time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	if err := s.Save(ctx, sampleApps()); err != nil {
		t.Fatalf("save: %v", err)
	}
	savedAt, ok, err := s.SavedAt(ctx)
	if err != nil || !ok {
		t.Fatalf("saved at: ok=%v err=%v", ok, err)
	}
	if savedAt != "2024-05-20T10:00:00Z" {
		t.Fatalf("saved at %q", savedAt)
	}
}

func TestIngestHistoryNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	ticks := 0
	s.Now = func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * time.Minute)
	}

	if err := s.AppendIngest(ctx, "file", 1, "PEND_REVIEW"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendIngest(ctx, "stdin", 2, ""); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendIngest(ctx, "scan", 1, "APPROVED"); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := s.RecentIngests(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("limit not applied: got %d events", len(events))
	}
	if events[0].Source != "scan" || events[1].Source != "stdin" {
		t.Fatalf("not newest first: %+v", events)
	}
	if events[0].StatusCode != "APPROVED" {
		t.Fatalf("status code: %q", events[0].StatusCode)
	}
	if events[1].StatusCode != "" {
		t.Fatalf("null status code should scan as empty, got %q", events[1].StatusCode)
	}
}
