package store

import (
	"context"
	"testing"
	"time"
)

func newMemStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newMemStore(t)
	ctx := context.Background()

	rec := Record{
		Name:       "worker",
		PID:        4321,
		StartUnix:  1700000000,
		LastStatus: "started",
		UpdatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := s.Record(ctx, rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := s.GetByName(ctx, "worker")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PID != rec.PID || got.StartUnix != rec.StartUnix || got.LastStatus != rec.LastStatus {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSQLiteUpsert(t *testing.T) {
	s := newMemStore(t)
	ctx := context.Background()

	first := Record{Name: "worker", PID: 100, StartUnix: 10, LastStatus: "started", UpdatedAt: time.Now().UTC()}
	second := Record{Name: "worker", PID: 200, StartUnix: 20, LastStatus: "stopped", UpdatedAt: time.Now().UTC()}
	if err := s.Record(ctx, first); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := s.Record(ctx, second); err != nil {
		t.Fatalf("second: %v", err)
	}
	got, err := s.GetByName(ctx, "worker")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PID != 200 || got.LastStatus != "stopped" {
		t.Fatalf("upsert lost update: %+v", got)
	}
}

func TestSQLiteNotFoundAndDelete(t *testing.T) {
	s := newMemStore(t)
	ctx := context.Background()

	if _, err := s.GetByName(ctx, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	rec := Record{Name: "monitor", PID: 1, LastStatus: "started", UpdatedAt: time.Now().UTC()}
	if err := s.Record(ctx, rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Delete(ctx, "monitor"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetByName(ctx, "monitor"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFactory(t *testing.T) {
	s, err := CreateStore(Config{}) // empty type defaults to sqlite in-memory
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = s.Close()

	if _, err := CreateStore(Config{Type: "etcd"}); err == nil {
		t.Fatalf("unsupported type must fail")
	}

	types := SupportedTypes()
	found := map[string]bool{}
	for _, tp := range types {
		found[tp] = true
	}
	if !found["sqlite"] || !found["postgres"] {
		t.Fatalf("missing builders: %v", types)
	}
}
