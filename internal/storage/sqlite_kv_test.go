package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer kv.Close()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := kv.Set(ctx, TasksKey, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := kv.Get(ctx, TasksKey)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(value) != `[{"id":"1"}]` {
		t.Fatalf("unexpected value: %s", value)
	}

	// Set replaces the whole slot.
	if err := kv.Set(ctx, TasksKey, []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, _ = kv.Get(ctx, TasksKey)
	if string(value) != `[]` {
		t.Fatalf("overwrite did not replace slot: %s", value)
	}

	if err := kv.Remove(ctx, TasksKey); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, TasksKey); ok {
		t.Fatal("expected key removed")
	}
}

func TestSQLiteKVPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	kv, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := kv.Set(ctx, PendingChangesKey, []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer reopened.Close()
	_, ok, err := reopened.Get(ctx, PendingChangesKey)
	if err != nil || !ok {
		t.Fatalf("expected durable value after reopen, ok=%v err=%v", ok, err)
	}
}
