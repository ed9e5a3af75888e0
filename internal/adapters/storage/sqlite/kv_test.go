package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/hylla/rewind/internal/history"
	"github.com/hylla/rewind/internal/storage"
)

func TestKV_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rewind.db")
	kv, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = kv.Close()
	})

	if _, ok, err := kv.GetItem("missing"); err != nil || ok {
		t.Fatalf("GetItem(missing) = ok %v, err %v, want miss", ok, err)
	}

	if err := kv.SetItem("state", `{"version":2}`); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	value, ok, err := kv.GetItem("state")
	if err != nil || !ok {
		t.Fatalf("GetItem(state) = ok %v, err %v, want hit", ok, err)
	}
	if value != `{"version":2}` {
		t.Fatalf("GetItem(state) = %q", value)
	}

	if err := kv.SetItem("state", `{"version":2,"capacity":8}`); err != nil {
		t.Fatalf("SetItem() upsert error = %v", err)
	}
	value, _, err = kv.GetItem("state")
	if err != nil {
		t.Fatalf("GetItem() after upsert error = %v", err)
	}
	if value != `{"version":2,"capacity":8}` {
		t.Fatalf("GetItem() after upsert = %q", value)
	}

	if err := kv.RemoveItem("state"); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if _, ok, _ := kv.GetItem("state"); ok {
		t.Fatal("GetItem() after remove still reports a hit")
	}
	if err := kv.RemoveItem("state"); err != nil {
		t.Fatalf("RemoveItem() of missing name error = %v", err)
	}
}

func TestKV_SurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rewind.db")
	kv, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := kv.SetItem("state", "persisted"); err != nil {
		t.Fatalf("SetItem() error = %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() reopen error = %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	value, ok, err := reopened.GetItem("state")
	if err != nil || !ok || value != "persisted" {
		t.Fatalf("GetItem() after reopen = %q, ok %v, err %v", value, ok, err)
	}
}

func TestKV_BacksHistoryEngine(t *testing.T) {
	kv, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = kv.Close()
	})
	store := storage.NewAdapter(kv, nil)

	eng := history.New(store, history.WithCapacity(3))
	eng.SetCapacity(4)

	revived := history.New(store)
	if revived.Capacity() != 4 {
		t.Fatalf("rehydrated capacity = %d, want 4", revived.Capacity())
	}
}
