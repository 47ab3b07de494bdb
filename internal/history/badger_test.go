package history

import (
	"testing"
	"time"
)

func TestBadgerStore(t *testing.T) {
	store, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	defer store.Close()

	now := time.Now().Unix()
	err = store.Save([]Record{
		{SessionID: "s1", Category: 1, Rank: 1, Timestamp: now - 8*24*3600},
		{SessionID: "s1", Category: 2, Rank: 1, Timestamp: now - 3600},
		{SessionID: "s1", Category: 3, Rank: 2, Timestamp: now - 3600},
		{SessionID: "s10", Category: 4, Rank: 1},
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Recent("s1", 30)
	if err != nil {
		t.Fatal(err)
	}
	// s10 不应匹配 s1 的前缀
	if len(got) != 3 {
		t.Fatalf("expected 3 records for s1, got %+v", got)
	}
	if got[0].Category != 1 || got[2].Category != 3 {
		t.Errorf("records not in time order: %+v", got)
	}

	if err := store.Cleanup(7); err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	got, _ = store.Recent("s1", 30)
	if len(got) != 2 {
		t.Errorf("expected 2 records after cleanup, got %d", len(got))
	}
	other, _ := store.Recent("s10", 1)
	if len(other) != 1 || other[0].Timestamp == 0 {
		t.Errorf("unexpected s10 records %+v", other)
	}
}

func TestOpenBackend(t *testing.T) {
	b, err := Open("file", t.TempDir()+"/h.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*FileStore); !ok {
		t.Errorf("expected FileStore, got %T", b)
	}
	b.Close()

	b, err = Open("badger", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.(*BadgerStore); !ok {
		t.Errorf("expected BadgerStore, got %T", b)
	}
	b.Close()

	if _, err := Open("redis", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}
