package storage

import (
	"testing"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadger(InMemoryConfig())
	if err != nil {
		t.Fatalf("OpenBadger failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put("k1", []byte("v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	val, err := s.Get("k1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(val) != "v1" {
		t.Errorf("expected v1, got %s", val)
	}

	if err := s.Delete("k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get("k1"); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Get("nope"); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestGetByPrefix(t *testing.T) {
	s := openTestStore(t)

	pairs := map[string]string{
		"nova-memory":   "a",
		"nova-patterns": "b",
		"sage-memory":   "c",
	}
	for k, v := range pairs {
		if err := s.Put(k, []byte(v)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	result, err := s.GetByPrefix("nova-")
	if err != nil {
		t.Fatalf("GetByPrefix failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("expected 2 keys under nova-, got %d", len(result))
	}
	if string(result["nova-memory"]) != "a" {
		t.Errorf("unexpected value: %s", result["nova-memory"])
	}
}

func TestObjectRoundtrip(t *testing.T) {
	s := openTestStore(t)

	type doc struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}
	in := doc{Name: "nova", Score: 0.8}
	if err := s.PutObject("doc1", in); err != nil {
		t.Fatalf("PutObject failed: %v", err)
	}

	var out doc
	if err := s.GetObject("doc1", &out); err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	if out != in {
		t.Errorf("expected %+v, got %+v", in, out)
	}

	if err := s.GetObject("missing", &out); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestDocKeys(t *testing.T) {
	if got := MemoryDocKey("nova"); got != "nova-memory" {
		t.Errorf("unexpected memory key %q", got)
	}
	if got := PatternsDocKey("nova"); got != "nova-patterns" {
		t.Errorf("unexpected patterns key %q", got)
	}
}
