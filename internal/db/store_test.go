package db

import (
	"errors"
	"os"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	tmpDir, _ := os.MkdirTemp("", "ytlearn-test")
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := NewStore(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// clock hands out strictly increasing timestamps one minute apart.
func clock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func TestInsertAndGetByReference(t *testing.T) {
	store := newTestStore(t)

	r := &VideoRecord{
		Reference:  "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		VideoID:    "dQw4w9WgXcQ",
		Title:      "Video dQw4w9WgXcQ",
		Channel:    "Unknown Channel",
		Transcript: "never gonna give you up",
		Summary:    "• a song",
		Keywords:   "music, 80s",
	}
	if err := store.Insert(r); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if r.ID == "" {
		t.Fatal("Expected ID to be assigned")
	}
	if r.CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be assigned")
	}

	got, err := store.GetByReference(r.Reference)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got == nil {
		t.Fatal("Expected record, got nil")
	}
	if got.Transcript != r.Transcript {
		t.Errorf("Expected transcript %q, got %q", r.Transcript, got.Transcript)
	}
	if got.VideoID != r.VideoID || got.Keywords != r.Keywords {
		t.Errorf("Unexpected record: %+v", got)
	}

	byID, err := store.Get(r.ID)
	if err != nil || byID == nil {
		t.Fatalf("Failed to get by id: %v", err)
	}
	if byID.Reference != r.Reference {
		t.Errorf("Expected reference %q, got %q", r.Reference, byID.Reference)
	}
}

func TestGetByReferenceMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetByReference("https://youtu.be/missing")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil, got %+v", got)
	}
}

func TestInsertDuplicateReference(t *testing.T) {
	store := newTestStore(t)

	first := &VideoRecord{Reference: "https://youtu.be/abc123", VideoID: "abc123", Summary: "first"}
	if err := store.Insert(first); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	second := &VideoRecord{Reference: "https://youtu.be/abc123", VideoID: "abc123", Summary: "second"}
	err := store.Insert(second)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}
	if second.ID != "" {
		t.Error("Expected rejected record to keep an empty ID")
	}

	got, _ := store.GetByReference("https://youtu.be/abc123")
	if got.Summary != "first" {
		t.Errorf("Expected first write to win, got summary %q", got.Summary)
	}

	count, _ := store.Count()
	if count != 1 {
		t.Errorf("Expected 1 record, got %d", count)
	}
}

func TestSameVideoDifferentReferences(t *testing.T) {
	store := newTestStore(t)

	for _, ref := range []string{
		"https://www.youtube.com/watch?v=abc123",
		"https://www.youtube.com/watch?v=abc123&t=5",
	} {
		if err := store.Insert(&VideoRecord{Reference: ref, VideoID: "abc123"}); err != nil {
			t.Fatalf("Failed to insert %s: %v", ref, err)
		}
	}

	count, _ := store.Count()
	if count != 2 {
		t.Errorf("Expected 2 records, got %d", count)
	}
}

func TestListOrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	store.now = clock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	for _, id := range []string{"t1", "t2", "t3"} {
		if err := store.Insert(&VideoRecord{Reference: "https://youtu.be/" + id, VideoID: id, Transcript: "long text"}); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	got, err := store.List(2)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	if got[0].VideoID != "t3" || got[1].VideoID != "t2" {
		t.Errorf("Expected [t3 t2], got [%s %s]", got[0].VideoID, got[1].VideoID)
	}
	for _, r := range got {
		if r.Transcript != "" {
			t.Errorf("Expected List to omit transcript for %s", r.VideoID)
		}
	}

	all, _ := store.List(0)
	if len(all) != 3 {
		t.Errorf("Expected default limit to return all 3 records, got %d", len(all))
	}
}

func TestSearch(t *testing.T) {
	store := newTestStore(t)
	store.now = clock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	records := []*VideoRecord{
		{Reference: "https://youtu.be/a", VideoID: "a", Title: "Attention Is All You Need", Transcript: "transformer"},
		{Reference: "https://youtu.be/b", VideoID: "b", Title: "GANs", Summary: "• generator and discriminator", Keywords: "gan, deep learning"},
		{Reference: "https://youtu.be/c", VideoID: "c", Title: "Linear models", Summary: "• TRANSFORMER comparison"},
		{Reference: "https://youtu.be/d", VideoID: "d", Title: "Cooking", Keywords: "100%_real"},
	}
	for _, r := range records {
		if err := store.Insert(r); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	t.Run("case insensitive across fields newest first", func(t *testing.T) {
		got, err := store.Search("Transformer")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		// "a" only mentions the term in its transcript, which is not searched.
		if len(got) != 1 || got[0].VideoID != "c" {
			t.Fatalf("Expected [c], got %+v", got)
		}
		if got[0].Transcript != "" {
			t.Error("Expected Search to omit transcript")
		}
	})

	t.Run("keywords", func(t *testing.T) {
		got, _ := store.Search("deep learning")
		if len(got) != 1 || got[0].VideoID != "b" {
			t.Fatalf("Expected [b], got %+v", got)
		}
	})

	t.Run("order", func(t *testing.T) {
		got, _ := store.Search("a")
		var ids []string
		for _, r := range got {
			ids = append(ids, r.VideoID)
		}
		want := []string{"d", "c", "b", "a"}
		if len(ids) != len(want) {
			t.Fatalf("Expected %v, got %v", want, ids)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Fatalf("Expected %v, got %v", want, ids)
			}
		}
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		got, _ := store.Search("%_")
		if len(got) != 1 || got[0].VideoID != "d" {
			t.Fatalf("Expected [d], got %+v", got)
		}
	})

	t.Run("no match is empty not error", func(t *testing.T) {
		got, err := store.Search("kubernetes")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("Expected empty slice, got %#v", got)
		}
	})
}
