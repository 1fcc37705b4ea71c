package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bborn/tydo/internal/task"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "todos.json"))
}

func TestReadMissingFile(t *testing.T) {
	s := tempStore(t)
	list, err := s.Read()
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d tasks", len(list))
	}
}

func TestReadEmptyFile(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path(), []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	list, err := s.Read()
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v, %v", list, err)
	}
}

func TestRoundTrip(t *testing.T) {
	s := tempStore(t)
	in := task.List{
		{ID: "1", Text: "!! Work: Ship release", Done: false},
		{ID: "2", Text: "Home: Buy milk", Done: true},
		{ID: "3", Text: "loose end"},
	}
	if err := s.Write(in); err != nil {
		t.Fatal(err)
	}

	out, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !out.Equal(in) {
		t.Fatalf("round trip mismatch: %v != %v", out, in)
	}
}

func TestUnknownFieldsSurviveRewrite(t *testing.T) {
	s := tempStore(t)
	content := `[
  {"id": "1", "task": "Work: A", "done": false, "due": "2026-09-01", "tags": ["a", "b"]}
]`
	if err := os.WriteFile(s.Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	list[0].Done = true
	if err := s.Write(list); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatal(err)
	}
	if string(records[0]["due"]) != `"2026-09-01"` {
		t.Fatalf("due field dropped: %s", data)
	}
	if _, ok := records[0]["tags"]; !ok {
		t.Fatalf("tags field dropped: %s", data)
	}
	if string(records[0]["done"]) != "true" {
		t.Fatalf("done edit lost: %s", data)
	}
}

func TestMalformedRecordsSkipped(t *testing.T) {
	s := tempStore(t)
	content := `[
  {"id": "1", "task": "keep me"},
  {"task": "no id"},
  {"id": "3"},
  {"id": 4, "task": "numeric id"},
  {"id": "5", "task": "also kept", "done": true}
]`
	if err := os.WriteFile(s.Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "1" || list[1].ID != "5" {
		t.Fatalf("expected records 1 and 5, got %v", list)
	}
	if !list[1].Done {
		t.Fatal("done flag lost")
	}
}

func TestTruncatedFileIsAnError(t *testing.T) {
	s := tempStore(t)
	if err := os.WriteFile(s.Path(), []byte(`[{"id": "1", "ta`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(); err == nil {
		t.Fatal("truncated file should surface an error for retry")
	}
}

func TestEmptyTextNeverPersisted(t *testing.T) {
	s := tempStore(t)
	in := task.List{
		{ID: "1", Text: ""},
		{ID: "2", Text: "real"},
	}
	if err := s.Write(in); err != nil {
		t.Fatal(err)
	}
	out, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "2" {
		t.Fatalf("expected only the real task, got %v", out)
	}
}

func TestDefaultDoneOmittedRecordsParse(t *testing.T) {
	s := tempStore(t)
	content := `[{"id": "1", "task": "no done field"}]`
	if err := os.WriteFile(s.Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	list, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Done {
		t.Fatalf("expected done=false default, got %v", list)
	}
}

// TestConcurrentReadersSeeWholeFiles hammers the store with writes of two
// distinct lists while readers parse continuously; every successful read
// must equal one of the two lists, never a blend or a partial file.
func TestConcurrentReadersSeeWholeFiles(t *testing.T) {
	s := tempStore(t)

	old := task.List{{ID: "old", Text: strings.Repeat("aaaa ", 2000)}}
	new_ := task.List{{ID: "new", Text: strings.Repeat("bbbb ", 2000)}}
	if err := s.Write(old); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			var err error
			if i%2 == 0 {
				err = s.Write(new_)
			} else {
				err = s.Write(old)
			}
			if err != nil {
				t.Errorf("write: %v", err)
				return
			}
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
		}
		list, err := s.Read()
		if err != nil {
			t.Fatalf("reader observed a broken file: %v", err)
		}
		if !list.Equal(old) && !list.Equal(new_) {
			t.Fatalf("reader observed a blended file: %v", list)
		}
	}
}

func TestModTime(t *testing.T) {
	s := tempStore(t)
	if !s.ModTime().IsZero() {
		t.Fatal("missing file should report zero mod time")
	}
	if err := s.Write(task.List{{ID: "1", Text: "x"}}); err != nil {
		t.Fatal(err)
	}
	if s.ModTime().IsZero() {
		t.Fatal("expected non-zero mod time after write")
	}
}
