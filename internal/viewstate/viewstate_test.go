package viewstate

import (
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCollapsedRoundTrip(t *testing.T) {
	db := openTemp(t)

	if err := db.SetCollapsed("/a/todos.json", "Work", true); err != nil {
		t.Fatal(err)
	}
	if err := db.SetCollapsed("/a/todos.json", "Home", true); err != nil {
		t.Fatal(err)
	}
	if err := db.SetCollapsed("/a/todos.json", "Home", false); err != nil {
		t.Fatal(err)
	}

	got, err := db.Collapsed("/a/todos.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || !got["Work"] {
		t.Fatalf("Collapsed = %v, want {Work}", got)
	}
}

func TestSetCollapsedIsIdempotent(t *testing.T) {
	db := openTemp(t)
	for i := 0; i < 3; i++ {
		if err := db.SetCollapsed("/a", "Work", true); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.Collapsed("/a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("Collapsed = %v", got)
	}
}

func TestReplaceCollapsed(t *testing.T) {
	db := openTemp(t)
	if err := db.SetCollapsed("/a", "Old", true); err != nil {
		t.Fatal(err)
	}

	if err := db.ReplaceCollapsed("/a", map[string]bool{
		"Work": true,
		"Home": true,
		"Skip": false,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := db.Collapsed("/a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got["Work"] || !got["Home"] {
		t.Fatalf("Collapsed = %v, want {Work, Home}", got)
	}

	if err := db.ReplaceCollapsed("/a", nil); err != nil {
		t.Fatal(err)
	}
	got, _ = db.Collapsed("/a")
	if len(got) != 0 {
		t.Fatalf("expand-all left %v", got)
	}
}

func TestHideDoneDefaultsFalse(t *testing.T) {
	db := openTemp(t)
	hide, err := db.HideDone("/a")
	if err != nil {
		t.Fatal(err)
	}
	if hide {
		t.Fatal("default should be false")
	}
}

func TestHideDoneRoundTrip(t *testing.T) {
	db := openTemp(t)
	if err := db.SetHideDone("/a", true); err != nil {
		t.Fatal(err)
	}
	if err := db.SetHideDone("/a", true); err != nil {
		t.Fatal(err) // upsert path
	}
	hide, err := db.HideDone("/a")
	if err != nil || !hide {
		t.Fatalf("HideDone = %t, %v", hide, err)
	}

	if err := db.SetHideDone("/a", false); err != nil {
		t.Fatal(err)
	}
	hide, _ = db.HideDone("/a")
	if hide {
		t.Fatal("expected false after reset")
	}
}

func TestListsAreIsolated(t *testing.T) {
	db := openTemp(t)
	if err := db.SetCollapsed("/a", "Work", true); err != nil {
		t.Fatal(err)
	}
	if err := db.SetHideDone("/a", true); err != nil {
		t.Fatal(err)
	}

	got, err := db.Collapsed("/b")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("list /b sees /a's collapse state: %v", got)
	}
	hide, err := db.HideDone("/b")
	if err != nil || hide {
		t.Fatalf("list /b sees /a's hide flag")
	}
}
