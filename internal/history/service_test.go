package history

import (
	"testing"
)

func TestEnsureDocumentRepoIsIdempotent(t *testing.T) {
	svc := New(t.TempDir())
	initial := Snapshot{Title: "Launch plan", Content: "<p>draft</p>"}

	if err := svc.EnsureDocumentRepo("doc-1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}
	if err := svc.EnsureDocumentRepo("doc-1", Snapshot{Title: "other"}, "Avery"); err != nil {
		t.Fatalf("second EnsureDocumentRepo() error = %v", err)
	}

	snap, info, err := svc.Head("doc-1")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if snap != initial {
		t.Fatalf("head snapshot = %+v, want baseline %+v", snap, initial)
	}
	if info.Author != "Avery" {
		t.Fatalf("head author = %q", info.Author)
	}
}

func TestCommitSnapshotAdvancesHistory(t *testing.T) {
	svc := New(t.TempDir())
	if err := svc.EnsureDocumentRepo("doc-1", Snapshot{Title: "Doc", Content: "<p>v1</p>"}, "Avery"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}

	info, err := svc.CommitSnapshot("doc-1", Snapshot{Title: "Doc", Content: "<p>v2</p>"}, "Avery", "Autosave snapshot")
	if err != nil {
		t.Fatalf("CommitSnapshot() error = %v", err)
	}
	if info.Hash == "" {
		t.Fatal("commit hash empty")
	}

	items, err := svc.History("doc-1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("history length = %d, want 2", len(items))
	}
	if items[0].Hash != info.Hash {
		t.Fatalf("newest commit = %q, want %q", items[0].Hash, info.Hash)
	}

	snap, _, err := svc.Head("doc-1")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if snap.Content != "<p>v2</p>" {
		t.Fatalf("head content = %q", snap.Content)
	}
}

func TestCommitSnapshotSkipsIdenticalContent(t *testing.T) {
	svc := New(t.TempDir())
	snap := Snapshot{Title: "Doc", Content: "<p>same</p>"}
	if err := svc.EnsureDocumentRepo("doc-1", snap, "Avery"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}

	if _, err := svc.CommitSnapshot("doc-1", snap, "Avery", "Autosave snapshot"); err != nil {
		t.Fatalf("CommitSnapshot() on identical content error = %v", err)
	}

	items, err := svc.History("doc-1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("history length = %d, want 1 (no empty commit)", len(items))
	}
}

func TestGetSnapshotByHash(t *testing.T) {
	svc := New(t.TempDir())
	if err := svc.EnsureDocumentRepo("doc-1", Snapshot{Title: "Doc", Content: "<p>v1</p>"}, "Avery"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}
	if _, err := svc.CommitSnapshot("doc-1", Snapshot{Title: "Doc", Content: "<p>v2</p>"}, "Avery", "Autosave snapshot"); err != nil {
		t.Fatalf("CommitSnapshot() error = %v", err)
	}

	items, err := svc.History("doc-1", 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	old := items[len(items)-1]

	snap, err := svc.GetSnapshot("doc-1", old.Hash)
	if err != nil {
		t.Fatalf("GetSnapshot(%q) error = %v", old.Hash, err)
	}
	if snap.Content != "<p>v1</p>" {
		t.Fatalf("snapshot content = %q, want v1", snap.Content)
	}
}

func TestHistoryLimit(t *testing.T) {
	svc := New(t.TempDir())
	if err := svc.EnsureDocumentRepo("doc-1", Snapshot{Title: "Doc", Content: "v0"}, "Avery"); err != nil {
		t.Fatalf("EnsureDocumentRepo() error = %v", err)
	}
	for _, v := range []string{"v1", "v2", "v3"} {
		if _, err := svc.CommitSnapshot("doc-1", Snapshot{Title: "Doc", Content: v}, "Avery", "Autosave snapshot"); err != nil {
			t.Fatalf("CommitSnapshot(%s) error = %v", v, err)
		}
	}

	items, err := svc.History("doc-1", 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("history length = %d, want 2", len(items))
	}
}
