package store

import (
	"testing"
	"time"
)

func orderOf(v int64) *int64 {
	return &v
}

func TestSortCollectionsExplicitOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Collection{
		{ID: "b", SortOrder: orderOf(1), CreatedAt: base},
		{ID: "c", SortOrder: orderOf(2), CreatedAt: base},
		{ID: "a", SortOrder: orderOf(0), CreatedAt: base},
	}
	SortCollections(items)
	for i, want := range []string{"a", "b", "c"} {
		if items[i].ID != want {
			t.Fatalf("position %d = %s, want %s", i, items[i].ID, want)
		}
	}
}

func TestSortCollectionsToleratesGapsAndDuplicates(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Collection{
		{ID: "dup-new", SortOrder: orderOf(5), CreatedAt: base.Add(time.Hour)},
		{ID: "gap", SortOrder: orderOf(900), CreatedAt: base},
		{ID: "dup-old", SortOrder: orderOf(5), CreatedAt: base},
	}
	SortCollections(items)
	// Duplicate orders break ties by recency; gaps are fine.
	for i, want := range []string{"dup-new", "dup-old", "gap"} {
		if items[i].ID != want {
			t.Fatalf("position %d = %s, want %s", i, items[i].ID, want)
		}
	}
}

func TestSortCollectionsLegacyRowsFallBackToCreation(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Collection{
		{ID: "old", CreatedAt: base},
		{ID: "new", CreatedAt: base.Add(time.Hour)},
		{ID: "mid", CreatedAt: base.Add(30 * time.Minute)},
	}
	SortCollections(items)
	// Without explicit orders the list is creation time, newest first.
	for i, want := range []string{"new", "mid", "old"} {
		if items[i].ID != want {
			t.Fatalf("position %d = %s, want %s", i, items[i].ID, want)
		}
	}
}

func TestSortCollectionsMixedExplicitAndLegacy(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Collection{
		{ID: "legacy", CreatedAt: base.Add(time.Hour)},
		{ID: "ordered", SortOrder: orderOf(0), CreatedAt: base},
	}
	SortCollections(items)
	// Dense reorder values are tiny next to unix-millis fallbacks, so
	// explicitly ordered rows sort ahead of legacy rows.
	if items[0].ID != "ordered" || items[1].ID != "legacy" {
		t.Fatalf("got order %s, %s; want ordered, legacy", items[0].ID, items[1].ID)
	}
}
