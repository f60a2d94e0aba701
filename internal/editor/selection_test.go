package editor

import "testing"

func TestReduceSelection(t *testing.T) {
	tests := []struct {
		name  string
		start Selection
		event SelectionEvent
		want  Selection
	}{
		{
			name:  "team change clears collection and document",
			start: Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"},
			event: TeamChanged{TeamID: "team-2"},
			want:  Selection{TeamID: "team-2"},
		},
		{
			name:  "same team keeps selection",
			start: Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"},
			event: TeamChanged{TeamID: "team-1"},
			want:  Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"},
		},
		{
			name:  "opening a collection clears the document",
			start: Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"},
			event: CollectionOpened{CollectionID: "col-2"},
			want:  Selection{TeamID: "team-1", CollectionID: "col-2"},
		},
		{
			name:  "opening a document",
			start: Selection{TeamID: "team-1", CollectionID: "col-1"},
			event: DocumentOpened{DocumentID: "doc-9"},
			want:  Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-9"},
		},
		{
			name:  "stale collection from another team is cleared",
			start: Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"},
			event: CollectionResolved{CollectionID: "col-1", TeamID: "team-2"},
			want:  Selection{TeamID: "team-1"},
		},
		{
			name:  "resolution for a different collection is ignored",
			start: Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"},
			event: CollectionResolved{CollectionID: "col-9", TeamID: "team-2"},
			want:  Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"},
		},
		{
			name:  "matching resolution keeps selection",
			start: Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"},
			event: CollectionResolved{CollectionID: "col-1", TeamID: "team-1"},
			want:  Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"},
		},
		{
			name:  "deleted collection clears selection",
			start: Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"},
			event: CollectionGone{CollectionID: "col-1"},
			want:  Selection{TeamID: "team-1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReduceSelection(tt.start, tt.event); got != tt.want {
				t.Fatalf("ReduceSelection() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReduceSelectionIsPure(t *testing.T) {
	start := Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"}
	ReduceSelection(start, TeamChanged{TeamID: "team-2"})
	if start != (Selection{TeamID: "team-1", CollectionID: "col-1", DocumentID: "doc-1"}) {
		t.Fatal("input selection was mutated")
	}
}
