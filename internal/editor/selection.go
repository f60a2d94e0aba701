package editor

// Selection is the navigation context: the team, collection, and document
// the user is looking at. It only changes through ReduceSelection, which
// keeps the clearing rules in one place.
type Selection struct {
	TeamID       string
	CollectionID string
	DocumentID   string
}

// SelectionEvent is an input to ReduceSelection.
type SelectionEvent interface {
	isSelectionEvent()
}

// TeamChanged switches the active team. A different team clears the
// collection and document selection, which belonged to the old team.
type TeamChanged struct {
	TeamID string
}

// CollectionOpened selects a collection and clears any open document.
type CollectionOpened struct {
	CollectionID string
}

// DocumentOpened selects a document within the current collection.
type DocumentOpened struct {
	DocumentID string
}

// CollectionResolved reports the owning team of the selected collection,
// typically learned from a fresh read. A team mismatch means the selection
// is stale and must be cleared, never rendered.
type CollectionResolved struct {
	CollectionID string
	TeamID       string
}

// CollectionGone reports that the selected collection no longer exists.
type CollectionGone struct {
	CollectionID string
}

func (TeamChanged) isSelectionEvent()        {}
func (CollectionOpened) isSelectionEvent()   {}
func (DocumentOpened) isSelectionEvent()     {}
func (CollectionResolved) isSelectionEvent() {}
func (CollectionGone) isSelectionEvent()     {}

// ReduceSelection applies one event to a selection. Pure: no I/O, no
// hidden state, same inputs always give the same output.
func ReduceSelection(s Selection, ev SelectionEvent) Selection {
	switch e := ev.(type) {
	case TeamChanged:
		if e.TeamID != s.TeamID {
			s = Selection{TeamID: e.TeamID}
		}
	case CollectionOpened:
		s.CollectionID = e.CollectionID
		s.DocumentID = ""
	case DocumentOpened:
		s.DocumentID = e.DocumentID
	case CollectionResolved:
		if e.CollectionID == s.CollectionID && e.TeamID != s.TeamID {
			s.CollectionID = ""
			s.DocumentID = ""
		}
	case CollectionGone:
		if e.CollectionID == s.CollectionID {
			s.CollectionID = ""
			s.DocumentID = ""
		}
	}
	return s
}
