package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet"`
	CollectionID string `json:"collectionId"`
	TeamID       string `json:"teamId"`
}

// Query describes a search request. TeamID scopes every search; an empty
// CollectionID searches the whole team.
type Query struct {
	Text         string
	TeamID       string
	CollectionID string
	Limit        int
	Offset       int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push documents into a search index.
type Indexer interface {
	IndexDocument(doc DocumentRecord) error
	DeleteDocument(id string) error
}

// DocumentRecord is the data we index for a document.
type DocumentRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	CollectionID string `json:"collectionId"`
	TeamID       string `json:"teamId"`
}
