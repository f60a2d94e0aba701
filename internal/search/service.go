package search

import (
	"context"
	"log"
)

// Service fronts two engines. Meilisearch serves queries when it is up;
// Postgres full-text search answers otherwise, so search keeps working on a
// bare deployment.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService builds the facade. meili may be nil when Meilisearch is not
// configured; pgfts is always required.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

func (s *Service) meiliReady() bool {
	return s.meili != nil && s.meili.Healthy()
}

// Search answers from Meilisearch when healthy and falls back to Postgres
// on any error. A failure in both engines yields an empty result set rather
// than an error; the caller cannot do anything useful with a search outage.
func (s *Service) Search(q Query) Response {
	if s.meiliReady() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexDocument pushes one record to Meilisearch in the background. The
// Postgres side needs no indexing call since FTS queries the live tables.
func (s *Service) IndexDocument(doc DocumentRecord) {
	if !s.meiliReady() {
		return
	}
	go func() {
		if err := s.meili.IndexDocument(doc); err != nil {
			log.Printf("search: index document %s: %v", doc.ID, err)
		}
	}()
}

// DeleteDocument drops one record from the Meilisearch index in the
// background.
func (s *Service) DeleteDocument(id string) {
	if !s.meiliReady() {
		return
	}
	go func() {
		if err := s.meili.DeleteDocument(id); err != nil {
			log.Printf("search: delete document %s: %v", id, err)
		}
	}()
}

// ReindexAllFromPG rebuilds the Meilisearch index from Postgres. Run at
// boot so the index catches up on writes made while Meilisearch was down.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if !s.meiliReady() || s.pgfts == nil {
		return
	}
	documents, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if err := s.meili.IndexDocuments(documents); err != nil {
		log.Printf("search: reindex documents: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
