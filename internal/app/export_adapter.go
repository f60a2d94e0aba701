package app

import (
	"context"
	"time"

	"folio/api/internal/blob"
	"folio/api/internal/export"
	"folio/api/internal/store"
)

// exportStore bridges the Postgres store into the exporter's narrower view
// of documents, collections and teams.
type exportStore struct {
	store dataStore
}

func (e exportStore) GetDocument(ctx context.Context, collectionID, documentID string) (export.DocumentInfo, error) {
	doc, err := e.store.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return export.DocumentInfo{}, err
	}
	return export.DocumentInfo{
		ID:                 doc.ID,
		Title:              doc.Title,
		Author:             doc.Author,
		Content:            doc.Content,
		BannerImage:        doc.BannerImage,
		BannerPositionPage: doc.BannerPositionPage,
		TeamID:             doc.TeamID,
		UpdatedAt:          doc.UpdatedAt,
	}, nil
}

func (e exportStore) GetCollection(ctx context.Context, collectionID string) (export.CollectionInfo, error) {
	item, err := e.store.GetCollection(ctx, collectionID)
	if err != nil {
		return export.CollectionInfo{}, err
	}
	return export.CollectionInfo{ID: item.ID, Name: item.Name}, nil
}

func (e exportStore) GetTeam(ctx context.Context, teamID string) (export.TeamInfo, error) {
	team, err := e.store.GetTeam(ctx, teamID)
	if err != nil {
		return export.TeamInfo{}, err
	}
	return export.TeamInfo{ID: team.ID, Name: team.Name}, nil
}

// NewExporter wires the PDF exporter to the store and, when object storage
// is configured, a presigned-URL banner resolver.
func NewExporter(st *store.PostgresStore, blobs *blob.Store) *export.Service {
	var resolver export.BannerResolver
	if blobs != nil {
		resolver = func(ctx context.Context, key string) (string, error) {
			return blobs.URL(ctx, key, 15*time.Minute)
		}
	}
	return export.NewService(exportStore{store: st}, resolver)
}
