package export

import (
	"context"
	"fmt"
	"html/template"
	"time"
)

// DataStore defines the data the exporter needs.
type DataStore interface {
	GetDocument(ctx context.Context, collectionID, documentID string) (DocumentInfo, error)
	GetCollection(ctx context.Context, collectionID string) (CollectionInfo, error)
	GetTeam(ctx context.Context, teamID string) (TeamInfo, error)
}

// BannerResolver turns a stored banner image key into a fetchable URL.
// May be nil when no object store is configured.
type BannerResolver func(ctx context.Context, key string) (string, error)

// DocumentInfo holds document data for export
type DocumentInfo struct {
	ID                 string
	Title              string
	Author             string
	Content            string // rich-text HTML
	BannerImage        string
	BannerPositionPage string
	TeamID             string
	UpdatedAt          time.Time
}

// CollectionInfo holds collection metadata
type CollectionInfo struct {
	ID   string
	Name string
}

// TeamInfo holds team metadata
type TeamInfo struct {
	ID   string
	Name string
}

// Service provides document export functionality
type Service struct {
	store   DataStore
	banners BannerResolver
}

// NewService creates a new export service
func NewService(store DataStore, banners BannerResolver) *Service {
	return &Service{store: store, banners: banners}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	docInfo, err := s.store.GetDocument(ctx, req.CollectionID, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	collectionInfo, err := s.store.GetCollection(ctx, req.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}

	data := TemplateData{
		Title:          docInfo.Title,
		Author:         docInfo.Author,
		CollectionName: collectionInfo.Name,
		UpdatedAt:      docInfo.UpdatedAt,
		BannerPosition: docInfo.BannerPositionPage,
		ContentHTML:    template.HTML(docInfo.Content),
	}

	if docInfo.TeamID != "" {
		teamInfo, err := s.store.GetTeam(ctx, docInfo.TeamID)
		if err == nil {
			data.TeamName = teamInfo.Name
		}
	}

	if docInfo.BannerImage != "" && s.banners != nil {
		url, err := s.banners(ctx, docInfo.BannerImage)
		if err != nil {
			return nil, fmt.Errorf("resolve banner: %w", err)
		}
		data.BannerURL = url
	}

	html, err := RenderDocumentHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, docInfo.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
