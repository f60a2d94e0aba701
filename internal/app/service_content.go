package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"folio/api/internal/editor"
	"folio/api/internal/export"
	"folio/api/internal/history"
	"folio/api/internal/rbac"
	"folio/api/internal/search"
	"folio/api/internal/store"
	"folio/api/internal/util"
)

func (s *Service) CreateCollection(ctx context.Context, session Session, teamID, name string) (map[string]any, error) {
	if _, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionWrite); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}

	// New collections sort last: the default order is the creation instant
	// in unix millis, far above any dense 0..N-1 position.
	order := time.Now().UnixMilli()
	item := store.Collection{
		ID:        util.NewID("col"),
		TeamID:    teamID,
		Name:      name,
		SortOrder: &order,
	}
	if err := s.store.CreateCollection(ctx, item); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	s.publish("teams/"+teamID+"/collections", "created", item.ID)
	return collectionPayload(item), nil
}

func (s *Service) ListCollections(ctx context.Context, session Session, teamID string) ([]map[string]any, error) {
	if _, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionRead); err != nil {
		return nil, err
	}
	items, err := s.store.ListCollectionsByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	store.SortCollections(items)
	payload := make([]map[string]any, 0, len(items))
	for _, item := range items {
		payload = append(payload, collectionPayload(item))
	}
	return payload, nil
}

func (s *Service) GetCollection(ctx context.Context, session Session, collectionID string) (map[string]any, error) {
	item, err := s.readableCollection(ctx, session, collectionID)
	if err != nil {
		return nil, err
	}
	return collectionPayload(item), nil
}

func (s *Service) UpdateCollection(ctx context.Context, session Session, collectionID, name, bannerImage, bannerPosition string) (map[string]any, error) {
	item, err := s.store.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireTeamRole(ctx, session, item.TeamID, rbac.ActionWrite); err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name == "" {
		name = item.Name
	}
	if bannerPosition != "" {
		bannerPosition = editor.ParsePosition(bannerPosition).String()
	}
	if err := s.store.UpdateCollection(ctx, collectionID, name, bannerImage, bannerPosition); err != nil {
		return nil, err
	}
	updated, err := s.store.GetCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	s.publish("teams/"+item.TeamID+"/collections", "updated", collectionID)
	return collectionPayload(updated), nil
}

// ReorderCollections moves the collection at index from to index to within
// the team's display order and persists the resulting dense positions. The
// move is applied locally first; write failures are logged, not rolled back.
func (s *Service) ReorderCollections(ctx context.Context, session Session, teamID string, from, to int) ([]map[string]any, error) {
	if _, err := s.requireTeamRole(ctx, session, teamID, rbac.ActionWrite); err != nil {
		return nil, err
	}
	items, err := s.store.ListCollectionsByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	store.SortCollections(items)
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "from and to must be valid positions", nil)
	}

	entries := make([]editor.OrderEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, editor.OrderEntry{ID: item.ID, Order: item.SortOrder})
	}
	reconciler := editor.NewReconciler(func(ctx context.Context, id string, order int64) error {
		return s.store.UpdateCollectionOrder(ctx, id, order)
	}, s.logger)
	reconciler.Reset(entries)
	reconciler.Move(ctx, from, to)

	byID := make(map[string]store.Collection, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	payload := make([]map[string]any, 0, len(items))
	for i, id := range reconciler.IDs() {
		item := byID[id]
		order := int64(i)
		item.SortOrder = &order
		payload = append(payload, collectionPayload(item))
	}
	s.publish("teams/"+teamID+"/collections", "reordered", teamID)
	return payload, nil
}

// DeleteCollection cascades to the collection's documents. Requires the
// confirm flag.
func (s *Service) DeleteCollection(ctx context.Context, session Session, collectionID string, confirm bool) error {
	item, err := s.store.GetCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if _, err := s.requireTeamRole(ctx, session, item.TeamID, rbac.ActionWrite); err != nil {
		return err
	}
	if !confirm {
		return domainError(http.StatusUnprocessableEntity, "CONFIRM_REQUIRED", "confirm flag is required to delete a collection", nil)
	}

	documents, err := s.store.ListDocumentsByCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCollection(ctx, collectionID); err != nil {
		return err
	}
	if s.search != nil {
		for _, doc := range documents {
			s.search.DeleteDocument(doc.ID)
		}
	}
	s.publish("teams/"+item.TeamID+"/collections", "deleted", collectionID)
	return nil
}

func (s *Service) CreateDocument(ctx context.Context, session Session, collectionID, title string) (map[string]any, error) {
	collection, err := s.writableCollection(ctx, session, collectionID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}

	doc := store.Document{
		ID:                 util.NewID("doc"),
		CollectionID:       collectionID,
		TeamID:             collection.TeamID,
		Title:              title,
		Author:             session.UserName,
		BannerPositionPage: editor.DefaultPosition,
		BannerPositionGrid: editor.DefaultPosition,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if s.history != nil {
		go func(d store.Document, author string) {
			if err := s.history.EnsureDocumentRepo(d.ID, history.Snapshot{Title: d.Title}, author); err != nil {
				s.logger.Printf("init document history %s: %v", d.ID, err)
			}
		}(doc, session.UserName)
	}
	s.indexDocument(doc)
	s.publish("collections/"+collectionID+"/documents", "created", doc.ID)
	return documentPayload(doc, true), nil
}

func (s *Service) ListDocuments(ctx context.Context, session Session, collectionID string) ([]map[string]any, error) {
	if _, err := s.readableCollection(ctx, session, collectionID); err != nil {
		return nil, err
	}
	documents, err := s.store.ListDocumentsByCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(documents))
	for _, doc := range documents {
		payload = append(payload, documentPayload(doc, false))
	}
	return payload, nil
}

func (s *Service) GetDocument(ctx context.Context, session Session, collectionID, documentID string) (map[string]any, error) {
	doc, err := s.store.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireTeamRole(ctx, session, doc.TeamID, rbac.ActionRead); err != nil {
		return nil, err
	}
	return documentPayload(doc, true), nil
}

// SaveDocumentContent is the autosave write path. The row update is the only
// synchronous step; history, search indexing and live fan-out run in the
// background and only log on failure.
func (s *Service) SaveDocumentContent(ctx context.Context, session Session, collectionID, documentID, content string) (map[string]any, error) {
	doc, err := s.store.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireTeamRole(ctx, session, doc.TeamID, rbac.ActionWrite); err != nil {
		return nil, err
	}
	if err := s.store.UpdateDocumentContent(ctx, collectionID, documentID, content); err != nil {
		return nil, fmt.Errorf("save document content: %w", err)
	}

	doc.Content = content
	if s.history != nil {
		go func(d store.Document, author string) {
			snap := history.Snapshot{Title: d.Title, Content: d.Content}
			if _, err := s.history.CommitSnapshot(d.ID, snap, author, "autosave"); err != nil {
				s.logger.Printf("commit snapshot %s: %v", d.ID, err)
			}
		}(doc, session.UserName)
	}
	s.indexDocument(doc)
	s.publish("collections/"+collectionID+"/documents", "updated", documentID)
	return map[string]any{"savedAt": time.Now().UTC().Format(time.RFC3339)}, nil
}

func (s *Service) UpdateDocumentMeta(ctx context.Context, session Session, collectionID, documentID, title, bannerImage string) (map[string]any, error) {
	doc, err := s.store.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireTeamRole(ctx, session, doc.TeamID, rbac.ActionWrite); err != nil {
		return nil, err
	}
	if title = strings.TrimSpace(title); title == "" {
		title = doc.Title
	}
	if err := s.store.UpdateDocumentMeta(ctx, collectionID, documentID, title, bannerImage); err != nil {
		return nil, err
	}
	updated, err := s.store.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	s.indexDocument(updated)
	s.publish("collections/"+collectionID+"/documents", "updated", documentID)
	return documentPayload(updated, true), nil
}

// UpdateDocumentBannerPosition writes one of the two independent banner
// focal points. The variant names which one; the value is normalized and
// clamped to "<x>% <y>%" within [0,100].
func (s *Service) UpdateDocumentBannerPosition(ctx context.Context, session Session, collectionID, documentID, variant, position string) (map[string]any, error) {
	doc, err := s.store.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireTeamRole(ctx, session, doc.TeamID, rbac.ActionWrite); err != nil {
		return nil, err
	}

	var column string
	switch editor.BannerVariant(variant) {
	case editor.BannerPage:
		column = "banner_position_page"
	case editor.BannerGrid:
		column = "banner_position_grid"
	default:
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "variant must be page or grid", nil)
	}
	if strings.TrimSpace(position) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "position is required", nil)
	}
	normalized := editor.ParsePosition(position).String()

	if err := s.store.UpdateDocumentBannerPosition(ctx, collectionID, documentID, column, normalized); err != nil {
		return nil, err
	}
	s.publish("collections/"+collectionID+"/documents", "updated", documentID)
	return map[string]any{"variant": variant, "position": normalized}, nil
}

func (s *Service) DeleteDocument(ctx context.Context, session Session, collectionID, documentID string) error {
	doc, err := s.store.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return err
	}
	if _, err := s.requireTeamRole(ctx, session, doc.TeamID, rbac.ActionWrite); err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, collectionID, documentID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteDocument(documentID)
	}
	s.publish("collections/"+collectionID+"/documents", "deleted", documentID)
	return nil
}

func (s *Service) GetSettings(ctx context.Context, session Session) (map[string]any, error) {
	settings, err := s.store.GetSettings(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return settingsPayload(store.Settings{UserID: session.UserID}), nil
		}
		return nil, err
	}
	return settingsPayload(settings), nil
}

func (s *Service) UpdateSettings(ctx context.Context, session Session, currentTeamID, googleFont string) (map[string]any, error) {
	if currentTeamID != "" {
		if _, err := s.store.GetTeamMember(ctx, currentTeamID, session.UserID); err != nil {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "currentTeamId must be a team you belong to", nil)
		}
	}
	settings := store.Settings{
		UserID:        session.UserID,
		CurrentTeamID: currentTeamID,
		GoogleFont:    googleFont,
	}
	if err := s.store.UpsertSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settingsPayload(settings), nil
}

// ResolveSelection validates a client's selection against the database and
// returns the reduced value. Stale parts are cleared silently rather than
// erroring: a missing collection drops collection and document, a collection
// from another team drops them via the team-mismatch rule.
func (s *Service) ResolveSelection(ctx context.Context, session Session, sel editor.Selection) (editor.Selection, error) {
	if sel.TeamID != "" {
		if _, err := s.store.GetTeamMember(ctx, sel.TeamID, session.UserID); err != nil {
			return editor.Selection{}, nil
		}
	}
	if sel.CollectionID != "" {
		collection, err := s.store.GetCollection(ctx, sel.CollectionID)
		if errors.Is(err, sql.ErrNoRows) {
			sel = editor.ReduceSelection(sel, editor.CollectionGone{CollectionID: sel.CollectionID})
		} else if err != nil {
			return editor.Selection{}, err
		} else {
			sel = editor.ReduceSelection(sel, editor.CollectionResolved{CollectionID: collection.ID, TeamID: collection.TeamID})
		}
	}
	if sel.CollectionID != "" && sel.DocumentID != "" {
		if _, err := s.store.GetDocument(ctx, sel.CollectionID, sel.DocumentID); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return editor.Selection{}, err
			}
			sel.DocumentID = ""
		}
	}
	return sel, nil
}

func (s *Service) Search(ctx context.Context, session Session, q search.Query) (search.Response, error) {
	if q.TeamID == "" {
		return search.Response{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "teamId is required", nil)
	}
	if _, err := s.requireTeamRole(ctx, session, q.TeamID, rbac.ActionRead); err != nil {
		return search.Response{}, err
	}
	if s.search == nil {
		return search.Response{}, domainError(http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "Search not configured", nil)
	}
	return s.search.Search(q), nil
}

func (s *Service) ExportDocument(ctx context.Context, session Session, collectionID, documentID, format string) (*export.Result, error) {
	doc, err := s.store.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireTeamRole(ctx, session, doc.TeamID, rbac.ActionRead); err != nil {
		return nil, err
	}
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export not configured", nil)
	}
	return s.exporter.Export(ctx, export.Request{
		CollectionID: collectionID,
		DocumentID:   documentID,
		Format:       export.Format(format),
	})
}

func (s *Service) DocumentHistory(ctx context.Context, session Session, collectionID, documentID string, limit int) ([]map[string]any, error) {
	doc, err := s.store.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireTeamRole(ctx, session, doc.TeamID, rbac.ActionRead); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, domainError(http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", "History not configured", nil)
	}
	infos, err := s.history.History(documentID, limit)
	if err != nil {
		return nil, err
	}
	payload := make([]map[string]any, 0, len(infos))
	for _, info := range infos {
		payload = append(payload, map[string]any{
			"hash":      info.Hash,
			"message":   info.Message,
			"author":    info.Author,
			"createdAt": info.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return payload, nil
}

func (s *Service) DocumentSnapshot(ctx context.Context, session Session, collectionID, documentID, hash string) (map[string]any, error) {
	doc, err := s.store.GetDocument(ctx, collectionID, documentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireTeamRole(ctx, session, doc.TeamID, rbac.ActionRead); err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, domainError(http.StatusServiceUnavailable, "HISTORY_UNAVAILABLE", "History not configured", nil)
	}
	snap, err := s.history.GetSnapshot(documentID, hash)
	if err != nil {
		return nil, err
	}
	return map[string]any{"hash": hash, "title": snap.Title, "content": snap.Content}, nil
}

func (s *Service) indexDocument(doc store.Document) {
	if s.search == nil {
		return
	}
	s.search.IndexDocument(search.DocumentRecord{
		ID:           doc.ID,
		Title:        doc.Title,
		Content:      doc.Content,
		CollectionID: doc.CollectionID,
		TeamID:       doc.TeamID,
	})
}

func (s *Service) readableCollection(ctx context.Context, session Session, collectionID string) (store.Collection, error) {
	item, err := s.store.GetCollection(ctx, collectionID)
	if err != nil {
		return store.Collection{}, err
	}
	if _, err := s.requireTeamRole(ctx, session, item.TeamID, rbac.ActionRead); err != nil {
		return store.Collection{}, err
	}
	return item, nil
}

func (s *Service) writableCollection(ctx context.Context, session Session, collectionID string) (store.Collection, error) {
	item, err := s.store.GetCollection(ctx, collectionID)
	if err != nil {
		return store.Collection{}, err
	}
	if _, err := s.requireTeamRole(ctx, session, item.TeamID, rbac.ActionWrite); err != nil {
		return store.Collection{}, err
	}
	return item, nil
}

func collectionPayload(item store.Collection) map[string]any {
	payload := map[string]any{
		"id":             item.ID,
		"teamId":         item.TeamID,
		"name":           item.Name,
		"bannerImage":    item.BannerImage,
		"bannerPosition": item.BannerPosition,
		"createdAt":      item.CreatedAt.UTC().Format(time.RFC3339),
	}
	if item.SortOrder != nil {
		payload["order"] = *item.SortOrder
	} else {
		payload["order"] = nil
	}
	return payload
}

func documentPayload(doc store.Document, includeContent bool) map[string]any {
	payload := map[string]any{
		"id":                 doc.ID,
		"collectionId":       doc.CollectionID,
		"teamId":             doc.TeamID,
		"title":              doc.Title,
		"author":             doc.Author,
		"bannerImage":        doc.BannerImage,
		"bannerPositionPage": doc.BannerPositionPage,
		"bannerPositionGrid": doc.BannerPositionGrid,
		"createdAt":          doc.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":          doc.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if includeContent {
		payload["content"] = doc.Content
	}
	return payload
}

func settingsPayload(settings store.Settings) map[string]any {
	return map[string]any{
		"userId":        settings.UserID,
		"currentTeamId": settings.CurrentTeamID,
		"googleFont":    settings.GoogleFont,
	}
}
