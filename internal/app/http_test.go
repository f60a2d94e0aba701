package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"folio/api/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *Service, *fakeStore) {
	t.Helper()
	service, fs := newTestService(t)
	srv := httptest.NewServer(NewHTTPServer(service, "*").Handler())
	t.Cleanup(srv.Close)
	return srv, service, fs
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var payload map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp, payload
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, payload := doJSON(t, http.MethodGet, srv.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if payload["ok"] != true {
		t.Fatalf("payload = %v", payload)
	}
}

func TestReadyReportsDatabaseFailure(t *testing.T) {
	srv, _, fs := newTestServer(t)
	fs.pingErr = errors.New("connection refused")
	resp, payload := doJSON(t, http.MethodGet, srv.URL+"/api/ready", "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if payload["status"] != "not_ready" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, payload := doJSON(t, http.MethodGet, srv.URL+"/api/teams", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if payload["code"] != "UNAUTHORIZED" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestSignUpVerifySignInOverHTTP(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, payload := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "", map[string]any{
		"email":       "avery@example.com",
		"password":    "s3cretpass",
		"displayName": "Avery",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d: %v", resp.StatusCode, payload)
	}
	token, _ := payload["devVerificationToken"].(string)
	if token == "" {
		t.Fatal("expected dev verification token")
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/verify-email", "", map[string]any{"token": token})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d", resp.StatusCode)
	}

	resp, payload = doJSON(t, http.MethodPost, srv.URL+"/api/auth/signin", "", map[string]any{
		"email":    "avery@example.com",
		"password": "s3cretpass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("signin status = %d: %v", resp.StatusCode, payload)
	}
	if payload["token"] == "" || payload["refreshToken"] == "" {
		t.Fatalf("missing tokens: %v", payload)
	}

	// Duplicate signup conflicts.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "", map[string]any{
		"email":       "avery@example.com",
		"password":    "s3cretpass",
		"displayName": "Avery",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", resp.StatusCode)
	}
}

func TestDocumentContentEndpoint(t *testing.T) {
	srv, service, fs := newTestServer(t)
	seedMember(fs, "t1", "u1", "member")
	fs.documents[docKey("c1", "d1")] = store.Document{ID: "d1", CollectionID: "c1", TeamID: "t1", Title: "Doc"}

	session, err := service.issueSession(context.Background(), fs.users["u1"])
	if err != nil {
		t.Fatalf("issueSession() error = %v", err)
	}

	resp, payload := doJSON(t, http.MethodPut, srv.URL+"/api/collections/c1/documents/d1/content", session.Token, map[string]any{
		"content": "<p>draft</p>",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %v", resp.StatusCode, payload)
	}
	if payload["savedAt"] == "" {
		t.Fatal("expected savedAt")
	}

	resp, payload = doJSON(t, http.MethodGet, srv.URL+"/api/collections/c1/documents/d1", session.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if payload["content"] != "<p>draft</p>" {
		t.Fatalf("content = %v", payload["content"])
	}

	// Unknown documents map to 404.
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/collections/c1/documents/nope/content", session.Token, map[string]any{"content": "x"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing doc status = %d, want 404", resp.StatusCode)
	}
}

func TestBannerPositionEndpointValidation(t *testing.T) {
	srv, service, fs := newTestServer(t)
	seedMember(fs, "t1", "u1", "member")
	fs.documents[docKey("c1", "d1")] = store.Document{ID: "d1", CollectionID: "c1", TeamID: "t1"}

	session, err := service.issueSession(context.Background(), fs.users["u1"])
	if err != nil {
		t.Fatalf("issueSession() error = %v", err)
	}

	resp, payload := doJSON(t, http.MethodPut, srv.URL+"/api/collections/c1/documents/d1/banner-position", session.Token, map[string]any{
		"variant":  "grid",
		"position": "30% 80%",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %v", resp.StatusCode, payload)
	}
	if payload["position"] != "30% 80%" {
		t.Fatalf("position = %v", payload["position"])
	}

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/collections/c1/documents/d1/banner-position", session.Token, map[string]any{
		"variant":  "hero",
		"position": "30% 80%",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad variant status = %d, want 422", resp.StatusCode)
	}
}

func TestTeamCollectionLifecycleOverHTTP(t *testing.T) {
	srv, service, fs := newTestServer(t)
	fs.users["u1"] = store.User{ID: "u1", DisplayName: "Avery", Email: "avery@example.com"}
	session, err := service.issueSession(context.Background(), fs.users["u1"])
	if err != nil {
		t.Fatalf("issueSession() error = %v", err)
	}

	resp, team := doJSON(t, http.MethodPost, srv.URL+"/api/teams", session.Token, map[string]any{"name": "Design"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create team status = %d: %v", resp.StatusCode, team)
	}
	teamID := team["id"].(string)

	resp, collection := doJSON(t, http.MethodPost, srv.URL+"/api/teams/"+teamID+"/collections", session.Token, map[string]any{"name": "Q3"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create collection status = %d: %v", resp.StatusCode, collection)
	}
	collectionID := collection["id"].(string)

	// Deleting without confirm is refused.
	resp, payload := doJSON(t, http.MethodDelete, srv.URL+"/api/collections/"+collectionID, session.Token, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("delete status = %d, want 422: %v", resp.StatusCode, payload)
	}
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/api/collections/"+collectionID+"?confirm=true", session.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirmed delete status = %d", resp.StatusCode)
	}
}
