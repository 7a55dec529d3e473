package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bcnelson/yatube/internal/api"
	"github.com/bcnelson/yatube/internal/auth"
	"github.com/bcnelson/yatube/internal/domain"
	"github.com/bcnelson/yatube/internal/service"
	"github.com/bcnelson/yatube/internal/storage/memory"
)

// testServer creates a test server with in-memory storage
type testServer struct {
	handler      http.Handler
	store        *memory.Store
	posts        *service.PostService
	bootstrapKey string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bootstrapKey := "test-bootstrap-key"

	sessions, err := auth.NewSessionManager([]byte(strings.Repeat("x", 32)), time.Hour, false)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	posts := service.NewPostService(store, 2, logger)

	// OIDC disabled for tests
	handler := api.NewRouter(api.Deps{
		Store:        store,
		Posts:        posts,
		Users:        service.NewUserService(store, logger),
		Sessions:     sessions,
		BootstrapKey: bootstrapKey,
		Logger:       logger,
	})

	return &testServer{
		handler:      handler,
		store:        store,
		posts:        posts,
		bootstrapKey: bootstrapKey,
	}
}

func (ts *testServer) request(method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) createPost(t *testing.T, userID int64, text string, groupID *int64) {
	t.Helper()
	in := domain.PostInput{Text: text}
	if groupID != nil {
		in.Group = fmt.Sprint(*groupID)
	}
	if _, err := ts.posts.CreatePost(context.Background(), service.Identity{UserID: userID, Username: "author"}, in); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("GET", "/health", nil, "")

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	var resp map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %s", resp["status"])
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a request id header")
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("Expected request id abc-123, got %q", got)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	// Request without auth header
	rr := ts.request("GET", "/api/v1/groups", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}

	// Request with invalid auth header format
	req := httptest.NewRequest("GET", "/api/v1/groups", nil)
	req.Header.Set("Authorization", "Basic invalid")
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}

	// Request with invalid API key
	rr = ts.request("GET", "/api/v1/groups", nil, "invalid-key")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}

	var resp domain.StandardErrorResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Error.Code != domain.ErrCodeUnauthorized {
		t.Errorf("Expected error code %s, got %q", domain.ErrCodeUnauthorized, resp.Error.Code)
	}
}

func TestBootstrapKeyAuth(t *testing.T) {
	ts := newTestServer(t)

	// Bootstrap key should work when no API keys exist
	rr := ts.request("GET", "/api/v1/groups", nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 with bootstrap key, got %d", rr.Code)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	ts := newTestServer(t)

	// Create API key using bootstrap key
	createReq := domain.CreateAPIKeyRequest{Name: "Test Key"}
	rr := ts.request("POST", "/api/v1/keys", createReq, ts.bootstrapKey)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var createResp domain.CreateAPIKeyResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &createResp)
	if createResp.Key == "" {
		t.Error("Expected key to be returned on creation")
	}
	if !strings.HasPrefix(createResp.Key, createResp.KeyPrefix) {
		t.Errorf("Expected key to start with prefix %q", createResp.KeyPrefix)
	}

	// The bootstrap key stops working once a key exists
	rr = ts.request("GET", "/api/v1/groups", nil, ts.bootstrapKey)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for bootstrap key, got %d", rr.Code)
	}

	// Use the new API key
	rr = ts.request("GET", "/api/v1/keys", nil, createResp.Key)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	var keys []*domain.APIKey
	_ = json.Unmarshal(rr.Body.Bytes(), &keys)
	if len(keys) != 1 {
		t.Fatalf("Expected 1 key, got %d", len(keys))
	}
	if keys[0].LastUsedAt == nil {
		t.Error("Expected last used time to be recorded")
	}

	// The only key cannot be revoked
	rr = ts.request("DELETE", "/api/v1/keys/"+createResp.ID, nil, createResp.Key)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for the last key, got %d", rr.Code)
	}

	rr = ts.request("POST", "/api/v1/keys", domain.CreateAPIKeyRequest{Name: "Second Key"}, createResp.Key)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var second domain.CreateAPIKeyResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &second)

	// Delete API key
	rr = ts.request("DELETE", "/api/v1/keys/"+createResp.ID, nil, second.Key)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}

	rr = ts.request("DELETE", "/api/v1/keys/"+createResp.ID, nil, second.Key)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}

	// A revoked key no longer authenticates
	rr = ts.request("GET", "/api/v1/keys", nil, createResp.Key)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for revoked key, got %d", rr.Code)
	}
}

func TestAPIKeyNameRequired(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("POST", "/api/v1/keys", domain.CreateAPIKeyRequest{Name: "   "}, ts.bootstrapKey)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestGroupCRUD(t *testing.T) {
	ts := newTestServer(t)

	// Create group
	groupReq := domain.CreateGroupRequest{Title: "Cats", Slug: "cats", Description: "All about cats"}
	rr := ts.request("POST", "/api/v1/groups", groupReq, ts.bootstrapKey)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var group domain.Group
	_ = json.Unmarshal(rr.Body.Bytes(), &group)
	if group.Slug != "cats" || group.ID == 0 {
		t.Errorf("unexpected group: %+v", group)
	}

	// Duplicate slug
	rr = ts.request("POST", "/api/v1/groups", groupReq, ts.bootstrapKey)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rr.Code)
	}

	// Get group
	rr = ts.request("GET", "/api/v1/groups/cats", nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	// Update group
	title := "Cats and kittens"
	rr = ts.request("PUT", "/api/v1/groups/cats", domain.UpdateGroupRequest{Title: &title}, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	var updated domain.Group
	_ = json.Unmarshal(rr.Body.Bytes(), &updated)
	if updated.Title != title || updated.Slug != "cats" || updated.Description != "All about cats" {
		t.Errorf("unexpected group after update: %+v", updated)
	}

	// Delete group
	rr = ts.request("DELETE", "/api/v1/groups/cats", nil, ts.bootstrapKey)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}

	// Verify deleted
	rr = ts.request("GET", "/api/v1/groups/cats", nil, ts.bootstrapKey)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestGroupListPagination(t *testing.T) {
	ts := newTestServer(t)

	for _, slug := range []string{"a", "b", "c"} {
		rr := ts.request("POST", "/api/v1/groups", domain.CreateGroupRequest{Title: "Group " + slug, Slug: slug}, ts.bootstrapKey)
		if rr.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", rr.Code)
		}
	}

	rr := ts.request("GET", "/api/v1/groups?page=2", nil, ts.bootstrapKey)
	var resp domain.GroupListResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Page != 2 || resp.TotalPages != 2 || resp.TotalGroups != 3 {
		t.Errorf("unexpected page: %+v", resp)
	}
	if len(resp.Groups) != 1 || resp.Groups[0].Slug != "c" {
		t.Errorf("unexpected groups on page 2: %+v", resp.Groups)
	}
}

func TestDeleteGroupKeepsPosts(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("POST", "/api/v1/users", domain.CreateUserRequest{Username: "leo"}, ts.bootstrapKey)
	var user domain.User
	_ = json.Unmarshal(rr.Body.Bytes(), &user)

	rr = ts.request("POST", "/api/v1/groups", domain.CreateGroupRequest{Title: "Cats", Slug: "cats"}, ts.bootstrapKey)
	var group domain.Group
	_ = json.Unmarshal(rr.Body.Bytes(), &group)

	ts.createPost(t, user.ID, "purr", &group.ID)

	rr = ts.request("DELETE", "/api/v1/groups/cats", nil, ts.bootstrapKey)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}

	rr = ts.request("GET", "/api/v1/posts", nil, ts.bootstrapKey)
	var resp domain.PostResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp.Posts) != 1 {
		t.Fatalf("Expected the post to survive, got %d posts", len(resp.Posts))
	}
	if resp.Posts[0].GroupID != nil || resp.Posts[0].Group != nil {
		t.Errorf("Expected post without group, got %+v", resp.Posts[0])
	}
}

func TestUserLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("POST", "/api/v1/users", domain.CreateUserRequest{
		Username: "leo",
		Email:    "leo@example.com",
		Password: "password123",
	}, ts.bootstrapKey)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "argon2") {
		t.Error("password hash must not be exposed")
	}

	var user domain.User
	_ = json.Unmarshal(rr.Body.Bytes(), &user)

	rr = ts.request("GET", "/api/v1/users/leo", nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	ts.createPost(t, user.ID, "one", nil)
	ts.createPost(t, user.ID, "two", nil)

	// Deleting the user deletes their posts
	rr = ts.request("DELETE", "/api/v1/users/leo", nil, ts.bootstrapKey)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}

	rr = ts.request("GET", "/api/v1/posts", nil, ts.bootstrapKey)
	var resp domain.PostResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.TotalPosts != 0 {
		t.Errorf("Expected no posts after user delete, got %d", resp.TotalPosts)
	}

	rr = ts.request("GET", "/api/v1/users/leo", nil, ts.bootstrapKey)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestPostListing(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("POST", "/api/v1/users", domain.CreateUserRequest{Username: "leo"}, ts.bootstrapKey)
	var user domain.User
	_ = json.Unmarshal(rr.Body.Bytes(), &user)

	for _, text := range []string{"alpha", "beta", "gamma"} {
		ts.createPost(t, user.ID, text, nil)
	}

	rr = ts.request("GET", "/api/v1/posts?page=2", nil, ts.bootstrapKey)
	var resp domain.PostResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Page != 2 || resp.TotalPages != 2 || resp.TotalPosts != 3 {
		t.Errorf("unexpected page: %+v", resp)
	}
	if len(resp.Posts) != 1 || resp.Posts[0].Text != "alpha" {
		t.Errorf("Expected oldest post on page 2, got %+v", resp.Posts)
	}

	rr = ts.request("GET", "/api/v1/posts?q=BET", nil, ts.bootstrapKey)
	resp = domain.PostResponse{}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp.Posts) != 1 || resp.Posts[0].Text != "beta" {
		t.Errorf("unexpected search result: %+v", resp.Posts)
	}

	rr = ts.request("GET", fmt.Sprintf("/api/v1/posts/%d", resp.Posts[0].ID), nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestInvalidRequests(t *testing.T) {
	ts := newTestServer(t)

	// Create group with missing fields
	rr := ts.request("POST", "/api/v1/groups", map[string]string{}, ts.bootstrapKey)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}

	var resp struct {
		Errors []map[string]string `json:"errors"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp.Errors) != 2 {
		t.Errorf("Expected 2 validation errors, got %d", len(resp.Errors))
	}

	// Malformed body
	req := httptest.NewRequest("POST", "/api/v1/groups", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+ts.bootstrapKey)
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}

	// Invalid username
	rr = ts.request("POST", "/api/v1/users", domain.CreateUserRequest{Username: "has space"}, ts.bootstrapKey)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}

	// Non-existent and non-numeric posts
	for _, path := range []string{"/api/v1/posts/999", "/api/v1/posts/abc"} {
		rr = ts.request("GET", path, nil, ts.bootstrapKey)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", path, rr.Code)
		}
	}
}

func TestWebUIMounted(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request("GET", "/", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected HTML, got %q", ct)
	}
}
