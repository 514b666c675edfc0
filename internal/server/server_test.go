package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lazypower/keepsake/internal/engine"
	"github.com/lazypower/keepsake/internal/llm"
	"github.com/lazypower/keepsake/internal/store"
	"github.com/lazypower/keepsake/internal/undo"
)

func testServer(t *testing.T, mock *llm.MockClient) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	eng := engine.New(db, mock, undo.New(undo.DefaultTTL))
	return New(db, eng, "test-version")
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, &llm.MockClient{})

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	srv := testServer(t, &llm.MockClient{})

	req := httptest.NewRequest("GET", "/api/categories", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Categories) != len(KnownCategories) {
		t.Errorf("categories = %v", body.Categories)
	}
	if body.Categories[0] != "general" {
		t.Errorf("first category = %q, want general", body.Categories[0])
	}
}
