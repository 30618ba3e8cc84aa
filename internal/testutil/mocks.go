package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"codeberg.org/snonux/linguist/internal/store"
)

// FailingStore wraps a store and injects errors per operation
type FailingStore struct {
	store.Store
	GetErr    error
	SetErr    error
	RemoveErr error
}

func (f *FailingStore) Get(key string) (string, error) {
	if f.GetErr != nil {
		return "", f.GetErr
	}
	return f.Store.Get(key)
}

func (f *FailingStore) Set(key, value string) error {
	if f.SetErr != nil {
		return f.SetErr
	}
	return f.Store.Set(key, value)
}

func (f *FailingStore) Remove(key string) error {
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	return f.Store.Remove(key)
}

// TranslateServer mocks the public translate endpoint. Every query is
// answered with the configured tuples, encoded the way the endpoint does:
// [[[target, source, null, null, 1], ...], null, "en"].
type TranslateServer struct {
	*httptest.Server

	mu      sync.Mutex
	Tuples  [][]any
	Status  int
	RawBody string
	Queries []string
}

// NewTranslateServer starts a mock server that is closed with the test
func NewTranslateServer(t *testing.T) *TranslateServer {
	t.Helper()

	ts := &TranslateServer{Status: http.StatusOK}
	ts.Server = httptest.NewServer(http.HandlerFunc(ts.handle))
	t.Cleanup(ts.Close)
	return ts
}

// Respond sets the fragments returned for each subsequent request
func (ts *TranslateServer) Respond(pairs ...[2]string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.Tuples = nil
	for _, p := range pairs {
		ts.Tuples = append(ts.Tuples, []any{p[0], p[1], nil, nil, 1})
	}
}

// Calls returns how many requests were served
func (ts *TranslateServer) Calls() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.Queries)
}

func (ts *TranslateServer) handle(w http.ResponseWriter, r *http.Request) {
	ts.mu.Lock()
	ts.Queries = append(ts.Queries, r.URL.Query().Get("q"))
	status, raw, tuples := ts.Status, ts.RawBody, ts.Tuples
	ts.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if raw != "" {
		w.Write([]byte(raw))
		return
	}
	json.NewEncoder(w).Encode([]any{tuples, nil, "en"})
}
