package goelastic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mkelastic/goelastic/internal/query"
)

// fakeCluster serves the REST endpoints the driver talks to from canned bodies.
type fakeCluster struct {
	t      *testing.T
	server *httptest.Server

	mu         sync.Mutex
	version    string
	sql        map[string]cannedResponse // keyed by normalized statement
	mappings   map[string]string
	samples    map[string]string
	catIndices string
	requests   []*http.Request
	bodies     []string
}

type cannedResponse struct {
	status int
	body   string
}

func newFakeCluster(t *testing.T) *fakeCluster {
	fc := &fakeCluster{
		t:          t,
		version:    "7.11.0",
		sql:        make(map[string]cannedResponse),
		mappings:   make(map[string]string),
		samples:    make(map[string]string),
		catIndices: "[]",
	}
	r := chi.NewRouter()
	r.Use(fc.record)
	r.Get("/", fc.info)
	r.Post("/_sql", fc.query)
	r.Get("/_cat/indices", fc.indices)
	r.Get("/{index}/_mapping", fc.mapping)
	r.Get("/{index}/_search", fc.search)
	fc.server = httptest.NewServer(r)
	t.Cleanup(fc.server.Close)
	return fc
}

func (fc *fakeCluster) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fc.mu.Lock()
		fc.requests = append(fc.requests, r.Clone(context.Background()))
		fc.bodies = append(fc.bodies, string(body))
		fc.mu.Unlock()
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		next.ServeHTTP(w, r)
	})
}

func (fc *fakeCluster) onSQL(statement string, status int, body string) *fakeCluster {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.sql[normalizeStatement(statement)] = cannedResponse{status: status, body: body}
	return fc
}

func (fc *fakeCluster) withIndex(name, mapping, sample string) *fakeCluster {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.mappings[name] = mapping
	fc.samples[name] = sample
	return fc
}

func (fc *fakeCluster) requestCount(path string) int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	n := 0
	for _, r := range fc.requests {
		if r.URL.Path == path {
			n++
		}
	}
	return n
}

func (fc *fakeCluster) lastRequest() (*http.Request, string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.requests) == 0 {
		return nil, ""
	}
	return fc.requests[len(fc.requests)-1], fc.bodies[len(fc.bodies)-1]
}

func (fc *fakeCluster) config() Config {
	u, err := url.Parse(fc.server.URL)
	if err != nil {
		fc.t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		fc.t.Fatal(err)
	}
	return Config{
		Host:                  u.Hostname(),
		Port:                  port,
		Protocol:              "http",
		MaxRetryCount:         -1,
		DisableCircuitBreaker: true,
	}
}

func (fc *fakeCluster) connect() *Connection {
	conn, err := Connect(context.Background(), fc.config())
	if err != nil {
		fc.t.Fatalf("failed to connect to the fake cluster: %v", err)
	}
	fc.t.Cleanup(func() { conn.Close() })
	return conn
}

func (fc *fakeCluster) cursor() *Cursor {
	cur, err := fc.connect().Cursor()
	if err != nil {
		fc.t.Fatal(err)
	}
	return cur
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set(headerContentType, headerContentTypeApplicationJSON)
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func indexNotFound(w http.ResponseWriter, index string) {
	writeJSON(w, http.StatusNotFound, `{"error":{"root_cause":[],"type":"index_not_found_exception","reason":"no such index [`+
		index+`]","index":"`+index+`"},"status":404}`)
}

func (fc *fakeCluster) info(w http.ResponseWriter, _ *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	writeJSON(w, http.StatusOK, `{"name":"node-1","cluster_name":"fake","version":{"number":"`+fc.version+`"}}`)
}

func (fc *fakeCluster) query(w http.ResponseWriter, r *http.Request) {
	var req query.SQLRequest
	if err := jsonAPI.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"error":{"type":"parsing_exception","reason":"bad body"},"status":400}`)
		return
	}
	fc.mu.Lock()
	canned, ok := fc.sql[normalizeStatement(req.Query)]
	fc.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, `{"error":{"type":"verification_exception","reason":"Found 1 problem","details":"unknown statement"},"status":400}`)
		return
	}
	writeJSON(w, canned.status, canned.body)
}

func (fc *fakeCluster) indices(w http.ResponseWriter, _ *http.Request) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	writeJSON(w, http.StatusOK, fc.catIndices)
}

func (fc *fakeCluster) mapping(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	fc.mu.Lock()
	body, ok := fc.mappings[index]
	fc.mu.Unlock()
	if !ok {
		indexNotFound(w, index)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (fc *fakeCluster) search(w http.ResponseWriter, r *http.Request) {
	index := chi.URLParam(r, "index")
	fc.mu.Lock()
	body, ok := fc.samples[index]
	fc.mu.Unlock()
	if !ok {
		indexNotFound(w, index)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// stubAPI is an in-memory clusterAPI for tests that do not need HTTP.
type stubAPI struct {
	mappings map[string]map[string]map[string]interface{}
	samples  map[string]*query.SearchResponse
	version  string
	stats    []query.IndexStat
	queries  map[string]*query.SQLResponse
	err      error
	calls    int
}

func (s *stubAPI) submitQuery(_ context.Context, req *query.SQLRequest) (*query.SQLResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	resp, ok := s.queries[normalizeStatement(req.Query)]
	if !ok {
		return nil, errProgramming(ErrCodeBadRequest, errMsgClusterError, "verification_exception", req.Query)
	}
	return resp, nil
}

func (s *stubAPI) fetchIndexMapping(_ context.Context, index string) (map[string]map[string]interface{}, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	m, ok := s.mappings[index]
	if !ok {
		return nil, errProgramming(ErrCodeIndexNotFound, errMsgClusterError, indexNotFoundException, index)
	}
	return m, nil
}

func (s *stubAPI) fetchSample(_ context.Context, index string, _ int) (*query.SearchResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	sample, ok := s.samples[index]
	if !ok {
		return &query.SearchResponse{}, nil
	}
	return sample, nil
}

func (s *stubAPI) fetchClusterVersion(context.Context) (string, error) {
	s.calls++
	return s.version, s.err
}

func (s *stubAPI) fetchIndexStats(context.Context) ([]query.IndexStat, error) {
	s.calls++
	return s.stats, s.err
}

func (s *stubAPI) endpoint() string {
	return "http://stub:9200"
}

// sampleOf decodes a _search body the way the driver does.
func sampleOf(t *testing.T, body string) *query.SearchResponse {
	var resp query.SearchResponse
	if err := jsonAPI.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatal(err)
	}
	return &resp
}

// propertiesOf decodes the properties object of a mapping.
func propertiesOf(t *testing.T, body string) map[string]map[string]interface{} {
	var properties map[string]map[string]interface{}
	if err := jsonAPI.Unmarshal([]byte(body), &properties); err != nil {
		t.Fatal(err)
	}
	return properties
}
