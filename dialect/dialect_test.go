package dialect

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/mkelastic/goelastic"
)

var sqlResponses = map[string]string{
	"SHOW TABLES": `{
		"columns": [
			{"name": "catalog", "type": "keyword"},
			{"name": "name", "type": "keyword"},
			{"name": "type", "type": "keyword"},
			{"name": "kind", "type": "keyword"}
		],
		"rows": [
			["docker-cluster", ".kibana_1", "TABLE", "INDEX"],
			["docker-cluster", "orders", "TABLE", "INDEX"],
			["docker-cluster", ".orders_alias", "VIEW", "ALIAS"],
			["docker-cluster", "orders_alias", "VIEW", "ALIAS"]
		]
	}`,
	`SHOW COLUMNS FROM "orders"`: `{
		"columns": [
			{"name": "column", "type": "keyword"},
			{"name": "type", "type": "keyword"},
			{"name": "mapping", "type": "keyword"}
		],
		"rows": [
			["id", "BIGINT", "long"],
			["tags", "VARCHAR", "keyword"],
			["counts", "BIGINT", "long"],
			["address", "STRUCT", "object"],
			["items", "STRUCT", "nested"],
			["items.sku", "VARCHAR", "keyword"],
			["created", "TIMESTAMP", "datetime"],
			["price", "REAL", "float"]
		]
	}`,
}

func newCluster(t *testing.T) *httptest.Server {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"version": {"number": "8.11.1"}}`)
	})
	r.Get("/_cat/indices", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[{"index": "orders", "docs.count": "2"}, {"index": ".kibana_1", "docs.count": "9"}]`)
	})
	r.Post("/_sql", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, `{"error": {"type": "parsing_exception", "reason": "bad body"}, "status": 400}`)
			return
		}
		body, ok := sqlResponses[req.Query]
		if !ok {
			writeJSON(w, http.StatusBadRequest, `{"error": {"type": "verification_exception", "reason": "unknown statement"}, "status": 400}`)
			return
		}
		writeJSON(w, http.StatusOK, body)
	})
	r.Get("/orders/_mapping", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"orders": {"mappings": {"properties": {
			"id": {"type": "long"},
			"tags": {"type": "keyword"},
			"counts": {"type": "long"},
			"created": {"type": "date"},
			"price": {"type": "float"},
			"items": {"type": "nested", "properties": {"sku": {"type": "keyword"}}}
		}}}}`)
	})
	r.Get("/orders/_search", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"hits": {"total": {"value": 2}, "hits": [{"_source": {
			"id": 1, "tags": ["a", "b"], "counts": [3, 4], "created": "2024-05-01", "price": 1.5,
			"items": [{"sku": "x1"}, {"sku": "x2"}]
		}}]}}`)
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func configFor(t *testing.T, server *httptest.Server) goelastic.Config {
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return goelastic.Config{
		Host:                  u.Hostname(),
		Port:                  port,
		MaxRetryCount:         -1,
		DisableCircuitBreaker: true,
	}
}

func TestListTablesAndViews(t *testing.T) {
	db := HTTP.Open(configFor(t, newCluster(t)))
	defer db.Close()
	ctx := context.Background()

	tables, err := HTTP.ListTables(ctx, db)
	if err != nil {
		t.Fatalf("failed to list tables: %v", err)
	}
	if diff := cmp.Diff([]string{"orders"}, tables); diff != "" {
		t.Errorf("unexpected tables (-expected +actual):\n%v", diff)
	}

	views, err := HTTP.ListViews(ctx, db)
	if err != nil {
		t.Fatalf("failed to list views: %v", err)
	}
	if diff := cmp.Diff([]string{"orders_alias"}, views); diff != "" {
		t.Errorf("unexpected views (-expected +actual):\n%v", diff)
	}
}

func TestGetColumns(t *testing.T) {
	db := HTTP.Open(configFor(t, newCluster(t)))
	defer db.Close()

	columns, err := HTTP.GetColumns(context.Background(), db, "orders")
	if err != nil {
		t.Fatalf("failed to get columns: %v", err)
	}
	expected := []Column{
		{Name: "id", Type: BigInteger, Nullable: true},
		{Name: "tags", Type: ArrayType{Item: String}, Nullable: true},
		{Name: "counts", Type: ArrayType{Item: BigInteger}, Nullable: true},
		{Name: "items.sku", Type: ArrayType{Item: String}, Nullable: true},
		{Name: "created", Type: DateTime, Nullable: true},
		{Name: "price", Type: Float, Nullable: true},
	}
	if diff := cmp.Diff(expected, columns, cmp.AllowUnexported(BaseType{})); diff != "" {
		t.Errorf("unexpected columns (-expected +actual):\n%v", diff)
	}
	for _, column := range columns {
		if column.Name == "items.sku" && column.Type.Compile() != "ARRAY<VARCHAR>" {
			t.Errorf("fields of a nested array should compile to ARRAY<VARCHAR>, got %v", column.Type.Compile())
		}
	}
}

func TestGetColumnsUnknownTable(t *testing.T) {
	db := HTTP.Open(configFor(t, newCluster(t)))
	defer db.Close()

	if _, err := HTTP.GetColumns(context.Background(), db, "missing"); err == nil {
		t.Fatal("expected an error for an unknown table")
	}
}

func TestGetType(t *testing.T) {
	testcases := []struct {
		esType   string
		expected string
	}{
		{"keyword", "VARCHAR"},
		{"LONG", "BIGINT"},
		{"scaled_float", "NUMERIC"},
		{"date_nanos", "DATETIME"},
		{"flattened", "JSON"},
		{"nested", "ARRAY<VARCHAR>"},
		{"object", "BLOB"},
		{"array<long>", "ARRAY<BIGINT>"},
		{"array<array<keyword>>", "ARRAY<ARRAY<VARCHAR>>"},
		{"geo_shape", "VARCHAR"},
	}
	for _, tc := range testcases {
		t.Run(tc.esType, func(t *testing.T) {
			if got := GetType(tc.esType).Compile(); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestElementType(t *testing.T) {
	testcases := []struct {
		esType   string
		expected string
	}{
		{"nested", "VARCHAR"},
		{"array", "VARCHAR"},
		{"object", "BLOB"},
		{"long", "BIGINT"},
		{"array<keyword>", "ARRAY<VARCHAR>"},
	}
	for _, tc := range testcases {
		t.Run(tc.esType, func(t *testing.T) {
			if got := elementType(tc.esType).Compile(); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestArrayTypeCompile(t *testing.T) {
	if got := (ArrayType{}).Compile(); got != "ARRAY<VARCHAR>" {
		t.Errorf("an array of unknown items should compile to ARRAY<VARCHAR>, got %v", got)
	}
	if got := (ArrayType{Item: Boolean}).String(); got != "ARRAY<BOOLEAN>" {
		t.Errorf("unexpected %v", got)
	}
}

func TestExpressions(t *testing.T) {
	tags := QuoteIdentifier("tags")
	testcases := []struct {
		name     string
		actual   string
		expected string
	}{
		{"literal", ArrayLiteral("1", "2", "3"), "ARRAY[1, 2, 3]"},
		{"empty literal", ArrayLiteral(), "ARRAY[]"},
		{"contains", ArrayContains(tags, "'a'"), `ARRAY_CONTAINS("tags", 'a')`},
		{"length", ArrayLength(tags), `ARRAY_LENGTH("tags")`},
		{"distinct", ArrayDistinct(tags), `ARRAY_DISTINCT("tags")`},
		{"quoted quote", QuoteIdentifier(`we"ird`), `"we""ird"`},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.actual != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, tc.actual)
			}
		})
	}
}
