// Package dialect exposes the tables, views and column schemas of an
// Elasticsearch cluster to relational mapping code, including the element type
// of array columns.
package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mkelastic/goelastic"
)

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Dialect describes how to reach the cluster and reflect its schema.
type Dialect struct {
	Name       string
	Scheme     string
	Driver     string
	Paramstyle string
}

var (
	// HTTP is the default dialect.
	HTTP = Dialect{Name: "mkelasticsearch", Scheme: "http", Driver: "rest", Paramstyle: "pyformat"}
	// HTTPS connects over TLS.
	HTTPS = Dialect{Name: "mkelasticsearch", Scheme: "https", Driver: "rest", Paramstyle: "pyformat"}
)

// columns of these mapping types cannot be selected through SQL
var notSupportedColumnTypes = map[string]bool{
	"object": true,
	"nested": true,
}

// Column is the reflected schema of one column.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	Default  *string
}

// Open returns a database handle for cfg using the dialect's scheme.
func (d Dialect) Open(cfg goelastic.Config) *sql.DB {
	cfg.Protocol = d.Scheme
	return sql.OpenDB(goelastic.NewConnector(goelastic.ElasticDriver{}, cfg))
}

// ListTables returns the indices that have documents, without system indices.
func (d Dialect) ListTables(ctx context.Context, q Queryer) ([]string, error) {
	return listNames(ctx, q, "SHOW VALID_TABLES")
}

// ListViews returns the aliases whose indices have documents.
func (d Dialect) ListViews(ctx context.Context, q Queryer) ([]string, error) {
	return listNames(ctx, q, "SHOW VALID_VIEWS")
}

func listNames(ctx context.Context, q Queryer, statement string) ([]string, error) {
	records, err := queryRecords(ctx, q, statement)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(records))
	for _, record := range records {
		name := record["name"]
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// GetColumns merges SHOW COLUMNS with SHOW ARRAY_COLUMNS. Array columns get an
// ArrayType of their element type, String when it is unknown.
func (d Dialect) GetColumns(ctx context.Context, q Queryer, table string) ([]Column, error) {
	all, err := queryRecords(ctx, q, "SHOW COLUMNS FROM "+QuoteIdentifier(table))
	if err != nil {
		return nil, err
	}
	arrays, err := queryRecords(ctx, q, "SHOW ARRAY_COLUMNS FROM "+table)
	if err != nil {
		return nil, err
	}
	elementTypes := make(map[string]string, len(arrays))
	for _, record := range arrays {
		elementTypes[record["name"]] = record["type"]
	}

	columns := make([]Column, 0, len(all))
	for _, record := range all {
		if notSupportedColumnTypes[record["mapping"]] {
			continue
		}
		column := Column{Name: record["column"], Nullable: true}
		if elementTypeName, isArray := elementTypes[column.Name]; isArray {
			item := ColumnType(String)
			if elementTypeName != "" {
				item = elementType(elementTypeName)
			}
			column.Type = ArrayType{Item: item}
		} else {
			column.Type = GetType(record["mapping"])
		}
		columns = append(columns, column)
	}
	return columns, nil
}

// queryRecords runs statement and returns every row keyed by column name, with
// values formatted as strings.
func queryRecords(ctx context.Context, q Queryer, statement string) ([]map[string]string, error) {
	rows, err := q.QueryContext(ctx, statement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var records []map[string]string
	for rows.Next() {
		values := make([]interface{}, len(names))
		dest := make([]interface{}, len(names))
		for i := range values {
			dest[i] = &values[i]
		}
		if err = rows.Scan(dest...); err != nil {
			return nil, err
		}
		record := make(map[string]string, len(names))
		for i, name := range names {
			if values[i] != nil {
				record[name] = fmt.Sprint(values[i])
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
