package goelastic

import (
	"context"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/mkelastic/goelastic/internal/query"
)

const (
	tableTypeTable     = "TABLE"
	tableTypeBaseTable = "BASE TABLE"
	tableTypeView      = "VIEW"

	defaultArraySize = 1
)

// clusters from 7.10.0 on report tables as TABLE instead of BASE TABLE
var tableTypeCutOver = version.Must(version.NewVersion("7.10.0"))

// Cursor executes statements against the cluster and holds the materialized
// result of the last successful one. A Cursor is not safe for concurrent use.
type Cursor struct {
	// ArraySize is the number of rows FetchMany returns by default.
	ArraySize int

	owner    *Connection
	api      clusterAPI
	cfg      *Config
	detector *arrayDetector
	metrics  *Metrics

	description []ColumnDescription
	rows        []ResultRow
	pos         int
	executed    bool
	closed      bool
}

func newCursor(owner *Connection, api clusterAPI, cfg *Config) *Cursor {
	return &Cursor{
		ArraySize: defaultArraySize,
		owner:     owner,
		api:       api,
		cfg:       cfg,
		detector:  newArrayDetector(api),
		metrics:   driverMetrics,
	}
}

// Execute runs statement and replaces the description and rows of the cursor.
// On failure the previous result is kept. params fills %(name)s placeholders.
func (c *Cursor) Execute(ctx context.Context, statement string, params map[string]interface{}) (*Cursor, error) {
	if c.closed {
		return nil, ErrClosedCursor
	}
	kind, table := classifyStatement(statement)
	start := time.Now()
	description, rows, err := c.dispatch(ctx, kind, table, statement, params)
	c.metrics.observeStatement(kind, start, err)
	if err != nil {
		logger.WithContext(ctx).Infof("%v statement failed: %v", kind, err)
		return nil, err
	}
	c.description = description
	c.rows = rows
	c.pos = 0
	c.executed = true
	return c, nil
}

func (c *Cursor) dispatch(ctx context.Context, kind statementKind, table, statement string, params map[string]interface{}) (
	[]ColumnDescription, []ResultRow, error) {
	switch kind {
	case stmtValidTables:
		return c.validTableNames(ctx)
	case stmtValidViews:
		return c.validTableViewNames(ctx, tableTypeView)
	case stmtArrayColumns:
		return c.arrayColumns(ctx, table)
	case stmtPassthrough:
		sqlText, err := applyParameters(statement, params)
		if err != nil {
			return nil, nil, err
		}
		return c.runQuery(ctx, sqlText)
	}
	return nil, nil, errProgramming(ErrCodeInvalidStatement, "unknown statement kind %v", kind)
}

// runQuery submits sqlText to the SQL endpoint and materializes the response.
func (c *Cursor) runQuery(ctx context.Context, sqlText string) ([]ColumnDescription, []ResultRow, error) {
	resp, err := c.api.submitQuery(ctx, &query.SQLRequest{
		Query:                   sqlText,
		FetchSize:               c.cfg.FetchSize,
		TimeZone:                c.cfg.TimeZone,
		FieldMultiValueLeniency: c.cfg.FieldMultiValueLeniency,
	})
	if err != nil {
		return nil, nil, err
	}
	if len(resp.Columns) == 0 {
		return nil, nil, ErrMissingColumns
	}
	if resp.Cursor != "" {
		logger.WithContext(ctx).Debug("the response has more pages, only the first one is read")
	}
	description := make([]ColumnDescription, len(resp.Columns))
	for i, column := range resp.Columns {
		description[i] = newColumnDescription(column.Name, column.Type)
		description[i].DisplaySize = column.DisplaySize
	}
	rows := make([]ResultRow, 0, len(resp.Rows))
	for _, raw := range resp.Rows {
		row, err := processRow(raw, description)
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return description, rows, nil
}

func (c *Cursor) arrayColumns(ctx context.Context, table string) ([]ColumnDescription, []ResultRow, error) {
	if table == "" {
		return nil, nil, errProgramming(ErrCodeInvalidStatement, errMsgEmptyTableName)
	}
	entries, err := c.detector.detectArrayColumns(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]ResultRow, len(entries))
	for i, entry := range entries {
		rows[i] = ResultRow{entry.QualifiedName, entry.ElementType}
	}
	return []ColumnDescription{stringColumn("name"), stringColumn("type")}, rows, nil
}

// validTableNames asks the cluster for its version on every call, the type
// label of tables changed in 7.10.0.
func (c *Cursor) validTableNames(ctx context.Context) ([]ColumnDescription, []ResultRow, error) {
	number, err := c.api.fetchClusterVersion(ctx)
	if err != nil {
		return nil, nil, err
	}
	clusterVersion, err := version.NewVersion(number)
	if err != nil {
		return nil, nil, errData(ErrCodeMalformedResponse, errMsgMalformedResponse, c.api.endpoint(), err)
	}
	if clusterVersion.GreaterThanOrEqual(tableTypeCutOver) {
		return c.validTableViewNames(ctx, tableTypeTable)
	}
	return c.validTableViewNames(ctx, tableTypeBaseTable)
}

// validTableViewNames lists SHOW TABLES entries of typeFilter, leaving out
// indices without documents since nothing can be inferred about their columns.
func (c *Cursor) validTableViewNames(ctx context.Context, typeFilter string) ([]ColumnDescription, []ResultRow, error) {
	description, rows, err := c.runQuery(ctx, "SHOW TABLES")
	if err != nil {
		return nil, nil, err
	}
	nameIdx, err := columnIndex(description, "SHOW TABLES", "name")
	if err != nil {
		return nil, nil, err
	}
	typeIdx, err := columnIndex(description, "SHOW TABLES", "type")
	if err != nil {
		return nil, nil, err
	}
	stats, err := c.api.fetchIndexStats(ctx)
	if err != nil {
		return nil, nil, err
	}
	empty := make(map[string]bool, len(stats))
	for _, stat := range stats {
		if count, ok := stat.DocCount(); ok && count == 0 {
			empty[stat.Index] = true
		}
	}

	filtered := make([]ResultRow, 0, len(rows))
	for _, row := range rows {
		name, _ := row[nameIdx].(string)
		tableType, _ := row[typeIdx].(string)
		if empty[name] || tableType != typeFilter {
			continue
		}
		filtered = append(filtered, row)
	}
	return description, filtered, nil
}

func columnIndex(description []ColumnDescription, statement, name string) (int, error) {
	for i, column := range description {
		if column.Name == name {
			return i, nil
		}
	}
	return -1, errProgramming(ErrCodeInvalidStatement, errMsgMissingColumn, statement, name)
}

// Description returns the columns of the last successful Execute. It stays
// readable after Close.
func (c *Cursor) Description() []ColumnDescription {
	return c.description
}

// RowCount returns the number of rows of the last result, or -1 before the
// first Execute.
func (c *Cursor) RowCount() int {
	if !c.executed {
		return -1
	}
	return len(c.rows)
}

// FetchOne returns the next row, or nil when the result is exhausted.
func (c *Cursor) FetchOne() (ResultRow, error) {
	if c.closed {
		return nil, ErrClosedCursor
	}
	if c.pos >= len(c.rows) {
		return nil, nil
	}
	row := c.rows[c.pos]
	c.pos++
	return row, nil
}

// FetchMany returns up to size rows. A size below one uses ArraySize.
func (c *Cursor) FetchMany(size int) ([]ResultRow, error) {
	if c.closed {
		return nil, ErrClosedCursor
	}
	if size < 1 {
		size = c.ArraySize
	}
	end := intMin(c.pos+size, len(c.rows))
	rows := c.rows[c.pos:end]
	c.pos = end
	return rows, nil
}

// FetchAll returns the remaining rows.
func (c *Cursor) FetchAll() ([]ResultRow, error) {
	if c.closed {
		return nil, ErrClosedCursor
	}
	rows := c.rows[c.pos:]
	c.pos = len(c.rows)
	return rows, nil
}

// Close marks the cursor closed. Every later Execute or fetch fails.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.owner != nil {
		c.owner.releaseCursor(c)
	}
	return nil
}

// Closed reports whether Close was called on the cursor or its connection.
func (c *Cursor) Closed() bool {
	return c.closed
}
