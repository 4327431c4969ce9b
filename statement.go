package goelastic

import (
	"context"
	"database/sql/driver"
)

// elasticStmt defers all work to execution time; the cluster has no prepare step.
type elasticStmt struct {
	conn  *Connection
	query string
}

func (stmt *elasticStmt) Close() error {
	return nil
}

// NumInput returns -1, placeholders are counted when the arguments are bound.
func (stmt *elasticStmt) NumInput() int {
	return -1
}

func (stmt *elasticStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	logger.WithContext(ctx).Debug("Stmt.ExecContext")
	return stmt.conn.ExecContext(ctx, stmt.query, args)
}

func (stmt *elasticStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	logger.WithContext(ctx).Debug("Stmt.QueryContext")
	return stmt.conn.QueryContext(ctx, stmt.query, args)
}

func (stmt *elasticStmt) Exec(args []driver.Value) (driver.Result, error) {
	return stmt.conn.ExecContext(context.Background(), stmt.query, toNamedValues(args))
}

func (stmt *elasticStmt) Query(args []driver.Value) (driver.Rows, error) {
	return stmt.conn.QueryContext(context.Background(), stmt.query, toNamedValues(args))
}
