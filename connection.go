package goelastic

import (
	"context"
	"database/sql/driver"
	"sync"

	"github.com/google/uuid"
)

// Connection is a connection to a cluster. It owns its transport and every
// Cursor created through it; closing the Connection closes them all.
//
// Connection implements driver.Conn, so it is also what database/sql pools.
type Connection struct {
	cfg *Config
	api clusterAPI
	id  string

	mu      sync.Mutex
	cursors map[*Cursor]struct{}
	closed  bool
}

func newConnection(cfg *Config, api clusterAPI) *Connection {
	return &Connection{
		cfg:     cfg,
		api:     api,
		id:      uuid.NewString(),
		cursors: make(map[*Cursor]struct{}),
	}
}

// Connect opens a Connection for direct use of the Cursor API.
func Connect(ctx context.Context, config Config) (*Connection, error) {
	if err := fillMissingConfigParameters(&config); err != nil {
		return nil, err
	}
	return buildElasticConn(ctx, config)
}

func buildElasticConn(ctx context.Context, config Config) (*Connection, error) {
	if err := initClientLogging(config.ClientConfigFile); err != nil {
		return nil, err
	}
	resolveCredentials(&config, credentialsStorage)
	client, err := newTransportFactory(&config).createClient(ctx)
	if err != nil {
		return nil, err
	}
	rest, err := newElasticRestful(&config, client)
	if err != nil {
		return nil, err
	}
	conn := newConnection(&config, rest)
	logger.WithContext(conn.withID(ctx)).Infof("connection to %v opened", rest.endpoint())
	return conn, nil
}

func (ec *Connection) withID(ctx context.Context) context.Context {
	return context.WithValue(ctx, ESConnectionIDKey, ec.id)
}

// Cursor returns a new Cursor owned by the connection.
func (ec *Connection) Cursor() (*Cursor, error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if ec.closed {
		return nil, ErrClosedConnection
	}
	if ec.api == nil {
		return nil, ErrUnexpectedInit
	}
	cur := newCursor(ec, ec.api, ec.cfg)
	ec.cursors[cur] = struct{}{}
	return cur, nil
}

func (ec *Connection) releaseCursor(cur *Cursor) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	delete(ec.cursors, cur)
}

// Close closes every open cursor of the connection. Closing twice is a no-op.
func (ec *Connection) Close() error {
	ec.mu.Lock()
	if ec.closed {
		ec.mu.Unlock()
		return nil
	}
	ec.closed = true
	open := make([]*Cursor, 0, len(ec.cursors))
	for cur := range ec.cursors {
		open = append(open, cur)
	}
	ec.mu.Unlock()

	for _, cur := range open {
		cur.Close()
	}
	logger.WithField(string(ESConnectionIDKey), ec.id).Infof("connection closed, %v cursors released", len(open))
	return nil
}

// Closed reports whether Close was called.
func (ec *Connection) Closed() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.closed
}

// Config returns the configuration the connection was opened with.
func (ec *Connection) Config() Config {
	return *ec.cfg
}

// execute binds args into query and runs it on a fresh cursor.
func (ec *Connection) execute(ctx context.Context, query string, args []driver.NamedValue) (*Cursor, error) {
	if ec.Closed() {
		return nil, driver.ErrBadConn
	}
	statement, err := bindPositional(query, args)
	if err != nil {
		return nil, err
	}
	cur, err := ec.Cursor()
	if err != nil {
		return nil, err
	}
	if _, err = cur.Execute(ec.withID(ctx), statement, nil); err != nil {
		cur.Close()
		return nil, err
	}
	return cur, nil
}

func (ec *Connection) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	logger.WithContext(ec.withID(ctx)).Debugf("Query: %#v, %v", query, len(args))
	cur, err := ec.execute(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return newElasticRows(cur), nil
}

func (ec *Connection) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	logger.WithContext(ec.withID(ctx)).Debugf("Exec: %#v, %v", query, len(args))
	cur, err := ec.execute(ctx, query, args)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	return &elasticResult{affectedRows: int64(cur.RowCount()), insertID: -1}, nil
}

func (ec *Connection) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if ec.Closed() {
		return nil, driver.ErrBadConn
	}
	return &elasticStmt{conn: ec, query: query}, nil
}

func (ec *Connection) Prepare(query string) (driver.Stmt, error) {
	return ec.PrepareContext(context.Background(), query)
}

// Begin always fails, the cluster has no transactions.
func (ec *Connection) Begin() (driver.Tx, error) {
	return ec.BeginTx(context.Background(), driver.TxOptions{})
}

func (ec *Connection) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return nil, ErrNoTransactions
}

// Ping reads the cluster info.
func (ec *Connection) Ping(ctx context.Context) error {
	if ec.Closed() || ec.api == nil {
		return driver.ErrBadConn
	}
	_, err := ec.api.fetchClusterVersion(ec.withID(ctx))
	return err
}

// ClusterVersion returns the version number reported by the cluster.
func (ec *Connection) ClusterVersion(ctx context.Context) (string, error) {
	if ec.Closed() {
		return "", ErrClosedConnection
	}
	if ec.api == nil {
		return "", ErrUnexpectedInit
	}
	return ec.api.fetchClusterVersion(ec.withID(ctx))
}

// IsValid lets database/sql drop closed connections from its pool.
func (ec *Connection) IsValid() bool {
	return !ec.Closed()
}

// ResetSession marks a closed connection as bad so the pool discards it.
func (ec *Connection) ResetSession(ctx context.Context) error {
	if ec.Closed() {
		return driver.ErrBadConn
	}
	return nil
}
