package goelastic

import (
	"context"
	"database/sql/driver"
)

// InternalElasticDriver is the interface of a driver that can open a
// connection from a Config.
type InternalElasticDriver interface {
	Open(dsn string) (driver.Conn, error)
	OpenWithConfig(ctx context.Context, config Config) (driver.Conn, error)
}

// Connector creates driver connections from a fixed Config, for use with
// sql.OpenDB.
type Connector struct {
	driver InternalElasticDriver
	cfg    Config
}

// NewConnector creates a new connector with the given driver and config.
func NewConnector(driver InternalElasticDriver, config Config) Connector {
	return Connector{driver, config}
}

// Connect creates a new connection.
func (t Connector) Connect(ctx context.Context) (driver.Conn, error) {
	cfg := t.cfg
	if err := fillMissingConfigParameters(&cfg); err != nil {
		return nil, err
	}
	return t.driver.OpenWithConfig(ctx, cfg)
}

// Driver creates a new driver.
func (t Connector) Driver() driver.Driver {
	return t.driver
}
