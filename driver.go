package goelastic

import (
	"context"
	"database/sql"
	"database/sql/driver"
)

// ElasticDriver is the database/sql driver for Elasticsearch SQL.
type ElasticDriver struct{}

// Open creates a new connection.
func (d ElasticDriver) Open(dsn string) (driver.Conn, error) {
	logger.Info("Open")
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return d.OpenWithConfig(context.Background(), *cfg)
}

// OpenConnector creates a new connector with parsed DSN.
func (d ElasticDriver) OpenConnector(dsn string) (driver.Connector, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return Connector{}, err
	}
	return NewConnector(d, *cfg), nil
}

// OpenWithConfig creates a new connection with the given Config.
func (d ElasticDriver) OpenWithConfig(ctx context.Context, config Config) (driver.Conn, error) {
	logger.WithContext(ctx).Info("OpenWithConfig")
	if err := fillMissingConfigParameters(&config); err != nil {
		return nil, err
	}
	return buildElasticConn(ctx, config)
}

func init() {
	sql.Register("elasticsearch", &ElasticDriver{})
}
