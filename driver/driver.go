// Package driver implements database/sql/driver on top of the native SQLite
// engine, and registers itself as "sqlite-native".
package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
)

// DriverName is the name the driver is registered under.
const DriverName = "sqlite-native"

func init() {
	sql.Register(DriverName, &Driver{})
}

// Driver implements the database/sql/driver.Driver interface
type Driver struct{}

// Open returns a new connection to the database named by |dsn|
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	c, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

// OpenConnector parses |dsn| once, returning a Connector for it
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &Connector{driver: d, cfg: cfg}, nil
}

// Connector implements the database/sql/driver.Connector interface
type Connector struct {
	driver *Driver
	cfg    *Config
}

// NewConnector returns a Connector for |cfg|, for use with sql.OpenDB
func NewConnector(cfg *Config) *Connector {
	return &Connector{driver: &Driver{}, cfg: cfg}
}

// Connect returns a new connection
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	return connect(ctx, c.cfg)
}

// Driver returns the underlying driver
func (c *Connector) Driver() driver.Driver {
	return c.driver
}
