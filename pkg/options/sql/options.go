// Package sql provides relational database options for gorm.
package sql

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/camaral-bot/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Supported gorm dialects.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Options configures the SQL database.
type Options struct {
	// Driver is one of sqlite, postgres, mysql.
	Driver string `json:"driver" mapstructure:"driver"`
	// DSN is the driver specific data source name.
	DSN string `json:"-" mapstructure:"dsn"`
	// MaxOpenConns limits open connections.
	MaxOpenConns int `json:"max-open-conns" mapstructure:"max-open-conns"`
	// MaxIdleConns limits idle connections.
	MaxIdleConns int `json:"max-idle-conns" mapstructure:"max-idle-conns"`
	// ConnMaxLifetime recycles connections.
	ConnMaxLifetime time.Duration `json:"conn-max-lifetime" mapstructure:"conn-max-lifetime"`
	// AutoMigrate creates missing tables on start.
	AutoMigrate bool `json:"auto-migrate" mapstructure:"auto-migrate"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Driver:          DriverSQLite,
		DSN:             "camaral-bot.db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		AutoMigrate:     true,
	}
}

// AddFlags adds flags for SQL options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "sql."
	fs.StringVar(&o.Driver, p+"driver", o.Driver, "SQL driver (sqlite, postgres, mysql).")
	fs.StringVar(&o.DSN, p+"dsn", o.DSN, "SQL data source name.")
	fs.IntVar(&o.MaxOpenConns, p+"max-open-conns", o.MaxOpenConns, "Maximum open connections.")
	fs.IntVar(&o.MaxIdleConns, p+"max-idle-conns", o.MaxIdleConns, "Maximum idle connections.")
	fs.DurationVar(&o.ConnMaxLifetime, p+"conn-max-lifetime", o.ConnMaxLifetime, "Maximum connection lifetime.")
	fs.BoolVar(&o.AutoMigrate, p+"auto-migrate", o.AutoMigrate, "Create missing tables on start.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		errs = append(errs, fmt.Errorf("sql.driver %q is not supported", o.Driver))
	}
	if o.DSN == "" {
		errs = append(errs, fmt.Errorf("sql.dsn is required"))
	}
	return errs
}
