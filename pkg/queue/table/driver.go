package table

import (
	"context"
	"database/sql"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/database"
	"github.com/shuldan/queues/pkg/logger"
	"github.com/shuldan/queues/pkg/queue"
)

const (
	DriverName    = "table"
	DefaultPrefix = "_queue_"
)

func init() {
	queue.Register(DriverName, factory)
}

// Settings is the "table" driver section.
type Settings struct {
	Dialect string `validate:"required,oneof=mysql postgres postgresql pgsql sqlite sqlite3"`
	DSN     string `validate:"required"`
	Prefix  string
}

// Driver stores every queue in its own table of one database.
type Driver struct {
	db      *sql.DB
	dialect dialect
	prefix  string
	logger  contracts.Logger
	owned   bool
}

type DriverOption func(*Driver)

// WithPrefix sets the table name prefix shared by all queues of the driver.
func WithPrefix(prefix string) DriverOption {
	return func(d *Driver) {
		d.prefix = prefix
	}
}

func WithLogger(l contracts.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDriver wraps an open database. The caller keeps ownership of db.
func NewDriver(db *sql.DB, dialectName string, opts ...DriverOption) (*Driver, error) {
	dl, err := lookupDialect(dialectName)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		db:      db,
		dialect: dl,
		prefix:  DefaultPrefix,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.prefix != "" {
		if err := database.ValidateIdentifier(d.prefix); err != nil {
			return nil, queue.ErrInvalidDriverConfig.
				WithDetail("driver", DriverName).
				WithDetail("reason", "invalid prefix "+d.prefix).
				WithCause(err)
		}
	}
	return d, nil
}

func factory(cfg contracts.Config, log contracts.Logger) (queue.Driver, error) {
	settings := Settings{
		Dialect: cfg.GetString("dialect"),
		DSN:     cfg.GetString("dsn"),
		Prefix:  cfg.GetString("prefix", DefaultPrefix),
	}
	if err := queue.ValidateConfig(DriverName, &settings); err != nil {
		return nil, err
	}

	db, err := database.Open(context.Background(), settings.Dialect, settings.DSN, database.OptionsFromConfig(cfg)...)
	if err != nil {
		return nil, err
	}

	d, err := NewDriver(db, settings.Dialect, WithPrefix(settings.Prefix), WithLogger(log))
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	d.owned = true
	return d, nil
}

// Open builds the queue for name. A "table" key overrides the derived
// table name.
func (d *Driver) Open(name string, cfg contracts.Config) (contracts.Queue, error) {
	q := &Queue{
		Base:    queue.NewBase(name, d.logger),
		db:      d.db,
		dialect: d.dialect,
		prefix:  d.prefix,
	}
	if cfg != nil {
		q.table = cfg.GetString("table")
	}
	return q, nil
}

// Close closes the database when the driver opened it itself.
func (d *Driver) Close() error {
	if !d.owned || d.db == nil {
		return nil
	}
	return d.db.Close()
}
