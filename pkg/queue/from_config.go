package queue

import (
	"github.com/shuldan/queues/pkg/contracts"
)

// NewManagerFromConfig builds a manager from the "queues" section:
//
//	queues:
//	  default: table
//	  drivers:
//	    table: { dialect: sqlite3, dsn: "file:queues.db" }
//	  items:
//	    orders: {}
//	    mails: { driver: sqs }
//
// items may also be a list of names. Explicit opts are applied after the
// configuration and win over it.
func NewManagerFromConfig(cfg contracts.Config, logger contracts.Logger, opts ...ManagerOption) (*Manager, error) {
	section, ok := cfg.GetSub("queues")
	if !ok {
		return nil, ErrInvalidDriverConfig.
			WithDetail("driver", "manager").
			WithDetail("reason", "missing queues section")
	}

	base := []ManagerOption{
		WithLogger(logger),
		WithDefaultDriver(section.GetString("default", DefaultDriver)),
	}
	if drivers, ok := section.GetSub("drivers"); ok {
		for _, name := range sortedKeys(drivers.All()) {
			sub, ok := drivers.GetSub(name)
			if !ok {
				return nil, ErrInvalidDriverConfig.
					WithDetail("driver", name).
					WithDetail("reason", "driver section must be a mapping")
			}
			base = append(base, WithDriverConfig(name, sub))
		}
	}

	m := NewManager(append(base, opts...)...)
	if err := m.SetQueues(section.Get("items")); err != nil {
		return nil, err
	}
	return m, nil
}
