package queue

import (
	"fmt"
	"io"
	"maps"
	"reflect"
	"sort"
	"sync"

	"github.com/shuldan/queues/pkg/config"
	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/logger"
)

// entry is either a live queue or the configuration it will be built from.
type entry struct {
	queue  contracts.Queue
	config map[string]any
}

// Manager is a registry of named queues. Queues registered by
// configuration are built on first access and cached.
type Manager struct {
	mu            sync.Mutex
	logger        contracts.Logger
	defaultDriver string
	drivers       map[string]Driver
	driverConfigs map[string]contracts.Config
	entries       map[string]*entry
	observers     []Observer
	counter       Counter

	// building serializes construction per queue and per driver without
	// holding mu, so a slow driver does not stall unrelated queues.
	building map[string]*sync.Mutex
}

var _ contracts.QueueManager = (*Manager)(nil)

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		logger:        logger.Nop(),
		defaultDriver: DefaultDriver,
		drivers:       make(map[string]Driver),
		driverConfigs: make(map[string]contracts.Config),
		entries:       make(map[string]*entry),
		building:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) DefaultDriver() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaultDriver
}

func (m *Manager) SetDefaultDriver(name string) error {
	if name == "" {
		return ErrUnknownDriver.WithDetail("driver", `""`)
	}
	m.mu.Lock()
	m.defaultDriver = name
	m.mu.Unlock()
	return nil
}

func (m *Manager) RegisterDriver(name string, d Driver) {
	m.mu.Lock()
	m.drivers[name] = d
	m.mu.Unlock()
}

// AddQueue registers or replaces a queue. data may be a live queue, a
// configuration map, a contracts.Config or nil for the default driver
// with no settings.
func (m *Manager) AddQueue(name string, data any) error {
	if name == "" {
		return ErrInvalidQueueName.WithDetail("name", `""`)
	}

	e, err := newEntry(name, data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[name] = e
	m.mu.Unlock()
	return nil
}

func newEntry(name string, data any) (*entry, error) {
	switch v := data.(type) {
	case nil:
		return &entry{config: map[string]any{}}, nil
	case contracts.Queue:
		if r, ok := v.(renamer); ok {
			r.SetName(name)
		}
		return &entry{queue: v}, nil
	case map[string]any:
		return &entry{config: maps.Clone(v)}, nil
	case map[any]any:
		cfg := make(map[string]any, len(v))
		for k, val := range v {
			cfg[fmt.Sprint(k)] = val
		}
		return &entry{config: cfg}, nil
	case contracts.Config:
		return &entry{config: v.All()}, nil
	default:
		return nil, ErrInvalidQueueData.
			WithDetail("name", name).
			WithDetail("type", reflect.TypeOf(data).String())
	}
}

// SetQueues registers queues in bulk: a list of names for the default
// driver, or a mapping of name to queue data as accepted by AddQueue.
func (m *Manager) SetQueues(queues any) error {
	switch v := queues.(type) {
	case nil:
		return nil
	case []string:
		for _, name := range v {
			if err := m.AddQueue(name, nil); err != nil {
				return err
			}
		}
	case []any:
		for _, raw := range v {
			name, ok := raw.(string)
			if !ok {
				return ErrInvalidQueueName.WithDetail("name", fmt.Sprintf("%v", raw))
			}
			if err := m.AddQueue(name, nil); err != nil {
				return err
			}
		}
	case map[string]any:
		for _, name := range sortedKeys(v) {
			if err := m.AddQueue(name, v[name]); err != nil {
				return err
			}
		}
	case map[string]contracts.Queue:
		for name, q := range v {
			if err := m.AddQueue(name, q); err != nil {
				return err
			}
		}
	case contracts.Config:
		return m.SetQueues(v.All())
	default:
		return ErrInvalidQueueData.
			WithDetail("name", "*").
			WithDetail("type", reflect.TypeOf(queues).String())
	}
	return nil
}

// GetQueue returns the named queue, building it from its configuration on
// first access.
func (m *Manager) GetQueue(name string) (contracts.Queue, error) {
	return m.resolve(name)
}

// Queues resolves and returns every registered queue.
func (m *Manager) Queues() (map[string]contracts.Queue, error) {
	names := m.Names()
	result := make(map[string]contracts.Queue, len(names))
	for _, name := range names {
		q, err := m.resolve(name)
		if err != nil {
			return nil, err
		}
		result[name] = q
	}
	return result, nil
}

func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases the queues and drivers that hold connections.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, e := range m.entries {
		if e.queue == nil {
			continue
		}
		if c, ok := unwrap(e.queue).(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close queue %s: %w", name, err))
			}
		}
	}
	for name, d := range m.drivers {
		if c, ok := d.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close driver %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func unwrap(q contracts.Queue) contracts.Queue {
	if u, ok := q.(interface{ Unwrap() contracts.Queue }); ok {
		return u.Unwrap()
	}
	return q
}

func (m *Manager) lockKey(key string) (unlock func()) {
	m.mu.Lock()
	l, ok := m.building[key]
	if !ok {
		l = new(sync.Mutex)
		m.building[key] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// lookup returns the entry of name and its live queue, if built.
func (m *Manager) lookup(name string) (*entry, contracts.Queue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	if !ok {
		return nil, nil, ErrQueueNotFound.WithDetail("name", name)
	}
	return e, e.queue, nil
}

func (m *Manager) resolve(name string) (contracts.Queue, error) {
	if _, q, err := m.lookup(name); err != nil || q != nil {
		return q, err
	}

	unlock := m.lockKey("queue:" + name)
	defer unlock()

	e, q, err := m.lookup(name)
	if err != nil || q != nil {
		return q, err
	}

	m.mu.Lock()
	cfg := maps.Clone(e.config)
	driverName := driverOf(cfg, m.defaultDriver)
	observers, counter := m.observers, m.counter
	m.mu.Unlock()

	if cfg == nil {
		cfg = make(map[string]any)
	}
	cfg["name"] = name
	cfg["driver"] = driverName

	d, err := m.driver(driverName)
	if err != nil {
		return nil, err
	}

	q, err = d.Open(name, config.NewMapConfig(cfg))
	if err != nil {
		return nil, err
	}
	q = instrument(q, observers, counter)

	m.mu.Lock()
	e.queue = q
	e.config = nil
	m.mu.Unlock()

	m.logger.Debug("queue instantiated", "queue", name, "driver", driverName)
	return q, nil
}

func (m *Manager) driver(name string) (Driver, error) {
	m.mu.Lock()
	d, ok := m.drivers[name]
	m.mu.Unlock()
	if ok {
		return d, nil
	}

	factory, ok := lookupFactory(name)
	if !ok {
		return nil, ErrUnknownDriver.WithDetail("driver", name)
	}

	unlock := m.lockKey("driver:" + name)
	defer unlock()

	m.mu.Lock()
	d, ok = m.drivers[name]
	cfg := m.driverConfigs[name]
	m.mu.Unlock()
	if ok {
		return d, nil
	}
	if cfg == nil {
		cfg = config.NewMapConfig(nil)
	}

	d, err := factory(cfg, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.drivers[name] = d
	m.mu.Unlock()
	return d, nil
}

// driverOf reads the driver discriminator, accepting "class" as an alias.
func driverOf(cfg map[string]any, fallback string) string {
	for _, key := range []string{"driver", "class"} {
		if s, ok := cfg[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
