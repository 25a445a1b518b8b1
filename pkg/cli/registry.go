package cli

import (
	"sort"
	"sync"

	"github.com/shuldan/queues/pkg/contracts"
)

const defaultGroup = "general"

type cmdRegistry struct {
	mu       sync.RWMutex
	commands map[string]contracts.CliCommand
	groups   map[string][]string
}

var _ contracts.CliRegistry = (*cmdRegistry)(nil)

func NewRegistry() contracts.CliRegistry {
	return &cmdRegistry{
		commands: make(map[string]contracts.CliCommand),
		groups:   make(map[string][]string),
	}
}

func (r *cmdRegistry) Register(command contracts.CliCommand) error {
	if command == nil {
		return ErrCommandRegistration.WithDetail("command", "nil")
	}

	name := command.Name()
	if name == "" {
		return ErrCommandRegistration.WithDetail("command", `""`)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return ErrCommandRegistration.WithDetail("command", name).WithDetail("reason", "already registered")
	}
	r.commands[name] = command

	group := command.Group()
	if group == "" {
		group = defaultGroup
	}
	r.groups[group] = append(r.groups[group], name)
	return nil
}

func (r *cmdRegistry) Get(name string) (contracts.CliCommand, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	command, exists := r.commands[name]
	return command, exists
}

// Groups returns the commands of every group sorted by name.
func (r *cmdRegistry) Groups() map[string][]contracts.CliCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string][]contracts.CliCommand, len(r.groups))
	for group, names := range r.groups {
		commands := make([]contracts.CliCommand, 0, len(names))
		for _, name := range names {
			commands = append(commands, r.commands[name])
		}
		sort.Slice(commands, func(i, j int) bool {
			return commands[i].Name() < commands[j].Name()
		})
		result[group] = commands
	}
	return result
}
