package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"
)

var _ output.CommandRegistry = (*CommandRegistryImpl)(nil)

type CommandRegistryImpl struct {
	mu       sync.RWMutex
	commands map[entity.CommandName]output.CommandPort
}

func NewCommandRegistry() *CommandRegistryImpl {
	return &CommandRegistryImpl{
		commands: make(map[entity.CommandName]output.CommandPort),
	}
}

func (r *CommandRegistryImpl) Register(cmd output.CommandPort) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name()] = cmd
}

func (r *CommandRegistryImpl) Get(name entity.CommandName) (output.CommandPort, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// All returns the commands sorted by name.
func (r *CommandRegistryImpl) All() []output.CommandPort {
	r.mu.RLock()
	result := make([]output.CommandPort, 0, len(r.commands))
	for _, cmd := range r.commands {
		result = append(result, cmd)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

func (r *CommandRegistryImpl) Definitions() []entity.CommandDefinition {
	all := r.All()
	result := make([]entity.CommandDefinition, 0, len(all))
	for _, cmd := range all {
		result = append(result, entity.CommandDefinition{
			Name:        cmd.Name(),
			Description: cmd.Description(),
			Parameters:  cmd.Parameters(),
		})
	}
	return result
}

func (r *CommandRegistryImpl) Execute(ctx context.Context, name entity.CommandName, arguments string) (string, error) {
	cmd, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", entity.ErrUnknownCommand, name)
	}
	if arguments == "" {
		arguments = "{}"
	}
	return cmd.Execute(ctx, arguments)
}
