package output

import (
	"context"

	"aura-runtime/internal/domain/entity"
)

// CommandPort is one named operation of the page runtime. Arguments and
// result are JSON.
type CommandPort interface {
	Name() entity.CommandName
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, arguments string) (string, error)
}

type CommandRegistry interface {
	Register(cmd CommandPort)
	Get(name entity.CommandName) (CommandPort, bool)
	All() []CommandPort
	Definitions() []entity.CommandDefinition
	// Execute runs the named command; unknown names yield entity.ErrUnknownCommand.
	Execute(ctx context.Context, name entity.CommandName, arguments string) (string, error)
}
