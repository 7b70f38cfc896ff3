package service

import (
	"context"
	"testing"

	"aura-runtime/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCommand struct {
	name entity.CommandName
	got  string
}

func (c *echoCommand) Name() entity.CommandName { return c.name }
func (c *echoCommand) Description() string      { return "echo " + string(c.name) }
func (c *echoCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}

func (c *echoCommand) Execute(ctx context.Context, args string) (string, error) {
	c.got = args
	return args, nil
}

func TestCommandRegistry(t *testing.T) {
	r := NewCommandRegistry()
	r.Register(&echoCommand{name: entity.CommandSetTheme})
	r.Register(&echoCommand{name: entity.CommandGetDOM})

	cmd, ok := r.Get(entity.CommandGetDOM)
	require.True(t, ok)
	assert.Equal(t, entity.CommandGetDOM, cmd.Name())

	_, ok = r.Get(entity.CommandHighlight)
	assert.False(t, ok)

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, entity.CommandGetDOM, defs[0].Name)
	assert.Equal(t, entity.CommandSetTheme, defs[1].Name)
	assert.Equal(t, "echo set_theme", defs[1].Description)
}

func TestCommandRegistry_Execute(t *testing.T) {
	r := NewCommandRegistry()
	echo := &echoCommand{name: entity.CommandResetUI}
	r.Register(echo)

	out, err := r.Execute(context.Background(), entity.CommandResetUI, `{"theme":true}`)
	require.NoError(t, err)
	assert.Equal(t, `{"theme":true}`, out)

	_, err = r.Execute(context.Background(), entity.CommandResetUI, "")
	require.NoError(t, err)
	assert.Equal(t, "{}", echo.got)

	_, err = r.Execute(context.Background(), "reload", "{}")
	assert.ErrorIs(t, err, entity.ErrUnknownCommand)
}
