package command

import (
	"context"
	"encoding/json"
	"fmt"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"
	"aura-runtime/internal/usecase/adaptation"
)

// Runtime is what commands act on. The session implements it by running
// each call on its event loop.
type Runtime interface {
	Model(ctx context.Context) (entity.PageModel, error)
	Adapt(ctx context.Context, cmd entity.AdaptationCommand) (adaptation.Report, error)
	Reset(ctx context.Context, opts entity.ResetOptions) error
	Highlight(ctx context.Context, selector string) error
	SetTheme(ctx context.Context, t entity.Theme) error
	SetFontScale(ctx context.Context, scale float64) error
	Annotate(ctx context.Context, selector, text string) error
}

// Register adds every runtime command to r.
func Register(r output.CommandRegistry, rt Runtime, logger output.LoggerPort) {
	r.Register(NewGetDOMCommand(rt, logger))
	r.Register(NewAdaptUICommand(rt, logger))
	r.Register(NewResetUICommand(rt, logger))
	r.Register(NewHighlightCommand(rt, logger))
	r.Register(NewSetThemeCommand(rt, logger))
	r.Register(NewIncreaseFontSizeCommand(rt, logger))
	r.Register(NewAnnotateCommand(rt, logger))
}

func decode(args string, v any) error {
	if args == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrInvalidArgs, err)
	}
	return nil
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func status(s string) (string, error) {
	return encode(map[string]string{"status": s})
}

type GetDOMCommand struct {
	rt     Runtime
	logger output.LoggerPort
}

func NewGetDOMCommand(rt Runtime, logger output.LoggerPort) *GetDOMCommand {
	return &GetDOMCommand{rt: rt, logger: logger}
}

func (c *GetDOMCommand) Name() entity.CommandName { return entity.CommandGetDOM }
func (c *GetDOMCommand) Description() string {
	return "Scrapes the page into a semantic model"
}
func (c *GetDOMCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (c *GetDOMCommand) Execute(ctx context.Context, args string) (string, error) {
	model, err := c.rt.Model(ctx)
	if err != nil {
		return "", err
	}
	c.logger.Debug("page model served", "elements", len(model.Elements))
	return encode(model)
}

type AdaptUICommand struct {
	rt     Runtime
	logger output.LoggerPort
}

func NewAdaptUICommand(rt Runtime, logger output.LoggerPort) *AdaptUICommand {
	return &AdaptUICommand{rt: rt, logger: logger}
}

func (c *AdaptUICommand) Name() entity.CommandName { return entity.CommandAdaptUI }
func (c *AdaptUICommand) Description() string {
	return "Resets previous adaptations and applies a new set"
}
func (c *AdaptUICommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"hide_elements": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"highlight_elements": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"layout_mode": map[string]interface{}{
				"type": "string",
				"enum": []string{"none", "normal", "simplified", "focus"},
			},
			"apply_bionic": map[string]interface{}{"type": "boolean"},
			"theme": map[string]interface{}{
				"type": "string",
				"enum": themeNames(),
			},
			"reset":       map[string]interface{}{"type": "boolean"},
			"reset_theme": map[string]interface{}{"type": "boolean"},
		},
	}
}

func (c *AdaptUICommand) Execute(ctx context.Context, args string) (string, error) {
	var cmd entity.AdaptationCommand
	if err := decode(args, &cmd); err != nil {
		return "", err
	}
	rep, err := c.rt.Adapt(ctx, cmd)
	if err != nil {
		return "", err
	}
	return encode(rep)
}

type ResetUICommand struct {
	rt     Runtime
	logger output.LoggerPort
}

func NewResetUICommand(rt Runtime, logger output.LoggerPort) *ResetUICommand {
	return &ResetUICommand{rt: rt, logger: logger}
}

func (c *ResetUICommand) Name() entity.CommandName { return entity.CommandResetUI }
func (c *ResetUICommand) Description() string {
	return "Removes all adaptations; with theme=true also resets the theme"
}
func (c *ResetUICommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"theme": map[string]interface{}{
				"type":        "boolean",
				"description": "Also return the theme to none",
			},
		},
	}
}

func (c *ResetUICommand) Execute(ctx context.Context, args string) (string, error) {
	var opts entity.ResetOptions
	if err := decode(args, &opts); err != nil {
		return "", err
	}
	if err := c.rt.Reset(ctx, opts); err != nil {
		return "", err
	}
	return status("reset")
}

type HighlightCommand struct {
	rt     Runtime
	logger output.LoggerPort
}

func NewHighlightCommand(rt Runtime, logger output.LoggerPort) *HighlightCommand {
	return &HighlightCommand{rt: rt, logger: logger}
}

func (c *HighlightCommand) Name() entity.CommandName { return entity.CommandHighlight }
func (c *HighlightCommand) Description() string {
	return "Briefly highlights an element and scrolls it into view"
}
func (c *HighlightCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector of the element",
			},
		},
		"required": []string{"selector"},
	}
}

func (c *HighlightCommand) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if input.Selector == "" {
		return "", fmt.Errorf("%w: selector is required", entity.ErrInvalidArgs)
	}
	if err := c.rt.Highlight(ctx, input.Selector); err != nil {
		return "", err
	}
	return status("highlighted")
}

type SetThemeCommand struct {
	rt     Runtime
	logger output.LoggerPort
}

func NewSetThemeCommand(rt Runtime, logger output.LoggerPort) *SetThemeCommand {
	return &SetThemeCommand{rt: rt, logger: logger}
}

func (c *SetThemeCommand) Name() entity.CommandName { return entity.CommandSetTheme }
func (c *SetThemeCommand) Description() string      { return "Switches the colour theme" }
func (c *SetThemeCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"theme": map[string]interface{}{
				"type": "string",
				"enum": themeNames(),
			},
		},
		"required": []string{"theme"},
	}
}

func (c *SetThemeCommand) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Theme string `json:"theme"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	t, err := entity.ParseTheme(input.Theme)
	if err != nil {
		return "", err
	}
	if err := c.rt.SetTheme(ctx, t); err != nil {
		return "", err
	}
	return encode(map[string]string{"theme": t.String()})
}

type IncreaseFontSizeCommand struct {
	rt     Runtime
	logger output.LoggerPort
}

func NewIncreaseFontSizeCommand(rt Runtime, logger output.LoggerPort) *IncreaseFontSizeCommand {
	return &IncreaseFontSizeCommand{rt: rt, logger: logger}
}

func (c *IncreaseFontSizeCommand) Name() entity.CommandName { return entity.CommandIncreaseFontSize }
func (c *IncreaseFontSizeCommand) Description() string {
	return "Scales the root font size (1 restores the page default)"
}
func (c *IncreaseFontSizeCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"scale": map[string]interface{}{
				"type":        "number",
				"description": "Multiplier in (0, 4]",
			},
		},
		"required": []string{"scale"},
	}
}

func (c *IncreaseFontSizeCommand) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Scale float64 `json:"scale"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if err := c.rt.SetFontScale(ctx, input.Scale); err != nil {
		return "", err
	}
	return encode(map[string]float64{"scale": input.Scale})
}

type AnnotateCommand struct {
	rt     Runtime
	logger output.LoggerPort
}

func NewAnnotateCommand(rt Runtime, logger output.LoggerPort) *AnnotateCommand {
	return &AnnotateCommand{rt: rt, logger: logger}
}

func (c *AnnotateCommand) Name() entity.CommandName { return entity.CommandAnnotate }
func (c *AnnotateCommand) Description() string {
	return "Places a short hint next to an element; cleared by reset_ui"
}
func (c *AnnotateCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"selector": map[string]interface{}{
				"type":        "string",
				"description": "CSS selector of the element",
			},
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Hint text",
			},
		},
		"required": []string{"selector", "text"},
	}
}

func (c *AnnotateCommand) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
		Text     string `json:"text"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if input.Selector == "" || input.Text == "" {
		return "", fmt.Errorf("%w: selector and text are required", entity.ErrInvalidArgs)
	}
	if err := c.rt.Annotate(ctx, input.Selector, input.Text); err != nil {
		return "", err
	}
	return status("annotated")
}

func themeNames() []string {
	themes := entity.Themes()
	names := make([]string, 0, len(themes))
	for _, t := range themes {
		names = append(names, t.String())
	}
	return names
}
