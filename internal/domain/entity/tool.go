package entity

// CommandName names an operation routed to the page runtime.
type CommandName string

const (
	CommandGetDOM           CommandName = "get_dom"
	CommandAdaptUI          CommandName = "adapt_ui"
	CommandResetUI          CommandName = "reset_ui"
	CommandHighlight        CommandName = "highlight"
	CommandSetTheme         CommandName = "set_theme"
	CommandIncreaseFontSize CommandName = "increase_font_size"
	CommandAnnotate         CommandName = "annotate"
)

func (c CommandName) String() string {
	return string(c)
}

// UIToolCommand maps backend call_ui_tool names onto runtime commands.
var UIToolCommand = map[string]CommandName{
	"SetTheme":         CommandSetTheme,
	"IncreaseFontSize": CommandIncreaseFontSize,
}

type CommandDefinition struct {
	Name        CommandName            `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}
