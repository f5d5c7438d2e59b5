package types

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
)

// ToolParam describes one named input of a tool.
type ToolParam struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
}

// ToolDescriptor is the static, immutable description of a registered tool.
type ToolDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema []ToolParam `json:"input_schema"`
}

// RequiredParams returns the names of the required parameters in schema order.
func (d ToolDescriptor) RequiredParams() []string {
	var names []string
	for _, p := range d.InputSchema {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// ToolCallRequest is the untyped tool invocation emitted by the language model.
type ToolCallRequest struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Record is one flat result item returned by a tool.
type Record map[string]any

// DispatchState is a state of the tool dispatch state machine.
type DispatchState string

const (
	StateAwaitingModelReply DispatchState = "awaiting_model_reply"
	StateDirectAnswer       DispatchState = "direct_answer"
	StateToolSelected       DispatchState = "tool_selected"
	StateToolExecuted       DispatchState = "tool_executed"
	StateFormatted          DispatchState = "formatted"
	StateDone               DispatchState = "done"
	StateFallback           DispatchState = "fallback"
)
