package dispatcher

import (
	"encoding/json"
	"strings"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// cleanJSONResponse strips markdown fences and explanatory text around the
// outermost JSON object.
func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "[") {
		return response
	}

	firstBrace := strings.Index(response, "{")
	if firstBrace == -1 {
		return response
	}
	lastBrace := strings.LastIndex(response, "}")
	if lastBrace <= firstBrace {
		return response
	}
	return strings.TrimSpace(response[firstBrace : lastBrace+1])
}

// ParseToolCall reports whether reply is a tool call candidate: a JSON object
// with a "tool" key. Anything else is a direct answer.
func ParseToolCall(reply string) (types.ToolCallRequest, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleanJSONResponse(reply)), &raw); err != nil || raw == nil {
		return types.ToolCallRequest{}, false
	}
	toolRaw, ok := raw["tool"]
	if !ok {
		return types.ToolCallRequest{}, false
	}

	var call types.ToolCallRequest
	// A non-string tool name stays empty and is rejected as unknown.
	_ = json.Unmarshal(toolRaw, &call.Tool)
	call.Tool = strings.TrimSpace(call.Tool)
	call.Arguments = parseArguments(raw["arguments"])
	return call, true
}

// parseArguments accepts an object or a string holding an object. Anything
// else yields an empty map and the tool's own validation decides.
func parseArguments(raw json.RawMessage) map[string]any {
	args := map[string]any{}
	if len(raw) == 0 {
		return args
	}
	if err := json.Unmarshal(raw, &args); err == nil && args != nil {
		return args
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		nested := map[string]any{}
		if err := json.Unmarshal([]byte(encoded), &nested); err == nil && nested != nil {
			return nested
		}
	}
	return map[string]any{}
}
