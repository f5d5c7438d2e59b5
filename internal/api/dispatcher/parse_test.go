package dispatcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

func TestParseToolCall(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		want   types.ToolCallRequest
		isCall bool
	}{
		{
			name:   "plain object",
			reply:  `{"tool": "search_flights", "arguments": {"from_location": "Rome", "to_location": "Milan"}}`,
			want:   types.ToolCallRequest{Tool: "search_flights", Arguments: map[string]any{"from_location": "Rome", "to_location": "Milan"}},
			isCall: true,
		},
		{
			name:   "fenced with surrounding text",
			reply:  "Sure!\n```json\n{\"tool\": \"recommend_attractions\", \"arguments\": {\"location\": \"Rome\"}}\n```",
			want:   types.ToolCallRequest{Tool: "recommend_attractions", Arguments: map[string]any{"location": "Rome"}},
			isCall: true,
		},
		{
			name:   "arguments encoded as a string",
			reply:  `{"tool": "recommend_attractions", "arguments": "{\"location\": \"Rome\"}"}`,
			want:   types.ToolCallRequest{Tool: "recommend_attractions", Arguments: map[string]any{"location": "Rome"}},
			isCall: true,
		},
		{
			name:   "missing arguments",
			reply:  `{"tool": "recommend_attractions"}`,
			want:   types.ToolCallRequest{Tool: "recommend_attractions", Arguments: map[string]any{}},
			isCall: true,
		},
		{
			name:   "non-string tool name",
			reply:  `{"tool": 42, "arguments": []}`,
			want:   types.ToolCallRequest{Tool: "", Arguments: map[string]any{}},
			isCall: true,
		},
		{name: "prose", reply: "Rome is beautiful in May."},
		{name: "json array", reply: `[{"tool": "search_flights"}]`},
		{name: "object without tool", reply: `{"answer": "yes"}`},
		{name: "broken json", reply: `{"tool": "search_flights", "arguments": {`},
		{name: "empty", reply: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseToolCall(tt.reply)
			require.Equal(t, tt.isCall, ok)
			if tt.isCall {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizeResult(t *testing.T) {
	t.Run("single object becomes a list", func(t *testing.T) {
		res, err := normalizeResult(types.Record{"name": "x"})
		require.NoError(t, err)
		assert.Len(t, res.Records, 1)
	})

	t.Run("falsy values are empty", func(t *testing.T) {
		for _, v := range []any{nil, "", "  ", []types.Record{}, []any{}, false, 0, map[string]any{}} {
			res, err := normalizeResult(v)
			require.NoError(t, err)
			assert.True(t, res.Empty(), "%#v", v)
		}
	})

	t.Run("json text is decoded", func(t *testing.T) {
		res, err := normalizeResult(`[{"name": "Colosseum"}]`)
		require.NoError(t, err)
		assert.Equal(t, []types.Record{{"name": "Colosseum"}}, res.Records)
	})

	t.Run("plain text stays scalar", func(t *testing.T) {
		res, err := normalizeResult("Go in spring.")
		require.NoError(t, err)
		assert.Equal(t, "Go in spring.", res.Scalar)
	})

	t.Run("structs go through json", func(t *testing.T) {
		type hotel struct {
			Name string `json:"name"`
		}
		res, err := normalizeResult([]hotel{{Name: "Budget Inn"}})
		require.NoError(t, err)
		assert.Equal(t, []types.Record{{"name": "Budget Inn"}}, res.Records)
	})

	t.Run("lone error record", func(t *testing.T) {
		_, err := normalizeResult([]any{map[string]any{"error": "bad dates"}})
		assert.ErrorIs(t, err, types.ErrToolExecution)
	})
}
