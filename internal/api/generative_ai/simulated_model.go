package generativeAI

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/FACorreiaa/go-travel-assistant/internal/api/tools"
	travelContext "github.com/FACorreiaa/go-travel-assistant/internal/api/travel_context"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

const simulatedGreeting = "I'm your travel assistant. I can help with flights, hotels, attractions, restaurants, and transportation. How can I assist with your travel plans?"

var _ Model = (*SimulatedModel)(nil)

// SimulatedModel picks a tool from keywords in the user's question. It needs
// no credentials and is deterministic, which makes it the default for local runs.
type SimulatedModel struct {
	extractor *travelContext.HeuristicExtractor
}

func NewSimulatedModel() *SimulatedModel {
	return &SimulatedModel{extractor: travelContext.NewMessageExtractor()}
}

func (s *SimulatedModel) Name() string { return "simulated" }

func (s *SimulatedModel) Complete(ctx context.Context, _ string, conversation []types.Turn) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var last string
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == types.RoleUser {
			last = conversation[i].Content
			break
		}
	}
	query := userQuestion(last)
	lower := strings.ToLower(query)

	facts := s.extractor.ExtractFacts(query)
	origin, dest := facts.Origin, facts.Destination
	if dest == "" && len(facts.Destinations) > 0 {
		dest = facts.Destinations[len(facts.Destinations)-1]
	}

	var call *types.ToolCallRequest
	switch {
	case strings.Contains(lower, "flight"):
		call = &types.ToolCallRequest{Tool: tools.SearchFlights, Arguments: map[string]any{
			"from_location": or(origin, "New York"),
			"to_location":   or(dest, "Paris"),
			"date_range":    "2025-05-01 to 2025-05-14",
		}}
	case strings.Contains(lower, "hotel"):
		call = &types.ToolCallRequest{Tool: tools.RecommendHotels, Arguments: map[string]any{
			"location": or(dest, "Rome"),
			"budget":   or(facts.Budget, types.BudgetMedium),
		}}
	case strings.Contains(lower, "attraction"), strings.Contains(lower, "to do"):
		call = &types.ToolCallRequest{Tool: tools.RecommendAttractions, Arguments: map[string]any{
			"location": or(dest, "Tokyo"),
		}}
	case strings.Contains(lower, "restaurant"):
		call = &types.ToolCallRequest{Tool: tools.RecommendRestaurants, Arguments: map[string]any{
			"location": or(dest, "Paris"),
			"cuisine":  "any",
		}}
	case strings.Contains(lower, "transport"):
		call = &types.ToolCallRequest{Tool: tools.TransportOptions, Arguments: map[string]any{
			"from_location": or(origin, "Paris"),
			"to_location":   or(dest, "Nice"),
		}}
	case strings.Contains(lower, "season"), strings.Contains(lower, "best time"):
		call = &types.ToolCallRequest{Tool: tools.SeasonalTravelAdvice, Arguments: map[string]any{
			"destination": or(dest, "Greece"),
		}}
	}
	if call == nil {
		return simulatedGreeting, nil
	}
	b, err := json.Marshal(call)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// userQuestion pulls the question line out of a tool-selection prompt, or
// returns the text unchanged.
func userQuestion(prompt string) string {
	_, after, ok := strings.Cut(prompt, "User question: ")
	if !ok {
		return prompt
	}
	line, _, _ := strings.Cut(after, "\n")
	return line
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
