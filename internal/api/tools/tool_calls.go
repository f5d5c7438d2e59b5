package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

const (
	SearchFlights        = "search_flights"
	RecommendHotels      = "recommend_hotels"
	RecommendAttractions = "recommend_attractions"
	RecommendRestaurants = "recommend_restaurants"
	TransportOptions     = "transport_options"
	SeasonalTravelAdvice = "seasonal_travel_advice"
)

// Call is a validated, typed tool invocation. Exactly one concrete type exists
// per registered tool.
type Call interface {
	ToolName() string
	// Arguments returns the normalized argument map sent to the registry.
	Arguments() map[string]any
}

type FlightSearchCall struct {
	FromLocation string
	ToLocation   string
	DateRange    string
}

func (c FlightSearchCall) ToolName() string { return SearchFlights }
func (c FlightSearchCall) Arguments() map[string]any {
	args := map[string]any{"from_location": c.FromLocation, "to_location": c.ToLocation}
	if c.DateRange != "" {
		args["date_range"] = c.DateRange
	}
	return args
}

type HotelRecommendationCall struct {
	Location string
	Budget   string
}

func (c HotelRecommendationCall) ToolName() string { return RecommendHotels }
func (c HotelRecommendationCall) Arguments() map[string]any {
	return map[string]any{"location": c.Location, "budget": c.Budget}
}

type AttractionRecommendationCall struct {
	Location string
}

func (c AttractionRecommendationCall) ToolName() string { return RecommendAttractions }
func (c AttractionRecommendationCall) Arguments() map[string]any {
	return map[string]any{"location": c.Location}
}

type RestaurantRecommendationCall struct {
	Location string
	Cuisine  string
}

func (c RestaurantRecommendationCall) ToolName() string { return RecommendRestaurants }
func (c RestaurantRecommendationCall) Arguments() map[string]any {
	return map[string]any{"location": c.Location, "cuisine": c.Cuisine}
}

type TransportOptionsCall struct {
	FromLocation string
	ToLocation   string
}

func (c TransportOptionsCall) ToolName() string { return TransportOptions }
func (c TransportOptionsCall) Arguments() map[string]any {
	return map[string]any{"from_location": c.FromLocation, "to_location": c.ToLocation}
}

type SeasonalAdviceCall struct {
	Destination string
}

func (c SeasonalAdviceCall) ToolName() string { return SeasonalTravelAdvice }
func (c SeasonalAdviceCall) Arguments() map[string]any {
	return map[string]any{"destination": c.Destination}
}

// DecodeCall validates an untyped tool call from the model against the
// structure of the named tool. A missing or malformed required argument
// yields ErrInvalidArguments; optional arguments fall back to defaults.
func DecodeCall(req types.ToolCallRequest) (Call, error) {
	args := req.Arguments
	if args == nil {
		args = map[string]any{}
	}
	switch req.Tool {
	case SearchFlights:
		from, err := requiredString(args, "from_location", "origin", "from")
		if err != nil {
			return nil, err
		}
		to, err := requiredString(args, "to_location", "destination", "to")
		if err != nil {
			return nil, err
		}
		return FlightSearchCall{FromLocation: from, ToLocation: to, DateRange: optionalString(args, "", "date_range", "dates")}, nil
	case RecommendHotels:
		loc, err := requiredString(args, "location", "city", "destination")
		if err != nil {
			return nil, err
		}
		return HotelRecommendationCall{Location: loc, Budget: normalizeBudget(optionalString(args, types.BudgetMedium, "budget", "budget_level"))}, nil
	case RecommendAttractions:
		loc, err := requiredString(args, "location", "city", "destination")
		if err != nil {
			return nil, err
		}
		return AttractionRecommendationCall{Location: loc}, nil
	case RecommendRestaurants:
		loc, err := requiredString(args, "location", "city", "destination")
		if err != nil {
			return nil, err
		}
		return RestaurantRecommendationCall{Location: loc, Cuisine: strings.ToLower(optionalString(args, "any", "cuisine"))}, nil
	case TransportOptions:
		from, err := requiredString(args, "from_location", "origin", "from")
		if err != nil {
			return nil, err
		}
		to, err := requiredString(args, "to_location", "destination", "to")
		if err != nil {
			return nil, err
		}
		return TransportOptionsCall{FromLocation: from, ToLocation: to}, nil
	case SeasonalTravelAdvice:
		dest, err := requiredString(args, "destination", "location", "city")
		if err != nil {
			return nil, err
		}
		return SeasonalAdviceCall{Destination: dest}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownTool, req.Tool)
	}
}

func requiredString(args map[string]any, keys ...string) (string, error) {
	for _, k := range keys {
		raw, ok := args[k]
		if !ok {
			continue
		}
		if v, ok := asString(raw); ok && v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%w: %s has an unusable value", types.ErrInvalidArguments, k)
	}
	return "", fmt.Errorf("%w: missing %s", types.ErrInvalidArguments, keys[0])
}

func optionalString(args map[string]any, def string, keys ...string) string {
	for _, k := range keys {
		if v, ok := asString(args[k]); ok && v != "" {
			return v
		}
	}
	return def
}

// asString accepts strings, numbers and the first string of a list.
func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case []any:
		for _, item := range x {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
	case []string:
		if len(x) > 0 {
			return strings.TrimSpace(x[0]), true
		}
	}
	return "", false
}

func normalizeBudget(b string) string {
	switch strings.ToLower(b) {
	case types.BudgetLow, "cheap", "budget":
		return types.BudgetLow
	case types.BudgetHigh, "luxury", "expensive":
		return types.BudgetHigh
	default:
		return types.BudgetMedium
	}
}
