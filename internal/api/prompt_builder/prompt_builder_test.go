package promptBuilder

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

var testTools = []types.ToolDescriptor{
	{
		Name:        "search_flights",
		Description: "Search flights.",
		InputSchema: []types.ToolParam{
			{Name: "from_location", Type: types.ParamString, Description: "Departure city", Required: true},
			{Name: "date_range", Type: types.ParamString, Description: "Dates"},
		},
	},
	{Name: "recommend_hotels", Description: "Recommend hotels."},
}

var testNow = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func TestBuildToolSelectionPrompt(t *testing.T) {
	t.Run("catalog, rules, contract and query", func(t *testing.T) {
		p := BuildToolSelectionPrompt(testTools, types.SerializableContext{}, "  flights to Rome  ", Options{Now: testNow})

		assert.Contains(t, p, "- search_flights: Search flights.")
		assert.Contains(t, p, "- recommend_hotels: Recommend hotels.")
		assert.NotContains(t, p, "from_location (string, required)")
		assert.Contains(t, p, "User question: flights to Rome\n")
		assert.Contains(t, p, `{"tool": "<tool name>", "arguments": {"<argument name>": "<value>"}}`)
		assert.Contains(t, p, "YYYY-MM-DD to YYYY-MM-DD")
		assert.Contains(t, p, `use "New York" as the from_location`)
		assert.Contains(t, p, `use the date range "2025-05-01 to 2025-05-08"`)
		assert.Contains(t, p, `use "medium"`)
		assert.NotContains(t, p, "CONTEXT:")
	})

	t.Run("schema is optional", func(t *testing.T) {
		p := BuildToolSelectionPrompt(testTools, types.SerializableContext{}, "q", Options{Now: testNow, IncludeSchema: true})
		assert.Contains(t, p, "* from_location (string, required): Departure city")
		assert.Contains(t, p, "* date_range (string, optional): Dates")
	})

	t.Run("origin prefers trip then location then fallback", func(t *testing.T) {
		sc := types.SerializableContext{Location: "Lisbon"}
		assert.Contains(t, BuildToolSelectionPrompt(testTools, sc, "q", Options{Now: testNow}), `use "Lisbon" as the from_location`)

		sc.CurrentTrip.Origin = "Porto"
		assert.Contains(t, BuildToolSelectionPrompt(testTools, sc, "q", Options{Now: testNow}), `use "Porto" as the from_location`)

		assert.Contains(t, BuildToolSelectionPrompt(testTools, types.SerializableContext{}, "q", Options{Now: testNow, FallbackOrigin: "London"}), `use "London" as the from_location`)
	})
}

func TestContextSummary(t *testing.T) {
	sc := types.SerializableContext{
		Location: "Berlin",
		Preferences: map[string]any{
			"home_airport":       "BER",
			"preferred_airlines": []string{"Any"},
			"travel_interests":   []any{"food", "museum"},
		},
		RecentSearches:        []string{"s1", "s2", "s3", "s4"},
		MentionedDestinations: []string{"Athens", "Cairo", "London", "Milan", "Paris", "Rome"},
		CurrentTrip:           types.TripDraft{Destination: "Rome", Budget: "low"},
	}
	got := ContextSummary(sc)

	assert.Contains(t, got, "User's current location: Berlin")
	assert.Contains(t, got, "- Home airport: BER")
	assert.Contains(t, got, "- Travel interests: food, museum")
	assert.NotContains(t, got, "Preferred airlines")
	assert.Contains(t, got, "- Destination: Rome")
	assert.Contains(t, got, "- Budget: low")
	assert.NotContains(t, got, "- Origin:")
	assert.Contains(t, got, "Destinations mentioned so far: Athens, Cairo, London, Milan, Paris\n")
	assert.Contains(t, got, "- s3")
	assert.NotContains(t, got, "- s4")

	assert.Empty(t, ContextSummary(types.SerializableContext{}))
}

func TestBuildResponseStylePrompt(t *testing.T) {
	withLinks := BuildResponseStylePrompt(true)
	assert.Contains(t, withLinks, "conversational")
	assert.Contains(t, withLinks, HotelsBookingDomain)
	assert.Contains(t, withLinks, RestaurantsBookingDomain+"mamaskitchen")

	without := BuildResponseStylePrompt(false)
	assert.NotContains(t, without, "BOOKING LINKS")
	assert.True(t, strings.HasPrefix(withLinks, without))
}
