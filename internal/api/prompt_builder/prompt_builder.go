package promptBuilder

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/FACorreiaa/go-travel-assistant/internal/api/tools"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// DefaultFallbackOrigin is used when neither the trip nor the user location
// names a departure city.
const DefaultFallbackOrigin = "New York"

// recentSearchesShown is how many recent searches make it into the prompt.
const recentSearchesShown = 3

// Booking domains per category. The formatter synthesizes links under the same domains.
const (
	FlightsBookingDomain     = "https://mockflights.com/book/"
	HotelsBookingDomain      = "https://mockhotels.com/book/"
	AttractionsBookingDomain = "https://mockattractions.com/visit/"
	RestaurantsBookingDomain = "https://mockrestaurants.com/reserve/"
)

type Options struct {
	Now            time.Time
	FallbackOrigin string
	// IncludeSchema adds every tool's parameter list to the catalog.
	IncludeSchema bool
}

// BuildToolSelectionPrompt assembles the instruction block asking the model to
// either answer directly or pick exactly one tool with concrete arguments.
func BuildToolSelectionPrompt(catalog []types.ToolDescriptor, sc types.SerializableContext, query string, opts Options) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	origin := sc.CurrentTrip.Origin
	if origin == "" {
		origin = sc.Location
	}
	if origin == "" {
		origin = opts.FallbackOrigin
	}
	if origin == "" {
		origin = DefaultFallbackOrigin
	}
	return fmt.Sprintf(`
You are a travel planning assistant with access to the following tools:
%s
%s
DECISION RULES:
- If the question and the context above give enough information to call one tool with concrete arguments, call that tool.
- Otherwise answer the question directly in plain conversational text.
- Never call more than one tool. Never invent tool names that are not listed above.

MISSING INFORMATION:
- If no departure city is known, use "%s" as the from_location.
- If no dates are given, use the date range "%s".
- If no budget is given, use "medium".

FORMATTING RULES:
- Dates are written as YYYY-MM-DD.
- Date ranges are written as YYYY-MM-DD to YYYY-MM-DD.
- Use full city names ("New York", not "NYC" or "JFK").

User question: %s

OUTPUT FORMAT:
Reply with EITHER plain text answering the question, OR a single JSON object and nothing else:
{"tool": "<tool name>", "arguments": {"<argument name>": "<value>"}}
Do not wrap the JSON in markdown and do not add any text before or after it.
`, toolCatalog(catalog, opts.IncludeSchema), ContextSummary(sc), origin, tools.DefaultDateRange(now), strings.TrimSpace(query))
}

func toolCatalog(descs []types.ToolDescriptor, includeSchema bool) string {
	var b strings.Builder
	for _, t := range descs {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name, t.Description)
		if !includeSchema {
			continue
		}
		for _, p := range t.InputSchema {
			req := "optional"
			if p.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "    * %s (%s, %s): %s\n", p.Name, p.Type, req, p.Description)
		}
	}
	return b.String()
}

// ContextSummary renders what is known about the user and the trip. It
// returns an empty string when nothing is known yet.
func ContextSummary(sc types.SerializableContext) string {
	var lines []string
	if sc.Location != "" {
		lines = append(lines, fmt.Sprintf("User's current location: %s", sc.Location))
	}
	if prefs := preferenceLines(sc.Preferences); len(prefs) > 0 {
		lines = append(lines, "User preferences:")
		lines = append(lines, prefs...)
	}
	trip := sc.CurrentTrip
	if !trip.IsEmpty() {
		lines = append(lines, "Current trip being planned:")
		for _, f := range []struct{ label, value string }{
			{"Origin", trip.Origin},
			{"Destination", trip.Destination},
			{"Dates", trip.DateRange},
			{"Budget", trip.Budget},
		} {
			if f.value != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", f.label, f.value))
			}
		}
	}
	if dests := sc.MentionedDestinations; len(dests) > 0 {
		if len(dests) > types.MaxDisplayedDestinations {
			dests = dests[:types.MaxDisplayedDestinations]
		}
		lines = append(lines, fmt.Sprintf("Destinations mentioned so far: %s", strings.Join(dests, ", ")))
	}
	if searches := sc.RecentSearches; len(searches) > 0 {
		if len(searches) > recentSearchesShown {
			searches = searches[:recentSearchesShown]
		}
		lines = append(lines, "Recent searches:")
		for _, s := range searches {
			lines = append(lines, "- "+s)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return "\nCONTEXT:\n" + strings.Join(lines, "\n") + "\n"
}

var preferenceLabels = map[string]string{
	"home_airport":       "Home airport",
	"preferred_airlines": "Preferred airlines",
	"budget_level":       "Budget level",
	"travel_interests":   "Travel interests",
}

func preferenceLines(prefs map[string]any) []string {
	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []string
	for _, k := range keys {
		v := formatValue(prefs[k])
		if v == "" {
			continue
		}
		// "Any" airline carries no information.
		if k == "preferred_airlines" && strings.EqualFold(v, "any") {
			continue
		}
		label, ok := preferenceLabels[k]
		if !ok {
			label = strings.ReplaceAll(k, "_", " ")
		}
		out = append(out, fmt.Sprintf("- %s: %s", label, v))
	}
	return out
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := formatValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(x)
	}
}

// BuildResponseStylePrompt is the system instruction for the conversation. It
// governs tone and, when requireLinks is set, how booking links are written.
func BuildResponseStylePrompt(requireLinks bool) string {
	base := `
You are a friendly travel planning assistant. Talk like a helpful human travel agent, not a robot:
keep answers conversational, concise and specific, and end with a short question that moves the planning forward.
Never show JSON, code or internal identifiers to the user unless you are selecting a tool as instructed.
`
	if !requireLinks {
		return base
	}
	return base + fmt.Sprintf(`
BOOKING LINKS:
Every flight, hotel, attraction or restaurant you recommend MUST include a booking link.
Build the link from the item's name: lower-case it and remove spaces and apostrophes, then append it to the category domain:
- Flights: %s<airline>
- Hotels: %s<hotel name>
- Attractions: %s<attraction name>
- Restaurants: %s<restaurant name>
Example: "Mama's Kitchen" becomes %smamaskitchen
`, FlightsBookingDomain, HotelsBookingDomain, AttractionsBookingDomain, RestaurantsBookingDomain, RestaurantsBookingDomain)
}
