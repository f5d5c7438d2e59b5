package tools

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

const dateLayout = "2006-01-02"

// displayName title-cases a user supplied place name, leaving IATA style
// codes untouched.
func displayName(s string) string {
	s = strings.TrimSpace(s)
	if s == strings.ToUpper(s) {
		return s
	}
	// Casers keep state, so each call gets its own.
	return cases.Title(language.English).String(s)
}

// seeded returns a generator whose sequence depends only on the inputs so
// mock results are reproducible.
func seeded(parts ...string) *rand.Rand {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(strings.ToLower(p)))
		_, _ = h.Write([]byte{0})
	}
	sum := h.Sum64()
	return rand.New(rand.NewPCG(sum, sum>>7|1))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

// DefaultDateRange is the range used when a flight search has none: one week
// starting about a month from now.
func DefaultDateRange(now time.Time) string {
	start := now.AddDate(0, 0, 30)
	return fmt.Sprintf("%s to %s", start.Format(dateLayout), start.AddDate(0, 0, 7).Format(dateLayout))
}

func parseDateRange(s string) (time.Time, time.Time, bool) {
	from, to, ok := strings.Cut(s, " to ")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse(dateLayout, strings.TrimSpace(from))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(to))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

var airlines = []string{"Delta", "United", "Air France", "Qatar Airways", "Lufthansa"}

var airportCodes = map[string]string{
	"new york": "JFK",
	"paris":    "CDG",
	"london":   "LHR",
	"rome":     "FCO",
	"milan":    "MXP",
	"greece":   "ATH",
	"athens":   "ATH",
	"tokyo":    "HND",
	"dubai":    "DXB",
	"lisbon":   "LIS",
	"berlin":   "BER",
}

func airportCode(place string) string {
	if code, ok := airportCodes[strings.ToLower(strings.TrimSpace(place))]; ok {
		return code
	}
	return "XXX"
}

func flightSearchTool(now func() time.Time) Tool {
	return Tool{
		Descriptor: types.ToolDescriptor{
			Name:        SearchFlights,
			Description: "Search available flights between two places within a date range.",
			InputSchema: []types.ToolParam{
				{Name: "from_location", Type: types.ParamString, Description: "Departure city or airport", Required: true},
				{Name: "to_location", Type: types.ParamString, Description: "Destination city or airport", Required: true},
				{Name: "date_range", Type: types.ParamString, Description: "Travel dates as YYYY-MM-DD to YYYY-MM-DD"},
			},
		},
		Handler: func(_ context.Context, c Call) (any, error) {
			call := c.(FlightSearchCall)
			start, end, ok := parseDateRange(call.DateRange)
			if !ok {
				start, end, _ = parseDateRange(DefaultDateRange(now()))
			}
			if !start.Before(end) {
				return nil, fmt.Errorf("%w: start date must be before end date", types.ErrInvalidArguments)
			}
			from, to := displayName(call.FromLocation), displayName(call.ToLocation)
			rng := seeded(from, to, start.Format(dateLayout), end.Format(dateLayout))
			span := int(end.Sub(start).Hours() / 24)

			results := make([]types.Record, 0, 3)
			for range 3 {
				airline := airlines[rng.IntN(len(airlines))]
				departure := start.AddDate(0, 0, rng.IntN(span+1))
				results = append(results, types.Record{
					"airline":           airline,
					"price_usd":         round(300+rng.Float64()*700, 2),
					"from":              fmt.Sprintf("%s (%s)", from, airportCode(from)),
					"to":                fmt.Sprintf("%s (%s)", to, airportCode(to)),
					"departure_date":    departure.Format(dateLayout),
					"return_date":       departure.AddDate(0, 0, 5+rng.IntN(6)).Format(dateLayout),
					"mock_booking_link": "https://mockflights.com/book/" + slug(airline),
				})
			}
			return results, nil
		},
	}
}

type hotelTier struct {
	name  string
	price int
}

var hotelTiers = map[string][]hotelTier{
	types.BudgetLow:    {{"Budget Inn", 50}, {"City Hostel", 35}},
	types.BudgetMedium: {{"Comfort Suites", 120}, {"Holiday Hotel", 90}},
	types.BudgetHigh:   {{"Grand Palace", 300}, {"Luxury Stay", 450}},
}

func hotelTool() Tool {
	return Tool{
		Descriptor: types.ToolDescriptor{
			Name:        RecommendHotels,
			Description: "Recommend hotels in a location for a budget level.",
			InputSchema: []types.ToolParam{
				{Name: "location", Type: types.ParamString, Description: "City or region to stay in", Required: true},
				{Name: "budget", Type: types.ParamString, Description: "low, medium or high (default medium)"},
			},
		},
		Handler: func(_ context.Context, c Call) (any, error) {
			call := c.(HotelRecommendationCall)
			tiers, ok := hotelTiers[call.Budget]
			if !ok {
				tiers = hotelTiers[types.BudgetMedium]
			}
			location := displayName(call.Location)
			rng := seeded(location, call.Budget)
			results := make([]types.Record, 0, len(tiers))
			for _, h := range tiers {
				results = append(results, types.Record{
					"name":                h.name,
					"location":            location,
					"price_per_night_usd": h.price,
					"rating":              round(3.5+rng.Float64()*1.5, 1),
					"mock_booking_link":   "https://mockhotels.com/book/" + slug(h.name),
				})
			}
			return results, nil
		},
	}
}

var sampleAttractions = map[string][]string{
	"paris":    {"Eiffel Tower", "Louvre Museum", "Seine River Cruise"},
	"new york": {"Statue of Liberty", "Central Park", "Broadway Shows"},
	"rome":     {"Colosseum", "Trevi Fountain", "Vatican Museums"},
	"tokyo":    {"Senso-ji Temple", "Shibuya Crossing", "Meiji Shrine"},
}

func attractionsTool() Tool {
	return Tool{
		Descriptor: types.ToolDescriptor{
			Name:        RecommendAttractions,
			Description: "List tourist attractions worth visiting in a location.",
			InputSchema: []types.ToolParam{
				{Name: "location", Type: types.ParamString, Description: "City or country to explore", Required: true},
			},
		},
		Handler: func(_ context.Context, c Call) (any, error) {
			location := displayName(c.(AttractionRecommendationCall).Location)
			names, ok := sampleAttractions[strings.ToLower(location)]
			if !ok {
				names = []string{"Main Square", "Local Market", "City Museum"}
			}
			results := make([]types.Record, 0, len(names))
			for _, n := range names {
				results = append(results, types.Record{
					"name":        n,
					"location":    location,
					"description": fmt.Sprintf("%s is a must-see attraction in %s.", n, location),
				})
			}
			return results, nil
		},
	}
}

var restaurantsByCuisine = map[string][]string{
	"any":      {"The Local Bite", "Food Corner", "Taste Hub"},
	"italian":  {"Pasta House", "Trattoria Roma", "Mama's Kitchen"},
	"japanese": {"Sushi Zen", "Tokyo Bowl", "Ninja Ramen"},
}

func restaurantsTool() Tool {
	return Tool{
		Descriptor: types.ToolDescriptor{
			Name:        RecommendRestaurants,
			Description: "Suggest restaurants in a location, optionally for a cuisine.",
			InputSchema: []types.ToolParam{
				{Name: "location", Type: types.ParamString, Description: "City or region", Required: true},
				{Name: "cuisine", Type: types.ParamString, Description: "Preferred cuisine such as italian or japanese (default any)"},
			},
		},
		Handler: func(_ context.Context, c Call) (any, error) {
			call := c.(RestaurantRecommendationCall)
			names, ok := restaurantsByCuisine[call.Cuisine]
			if !ok {
				names = restaurantsByCuisine["any"]
			}
			location := displayName(call.Location)
			rng := seeded(location, call.Cuisine)
			results := make([]types.Record, 0, len(names))
			for _, n := range names {
				results = append(results, types.Record{
					"name":     n,
					"location": location,
					"cuisine":  call.Cuisine,
					"rating":   round(3.5+rng.Float64()*1.5, 1),
				})
			}
			return results, nil
		},
	}
}

var transportModes = []struct {
	mode     string
	duration string
	price    int
}{
	{"bus", "10h", 45},
	{"train", "6h", 75},
	{"flight", "1h 30m", 150},
	{"car", "8h", 90},
}

// transportTool answers with a single object keyed by mode.
func transportTool() Tool {
	return Tool{
		Descriptor: types.ToolDescriptor{
			Name:        TransportOptions,
			Description: "Compare bus, train, flight and car options between two places.",
			InputSchema: []types.ToolParam{
				{Name: "from_location", Type: types.ParamString, Description: "Origin city or place", Required: true},
				{Name: "to_location", Type: types.ParamString, Description: "Destination city or place", Required: true},
			},
		},
		Handler: func(_ context.Context, c Call) (any, error) {
			call := c.(TransportOptionsCall)
			route := fmt.Sprintf("%s to %s", displayName(call.FromLocation), displayName(call.ToLocation))
			result := make(types.Record, len(transportModes))
			for _, m := range transportModes {
				result[m.mode] = map[string]any{
					"route":     route,
					"duration":  m.duration,
					"price_usd": m.price,
				}
			}
			return result, nil
		},
	}
}

var seasonalAdvice = map[string]string{
	"greece":   "Best time to visit Greece is between April and June or September and October.",
	"japan":    "Visit Japan in March-April for cherry blossoms or November for fall colors.",
	"thailand": "Dry season from November to February is ideal for travel.",
}

// seasonalAdviceTool answers with a plain string.
func seasonalAdviceTool() Tool {
	return Tool{
		Descriptor: types.ToolDescriptor{
			Name:        SeasonalTravelAdvice,
			Description: "Give the best season to visit a destination.",
			InputSchema: []types.ToolParam{
				{Name: "destination", Type: types.ParamString, Description: "City or country", Required: true},
			},
		},
		Handler: func(_ context.Context, c Call) (any, error) {
			dest := displayName(c.(SeasonalAdviceCall).Destination)
			if advice, ok := seasonalAdvice[strings.ToLower(dest)]; ok {
				return advice, nil
			}
			return fmt.Sprintf("Visit %s in its dry or festival season for the best experience.", dest), nil
		},
	}
}
