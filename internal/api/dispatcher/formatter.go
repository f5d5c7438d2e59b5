package dispatcher

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	promptBuilder "github.com/FACorreiaa/go-travel-assistant/internal/api/prompt_builder"
	"github.com/FACorreiaa/go-travel-assistant/internal/api/tools"
	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// NotSpecified fills display fields a tool left out.
const NotSpecified = "Not specified"

// Renderer turns a normalized result into one conversational reply.
type Renderer func(res Result, call tools.Call) string

// Formatter holds one renderer per tool name.
type Formatter struct {
	renderers map[string]Renderer
}

func NewFormatter() *Formatter {
	return &Formatter{renderers: map[string]Renderer{
		tools.SearchFlights:        renderFlights,
		tools.RecommendHotels:      renderHotels,
		tools.RecommendAttractions: renderAttractions,
		tools.RecommendRestaurants: renderRestaurants,
		tools.TransportOptions:     renderTransport,
		tools.SeasonalTravelAdvice: renderSeasonalAdvice,
	}}
}

// Register adds or replaces the renderer for a tool.
func (f *Formatter) Register(tool string, r Renderer) {
	f.renderers[tool] = r
}

// Format renders res for call. It returns false when no renderer exists for
// the tool.
func (f *Formatter) Format(call tools.Call, res Result) (string, bool) {
	r, ok := f.renderers[call.ToolName()]
	if !ok {
		return "", false
	}
	return r(res, call), true
}

// BookingSlug lower-cases name, replaces spaces with hyphens and strips apostrophes.
func BookingSlug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer("'", "", "\u2019", "").Replace(s)
	return strings.Join(strings.Fields(s), "-")
}

func bookingLink(rec types.Record, domain, name string, keys ...string) string {
	if link := text(rec, keys...); link != "" {
		return link
	}
	return domain + BookingSlug(name)
}

// text returns the first non-empty value among keys, or "".
func text(rec types.Record, keys ...string) string {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprint(v))
		if s != "" {
			return s
		}
	}
	return ""
}

func field(rec types.Record, keys ...string) string {
	if s := text(rec, keys...); s != "" {
		return s
	}
	return NotSpecified
}

func price(rec types.Record, keys ...string) string {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case float64:
			if v == float64(int64(v)) {
				return "$" + strconv.FormatInt(int64(v), 10)
			}
			return "$" + strconv.FormatFloat(v, 'f', 2, 64)
		case float32:
			return price(types.Record{k: float64(v)}, k)
		case int:
			return "$" + strconv.Itoa(v)
		case int64:
			return "$" + strconv.FormatInt(v, 10)
		case string:
			if v = strings.TrimSpace(v); v != "" {
				if strings.HasPrefix(v, "$") {
					return v
				}
				return "$" + v
			}
		}
	}
	return NotSpecified
}

// recognised reports whether rec carries any of the fields a renderer knows.
func recognised(rec types.Record, keys ...string) bool {
	return lo.SomeBy(keys, func(k string) bool { _, ok := rec[k]; return ok })
}

// rawRecord renders a record as sorted key/value pairs.
func rawRecord(rec types.Record) string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", strings.ReplaceAll(k, "_", " "), rec[k]))
	}
	return strings.Join(parts, ", ")
}

// rawText renders any result as plain readable text.
func rawText(res Result) string {
	if len(res.Records) == 0 {
		return res.Scalar
	}
	lines := make([]string, 0, len(res.Records))
	for _, r := range res.Records {
		lines = append(lines, "- "+rawRecord(r))
	}
	return strings.Join(lines, "\n")
}

func withFollowUp(body, followUp string) string {
	return strings.TrimRight(body, "\n") + "\n\n" + followUp
}

func renderFlights(res Result, c tools.Call) string {
	call, _ := c.(tools.FlightSearchCall)
	from, to := or(call.FromLocation, "your departure city"), or(call.ToLocation, "your destination")
	followUp := fmt.Sprintf("Would you like me to find hotels in %s as well?", to)

	var b strings.Builder
	fmt.Fprintf(&b, "Here are some flights from %s to %s", from, to)
	if call.DateRange != "" {
		fmt.Fprintf(&b, " for %s", call.DateRange)
	}
	b.WriteString(":\n\n")
	if len(res.Records) == 0 {
		b.WriteString(res.Scalar)
		return withFollowUp(b.String(), followUp)
	}
	for i, r := range res.Records {
		if !recognised(r, "airline", "price_usd", "price", "departure_date") {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rawRecord(r))
			continue
		}
		airline := field(r, "airline", "carrier")
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, airline, price(r, "price_usd", "price"))
		fmt.Fprintf(&b, "   Route: %s to %s\n", field(r, "from"), field(r, "to"))
		fmt.Fprintf(&b, "   Departs: %s | Returns: %s\n", field(r, "departure_date", "departure"), field(r, "return_date", "return"))
		fmt.Fprintf(&b, "   Book here: %s\n", bookingLink(r, promptBuilder.FlightsBookingDomain, linkName(airline, to), "mock_booking_link", "booking_link"))
	}
	return withFollowUp(b.String(), followUp)
}

func renderHotels(res Result, c tools.Call) string {
	call, _ := c.(tools.HotelRecommendationCall)
	location := or(call.Location, "your destination")
	followUp := fmt.Sprintf("Would you like some suggestions for things to do in %s?", location)

	var b strings.Builder
	fmt.Fprintf(&b, "Here are some hotel options in %s", location)
	if call.Budget != "" {
		fmt.Fprintf(&b, " for a %s budget", call.Budget)
	}
	b.WriteString(":\n\n")
	if len(res.Records) == 0 {
		b.WriteString(res.Scalar)
		return withFollowUp(b.String(), followUp)
	}
	for i, r := range res.Records {
		if !recognised(r, "name", "price_per_night_usd", "price", "rating") {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rawRecord(r))
			continue
		}
		name := field(r, "name", "hotel")
		fmt.Fprintf(&b, "%d. %s - %s per night, rated %s\n", i+1, name, price(r, "price_per_night_usd", "price"), field(r, "rating"))
		fmt.Fprintf(&b, "   Book here: %s\n", bookingLink(r, promptBuilder.HotelsBookingDomain, linkName(name, location), "mock_booking_link", "booking_link"))
	}
	return withFollowUp(b.String(), followUp)
}

func renderAttractions(res Result, c tools.Call) string {
	call, _ := c.(tools.AttractionRecommendationCall)
	location := or(call.Location, "your destination")
	followUp := fmt.Sprintf("Shall I recommend some restaurants in %s too?", location)

	var b strings.Builder
	fmt.Fprintf(&b, "Here are some top attractions in %s:\n\n", location)
	if len(res.Records) == 0 {
		b.WriteString(res.Scalar)
		return withFollowUp(b.String(), followUp)
	}
	for i, r := range res.Records {
		if !recognised(r, "name", "description") {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rawRecord(r))
			continue
		}
		name := field(r, "name")
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		fmt.Fprintf(&b, "   %s\n", field(r, "description"))
		fmt.Fprintf(&b, "   More info: %s\n", bookingLink(r, promptBuilder.AttractionsBookingDomain, linkName(name, location), "mock_booking_link", "link", "url"))
	}
	return withFollowUp(b.String(), followUp)
}

func renderRestaurants(res Result, c tools.Call) string {
	call, _ := c.(tools.RestaurantRecommendationCall)
	location := or(call.Location, "your destination")
	followUp := fmt.Sprintf("Would you like to know the transport options for getting around %s?", location)

	var b strings.Builder
	if call.Cuisine != "" && call.Cuisine != "any" {
		fmt.Fprintf(&b, "Here are some %s restaurants in %s:\n\n", call.Cuisine, location)
	} else {
		fmt.Fprintf(&b, "Here are some restaurants in %s:\n\n", location)
	}
	if len(res.Records) == 0 {
		b.WriteString(res.Scalar)
		return withFollowUp(b.String(), followUp)
	}
	for i, r := range res.Records {
		if !recognised(r, "name", "cuisine", "rating") {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rawRecord(r))
			continue
		}
		name := field(r, "name")
		fmt.Fprintf(&b, "%d. %s (%s cuisine) - rated %s\n", i+1, name, field(r, "cuisine"), field(r, "rating"))
		fmt.Fprintf(&b, "   Reserve: %s\n", bookingLink(r, promptBuilder.RestaurantsBookingDomain, linkName(name, location), "mock_booking_link", "reservation_link"))
	}
	return withFollowUp(b.String(), followUp)
}

var transportOrder = map[string]int{"bus": 0, "train": 1, "flight": 2, "car": 3}

type transportOption struct {
	mode string
	rec  types.Record
}

// transportOptions accepts both a list of records with a "mode" field and a
// single record keyed by mode.
func transportOptions(res Result) ([]transportOption, []types.Record) {
	var opts []transportOption
	var unknown []types.Record
	for _, r := range res.Records {
		if mode := text(r, "mode", "type"); mode != "" {
			opts = append(opts, transportOption{mode: mode, rec: r})
			continue
		}
		nested := false
		for k, v := range r {
			switch m := v.(type) {
			case map[string]any:
				opts = append(opts, transportOption{mode: k, rec: m})
				nested = true
			case types.Record:
				opts = append(opts, transportOption{mode: k, rec: m})
				nested = true
			}
		}
		if !nested {
			unknown = append(unknown, r)
		}
	}
	sort.SliceStable(opts, func(i, j int) bool {
		oi, iok := transportOrder[strings.ToLower(opts[i].mode)]
		oj, jok := transportOrder[strings.ToLower(opts[j].mode)]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return opts[i].mode < opts[j].mode
		}
	})
	return opts, unknown
}

func renderTransport(res Result, c tools.Call) string {
	call, _ := c.(tools.TransportOptionsCall)
	from, to := or(call.FromLocation, "your starting point"), or(call.ToLocation, "your destination")
	followUp := fmt.Sprintf("Would you like me to look up hotels in %s, or check the best season to visit?", to)

	var b strings.Builder
	fmt.Fprintf(&b, "Here are the ways to get from %s to %s:\n\n", from, to)
	opts, unknown := transportOptions(res)
	for _, o := range opts {
		fmt.Fprintf(&b, "- %s: %s, %s\n", titleWord(o.mode), field(o.rec, "duration"), price(o.rec, "price_usd", "price"))
	}
	for _, r := range unknown {
		fmt.Fprintf(&b, "- %s\n", rawRecord(r))
	}
	if len(res.Records) == 0 {
		b.WriteString(res.Scalar)
	}
	return withFollowUp(b.String(), followUp)
}

func renderSeasonalAdvice(res Result, c tools.Call) string {
	call, _ := c.(tools.SeasonalAdviceCall)
	dest := or(call.Destination, "your destination")
	followUp := fmt.Sprintf("Would you like me to search for flights to %s for that time of year?", dest)

	advice := res.Scalar
	if advice == "" && len(res.Records) > 0 {
		advice = text(res.Records[0], "advice", "tip", "description")
		if advice == "" {
			advice = rawText(res)
		}
	}
	return withFollowUp(fmt.Sprintf("Here's some seasonal advice for %s: %s", dest, advice), followUp)
}

// linkName avoids building a link from the placeholder.
func linkName(name, fallback string) string {
	if name == NotSpecified {
		return fallback
	}
	return name
}

// titleWord builds a fresh Caser per call; Casers are not safe for concurrent use.
func titleWord(s string) string {
	return cases.Title(language.English).String(s)
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
