package travelContext

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// Facts is what an extractor found in one message.
type Facts struct {
	Destinations []string
	Origin       string
	Destination  string
	DateRange    string
	Budget       string
	Interests    []string
}

// FactExtractor turns free text into structured travel facts. The heuristic
// implementation below can be swapped for a proper NLP component.
type FactExtractor interface {
	ExtractFacts(text string) Facts
}

var defaultGazetteer = []string{
	"New York", "Los Angeles", "San Francisco", "Chicago", "Miami", "Las Vegas", "Boston", "Washington",
	"Toronto", "Vancouver", "Mexico City", "Cancun", "Rio de Janeiro", "Buenos Aires", "Lima",
	"London", "Paris", "Rome", "Milan", "Venice", "Florence", "Naples", "Nice", "Barcelona", "Madrid",
	"Lisbon", "Porto", "Amsterdam", "Berlin", "Munich", "Vienna", "Prague", "Budapest", "Zurich",
	"Athens", "Istanbul", "Dublin", "Edinburgh", "Copenhagen", "Stockholm", "Oslo",
	"Dubai", "Cairo", "Marrakech", "Cape Town", "Tokyo", "Kyoto", "Osaka", "Seoul", "Beijing",
	"Shanghai", "Hong Kong", "Singapore", "Bangkok", "Bali", "Sydney", "Melbourne", "Auckland",
	"Greece", "Italy", "France", "Spain", "Portugal", "Egypt", "Japan", "Thailand", "Mexico",
}

// replyGazetteer is the smaller list used over the assistant's own replies.
var replyGazetteer = []string{
	"New York", "Rome", "Paris", "London", "Tokyo", "Greece",
	"Italy", "France", "Egypt", "Milan", "Barcelona", "Madrid",
	"Amsterdam", "Berlin", "Vienna", "Prague", "Budapest",
}

var defaultAliases = map[string]string{
	"NYC":       "New York",
	"LA":        "Los Angeles",
	"SF":        "San Francisco",
	"Big Apple": "New York",
	"Roma":      "Rome",
	"Lisboa":    "Lisbon",
	"Praha":     "Prague",
}

// Names that are also ordinary English words only match when capitalised.
var caseSensitiveNames = map[string]struct{}{
	"Nice": {},
}

var defaultInterests = []string{
	"beach", "mountain", "museum", "food", "culture", "history",
	"adventure", "relax", "shopping", "nightlife", "nature",
}

var budgetBuckets = []struct {
	level   string
	pattern *regexp.Regexp
}{
	{types.BudgetLow, anyWord("low", "budget", "cheap", "inexpensive", "affordable")},
	{types.BudgetMedium, anyWord("medium", "moderate", "standard", "average")},
	{types.BudgetHigh, anyWord("high", "luxury", "expensive", "premium", "upscale")},
}

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`

var (
	reExplicitRange = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\s+to\s+(\d{4}-\d{2}-\d{2})\b`)
	reMonthYear     = regexp.MustCompile(`(?i)\b(` + monthNames + `)\s+(\d{4})\b`)
	reOrdinalMonth  = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\s+(?:of\s+)?(` + monthNames + `)\b`)
	reNextWeek      = regexp.MustCompile(`(?i)\bnext\s+week\b`)
	reNextMonth     = regexp.MustCompile(`(?i)\bnext\s+month\b`)
	reInDays        = regexp.MustCompile(`(?i)\bin\s+(\d+)\s+days?\b`)
	reInWeeks       = regexp.MustCompile(`(?i)\bin\s+(\d+)\s+weeks?\b`)
	reFromTo        = regexp.MustCompile(`(?i)\bfrom\s+(.+?)\s+to\s+(.+?)(?:[.,!?;]|\s+(?:on|in|for|next|between|during|with|and|around|by)\b|$)`)
)

type term struct {
	canonical string
	pattern   *regexp.Regexp
	// afterPreposition matches the term right after "to", "in" or "for".
	afterPreposition *regexp.Regexp
}

func newTerm(canonical, name string, caseSensitive bool) term {
	expr := `\b` + regexp.QuoteMeta(name) + `\b`
	if !caseSensitive {
		expr = `(?i:` + expr + `)`
	}
	return term{
		canonical:        canonical,
		pattern:          regexp.MustCompile(expr),
		afterPreposition: regexp.MustCompile(`(?i:\b(?:to|in|for))\s+` + expr),
	}
}

// HeuristicExtractor matches text against a gazetteer, an alias table and
// keyword buckets.
type HeuristicExtractor struct {
	terms         []term
	interests     []term
	detectTrip    bool
	detectDetails bool
}

// NewMessageExtractor builds the extractor applied to user messages.
func NewMessageExtractor() *HeuristicExtractor {
	return newHeuristicExtractor(defaultGazetteer, defaultAliases, nil, true)
}

// NewReplyExtractor builds the lighter extractor applied to assistant replies:
// destinations and interests only.
func NewReplyExtractor() *HeuristicExtractor {
	return newHeuristicExtractor(replyGazetteer, nil, defaultInterests, false)
}

func newHeuristicExtractor(gazetteer []string, aliases map[string]string, interests []string, full bool) *HeuristicExtractor {
	e := &HeuristicExtractor{detectTrip: full, detectDetails: full}
	for _, name := range gazetteer {
		_, caseSensitive := caseSensitiveNames[name]
		e.terms = append(e.terms, newTerm(name, name, caseSensitive))
	}
	aliasKeys := lo.Keys(aliases)
	sort.Strings(aliasKeys)
	for _, alias := range aliasKeys {
		// Short aliases such as "LA" would match ordinary words case-insensitively.
		e.terms = append(e.terms, newTerm(aliases[alias], alias, len(alias) <= 3))
	}
	for _, kw := range interests {
		e.interests = append(e.interests, term{canonical: kw, pattern: wholeWord(kw)})
	}
	return e
}

func wholeWord(s string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(s) + `\b`)
}

func anyWord(words ...string) *regexp.Regexp {
	quoted := lo.Map(words, func(w string, _ int) string { return regexp.QuoteMeta(w) })
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// ExtractFacts runs the full pipeline over text.
func (e *HeuristicExtractor) ExtractFacts(text string) Facts {
	var f Facts
	f.Destinations = e.ExtractDestinations(text)
	if e.detectTrip {
		f.Origin, f.Destination = e.pairOriginDestination(text, f.Destinations)
	}
	if e.detectDetails {
		f.DateRange = ExtractDateRange(text)
		f.Budget = ExtractBudget(text)
	}
	for _, kw := range e.interests {
		if kw.pattern.MatchString(text) {
			f.Interests = append(f.Interests, kw.canonical)
		}
	}
	return f
}

// ExtractDestinations returns the known destinations mentioned in text,
// deduplicated and ordered by first occurrence. A name inside a longer match
// ("Mexico" in "Mexico City") does not count.
func (e *HeuristicExtractor) ExtractDestinations(text string) []string {
	type hit struct {
		name       string
		start, end int
	}
	var hits []hit
	for _, t := range e.terms {
		for _, loc := range t.pattern.FindAllStringIndex(text, -1) {
			hits = append(hits, hit{name: t.canonical, start: loc[0], end: loc[1]})
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		return hits[i].end > hits[j].end
	})
	var names []string
	covered := -1
	for _, h := range hits {
		if h.start < covered {
			continue
		}
		names = append(names, h.name)
		covered = h.end
	}
	return lo.Uniq(names)
}

func (e *HeuristicExtractor) pairOriginDestination(text string, dests []string) (origin, destination string) {
	switch {
	case len(dests) >= 2:
		m := reFromTo.FindStringSubmatch(text)
		if m == nil {
			return "", ""
		}
		return e.matchDestination(m[1], dests), e.matchDestination(m[2], dests)
	case len(dests) == 1:
		for _, t := range e.terms {
			if t.canonical == dests[0] && t.afterPreposition.MatchString(text) {
				return "", dests[0]
			}
		}
	}
	return "", ""
}

// matchDestination maps a captured phrase back onto a detected destination by
// case-insensitive containment of the name or one of its aliases.
func (e *HeuristicExtractor) matchDestination(phrase string, dests []string) string {
	for _, t := range e.terms {
		if !lo.Contains(dests, t.canonical) {
			continue
		}
		if t.pattern.MatchString(phrase) {
			return t.canonical
		}
	}
	return ""
}

// ExtractDateRange returns the first date expression found, trying explicit
// ranges, month and year, ordinal day and month, then relative phrases.
func ExtractDateRange(text string) string {
	if m := reExplicitRange.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s to %s", m[1], m[2])
	}
	if m := reMonthYear.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s %s", capitalize(m[1]), m[2])
	}
	if m := reOrdinalMonth.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s%s %s", m[1], strings.ToLower(m[2]), capitalize(m[3]))
	}
	if reNextWeek.MatchString(text) {
		return "within a week"
	}
	if reNextMonth.MatchString(text) {
		return "within a month"
	}
	if m := reInDays.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("within %s days", m[1])
	}
	if m := reInWeeks.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("within %s weeks", m[1])
	}
	return ""
}

// ExtractBudget returns "low", "medium" or "high", or "" when no budget term
// is present. Buckets are checked in that order.
func ExtractBudget(text string) string {
	for _, b := range budgetBuckets {
		if b.pattern.MatchString(text) {
			return b.level
		}
	}
	return ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// Apply writes facts into the store. A destination given without an origin
// defaults the origin to the user's location when the trip has none yet.
func Apply(store *Store, f Facts) {
	for _, d := range f.Destinations {
		store.AddMentionedDestination(d)
	}
	update := types.TripDraft{
		Origin:      f.Origin,
		Destination: f.Destination,
		DateRange:   f.DateRange,
		Budget:      f.Budget,
	}
	if update.Destination != "" && update.Origin == "" && store.CurrentTrip().Origin == "" && store.Location() != "" {
		update.Origin = store.Location()
	}
	store.UpdateCurrentTrip(update)
	if len(f.Interests) > 0 {
		store.mergeInterests(f.Interests)
	}
}

const conversationInterestsKey = "conversation_interests"

func (s *Store) mergeInterests(interests []string) {
	var existing []string
	switch v := s.ctx.Preferences[conversationInterestsKey].(type) {
	case []string:
		existing = v
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok {
				existing = append(existing, str)
			}
		}
	}
	s.SetPreferences(map[string]any{conversationInterestsKey: lo.Uniq(append(existing, interests...))})
}
