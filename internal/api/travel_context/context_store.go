package travelContext

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/FACorreiaa/go-travel-assistant/internal/types"
)

// Store owns one session's travel context. It is not safe for concurrent use;
// each session gets its own Store and a single pipeline mutates it.
type Store struct {
	ctx types.SessionContext
	now func() time.Time
}

// NewStore returns a Store holding an empty context.
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.ctx = emptyContext(s.now())
	return s
}

// FromSerializable rebuilds a Store from its key/value form. The timestamp is
// kept as-is so that a round trip is lossless.
func FromSerializable(sc types.SerializableContext) *Store {
	s := &Store{now: time.Now}
	s.ctx = types.SessionContext{
		Location:              strings.TrimSpace(sc.Location),
		Preferences:           make(map[string]any, len(sc.Preferences)),
		RecentSearches:        make([]string, 0, len(sc.RecentSearches)),
		MentionedDestinations: make(map[string]struct{}, len(sc.MentionedDestinations)),
		CurrentTrip:           sc.CurrentTrip,
		LastUpdated:           sc.LastUpdated,
	}
	maps.Copy(s.ctx.Preferences, sc.Preferences)
	for _, q := range sc.RecentSearches {
		q = strings.TrimSpace(q)
		if q == "" || lo.Contains(s.ctx.RecentSearches, q) {
			continue
		}
		s.ctx.RecentSearches = append(s.ctx.RecentSearches, q)
	}
	if len(s.ctx.RecentSearches) > types.MaxRecentSearches {
		s.ctx.RecentSearches = s.ctx.RecentSearches[:types.MaxRecentSearches]
	}
	for _, d := range sc.MentionedDestinations {
		if d = strings.TrimSpace(d); d != "" {
			s.ctx.MentionedDestinations[d] = struct{}{}
		}
	}
	if s.ctx.LastUpdated.IsZero() {
		s.ctx.LastUpdated = s.now()
	}
	return s
}

func emptyContext(now time.Time) types.SessionContext {
	return types.SessionContext{
		Preferences:           map[string]any{},
		RecentSearches:        []string{},
		MentionedDestinations: map[string]struct{}{},
		LastUpdated:           now,
	}
}

// GetContext returns a deep copy of the current context.
func (s *Store) GetContext() types.SessionContext {
	c := s.ctx
	c.Preferences = maps.Clone(s.ctx.Preferences)
	c.RecentSearches = slices.Clone(s.ctx.RecentSearches)
	c.MentionedDestinations = maps.Clone(s.ctx.MentionedDestinations)
	return c
}

// Location is the user's self-reported location, empty when unknown.
func (s *Store) Location() string { return s.ctx.Location }

// CurrentTrip returns the trip draft.
func (s *Store) CurrentTrip() types.TripDraft { return s.ctx.CurrentTrip }

func (s *Store) SetLocation(location string) {
	s.ctx.Location = strings.TrimSpace(location)
	s.touch()
}

// SetPreferences merges prefs into the stored preferences. Empty values never
// overwrite an existing setting.
func (s *Store) SetPreferences(prefs map[string]any) {
	for key, value := range prefs {
		if key == "" || isEmptyValue(value) {
			continue
		}
		s.ctx.Preferences[key] = value
	}
	s.touch()
}

// AddSearch records query as the most recent search. A repeated query moves
// to the front; the list never grows past MaxRecentSearches.
func (s *Store) AddSearch(query string) {
	query = strings.TrimSpace(query)
	if query != "" {
		rest := lo.Without(s.ctx.RecentSearches, query)
		s.ctx.RecentSearches = append([]string{query}, rest...)
		if len(s.ctx.RecentSearches) > types.MaxRecentSearches {
			s.ctx.RecentSearches = s.ctx.RecentSearches[:types.MaxRecentSearches]
		}
	}
	s.touch()
}

func (s *Store) AddMentionedDestination(name string) {
	if name = strings.TrimSpace(name); name != "" {
		s.ctx.MentionedDestinations[name] = struct{}{}
	}
	s.touch()
}

// UpdateCurrentTrip fills in the trip draft. Empty arguments leave the
// corresponding field untouched. A new destination is also recorded as mentioned.
func (s *Store) UpdateCurrentTrip(update types.TripDraft) {
	if update.IsEmpty() {
		return
	}
	trip := &s.ctx.CurrentTrip
	if v := strings.TrimSpace(update.Origin); v != "" {
		trip.Origin = v
	}
	if v := strings.TrimSpace(update.Destination); v != "" {
		trip.Destination = v
		s.ctx.MentionedDestinations[v] = struct{}{}
	}
	if v := strings.TrimSpace(update.DateRange); v != "" {
		trip.DateRange = v
	}
	if v := strings.TrimSpace(update.Budget); v != "" {
		trip.Budget = v
	}
	s.touch()
}

// Clear resets the context to empty defaults.
func (s *Store) Clear() {
	s.ctx = emptyContext(s.now())
}

// ToSerializable returns the key/value form. Mentioned destinations are sorted
// so the output is stable.
func (s *Store) ToSerializable() types.SerializableContext {
	dests := slices.Sorted(maps.Keys(s.ctx.MentionedDestinations))
	if dests == nil {
		dests = []string{}
	}
	return types.SerializableContext{
		Location:              s.ctx.Location,
		Preferences:           maps.Clone(s.ctx.Preferences),
		RecentSearches:        slices.Clone(s.ctx.RecentSearches),
		MentionedDestinations: dests,
		CurrentTrip:           s.ctx.CurrentTrip,
		LastUpdated:           s.ctx.LastUpdated,
	}
}

// DisplayDestinations returns at most MaxDisplayedDestinations mentioned destinations.
func (s *Store) DisplayDestinations() []string {
	dests := s.ToSerializable().MentionedDestinations
	if len(dests) > types.MaxDisplayedDestinations {
		dests = dests[:types.MaxDisplayedDestinations]
	}
	return dests
}

func (s *Store) touch() {
	s.ctx.LastUpdated = s.now()
}

// isEmptyValue follows the usual truthiness rules: nil, blank strings, zero
// numbers, false and empty collections do not count as a value.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if str, ok := v.(string); ok {
		return strings.TrimSpace(str) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return rv.IsZero()
	}
}
