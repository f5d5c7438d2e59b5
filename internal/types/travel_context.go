package types

import "time"

const (
	// MaxRecentSearches caps SessionContext.RecentSearches.
	MaxRecentSearches = 10
	// MaxDisplayedDestinations is how many mentioned destinations are shown in prompts and summaries.
	MaxDisplayedDestinations = 5
)

// TripDraft is the trip currently under discussion. Fields are only ever
// overwritten by a new non-empty value.
type TripDraft struct {
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
	DateRange   string `json:"date_range,omitempty"`
	Budget      string `json:"budget,omitempty"`
}

// IsEmpty reports whether no field of the draft has been filled in yet.
func (t TripDraft) IsEmpty() bool {
	return t.Origin == "" && t.Destination == "" && t.DateRange == "" && t.Budget == ""
}

// SessionContext is the per-conversation travel memory. It is owned by a single
// pipeline at a time and is never shared between sessions.
type SessionContext struct {
	Location              string
	Preferences           map[string]any
	RecentSearches        []string
	MentionedDestinations map[string]struct{}
	CurrentTrip           TripDraft
	LastUpdated           time.Time
}

// SerializableContext is the plain key/value form of SessionContext used in
// prompts, HTTP payloads and across process boundaries. The destination set
// becomes a list.
type SerializableContext struct {
	Location              string         `json:"location,omitempty"`
	Preferences           map[string]any `json:"preferences"`
	RecentSearches        []string       `json:"recent_searches"`
	MentionedDestinations []string       `json:"mentioned_destinations"`
	CurrentTrip           TripDraft      `json:"current_trip"`
	LastUpdated           time.Time      `json:"last_updated"`
}

// Budget levels recognised by the extractor and the hotel tool.
const (
	BudgetLow    = "low"
	BudgetMedium = "medium"
	BudgetHigh   = "high"
)
