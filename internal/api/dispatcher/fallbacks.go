package dispatcher

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-travel-assistant/internal/api/tools"
)

const (
	modelUnavailableMessage = "I'm sorry, I couldn't process your request right now. Please try again in a moment."
	unsupportedToolMessage  = "Sorry, I couldn't handle that request. Could you try asking in a different way?"
)

func unknownToolMessage(query string) string {
	return "I don't have access to the tool needed for this query. Here's what I understand about your request: " + strings.TrimSpace(query)
}

var toolFailureMessages = map[string]string{
	tools.SearchFlights:        "I couldn't search for flights right now. Could you double-check the departure city, destination and travel dates?",
	tools.RecommendHotels:      "I couldn't look up hotels right now. Could you tell me the city and your budget again?",
	tools.RecommendAttractions: "I couldn't fetch attractions right now. Which city would you like to explore?",
	tools.RecommendRestaurants: "I couldn't find restaurant suggestions right now. Could you tell me the city and the kind of food you like?",
	tools.TransportOptions:     "I couldn't check transport options right now. Where are you starting from and where are you heading?",
	tools.SeasonalTravelAdvice: "I couldn't get seasonal advice right now. Which destination are you thinking about?",
}

var missingInfoMessages = map[string]string{
	tools.SearchFlights:        "I need a bit more information to search for flights: where are you flying from and where to?",
	tools.RecommendHotels:      "Which city would you like hotel recommendations for?",
	tools.RecommendAttractions: "Which city would you like attraction recommendations for?",
	tools.RecommendRestaurants: "Which city would you like restaurant recommendations for?",
	tools.TransportOptions:     "To compare transport options I need both a starting point and a destination. Where are you travelling between?",
	tools.SeasonalTravelAdvice: "Which destination would you like seasonal travel advice for?",
}

func toolFailureMessage(tool string) string {
	if msg, ok := toolFailureMessages[tool]; ok {
		return msg
	}
	return unsupportedToolMessage
}

func missingInfoMessage(tool string) string {
	if msg, ok := missingInfoMessages[tool]; ok {
		return msg
	}
	return toolFailureMessage(tool)
}

func noResultsMessage(call tools.Call) string {
	switch c := call.(type) {
	case tools.FlightSearchCall:
		return fmt.Sprintf("I couldn't find any flights from %s to %s. Would you like to try different dates or nearby airports?", c.FromLocation, c.ToLocation)
	case tools.HotelRecommendationCall:
		return fmt.Sprintf("I couldn't find any hotels in %s for that budget. Would you like to try a different budget or area?", c.Location)
	case tools.AttractionRecommendationCall:
		return fmt.Sprintf("I couldn't find any attractions in %s. Would you like to try a nearby city?", c.Location)
	case tools.RestaurantRecommendationCall:
		return fmt.Sprintf("I couldn't find any matching restaurants in %s. Would you like to try a different cuisine?", c.Location)
	case tools.TransportOptionsCall:
		return fmt.Sprintf("I couldn't find any transport options from %s to %s. Would you like to try different locations?", c.FromLocation, c.ToLocation)
	case tools.SeasonalAdviceCall:
		return fmt.Sprintf("I don't have seasonal advice for %s yet. Would you like to ask about another destination?", c.Destination)
	default:
		return "No results found for that request. Could you adjust your criteria and try again?"
	}
}
