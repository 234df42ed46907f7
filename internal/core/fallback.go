package core

import (
	"context"
	"strings"

	"gwi.com/venue-assistant/internal/models"
)

// FallbackResponder answers from keyword rules and the database context. It is
// used when no LLM is configured or the LLM call fails.
type FallbackResponder struct{}

func (FallbackResponder) GenerateResponse(_ context.Context, _ []models.ChatMessage, userQuery, venueContext string) (string, error) {
	msg := strings.ToLower(userQuery)

	switch {
	case containsAny(msg, "venue", "space", "hall", "room"):
		if strings.Contains(venueContext, sectionVenues) {
			return "I can help you with venue bookings! Here's what we have available:\n\n" + venueContext + "\n\nWhat type of venue are you looking for?", nil
		}
		return "I can help you with venue bookings! We have various spaces available. What type of venue are you looking for?", nil

	case containsAny(msg, "price", "cost", "rate", "fee"):
		if strings.Contains(venueContext, sectionPricing) {
			return "Here are our current venue rates:\n\n" + venueContext + "\n\nWould you like more specific pricing information for a particular venue?", nil
		}
		return "Our venue pricing varies based on size, duration, and amenities. Would you like more specific pricing information?", nil

	case containsAny(msg, "book", "reserve", "schedule"):
		return "Great! To book a venue, I'll need to know the date, time, number of people, and type of event. You can also check availability for specific dates. When would you like to book?", nil

	case containsAny(msg, "availability", "available", "free"):
		if strings.Contains(venueContext, sectionVenues) {
			return "Here's our current availability:\n\n" + venueContext + "\n\nPlease let me know the date and time you're interested in, and I can check specific availability.", nil
		}
		return "I can check venue availability for you. Please let me know the date and time you're interested in, and I'll show you what's available.", nil

	case containsAny(msg, "capacity", "people", "size", "large", "small"):
		if strings.Contains(venueContext, sectionCapacity) {
			return "Here are our venue capacities:\n\n" + venueContext + "\n\nWhat size event are you planning?", nil
		}
		return "Our venues have different capacities. What size event are you planning?", nil

	case containsAny(msg, "hello", "hi", "hey"):
		return "Hello! I'm here to help you with venue bookings, pricing information, and event planning. How can I assist you today?", nil
	}

	return "Thank you for your message! I'm here to help with venue bookings and event planning. You can ask me about available spaces, pricing, or how to make a reservation. What would you like to know?", nil
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
