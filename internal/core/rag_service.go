package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"gwi.com/venue-assistant/internal/logging"
	"gwi.com/venue-assistant/internal/models"
	"gwi.com/venue-assistant/internal/store"
	"gwi.com/venue-assistant/internal/utils"
)

const (
	NumRelevantVenues   = 3   // Number of venues retrieved by similarity
	SimilarityThreshold = 0.6 // Minimum similarity for a venue to count as relevant
	recentBookingWindow = 7 * 24 * time.Hour
	recentBookingLimit  = 5

	sectionVenues    = "Available Venues:"
	sectionBookings  = "Recent Bookings:"
	sectionPricing   = "Venue Pricing:"
	sectionCapacity  = "Venue Capacities:"
	sectionRelevant  = "Best Matching Venues:"
	noContextMessage = "No specific database information available."
)

// RAGService assembles the database context handed to the responder: keyword
// sections about venues, bookings, pricing and capacity, plus the venues whose
// descriptions are semantically closest to the query when an embedder is set.
type RAGService struct {
	dbStore  *store.SQLiteStore
	embedder Embedder
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	vectors map[int64][]float32 // In-memory cache of venue description embeddings
}

func NewRAGService(db *store.SQLiteStore, embedder Embedder, logger *zap.Logger) *RAGService {
	return &RAGService{
		dbStore:  db,
		embedder: embedder,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
}

// Invalidate drops the cached venue embeddings. Venue writes call it.
func (s *RAGService) Invalidate() {
	s.mu.Lock()
	s.vectors = nil
	s.mu.Unlock()
}

func (s *RAGService) GetRelevantContext(ctx context.Context, query string) (string, error) {
	msg := strings.ToLower(query)
	var lines []string

	needVenues := containsAny(msg, "venue", "space", "hall", "room", "available", "list")
	needPricing := containsAny(msg, "price", "cost", "rate", "fee")
	needCapacity := containsAny(msg, "capacity", "people", "size", "large", "small")

	var venues []models.Venue
	if needVenues || needPricing || needCapacity || s.embedder != nil {
		var err error
		venues, err = s.dbStore.ListVenues(ctx, models.VenueFilter{}, true)
		if err != nil {
			return "", fmt.Errorf("failed to load venues for context: %w", err)
		}
	}

	if needVenues {
		if len(venues) == 0 {
			lines = append(lines, "No venues currently available.")
		} else {
			lines = append(lines, sectionVenues)
			for _, v := range venues {
				lines = append(lines, fmt.Sprintf("- %s: Capacity %d, Rate $%.2f/hour", v.Name, v.Capacity, v.HourlyRate))
				if v.Description != "" {
					lines = append(lines, "  Description: "+v.Description)
				}
			}
		}
	}

	if containsAny(msg, "booking", "booked", "reservation", "schedule") {
		recent, err := s.dbStore.RecentBookings(ctx, s.now().Add(-recentBookingWindow), recentBookingLimit)
		if err != nil {
			return "", fmt.Errorf("failed to load recent bookings for context: %w", err)
		}
		if len(recent) == 0 {
			lines = append(lines, "No recent bookings found.")
		} else {
			lines = append(lines, sectionBookings)
			for _, b := range recent {
				lines = append(lines, fmt.Sprintf("- %s on %s", b.Venue.Name, b.StartTime.Format("2006-01-02 15:04")))
				lines = append(lines, fmt.Sprintf("  Status: %s, Hours: %.1f", b.Status, b.EndTime.Sub(b.StartTime).Hours()))
			}
		}
	}

	if needPricing && len(venues) > 0 {
		lines = append(lines, sectionPricing)
		for _, v := range venues {
			lines = append(lines, fmt.Sprintf("- %s: $%.2f/hour", v.Name, v.HourlyRate))
		}
	}

	if needCapacity && len(venues) > 0 {
		lines = append(lines, sectionCapacity)
		for _, v := range venues { // already ordered by capacity
			lines = append(lines, fmt.Sprintf("- %s: %d people", v.Name, v.Capacity))
		}
	}

	if s.embedder != nil && len(venues) > 0 {
		relevant, err := s.relevantVenues(ctx, query, venues)
		if err != nil {
			// Semantic ranking is optional; keyword context still applies.
			s.logger.Warn("venue similarity ranking failed", zap.Error(err))
		} else if len(relevant) > 0 {
			lines = append(lines, sectionRelevant)
			for _, r := range relevant {
				lines = append(lines, fmt.Sprintf("- %s (capacity %d, match %.2f)", r.Item.Name, r.Item.Capacity, r.Score))
			}
		}
	}

	if len(lines) == 0 {
		return noContextMessage, nil
	}
	return strings.Join(lines, "\n"), nil
}

func (s *RAGService) relevantVenues(ctx context.Context, query string, venues []models.Venue) ([]utils.Scored[models.Venue], error) {
	vectors, err := s.venueVectors(ctx, venues)
	if err != nil {
		return nil, err
	}
	queryEmbedding, err := s.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get query embedding: %w", err)
	}
	return utils.TopK(queryEmbedding, venues, func(v models.Venue) []float32 { return vectors[v.ID] }, SimilarityThreshold, NumRelevantVenues), nil
}

// venueVectors embeds every venue that is not cached yet.
func (s *RAGService) venueVectors(ctx context.Context, venues []models.Venue) (map[int64][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vectors == nil {
		s.vectors = make(map[int64][]float32, len(venues))
	}
	for _, v := range venues {
		if _, ok := s.vectors[v.ID]; ok {
			continue
		}
		vec, err := s.embedder.GetEmbedding(ctx, fmt.Sprintf("%s. %s. Capacity %d people.", v.Name, v.Description, v.Capacity))
		if err != nil {
			return nil, fmt.Errorf("failed to embed venue %d: %w", v.ID, err)
		}
		s.vectors[v.ID] = vec
	}

	out := make(map[int64][]float32, len(s.vectors))
	for id, vec := range s.vectors {
		out[id] = vec
	}
	return out, nil
}
