package search

import (
	"fmt"
	"math"
	"time"
)

// Config holds ranking and orchestration constants. It is built once and never mutated.
type Config struct {
	LexicalWeight  float64
	SemanticWeight float64
	// BufferMultiplier and MaxBuffer size the in-memory buffer that fused categories paginate.
	BufferMultiplier int
	MaxBuffer        int
	// MaxDistance is the exclusive cosine distance floor for semantic candidates.
	MaxDistance     float64
	DefaultPerPage  int
	CategoryTimeout time.Duration
	// Suggest runs only for queries of at least SuggestMinLength runes.
	SuggestMinLength int
	SuggestPerPage   int
}

// DefaultConfig returns the production ranking constants.
func DefaultConfig() Config {
	return Config{
		LexicalWeight:    0.6,
		SemanticWeight:   0.4,
		BufferMultiplier: 10,
		MaxBuffer:        200,
		MaxDistance:      0.8,
		DefaultPerPage:   10,
		CategoryTimeout:  8 * time.Second,
		SuggestMinLength: 3,
		SuggestPerPage:   5,
	}
}

// Validate rejects weights outside [0, 1] or not summing to 1, and non-positive sizes.
func (c Config) Validate() error {
	if c.LexicalWeight < 0 || c.LexicalWeight > 1 || c.SemanticWeight < 0 || c.SemanticWeight > 1 {
		return fmt.Errorf("weights must be within [0, 1], got %g/%g", c.LexicalWeight, c.SemanticWeight)
	}
	if math.Abs(c.LexicalWeight+c.SemanticWeight-1) > 1e-9 {
		return fmt.Errorf("weights must sum to 1, got %g", c.LexicalWeight+c.SemanticWeight)
	}
	if c.BufferMultiplier < 1 || c.MaxBuffer < 1 {
		return fmt.Errorf("buffer multiplier and max buffer must be positive")
	}
	if c.MaxDistance <= 0 {
		return fmt.Errorf("max distance must be positive, got %g", c.MaxDistance)
	}
	if c.DefaultPerPage < 1 || c.SuggestPerPage < 1 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.CategoryTimeout <= 0 {
		return fmt.Errorf("category timeout must be positive")
	}
	return nil
}

// BufferLimit is how many candidates a fused category fetches: min(perPage*multiplier, max).
func (c Config) BufferLimit(perPage int) int {
	return min(perPage*c.BufferMultiplier, c.MaxBuffer)
}
