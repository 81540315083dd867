// Package candidate holds per-signal retrieval hits and their fused form.
package candidate

import "github.com/kailas-cloud/discovery/internal/domain/entity"

// Ranked is a lexical hit. Lower Rank is better; 0 is the best possible.
type Ranked struct {
	Entity entity.Entity
	Rank   float64
}

// Near is a semantic hit. Distance is cosine distance, lower is closer.
type Near struct {
	Entity   entity.Entity
	Distance float64
}

// Fused is one entity after merging signals, Score in [0, 1].
type Fused struct {
	Entity entity.Entity
	Score  float64
}

// Entities strips scores from a fused list, keeping order.
func Entities(fused []Fused) []entity.Entity {
	out := make([]entity.Entity, len(fused))
	for i, f := range fused {
		out[i] = f.Entity
	}
	return out
}
