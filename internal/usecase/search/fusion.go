package search

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/discovery/internal/domain/search/candidate"
)

// rankSlack keeps the worst lexical hit from normalizing to exactly 1 (and scoring 0).
const rankSlack = 0.1

// fuser merges lexical and semantic candidates with weighted, normalized scores.
type fuser struct {
	lexical  float64
	semantic float64
}

func newFuser(cfg Config) fuser {
	return fuser{lexical: cfg.LexicalWeight, semantic: cfg.SemanticWeight}
}

// combine fuses both signals additively, keyed by entity id.
//
//	lexical:  w_l * (1 - rank/(maxRank+0.1))
//	semantic: w_s * (1 - distance/maxDistance), 0 when maxDistance is 0
//
// Output is sorted by score descending, ties by entity id ascending.
func (f fuser) combine(lexical []candidate.Ranked, semantic []candidate.Near) []candidate.Fused {
	index := make(map[int64]int, len(lexical)+len(semantic))
	out := make([]candidate.Fused, 0, len(lexical)+len(semantic))

	add := func(c candidate.Fused) {
		id := c.Entity.EntityID()
		if i, ok := index[id]; ok {
			out[i].Score += c.Score
			return
		}
		index[id] = len(out)
		out = append(out, c)
	}

	if len(lexical) > 0 {
		maxRank := 0.0
		for _, c := range lexical {
			maxRank = max(maxRank, c.Rank)
		}
		for _, c := range lexical {
			normalized := max(c.Rank, 0) / (maxRank + rankSlack)
			add(candidate.Fused{Entity: c.Entity, Score: f.lexical * (1 - normalized)})
		}
	}

	if len(semantic) > 0 {
		maxDist := 0.0
		for _, c := range semantic {
			maxDist = max(maxDist, c.Distance)
		}
		for _, c := range semantic {
			normalized := 0.0
			if maxDist > 0 {
				normalized = max(c.Distance, 0) / maxDist
			}
			add(candidate.Fused{Entity: c.Entity, Score: f.semantic * (1 - normalized)})
		}
	}

	slices.SortStableFunc(out, func(a, b candidate.Fused) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Entity.EntityID(), b.Entity.EntityID())
	})
	return out
}
