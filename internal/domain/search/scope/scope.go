// Package scope defines the query parameter objects passed by value to the catalog.
package scope

// Text scopes a lexical lookup.
type Text struct {
	Query string
	// Type filters submissions by submission type; empty means any.
	Type   string
	Offset int
	Limit  int
}

// Vector scopes a nearest-neighbor lookup.
type Vector struct {
	Embedding []float32
	Type      string
	// MaxDistance is an exclusive cosine distance ceiling.
	MaxDistance float64
	Limit       int
}
