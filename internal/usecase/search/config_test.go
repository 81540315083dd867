package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"weights do not sum to one", func(c *Config) { c.LexicalWeight = 0.7 }},
		{"negative weight", func(c *Config) { c.LexicalWeight, c.SemanticWeight = -0.5, 1.5 }},
		{"zero buffer multiplier", func(c *Config) { c.BufferMultiplier = 0 }},
		{"zero max buffer", func(c *Config) { c.MaxBuffer = 0 }},
		{"zero max distance", func(c *Config) { c.MaxDistance = 0 }},
		{"zero suggest page size", func(c *Config) { c.SuggestPerPage = 0 }},
		{"zero timeout", func(c *Config) { c.CategoryTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_BufferLimit(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100, cfg.BufferLimit(10))
	assert.Equal(t, 200, cfg.BufferLimit(20))
	assert.Equal(t, 200, cfg.BufferLimit(50))
	assert.Equal(t, 10, cfg.BufferLimit(1))

	cfg.CategoryTimeout = time.Second
	cfg.MaxBuffer = 35
	assert.Equal(t, 35, cfg.BufferLimit(5))
}
