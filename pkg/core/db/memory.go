package db

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// Memory keeps guild settings in process memory. It is used when no MONGO_URI is configured.
type Memory struct {
	mu       sync.RWMutex
	autoplay map[snowflake.ID]bool
}

// NewMemory returns an empty in-memory settings store.
func NewMemory() *Memory {
	return &Memory{autoplay: make(map[snowflake.ID]bool)}
}

// Autoplay returns the stored autoplay preference of a guild.
func (m *Memory) Autoplay(_ context.Context, guildID snowflake.ID) (bool, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	enabled, ok := m.autoplay[guildID]
	return enabled, ok, nil
}

// SetAutoplay stores the autoplay preference of a guild.
func (m *Memory) SetAutoplay(_ context.Context, guildID snowflake.ID, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoplay[guildID] = enabled
	return nil
}
