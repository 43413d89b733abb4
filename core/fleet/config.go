package fleet

import "fmt"

// DefaultMinCapacity is the capacity level a unit must exceed to be selected.
const DefaultMinCapacity = 30

// UnitConfig seeds one unit of the fleet.
type UnitConfig struct {
	ID       int    `json:"id"`
	Battery  int    `json:"battery"`
	Location string `json:"location"`
}

// Config defines the fleet seeded at process start.
type Config struct {
	Units       []UnitConfig `json:"units"`
	MinCapacity int          `json:"min_capacity"`
}

// SetDefaults seeds three units at the depot when none are configured.
func (c *Config) SetDefaults() {
	if len(c.Units) == 0 {
		c.Units = []UnitConfig{
			{ID: 1, Battery: 95, Location: "depot"},
			{ID: 2, Battery: 88, Location: "depot"},
			{ID: 3, Battery: 92, Location: "depot"},
		}
	}
	if c.MinCapacity <= 0 {
		c.MinCapacity = DefaultMinCapacity
	}
}

// Validate checks unit identities and capacity ranges.
func (c Config) Validate() error {
	seen := make(map[int]bool, len(c.Units))
	for _, u := range c.Units {
		if seen[u.ID] {
			return fmt.Errorf("fleet: duplicate unit id %d", u.ID)
		}
		seen[u.ID] = true
		if u.Battery < 0 || u.Battery > 100 {
			return fmt.Errorf("fleet: unit %d battery %d out of range [0,100]", u.ID, u.Battery)
		}
	}
	if c.MinCapacity < 0 || c.MinCapacity > 100 {
		return fmt.Errorf("fleet: min_capacity %d out of range [0,100]", c.MinCapacity)
	}
	return nil
}
