// Package fleet holds the in-memory state of the delivery units and the
// selection policy used when a new order is dispatched.
package fleet

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/voicedispatch/core/model"
)

var (
	// ErrNoCapacity is returned when no unit is eligible for a mission.
	ErrNoCapacity = errors.New("no drones available")
	// ErrUnknownUnit is returned for an identity that is not part of the fleet.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrNotAvailable is returned when reserving a unit that is already reserved.
	ErrNotAvailable = errors.New("unit not available")
	// ErrNotReserved is returned when releasing a unit that is not reserved.
	ErrNotReserved = errors.New("unit not reserved")
)

// Registry is the fleet state shared by concurrent dispatches. All reads and
// writes go through a single mutex.
type Registry struct {
	mu          sync.Mutex
	units       map[int]*model.Unit
	minCapacity int
}

// NewRegistry creates a registry seeded from cfg. Every seeded unit starts available.
func NewRegistry(cfg Config) *Registry {
	cfg.SetDefaults()
	r := &Registry{
		units:       make(map[int]*model.Unit, len(cfg.Units)),
		minCapacity: cfg.MinCapacity,
	}
	for _, u := range cfg.Units {
		r.units[u.ID] = &model.Unit{
			ID:       u.ID,
			Status:   model.UnitAvailable,
			Battery:  u.Battery,
			Location: u.Location,
		}
	}
	return r
}

// Select returns the unit the policy would pick for the given urgency without
// reserving it.
func (r *Registry) Select(urgency model.Urgency) (model.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.selectLocked(urgency)
	if err != nil {
		return model.Unit{}, err
	}
	return *u, nil
}

// Reserve marks the unit as reserved. Reserving a unit twice fails.
func (r *Registry) Reserve(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return fmt.Errorf("reserve unit %d: %w", id, ErrUnknownUnit)
	}
	if !u.Available() {
		return fmt.Errorf("reserve unit %d: %w", id, ErrNotAvailable)
	}
	u.Status = model.UnitReserved
	return nil
}

// Claim selects and reserves a unit in one critical section so that two
// concurrent dispatches can never be assigned the same unit.
func (r *Registry) Claim(urgency model.Urgency) (model.Unit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.selectLocked(urgency)
	if err != nil {
		return model.Unit{}, err
	}
	u.Status = model.UnitReserved
	return *u, nil
}

// Release returns a reserved unit to the available pool.
func (r *Registry) Release(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return fmt.Errorf("release unit %d: %w", id, ErrUnknownUnit)
	}
	if u.Status != model.UnitReserved {
		return fmt.Errorf("release unit %d: %w", id, ErrNotReserved)
	}
	u.Status = model.UnitAvailable
	return nil
}

// Get returns a copy of the unit with the given identity.
func (r *Registry) Get(id int) (model.Unit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		return model.Unit{}, false
	}
	return *u, true
}

// List returns a copy of every unit ordered by identity.
func (r *Registry) List() []model.Unit {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]model.Unit, 0, len(r.units))
	for _, u := range r.units {
		res = append(res, *u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// AvailableCount returns the number of units currently available.
func (r *Registry) AvailableCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.units {
		if u.Available() {
			n++
		}
	}
	return n
}

// Size returns the number of units in the fleet.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.units)
}

// selectLocked applies the selection policy. STAT orders take the eligible
// unit with the highest capacity, every other urgency takes the lowest
// identity. Ties are broken by the lowest identity. r.mu must be held.
func (r *Registry) selectLocked(urgency model.Urgency) (*model.Unit, error) {
	var best *model.Unit
	for _, u := range r.units {
		if !u.Eligible(r.minCapacity) {
			continue
		}
		if best == nil {
			best = u
			continue
		}
		if urgency.Highest() {
			if u.Battery > best.Battery || (u.Battery == best.Battery && u.ID < best.ID) {
				best = u
			}
			continue
		}
		if u.ID < best.ID {
			best = u
		}
	}
	if best == nil {
		return nil, ErrNoCapacity
	}
	return best, nil
}
