// Package strategy holds the costing strategies available to a pricing run,
// keyed by costing method, along with the method used when a project names
// none.
package strategy

import (
	"fmt"
	"slices"
	"sync"

	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/quoteworks/backend/internal/domain/shared/strategy"
)

// Registry is safe for concurrent use; openings priced in parallel share one.
type Registry struct {
	mu       sync.RWMutex
	byMethod map[strategy.CostingMethod]strategy.CostingStrategy
	fallback strategy.CostingMethod
}

func NewRegistry() *Registry {
	return &Registry{byMethod: make(map[strategy.CostingMethod]strategy.CostingStrategy)}
}

// Register adds s under its method. A method can be registered once.
func (r *Registry) Register(s strategy.CostingStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := s.Method()
	if _, dup := r.byMethod[m]; dup {
		return fmt.Errorf("%w: costing strategy %s", shared.ErrAlreadyExists, m)
	}
	r.byMethod[m] = s
	return nil
}

// GetCostingStrategy looks up method. The empty method means the default.
func (r *Registry) GetCostingStrategy(method strategy.CostingMethod) (strategy.CostingStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if method == "" {
		if r.fallback == "" {
			return nil, fmt.Errorf("%w: no default costing method", shared.ErrNotFound)
		}
		method = r.fallback
	}
	s, ok := r.byMethod[method]
	if !ok {
		return nil, fmt.Errorf("%w: costing strategy %s", shared.ErrNotFound, method)
	}
	return s, nil
}

// SetDefaultCosting makes a registered method the default
func (r *Registry) SetDefaultCosting(method strategy.CostingMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byMethod[method]; !ok {
		return fmt.Errorf("%w: costing strategy %s", shared.ErrNotFound, method)
	}
	r.fallback = method
	return nil
}

func (r *Registry) DefaultCosting() strategy.CostingMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Methods lists the registered methods in name order
func (r *Registry) Methods() []strategy.CostingMethod {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := make([]strategy.CostingMethod, 0, len(r.byMethod))
	for m := range r.byMethod {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	return methods
}
