package registry

import (
	"context"
	"fmt"
)

// EntityType identifies one of the seven dashboard collections. The
// set is closed; AllEntityTypes is the canonical order.
type EntityType string

const (
	EntityTransactions EntityType = "transactions"
	EntityShifts       EntityType = "shifts"
	EntityGoals        EntityType = "goals"
	EntityDebts        EntityType = "debts"
	EntityBudgets      EntityType = "budgets"
	EntityBills        EntityType = "bills"
	EntityInvestments  EntityType = "investments"
)

// AllEntityTypes returns the seven entity types in fixed order.
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityTransactions,
		EntityShifts,
		EntityGoals,
		EntityDebts,
		EntityBudgets,
		EntityBills,
		EntityInvestments,
	}
}

// Valid reports whether t is one of the seven known types.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTransactions, EntityShifts, EntityGoals, EntityDebts,
		EntityBudgets, EntityBills, EntityInvestments:
		return true
	}
	return false
}

// Record is an opaque row as served to the dashboard. The sync layer
// never inspects or transforms its shape.
type Record map[string]any

// Lister is the per-entity fetch capability the sync layer depends on.
type Lister interface {
	List(ctx context.Context, sortKey string, limit int) ([]Record, error)
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(ctx context.Context, sortKey string, limit int) ([]Record, error)

func (f ListerFunc) List(ctx context.Context, sortKey string, limit int) ([]Record, error) {
	return f(ctx, sortKey, limit)
}

// Registry maps each entity type to its Lister.
type Registry interface {
	Lister(t EntityType) (Lister, error)
}

type staticRegistry struct {
	listers map[EntityType]Lister
}

// NewStaticRegistry builds a registry from an explicit map. Every one
// of the seven types must be present.
func NewStaticRegistry(listers map[EntityType]Lister) (Registry, error) {
	for _, t := range AllEntityTypes() {
		if listers[t] == nil {
			return nil, fmt.Errorf("registry: missing lister for %q", t)
		}
	}
	return &staticRegistry{listers: listers}, nil
}

func (r *staticRegistry) Lister(t EntityType) (Lister, error) {
	l, ok := r.listers[t]
	if !ok {
		return nil, fmt.Errorf("registry: unknown entity type %q", t)
	}
	return l, nil
}
