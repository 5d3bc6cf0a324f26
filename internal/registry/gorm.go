package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/types"
)

const defaultListLimit = 500

// entityTables maps each entity type to its model (for gorm scoping)
// and the columns a caller may sort by. Sort keys outside the
// allowlist fall back to the first entry.
var entityTables = map[EntityType]struct {
	model    any
	sortKeys []string
}{
	EntityTransactions: {model: &types.Transaction{}, sortKeys: []string{"date", "amount", "created_at"}},
	EntityShifts:       {model: &types.Shift{}, sortKeys: []string{"starts_at", "created_at"}},
	EntityGoals:        {model: &types.Goal{}, sortKeys: []string{"created_at", "target_date"}},
	EntityDebts:        {model: &types.Debt{}, sortKeys: []string{"created_at", "balance"}},
	EntityBudgets:      {model: &types.Budget{}, sortKeys: []string{"created_at", "category"}},
	EntityBills:        {model: &types.Bill{}, sortKeys: []string{"due_date", "created_at"}},
	EntityInvestments:  {model: &types.Investment{}, sortKeys: []string{"created_at", "symbol"}},
}

type gormLister struct {
	db  *gorm.DB
	log *logger.Logger
	typ EntityType
}

// NewGormRegistry exposes the seven entity tables through the Lister
// contract. Rows come back as opaque records so the sync layer stays
// shape-agnostic.
func NewGormRegistry(db *gorm.DB, baseLog *logger.Logger) (Registry, error) {
	if db == nil {
		return nil, fmt.Errorf("registry: nil db")
	}
	listers := make(map[EntityType]Lister, len(entityTables))
	for t := range entityTables {
		listers[t] = &gormLister{
			db:  db,
			log: baseLog.With("lister", string(t)),
			typ: t,
		}
	}
	return NewStaticRegistry(listers)
}

func (l *gormLister) List(ctx context.Context, sortKey string, limit int) ([]Record, error) {
	tbl, ok := entityTables[l.typ]
	if !ok {
		return nil, fmt.Errorf("registry: unknown entity type %q", l.typ)
	}

	order := tbl.sortKeys[0]
	for _, k := range tbl.sortKeys {
		if k == sortKey {
			order = k
			break
		}
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}

	var rows []map[string]any
	err := l.db.WithContext(ctx).
		Model(tbl.model).
		Order(order + " DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.typ, err)
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, normalizeRow(row))
	}
	return out, nil
}

// normalizeRow round-trips driver-specific values ([]byte, jsonb)
// through JSON so records serialize cleanly into snapshots.
func normalizeRow(row map[string]any) Record {
	raw, err := json.Marshal(row)
	if err != nil {
		return Record(row)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record(row)
	}
	return rec
}
