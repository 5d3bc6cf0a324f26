package datasync

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/yungbote/finboard-backend/internal/logger"
	"github.com/yungbote/finboard-backend/internal/registry"
	"github.com/yungbote/finboard-backend/internal/storage"
)

const snapshotKeyPrefix = "finboard:snapshot:"

// Hydrator persists the last successful fetch per entity type and
// reads the snapshots back when the process starts offline. Storage
// failures never propagate: writes are logged and swallowed, corrupt
// reads fall back to an empty collection.
type Hydrator struct {
	log *logger.Logger
	kv  storage.KV
}

func NewHydrator(kv storage.KV, baseLog *logger.Logger) *Hydrator {
	return &Hydrator{
		log: baseLog.With("component", "Hydrator"),
		kv:  kv,
	}
}

func snapshotKey(t registry.EntityType) string {
	return snapshotKeyPrefix + string(t)
}

// HydrateAll reads every persisted snapshot. Missing or unparseable
// entries yield an empty list for that type.
func (h *Hydrator) HydrateAll(ctx context.Context) map[registry.EntityType][]registry.Record {
	out := make(map[registry.EntityType][]registry.Record, len(registry.AllEntityTypes()))
	for _, t := range registry.AllEntityTypes() {
		out[t] = h.hydrateOne(ctx, t)
	}
	return out
}

func (h *Hydrator) hydrateOne(ctx context.Context, t registry.EntityType) []registry.Record {
	raw, err := h.kv.Get(ctx, snapshotKey(t))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.log.Warn("Snapshot read failed, treating as empty", "entity", t, "error", err)
		}
		return []registry.Record{}
	}
	var records []registry.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		h.log.Warn("Snapshot parse failed, treating as empty", "entity", t, "error", err)
		return []registry.Record{}
	}
	if records == nil {
		records = []registry.Record{}
	}
	return records
}

// Persist writes the snapshot for one entity type. Serialization or
// storage errors do not affect in-memory state.
func (h *Hydrator) Persist(ctx context.Context, t registry.EntityType, data []registry.Record) {
	if data == nil {
		data = []registry.Record{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		h.log.Warn("Snapshot serialize failed", "entity", t, "error", err)
		return
	}
	if err := h.kv.Set(ctx, snapshotKey(t), string(raw)); err != nil {
		h.log.Warn("Snapshot write failed", "entity", t, "error", err)
	}
}
