package datasync

import (
	"context"
	"errors"

	"github.com/yungbote/finboard-backend/internal/registry"
)

// ErrInvalidMutation rejects optimistic mutations with a bad type or
// missing callbacks.
var ErrInvalidMutation = errors.New("sync: invalid optimistic mutation")

// MutationOutcome is the tagged result of an optimistic mutation:
// either the speculative change stuck, or it was rolled back with the
// reason attached. No exception-driven control flow.
type MutationOutcome struct {
	Applied bool
	Reason  error
}

func outcomeApplied() MutationOutcome { return MutationOutcome{Applied: true} }

func outcomeRolledBack(err error) MutationOutcome { return MutationOutcome{Reason: err} }

// ApplyOptimistic snapshots the cached collection for t, applies
// mutate speculatively, then runs commit. On commit failure the
// snapshot is restored exactly. Neither path counts as a fetch, so
// the entry's version and timestamp are untouched.
func (o *Orchestrator) ApplyOptimistic(
	ctx context.Context,
	t registry.EntityType,
	mutate func(current []registry.Record) []registry.Record,
	commit func(ctx context.Context) error,
) MutationOutcome {
	if !t.Valid() || mutate == nil || commit == nil {
		return outcomeRolledBack(ErrInvalidMutation)
	}

	prev := o.cache.Read(t).Data
	speculative := mutate(cloneRecords(prev))
	o.cache.ReplaceData(t, speculative)

	if err := commit(ctx); err != nil {
		o.cache.ReplaceData(t, prev)
		o.log.Warn("Optimistic mutation rolled back", "entity", t, "error", err)
		return outcomeRolledBack(err)
	}
	return outcomeApplied()
}

func cloneRecords(in []registry.Record) []registry.Record {
	out := make([]registry.Record, len(in))
	copy(out, in)
	return out
}
