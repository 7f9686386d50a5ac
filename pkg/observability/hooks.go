package observability

import (
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// Chain merges hooks so each mutation reaches all of them in order.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(e *domain.MutationEvent) {
			for _, h := range hooks {
				h.Emit(e)
			}
		},
	}
}

// LoggingHooks writes an audit line per mutation.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMutation: func(e *domain.MutationEvent) {
			attrs := []any{
				"op", e.Op,
				"type", e.Type,
				"id", e.ID,
				"parent_type", e.Parent,
				"parent_id", e.ParentID,
			}
			if e.PrevID != 0 {
				attrs = append(attrs, "prev_id", e.PrevID)
			}
			logger.Info("record_mutation", attrs...)
		},
	}
}
