package usecase

import (
	"context"

	"go.uber.org/zap"
)

type effect struct {
	name string
	run  func(ctx context.Context) error
}

// effects is an ordered list of side effects attached to one state change.
// They run only after the authoritative write succeeded; each failure is
// logged and never propagated.
type effects []effect

func (e *effects) add(name string, run func(ctx context.Context) error) {
	*e = append(*e, effect{name: name, run: run})
}

func (e effects) run(ctx context.Context, log *zap.Logger) {
	ctx = context.WithoutCancel(ctx)
	for _, fx := range e {
		if err := fx.run(ctx); err != nil {
			log.Warn("Side effect failed",
				zap.String("effect", fx.name),
				zap.Error(err),
			)
		}
	}
}
