package input

import (
	"context"

	"aura-runtime/internal/domain/entity"
)

// SessionRunner is the entry point the CLI and the control API drive.
type SessionRunner interface {
	Run(ctx context.Context) error
	RequestHelp(ctx context.Context) error
	Stats(ctx context.Context) (entity.InteractionStats, error)
}
