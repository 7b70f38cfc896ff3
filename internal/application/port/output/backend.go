package output

import (
	"context"

	"aura-runtime/internal/domain/entity"
)

// BackendPort is the reasoning service that decides which adaptations to apply.
type BackendPort interface {
	Process(ctx context.Context, req entity.ProcessRequest) (entity.Decision, error)
	Prefetch(ctx context.Context, url string) error
}
