package output

import (
	"context"

	"aura-runtime/internal/domain/entity"
)

// NotifierPort is the surface that talks to the person using the page.
type NotifierPort interface {
	// OfferHelp asks whether to adapt the page after a struggle signal.
	OfferHelp(ctx context.Context, signal entity.StruggleSignal) bool
	ShowDecision(ctx context.Context, decision entity.Decision)
	ShowError(ctx context.Context, err error)
}
