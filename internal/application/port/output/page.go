package output

import (
	"context"

	"aura-runtime/internal/domain/dom"
	"aura-runtime/internal/domain/entity"
)

// PagePort is the live page the runtime works on.
type PagePort interface {
	Navigate(ctx context.Context, url string) error
	// Snapshot captures the current DOM together with its layout.
	Snapshot(ctx context.Context) (*dom.Document, error)
	// Sync replays the document's pending mutations into the live page.
	Sync(ctx context.Context, doc *dom.Document) error
	ScrollIntoView(ctx context.Context, selector string) error
	Events() <-chan entity.PageEvent
	URL() string
	Close() error
}
