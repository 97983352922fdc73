package crawler

import (
	"context"

	"github.com/nao1215/dirharvest/internal/transport"
)

// Fetcher performs the HTTP calls made by the crawler components.
// *transport.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*transport.Response, error)
	PostForm(ctx context.Context, rawURL string, fields map[string]string) (*transport.Response, error)
}

var _ Fetcher = (*transport.Client)(nil)
