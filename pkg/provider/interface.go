/*
Package provider abstracts the upstream AI capabilities recall consumes:
turning text into embedding vectors and generating text from a prompt.
Each vendor implements whichever of the two narrow interfaces its API
supports, so the rest of the system never sees an SDK type.
*/
package provider

import (
	"context"
	"time"
)

/*
Embedder turns a text string into a fixed-length vector.  The same text
must produce directionally comparable vectors across calls; byte-identical
output is not required.
*/
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

/*
Generator produces free text from a single prompt.  One call, one blocking
round trip; retries are the caller's business, not the provider's.
*/
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// DefaultTimeout bounds a single provider round trip when no explicit
// timeout was configured.
const DefaultTimeout = 30 * time.Second

// callContext derives a bounded context for one provider call.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
