// Package llm carries the outbound provider transport. Providers differ only
// in endpoint, credential, and model name; the protocol itself is one
// uniform capability: send a prompt, get text or an error.
package llm

import "context"

// Request is one outbound provider call.
type Request struct {
	EndpointURL string
	Model       string
	APIKey      string
	Prompt      string
	TLSVerify   bool
}

// Transport sends a prompt to a provider endpoint. Implementations must
// honor ctx cancellation and deadlines; the dispatch engine relies on that
// for its per-provider timeout.
type Transport interface {
	Send(ctx context.Context, req Request) (string, error)
}
