// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package llmprovider

import (
	"context"
	"fmt"
)

// namedProvider is the subset of *Provider Router depends on, so tests can
// substitute stubs without a real MessagesClient.
type namedProvider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// Router selects a primary provider and fails over to a backup on error,
// generalized from orchestrator/llm_router.go's selectProvider/
// getFallbackProvider pair down to this module's single real backend plus
// one configured fallback (e.g. a smaller or cheaper model).
type Router struct {
	primary  namedProvider
	fallback namedProvider
}

// NewRouter builds a Router. fallback may be nil, in which case a primary
// failure is returned to the caller directly.
func NewRouter(primary *Provider, fallback *Provider) *Router {
	r := &Router{primary: primary}
	if fallback != nil {
		r.fallback = fallback
	}
	return r
}

// Complete calls the primary provider; on error, and only if a fallback is
// configured, retries once against the fallback.
func (r *Router) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := r.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	if r.fallback == nil {
		return Response{}, err
	}

	resp, fallbackErr := r.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		return Response{}, fmt.Errorf("llmprovider: primary %q failed (%w); fallback %q also failed: %v",
			r.primary.Name(), err, r.fallback.Name(), fallbackErr)
	}
	return resp, nil
}
