// Package middleware wraps workspace stores with extra behaviour.
package middleware

import "github.com/aretw0/twsgraph/pkg/ports"

// Middleware allows wrapping a WorkspaceStore to add behavior.
type Middleware func(ports.WorkspaceStore) ports.WorkspaceStore

// Chain applies middlewares to store, the first one outermost.
func Chain(store ports.WorkspaceStore, mws ...Middleware) ports.WorkspaceStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
