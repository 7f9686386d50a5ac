// Package middleware decorates document stores with encryption at rest and
// redaction of sensitive variable defaults.
package middleware

import "github.com/aretw0/arbor/pkg/ports"

// Middleware allows wrapping a DocumentStore to add behavior.
type Middleware func(ports.DocumentStore) ports.DocumentStore

// Chain wraps store with each middleware in turn. The last one is outermost,
// so it sees Save first and Load last.
func Chain(store ports.DocumentStore, mws ...Middleware) ports.DocumentStore {
	for _, mw := range mws {
		store = mw(store)
	}
	return store
}
