package ports

import "context"

// Watchable defines an interface for stores that can notify about backend changes.
// This is typically used to reload documents edited by another tool.
type Watchable interface {
	// Watch returns a channel that receives the id of each document changed
	// behind the store's back. The channel is closed when ctx is done.
	Watch(ctx context.Context) (<-chan string, error)
}
