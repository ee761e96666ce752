package archive

import "context"

// Storage is a destination snapshots are published to.
type Storage interface {
	// Name identifies the destination in logs.
	Name() string

	// Write stores data at the given path, replacing any previous content
	Write(ctx context.Context, path string, data []byte) error
}
