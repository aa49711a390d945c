package pyramid

import "context"

// FS is pyramid abstraction of filesystem where the persistent storage-layer is the block storage.
// Files on the local disk are transient: they exist only while a File is open.
type FS interface {
	// Store uploads the file at localPath to the block storage under path.
	Store(ctx context.Context, localPath, path string) error

	// Create creates a new file in the FS.
	// It will only be persistent after the returned file is closed.
	Create(ctx context.Context, path string) (*File, error)

	// Open finds the referenced file and returns the file descriptor.
	// The content is fetched from the block storage into a local copy.
	Open(ctx context.Context, path string) (*File, error)
}
