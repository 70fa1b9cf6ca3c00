package ipc

// NewStore picks the best available Store implementation for this host: it
// tries a shared-memory-backed store first and falls back to the
// file-backed store only if /dev/shm is unwritable.
func NewStore() Store {
	if SharedMemoryStoreIsSupported() {
		return NewSharedMemoryStore()
	}
	return NewFileStore()
}
