package ipc

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sys/unix"
)

// shmDir is where Linux backs POSIX shared memory with a tmpfs mount.
// Opening a regular file here and mmap-ing it is exactly what glibc's
// shm_open does under the hood; there is no separate shm_open syscall to
// call from Go, so this is the direct, no-tracker equivalent.
const shmDir = "/dev/shm"

// shmNamePrefix matches the source's own shared-memory naming convention
// (Python's multiprocessing.shared_memory.SharedMemory mints a random
// "psm_<hex>" name); ours is derived from a blake2b hash of random
// bytes instead of relying on any runtime-global counter.
const shmNamePrefix = "psm_"

type shmRegion struct {
	file *os.File
	data []byte
}

// SharedMemoryStore is the preferred Store implementation: frames are
// mmap'd regions of files under /dev/shm, with no intervening
// resource-tracker process — the region is destroyed explicitly, by this
// process or another one that knows its name, and never by implicit
// garbage collection.
type SharedMemoryStore struct {
	mu      sync.Mutex
	regions map[string]*shmRegion
}

// SharedMemoryStoreIsSupported probes whether /dev/shm is writable by
// actually creating and destroying a small region, the same capability
// check the source performs before committing to this implementation.
func SharedMemoryStoreIsSupported() bool {
	store := NewSharedMemoryStore()
	frame, err := store.CreateEmpty(64)
	if err != nil {
		return false
	}
	_ = store.Destroy(frame)
	return true
}

// NewSharedMemoryStore returns an empty SharedMemoryStore.
func NewSharedMemoryStore() *SharedMemoryStore {
	return &SharedMemoryStore{regions: make(map[string]*shmRegion)}
}

func generateShmName() (string, error) {
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return "", fmt.Errorf("generating random seed: %w", err)
	}
	sum := blake2b.Sum256(seed)
	return shmNamePrefix + fmt.Sprintf("%x", sum[:16]), nil
}

func (s *SharedMemoryStore) CreateEmpty(size int) (Frame, error) {
	name, err := generateShmName()
	if err != nil {
		return Frame{}, newError("CreateEmpty", "%w", err)
	}
	path := filepath.Join(shmDir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return Frame{}, newError("CreateEmpty", "creating shm file %s: %w", path, err)
	}
	mapSize := size
	if mapSize == 0 {
		mapSize = 1
	}
	if err := f.Truncate(int64(mapSize)); err != nil {
		f.Close()
		os.Remove(path)
		return Frame{}, newError("CreateEmpty", "truncating %s to %d bytes: %w", path, mapSize, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, mapSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		os.Remove(path)
		return Frame{}, newError("CreateEmpty", "mmap of %s: %w", path, err)
	}
	s.mu.Lock()
	s.regions[name] = &shmRegion{file: f, data: data}
	s.mu.Unlock()
	return Frame{ID: name, Buf: data[:size]}, nil
}

func (s *SharedMemoryStore) Load(id string) (Frame, error) {
	path := filepath.Join(shmDir, id)
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return Frame{}, newError("Load", "opening shm file %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return Frame{}, newError("Load", "statting %s: %w", path, err)
	}
	size := int(info.Size())
	mapSize := size
	if mapSize == 0 {
		mapSize = 1
	}
	data, err := unix.Mmap(int(f.Fd()), 0, mapSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return Frame{}, newError("Load", "mmap of %s: %w", path, err)
	}
	s.mu.Lock()
	s.regions[id] = &shmRegion{file: f, data: data}
	s.mu.Unlock()
	return Frame{ID: id, Buf: data[:size]}, nil
}

// Save is a no-op: the frame's Buf already aliases the mmap'd region, so
// every write the producer made is already visible to the consumer.
func (s *SharedMemoryStore) Save(Frame) error {
	return nil
}

func (s *SharedMemoryStore) Release(frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	region, ok := s.regions[frame.ID]
	if !ok {
		return newError("Release", "no open region for frame %q", frame.ID)
	}
	err := unix.Munmap(region.data)
	closeErr := region.file.Close()
	delete(s.regions, frame.ID)
	if err != nil {
		return newError("Release", "munmap of %q: %w", frame.ID, err)
	}
	if closeErr != nil {
		return newError("Release", "closing %q: %w", frame.ID, closeErr)
	}
	return nil
}

func (s *SharedMemoryStore) Destroy(frame Frame) error {
	if err := s.Release(frame); err != nil {
		return err
	}
	path := filepath.Join(shmDir, frame.ID)
	if err := os.Remove(path); err != nil {
		return newError("Destroy", "removing %s: %w", path, err)
	}
	return nil
}

func (s *SharedMemoryStore) MemoryUsage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, region := range s.regions {
		total += len(region.data)
	}
	return total
}

func (s *SharedMemoryStore) ReleaseAll() error {
	s.mu.Lock()
	names := make([]string, 0, len(s.regions))
	for name := range s.regions {
		names = append(names, name)
	}
	s.mu.Unlock()
	var firstErr error
	for _, name := range names {
		if err := s.Release(Frame{ID: name}); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *SharedMemoryStore) DestroyAll() error {
	s.mu.Lock()
	names := make([]string, 0, len(s.regions))
	for name := range s.regions {
		names = append(names, name)
	}
	s.mu.Unlock()
	var firstErr error
	for _, name := range names {
		if err := s.Destroy(Frame{ID: name}); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
