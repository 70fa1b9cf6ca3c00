package ipc

import (
	"os"
	"sync"
)

// FileMessagePrefix names every temp file this store creates, matching the
// source's naming convention for its own fallback implementation.
const FileMessagePrefix = "msg_"

// FileStore is the file-backed Store fallback: every frame is a plain temp
// file, and its id is simply its absolute path. Save is a synchronous
// write+sync, so a frame id is never handed to a consumer before its bytes
// are durable on disk.
type FileStore struct {
	mu    sync.Mutex
	files map[string]*os.File
}

// NewFileStore returns an empty FileStore.
func NewFileStore() *FileStore {
	return &FileStore{files: make(map[string]*os.File)}
}

// FileStoreIsSupported reports whether a temp file can be created (and
// removed again) in the default temp directory, which is all this fallback
// needs.
func FileStoreIsSupported() bool {
	f, err := os.CreateTemp("", FileMessagePrefix)
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func (s *FileStore) CreateEmpty(size int) (Frame, error) {
	f, err := os.CreateTemp("", FileMessagePrefix)
	if err != nil {
		return Frame{}, newError("CreateEmpty", "creating temp file: %w", err)
	}
	if size > 0 {
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			os.Remove(f.Name())
			return Frame{}, newError("CreateEmpty", "truncating %s to %d bytes: %w", f.Name(), size, err)
		}
	}
	s.mu.Lock()
	s.files[f.Name()] = f
	s.mu.Unlock()
	return Frame{ID: f.Name(), Buf: make([]byte, size)}, nil
}

func (s *FileStore) Load(id string) (Frame, error) {
	s.mu.Lock()
	f, ok := s.files[id]
	s.mu.Unlock()
	if !ok {
		opened, err := os.OpenFile(id, os.O_RDWR, 0o644)
		if err != nil {
			return Frame{}, newError("Load", "opening %s: %w", id, err)
		}
		f = opened
		s.mu.Lock()
		s.files[id] = f
		s.mu.Unlock()
	}
	info, err := f.Stat()
	if err != nil {
		return Frame{}, newError("Load", "statting %s: %w", id, err)
	}
	buf := make([]byte, info.Size())
	if _, err := f.ReadAt(buf, 0); err != nil {
		return Frame{}, newError("Load", "reading %s: %w", id, err)
	}
	return Frame{ID: id, Buf: buf}, nil
}

func (s *FileStore) Save(frame Frame) error {
	s.mu.Lock()
	f, ok := s.files[frame.ID]
	s.mu.Unlock()
	if !ok {
		return newError("Save", "no open file handle for frame %q", frame.ID)
	}
	if _, err := f.WriteAt(frame.Buf, 0); err != nil {
		return newError("Save", "writing %s: %w", frame.ID, err)
	}
	if err := f.Sync(); err != nil {
		return newError("Save", "syncing %s: %w", frame.ID, err)
	}
	return nil
}

func (s *FileStore) Release(frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[frame.ID]
	if !ok {
		return newError("Release", "no open file handle for frame %q", frame.ID)
	}
	err := f.Close()
	delete(s.files, frame.ID)
	if err != nil {
		return newError("Release", "closing %s: %w", frame.ID, err)
	}
	return nil
}

func (s *FileStore) Destroy(frame Frame) error {
	if err := s.Release(frame); err != nil {
		return err
	}
	if err := os.Remove(frame.ID); err != nil {
		return newError("Destroy", "removing %s: %w", frame.ID, err)
	}
	return nil
}

func (s *FileStore) MemoryUsage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, f := range s.files {
		if info, err := f.Stat(); err == nil {
			total += int(info.Size())
		}
	}
	return total
}

func (s *FileStore) ReleaseAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.files {
		f.Close()
		delete(s.files, id)
	}
	return nil
}

func (s *FileStore) DestroyAll() error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.files))
	for id, f := range s.files {
		f.Close()
		ids = append(ids, id)
	}
	s.files = make(map[string]*os.File)
	s.mu.Unlock()
	var firstErr error
	for _, id := range ids {
		if err := os.Remove(id); err != nil && firstErr == nil {
			firstErr = newError("DestroyAll", "removing %s: %w", id, err)
		}
	}
	return firstErr
}
