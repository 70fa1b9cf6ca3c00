// Package blobstore implements a content-addressed, directory-sharded blob
// store on the local filesystem. Blob keys are assumed to already be
// content-derived (a hex digest) by the caller; this package never hashes a
// key itself, only sharded the path by the first few hex characters and
// chooses between a plain and gzip-compressed on-disk form.
package blobstore

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
)

// CompressLevel is the fixed gzip level used by every Add*Compressed*
// operation. Low on purpose: compression ratio is not a correctness
// concern here, only a throughput knob.
const CompressLevel = gzip.BestSpeed

// Store is a sharded, content-addressed blob store rooted at Path. A single
// Store may host multiple independent blob prefixes (e.g. "solution-tree",
// "index"), each sharded the same way.
type Store struct {
	Path string
}

// Open returns a Store rooted at path, creating the root directory if it
// does not already exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, newError("Open", KindIO, "creating store root %s: %w", path, err)
	}
	return &Store{Path: path}, nil
}

func plainPath(storePath, prefix, key string) string {
	return filepath.Join(storePath, prefix, key[0:4], key[4:6], key[6:8], key)
}

func compressedPath(storePath, prefix, key string) string {
	return plainPath(storePath, prefix, key) + ".gz"
}

// PathFor returns the on-disk path for (prefix, key), preferring the
// compressed form when both exist.
func (s *Store) PathFor(prefix, key string) (string, error) {
	if p := compressedPath(s.Path, prefix, key); isFile(p) {
		return p, nil
	}
	if p := plainPath(s.Path, prefix, key); isFile(p) {
		return p, nil
	}
	return "", newError("PathFor", KindNotFound, "no blob found for key %q under prefix %q", key, prefix)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Exists reports whether (prefix, key) has a blob on disk, in either form.
func (s *Store) Exists(prefix, key string) bool {
	_, err := s.PathFor(prefix, key)
	return err == nil
}

// ListKeys returns every blob key stored under prefix, derived from the
// on-disk sharded layout.
func (s *Store) ListKeys(prefix string) ([]string, error) {
	root := filepath.Join(s.Path, prefix)
	var keys []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		key := filepath.Base(path)
		if filepath.Ext(key) == ".gz" {
			key = key[:len(key)-len(".gz")]
		}
		canonical, err := s.PathFor(prefix, key)
		if err != nil {
			return nil
		}
		if canonical == path {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, newError("ListKeys", KindIO, "walking prefix %q: %w", prefix, err)
	}
	return keys, nil
}

// OpenRead returns a reader for (prefix, key), transparently decompressing
// if the stored form is gzip. Callers must Close the returned reader.
func (s *Store) OpenRead(prefix, key string) (io.ReadCloser, error) {
	path, err := s.PathFor(prefix, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, newError("OpenRead", KindIO, "opening %s: %w", path, err)
	}
	if filepath.Ext(path) != ".gz" {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, newError("OpenRead", KindIO, "opening gzip reader for %s: %w", path, err)
	}
	return &gzipReadCloser{gz: gz, file: f}, nil
}

type gzipReadCloser struct {
	gz   *gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.gz.Read(p)
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	fileErr := g.file.Close()
	if gzErr != nil {
		return gzErr
	}
	return fileErr
}

// ReadBytes reads the entire decompressed contents of (prefix, key).
func (s *Store) ReadBytes(prefix, key string) ([]byte, error) {
	r, err := s.OpenRead(prefix, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newError("ReadBytes", KindIO, "reading %s/%s: %w", prefix, key, err)
	}
	return data, nil
}

// CopyBlob copies (prefix, key)'s decompressed contents to destPath,
// creating destPath or overwriting it if it already exists.
func (s *Store) CopyBlob(prefix, key, destPath string) error {
	path, err := s.PathFor(prefix, key)
	if err != nil {
		return err
	}
	src, err := s.OpenRead(prefix, key)
	if err != nil {
		return newError("CopyBlob", KindIO, "opening source %s: %w", path, err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return newError("CopyBlob", KindIO, "creating destination %s: %w", destPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return newError("CopyBlob", KindIO, "copying %s to %s: %w", path, destPath, err)
	}
	return nil
}

// AddBytes writes blob data under (prefix, key) uncompressed. A no-op if a
// blob already exists under that key in either form; existence is the only
// idempotence check performed, keys are never rehashed.
func (s *Store) AddBytes(prefix, key string, data []byte) error {
	if s.Exists(prefix, key) {
		return nil
	}
	path := plainPath(s.Path, prefix, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newError("AddBytes", KindIO, "creating parent dirs for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return newError("AddBytes", KindIO, "writing %s: %w", path, err)
	}
	return nil
}

// AddCompressedBytes writes blob data under (prefix, key) gzip-compressed.
// A no-op if a compressed blob already exists under that key.
func (s *Store) AddCompressedBytes(prefix, key string, data []byte) error {
	path := compressedPath(s.Path, prefix, key)
	if isFile(path) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newError("AddCompressedBytes", KindIO, "creating parent dirs for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return newError("AddCompressedBytes", KindIO, "creating %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewWriterLevel(f, CompressLevel)
	if err != nil {
		return newError("AddCompressedBytes", KindIO, "creating gzip writer for %s: %w", path, err)
	}
	if _, err := gz.Write(data); err != nil {
		gz.Close()
		return newError("AddCompressedBytes", KindIO, "writing %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		return newError("AddCompressedBytes", KindIO, "closing gzip writer for %s: %w", path, err)
	}
	return nil
}

// AddFromPath copies srcPath into the store under (prefix, key)
// uncompressed. A no-op if a blob already exists under that key.
func (s *Store) AddFromPath(prefix, key, srcPath string) error {
	if s.Exists(prefix, key) {
		return nil
	}
	destPath := plainPath(s.Path, prefix, key)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return newError("AddFromPath", KindIO, "creating parent dirs for %s: %w", destPath, err)
	}
	if err := copyFile(srcPath, destPath); err != nil {
		return newError("AddFromPath", KindIO, "copying %s to %s: %w", srcPath, destPath, err)
	}
	return nil
}

// AddCompressedFromPath gzip-compresses srcPath into the store under
// (prefix, key). A no-op if a compressed blob already exists under that
// key.
func (s *Store) AddCompressedFromPath(prefix, key, srcPath string) error {
	destPath := compressedPath(s.Path, prefix, key)
	if isFile(destPath) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return newError("AddCompressedFromPath", KindIO, "creating parent dirs for %s: %w", destPath, err)
	}
	in, err := os.Open(srcPath)
	if err != nil {
		return newError("AddCompressedFromPath", KindIO, "opening %s: %w", srcPath, err)
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return newError("AddCompressedFromPath", KindIO, "creating %s: %w", destPath, err)
	}
	defer out.Close()

	gz, err := gzip.NewWriterLevel(out, CompressLevel)
	if err != nil {
		return newError("AddCompressedFromPath", KindIO, "creating gzip writer for %s: %w", destPath, err)
	}
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return newError("AddCompressedFromPath", KindIO, "compressing %s to %s: %w", srcPath, destPath, err)
	}
	if err := gz.Close(); err != nil {
		return newError("AddCompressedFromPath", KindIO, "closing gzip writer for %s: %w", destPath, err)
	}
	return nil
}

func copyFile(srcPath, destPath string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

// Delete removes both the plain and compressed forms of (prefix, key) if
// present, then prunes any now-empty ancestor directories up to (but not
// including) the prefix root.
func (s *Store) Delete(prefix, key string) error {
	compressed := compressedPath(s.Path, prefix, key)
	plain := plainPath(s.Path, prefix, key)

	if isFile(compressed) {
		if err := os.Remove(compressed); err != nil {
			return newError("Delete", KindIO, "removing %s: %w", compressed, err)
		}
	}
	if isFile(plain) {
		if err := os.Remove(plain); err != nil {
			return newError("Delete", KindIO, "removing %s: %w", plain, err)
		}
	}
	limit := filepath.Join(s.Path, prefix)
	return removeEmptyDirsOnPath(filepath.Dir(plain), limit)
}

func removeEmptyDirsOnPath(dir, limit string) error {
	if dir == limit {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return newError("Delete", KindIO, "reading %s: %w", dir, err)
	}
	if len(entries) != 0 {
		return nil
	}
	if err := os.Remove(dir); err != nil {
		return newError("Delete", KindIO, "removing empty dir %s: %w", dir, err)
	}
	return removeEmptyDirsOnPath(filepath.Dir(dir), limit)
}

// IsEmpty reports whether the store root contains no entries at all.
func (s *Store) IsEmpty() (bool, error) {
	if err := s.ValidateLayout(); err != nil {
		return false, err
	}
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return false, newError("IsEmpty", KindIO, "reading %s: %w", s.Path, err)
	}
	return len(entries) == 0, nil
}

// ValidateLayout enforces the directory contract: only subdirectories are
// permitted at the store root, never bare files.
func (s *Store) ValidateLayout() error {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return newError("ValidateLayout", KindInvalidStore, "reading store root %s: %w", s.Path, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			return newError("ValidateLayout", KindInvalidStore, "unexpected non-directory entry %q at store root", e.Name())
		}
	}
	return nil
}
