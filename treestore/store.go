package treestore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/WillCodeCo/solver-util/actionpath"
	"github.com/WillCodeCo/solver-util/blobstore"
	"github.com/WillCodeCo/solver-util/solverconfig"
)

// Blob prefixes making up the store's directory contract (§3 "Store
// layout", §6 "Directory contract"). No other top-level entry is permitted
// under a store root.
const (
	PrefixSolutionTree     = "solution-tree"
	PrefixSolutionTreeMeta = "solution-tree-meta"
	PrefixPreflopConfig    = "preflop-solver-config"
	PrefixPostflopConfig   = "postflop-solver-config"
	PrefixIndex            = "index"
)

var storePrefixes = map[string]bool{
	PrefixSolutionTree:     true,
	PrefixSolutionTreeMeta: true,
	PrefixPreflopConfig:    true,
	PrefixPostflopConfig:   true,
	PrefixIndex:            true,
}

// Store is the content-addressed solution-tree store (Component E): it
// uses blobstore for on-disk persistence and wire/blobtree for the tree
// byte format, and maintains an in-memory Index that can be saved,
// reloaded, merged with concurrently-written partial indexes, and rebuilt
// from the store's own meta blobs.
type Store struct {
	blobs *blobstore.Store
	index *Index
}

// CreateEmpty opens (creating if necessary) a store at path and starts it
// with an empty in-memory index. The store root must either not yet exist
// or already satisfy the directory contract.
func CreateEmpty(path string) (*Store, error) {
	blobs, err := blobstore.Open(path)
	if err != nil {
		return nil, wrapBlobstoreErr("CreateEmpty", err)
	}
	if err := validateLayout(blobs); err != nil {
		return nil, err
	}
	return &Store{blobs: blobs, index: NewIndex()}, nil
}

// OpenAndMerge opens a store at path and merges every on-disk index/* blob
// into its in-memory index, set-union per key (§5 "multiple writers may
// concurrently append new index/* blobs; readers merge by set union").
func OpenAndMerge(path string) (*Store, error) {
	s, err := CreateEmpty(path)
	if err != nil {
		return nil, err
	}
	keys, err := s.blobs.ListKeys(PrefixIndex)
	if err != nil {
		return nil, wrapBlobstoreErr("OpenAndMerge", err)
	}
	for _, key := range keys {
		data, err := s.blobs.ReadBytes(PrefixIndex, key)
		if err != nil {
			return nil, wrapBlobstoreErr("OpenAndMerge", err)
		}
		other := NewIndex()
		if err := other.UnmarshalJSON(data); err != nil {
			return nil, newError("OpenAndMerge", KindInvalid, "decoding index blob %s: %w", key, err)
		}
		s.index.Merge(other)
	}
	return s, nil
}

// OpenAndRebuild opens a store at path and rebuilds its index from scratch
// by scanning every solution-tree-meta/ blob, the shape
// migrate_solution_tree_store.py's reindex entrypoint takes.
func OpenAndRebuild(path string) (*Store, error) {
	s, err := CreateEmpty(path)
	if err != nil {
		return nil, err
	}
	if err := s.RebuildIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func validateLayout(blobs *blobstore.Store) error {
	empty, err := blobs.IsEmpty()
	if err != nil {
		return wrapBlobstoreErr("validateLayout", err)
	}
	if empty {
		return nil
	}
	if err := blobs.ValidateLayout(); err != nil {
		return wrapBlobstoreErr("validateLayout", err)
	}
	entries, err := os.ReadDir(blobs.Path)
	if err != nil {
		return newError("validateLayout", KindInvalid, "reading store root: %w", err)
	}
	for _, e := range entries {
		if !storePrefixes[e.Name()] {
			return newError("validateLayout", KindInvalid, "unexpected entry %q at store root: only %v permitted", e.Name(), prefixNames())
		}
	}
	return nil
}

func prefixNames() []string {
	return []string{PrefixSolutionTree, PrefixSolutionTreeMeta, PrefixPreflopConfig, PrefixPostflopConfig, PrefixIndex}
}

func wrapBlobstoreErr(op string, err error) error {
	var kind Kind
	switch {
	case isBlobstoreKind(err, blobstore.KindNotFound):
		kind = KindNotFound
	case isBlobstoreKind(err, blobstore.KindInvalidStore):
		kind = KindInvalid
	default:
		kind = KindInvalid
	}
	return newError(op, kind, "%w", err)
}

func isBlobstoreKind(err error, kind blobstore.Kind) bool {
	be, ok := err.(*blobstore.Error)
	return ok && be.Kind == kind
}

func configPrefix(solverType solverconfig.SolverType) string {
	if solverType == solverconfig.Preflop {
		return PrefixPreflopConfig
	}
	return PrefixPostflopConfig
}

// AddPreflop stores a preflop solve: tree, config, meta, and index entry.
// Each step is idempotent per blobstore's existence-checked add_* contract.
func (s *Store) AddPreflop(config solverconfig.Config, seq actionpath.Sequence, isPathSolve bool, tree *Tree) (IndexEntry, error) {
	return s.add(solverconfig.Preflop, config, seq, isPathSolve, tree)
}

// AddPostflop stores a postflop solve analogously to AddPreflop.
func (s *Store) AddPostflop(config solverconfig.Config, seq actionpath.Sequence, isPathSolve bool, tree *Tree) (IndexEntry, error) {
	return s.add(solverconfig.Postflop, config, seq, isPathSolve, tree)
}

func (s *Store) add(solverType solverconfig.SolverType, config solverconfig.Config, seq actionpath.Sequence, isPathSolve bool, tree *Tree) (IndexEntry, error) {
	configKey, err := config.Fingerprint()
	if err != nil {
		return IndexEntry{}, newError("add", KindInvalid, "fingerprinting config: %w", err)
	}

	treeBytes, err := EncodeTree(tree)
	if err != nil {
		return IndexEntry{}, newError("add", KindInvalid, "encoding tree: %w", err)
	}
	treeKey := sha256Hex(treeBytes)

	if err := s.blobs.AddCompressedBytes(PrefixSolutionTree, treeKey, treeBytes); err != nil {
		return IndexEntry{}, wrapBlobstoreErr("add", err)
	}

	configJSON, err := solverconfig.CanonicalJSON(map[string]any(config))
	if err != nil {
		return IndexEntry{}, newError("add", KindInvalid, "marshaling config: %w", err)
	}
	if err := s.blobs.AddCompressedBytes(configPrefix(solverType), configKey, configJSON); err != nil {
		return IndexEntry{}, wrapBlobstoreErr("add", err)
	}

	meta := NewMeta(solverType, isPathSolve, seq, configKey, treeKey)
	metaJSON, err := meta.CanonicalJSON()
	if err != nil {
		return IndexEntry{}, newError("add", KindInvalid, "marshaling meta: %w", err)
	}
	metaKey, err := meta.Key()
	if err != nil {
		return IndexEntry{}, newError("add", KindInvalid, "keying meta: %w", err)
	}
	if err := s.blobs.AddBytes(PrefixSolutionTreeMeta, metaKey, metaJSON); err != nil {
		return IndexEntry{}, wrapBlobstoreErr("add", err)
	}

	indexKey, err := solverconfig.IndexKey(solverType, isPathSolve, seq, config)
	if err != nil {
		return IndexEntry{}, newError("add", KindInvalid, "computing index key: %w", err)
	}
	entry := IndexEntry{SolverConfigKey: configKey, SolutionTreeKey: treeKey}
	s.index.Add(indexKey, entry)
	return entry, nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveIndex serializes the current in-memory index to a new blob under
// index/, keyed by the SHA-256 of its canonical JSON. A no-op (idempotent)
// if a blob with that exact content is already stored.
func (s *Store) SaveIndex() (string, error) {
	data, err := json.Marshal(s.index)
	if err != nil {
		return "", newError("SaveIndex", KindInvalid, "marshaling index: %w", err)
	}
	key := sha256Hex(data)
	if err := s.blobs.AddBytes(PrefixIndex, key, data); err != nil {
		return "", wrapBlobstoreErr("SaveIndex", err)
	}
	return key, nil
}

// RebuildIndex scans every solution-tree-meta/ blob, recomputes its index
// entry against the corresponding stored config blob, and replaces the
// in-memory index with the result.
func (s *Store) RebuildIndex() error {
	metaKeys, err := s.blobs.ListKeys(PrefixSolutionTreeMeta)
	if err != nil {
		return wrapBlobstoreErr("RebuildIndex", err)
	}
	rebuilt := NewIndex()
	for _, metaKey := range metaKeys {
		data, err := s.blobs.ReadBytes(PrefixSolutionTreeMeta, metaKey)
		if err != nil {
			return wrapBlobstoreErr("RebuildIndex", err)
		}
		meta, err := DecodeMeta(data)
		if err != nil {
			return newError("RebuildIndex", KindInvalid, "decoding meta %s: %w", metaKey, err)
		}
		configData, err := s.blobs.ReadBytes(configPrefix(meta.SolverType), meta.SolverConfigKey)
		if err != nil {
			return wrapBlobstoreErr("RebuildIndex", err)
		}
		var config solverconfig.Config
		if err := json.Unmarshal(configData, &config); err != nil {
			return newError("RebuildIndex", KindInvalid, "decoding config %s: %w", meta.SolverConfigKey, err)
		}
		seq, err := meta.ActionPath()
		if err != nil {
			return newError("RebuildIndex", KindInvalid, "parsing action sequence in meta %s: %w", metaKey, err)
		}
		indexKey, err := solverconfig.IndexKey(meta.SolverType, meta.IsPathSolve(), seq, config)
		if err != nil {
			return newError("RebuildIndex", KindInvalid, "computing index key for meta %s: %w", metaKey, err)
		}
		rebuilt.Add(indexKey, IndexEntry{SolverConfigKey: meta.SolverConfigKey, SolutionTreeKey: meta.SolutionTreeKey})
	}
	s.index = rebuilt
	return nil
}

// CleanUpIndexes deletes any on-disk index whose entry count is strictly
// less than the current in-memory index's size. Callers must SaveIndex
// first so the current index is itself one of the candidates being
// compared, never accidentally culled.
func (s *Store) CleanUpIndexes() error {
	currentSize := s.index.Size()
	keys, err := s.blobs.ListKeys(PrefixIndex)
	if err != nil {
		return wrapBlobstoreErr("CleanUpIndexes", err)
	}
	for _, key := range keys {
		data, err := s.blobs.ReadBytes(PrefixIndex, key)
		if err != nil {
			return wrapBlobstoreErr("CleanUpIndexes", err)
		}
		candidate := NewIndex()
		if err := candidate.UnmarshalJSON(data); err != nil {
			return newError("CleanUpIndexes", KindInvalid, "decoding index %s: %w", key, err)
		}
		if candidate.Size() < currentSize {
			if err := s.blobs.Delete(PrefixIndex, key); err != nil {
				return wrapBlobstoreErr("CleanUpIndexes", err)
			}
		}
	}
	return nil
}

// IndexBlobKeys returns the keys of every index blob currently on disk,
// for diagnostics and tests that assert on compaction behavior.
func (s *Store) IndexBlobKeys() ([]string, error) {
	keys, err := s.blobs.ListKeys(PrefixIndex)
	if err != nil {
		return nil, wrapBlobstoreErr("IndexBlobKeys", err)
	}
	return keys, nil
}

// GetSolutionTree decodes and returns the tree stored under key.
func (s *Store) GetSolutionTree(key string) (*Tree, error) {
	data, err := s.blobs.ReadBytes(PrefixSolutionTree, key)
	if err != nil {
		return nil, wrapBlobstoreErr("GetSolutionTree", err)
	}
	tree, err := DecodeTree(data)
	if err != nil {
		return nil, newError("GetSolutionTree", KindInvalid, "decoding tree %s: %w", key, err)
	}
	return tree, nil
}

// GetMeta decodes and returns the meta record stored under key.
func (s *Store) GetMeta(key string) (Meta, error) {
	data, err := s.blobs.ReadBytes(PrefixSolutionTreeMeta, key)
	if err != nil {
		return Meta{}, wrapBlobstoreErr("GetMeta", err)
	}
	meta, err := DecodeMeta(data)
	if err != nil {
		return Meta{}, newError("GetMeta", KindInvalid, "decoding meta %s: %w", key, err)
	}
	return meta, nil
}

// GetPreflopConfig decodes and returns the preflop config stored under key.
func (s *Store) GetPreflopConfig(key string) (solverconfig.Config, error) {
	return s.getConfig(PrefixPreflopConfig, key)
}

// GetPostflopConfig decodes and returns the postflop config stored under key.
func (s *Store) GetPostflopConfig(key string) (solverconfig.Config, error) {
	return s.getConfig(PrefixPostflopConfig, key)
}

func (s *Store) getConfig(prefix, key string) (solverconfig.Config, error) {
	data, err := s.blobs.ReadBytes(prefix, key)
	if err != nil {
		return nil, wrapBlobstoreErr("getConfig", err)
	}
	var config solverconfig.Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, newError("getConfig", KindInvalid, "decoding config %s: %w", key, err)
	}
	return config, nil
}

// Lookup computes the index key for the given solve shape and config, and
// returns every matching entry (possibly empty).
func (s *Store) Lookup(isPathSolve bool, seq actionpath.Sequence, config solverconfig.Config, solverType solverconfig.SolverType) ([]IndexEntry, error) {
	indexKey, err := solverconfig.IndexKey(solverType, isPathSolve, seq, config)
	if err != nil {
		return nil, newError("Lookup", KindInvalid, "computing index key: %w", err)
	}
	return s.index.Lookup(indexKey), nil
}

// Index returns the store's current in-memory index.
func (s *Store) Index() *Index {
	return s.index
}

// Path returns the store's root directory.
func (s *Store) Path() string {
	return s.blobs.Path
}
