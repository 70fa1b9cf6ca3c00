package treestore

import (
	"encoding/json"
	"sort"
	"sync"
)

// IndexEntry names one stored tree reachable under a given index key: the
// config it was solved with, and the tree itself.
type IndexEntry struct {
	SolverConfigKey string `json:"solver_config_key"`
	SolutionTreeKey string `json:"solution_tree_key"`
}

func (e IndexEntry) less(other IndexEntry) bool {
	if e.SolverConfigKey != other.SolverConfigKey {
		return e.SolverConfigKey < other.SolverConfigKey
	}
	return e.SolutionTreeKey < other.SolutionTreeKey
}

// Index maps an index_key (§3 Data model) to the unordered set of entries
// solved under it. Merge is set union per key; size is the total entry
// count across every key. Internally kept as sets so that concurrent
// writers producing the same entry twice (e.g. after a crash-and-retry)
// never inflate Size.
type Index struct {
	mu      sync.Mutex
	entries map[string]map[IndexEntry]struct{}
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]map[IndexEntry]struct{})}
}

// Add inserts entry under indexKey. Reports whether it was newly added (as
// opposed to already present).
func (idx *Index) Add(indexKey string, entry IndexEntry) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	set, ok := idx.entries[indexKey]
	if !ok {
		set = make(map[IndexEntry]struct{})
		idx.entries[indexKey] = set
	}
	if _, exists := set[entry]; exists {
		return false
	}
	set[entry] = struct{}{}
	return true
}

// Lookup returns every entry stored under indexKey, sorted by
// (SolverConfigKey, SolutionTreeKey) for deterministic output.
func (idx *Index) Lookup(indexKey string) []IndexEntry {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return sortedEntries(idx.entries[indexKey])
}

// Size returns the total number of entries across every index key.
func (idx *Index) Size() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	total := 0
	for _, set := range idx.entries {
		total += len(set)
	}
	return total
}

// Keys returns every index key currently present, in no particular order.
func (idx *Index) Keys() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	keys := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, k)
	}
	return keys
}

// Merge unions other into idx in place, key by key.
func (idx *Index) Merge(other *Index) {
	if other == nil {
		return
	}
	other.mu.Lock()
	snapshot := make(map[string][]IndexEntry, len(other.entries))
	for k, set := range other.entries {
		snapshot[k] = sortedEntries(set)
	}
	other.mu.Unlock()

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for k, list := range snapshot {
		set, ok := idx.entries[k]
		if !ok {
			set = make(map[IndexEntry]struct{})
			idx.entries[k] = set
		}
		for _, e := range list {
			set[e] = struct{}{}
		}
	}
}

func sortedEntries(set map[IndexEntry]struct{}) []IndexEntry {
	out := make([]IndexEntry, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// MarshalJSON serializes the index as an object mapping index_key to its
// sorted entry array (§6 "Index JSON schema"). Go's encoding/json sorts
// map[string]X keys when marshaling, so the outer ordering by index_key
// comes for free; entries within each array are explicitly sorted here.
func (idx *Index) MarshalJSON() ([]byte, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make(map[string][]IndexEntry, len(idx.entries))
	for k, set := range idx.entries {
		out[k] = sortedEntries(set)
	}
	return json.Marshal(out)
}

// UnmarshalJSON replaces idx's contents with the decoded object.
func (idx *Index) UnmarshalJSON(data []byte) error {
	var decoded map[string][]IndexEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = make(map[string]map[IndexEntry]struct{}, len(decoded))
	for k, list := range decoded {
		set := make(map[IndexEntry]struct{}, len(list))
		for _, e := range list {
			set[e] = struct{}{}
		}
		idx.entries[k] = set
	}
	return nil
}

// Equal reports whether idx and other serialize to the same canonical JSON.
func (idx *Index) Equal(other *Index) bool {
	a, errA := idx.MarshalJSON()
	b, errB := other.MarshalJSON()
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

// Clone returns a deep copy of idx.
func (idx *Index) Clone() *Index {
	clone := NewIndex()
	clone.Merge(idx)
	return clone
}
