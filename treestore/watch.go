package treestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchIndexes watches the store's index/ prefix for new blobs appearing on
// disk from concurrent writer processes and merges each one into the
// in-memory index as it lands (§5 "multiple writers may concurrently
// append new index/* blobs; readers merge by set union"). It blocks until
// ctx is cancelled or the watcher itself fails, and always returns with the
// watcher closed.
func (s *Store) WatchIndexes(ctx context.Context) error {
	root := filepath.Join(s.blobs.Path, PrefixIndex)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return newError("WatchIndexes", KindInvalid, "creating index root: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return newError("WatchIndexes", KindInvalid, "creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursiveWatch(watcher, root); err != nil {
		return newError("WatchIndexes", KindInvalid, "watching index directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleIndexWatchEvent(watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return newError("WatchIndexes", KindInvalid, "watcher error: %w", err)
		}
	}
}

func (s *Store) handleIndexWatchEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		_ = addRecursiveWatch(watcher, event.Name)
		// Blobs written under the new directory before its watch was
		// registered produce no event of their own, so merge them here.
		_ = filepath.Walk(event.Name, func(path string, fi os.FileInfo, err error) error {
			if err == nil && !fi.IsDir() {
				s.handleIndexWatchEvent(watcher, fsnotify.Event{Name: path, Op: fsnotify.Create})
			}
			return nil
		})
		return
	}
	if filepath.Ext(event.Name) == ".gz" {
		return
	}
	data, err := os.ReadFile(event.Name)
	if err != nil {
		return
	}
	other := NewIndex()
	if err := json.Unmarshal(data, other); err != nil {
		return
	}
	s.index.Merge(other)
}

func addRecursiveWatch(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
