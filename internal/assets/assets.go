// Package assets locates and loads animation set documents.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Faultbox/pivot/pkg/turn"
)

// Library resolves animation set names against a list of search
// directories and caches the built sets.
type Library struct {
	dirs  []string
	cache map[string]*turn.AnimSet
	mu    sync.RWMutex
}

// NewLibrary creates a library searching the given directories.
func NewLibrary(dirs ...string) *Library {
	return &Library{
		dirs:  append([]string(nil), dirs...),
		cache: make(map[string]*turn.AnimSet),
	}
}

// AddDir appends a search directory.
// Directories are searched in reverse order (last added = highest priority).
func (l *Library) AddDir(dir string) {
	l.mu.Lock()
	l.dirs = append(l.dirs, dir)
	l.mu.Unlock()
}

// Resolve maps an animation set name to a document path. Names carrying
// a path separator or an extension are treated as explicit paths;
// bare names are tried with .yaml and .yml extensions in each directory.
func (l *Library) Resolve(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') ||
		filepath.Ext(name) != "" {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("anim set %s: %w", name, err)
		}
		return name, nil
	}

	l.mu.RLock()
	dirs := l.dirs
	l.mu.RUnlock()

	for i := len(dirs) - 1; i >= 0; i-- {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dirs[i], name+ext)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("anim set not found: %s", name)
}

// Load returns the animation set with the given name. The empty name
// returns the built-in default set. Built sets are cached by resolved
// path; callers must treat them as read-only.
func (l *Library) Load(name string) (*turn.AnimSet, error) {
	if name == "" {
		return turn.DefaultAnimSet(), nil
	}

	path, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	set, ok := l.cache[path]
	l.mu.RUnlock()
	if ok {
		return set, nil
	}

	set, err = turn.LoadAnimSet(path)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[path] = set
	l.mu.Unlock()
	return set, nil
}

// Clear drops all cached sets.
func (l *Library) Clear() {
	l.mu.Lock()
	l.cache = make(map[string]*turn.AnimSet)
	l.mu.Unlock()
}
