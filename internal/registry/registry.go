// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry holds the ordered, de-duplicated list of input files that
// a merge job concatenates. Insertion order is the output page order.
//
// A Registry is not safe for concurrent use. It is owned by the interaction
// loop; jobs work on the snapshot returned by Entries.
package registry

import (
	"os"
	"sort"

	"github.com/pdiddy/docmerge/pkg/types"
)

// Registry is an ordered list of FileEntry values with unique paths.
type Registry struct {
	entries []types.FileEntry
	index   map[string]struct{}
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{index: make(map[string]struct{})}
}

// Add appends path when it names an existing regular file that is not
// already present. It reports whether the path was admitted; missing,
// non-regular and duplicate paths are ignored without error.
func (r *Registry) Add(path string) bool {
	if path == "" {
		return false
	}
	if _, dup := r.index[path]; dup {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	r.entries = append(r.entries, types.NewFileEntry(path))
	r.index[path] = struct{}{}
	return true
}

// Drop parses a drag-and-drop payload and adds every path in it. It returns
// the paths that were admitted, in payload order.
func (r *Registry) Drop(payload string) []string {
	var added []string
	for _, p := range ParseDropPayload(payload) {
		if r.Add(p) {
			added = append(added, p)
		}
	}
	return added
}

// Remove deletes the entries at the given 0-based positions. Indices are
// de-duplicated and applied from highest to lowest so earlier positions do
// not shift under later deletions. Out-of-range indices are ignored. It
// returns the number of entries removed.
func (r *Registry) Remove(indices ...int) int {
	uniq := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(r.entries) {
			uniq[i] = struct{}{}
		}
	}
	sorted := make([]int, 0, len(uniq))
	for i := range uniq {
		sorted = append(sorted, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	for _, i := range sorted {
		delete(r.index, r.entries[i].Path)
		r.entries = append(r.entries[:i], r.entries[i+1:]...)
	}
	return len(sorted)
}

// Clear empties the registry.
func (r *Registry) Clear() {
	r.entries = nil
	r.index = make(map[string]struct{})
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the entries in order. Mutating the registry
// afterwards does not affect the returned slice.
func (r *Registry) Entries() []types.FileEntry {
	out := make([]types.FileEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Paths returns the entry paths in order.
func (r *Registry) Paths() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Path
	}
	return out
}
