// Package dotpath implements dotted-path access into trees of
// map[string]any nodes, e.g. "user.profile.age".
package dotpath

import "strings"

// Split breaks a dotted path into its segments. An empty path yields a
// single empty segment so that callers treat "" as a literal key.
func Split(path string) []string {
	return strings.Split(path, ".")
}

// Get walks the tree along path and reports whether every segment was
// present. A non-map value encountered before the final segment counts as
// absent.
func Get(root map[string]any, path string) (any, bool) {
	segs := Split(path)
	cur := root
	for i, seg := range segs {
		v, ok := cur[seg]
		if !ok {
			return nil, false
		}
		if i == len(segs)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// Set writes value at path, creating intermediate maps as needed. An
// intermediate that exists but is not a map is replaced by a fresh map.
func Set(root map[string]any, path string, value any) {
	segs := Split(path)
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// Unset removes the value at path. Missing segments are a no-op. Parents
// emptied by the removal are left in place.
func Unset(root map[string]any, path string) {
	segs := Split(path)
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, segs[len(segs)-1])
}
