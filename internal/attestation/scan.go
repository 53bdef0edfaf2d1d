package attestation

import (
	"reflect"
	"strconv"
)

// walk performs an explicit depth-first traversal over a decoded JSON
// value (maps, lists, strings, numbers, bools, null), calling visit for
// every string value with its slash-joined path. Traversal stops early
// when visit returns true.
//
// A visited set over map/slice identities protects against cycles, which
// can occur when a caller hands us a self-referential structure rather
// than a freshly decoded body. reflect is used only to obtain those
// identities, not to traverse structs.
func walk(v any, visit func(path, s string) bool) {
	visited := make(map[ref]struct{})
	dfs("", v, visited, visit)
}

// ref identifies a map or slice for cycle detection. Slices are keyed on
// (data pointer, length): two slices can alias the same backing array
// with different lengths, and the longer one must still be traversed.
// Equal pointer and equal length means an identical view, which is safe
// to skip. Maps use length -1; a map pointer alone is already unique.
type ref struct {
	ptr uintptr
	len int
}

func dfs(path string, v any, visited map[ref]struct{}, visit func(path, s string) bool) bool {
	switch val := v.(type) {
	case string:
		return visit(path, val)

	case map[string]any:
		if !mark(visited, ref{reflect.ValueOf(val).Pointer(), -1}) {
			return false
		}
		for k, item := range val {
			if dfs(path+"/"+k, item, visited, visit) {
				return true
			}
		}

	case []any:
		if len(val) == 0 {
			return false
		}
		if !mark(visited, ref{reflect.ValueOf(val).Pointer(), len(val)}) {
			return false
		}
		for i, item := range val {
			if dfs(path+"/"+strconv.Itoa(i), item, visited, visit) {
				return true
			}
		}
	}

	// Numbers, bools and null carry no string payload.
	return false
}

// mark records r in the visited set, reporting false when it was
// already present.
func mark(visited map[ref]struct{}, r ref) bool {
	if _, ok := visited[r]; ok {
		return false
	}
	visited[r] = struct{}{}
	return true
}
