// Package jsonpatch computes RFC 6902 patches between two JSON documents.
package jsonpatch

import (
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Op is a single patch operation: {"op", "path"[, "value"]}.
type Op = map[string]any

// Between marshals a and b to JSON and returns the forward (a→b) and backward
// (b→a) patches between them.
func Between(a, b any) (fwd, bwd []Op, err error) {
	da, err := document(a)
	if err != nil {
		return nil, nil, err
	}
	db, err := document(b)
	if err != nil {
		return nil, nil, err
	}
	fwd, bwd = DiffBoth(da, db, "")
	return fwd, bwd, nil
}

func document(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Diff computes the patch that transforms a into b.
// Both a and b should be the result of json.Unmarshal into any.
// Path should be "" for the root document.
func Diff(a, b any, path string) []Op {
	fwd, _ := DiffBoth(a, b, path)
	return fwd
}

// DiffBoth computes forward (a→b) and backward (b→a) patches in a single traversal.
func DiffBoth(a, b any, path string) (fwd, bwd []Op) {
	if a == nil && b == nil {
		return nil, nil
	}
	if a == nil || b == nil {
		return []Op{replaceOp(path, b)}, []Op{replaceOp(path, a)}
	}

	aMap, aIsMap := a.(map[string]any)
	bMap, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		return diffObjectsBoth(aMap, bMap, path)
	}

	aArr, aIsArr := a.([]any)
	bArr, bIsArr := b.([]any)
	if aIsArr && bIsArr {
		return diffArraysBoth(aArr, bArr, path)
	}

	if aIsMap || bIsMap || aIsArr || bIsArr || a != b {
		return []Op{replaceOp(path, b)}, []Op{replaceOp(path, a)}
	}

	return nil, nil
}

// Object keys are visited in sorted order so patches are deterministic.
func diffObjectsBoth(a, b map[string]any, path string) (fwd, bwd []Op) {
	for _, k := range sortedKeys(a) {
		if _, ok := b[k]; !ok {
			childPath := path + "/" + escapeKey(k)
			fwd = append(fwd, removeOp(childPath))
			bwd = append(bwd, addOp(childPath, a[k]))
		}
	}

	for _, k := range sortedKeys(b) {
		childPath := path + "/" + escapeKey(k)
		av, inA := a[k]
		if !inA {
			fwd = append(fwd, addOp(childPath, b[k]))
			bwd = append(bwd, removeOp(childPath))
			continue
		}
		subFwd, subBwd := DiffBoth(av, b[k], childPath)
		fwd = append(fwd, subFwd...)
		bwd = append(bwd, subBwd...)
	}

	return fwd, bwd
}

func diffArraysBoth(a, b []any, path string) (fwd, bwd []Op) {
	minLen := min(len(a), len(b))

	for i := 0; i < minLen; i++ {
		subFwd, subBwd := DiffBoth(a[i], b[i], path+"/"+strconv.Itoa(i))
		fwd = append(fwd, subFwd...)
		bwd = append(bwd, subBwd...)
	}

	// a has extra elements: forward removes (descending), backward adds (ascending)
	for i := len(a) - 1; i >= minLen; i-- {
		fwd = append(fwd, removeOp(path+"/"+strconv.Itoa(i)))
	}
	for i := minLen; i < len(a); i++ {
		bwd = append(bwd, addOp(path+"/"+strconv.Itoa(i), a[i]))
	}

	// b has extra elements: forward adds (ascending), backward removes (descending)
	for i := minLen; i < len(b); i++ {
		fwd = append(fwd, addOp(path+"/"+strconv.Itoa(i), b[i]))
	}
	for i := len(b) - 1; i >= minLen; i-- {
		bwd = append(bwd, removeOp(path+"/"+strconv.Itoa(i)))
	}

	return fwd, bwd
}

// TopLevelKeys returns the distinct first path tokens touched by ops, in
// order of first appearance.
func TopLevelKeys(ops []Op) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, op := range ops {
		path, _ := op["path"].(string)
		token := strings.TrimPrefix(path, "/")
		if i := strings.IndexByte(token, '/'); i >= 0 {
			token = token[:i]
		}
		token = unescapeKey(token)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		keys = append(keys, token)
	}
	return keys
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func replaceOp(path string, value any) Op {
	return Op{"op": "replace", "path": path, "value": value}
}

func addOp(path string, value any) Op {
	return Op{"op": "add", "path": path, "value": value}
}

func removeOp(path string) Op {
	return Op{"op": "remove", "path": path}
}

// escapeKey escapes a JSON Pointer token per RFC 6901.
func escapeKey(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	s = strings.ReplaceAll(s, "/", "~1")
	return s
}

func unescapeKey(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	s = strings.ReplaceAll(s, "~0", "~")
	return s
}
