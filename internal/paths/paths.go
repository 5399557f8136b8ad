// Package paths resolves dot/bracket record paths against decoded JSON
// values. It distinguishes a path that is absent from one that resolves to
// an explicit null, which rendering and condition evaluation both rely on.
package paths

import (
	"strconv"
	"strings"
)

// Parse splits a path such as "items[2].name" or "a.b.c" into segments.
// Bracket indices become their decimal string form, so "items[2]" and
// "items.2" address the same element.
func Parse(path string) []string {
	if path == "" {
		return nil
	}
	var segs []string
	for _, part := range strings.Split(path, ".") {
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				if part != "" {
					segs = append(segs, part)
				}
				break
			}
			if open > 0 {
				segs = append(segs, part[:open])
			}
			close := strings.IndexByte(part, ']')
			if close < 0 {
				segs = append(segs, part[open+1:])
				break
			}
			segs = append(segs, part[open+1:close])
			part = part[close+1:]
		}
	}
	return segs
}

// Get resolves path against data. The second return distinguishes a defined
// null (true) from an absent path (false).
func Get(data any, path string) (any, bool) {
	return get(data, Parse(path))
}

func get(data any, segs []string) (any, bool) {
	cur := data
	for _, seg := range segs {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether path is defined in data, regardless of its value.
func Has(data any, path string) bool {
	_, ok := Get(data, path)
	return ok
}

// Set writes value at path inside root, creating intermediate maps as
// needed. root must be a map; slices along the path are written in place
// when the index is in range. It returns the (possibly unchanged) root.
func Set(root map[string]any, path string, value any) map[string]any {
	segs := Parse(path)
	if len(segs) == 0 {
		return root
	}
	if root == nil {
		root = make(map[string]any)
	}
	setIn(root, segs, value)
	return root
}

func setIn(container any, segs []string, value any) {
	seg, rest := segs[0], segs[1:]
	switch v := container.(type) {
	case map[string]any:
		if len(rest) == 0 {
			v[seg] = value
			return
		}
		child, ok := v[seg]
		if !ok || !traversable(child) {
			child = make(map[string]any)
			v[seg] = child
		}
		setIn(child, rest, value)
	case []any:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= len(v) {
			return
		}
		if len(rest) == 0 {
			v[idx] = value
			return
		}
		if !traversable(v[idx]) {
			v[idx] = make(map[string]any)
		}
		setIn(v[idx], rest, value)
	}
}

func traversable(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// Unset removes the value at path. Missing intermediate segments are a
// no-op. Slice elements are set to nil rather than spliced, so sibling
// indices stay stable.
func Unset(root map[string]any, path string) {
	segs := Parse(path)
	if len(segs) == 0 || root == nil {
		return
	}
	if len(segs) == 1 {
		delete(root, segs[0])
		return
	}
	parent, ok := get(root, segs[:len(segs)-1])
	if !ok {
		return
	}
	last := segs[len(segs)-1]
	switch v := parent.(type) {
	case map[string]any:
		delete(v, last)
	case []any:
		if idx, err := strconv.Atoi(last); err == nil && idx >= 0 && idx < len(v) {
			v[idx] = nil
		}
	}
}
