package config

import (
	"slices"
	"strings"
)

// reservedSegments can never be addressed through a dotted key.
var reservedSegments = []string{"__proto__", "prototype", "constructor"}

// ParseConfigPath splits "gateway.auth.token" into its segments.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	segs := strings.Split(raw, ".")
	if slices.Contains(segs, "") {
		return nil, &ConfigError{Message: "config path contains empty segment"}
	}
	for _, s := range segs {
		if slices.Contains(reservedSegments, s) {
			return nil, &ConfigError{Message: "config path contains blocked key: " + s}
		}
	}
	return segs, nil
}

// GetValueAtPath looks up a dotted key in a raw config tree.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	parent, ok := walk(root, path, false)
	if !ok {
		return nil, false
	}
	v, ok := parent[path[len(path)-1]]
	return v, ok
}

// SetValueAtPath stores value, replacing any non-map intermediate with a
// fresh map.
func SetValueAtPath(root map[string]any, path []string, value any) {
	parent, _ := walk(root, path, true)
	parent[path[len(path)-1]] = value
}

// UnsetValueAtPath deletes a dotted key and reports whether it existed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	parent, ok := walk(root, path, false)
	if !ok {
		return false
	}
	last := path[len(path)-1]
	if _, ok := parent[last]; !ok {
		return false
	}
	delete(parent, last)
	return true
}

// walk returns the map holding the last segment of path.
func walk(root map[string]any, path []string, create bool) (map[string]any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	cur := root
	for _, key := range path[:len(path)-1] {
		next, ok := cur[key].(map[string]any)
		if !ok {
			if !create {
				return nil, false
			}
			next = map[string]any{}
			cur[key] = next
		}
		cur = next
	}
	return cur, true
}
