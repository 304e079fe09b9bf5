package config

import (
	"sort"
	"strings"
)

// secretKeys lists the dotted keys whose values are masked when listed.
var secretKeys = map[string]bool{
	"telegram.token":      true,
	"feed.redis_password": true,
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

// Flatten turns a JSON object tree into dotted keys:
// {"feed": {"url": "wss://x"}} becomes {"feed.url": "wss://x"}.
// Lists are leaves. Empty objects produce no keys.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	walk(nil, m, func(path []string, v any) {
		out[strings.Join(path, ".")] = v
	})
	return out
}

func walk(path []string, m map[string]any, leaf func([]string, any)) {
	for k, v := range m {
		p := append(path[:len(path):len(path)], k)
		if child, ok := v.(map[string]any); ok {
			walk(p, child, leaf)
			continue
		}
		leaf(p, v)
	}
}

// Unflatten is the inverse of Flatten. Keys are applied shortest first, so
// "a.b" wins over a scalar stored at "a".
func Unflatten(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		di, dj := strings.Count(keys[i], "."), strings.Count(keys[j], ".")
		if di != dj {
			return di < dj
		}
		return keys[i] < keys[j]
	})

	out := make(map[string]any)
	for _, k := range keys {
		setPath(out, strings.Split(k, "."), flat[k])
	}
	return out
}

// setPath stores v at path, replacing any scalar that sits where an object
// is needed.
func setPath(root map[string]any, path []string, v any) {
	node := root
	for _, part := range path[:len(path)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[part] = next
		}
		node = next
	}
	node[path[len(path)-1]] = v
}

// MaskSecrets returns a copy of flat where non-empty secret strings are
// shown as "***" plus their last four characters.
func MaskSecrets(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	for k, v := range flat {
		out[k] = v
		if s, ok := v.(string); ok && secretKeys[k] && s != "" {
			out[k] = mask(s)
		}
	}
	return out
}

func mask(s string) string {
	if len(s) <= 4 {
		return "***" + s
	}
	return "***" + s[len(s)-4:]
}
