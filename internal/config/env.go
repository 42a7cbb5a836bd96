package config

import (
	"strconv"
	"strings"
)

// envMap collects variables starting with prefix. RASTERDOC_HISTORY_MAX_ENTRIES
// sets history.max_entries: the first segment names the section and the rest
// the key.
func envMap(prefix string, environ []string) map[string]any {
	m := make(map[string]any)
	if prefix == "" {
		return m
	}
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		section, key, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, prefix)), "_")
		if !ok || section == "" || key == "" {
			continue
		}
		sub, _ := m[section].(map[string]any)
		if sub == nil {
			sub = make(map[string]any)
			m[section] = sub
		}
		sub[key] = parseValue(value)
	}
	return m
}

// parseValue converts s to the most specific of int, float, bool or string.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	return s
}
