// Package config loads rasterdoc settings.
//
// Settings are layered: built-in defaults, then a TOML or YAML file, then
// environment variables prefixed with RASTERDOC_. Later layers override
// earlier ones key by key. A Watcher reloads the file when it changes.
//
// Example file:
//
//	[history]
//	max_entries = 200
//
//	[tiles]
//	chunk_budget = 65536
//
//	[logging]
//	level = "debug"
package config
