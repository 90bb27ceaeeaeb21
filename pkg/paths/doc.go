// Package paths provides centralized path handling for reshader.
//
// This package implements the XDG Base Directory specification and derives
// every location reshader writes outside of a game directory:
//
//   - Data: $XDG_DATA_HOME/reshader (installation records, downloads)
//   - Config: $XDG_CONFIG_HOME/reshader (config.toml)
//   - Cache: $XDG_CACHE_HOME/reshader (git shader checkouts)
//   - State: $XDG_STATE_HOME/reshader (lock files, log file)
//
// # Environment Variables
//
//   - RESHADER_DATA_DIR: Override the data directory
//   - RESHADER_CONFIG_DIR: Override the config directory
//   - RESHADER_CACHE_DIR: Override the cache directory
//   - RESHADER_STATE_DIR: Override the state directory
//
// # Game keys
//
// Per-game files (records, locks) are named after GameKey, a short stable
// hash of the normalized game path, so two spellings of the same directory
// share one record and one lock.
package paths
