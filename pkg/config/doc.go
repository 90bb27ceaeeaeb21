// Package config handles configuration management for reshader.
// It layers the embedded defaults, the user's config.toml and RESHADER_*
// environment variables, in that order.
package config
