// Package file provides file-based implementations of driven port interfaces.
//
// ConfigStore keeps settings in ~/.rentsync/config.toml and layers
// RENTSYNC_* environment variables (and .env files) on top.
package file
