// Package config loads runtime configuration for the GophDrive CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the drive server
//	-s string   path of the local state database
//	-d int      search debounce window (milliseconds)
//	-o string   download directory
//
// # JSON schema
//
// Durations accept strings like "300ms" or integer nanoseconds:
//
//	{
//	  "server_url": "http://localhost:8080",
//	  "state_db": "gophdrive.db",
//	  "search_debounce": "300ms",
//	  "download_dir": "downloads",
//	  "log_level": "warn"
//	}
package config
