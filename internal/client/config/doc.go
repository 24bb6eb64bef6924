// Package config loads runtime configuration for the maillistctl API
// commands (signup, verify, unsubscribe).
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-e string   address:port of the maillist gRPC endpoint
//	-r int      per-request timeout (seconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s"
//	}
//
// The same file may also carry server keys; the admin commands read those
// through the server config package.
package config
