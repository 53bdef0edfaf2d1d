// Package config loads runtime configuration for the enclavechat CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. The ENCLAVECHAT_API_KEY environment variable (API key only).
//  4. Command-line flags, which override earlier values.
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be
// either strings like "15s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "https://inference.example.com",
//	  "model": "llama-3.3-70b-instruct",
//	  "signing_algo": "ecdsa",
//	  "request_timeout": "15s",
//	  "sweep_interval": "1m",
//	  "database_path": "enclavechat.db"
//	}
package config
