// Package cmd implements the command-line interface of rKV. It provides a
// hierarchical command structure with operations for running the server and
// interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Starting and configuring the rKV server
//   - kv: One-shot client commands (get, set, del, keys, zadd, zrem, zscore, zquery) and the perf tool
//   - repl: An interactive shell sending raw commands
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as an environment variable with the RKV_ prefix
// (e.g. RKV_MAX_CONNECTIONS=100), in a .env or .env.local file, or in a config
// file passed with --config. See rkv --help for a list of all commands.
package cmd
