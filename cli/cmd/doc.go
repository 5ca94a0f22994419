// Package cmd implements the codegen subcommands: generate, dump and init.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// of the YAML file holding flag defaults.
	ConfigIdentifier = "config"
)
