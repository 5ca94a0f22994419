// Package cli contains the command line interface for codegen.
//
// # Usage
//
//	codegen [flags] [generate] <config> <template> [<variables>]
//	codegen dump <template>
//	codegen init
//
// generate is the default command. It loads the configuration tree (YAML,
// JSON or HCL), merges an optional variables file into it and renders the
// template. Files named by file tags are written relative to --dest-dir;
// the output of the root template itself goes to --output.
//
// # Configuration File
//
// Flag defaults may be stored as YAML in config.yaml under the user
// configuration directory (e.g. ~/.config/codegen/config.yaml). init writes
// the current flag values there.
//
// # Logging Options
//
//   - --log-level: minimum level (trace, debug, info, warn, error)
//   - --log-format: text or json
//   - --log-time-layout: timestamp format (RFC3339, Kitchen, ...)
//   - --[no-]log-caller: include the call site
//   - --[no-]log-pretty: colorize output on terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o codegen .
//
// The flags --pprof-mode and --pprof-dir select the profile kind and the
// output directory.
package cli
