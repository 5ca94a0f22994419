// Package profile provides optional runtime profiling for codegen.
//
// Profiling is compiled in only when building with the "pprof" tag:
//
//	go build -tags pprof .
//	./codegen --pprof-mode cpu generate config.yaml root.template
//
// Without the tag every operation is a no-op. Profiles are written by
// [github.com/pkg/profile] to the configured directory (by default the
// user cache directory) and can be inspected with "go tool pprof".
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
