package cmd

import "github.com/oldgreydog/codegen/pkg"

var (
	ErrNoContext   = pkg.NewError("command run without a kong context")
	ErrYAMLMarshal = pkg.NewError("marshal YAML")
	ErrWriteConfig = pkg.NewError("write configuration file")
	ErrFileExists  = pkg.NewError("file exists (use --force to overwrite)")
	ErrWriteOutput = pkg.NewError("write output")
	ErrReadInput   = pkg.NewError("read input")
)
