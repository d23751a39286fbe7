package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/foldr/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult describes one compiled program.
type CompilationResult struct {
	Name    string          `json:"name"`
	Hash    string          `json:"hash"`
	Steps   int             `json:"steps"`
	Program json.RawMessage `json:"program"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <program>",
		Short: "Compile a program to canonical JSON",
		Long: `Compile a program written in CUE, JSON or YAML to canonical JSON.

The canonical form (RFC 8785) is what the run log stores and what the
program hash is computed over, so two files that compile to the same
bytes are the same program.

Examples:
  foldr compile cart.cue
  foldr compile cart.yaml -o cart.json
  foldr compile cart.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	formatter.VerboseLog("Loading program from %s", path)
	program, err := LoadProgram(path)
	if err != nil {
		return formatter.failLoad(err, nil)
	}

	result, err := compileResult(program)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Compiled %s: %d step(s)", result.Name, result.Steps)

	// Write to file if --output specified
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, result.Program, 0o644); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	w := formatter.Writer
	if opts.Output == "" {
		fmt.Fprintln(w, string(result.Program))
	}
	fmt.Fprintf(w, "✓ Compiled %s (%d step(s))\n", result.Name, result.Steps)
	fmt.Fprintf(w, "Hash: %s\n", result.Hash)
	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote canonical program to %s\n", opts.Output)
	}
	return nil
}

// compileResult renders program in canonical form together with its hash.
func compileResult(program *ir.Program) (*CompilationResult, error) {
	value, err := ir.ProgramValue(program)
	if err != nil {
		return nil, fmt.Errorf("encoding program: %w", err)
	}
	data, err := ir.MarshalCanonical(value)
	if err != nil {
		return nil, fmt.Errorf("encoding program: %w", err)
	}
	hash, err := ir.ProgramHash(program)
	if err != nil {
		return nil, fmt.Errorf("hashing program: %w", err)
	}
	return &CompilationResult{
		Name:    program.Definition.Name,
		Hash:    hash,
		Steps:   len(program.Steps),
		Program: data,
	}, nil
}
