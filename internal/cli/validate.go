package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/foldr/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Program  string                     `json:"program"`
	Valid    bool                       `json:"valid"`
	Errors   int                        `json:"errors"`
	Warnings int                        `json:"warnings"`
	Findings []compiler.ValidationError `json:"findings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Lint a program without running it",
		Long: `Lint a program without running it.

Reports every finding at once. Error findings (malformed paths, empty
names) make the program unusable; warnings (unwritten output keys, deep
output paths) predict surprising results at run time.

Exit codes:
  0 - No error findings (warnings allowed)
  1 - One or more error findings
  2 - Command error (program not found, does not decode, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	program, err := LoadProgram(path)
	if err != nil {
		var details any
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) && compileErr.Pos.IsValid() {
			details = fmt.Sprintf("%s:%d:%d", compileErr.Pos.Filename(), compileErr.Pos.Line(), compileErr.Pos.Column())
		}
		return formatter.failLoad(err, details)
	}

	formatter.VerboseLog("Validating %s: %d step(s)", program.Definition.Name, len(program.Steps))
	findings := compiler.Validate(program)

	result := ValidationResult{
		Program:  program.Definition.Name,
		Valid:    !compiler.HasErrors(findings),
		Findings: findings,
	}
	for _, f := range findings {
		if f.Severity == compiler.SeverityError {
			result.Errors++
		} else {
			result.Warnings++
		}
	}

	if formatter.Format == "json" {
		return outputValidateJSON(formatter, result)
	}
	return outputValidateText(formatter, result)
}

func outputValidateJSON(formatter *OutputFormatter, result ValidationResult) error {
	if result.Valid {
		return formatter.Success(result)
	}

	response := CLIResponse{
		Status: "error",
		Data:   result,
		Error: &CLIError{
			Code:    ErrCodeLintFailed,
			Message: fmt.Sprintf("validation failed with %d error(s)", result.Errors),
		},
	}
	if err := formatter.Encode(response); err != nil {
		return err
	}

	// Lint errors = exit code 1 (validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", result.Errors))
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer

	if result.Valid {
		if result.Warnings == 0 {
			fmt.Fprintf(w, "✓ %s is valid\n", result.Program)
			return nil
		}
		fmt.Fprintf(w, "✓ %s is valid (%d warning(s))\n\n", result.Program, result.Warnings)
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
	}

	for _, f := range result.Findings {
		fmt.Fprintf(w, "  %s %s: %s\n", f.Code, f.Severity, f.Field)
		fmt.Fprintf(w, "    %s\n", f.Message)
	}

	if result.Valid {
		return nil
	}
	// Lint errors = exit code 1 (validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", result.Errors))
}
