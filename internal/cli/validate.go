package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ceremony/internal/timeline"
)

// FileError is one problem found while validating a timelines directory.
type FileError struct {
	Code    string `json:"code"`
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool        `json:"valid"`
	Files     int         `json:"files"`
	Timelines []string    `json:"timelines,omitempty"`
	Errors    []FileError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <timelines-dir>",
		Short: "Validate custom timeline files",
		Long: `Validate every .cue, .yaml and .yml timeline file in a directory.

Checks syntax, unknown fields, phase vocabulary, targets, negative
times, duplicate identifiers and the single mode-switch rule, and
reports every problem rather than stopping at the first.

Exit codes:
  0 - All timelines valid
  1 - One or more timelines invalid
  2 - Command error (directory missing or empty)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := timeline.LoadDir(dir)

	// Directory-level failures (not found, no files) are command errors.
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *timeline.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, timeline.ErrCodeParse, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d timeline file(s) in %s", loadResult.FileCount, dir)

	result := ValidationResult{Files: loadResult.FileCount}
	for _, tl := range loadResult.Timelines {
		formatter.VerboseLog("Validated timeline: %s", tl.ID)
		result.Timelines = append(result.Timelines, string(tl.ID))
	}

	for _, err := range loadErrors {
		var loadErr *timeline.LoadError
		if errors.As(err, &loadErr) {
			result.Errors = append(result.Errors, FileError{Code: loadErr.Code, File: loadErr.File, Message: loadErr.Message})
			continue
		}
		result.Errors = append(result.Errors, FileError{Code: timeline.ErrCodeParse, Message: err.Error()})
	}

	// Custom timelines must also layer cleanly over the built-ins.
	if len(result.Errors) == 0 {
		if _, err := timeline.Builtin().With(loadResult.Timelines...); err != nil {
			var verr *timeline.ValidationError
			if errors.As(err, &verr) {
				result.Errors = append(result.Errors, FileError{Code: verr.Code, Message: verr.Message})
			} else {
				result.Errors = append(result.Errors, FileError{Code: timeline.ErrCodeCompile, Message: err.Error()})
			}
		}
	}

	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}

	result.Valid = true
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d timeline(s) valid\n", len(result.Timelines))
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Directory problems are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.File != "" {
			fmt.Fprintln(formatter.Writer, err.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
