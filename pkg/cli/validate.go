package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// ValidationResult is the JSON form of one validated file
type ValidationResult struct {
	File  string `json:"file"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func newValidateCommand() *Command {
	return &Command{
		Name:        "validate",
		Usage:       "validate FILE...",
		Description: "Validate SSR files against the schema",
		Flags:       pflag.NewFlagSet("validate", pflag.ContinueOnError),
		Run:         runValidate,
	}
}

func runValidate(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("validate: at least one SSR file is required")
	}

	results := make([]ValidationResult, 0, len(args))
	invalid := 0
	for _, file := range args {
		result := validateFile(app, file)
		if !result.Valid {
			invalid++
		}
		results = append(results, result)
	}

	if err := app.printJSON(results); err != nil {
		return err
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d files failed validation", invalid, len(args))
	}
	return nil
}

func validateFile(app *App, file string) ValidationResult {
	content, err := os.ReadFile(file)
	if err != nil {
		return ValidationResult{File: file, Error: fmt.Sprintf("failed to read file: %v", err)}
	}
	if err := app.Client.ValidateSSR(string(content), filepath.Base(file)); err != nil {
		return ValidationResult{File: file, Error: err.Error()}
	}
	return ValidationResult{File: file, Valid: true}
}
