package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/openarcloud/ssd/pkg/ssr"
	"github.com/openarcloud/ssd/pkg/validation"
)

func newNormalizeCommand() *Command {
	cmd := &Command{
		Name:        "normalize",
		Usage:       "normalize [--bbox] FILE...",
		Description: "Print SSR files in canonical form",
		Flags:       pflag.NewFlagSet("normalize", pflag.ContinueOnError),
	}

	bbox := cmd.Flags.Bool("bbox", false, "Compute a bounding box for records without one")

	cmd.Run = func(ctx context.Context, app *App, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("normalize: at least one SSR file is required")
		}

		config := validation.DefaultNormalizationConfig()
		config.ComputeBBox = *bbox
		normalizer := validation.NewNormalizer(config)

		records := make([]ssr.SSR, 0, len(args))
		for _, file := range args {
			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			if err := app.Client.ValidateSSR(string(content), filepath.Base(file)); err != nil {
				return err
			}
			record, err := ssr.Unmarshal(string(content))
			if err != nil {
				return err
			}
			records = append(records, normalizer.Normalize(record))
		}
		return app.printJSON(records)
	}
	return cmd
}
