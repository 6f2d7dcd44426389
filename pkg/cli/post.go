package cli

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/openarcloud/ssd/pkg/observability"
)

// DefaultParallelism bounds concurrent uploads of the post command
const DefaultParallelism = 4

func newPostCommand() *Command {
	cmd := &Command{
		Name:        "post",
		Usage:       "post --country CC FILE...",
		Description: "Validate SSR files and submit them as new records",
		Flags:       pflag.NewFlagSet("post", pflag.ContinueOnError),
	}

	country := cmd.Flags.String("country", "", "Country code")
	parallel := cmd.Flags.Int("parallel", DefaultParallelism, "Maximum number of files posted at once")

	cmd.Run = func(ctx context.Context, app *App, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("post: at least one SSR file is required")
		}
		app.checkCountry(*country)
		results, failed := postFiles(ctx, app, *country, args, *parallel)
		if err := app.printJSON(results); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to post", failed, len(args))
		}
		return nil
	}
	return cmd
}

// postFiles posts every file, at most limit at a time. A failing file does
// not stop the others; results are in argument order.
func postFiles(ctx context.Context, app *App, country string, files []string, limit int) ([]Response, int) {
	if limit < 1 {
		limit = 1
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	results := make([]Response, len(files))
	for i, file := range files {
		i, file := i, file
		eg.Go(func() error {
			defer observability.RecoverPanic(app.Logger, "post "+file)

			results[i] = Response{File: file, Error: "aborted"}
			resp, err := app.Client.PostSSRFile(ctx, country, file, app.Token)
			if err != nil {
				app.Logger.WithError(err).WithField("file", file).Error("Failed to post SSR")
				results[i].Error = err.Error()
				return nil
			}
			results[i].Error = ""
			results[i].Response = resp
			app.Logger.WithField("file", file).Info("Posted SSR")
			return nil
		})
	}
	eg.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	return results, failed
}
