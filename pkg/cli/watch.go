package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
)

// WatchEvent is the JSON line written for every changed SSR file
type WatchEvent struct {
	ValidationResult
	Response string `json:"response,omitempty"`
}

func newWatchCommand() *Command {
	cmd := &Command{
		Name:        "watch",
		Usage:       "watch [--dir DIR] [--post --country CC]",
		Description: "Validate SSR files as they change, optionally posting them",
		Flags:       pflag.NewFlagSet("watch", pflag.ContinueOnError),
	}

	dir := cmd.Flags.String("dir", ".", "Directory to watch")
	post := cmd.Flags.Bool("post", false, "Post files that pass validation")
	country := cmd.Flags.String("country", "", "Country code used with --post")

	cmd.Run = func(ctx context.Context, app *App, args []string) error {
		if *post && *country == "" {
			return fmt.Errorf("watch: --country is required with --post")
		}
		w := &watcher{app: app, post: *post, country: *country}
		return w.run(ctx, *dir)
	}
	return cmd
}

type watcher struct {
	app     *App
	post    bool
	country string
}

// run blocks until ctx is done or the watcher fails
func (w *watcher) run(ctx context.Context, root string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := addDirs(fsw, root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	w.app.Logger.WithField("dir", root).Info("Watching for SSR changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := fsw.Add(event.Name); err != nil {
						w.app.Logger.WithError(err).WithField("dir", event.Name).Warn("Failed to watch new directory")
					}
					continue
				}
			}
			if isSSRFile(event) {
				if err := w.handle(ctx, event.Name); err != nil {
					return err
				}
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.app.Logger.WithError(err).Warn("Watcher error")
		}
	}
}

func isSSRFile(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0 &&
		strings.EqualFold(filepath.Ext(event.Name), ".json")
}

// handle validates file and posts it when enabled. Failures are reported
// in the output and logged; only output errors stop the watcher.
func (w *watcher) handle(ctx context.Context, file string) error {
	event := WatchEvent{ValidationResult: validateFile(w.app, file)}
	logger := w.app.Logger.WithField("file", file)

	switch {
	case !event.Valid:
		logger.WithField("error", event.Error).Warn("SSR is invalid")
	case w.post:
		resp, err := w.app.Client.PostSSRFile(ctx, w.country, file, w.app.Token)
		if err != nil {
			logger.WithError(err).Error("Failed to post SSR")
			event.Error = err.Error()
		} else {
			logger.Info("Posted SSR")
			event.Response = resp
		}
	default:
		logger.Debug("SSR is valid")
	}

	return w.app.printEvent(event)
}

// addDirs recursively adds all directories to the watcher
func addDirs(fsw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
