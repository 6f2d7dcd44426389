package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

// Response is the JSON form of a write acknowledged by the server
type Response struct {
	File     string `json:"file,omitempty"`
	ID       string `json:"id,omitempty"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newLocateCommand() *Command {
	cmd := &Command{
		Name:        "locate",
		Usage:       "locate --country CC --h3 INDEX",
		Description: "List the services covering an H3 cell",
		Flags:       pflag.NewFlagSet("locate", pflag.ContinueOnError),
	}

	country := cmd.Flags.String("country", "", "Country code")
	h3 := cmd.Flags.String("h3", "", "H3 cell index")

	cmd.Run = func(ctx context.Context, app *App, args []string) error {
		app.checkCountry(*country)
		records, err := app.Client.ServicesAtLocation(ctx, *country, *h3)
		if err != nil {
			return err
		}
		return app.printJSON(records)
	}
	return cmd
}

func newGetCommand() *Command {
	cmd := &Command{
		Name:        "get",
		Usage:       "get --country CC --id ID",
		Description: "Fetch a service record",
		Flags:       pflag.NewFlagSet("get", pflag.ContinueOnError),
	}

	country := cmd.Flags.String("country", "", "Country code")
	id := cmd.Flags.String("id", "", "Record id")

	cmd.Run = func(ctx context.Context, app *App, args []string) error {
		app.checkCountry(*country)
		record, err := app.Client.ServiceWithID(ctx, *country, *id)
		if err != nil {
			return err
		}
		return app.printJSON(record)
	}
	return cmd
}

func newMineCommand() *Command {
	cmd := &Command{
		Name:        "mine",
		Usage:       "mine --country CC",
		Description: "List the service records published with the current token",
		Flags:       pflag.NewFlagSet("mine", pflag.ContinueOnError),
	}

	country := cmd.Flags.String("country", "", "Country code")

	cmd.Run = func(ctx context.Context, app *App, args []string) error {
		app.checkCountry(*country)
		records, err := app.Client.ServicesForProducer(ctx, *country, app.Token)
		if err != nil {
			return err
		}
		return app.printJSON(records)
	}
	return cmd
}

func newPutCommand() *Command {
	cmd := &Command{
		Name:        "put",
		Usage:       "put --country CC --id ID FILE",
		Description: "Validate an SSR file and replace the record with it",
		Flags:       pflag.NewFlagSet("put", pflag.ContinueOnError),
	}

	country := cmd.Flags.String("country", "", "Country code")
	id := cmd.Flags.String("id", "", "Record id")

	cmd.Run = func(ctx context.Context, app *App, args []string) error {
		app.checkCountry(*country)
		if len(args) != 1 {
			return fmt.Errorf("put: exactly one SSR file is required")
		}

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		if err := app.Client.ValidateSSR(string(content), filepath.Base(args[0])); err != nil {
			return err
		}

		resp, err := app.Client.PutService(ctx, *country, string(content), *id, app.Token)
		if err != nil {
			return err
		}
		return app.printJSON(Response{File: args[0], ID: *id, Response: resp})
	}
	return cmd
}

func newDeleteCommand() *Command {
	cmd := &Command{
		Name:        "delete",
		Usage:       "delete --country CC --id ID",
		Description: "Delete a service record",
		Flags:       pflag.NewFlagSet("delete", pflag.ContinueOnError),
	}

	country := cmd.Flags.String("country", "", "Country code")
	id := cmd.Flags.String("id", "", "Record id")

	cmd.Run = func(ctx context.Context, app *App, args []string) error {
		app.checkCountry(*country)
		resp, err := app.Client.DeleteWithID(ctx, *country, *id, app.Token)
		if err != nil {
			return err
		}
		return app.printJSON(Response{ID: *id, Response: resp})
	}
	return cmd
}
