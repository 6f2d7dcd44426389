package cli

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/openarcloud/ssd/pkg/ssr"
)

func newCountriesCommand() *Command {
	return &Command{
		Name:        "countries",
		Usage:       "countries",
		Description: "List the country codes served by the public deployment",
		Flags:       pflag.NewFlagSet("countries", pflag.ContinueOnError),
		Run: func(ctx context.Context, app *App, args []string) error {
			return app.printJSON(ssr.SupportedCountries)
		},
	}
}

func newServiceTypesCommand() *Command {
	return &Command{
		Name:        "service-types",
		Usage:       "service-types",
		Description: "List the known service types",
		Flags:       pflag.NewFlagSet("service-types", pflag.ContinueOnError),
		Run: func(ctx context.Context, app *App, args []string) error {
			return app.printJSON(ssr.AvailableServiceTypes)
		},
	}
}

func newDraftCommand() *Command {
	cmd := &Command{
		Name:        "draft",
		Usage:       "draft --provider NAME",
		Description: "Print an empty SSR with one blank service to start editing from",
		Flags:       pflag.NewFlagSet("draft", pflag.ContinueOnError),
	}

	provider := cmd.Flags.String("provider", "", "Provider name")

	cmd.Run = func(ctx context.Context, app *App, args []string) error {
		draft := ssr.NewDraft(*provider)
		draft.Services = append(draft.Services, ssr.NewService())
		return app.printJSON(draft)
	}
	return cmd
}
