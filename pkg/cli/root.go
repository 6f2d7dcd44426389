package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Usage       string
	Description string
	Run         func(ctx context.Context, app *App, args []string) error
	Subcommands map[string]*Command
	Flags       *pflag.FlagSet

	global *globalOptions
}

// globalOptions are accepted before and after the command name
type globalOptions struct {
	configPath string
	baseURL    string
	subPath    string
	local      bool
	token      string
	logLevel   string
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "ssd",
		Description: "ssd - A Spatial Service Discovery client",
		Subcommands: make(map[string]*Command),
		Flags:       pflag.NewFlagSet("ssd", pflag.ContinueOnError),
		global:      &globalOptions{},
	}

	g := root.global
	root.Flags.StringVar(&g.configPath, "config", "", "Path to a YAML configuration file")
	root.Flags.StringVar(&g.baseURL, "url", "", "Discovery server base URL")
	root.Flags.StringVar(&g.subPath, "path", "", "SSR collection path segment")
	root.Flags.BoolVar(&g.local, "local", false, "Serve fixture data instead of contacting a server")
	root.Flags.StringVar(&g.token, "token", "", "Bearer token (default $SSD_TOKEN)")
	root.Flags.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	for _, cmd := range []*Command{
		newLocateCommand(),
		newGetCommand(),
		newMineCommand(),
		newPostCommand(),
		newPutCommand(),
		newDeleteCommand(),
		newValidateCommand(),
		newWatchCommand(),
		newLoginCommand(),
		newNormalizeCommand(),
		newDraftCommand(),
		newCountriesCommand(),
		newServiceTypesCommand(),
	} {
		root.Subcommands[cmd.Name] = cmd
	}

	return root
}

// Execute parses args and runs the selected subcommand
func (c *Command) Execute(ctx context.Context, args []string, opts ...AppOption) error {
	settings := newAppSettings(opts)

	c.Flags.SetInterspersed(false)
	c.Flags.SetOutput(io.Discard)
	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return c.usage(settings.stdout)
		}
		return err
	}

	rest := c.Flags.Args()
	if len(rest) == 0 || isHelpFlag(rest[0]) {
		return c.usage(settings.stdout)
	}

	sub, ok := c.Subcommands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", rest[0])
	}

	sub.Flags.AddFlagSet(c.Flags)
	sub.Flags.SetOutput(io.Discard)
	if err := sub.Flags.Parse(rest[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return sub.help(settings.stdout)
		}
		return fmt.Errorf("%s: %w", sub.Name, err)
	}

	app, err := newApp(ctx, c.global, c.Flags, settings)
	if err != nil {
		return err
	}
	defer app.Close(ctx)

	return sub.Run(ctx, app, sub.Flags.Args())
}

func isHelpFlag(arg string) bool {
	switch strings.ToLower(arg) {
	case "-h", "--help", "help":
		return true
	}
	return false
}

// usage prints the command usage
func (c *Command) usage(w io.Writer) error {
	fmt.Fprintf(w, "Usage: %s [global flags] <command> [args]\n\n", c.Name)
	fmt.Fprintf(w, "Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}

	fmt.Fprintf(w, "\nGlobal flags:\n%s", c.Flags.FlagUsages())
	return nil
}

// help prints a subcommand's usage line and flags
func (c *Command) help(w io.Writer) error {
	fmt.Fprintf(w, "%s\n\nUsage: ssd %s\n", c.Description, c.Usage)
	if flags := c.Flags.FlagUsages(); flags != "" {
		fmt.Fprintf(w, "\nFlags:\n%s", flags)
	}
	return nil
}

// tokenFromEnv is consulted when --token is not given
func tokenFromEnv() string {
	return os.Getenv("SSD_TOKEN")
}
