package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.shoplens.io/shoplens/app/config"
	actx "go.shoplens.io/shoplens/app/context"
)

// CLI is the command line interface of shoplens.
type CLI struct {
	Upgrade   Upgrade   `kong:"cmd,help='Apply forward migrations up to a target revision.'"`
	Downgrade Downgrade `kong:"cmd,help='Revert migrations down to a target revision.'"`
	Current   Current   `kong:"cmd,help='Print the currently applied schema revision.'"`
	Status    Status    `kong:"cmd,help='Show the applied/pending state of every revision.'"`
	History   History   `kong:"cmd,help='Show the chronological migration history.'"`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// NOTE: I'm deliberately not using kong.ConfigFlag or its support for reading
	// values from configuration files, since I want to manage configuration
	// independently from the CLI.
	ConfigFile  string           `kong:"default='${configFile}',help='Path to the shoplens configuration file.'"`
	DatabaseURL string           `kong:"help='Connection string of the schema store. Overrides the configuration file.'"`
	Version     kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(configFilePath, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("shoplens"),
		kong.UsageOnError(),
		kong.DefaultEnvars("SHOPLENS"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they weren't
// already set.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	if c.DatabaseURL == "" && cfg.Database.URL.Valid {
		c.DatabaseURL = cfg.Database.URL.V
	}
}

func revOrNone(revision string) string {
	if revision == "" {
		return "none"
	}

	return revision
}
