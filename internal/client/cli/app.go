// Package cli implements the clipvault operator command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/dmitrijs2005/clipvault/internal/client/client"
	"github.com/dmitrijs2005/clipvault/internal/client/config"
)

const envPrefix = "CLIPVAULT_CLI_"

type App struct {
	out io.Writer
}

func NewApp(out io.Writer) *App {
	return &App{out: out}
}

// Run parses args (including the program name) and executes the command.
func (a *App) Run(ctx context.Context, args []string) error {
	return a.Command().Run(ctx, args)
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "JSON config file",
			Sources: cli.EnvVars(envPrefix + "CONFIG"),
		},
		&cli.StringFlag{
			Name:    "server",
			Usage:   "ClipVault API base URL",
			Sources: cli.EnvVars(envPrefix + "SERVER"),
		},
		&cli.StringFlag{
			Name:    "as",
			Usage:   "owner id to act as",
			Sources: cli.EnvVars(envPrefix + "OWNER"),
		},
		&cli.StringFlag{
			Name:    "roles",
			Usage:   "comma separated roles sent with every request",
			Sources: cli.EnvVars(envPrefix + "ROLES"),
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print JSON instead of text",
		},
	}
}

func withCommon(extra ...cli.Flag) []cli.Flag {
	return append(commonFlags(), extra...)
}

// client builds an API client from the config file overlaid with flags.
func (a *App) client(cmd *cli.Command) (*client.Client, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("server") {
		cfg.ServerURL = cmd.String("server")
	}
	if cmd.IsSet("as") {
		cfg.OwnerID = cmd.String("as")
		cfg.DisplayName = cfg.OwnerID
	}
	if cmd.IsSet("roles") {
		cfg.Roles = splitRoles(cmd.String("roles"))
	}
	return client.New(cfg.ServerURL, client.Identity{
		OwnerID:     cfg.OwnerID,
		DisplayName: cfg.DisplayName,
		Roles:       cfg.Roles,
	}, cfg.RequestTimeout, cfg.RetryMax), nil
}

func splitRoles(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func argOr(cmd *cli.Command, i int, def string) string {
	if v := cmd.Args().Get(i); v != "" {
		return v
	}
	return def
}
