package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/bignote/internal"
	"github.com/starford/bignote/internal/editor"
	pkgconfig "github.com/starford/bignote/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func spawn(ctx context.Context, cmd *cli.Command) error {
	origin := cmd.Args().First()
	if origin == "" {
		return fmt.Errorf("spawn: origin note path is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cursor := editor.End
	if line := cmd.Int("line"); line >= 0 {
		cursor = editor.Cursor{Line: int(line), Ch: int(cmd.Int("ch"))}
	}
	return internal.SpawnNote(ctx, origin, cmd.Bool("outside"), cursor, internal.WithConfig(cfg))
}

func clusters(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ListClusters(ctx, internal.WithConfig(cfg))
}

func classify(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("classify: path is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Classify(ctx, path, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "bignote",
		Usage:  "Cluster-structured Markdown vault: spawn, resolve and classify notes",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory, overrides vault.path",
				Sources: cli.EnvVars("BIGNOTE_VAULT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the vault watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:      "spawn",
				Usage:     "Spawn a peripheral note from an origin note",
				ArgsUsage: "<origin>",
				Action:    spawn,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "outside",
						Usage: "Origin is outside any cluster; choose the cluster interactively",
					},
					&cli.IntFlag{
						Name:  "line",
						Usage: "Zero-based cursor line in the origin note (default: end of note)",
						Value: -1,
					},
					&cli.IntFlag{
						Name:  "ch",
						Usage: "Zero-based cursor column",
					},
				},
			},
			{
				Name:   "clusters",
				Usage:  "List clusters and their category folders",
				Action: clusters,
			},
			{
				Name:      "classify",
				Usage:     "Show the cluster roles of a vault path",
				ArgsUsage: "<path>",
				Action:    classify,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
