package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/stickies/internal"
	pkgconfig "github.com/starford/stickies/pkg/config"
)

type runner func(ctx context.Context, opts ...internal.Option) error

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func action(name string, run runner) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := []internal.Option{
			internal.WithConfig(cfg),
		}

		if err := run(ctx, opts...); err != nil {
			return fmt.Errorf("%s run error: %w", name, err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "stickies",
		Usage: "Sticky-note canvas with a JSON key-value persistence service",
		// Without a subcommand the board opens.
		Action: action("board", internal.RunBoard),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the notes key-value HTTP service",
				Action: action("serve", internal.Run),
			},
			{
				Name:   "board",
				Usage:  "Open the sticky-note board in the terminal",
				Action: action("board", internal.RunBoard),
			},
			{
				Name:   "mcp",
				Usage:  "Expose the board as MCP tools over stdio",
				Action: action("mcp", internal.RunMCP),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
