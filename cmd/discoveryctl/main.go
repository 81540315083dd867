package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "discoveryctl",
		Usage: "Query a discovery catalog from the terminal",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "fixture",
				Usage:   "YAML catalog snapshot",
				Sources: cli.EnvVars("DISCOVERY_FIXTURE"),
			},
			&cli.StringFlag{
				Name:    "dsn",
				Usage:   "Postgres catalog DSN",
				Sources: cli.EnvVars("DISCOVERY_DSN"),
			},
			&cli.StringFlag{
				Name:    "openai-key",
				Usage:   "API key for embeddings and enhancement; without it search is lexical only",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-base-url",
				Usage:   "OpenAI-compatible API base URL",
				Sources: cli.EnvVars("OPENAI_BASE_URL"),
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model; must match the catalog's stored vectors",
				Value: "text-embedding-3-small",
			},
			&cli.StringFlag{
				Name:  "chat-model",
				Usage: "Model used by --enhance",
				Value: "gpt-4o-mini",
			},
		},
		Commands: []*cli.Command{
			searchCommand(),
			suggestCommand(),
			healthCommand(),
			versionCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
