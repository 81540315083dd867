package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/kailas-cloud/discovery/internal/version"
)

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check the catalog and configured model providers",
		Action: func(ctx context.Context, c *cli.Command) error {
			client, err := openClient(ctx, c)
			if err != nil {
				return err
			}
			defer client.Close()

			h := client.Health(ctx)
			fmt.Println(statusStyle(h.Status).Render(h.Status))

			names := make([]string, 0, len(h.Checks))
			for name := range h.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-12s %s\n", name, statusStyle(h.Checks[name]).Render(h.Checks[name]))
			}
			if !h.Healthy() {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(ctx context.Context, c *cli.Command) error {
			fmt.Println(version.String())
			return nil
		},
	}
}
