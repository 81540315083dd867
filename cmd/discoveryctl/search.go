package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	discovery "github.com/kailas-cloud/discovery/pkg/sdk"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search every category, or the ones given with --category",
		ArgsUsage: "QUERY...",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "category",
				Aliases: []string{"c"},
				Usage:   "Category to search (tools, submissions, tags, users, lists); repeatable",
			},
			&cli.IntFlag{
				Name:  "per-page",
				Usage: "Results per category page (1-50)",
				Value: 10,
			},
			&cli.StringSliceFlag{
				Name:  "page",
				Usage: "Page of one category as CATEGORY=N, e.g. tools=2; repeatable",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Only submissions of this type",
			},
			&cli.BoolFlag{
				Name:  "no-semantic",
				Usage: "Rank by the lexical signal only",
			},
			&cli.BoolFlag{
				Name:  "no-fulltext",
				Usage: "Match submissions by substring instead of relevance ranking",
			},
			&cli.BoolFlag{
				Name:  "enhance",
				Usage: "Attach generated summaries (needs --openai-key)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the raw response as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			pages, err := parsePages(c.StringSlice("page"))
			if err != nil {
				return err
			}
			req := discovery.SearchRequest{
				Query:           strings.Join(c.Args().Slice(), " "),
				Categories:      toCategories(c.StringSlice("category")),
				PerPage:         c.Int("per-page"),
				Pages:           pages,
				SubmissionType:  c.String("type"),
				DisableSemantic: c.Bool("no-semantic"),
				DisableFulltext: c.Bool("no-fulltext"),
				Enhance:         c.Bool("enhance"),
			}

			client, err := openClient(ctx, c)
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Search(ctx, req)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			return printResponse(resp, c.Bool("json"))
		},
	}
}

func suggestCommand() *cli.Command {
	return &cli.Command{
		Name:      "suggest",
		Usage:     "Type-ahead suggestions for a partial query",
		ArgsUsage: "PREFIX",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "category",
				Aliases: []string{"c"},
				Usage:   "Category to suggest from; repeatable",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the raw response as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			client, err := openClient(ctx, c)
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.Suggest(ctx, strings.Join(c.Args().Slice(), " "), toCategories(c.StringSlice("category"))...)
			if err != nil {
				return fmt.Errorf("suggest: %w", err)
			}
			return printResponse(resp, c.Bool("json"))
		},
	}
}

func printResponse(resp discovery.SearchResponse, asJSON bool) error {
	if asJSON {
		return writeJSON(os.Stdout, resp)
	}
	fmt.Print(renderResponse(resp))
	return nil
}

func toCategories(names []string) []discovery.Category {
	out := make([]discovery.Category, 0, len(names))
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, discovery.Category(strings.ToLower(part)))
			}
		}
	}
	return out
}

// parsePages reads CATEGORY=N pairs.
func parsePages(specs []string) (map[discovery.Category]int, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	pages := make(map[discovery.Category]int, len(specs))
	for _, s := range specs {
		name, num, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --page %q: want CATEGORY=N", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return nil, fmt.Errorf("invalid --page %q: %w", s, err)
		}
		pages[discovery.Category(strings.ToLower(strings.TrimSpace(name)))] = n
	}
	return pages, nil
}
