package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mudler/localnotes/pkg/client"
	"github.com/mudler/localnotes/pkg/config"
	"github.com/mudler/xlog"
	cli "github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:  "localnotes",
		Usage: "Notes catalog with full-text and semantic search",
		Description: "Serves markdown cheatsheets as a searchable catalog of topics and entries,\n" +
			"with optional RAG answering on top of the indexed notes.",
		Commands: []*cli.Command{
			apiCmd(),
			createCmd(),
			listCmd(),
			topicsCmd(),
			entriesCmd(),
			searchCmd(),
			askCmd(),
			importCmd(),
			resetCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func apiCmd() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the localnotes API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML configuration file",
				Sources: cli.EnvVars("LOCALNOTES_CONFIG"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}

			xlog.Info("Starting localnotes", "address", cfg.ListenAddress, "engine", cfg.Engine)
			return startAPI(cfg)
		},
	}
}

func clientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "address",
			Value:   "http://localhost:8080",
			Usage:   "Base URL of the localnotes server",
			Sources: cli.EnvVars("LOCALNOTES_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:    "notebook",
			Value:   "notes",
			Usage:   "Notebook to operate on",
			Sources: cli.EnvVars("LOCALNOTES_NOTEBOOK"),
		},
	}
}

func apiClient(cmd *cli.Command) *client.Client {
	return client.NewClient(cmd.String("address"))
}

func createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a notebook",
		ArgsUsage: "<name>",
		Flags:     clientFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("notebook name is required")
			}
			return apiClient(cmd).CreateNotebook(name)
		},
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notebooks",
		Flags: clientFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			notebooks, err := apiClient(cmd).ListNotebooks()
			if err != nil {
				return err
			}
			for _, nb := range notebooks {
				fmt.Println(nb)
			}
			return nil
		},
	}
}

func topicsCmd() *cli.Command {
	return &cli.Command{
		Name:  "topics",
		Usage: "List topics of a notebook in source order",
		Flags: clientFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			topics, err := apiClient(cmd).Topics(cmd.String("notebook"))
			if err != nil {
				return err
			}
			for _, t := range topics {
				fmt.Println(t)
			}
			return nil
		},
	}
}

func entriesCmd() *cli.Command {
	return &cli.Command{
		Name:      "entries",
		Usage:     "List the entries of a topic",
		ArgsUsage: "<topic>",
		Flags:     clientFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			topic := cmd.Args().First()
			if topic == "" {
				return fmt.Errorf("topic argument is required")
			}
			entries, err := apiClient(cmd).Entries(cmd.String("notebook"), topic)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if e.Description != "" {
					fmt.Printf("%s\t%s\n", e.Label, e.Description)
				} else {
					fmt.Println(e.Label)
				}
			}
			return nil
		},
	}
}

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search a notebook",
		ArgsUsage: "<query>",
		Flags: append(clientFlags(),
			&cli.IntFlag{Name: "max-results", Value: 5, Usage: "Number of ranked results"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := cmd.Args().First()
			resp, err := apiClient(cmd).Search(cmd.String("notebook"), query, int(cmd.Int("max-results")))
			if err != nil {
				return err
			}
			for _, m := range resp.Matches {
				fmt.Printf("[%s] %s\t%s\n", m.Topic, m.Entry.Label, m.Entry.Description)
			}
			for _, r := range resp.Results {
				fmt.Printf("(%0.2f) %s\n", r.CombinedScore+r.FullTextScore+r.Similarity, r.Content)
			}
			return nil
		},
	}
}

func askCmd() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask the notebook assistant a question",
		ArgsUsage: "<question>",
		Flags:     clientFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			question := cmd.Args().First()
			if question == "" {
				return fmt.Errorf("question argument is required")
			}
			answer, err := apiClient(cmd).Ask(cmd.String("notebook"), question)
			if err != nil {
				return err
			}
			fmt.Println(answer.Answer)
			return nil
		},
	}
}

func importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Upload a note file or register an external source",
		ArgsUsage: "<file|url>",
		Flags: append(clientFlags(),
			&cli.DurationFlag{Name: "update-interval", Value: time.Hour, Usage: "Sync interval for external sources"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			arg := cmd.Args().First()
			if arg == "" {
				return fmt.Errorf("file or url argument is required")
			}

			c := apiClient(cmd)
			if _, err := os.Stat(arg); err == nil {
				return c.Store(cmd.String("notebook"), arg)
			}
			return c.AddSource(cmd.String("notebook"), arg, cmd.Duration("update-interval"))
		},
	}
}

func resetCmd() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Remove all note files from a notebook",
		Flags: clientFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return apiClient(cmd).Reset(cmd.String("notebook"))
		},
	}
}
