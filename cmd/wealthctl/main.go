package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"anoa.com/communitywealth/internal/bootstrap"
	"anoa.com/communitywealth/internal/config"
	"anoa.com/communitywealth/internal/modules/ranking/dto"
	status "anoa.com/communitywealth/internal/modules/status/service"
	"anoa.com/communitywealth/pkg/format"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "workers",
			Usage: "concurrent wealth lookups (1 keeps members strictly in order)",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "where the last query is kept: memory, redis, postgres or sqlite",
		},
		&cli.IntFlag{
			Name:  "top",
			Usage: "print only the first N members (0 prints all)",
		},
	}
}

func newCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "wealthctl",
		Usage: "rank the members of a Roblox community by collectible wealth",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "rank the community behind a link",
				ArgsUsage: "<community link>",
				Flags:     commonFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("search needs exactly one community link")
					}
					return withApp(ctx, cmd, stderr, func(app *bootstrap.App) error {
						result, err := app.Service.Search(ctx, cmd.Args().First())
						if err != nil {
							return err
						}
						return printRanking(stdout, result.Entries, int(cmd.Int("top")))
					})
				},
			},
			{
				Name:  "refresh",
				Usage: "rank the last searched community again",
				Flags: commonFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, cmd, stderr, func(app *bootstrap.App) error {
						result, err := app.Service.Refresh(ctx)
						if err != nil {
							return err
						}
						return printRanking(stdout, result.Entries, int(cmd.Int("top")))
					})
				},
			},
			{
				Name:  "show",
				Usage: "print the last stored ranking",
				Flags: commonFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withApp(ctx, cmd, stderr, func(app *bootstrap.App) error {
						last, err := app.Service.LastQuery(ctx)
						if err != nil {
							return err
						}
						fmt.Fprintf(stdout, "Community %d\n", last.CommunityID)
						return printRanking(stdout, last.Results, int(cmd.Int("top")))
					})
				},
			},
		},
	}
}

func withApp(ctx context.Context, cmd *cli.Command, stderr io.Writer, fn func(*bootstrap.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.IsSet("workers") {
		cfg.RankWorkers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("store") {
		cfg.StoreDriver = cmd.String("store")
	}

	progress := status.SinkFunc(func(_ context.Context, s status.Status) {
		fmt.Fprintln(stderr, s.Message)
	})

	app, err := bootstrap.New(ctx, cfg, progress)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app)
}

// printRanking writes one "rank. username  wealth" line per entry.
func printRanking(w io.Writer, entries []dto.RankedEntry, top int) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No members.")
		return err
	}
	if top > 0 && top < len(entries) {
		entries = entries[:top]
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.AlignRight)
	for i, e := range entries {
		fmt.Fprintf(tw, "%d.\t%s\t%s\t\n", i+1, e.Username, format.Number(e.Wealth))
	}
	return tw.Flush()
}
