// Command ratings replays a league workbook offline and prints the rating
// table or the ingestion audit.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/okian/thunder/internal/adapters/ingest"
	service "github.com/okian/thunder/internal/app"
	"github.com/okian/thunder/internal/config"
	"github.com/okian/thunder/pkg/logger"
)

var errMissingWorkbook = errors.New("--workbook is required")

func main() {
	_ = godotenv.Load()
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ratings:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "ratings",
		Usage:  "replay league results into Glicko-2 ratings",
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:  "table",
				Usage: "print the rating table, highest first",
				Flags: []cli.Flag{
					workbookFlag(),
					&cli.StringFlag{Name: "seeds", Usage: "YAML seed file"},
					&cli.StringFlag{Name: "cutoff", Usage: "ignore matches on or before `YYYY-MM-DD`"},
					&cli.IntFlag{Name: "limit", Usage: "rows to print (0 = all)"},
				},
				Action: func(c *cli.Context) error {
					svc, err := replayWorkbook(c)
					if err != nil {
						return err
					}
					n := c.Int("limit")
					if n <= 0 {
						n = max(len(svc.Players(c.Context)), 1)
					}
					rows, err := svc.TopN(c.Context, n)
					if err != nil {
						return err
					}
					if len(rows) == 0 {
						fmt.Fprintln(c.App.Writer, "no rated players")
						return nil
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "RANK\tPLAYER\tRATING\tRD\tVOLATILITY")
					for _, e := range rows {
						fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.6f\n", e.Rank, e.Player, e.Rating, e.Deviation, e.Volatility)
					}
					return tw.Flush()
				},
			},
			{
				Name:  "audit",
				Usage: "print ingestion issues and rejected rows",
				Flags: []cli.Flag{workbookFlag()},
				Action: func(c *cli.Context) error {
					svc, err := replayWorkbook(c)
					if err != nil {
						return err
					}
					issues := svc.Issues(c.Context)
					if len(issues) == 0 {
						fmt.Fprintln(c.App.Writer, "no issues")
						return nil
					}
					tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "SEASON\tROW\tTYPE\tDETAILS")
					for _, is := range issues {
						fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", is.Sheet, is.Row, is.Type, is.Details)
					}
					return tw.Flush()
				},
			},
		},
	}
}

func workbookFlag() cli.Flag {
	return &cli.StringFlag{Name: "workbook", Aliases: []string{"w"}, Usage: "league workbook (.xlsx)"}
}

// replayWorkbook runs one synchronous refresh with config defaults
// overridden by command flags.
func replayWorkbook(c *cli.Context) (*service.Service, error) {
	cfg, err := config.Load(c.Context)
	if err != nil {
		return nil, err
	}
	if v := c.String("workbook"); v != "" {
		cfg.WorkbookPath = v
	}
	if cfg.WorkbookPath == "" {
		return nil, errMissingWorkbook
	}
	if c.IsSet("seeds") {
		cfg.SeedsPath = c.String("seeds")
	}
	if c.IsSet("cutoff") {
		cfg.CutoffDate = c.String("cutoff")
	}
	cutoff, err := cfg.Cutoff()
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(c.App.ErrWriter)); err != nil {
		return nil, err
	}
	_ = logger.SetLevelString("warn")

	log := logger.Get()
	srcOpts := []ingest.SourceOption{
		ingest.WithParser(ingest.NewParser(
			ingest.WithDatesSheet(cfg.DatesSheet),
			ingest.WithDedupeMaxRows(cfg.DedupeMaxRows),
		)),
		ingest.WithSourceLogger(log.Named("ingest")),
	}
	if cfg.SeedsPath != "" {
		srcOpts = append(srcOpts, ingest.WithSeedsFile(cfg.SeedsPath))
	}
	svc := service.New(
		service.WithSource(ingest.NewWorkbookSource(cfg.WorkbookPath, srcOpts...)),
		service.WithEngine(cfg.Engine()),
		service.WithDefaultState(cfg.DefaultState()),
		service.WithCutoff(cutoff),
		service.WithLogger(log.Named("service")),
	)
	if err := svc.Refresh(c.Context); err != nil {
		return nil, err
	}
	return svc, nil
}
