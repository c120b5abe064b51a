package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trustwaveapp/trustwave-server/internal/service"
)

func newJanitorCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var limit int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "janitor",
		Short: "Down-vote songs-list entries that are not music",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock("janitor", func() error {
				janitor, err := invoke[*service.JanitorService](ctx)
				if err != nil {
					return err
				}
				report, err := janitor.Run(cmd.Context(), service.JanitorOptions{DryRun: dryRun, Limit: limit})
				if err != nil {
					return err
				}
				printJanitorReport(cmd.OutOrStdout(), report, verbose)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report verdicts without publishing downvotes")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum songs to scan (0 scans all)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every flagged song")
	return cmd
}

func newImportSongsCommand(ctx *commandContext) *cobra.Command {
	var opts service.SongImportOptions

	cmd := &cobra.Command{
		Use:   "import-songs",
		Short: "Import the tracks of every musicians-list artist onto the songs list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock("import-songs", func() error {
				importer, err := invoke[*service.SongImporter](ctx)
				if err != nil {
					return err
				}
				if importer == nil {
					return errors.New("import-songs needs a Podcast Index URL")
				}
				report, err := importer.Run(cmd.Context(), opts)
				if err != nil {
					return err
				}
				printSongImportReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "Continue after the last completed artist")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum artists to process (0 processes all)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report what would be added without publishing")
	return cmd
}

func printJanitorReport(out io.Writer, report *service.JanitorReport, verbose bool) {
	mode := "live"
	if report.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(out, "Janitor run %s (%s)\n", report.RunID, mode)
	fmt.Fprintln(out, renderTable(
		[]string{"Scanned", "Flagged", "Skipped", "Published", "Failed"},
		[][]string{{
			strconv.Itoa(report.Scanned),
			strconv.Itoa(report.Flagged),
			strconv.Itoa(report.Skipped),
			strconv.Itoa(report.Published),
			strconv.Itoa(report.Failed),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	if !verbose || len(report.Verdicts) == 0 {
		return
	}

	rows := make([][]string, 0, len(report.Verdicts))
	for _, v := range report.Verdicts {
		rows = append(rows, []string{v.Title, strings.Join(v.Reasons, ", "), v.Action})
	}
	fmt.Fprintln(out, renderTable([]string{"Title", "Reasons", "Action"}, rows, nil))
}

func printSongImportReport(out io.Writer, report *service.SongImportReport) {
	fmt.Fprintf(out, "Song import run %s\n", report.RunID)
	if report.ResumedAfter != "" {
		fmt.Fprintf(out, "Resumed after %s\n", report.ResumedAfter)
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Artists", "Episodes", "Not music", "Added", "Already added", "Failed"},
		[][]string{{
			strconv.Itoa(report.Artists),
			strconv.Itoa(report.Episodes),
			strconv.Itoa(report.NotMusic),
			strconv.Itoa(report.Added),
			strconv.Itoa(report.Already),
			strconv.Itoa(report.Failed),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
}
