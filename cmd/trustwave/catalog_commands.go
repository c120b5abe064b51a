package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/trustwaveapp/trustwave-server/internal/domain"
	"github.com/trustwaveapp/trustwave-server/internal/service"
)

func newSongsCommand(ctx *commandContext) *cobra.Command {
	var viewer string
	var includeNonMusic bool
	var limit int

	cmd := &cobra.Command{
		Use:   "songs",
		Short: "Print the trust-ranked songs list",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := invoke[*service.CatalogService](ctx)
			if err != nil {
				return err
			}
			result, err := catalog.Songs(cmd.Context(), viewer, includeNonMusic)
			if err != nil {
				return err
			}
			printSongs(cmd.OutOrStdout(), result, limit)
			return nil
		},
	}

	cmd.Flags().StringVar(&viewer, "viewer", "", "Viewer pubkey whose trust provider ranks the list")
	cmd.Flags().BoolVar(&includeNonMusic, "include-non-music", false, "Keep entries the music check rejects")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to print (0 prints all)")
	return cmd
}

func newTrendingCommand(ctx *commandContext) *cobra.Command {
	var viewer string
	var limit int

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Print songs ranked by recent upvotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := invoke[*service.CatalogService](ctx)
			if err != nil {
				return err
			}
			result, err := catalog.Trending(cmd.Context(), viewer)
			if err != nil {
				return err
			}
			printSongs(cmd.OutOrStdout(), result, limit)
			return nil
		},
	}

	cmd.Flags().StringVar(&viewer, "viewer", "", "Viewer pubkey whose trust provider ranks the list")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows to print (0 prints all)")
	return cmd
}

func newArtistsCommand(ctx *commandContext) *cobra.Command {
	var viewer string
	var limit int

	cmd := &cobra.Command{
		Use:   "artists",
		Short: "Print the musicians list grouped by artist",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := invoke[*service.CatalogService](ctx)
			if err != nil {
				return err
			}
			result, err := catalog.Artists(cmd.Context(), viewer)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Artist", "Score", "Up", "Down", "Releases"},
				artistRows(result.Groups, limit),
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			if result.Partial {
				fmt.Fprintln(out, "warning: results are partial")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&viewer, "viewer", "", "Viewer pubkey whose trust provider ranks the list")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to print (0 prints all)")
	return cmd
}

func printSongs(out io.Writer, result *service.Catalog, limit int) {
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Title", "Artist", "Length", "Score", "Up", "Down"},
		songRows(result.Entries, limit),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	switch {
	case result.Partial:
		fmt.Fprintln(out, "warning: list or trust data is partial")
	case result.ReactionsDegraded:
		fmt.Fprintln(out, "warning: reactions could not be fetched in full")
	}
	if result.Hidden > 0 {
		fmt.Fprintf(out, "%d hidden locally\n", result.Hidden)
	}
}

func songRows(entries []domain.ScoredEntry, limit int) [][]string {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		var artist string
		var seconds int
		if e.Song != nil {
			artist = e.Song.Artist
			seconds = e.Song.DurationSeconds
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.DisplayName(),
			artist,
			formatDuration(seconds),
			strconv.Itoa(e.Score),
			strconv.Itoa(e.Upvotes),
			strconv.Itoa(e.Downvotes),
		})
	}
	return rows
}

func artistRows(groups []domain.ArtistGroup, limit int) [][]string {
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	rows := make([][]string, 0, len(groups))
	for i := range groups {
		g := &groups[i]
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			g.Primary.DisplayName(),
			strconv.Itoa(g.Score()),
			strconv.Itoa(g.TotalUpvotes),
			strconv.Itoa(g.TotalDownvotes),
			strconv.Itoa(len(g.Members)),
		})
	}
	return rows
}

func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
