package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/trustwaveapp/trustwave-server/internal/trust"
)

func newTrustCommand(ctx *commandContext) *cobra.Command {
	var viewer string

	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Report the size of the trust map a viewer would rank with",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := invoke[*trust.Resolver](ctx)
			if err != nil {
				return err
			}
			cache, err := invoke[*trust.Cache](ctx)
			if err != nil {
				return err
			}

			provider := resolver.Resolve(cmd.Context(), viewer)
			snap, err := cache.Get(cmd.Context(), provider)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Provider", "Relay", "Declared", "Records", "Subjects", "Built"},
				[][]string{{
					snap.Provider.PubKey,
					snap.Provider.RelayURL,
					yesNo(snap.Provider.Declared),
					strconv.Itoa(snap.Records),
					strconv.Itoa(snap.Subjects),
					snap.BuiltAt.Format(time.RFC3339),
				}},
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			if snap.Partial {
				fmt.Fprintln(out, "warning: trust map is partial")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&viewer, "viewer", "", "Viewer pubkey (defaults to the configured provider)")
	return cmd
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
