package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect LOCATION...",
		Short: "Print the schema and row-group index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			r, err := a.open(c.Context(), args)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			out := c.OutOrStdout()
			fmt.Fprintln(out, r.Schema())

			idx := r.Index()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROW GROUP\tSOURCE\tLOCAL\tROWS\tOFFSET\tENCODED\tDECODED (EST)")
			for i, rg := range idx.All() {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%s\t%s\n", i, rg.Source, rg.Local, rg.NumRows, rg.Offset,
					humanize.IBytes(uint64(rg.EncodedSize())), humanize.IBytes(uint64(rg.EstimatedDecodedSize(nil)))) //nolint: gosec
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "%d row groups, %d rows, %s encoded, %s decoded (est)\n", idx.Len(), idx.NumRows(),
				humanize.IBytes(uint64(idx.EncodedSize())), humanize.IBytes(uint64(idx.EstimatedDecodedSize(nil)))) //nolint: gosec

			return nil
		},
	}
}
