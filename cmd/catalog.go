package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-engine/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the staged service catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List product families and their catalog entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.LoadCatalog(ctx)
		if err != nil {
			return err
		}
		ix := catalog.BuildIndex(rows)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FAMILY\tENTRIES\tSERVICES")
		for _, family := range ix.Families() {
			entries := ix.EntriesFor(family)
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.ServiceName)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", family, len(entries), strings.Join(names, ", "))
		}
		if err := w.Flush(); err != nil {
			return eris.Wrap(err, "flush table")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%d entries across %d families\n", ix.Len(), len(ix.Families()))
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check staged catalog rows for missing fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rows, err := st.LoadCatalog(ctx)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return eris.New("no catalog staged")
		}

		bad := 0
		for i, row := range rows {
			var problems []string
			if strings.TrimSpace(row.ProductFamily) == "" {
				problems = append(problems, "missing product family")
			}
			if strings.TrimSpace(row.ServiceName) == "" {
				problems = append(problems, "missing service name")
			}
			if len(problems) > 0 {
				bad++
				fmt.Fprintf(cmd.OutOrStdout(), "row %d: %s\n", i, strings.Join(problems, "; "))
			}
		}

		if bad > 0 {
			return eris.Errorf("%d of %d catalog rows invalid", bad, len(rows))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d catalog rows OK\n", len(rows))
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
	rootCmd.AddCommand(catalogCmd)
}
