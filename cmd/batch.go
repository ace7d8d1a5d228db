package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/catalog"
	"github.com/sells-group/lead-engine/internal/engine"
	"github.com/sells-group/lead-engine/internal/model"
)

var (
	batchAsOf   string
	batchFormat string
	batchOutput string
	batchSave   bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the engine over staged source rows",
	Long:  "Loads staged product, opportunity, and project rows plus the service catalog from the store, runs the full pipeline, and prints a lead summary.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		asOf := time.Now().UTC()
		if batchAsOf != "" {
			t, err := time.Parse("2006-01-02", batchAsOf)
			if err != nil {
				return eris.Wrapf(err, "parse --as-of %q", batchAsOf)
			}
			asOf = t
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		catalogRows, err := st.LoadCatalog(ctx)
		if err != nil {
			return err
		}
		if len(catalogRows) == 0 {
			return eris.New("no catalog staged; load one before running a batch")
		}

		batch, err := st.LoadRows(ctx)
		if err != nil {
			return err
		}

		eng := engine.New(catalog.BuildIndex(catalogRows), cfg, engine.WithAsOf(asOf))
		result, err := eng.Run(ctx, *batch)
		if err != nil {
			return err
		}

		if batchSave {
			if err := st.SaveBatch(ctx, result); err != nil {
				return err
			}
			zap.L().Info("batch saved", zap.String("run_id", result.RunID))
		}

		out := cmd.OutOrStdout()
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrapf(err, "create %s", batchOutput)
			}
			defer f.Close()
			out = f
		}

		switch batchFormat {
		case "csv":
			return writeLeadsCSV(out, result)
		case "table":
			return writeBatchSummary(out, result)
		default:
			return eris.Errorf("unsupported format: %s", batchFormat)
		}
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchAsOf, "as-of", "", "as-of date for lifecycle gaps (YYYY-MM-DD, default today)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "table", "output format: table or csv")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write output to a file instead of stdout")
	batchCmd.Flags().BoolVar(&batchSave, "save", true, "persist the run to the store")
	rootCmd.AddCommand(batchCmd)
}

// writeBatchSummary prints run counters and the top leads as an aligned table.
func writeBatchSummary(w io.Writer, result *model.BatchResult) error {
	fmt.Fprintf(w, "run: %s  as-of: %s\n", result.RunID, result.AsOf.Format("2006-01-02"))
	fmt.Fprintf(w, "rows in: %d  accounts: %d (merged %d)  products matched: %d\n",
		result.Counters.RowsIn, len(result.Accounts), result.Counters.AccountsMerged, result.Counters.ProductsMatched)

	fmt.Fprintln(w, "\nleads by priority:")
	for _, p := range []model.Priority{model.PriorityCritical, model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		fmt.Fprintf(w, "  %-8s %d\n", p, result.Counters.LeadsByPriority[p])
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nLEAD\tTYPE\tACCOUNT\tSCORE\tPRIORITY")
	for _, l := range result.Leads {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.1f\t%s\n", l.Key, l.Type, l.AccountKey, l.OverallScore, l.Priority)
	}
	return tw.Flush()
}

// writeLeadsCSV emits one row per lead with its sub-scores.
func writeLeadsCSV(w io.Writer, result *model.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"lead_key", "type", "account_key", "product_key", "opportunity_key",
		"urgency", "value", "propensity", "strategic_fit", "overall", "priority",
	}); err != nil {
		return eris.Wrap(err, "write csv header")
	}

	for _, l := range result.Leads {
		rec := []string{
			l.Key,
			string(l.Type),
			strconv.FormatInt(l.AccountKey, 10),
			l.ProductKey,
			l.OpportunityKey,
			formatScore(l.Scores.Urgency),
			formatScore(l.Scores.Value),
			formatScore(l.Scores.Propensity),
			formatScore(l.Scores.StrategicFit),
			formatScore(l.OverallScore),
			string(l.Priority),
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "flush csv")
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
