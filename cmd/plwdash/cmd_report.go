package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/plwdash/engine"
	"github.com/spektr-org/plwdash/loader"
	"github.com/spektr-org/plwdash/render"
)

var (
	reportTable bool
	reportJSON  bool
	exportOut   string
	chartsDir   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print headline metrics for the filtered sheet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := criteriaFromFlags()
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		return newRenderer(cmd).Summary(engine.ComputeSummary(engine.ApplyFilters(ds.View(), c)))
	},
}

var breakdownCmd = &cobra.Command{
	Use:   "breakdown [key]",
	Short: "Count distinct PLWs per group",
	Long: `Groups the filtered sheet by one field and counts distinct PLWs per group.

Keys:
  area_officer           adds withdrawal rate, benchmark and amount per officer
  status                 PWD / NWD
  non_withdrawal_reason
  contacted              yes / no / unknown
  visited_site           yes / no / unknown`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := engine.GroupKey(args[0])
		c, err := criteriaFromFlags()
		if err != nil {
			return err
		}
		mode, err := engine.ParseSortMode(sortMode)
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}

		b, err := engine.ComputeGroupBreakdown(engine.ApplyFilters(ds.View(), c), key, engine.WithSort(mode))
		if err != nil {
			return err
		}
		if !ds.Available(key) {
			return fmt.Errorf("%s: column not present in %s", key, ds.Source)
		}
		return newRenderer(cmd).Breakdown(b)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print summary, every breakdown and notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := buildReport(cmd)
		if err != nil {
			return err
		}
		if reportJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		return newRenderer(cmd).Report(rep)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered rows as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := criteriaFromFlags()
		if err != nil {
			return err
		}
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}

		view := engine.ApplyFilters(ds.View(), c)
		if exportOut == "-" {
			return loader.WriteCSV(cmd.OutOrStdout(), view)
		}
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		if err := loader.WriteCSV(f, view); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", exportOut, err)
		}
		logger.Info("export written", zap.String("path", exportOut), zap.Int("rows", view.Len()))
		return nil
	},
}

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Render the report's charts as PNG files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := buildReport(cmd)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(chartsDir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", chartsDir, err)
		}

		eg, _ := errgroup.WithContext(cmd.Context())
		eg.SetLimit(4)
		for _, c := range rep.Charts {
			c := c
			eg.Go(func() error {
				return writeChart(filepath.Join(chartsDir, render.ChartFilename(c)), c)
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote charts to %s\n", chartsDir)
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportTable, "table", false, "Include the row-level table")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", loader.ExportFilename, `Output file ("-" for stdout)`)
	chartsCmd.Flags().StringVar(&chartsDir, "dir", "charts", "Directory for PNG files")
}

func buildReport(cmd *cobra.Command) (*engine.Report, error) {
	c, err := criteriaFromFlags()
	if err != nil {
		return nil, err
	}
	mode, err := engine.ParseSortMode(sortMode)
	if err != nil {
		return nil, err
	}
	ds, err := loadDataset(cmd.Context())
	if err != nil {
		return nil, err
	}
	return engine.Build(ds.View(), c,
		engine.WithSort(mode),
		engine.WithAvailability(ds.Available),
		engine.WithTable(reportTable),
		engine.WithCurrency(cfg.Display.Currency),
		engine.WithLogger(logger),
	)
}

// writeChart renders one chart. Charts with nothing to draw are skipped.
func writeChart(path string, c engine.ChartConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	err = render.ChartPNG(f, c)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", path, cerr)
	}
	if errors.Is(err, render.ErrNoChartData) {
		logger.Info("chart skipped: no data", zap.String("chart", c.Key))
		return os.Remove(path)
	}
	if err != nil {
		return fmt.Errorf("chart %s: %w", c.Key, err)
	}
	logger.Debug("chart written", zap.String("path", path))
	return nil
}
