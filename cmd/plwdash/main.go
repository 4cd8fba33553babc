package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/plwdash/config"
	"github.com/spektr-org/plwdash/engine"
	"github.com/spektr-org/plwdash/loader"
	"github.com/spektr-org/plwdash/logging"
	"github.com/spektr-org/plwdash/render"
)

// ============================================================================
// PLWDASH CLI — Camp withdrawal dashboard for the terminal
// ============================================================================

const version = "0.3.0"

var (
	// Global flags
	configPath string
	dataPath   string
	logLevel   string
	noColor    bool

	// Filter flags, shared by every data command
	districts    []string
	areaOfficers []string
	statuses     []string
	fromDate     string
	toDate       string
	sortMode     string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "plwdash",
	Short: "PLW camp withdrawal dashboard",
	Long: `plwdash loads a camp sheet of pregnant and lactating women (PLW) beneficiaries
and reports withdrawals and incentive eligibility per distinct CNIC.

Every data command accepts the same filters:
  plwdash summary --district jacobabad --from 2024-03-01 --to 2024-03-31
  plwdash breakdown area_officer --sort count_desc
  plwdash serve --addr :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dataPath != "" {
			cfg.Data.Path = dataPath
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "plwdash %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "plwdash.yaml", "Path to YAML config (missing file uses defaults)")
	pf.StringVar(&dataPath, "data", "", "Path to the CSV sheet (overrides data.path)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVar(&noColor, "no-color", false, "Disable ANSI colors in tables")

	for _, c := range []*cobra.Command{summaryCmd, breakdownCmd, reportCmd, exportCmd, chartsCmd} {
		addFilterFlags(c)
	}

	rootCmd.AddCommand(
		summaryCmd,
		breakdownCmd,
		reportCmd,
		exportCmd,
		chartsCmd,
		schemaCmd,
		serveCmd,
		configCmd,
		versionCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ============================================================================
// SHARED HELPERS
// ============================================================================

func addFilterFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringSliceVar(&districts, "district", nil, "Keep only these districts (comma-separated)")
	f.StringSliceVar(&areaOfficers, "area-officer", nil, "Keep only these area officers (comma-separated)")
	f.StringSliceVar(&statuses, "status", nil, "Keep only these PLW statuses, e.g. pwd,nwd")
	f.StringVar(&fromDate, "from", "", "First camp date to include (YYYY-MM-DD)")
	f.StringVar(&toDate, "to", "", "Last camp date to include (YYYY-MM-DD)")
	f.StringVar(&sortMode, "sort", "", "Breakdown order: count_desc, count_asc, label_asc, label_desc")
}

// criteriaFromFlags builds filter criteria. An absent or "all" selector does
// not restrict; a single date bound leaves the other end open.
func criteriaFromFlags() (engine.Criteria, error) {
	c := engine.Criteria{
		District:    selection(districts),
		AreaOfficer: selection(areaOfficers),
		Status:      selection(statuses),
	}
	if fromDate == "" && toDate == "" {
		return c, nil
	}

	r := &engine.DateRange{To: time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)}
	if fromDate != "" {
		t, err := time.Parse(engine.DateLayout, fromDate)
		if err != nil {
			return c, fmt.Errorf("--from: want YYYY-MM-DD, got %q", fromDate)
		}
		r.From = t
	}
	if toDate != "" {
		t, err := time.Parse(engine.DateLayout, toDate)
		if err != nil {
			return c, fmt.Errorf("--to: want YYYY-MM-DD, got %q", toDate)
		}
		r.To = t
	}
	c.Dates = r
	return c, nil
}

func selection(values []string) engine.Selection {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.EqualFold(v, "all") {
			return engine.AnyValue()
		}
		if v != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return engine.AnyValue()
	}
	return engine.OneOf(kept...)
}

func loadDataset(ctx context.Context) (*loader.Dataset, error) {
	opts, err := cfg.LoaderOptions()
	if err != nil {
		return nil, err
	}
	return loader.LoadFile(ctx, cfg.Data.Path, append(opts, loader.WithLogger(logger))...)
}

func newRenderer(cmd *cobra.Command) *render.Renderer {
	return render.New(cmd.OutOrStdout(),
		render.WithColor(!noColor),
		render.WithCurrency(cfg.Display.Currency),
	)
}
