package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"goimpute/adapters/fitter"
	"goimpute/adapters/loader"
	"goimpute/adapters/postgres"
	"goimpute/adapters/rng"
	"goimpute/app"
	"goimpute/domain/core"
	"goimpute/domain/impute"
	"goimpute/domain/table"
	"goimpute/internal"
	"goimpute/internal/api"
	"goimpute/internal/config"
	"goimpute/internal/mi"
	"goimpute/internal/report"
	"goimpute/internal/testkit"
	"goimpute/ports"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "impute",
		Short: "Multiple imputation for tabular datasets",
	}

	rootCmd.AddCommand(
		newDescribeCmd(),
		newRunCmd(cfg),
		newServeCmd(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [dataset-file]",
		Short: "Summarize every column: type, missingness, moments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := loadDataset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			profiles, err := app.NewProfileService().ProfileDataset(cmd.Context(), ds)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLUMN\tTYPE\tROWS\tMISSING\tRATE\tMEAN\tMEDIAN\tSTDDEV\tMIN\tMAX")
			for _, p := range profiles {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.1f%%\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
					p.Key, p.Type, p.Rows, p.MissingCount, 100*p.MissingRate,
					p.Mean, p.Median, p.StdDev, p.Min, p.Max)
			}
			return w.Flush()
		},
	}
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	var (
		target     string
		response   string
		covariates []string
		subsetArgs []string
		runs       int
		seed       int64
		minTrain   int
		timeout    time.Duration
		parallel   int
	)

	cmd := &cobra.Command{
		Use:   "run [dataset-file]",
		Short: "Run a multiple-imputation procedure and print the pooled report",
		Long: `Run multiple imputation on one target column, fit the analysis model on
each completed dataset, and pool the estimates.

Predictor subsets may be given explicitly with repeated --subset flags
(comma-separated columns each); otherwise subsets are proposed from the
fully-observed numeric columns.

Flag defaults come from the environment (IMPUTE_RUNS, IMPUTE_SEED,
IMPUTE_MIN_TRAIN, IMPUTE_FIT_TIMEOUT, IMPUTE_MAX_PARALLEL,
IMPUTE_PRIOR_PRECISION); the dataset file may be given as DATASET_FILE
instead of an argument.

Example:
  impute run survey.csv --target score --response score \
    --covariates age,employed --subset age,income --subset income,employed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				return fmt.Errorf("--target is required")
			}
			if response == "" {
				response = target
			}
			path := cfg.Paths.DatasetFile
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("dataset file required: pass it as an argument or set DATASET_FILE")
			}

			ctx := cmd.Context()
			ds, err := loadDataset(ctx, path)
			if err != nil {
				return err
			}

			targetKey := core.VariableKey(target)
			responseKey := core.VariableKey(response)

			subsets, err := parseSubsets(subsetArgs)
			if err != nil {
				return err
			}
			if len(subsets) == 0 {
				var streams ports.RNGPort = rng.NewHashStreamAdapter()
				stream, err := streams.SeededStream(ctx, "subset-selection", seed)
				if err != nil {
					return err
				}
				subsets, err = impute.SelectSubsets(ds, targetKey, responseKey, runs, stream)
				if err != nil {
					return err
				}
			}

			analysis := impute.AnalysisSpec{Response: responseKey}
			for _, cov := range covariates {
				for _, key := range strings.Split(cov, ",") {
					if key = strings.TrimSpace(key); key != "" {
						analysis.Covariates = append(analysis.Covariates, core.VariableKey(key))
					}
				}
			}

			logger := internal.NewDefaultLogger()
			orch := mi.NewOrchestrator(fitter.NewBayesFitter(fitter.Config{
				PriorPrecision: cfg.Imputation.PriorPrecision,
			}), mi.Config{
				FitTimeout:      timeout,
				MaxParallel:     parallel,
				MinTrainingRows: minTrain,
			})
			svc := app.NewImputationService(orch, testkit.NewInMemoryLedger(), logger)

			result, err := svc.Run(ctx, app.ImputationRequest{
				Dataset:  ds,
				Target:   targetKey,
				Analysis: analysis,
				Subsets:  subsets,
				Seed:     seed,
			})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), report.BuildMarkdown(result.Manifest, result.Pooled, result.Runs))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "column to impute (required)")
	cmd.Flags().StringVar(&response, "response", "", "analysis response column (defaults to target)")
	cmd.Flags().StringSliceVar(&covariates, "covariates", nil, "analysis covariate columns")
	cmd.Flags().StringArrayVar(&subsetArgs, "subset", nil, "predictor subset, comma-separated (repeatable; one run each)")
	cmd.Flags().IntVar(&runs, "runs", cfg.Imputation.Runs, "number of imputation runs when subsets are auto-selected")
	cmd.Flags().Int64Var(&seed, "seed", cfg.Imputation.Seed, "base seed recorded in the run manifest")
	cmd.Flags().IntVar(&minTrain, "min-train", cfg.Imputation.MinTrainingRows, "minimum observed rows required to fit")
	cmd.Flags().DurationVar(&timeout, "timeout", cfg.Imputation.FitTimeout, "per-fit timeout (0 disables)")
	cmd.Flags().IntVar(&parallel, "parallel", cfg.Imputation.MaxParallel, "max concurrent runs (0 = unbounded)")
	return cmd
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve stored imputation results over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.NewDefaultLogger()

			var ledger ports.LedgerReaderPort
			if cfg.Database.URL != "" {
				db, err := postgres.Connect(cfg.Database.URL)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := postgres.Migrate(cmd.Context(), db); err != nil {
					return err
				}
				ledger = postgres.NewLedgerRepository(db)
				logger.Info("using postgres ledger")
			} else {
				ledger = testkit.NewInMemoryLedger()
				logger.Warn("DATABASE_URL not set, serving an empty in-memory ledger")
			}

			server := api.NewServer(ledger, logger, cfg.Server.Port)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-stop:
				logger.Info("shutting down")
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				return server.Shutdown(ctx)
			}
		},
	}
}

func loadDataset(ctx context.Context, path string) (*table.Dataset, error) {
	return loader.NewFileReader().ReadDataset(ctx, path)
}

func parseSubsets(args []string) ([]impute.PredictorSubset, error) {
	subsets := make([]impute.PredictorSubset, 0, len(args))
	for _, arg := range args {
		var subset impute.PredictorSubset
		for _, key := range strings.Split(arg, ",") {
			if key = strings.TrimSpace(key); key != "" {
				subset = append(subset, core.VariableKey(key))
			}
		}
		if len(subset) == 0 {
			return nil, fmt.Errorf("empty --subset value %q", arg)
		}
		subsets = append(subsets, subset)
	}
	return subsets, nil
}
