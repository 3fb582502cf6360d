package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqpace/packages/config"
	"github.com/abdul-hamid-achik/reqpace/packages/cycle"
	"github.com/abdul-hamid-achik/reqpace/packages/http"
)

var runCmd = &cobra.Command{
	Use:   "run <config.yaml>",
	Short: "Run paced request cycles from a config file",
	Long: `Run repeating two-request cycles as described by a YAML config.

Examples:
  # Run until interrupted
  reqpace run cycles.yaml

  # Fixed number of cycles with overridden pacing
  reqpace run cycles.yaml --max-cycles 50 --delay-a 2s --delay-b 250ms

  # Re-run whenever the config changes
  reqpace run cycles.yaml --watch

  # Machine-readable summary
  reqpace run cycles.yaml --max-cycles 10 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCommand,
}

// watchDebounceDelay absorbs editor save bursts
const watchDebounceDelay = 300 * time.Millisecond

var (
	runMaxCyclesFlag int
	runDelayAFlag    string
	runDelayBFlag    string
	runTimeoutFlag   string
	runInsecureFlag  bool
	runNoColorFlag   bool
	runVerboseFlag   bool
	runJSONFlag      bool
	runWatchFlag     bool
)

func init() {
	runCmd.Flags().IntVarP(&runMaxCyclesFlag, "max-cycles", "n", -1, "Stop after this many cycles (0 runs until interrupted)")
	runCmd.Flags().StringVar(&runDelayAFlag, "delay-a", "", "Spacing between A dispatches (e.g., 500ms, 2s)")
	runCmd.Flags().StringVar(&runDelayBFlag, "delay-b", "", "Offset from A's dispatch to B's dispatch")
	runCmd.Flags().StringVarP(&runTimeoutFlag, "timeout", "t", "", "Per-request timeout")
	runCmd.Flags().BoolVarP(&runInsecureFlag, "insecure", "k", false, "Disable SSL certificate validation")
	runCmd.Flags().BoolVar(&runNoColorFlag, "no-color", false, "Disable colored output")
	runCmd.Flags().BoolVarP(&runVerboseFlag, "verbose", "v", false, "Verbose output with error details")
	runCmd.Flags().BoolVar(&runJSONFlag, "json", false, "Output the summary as JSON")
	runCmd.Flags().BoolVarP(&runWatchFlag, "watch", "w", false, "Re-run when the config file changes")
}

func runCommand(cmd *cobra.Command, args []string) error {
	configPath := args[0]

	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("cannot access config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt, finishing in-flight cycles...")
		cancel()
	}()

	failed, err := runOnce(ctx, cmd, configPath)
	if err != nil {
		return err
	}

	if !runWatchFlag {
		if failed {
			os.Exit(ExitRunFailure)
		}
		return nil
	}

	return watchAndRerun(ctx, cmd, configPath)
}

// runOnce loads the config, applies flag overrides, and drives a full
// run. It reports whether any request failed.
func runOnce(ctx context.Context, cmd *cobra.Command, configPath string) (bool, error) {
	cfg, err := loadRunConfig(configPath)
	if err != nil {
		return false, err
	}

	client := http.NewClient(
		http.WithTimeout(cfg.Timeout),
		http.WithValidateSSL(!runInsecureFlag),
	)

	reporter := cycle.NewReporter(
		cycle.WithWriter(cmd.OutOrStdout()),
		cycle.WithNoColor(runNoColorFlag),
		cycle.WithVerbose(runVerboseFlag),
	)

	runner, err := cycle.NewRunner(cfg,
		cycle.WithHTTPClient(client),
		cycle.WithReporter(reporter),
	)
	if err != nil {
		return false, err
	}

	if !runJSONFlag {
		reporter.Header(version, cfg)
	}

	result, err := runner.Run(ctx)
	if err != nil {
		return false, err
	}

	if runJSONFlag {
		if err := reporter.JSONSummary(result.Summary); err != nil {
			return false, err
		}
	} else {
		reporter.Summary(result.Summary)
		if result.State == cycle.StateStopped {
			reporter.Info("Stopped after %d cycles.", result.Cycles)
		}
	}

	return result.Summary.TotalFailures() > 0, nil
}

func loadRunConfig(configPath string) (*cycle.Config, error) {
	file, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := file.ToCycleConfig()
	if err != nil {
		return nil, err
	}

	if runMaxCyclesFlag >= 0 {
		cfg.MaxCycles = runMaxCyclesFlag
	}
	if runDelayAFlag != "" {
		d, err := time.ParseDuration(runDelayAFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --delay-a: %w", err)
		}
		cfg.DelayAtoA = d
	}
	if runDelayBFlag != "" {
		d, err := time.ParseDuration(runDelayBFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --delay-b: %w", err)
		}
		cfg.DelayAtoB = d
	}
	if runTimeoutFlag != "" {
		d, err := time.ParseDuration(runTimeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout: %w", err)
		}
		cfg.Timeout = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// watchAndRerun re-runs the config after each change, debounced.
func watchAndRerun(ctx context.Context, cmd *cobra.Command, configPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops
	// a watch on the file itself.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(configPath), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", configPath)

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(configPath) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nConfig changed: %s\nRe-running...\n", event.Name)
				if _, err := runOnce(ctx, cmd, configPath); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", configPath)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		}
	}
}
