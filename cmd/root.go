package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stvsmth/sieve/app"
	"github.com/stvsmth/sieve/config"
	"github.com/stvsmth/sieve/pkg/logger"
)

var (
	cfgFile    string
	noProgress bool
)

// flagKeys binds command line flags to their configuration keys.
var flagKeys = map[string]string{
	"include":           "scanner.include",
	"threads":           "performance.workers",
	"compression-level": "rewriter.compression_level",
	"log-level":         "logging.level",
	"log-output":        "logging.output",
	"log-dir":           "logging.dir",
	"locale":            "report.locale",
}

var rootCmd = &cobra.Command{
	Use:   "sieve <root-dir> [patterns...]",
	Short: "Remove matching lines from gzip-compressed log files in place",
	Long: `sieve walks a directory tree, decompresses every matching .gz file,
drops each line that contains any of the given patterns and writes the
result back in place, recompressed.

Patterns are plain substrings, not regular expressions. Files that cannot
be processed are listed at the end and left untouched.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSieve,
}

func runSieve(cmd *cobra.Command, args []string) error {
	v := config.New(cfgFile)
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}

	opts := &app.SieveOptions{
		Root:             args[0],
		Patterns:         args[1:],
		Include:          cfg.Scanner.Include,
		Workers:          cfg.Performance.Workers,
		CompressionLevel: cfg.Rewriter.CompressionLevel,
		LogLevel:         cfg.Logging.Level,
		LogOutput:        cfg.Logging.Output,
		LogDir:           cfg.Logging.Dir,
		Locale:           cfg.Report.Locale,
		Out:              cmd.OutOrStdout(),
	}
	// the bar shares stdout with the report and must not interleave with console logs
	opts.Progress = cfg.Progress.Enabled && !noProgress &&
		opts.LogOutput != string(logger.OutputStdout) &&
		app.IsTerminal(os.Stdout)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = app.RunSieve(ctx, opts)
	if app.ErrInterrupted(err) {
		cmd.PrintErrln("interrupted: files already started were finished, the rest were left untouched")
	}
	return err
}

// Execute runs the root command. It only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./sieve.yaml, $HOME/.sieve/sieve.yaml or /etc/sieve/sieve.yaml)")
	flags.IntP("threads", "t", 0, "number of files processed in parallel (default: number of CPUs)")
	flags.String("include", "", "glob selecting files relative to root-dir (default \"**/*.gz\")")
	flags.Int("compression-level", 0, "gzip level for rewritten files, -1 (default) to 9")
	flags.String("log-level", "", "log level: debug, info, warn, error (default \"info\")")
	flags.String("log-output", "", "where logs go: file or stdout (default \"file\")")
	flags.String("log-dir", "", "directory for the log file (default \".\")")
	flags.String("locale", "", "locale for the summary numbers, e.g. en, de (default \"en\")")
	flags.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(versionCmd())
}
