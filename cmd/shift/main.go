package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jottr/shift/internal/config"
	"github.com/jottr/shift/internal/event"
	"github.com/jottr/shift/internal/filter"
	"github.com/jottr/shift/internal/history"
	"github.com/jottr/shift/internal/stats"
	"github.com/jottr/shift/internal/storage"
	"github.com/jottr/shift/internal/transfer"
	"github.com/jottr/shift/internal/ui"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "string" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: main CLI entry point orchestrates all flag parsing and mode selection
func run() int {
	var (
		linkFlag    bool
		moveFlag    bool
		modeStr     string
		verifyFlag  bool
		overwrite   bool
		retries     int
		recursive   bool
		dryRun      bool
		verbose     bool
		quiet       bool
		noProgress  bool
		noHistory   bool
		showVersion bool
		minSizeStr  string
		maxSizeStr  string
		bwLimitStr  string
		sshHost     string
		sshUser     string
		sshPort     int
		sshKeyFile  string
	)

	chain := filter.NewChain()

	rootCmd := &cobra.Command{
		Use:   "shift [flags] <source> <destination>",
		Short: "Hardlink-aware file mover with verified copies and safe cross-device moves",
		Args: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				return nil
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "shift %s\n", version)
				return nil
			}

			src := args[0]
			dst := args[1]

			// Load optional config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}

			// Apply config defaults for flags not explicitly set on CLI.
			applyConfigDefaults(cmd, cfg.Defaults, &modeStr, &verifyFlag, &overwrite, &retries, &quiet, &noHistory)

			// Apply bwlimit from config if not set on CLI.
			if !cmd.Flags().Changed("bwlimit") && cfg.Defaults.BWLimit != nil {
				bwLimitStr = *cfg.Defaults.BWLimit
			}

			// Zero retries means "one attempt", not "use the default".
			if retries == 0 {
				retries = -1
			}

			// Resolve the requested strategy set.
			mode, err := resolveMode(cmd, modeStr, linkFlag, moveFlag)
			if err != nil {
				return err
			}

			// Parse bandwidth limit.
			var bwLimit int64
			if bwLimitStr != "" {
				bwLimit, err = filter.ParseSize(bwLimitStr)
				if err != nil {
					return fmt.Errorf("invalid --bwlimit: %w", err)
				}
			}

			// Configure logging.
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			} else if !quiet {
				logLevel = slog.LevelInfo
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			}))
			slog.SetDefault(logger)

			if dryRun {
				slog.Info("dry run mode")
			}

			// Parse size filters.
			if minSizeStr != "" {
				n, err := filter.ParseSize(minSizeStr)
				if err != nil {
					return fmt.Errorf("invalid --min-size: %w", err)
				}
				chain.SetMinSize(n)
			}
			if maxSizeStr != "" {
				n, err := filter.ParseSize(maxSizeStr)
				if err != nil {
					return fmt.Errorf("invalid --max-size: %w", err)
				}
				chain.SetMaxSize(n)
			}

			// Set up context with signal handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Select the storage backend. With --ssh, both paths name files
			// on the remote host and all operations run over SFTP.
			var backend storage.Backend
			if sshHost != "" {
				sshClient, dialErr := storage.DialSSH(sshHost, sshUser, storage.SSHOpts{
					Port:    sshPort,
					KeyFile: sshKeyFile,
				})
				if dialErr != nil {
					return fmt.Errorf("connect to %s: %w", sshHost, dialErr)
				}
				sftpBackend, sftpErr := storage.NewSFTP(sshClient)
				if sftpErr != nil {
					sshClient.Close()
					return fmt.Errorf("open sftp session: %w", sftpErr)
				}
				defer sftpBackend.Close()
				backend = sftpBackend
				if bwLimit > 0 {
					slog.Warn("--bwlimit is not applied to sftp transfers")
				}
			} else {
				backend = storage.NewOS(storage.OSOptions{BWLimit: bwLimit})
			}

			srcIsDir, err := backend.DirExists(src)
			if err != nil {
				return fmt.Errorf("stat source: %w", err)
			}
			if srcIsDir && !recursive {
				return fmt.Errorf("source %s is a directory (use -r)", src)
			}

			// Create stats collector and events channel.
			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			// Open the history journal unless disabled. Dry runs are not
			// recorded; nothing happened.
			var job *history.JobWriter
			if !noHistory && !dryRun {
				hdb, histErr := history.Open()
				if histErr != nil {
					slog.Warn("history disabled", "error", histErr)
				} else {
					defer hdb.Close()
					job, histErr = hdb.Begin(src, dst, mode.String())
					if histErr != nil {
						slog.Warn("history disabled", "error", histErr)
						job = nil
					}
				}
			}

			// When recording history, tee events through a goroutine that
			// journals per-file outcomes before forwarding to the presenter.
			presenterEvents := (<-chan event.Event)(events)
			if job != nil {
				teed := make(chan event.Event, 256)
				go func() {
					for ev := range events {
						switch ev.Type {
						case event.FileCompleted:
							_ = job.RecordFile(ev.Path, ev.Size, ev.Achieved, "") //nolint:errcheck // journal failure must not abort the transfer
						case event.FileFailed:
							errMsg := ""
							if ev.Error != nil {
								errMsg = ev.Error.Error()
							}
							_ = job.RecordFile(ev.Path, ev.Size, "", errMsg) //nolint:errcheck // journal failure must not abort the transfer
						}
						teed <- ev
					}
					close(teed)
				}()
				presenterEvents = teed
			}

			// Create presenter.
			isTTY := ui.IsTTY(os.Stderr.Fd())
			presenter := ui.NewPresenter(ui.Config{
				Writer:     os.Stdout,
				ErrWriter:  os.Stderr,
				Stats:      collector,
				SrcRoot:    src,
				IsTTY:      isTTY,
				Quiet:      quiet,
				NoProgress: noProgress,
			})

			engineOpts := transfer.Options{
				Stats:      collector,
				Events:     events,
				RetryCount: retries,
				DryRun:     dryRun,
			}
			if !chain.Empty() {
				engineOpts.Filter = chain
			}
			eng := transfer.New(backend, engineOpts)

			slog.Debug("starting transfer",
				"src", src,
				"dst", dst,
				"mode", mode.String(),
				"verify", verifyFlag,
				"recursive", srcIsDir,
				"dry_run", dryRun,
			)

			// Run presenter in background, engine in foreground.
			var presenterErr error
			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenterErr = presenter.Run(presenterEvents)
			}()

			events <- event.Event{Type: event.TransferStarted, Timestamp: time.Now(), Path: src}

			var achieved transfer.Capability
			var runErr error
			if srcIsDir {
				// Pre-count for progress totals. Best effort; the transfer
				// proceeds without totals if the walk fails.
				files, bytes, countErr := eng.CountFolder(ctx, src)
				if countErr == nil {
					collector.SetTotals(files, bytes)
					events <- event.Event{Type: event.CountComplete, Total: files, TotalSize: bytes}
				}
				achieved, runErr = eng.TransferFolder(ctx, src, dst, mode, verifyFlag)
			} else {
				achieved, runErr = eng.TransferFile(ctx, src, dst, mode, transfer.FileOptions{
					Overwrite: overwrite,
					Verify:    verifyFlag,
				})
			}

			stop()
			close(events)
			presenterWg.Wait()
			if presenterErr != nil {
				fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
			}

			if job != nil {
				status := "ok"
				if runErr != nil {
					status = "failed"
				}
				if finishErr := job.Finish(status); finishErr != nil {
					slog.Warn("failed to finalize history", "error", finishErr)
				}
			}

			if !quiet {
				summary := presenter.Summary()
				if summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
			}

			if runErr != nil {
				slog.Error("transfer failed", "error", runErr)
				if collector.Snapshot().FilesDone() > 0 {
					return &exitError{code: 1} // partial failure
				}
				return &exitError{code: 2} // total failure
			}

			slog.Debug("transfer complete", "achieved", achieved.String())
			return nil
		},
	}

	// Version flag handled in RunE, but also register the flag.
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")

	rootCmd.Flags().
		BoolVarP(&linkFlag, "link", "l", false, "prefer hardlinking, fall back to copy")
	rootCmd.Flags().BoolVarP(&moveFlag, "move", "m", false, "move instead of copy")
	rootCmd.Flags().
		StringVar(&modeStr, "mode", "", "explicit strategy set (comma-separated: hardlink,copy,move)")
	rootCmd.Flags().
		BoolVar(&verifyFlag, "verify", false, "verify transfers by size and retry mismatches")
	rootCmd.Flags().
		BoolVarP(&overwrite, "overwrite", "f", false, "replace an existing destination file")
	rootCmd.Flags().
		IntVar(&retries, "retries", transfer.DefaultRetryCount, "verified-copy retries after a size mismatch (-1 disables)")
	rootCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "transfer directories recursively")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve the strategy without transferring")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable progress display")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false, "skip the history journal for this run")

	// Filter flags — use custom pflag.Value to preserve CLI ordering.
	rootCmd.Flags().
		VarP(&filterFlag{chain: chain, include: false}, "exclude", "", "exclude files matching PATTERN (repeatable)")
	rootCmd.Flags().
		VarP(&filterFlag{chain: chain, include: true}, "include", "", "include files matching PATTERN (repeatable)")
	rootCmd.Flags().
		StringVar(&minSizeStr, "min-size", "", "skip files smaller than SIZE (e.g. 1M, 100K)")
	rootCmd.Flags().
		StringVar(&maxSizeStr, "max-size", "", "skip files larger than SIZE (e.g. 1G, 500M)")
	rootCmd.Flags().
		StringVar(&bwLimitStr, "bwlimit", "", "bandwidth limit for copies (e.g. 100M, 1G)")

	rootCmd.Flags().
		StringVar(&sshHost, "ssh", "", "operate on HOST over SFTP (both paths are remote)")
	rootCmd.Flags().StringVar(&sshUser, "ssh-user", "", "SSH user (default: current user)")
	rootCmd.Flags().IntVar(&sshPort, "ssh-port", 22, "SSH port")
	rootCmd.Flags().
		StringVar(&sshKeyFile, "ssh-key", "", "SSH private key file (default: auto-detect)")

	// Register subcommands.
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(docsCmd)

	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "exclude" || f.Name == "include" {
			f.NoOptDefVal = ""
		}
	})

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	return 0
}

// resolveMode turns the strategy flags into a Capability set. --mode wins
// when given; otherwise -l and -m compose over the copy default.
func resolveMode(cmd *cobra.Command, modeStr string, link, move bool) (transfer.Capability, error) {
	if cmd.Flags().Changed("mode") {
		if link || move {
			return transfer.None, errors.New("--mode cannot be combined with --link or --move")
		}
		return transfer.ParseCapability(modeStr)
	}
	switch {
	case link && move:
		return transfer.HardLink | transfer.Copy | transfer.Move, nil
	case link:
		return transfer.HardLink | transfer.Copy, nil
	case move:
		return transfer.Move, nil
	default:
		return transfer.Copy, nil
	}
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	mode *string,
	verify *bool,
	overwrite *bool,
	retries *int,
	quiet *bool,
	noHistory *bool,
) {
	// A configured mode default yields to explicit strategy flags.
	if !cmd.Flags().Changed("mode") && !cmd.Flags().Changed("link") && !cmd.Flags().Changed("move") &&
		defaults.Mode != nil {
		*mode = *defaults.Mode
		cmd.Flags().Set("mode", *defaults.Mode) //nolint:errcheck // flag name is hardcoded
	}
	if !cmd.Flags().Changed("verify") && defaults.Verify != nil {
		*verify = *defaults.Verify
	}
	if !cmd.Flags().Changed("overwrite") && defaults.Overwrite != nil {
		*overwrite = *defaults.Overwrite
	}
	if !cmd.Flags().Changed("retries") && defaults.Retries != nil {
		*retries = *defaults.Retries
	}
	if !cmd.Flags().Changed("quiet") && defaults.Quiet != nil {
		*quiet = *defaults.Quiet
	}
	if !cmd.Flags().Changed("no-history") && defaults.History != nil {
		*noHistory = !*defaults.History
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
