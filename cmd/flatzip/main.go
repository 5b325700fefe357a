package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/flatzip/flatzip/internal/app"
	"github.com/flatzip/flatzip/internal/config"
	"github.com/flatzip/flatzip/internal/event"
	"github.com/flatzip/flatzip/internal/stats"
	"github.com/flatzip/flatzip/internal/ui"
	"github.com/flatzip/flatzip/internal/workspace"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// excludeFlag is a custom pflag.Value that collects repeated --exclude
// patterns in CLI order.
type excludeFlag struct {
	patterns *[]string
}

func (*excludeFlag) String() string { return "" }
func (*excludeFlag) Type() string   { return "string" }

func (f *excludeFlag) Set(val string) error {
	*f.patterns = append(*f.patterns, val)
	return nil
}

func run() int {
	var (
		outputPath    string
		excludes      []string
		skipBroken    bool
		verifyFlag    bool
		keepWorkspace bool
		verbose       bool
		quiet         bool
		logFile       string
		showVersion   bool
	)

	rootCmd := &cobra.Command{
		Use:   "flatzip [flags] <folder>",
		Short: "Resolve every alias in a folder and package the result as a ZIP",
		Long: `flatzip walks a folder, replaces every shortcut (symlink, and Finder
alias on macOS) with a copy of its original target, and packages the
fully-dereferenced tree into a ZIP archive named after the folder.`,
		Args: rootArgs(&showVersion),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Fprintf(os.Stdout, "flatzip %s\n", version)
				return nil
			}

			// Load optional config file.
			cfg, err := config.Load()
			if err != nil {
				slog.Warn("failed to load config", "error", err)
			}
			applyConfigDefaults(cmd, cfg.Defaults, &skipBroken, &verifyFlag, &quiet, &verbose)
			excludes = append(excludes, cfg.Archive.Exclude...)

			// Configure logging.
			logLevel := slog.LevelWarn
			if verbose {
				logLevel = slog.LevelDebug
			} else if !quiet {
				logLevel = slog.LevelInfo
			}
			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel,
			})
			var logHandler slog.Handler = textHandler
			if logFile != "" {
				lf, lfErr := os.Create(logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
			}
			runID := uuid.New().String()[:8]
			logger := slog.New(logHandler).With("run", runID)
			slog.SetDefault(logger)

			sourceDir, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}

			archivePath, err := resolveArchivePath(sourceDir, outputPath, cfg.Archive.OutputDir)
			if err != nil {
				return err
			}

			// Remove any leftover workspace if the process is interrupted.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				workspace.CleanupAll()
			}()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			// When --log is set, tee events through a logging goroutine
			// that writes structured records before forwarding to the presenter.
			presenterEvents := (<-chan event.Event)(events)
			if logFile != "" {
				teed := make(chan event.Event, 256)
				go func() {
					for ev := range events {
						attrs := []slog.Attr{
							slog.String("type", ev.Type.String()),
							slog.String("path", ev.Path),
							slog.Int64("size", ev.Size),
						}
						if ev.Target != "" {
							attrs = append(attrs, slog.String("target", ev.Target))
						}
						if ev.Error != nil {
							attrs = append(attrs, slog.String("error", ev.Error.Error()))
						}
						slog.LogAttrs(context.Background(), slog.LevelInfo, "flatzip.event", attrs...)
						teed <- ev
					}
					close(teed)
				}()
				presenterEvents = teed
			}

			presenter := ui.NewPresenter(ui.Config{
				Writer:  os.Stdout,
				Stats:   collector,
				Quiet:   quiet,
				Verbose: verbose,
			})

			var presenterErr error
			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenterErr = presenter.Run(presenterEvents)
			}()

			slog.Debug("starting run",
				"source", sourceDir,
				"archive", archivePath,
				"skip_broken", skipBroken,
				"verify", verifyFlag,
			)

			result := app.Run(app.Config{
				SourceDir:     sourceDir,
				ArchivePath:   archivePath,
				Excludes:      excludes,
				SkipBroken:    skipBroken,
				Verify:        verifyFlag,
				KeepWorkspace: keepWorkspace,
				Events:        events,
				Stats:         collector,
				Logger:        logger,
			})
			close(events)
			presenterWg.Wait()
			if presenterErr != nil {
				fmt.Fprintf(os.Stderr, "presenter: %v\n", presenterErr)
			}

			if result.Err != nil {
				slog.Error("run failed", "error", result.Err)
				return &exitError{code: 1}
			}

			if !quiet {
				if summary := presenter.Summary(); summary != "" {
					fmt.Fprintln(os.Stderr, summary)
				}
				fmt.Fprintln(os.Stderr, result.ArchivePath)
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "print version and exit")
	rootCmd.Flags().
		StringVarP(&outputPath, "output", "o", "", "archive path (default: ./<folder>.zip)")
	rootCmd.Flags().
		Var(&excludeFlag{patterns: &excludes}, "exclude", "exclude entries matching GLOB from the archive (repeatable)")
	rootCmd.Flags().
		BoolVar(&skipBroken, "skip-broken", false, "skip unresolvable shortcuts instead of failing")
	rootCmd.Flags().BoolVar(&verifyFlag, "verify", false, "verify checksums before archiving (BLAKE3)")
	rootCmd.Flags().
		BoolVar(&keepWorkspace, "keep-workspace", false, "keep the resolved temp workspace for inspection")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")
	rootCmd.Flags().StringVar(&logFile, "log", "", "write structured JSON log to FILE")

	rootCmd.AddCommand(docsCmd)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprint(os.Stderr, rootCmd.UsageString())
		}
		return 2
	}

	return 0
}

// rootArgs validates the positional arguments: exactly one folder, unless
// --version short-circuits the run.
func rootArgs(showVersion *bool) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if *showVersion {
			return nil
		}
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// usageError marks argument-validation failures so the caller can print
// usage text alongside the message.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// resolveArchivePath decides where the ZIP lands: --output wins, then the
// config output_dir, then the invocation directory.
func resolveArchivePath(sourceDir, outputFlag string, configDir *string) (string, error) {
	if outputFlag != "" {
		abs, err := filepath.Abs(outputFlag)
		if err != nil {
			return "", fmt.Errorf("output: %w", err)
		}
		if !strings.HasSuffix(abs, ".zip") {
			abs += ".zip"
		}
		return abs, nil
	}

	name := filepath.Base(sourceDir) + ".zip"
	if configDir != nil && *configDir != "" {
		return filepath.Join(*configDir, name), nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	return filepath.Join(cwd, name), nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(
	cmd *cobra.Command,
	defaults config.DefaultsConfig,
	skipBroken *bool,
	verify *bool,
	quiet *bool,
	verbose *bool,
) {
	if !cmd.Flags().Changed("skip-broken") && defaults.SkipBroken != nil {
		*skipBroken = *defaults.SkipBroken
	}
	if !cmd.Flags().Changed("verify") && defaults.Verify != nil {
		*verify = *defaults.Verify
	}
	if !cmd.Flags().Changed("quiet") && defaults.Quiet != nil {
		*quiet = *defaults.Quiet
	}
	if !cmd.Flags().Changed("verbose") && defaults.Verbose != nil {
		*verbose = *defaults.Verbose
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
