package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"neutrino/internal/config"
	"neutrino/internal/search"
	"neutrino/internal/store"
)

// cliFlags holds the raw flag values. Only flags the user actually set
// override the config file.
type cliFlags struct {
	configPath    string
	root          string
	json          bool
	concurrency   int
	maxSize       string
	depth         int
	excludeHidden bool
	excludeDirs   []string
	defaultSkips  bool
	gitignore     bool
	mmap          bool
	dedupe        bool
	save          string
	open          bool
	logLevel      string
	logDir        string
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "neutrino [glob] [pattern]",
		Short: "Accelerated file searcher",
		Long: `Neutrino walks a directory tree in parallel, matches file names against a
glob and optionally scans each match for a content pattern.

Pattern syntax:
  'text'   literal bytes (\' and \\ escape a quote or backslash)
  !'text'  anything but these bytes at this position
  <n>      skip exactly n bytes
  *        any number of bytes

Example: neutrino "**/*.go" "*'func main'"`,
		Version:      search.Version,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("neutrino v{{.Version}}\nBuild Time: %s\nGit Commit: %s\n",
		search.BuildTime, search.GitCommit))

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", config.DefaultConfigFile, "Path to a YAML config file")
	fl.StringVar(&f.root, "path", ".", "Directory to search")
	fl.BoolVar(&f.json, "json", false, "Print results as a JSON array")
	fl.IntVarP(&f.concurrency, "conc", "c", search.DefaultConcurrency(), "Number of worker goroutines")
	fl.StringVarP(&f.maxSize, "max-size", "s", "1MB", "Largest file scanned for content (0 = unlimited)")
	fl.IntVarP(&f.depth, "depth", "d", 0, "Maximum directory depth (0 = unlimited)")
	fl.BoolVar(&f.excludeHidden, "exclude-hidden", false, "Skip hidden files and directories")
	fl.StringSliceVar(&f.excludeDirs, "exclude-dir", nil, "Directory name or relative path to skip (repeatable)")
	fl.BoolVar(&f.defaultSkips, "default-skips", false, "Skip VCS, dependency and build directories")
	fl.BoolVar(&f.gitignore, "gitignore", false, "Respect .gitignore files")
	fl.BoolVar(&f.mmap, "mmap", true, "Memory-map large files instead of streaming them")
	fl.BoolVar(&f.dedupe, "dedupe", false, "Report files with identical content once")
	fl.StringVar(&f.save, "save", "", "Record the run in a SQLite database at this path")
	fl.BoolVarP(&f.open, "open", "o", false, "Reveal the first result in the file manager")
	fl.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fl.StringVar(&f.logDir, "log-dir", "", "Write a rotating log file to this directory")

	return cmd
}

// loadConfig layers defaults, the config file and explicitly set flags.
func loadConfig(cmd *cobra.Command, f *cliFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("json") {
		cfg.JSON = f.json
	}
	if changed("conc") {
		cfg.Concurrency = f.concurrency
	}
	if changed("max-size") {
		cfg.MaxSize = f.maxSize
	}
	if changed("depth") {
		cfg.MaxDepth = f.depth
	}
	if changed("exclude-hidden") {
		cfg.ExcludeHidden = f.excludeHidden
	}
	if changed("exclude-dir") {
		cfg.ExcludeDirs = f.excludeDirs
	}
	if changed("default-skips") {
		cfg.DefaultSkips = f.defaultSkips
	}
	if changed("gitignore") {
		cfg.RespectGitignore = f.gitignore
	}
	if changed("mmap") {
		cfg.UseMMap = f.mmap
	}
	if changed("dedupe") {
		cfg.Dedupe = f.dedupe
	}
	if changed("save") {
		cfg.Save = f.save
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-dir") {
		cfg.LogDir = f.logDir
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, f *cliFlags, args []string) error {
	glob, pattern := "**/*", ""
	if len(args) > 0 {
		glob = args[0]
	}
	if len(args) > 1 {
		pattern = args[1]
	}

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	opts, err := cfg.SearchOptions(f.root, glob, pattern)
	if err != nil {
		return err
	}

	if cfg.LogDir != "" {
		logOpts, err := cfg.LogOptions()
		if err != nil {
			return err
		}
		if err := search.InitLogger(logOpts); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer search.CloseLogger()
	}

	searcher, err := search.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db    *store.Store
		runID string
	)
	if cfg.Save != "" {
		if db, err = store.Open(cfg.Save); err != nil {
			return err
		}
		defer db.Close()
		if runID, err = db.BeginRun(ctx, searcher.Root(), glob, pattern); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	interactive := !cfg.JSON && isTerminal(out)

	var r renderer
	if cfg.JSON {
		r = newJSONRenderer(out)
	} else {
		r = newConsoleRenderer(out, interactive)
	}
	if interactive {
		printBanner(out, searcher)
	}

	var bar *progressbar.ProgressBar
	if interactive && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Searching"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
	}

	var first string
	start := time.Now()
	for res := range searcher.Search(ctx) {
		if first == "" {
			first = res.FullPath
		}
		if bar != nil {
			bar.Clear()
		}
		if err := r.Result(res); err != nil {
			return err
		}
		if db != nil {
			if err := db.AddResult(ctx, runID, res); err != nil {
				search.LogWarning("Failed to save result %s: %v", res.Path, err)
			}
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}

	stats := searcher.Stats()
	if db != nil {
		// the run context may already be cancelled
		if err := db.FinishRun(context.Background(), runID, stats); err != nil {
			search.LogWarning("Failed to finish run %s: %v", runID, err)
		}
	}
	if err := r.Finish(stats, searcher.ContentMode(), time.Since(start)); err != nil {
		return err
	}
	if ctx.Err() != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Search interrupted by user")
		return nil
	}
	if f.open && first != "" {
		if err := revealInFileManager(first); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Error opening file location:", err)
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
