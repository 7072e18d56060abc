package main

import (
	"ZipSearch/internal"
	"ZipSearch/internal/tui"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	exitInvalid = 1
	exitCrashed = 2
	exitStopped = 130
)

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "zipsearch",
		Usage:     "Find files by name inside folders, zip archives and archives nested in archives",
		ArgsUsage: "<file name>",
		// lists are split with --delimiter instead
		DisableSliceFlagSeparator: true,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "paths",
				Aliases: []string{"p"},
				Usage:   "Folders or archives to search, separated by --delimiter (repeatable)",
				EnvVars: []string{"ZIPSEARCH_PATHS"},
			},
			&cli.BoolFlag{
				Name:  "all-roots",
				Usage: "Also search every local disk root",
			},
			&cli.StringSliceFlag{
				Name:    "ext",
				Aliases: []string{"e"},
				Usage:   "Archive types to search, without dot (default: jar,war,ear,zip)",
				EnvVars: []string{"ZIPSEARCH_EXT"},
			},
			&cli.BoolFlag{
				Name:    "nested",
				Aliases: []string{"n"},
				Usage:   "Search inside archives found in archives",
				EnvVars: []string{"ZIPSEARCH_NESTED"},
			},
			&cli.BoolFlag{
				Name:    "case-sensitive",
				Aliases: []string{"c"},
				Usage:   "Match names and types case sensitively",
				EnvVars: []string{"ZIPSEARCH_CASE_SENSITIVE"},
			},
			&cli.StringFlag{
				Name:    "delimiter",
				Usage:   "Separator for --paths and --ext lists (default: \",\")",
				EnvVars: []string{"ZIPSEARCH_DELIMITER"},
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "TOML file with defaults",
				Value:   internal.DefaultConfigPath(),
				EnvVars: []string{"ZIPSEARCH_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show progress and results in an interactive terminal view",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Progress refresh period (default: 350ms)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Stop searching after this long (e.g. 10m, 1h)",
			},
			&cli.StringFlag{
				Name:    "logfile",
				Usage:   "Write logs into file instead of stderr",
				EnvVars: []string{"ZIPSEARCH_LOGFILE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn, error (default: warn)",
				EnvVars: []string{"ZIPSEARCH_LOG_LEVEL"},
			},
		},
		Action: search,
	}
}

func search(c *cli.Context) error {
	cfg, req, err := prepare(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalid)
	}
	logrus.WithFields(logrus.Fields{
		"roots":  req.Roots,
		"filter": internal.NewExtensionFilter(req.CaseSensitive, req.Extensions).Description(),
		"nested": req.SearchNestedArchives,
	}).Info("ZipSearch started")

	// ctx with timeout + OS signals
	base := context.Background()
	var cancel context.CancelFunc
	if t := c.Duration("timeout"); t > 0 {
		base, cancel = context.WithTimeout(base, t)
	} else {
		base, cancel = context.WithCancel(base)
	}
	defer cancel()

	ctx, stop := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := internal.NewRunner()
	if err != nil {
		return cli.Exit(err.Error(), exitCrashed)
	}
	defer runner.Release()

	s, err := runner.Start(ctx, req)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalid)
	}

	var outcome internal.Outcome
	if c.Bool("tui") {
		outcome, err = tui.Run(s, cfg.Interval())
	} else {
		outcome, err = renderPlain(ctx, s, cfg.Interval(), os.Stdout, os.Stderr)
	}
	return exitFor(outcome, err)
}

func prepare(c *cli.Context) (internal.Config, internal.SearchRequest, error) {
	cfg, err := internal.LoadConfig(c.String("config"))
	if err != nil {
		return cfg, internal.SearchRequest{}, err
	}
	applyFlags(c, &cfg)
	internal.InitLogger(cfg.LogFile, cfg.LogLevel)

	if c.NArg() > 1 {
		return cfg, internal.SearchRequest{}, fmt.Errorf("expected one file name, got %d arguments: %q", c.NArg(), c.Args().Slice())
	}
	req := buildRequest(c, cfg)
	return cfg, req, req.Validate()
}

// applyFlags lets flags given on the command line or through the environment
// win over the config file.
func applyFlags(c *cli.Context, cfg *internal.Config) {
	if c.IsSet("delimiter") {
		cfg.Delimiter = c.String("delimiter")
	}
	if c.IsSet("ext") {
		cfg.Extensions = internal.SplitLists(c.StringSlice("ext"), cfg.Delimiter)
	}
	if c.IsSet("nested") {
		cfg.Nested = c.Bool("nested")
	}
	if c.IsSet("case-sensitive") {
		cfg.CaseSensitive = c.Bool("case-sensitive")
	}
	if d := c.Duration("interval"); d > 0 {
		cfg.IntervalMS = int(d.Milliseconds())
	}
	if c.IsSet("logfile") {
		cfg.LogFile = c.String("logfile")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
}

func buildRequest(c *cli.Context, cfg internal.Config) internal.SearchRequest {
	roots := internal.SplitLists(c.StringSlice("paths"), cfg.Delimiter)
	if c.Bool("all-roots") {
		auto := internal.DetectRoots(runtime.GOOS)
		logrus.Infof("Adding auto roots: %v", auto)
		roots = append(roots, auto...)
	}
	return internal.SearchRequest{
		Roots:                roots,
		Extensions:           cfg.Extensions,
		SearchNestedArchives: cfg.Nested,
		Target:               strings.TrimSpace(c.Args().First()),
		CaseSensitive:        cfg.CaseSensitive,
	}
}

func exitFor(outcome internal.Outcome, err error) error {
	switch outcome {
	case internal.OutcomeStopped:
		if err != nil {
			return cli.Exit(err.Error(), exitStopped)
		}
		return cli.Exit(outcome.String(), exitStopped)
	case internal.OutcomeCrashed:
		return cli.Exit(fmt.Sprintf("%s: %v", outcome, err), exitCrashed)
	}
	if err != nil {
		return cli.Exit(err.Error(), exitCrashed)
	}
	return nil
}
