// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// labshots renews the screenshots of the lab instructions by driving the
// OpenShift console through each chapter.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ttbt-io/labshots/browser"
	"github.com/ttbt-io/labshots/browser/pwdriver"
	"github.com/ttbt-io/labshots/browser/rodriver"
	"github.com/ttbt-io/labshots/chapters"
	"github.com/ttbt-io/labshots/config"
	"github.com/ttbt-io/labshots/docscheck"
	"github.com/ttbt-io/labshots/history"
	"github.com/ttbt-io/labshots/metrics"
	"github.com/ttbt-io/labshots/runner"
	"github.com/ttbt-io/labshots/scenario"
)

// masterKeyEnv holds the passphrase of encrypted run history.
const masterKeyEnv = "LABSHOTS_MASTER_KEY"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// openDriverFunc starts the browser a run drives.
type openDriverFunc func(ctx context.Context, cfg *config.Config, logf func(string, ...any)) (runner.Driver, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, openDriver)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, open openDriverFunc) int {
	logger := log.New(stderr, "", log.LstdFlags)

	fs := flag.NewFlagSet("labshots", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configFile      = fs.String("config", "", "YAML or TOML configuration file")
		docsDir         = fs.String("docs-dir", "", "Documentation root holding <chapter>/images")
		driver          = fs.String("driver", "", "Browser automation library: chromedp, rod or playwright")
		chromeURL       = fs.String("chrome-url", "", "The url of the remote debugging port of a running browser")
		headless        = fs.Bool("headless", false, "Run the local browser without a window")
		timeout         = fs.Duration("timeout", 0, "Timeout of each step")
		historyDir      = fs.String("history-dir", "", "Directory of run records; 'none' disables history")
		errorScreenshot = fs.String("error-screenshot", "", "File written with the page shown when a run fails")
		metricsFile     = fs.String("metrics-file", "", "Write Prometheus metrics of the run to this file")
		checkDocs       = fs.Bool("check-docs", false, "Only check the image references of the docs and exit")
		listRuns        = fs.Bool("list-runs", false, "Only list the recorded runs and exit")
	)
	fs.Usage = func() {
		fmt.Fprint(stderr, scenario.Usage)
		fmt.Fprintln(stderr, "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFailure
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			logger.Printf("Error: %v", err)
			return exitFailure
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "docs-dir":
			cfg.DocsDir = *docsDir
		case "driver":
			cfg.Driver = config.Driver(*driver)
		case "chrome-url":
			cfg.Browser.ChromeURL = *chromeURL
		case "headless":
			cfg.Browser.Headless = *headless
		case "timeout":
			cfg.Timeout = *timeout
			if cfg.SlowTimeout < cfg.Timeout {
				cfg.SlowTimeout = 3 * cfg.Timeout
			}
		case "history-dir":
			cfg.HistoryDir = *historyDir
			if cfg.HistoryDir == "none" {
				cfg.HistoryDir = ""
			}
		case "error-screenshot":
			cfg.ErrorScreenshot = *errorScreenshot
		case "metrics-file":
			cfg.MetricsFile = *metricsFile
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Printf("Invalid configuration: %v", err)
		return exitFailure
	}

	if *checkDocs {
		return runCheckDocs(cfg, stdout, logger)
	}
	if *listRuns {
		return runListRuns(cfg, stdout, logger)
	}

	params, err := scenario.ParseArgs(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return exitFailure
	}
	reg, err := chapters.Registry(params)
	if err != nil {
		logger.Printf("Error: %v", err)
		return exitFailure
	}
	login := chapters.Login(params)

	selected := reg.Chapters()
	if params.Chapter != "" {
		ch, ok := reg.Lookup(params.Chapter)
		if !ok {
			logger.Printf("Unknown chapter: %s", params.Chapter)
			logger.Printf("Available chapters: %s", strings.Join(reg.Names(), ", "))
			return exitUsage
		}
		selected = []scenario.Chapter{ch}
	}

	fmt.Fprintln(stdout, banner(params))

	var (
		store  *history.RunStore
		record *history.Run
	)
	if cfg.HistoryDir != "" {
		s, err := history.OpenStorage(cfg.HistoryDir, os.Getenv(masterKeyEnv))
		if err != nil {
			logger.Printf("Run history disabled: %v", err)
		} else {
			store = history.NewRunStore(cfg.HistoryDir, s)
			record = history.NewRun(params, names(selected), time.Now())
		}
	}

	opts := runner.Options{
		DocsDir:         cfg.DocsDir,
		ErrorScreenshot: cfg.ErrorScreenshot,
		Timeout:         cfg.Timeout,
		SlowTimeout:     cfg.SlowTimeout,
		Logf:            logger.Printf,
	}
	var rec *metrics.Recorder
	if cfg.MetricsFile != "" {
		rec = metrics.New()
		opts.Observe = rec.ObserveStep
	}

	start := time.Now()
	d, err := open(ctx, cfg, logger.Printf)
	if err != nil {
		logger.Printf("Failed to start browser: %v", err)
		return exitFailure
	}
	r := runner.New(d, login, reg, opts)
	runErr := r.Run(ctx, params.Chapter)

	if rec != nil {
		rec.ObserveRun(start, time.Now(), runErr)
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Printf("Metrics: %v", err)
		}
	}
	if store != nil {
		saveHistory(store, record, r.Shots(), runErr, logger)
	}

	if runErr != nil {
		logger.Printf("Error during screenshot renewal: %v", runErr)
		if errors.Is(runErr, runner.ErrUnknownChapter) {
			return exitUsage
		}
		return exitFailure
	}
	logger.Println("Screenshot renewal completed successfully!")

	produced := scenario.ShotsByChapter(append([]scenario.Chapter{login}, selected...)...)
	reports, err := docscheck.Check(cfg.DocsDir, produced, cfg.DocsIgnore...)
	if err != nil {
		logger.Printf("Docs check failed: %v", err)
		return exitOK
	}
	for _, rep := range reports {
		if !rep.OK() {
			logger.Printf("Docs check: %s", rep)
		}
	}
	return exitOK
}

func openDriver(ctx context.Context, cfg *config.Config, logf func(string, ...any)) (runner.Driver, error) {
	opts := browser.Options{
		ChromeURL:         cfg.Browser.ChromeURL,
		ExecPath:          cfg.Browser.ExecPath,
		Headless:          cfg.Browser.Headless,
		Width:             cfg.Browser.Width,
		Height:            cfg.Browser.Height,
		SlowMo:            cfg.Browser.SlowMo,
		IdleQuiet:         cfg.Browser.IdleQuiet,
		DisableAnimations: cfg.Browser.DisableAnimations,
		Logf:              logf,
	}
	switch cfg.Driver {
	case config.DriverRod:
		s, err := rodriver.NewSession(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPlaywright:
		s, err := pwdriver.NewSession(ctx, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := browser.NewSession(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// saveHistory records the run and, when it succeeded, logs how its
// screenshots differ from the previous successful run.
func saveHistory(store *history.RunStore, record *history.Run, shots []scenario.Shot, runErr error, logger *log.Logger) {
	prev, err := store.Latest()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("Reading run history: %v", err)
	}
	record.Finish(shots, runErr, time.Now())
	if err := store.SaveRun(record); err != nil {
		logger.Printf("Saving run %s: %v", record.ID, err)
		return
	}
	if runErr != nil || prev == nil {
		return
	}
	diff, err := history.Diff(prev, record)
	if err != nil {
		logger.Printf("Comparing with run %s: %v", prev.ID, err)
		return
	}
	if diff == "" {
		logger.Printf("Screenshots unchanged since run %s", prev.ID)
		return
	}
	logger.Printf("Screenshots changed since run %s:\n%s", prev.ID, diff)
}

func runCheckDocs(cfg *config.Config, stdout io.Writer, logger *log.Logger) int {
	// Screenshot names do not depend on the credentials.
	p := scenario.Params{ClusterDomain: "example.com", Username: "user", Password: "-"}
	reg, err := chapters.Registry(p)
	if err != nil {
		logger.Printf("Error: %v", err)
		return exitFailure
	}
	all := append([]scenario.Chapter{chapters.Login(p)}, reg.Chapters()...)
	reports, err := docscheck.Check(cfg.DocsDir, scenario.ShotsByChapter(all...), cfg.DocsIgnore...)
	if err != nil {
		logger.Printf("Docs check failed: %v", err)
		return exitFailure
	}
	code := exitOK
	for _, rep := range reports {
		fmt.Fprintln(stdout, rep)
		if !rep.OK() {
			code = exitFailure
		}
	}
	return code
}

func runListRuns(cfg *config.Config, stdout io.Writer, logger *log.Logger) int {
	if cfg.HistoryDir == "" {
		logger.Print("Error: run history is disabled")
		return exitFailure
	}
	s, err := history.OpenStorage(cfg.HistoryDir, os.Getenv(masterKeyEnv))
	if err != nil {
		logger.Printf("Error: %v", err)
		return exitFailure
	}
	code := exitOK
	for r, err := range history.NewRunStore(cfg.HistoryDir, s).ListRuns() {
		if err != nil {
			logger.Printf("Error: %v", err)
			code = exitFailure
			continue
		}
		fmt.Fprintf(stdout, "%s  %s  %-9s  %s  %d screenshots\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Status, strings.Join(r.Chapters, ","), len(r.Shots))
	}
	return code
}

func banner(p scenario.Params) string {
	chapter := p.Chapter
	if chapter == "" {
		chapter = "all"
	}
	title := lipgloss.NewStyle().Bold(true).Render("Lab Instructions Screenshot Renewal")
	body := fmt.Sprintf("Cluster: %s\nUser:    %s\nChapter: %s", p.ClusterDomain, p.Username, chapter)
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

func names(chs []scenario.Chapter) []string {
	out := make([]string, 0, len(chs))
	for _, c := range chs {
		out = append(out, c.Name)
	}
	return out
}
