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

// Package runner executes scenario chapters against a browser driver and
// writes their screenshots.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ttbt-io/labshots/scenario"
)

var ErrUnknownChapter = errors.New("unknown chapter")

const diagnoseTimeout = 10 * time.Second

// StepError is returned when a step fails.
type StepError struct {
	Chapter string
	// Index is the 1-based position of the step in its chapter.
	Index int
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step %d (%s): %v", e.Chapter, e.Index, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Options configure a Runner.
type Options struct {
	DocsDir string
	// ErrorScreenshot is written when a run fails.
	ErrorScreenshot string
	Timeout         time.Duration
	// SlowTimeout applies to steps marked slow.
	SlowTimeout time.Duration
	Logf        func(format string, args ...any)
	// Observe, if set, is called after every step of ch with its outcome.
	Observe func(ch scenario.Chapter, s scenario.Step, d time.Duration, err error)
}

// Runner drives one browser session through the login flow and a selection
// of chapters.
type Runner struct {
	driver Driver
	login  scenario.Chapter
	reg    scenario.Registry
	opts   Options

	mu    sync.Mutex
	state State
	shots []scenario.Shot

	main   Page
	active Page
}

// New returns a Runner. The Runner takes ownership of d and closes it at the
// end of Run.
func New(d Driver, login scenario.Chapter, reg scenario.Registry, opts Options) *Runner {
	if opts.DocsDir == "" {
		opts.DocsDir = scenario.DefaultDocsDir
	}
	if opts.ErrorScreenshot == "" {
		opts.ErrorScreenshot = scenario.DefaultErrorScreenshot
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SlowTimeout < opts.Timeout {
		opts.SlowTimeout = 2 * opts.Timeout
	}
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	return &Runner{driver: d, login: login, reg: reg, opts: opts}
}

func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// Shots returns the screenshots written so far.
func (r *Runner) Shots() []scenario.Shot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scenario.Shot(nil), r.shots...)
}

// Run logs in and runs the named chapter, or every registered chapter in
// registration order when chapter is empty. On failure it captures the
// active page to Options.ErrorScreenshot. The driver is closed before Run
// returns.
func (r *Runner) Run(ctx context.Context, chapter string) (err error) {
	defer func() {
		r.setState(StateClosing)
		if cerr := r.driver.Close(); cerr != nil {
			r.opts.Logf("Closing browser: %v", cerr)
		}
		r.setState(StateTerminated)
	}()

	names := r.reg.Names()
	if chapter != "" {
		if _, ok := r.reg.Lookup(chapter); !ok {
			r.reportUnknown(chapter)
			return fmt.Errorf("%w: %s", ErrUnknownChapter, chapter)
		}
		names = []string{chapter}
	}

	defer func() {
		if err != nil {
			r.opts.Logf("Error: %v", err)
			r.diagnose(ctx)
		}
	}()

	page, err := r.driver.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	r.main, r.active = page, page

	if err := r.Authenticate(ctx); err != nil {
		return err
	}
	for _, name := range names {
		if err := r.RunChapter(ctx, name); err != nil {
			return err
		}
	}
	r.opts.Logf("Screenshot renewal complete: %d images", len(r.Shots()))
	return nil
}

// Authenticate runs the login flow on the main page.
func (r *Runner) Authenticate(ctx context.Context) error {
	r.setState(StateLoggingIn)
	r.opts.Logf("Logging in to OpenShift...")
	if err := r.runSteps(ctx, r.login); err != nil {
		return err
	}
	r.opts.Logf("  ✓ Logged in successfully")
	return nil
}

// RunChapter runs the steps of the named chapter on the current page.
func (r *Runner) RunChapter(ctx context.Context, name string) error {
	ch, ok := r.reg.Lookup(name)
	if !ok {
		r.reportUnknown(name)
		return fmt.Errorf("%w: %s", ErrUnknownChapter, name)
	}
	r.setState(StateRunning)
	r.opts.Logf("Chapter %s: %s", ch.Name, ch.Title)
	return r.runSteps(ctx, ch)
}

func (r *Runner) reportUnknown(name string) {
	r.opts.Logf("Unknown chapter: %s", name)
	r.opts.Logf("Available chapters: %s", strings.Join(r.reg.Names(), ", "))
}

func (r *Runner) runSteps(ctx context.Context, ch scenario.Chapter) error {
	if r.active == nil {
		return fmt.Errorf("chapter %s: no page", ch.Name)
	}
	for i, s := range ch.Steps {
		start := time.Now()
		err := r.runStep(ctx, ch, s)
		if r.opts.Observe != nil {
			r.opts.Observe(ch, s, time.Since(start), err)
		}
		if err != nil {
			return &StepError{Chapter: ch.Name, Index: i + 1, Step: s.Describe(), Err: err}
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, ch scenario.Chapter, s scenario.Step) error {
	timeout := r.opts.Timeout
	if s.Slow {
		timeout = r.opts.SlowTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page := r.active
	switch s.Action {
	case scenario.ActNavigate:
		r.opts.Logf("  Navigating to %s", s.URL)
		return page.Navigate(ctx, s.URL)
	case scenario.ActWaitIdle:
		return page.WaitIdle(ctx)
	case scenario.ActWaitVisible:
		return page.WaitVisible(ctx, s.Target)
	case scenario.ActClick:
		return page.Click(ctx, s.Target)
	case scenario.ActClickIfPresent:
		ok, err := page.Exists(ctx, s.Target)
		if err != nil || !ok {
			return err
		}
		return page.Click(ctx, s.Target)
	case scenario.ActFill:
		return page.Fill(ctx, s.Target, s.Value)
	case scenario.ActScreenshot:
		return r.screenshot(ctx, ch, s)
	case scenario.ActZoom:
		return page.Zoom(ctx, s.Zoom)
	case scenario.ActOpenPopup:
		popup, err := page.OpenPopup(ctx, s.Target)
		if err != nil {
			return err
		}
		r.active = popup
		return nil
	case scenario.ActClosePopup:
		if page == r.main {
			return fmt.Errorf("no popup is open")
		}
		r.active = r.main
		return page.Close(ctx)
	}
	return fmt.Errorf("unsupported action %q", s.Action)
}

func (r *Runner) screenshot(ctx context.Context, ch scenario.Chapter, s scenario.Step) error {
	for _, a := range s.Annotations {
		n, err := r.active.Highlight(ctx, a)
		if err != nil {
			return fmt.Errorf("highlight %s: %w", a.Target, err)
		}
		if n == 0 {
			r.opts.Logf("  No element to highlight for %s", a.Target)
		}
	}
	png, err := r.active.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	dir := ch.Dir(s)
	path := scenario.ShotPath(r.opts.DocsDir, dir, s.Name)
	if err := writePNG(path, png); err != nil {
		return err
	}
	r.mu.Lock()
	r.shots = append(r.shots, scenario.NewShot(dir, s.Name, path, png))
	r.mu.Unlock()
	r.opts.Logf("  ✓ %s", s.File())
	return nil
}

// diagnose captures the active page after a failure. Its own failures are
// logged and ignored.
func (r *Runner) diagnose(ctx context.Context) {
	page := r.active
	if page == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), diagnoseTimeout)
	defer cancel()

	if png, err := page.Screenshot(ctx); err != nil {
		r.opts.Logf("DEBUG: Failed to capture screenshot: %v", err)
	} else if err := writePNG(r.opts.ErrorScreenshot, png); err != nil {
		r.opts.Logf("DEBUG: %v", err)
	} else {
		r.opts.Logf("Error screenshot saved to %s", r.opts.ErrorScreenshot)
	}

	html, err := page.HTML(ctx)
	if err != nil {
		r.opts.Logf("DEBUG: Failed to capture HTML: %v", err)
		return
	}
	summary, err := SummarizePage(html)
	if err != nil {
		r.opts.Logf("DEBUG: Failed to parse HTML: %v", err)
		return
	}
	r.opts.Logf("DEBUG: Page at failure:\n%s", summary)
}

func writePNG(path string, png []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for screenshot: %w", err)
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("failed to write screenshot to file: %w", err)
	}
	return nil
}
