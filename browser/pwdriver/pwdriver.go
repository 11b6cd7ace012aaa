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

// Package pwdriver drives Chromium with Playwright, the library the lab
// scenarios were first written against.
package pwdriver

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/ttbt-io/labshots/browser"
	"github.com/ttbt-io/labshots/runner"
)

// Session is one Playwright browser context. It implements runner.Driver.
type Session struct {
	opts    browser.Options
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext

	closeOnce sync.Once
	closeErr  error
}

var _ runner.Driver = (*Session)(nil)

// NewSession installs the Playwright driver if needed and starts Chromium,
// or connects over CDP to opts.ChromeURL.
func NewSession(ctx context.Context, opts browser.Options) (*Session, error) {
	opts = opts.WithDefaults()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}
	if opts.ChromeURL != "" {
		runOpts.SkipInstallBrowsers = true
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	s := &Session{opts: opts, pw: pw}

	var slowMo *float64
	if opts.SlowMo > 0 {
		slowMo = playwright.Float(millis(opts.SlowMo))
	}
	if opts.ChromeURL != "" {
		s.browser, err = pw.Chromium.ConnectOverCDP(opts.ChromeURL, playwright.BrowserTypeConnectOverCDPOptions{
			SlowMo: slowMo,
		})
	} else {
		launch := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			SlowMo:   slowMo,
			Args:     []string{"--ignore-certificate-errors"},
		}
		if opts.ExecPath != "" {
			launch.ExecutablePath = playwright.String(opts.ExecPath)
		}
		s.browser, err = pw.Chromium.Launch(launch)
	}
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s.context, err = s.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Width,
			Height: opts.Height,
		},
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		s.browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	opts.Logf("Started Playwright browser %s", s.browser.Version())
	return s, nil
}

func (s *Session) NewPage(ctx context.Context) (runner.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pg, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	return &Page{s: s, page: pg}, nil
}

// Close closes the context and the browser, then stops the driver. A
// browser reached over CDP is only disconnected.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		// Ignore errors, continue cleanup.
		_ = s.context.Close()
		_ = s.browser.Close()
		if err := s.pw.Stop(); err != nil {
			s.closeErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
	})
	return s.closeErr
}

func millis(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
