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

// Package rodriver drives Chrome with go-rod. It is an alternative to the
// chromedp driver with the same behavior.
package rodriver

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ttbt-io/labshots/browser"
	"github.com/ttbt-io/labshots/runner"
)

// Session is one rod browser. It implements runner.Driver.
type Session struct {
	opts     browser.Options
	browser  *rod.Browser
	launcher *launcher.Launcher

	mu    sync.Mutex
	pages []*rod.Page

	closeOnce sync.Once
	closeErr  error
}

var _ runner.Driver = (*Session)(nil)

// NewSession launches a local Chrome, or connects to opts.ChromeURL.
func NewSession(ctx context.Context, opts browser.Options) (*Session, error) {
	opts = opts.WithDefaults()
	s := &Session{opts: opts}

	controlURL := opts.ChromeURL
	if controlURL == "" {
		l := launcher.New().
			Context(ctx).
			Headless(opts.Headless).
			Set("ignore-certificate-errors").
			Set("window-size", fmt.Sprintf("%d,%d", opts.Width, opts.Height))
		if opts.ExecPath != "" {
			l = l.Bin(opts.ExecPath)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		s.launcher = l
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if opts.SlowMo > 0 {
		b = b.SlowMotion(opts.SlowMo)
	}
	if err := b.Connect(); err != nil {
		s.killLauncher()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		b.Close()
		s.killLauncher()
		return nil, fmt.Errorf("failed to ignore certificate errors: %w", err)
	}
	s.browser = b
	opts.Logf("Connected to browser at %s", controlURL)
	return s, nil
}

func (s *Session) NewPage(ctx context.Context) (runner.Page, error) {
	rp, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	p, err := s.setupPage(ctx, rp, false)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Session) setupPage(ctx context.Context, rp *rod.Page, popup bool) (*Page, error) {
	err := rp.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  s.opts.Width,
		Height: s.opts.Height,
	})
	if err != nil {
		rp.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	s.mu.Lock()
	s.pages = append(s.pages, rp)
	s.mu.Unlock()
	return &Page{s: s, page: rp, popup: popup}, nil
}

// Close closes the browser and stops a launched process.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.launcher == nil {
			// A remote browser keeps running; close only the pages opened here.
			s.mu.Lock()
			defer s.mu.Unlock()
			for _, p := range s.pages {
				p.Close()
			}
			return
		}
		s.closeErr = s.browser.Close()
		s.killLauncher()
	})
	return s.closeErr
}

func (s *Session) killLauncher() {
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
}
