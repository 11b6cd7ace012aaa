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

package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/security"
	"github.com/chromedp/chromedp"
	"github.com/ttbt-io/labshots/runner"
)

// Session is one browser with its pages. It implements runner.Driver.
type Session struct {
	opts Options

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu        sync.Mutex
	firstUsed bool
	closeOnce sync.Once
	closeErr  error
}

var _ runner.Driver = (*Session)(nil)

// NewSession starts or connects to a browser. The session lives until Close
// or until ctx is done.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.WithDefaults()

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.ChromeURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, opts.ChromeURL)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.IgnoreCertErrors,
			chromedp.WindowSize(opts.Width, opts.Height),
		)
		if opts.ExecPath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, allocOpts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(opts.Logf))
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return &Session{
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// NewPage returns the browser's first tab on the first call and opens a new
// tab on later calls.
func (s *Session) NewPage(ctx context.Context) (runner.Page, error) {
	s.mu.Lock()
	first := !s.firstUsed
	s.firstUsed = true
	s.mu.Unlock()

	tabCtx, cancel := s.browserCtx, context.CancelFunc(nil)
	if !first {
		tabCtx, cancel = chromedp.NewContext(s.browserCtx)
	}
	p, err := s.setupPage(ctx, tabCtx, cancel)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// setupPage prepares a tab: network tracking, certificate errors ignored,
// fixed viewport. A nil cancel marks a tab that Close leaves open.
func (s *Session) setupPage(ctx, tabCtx context.Context, cancel context.CancelFunc) (*Page, error) {
	p := &Page{s: s, ctx: tabCtx, cancel: cancel, idle: NewIdleTracker()}
	chromedp.ListenTarget(tabCtx, p.idle.Observe)
	if err := p.run(ctx,
		network.Enable(),
		security.SetIgnoreCertificateErrors(true),
		chromedp.EmulateViewport(int64(s.opts.Width), int64(s.opts.Height)),
	); err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, fmt.Errorf("failed to set up page: %w", err)
	}
	return p, nil
}

// Close shuts the browser down, or detaches from a remote one.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = chromedp.Cancel(s.browserCtx)
		s.browserCancel()
		s.allocCancel()
	})
	return s.closeErr
}
