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
	"time"

	cdptarget "github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/ttbt-io/labshots/browser/script"
	"github.com/ttbt-io/labshots/runner"
	"github.com/ttbt-io/labshots/scenario"
	"golang.org/x/sync/errgroup"
)

// Page is one chromedp tab. It implements runner.Page.
type Page struct {
	s      *Session
	ctx    context.Context
	cancel context.CancelFunc
	idle   *IdleTracker
}

var _ runner.Page = (*Page)(nil)

// run executes actions on the tab, bounded by the deadline and cancellation
// of ctx.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, dl)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return err
	}
	if d := p.s.opts.SlowMo; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *Page) eval(ctx context.Context, res any, fn string, args ...any) error {
	expr, err := script.Call(fn, args...)
	if err != nil {
		return err
	}
	return p.run(ctx, chromedp.Evaluate(expr, res))
}

// pollInterval is how often markVisible re-evaluates its locator.
const pollInterval = 100 * time.Millisecond

// markVisible polls until an element matching l is visible and marks the
// first such element with script.MarkAttr. chromedp's BySearch would wait
// for every node the XPath matches to become visible.
func markVisible(l scenario.Locator) (chromedp.Action, error) {
	expr, err := script.Call(script.MarkVisibleFunc, script.TargetOf(l))
	if err != nil {
		return nil, err
	}
	return chromedp.ActionFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		var lastErr error
		for {
			var ok bool
			// Evaluation fails while a navigation replaces the document.
			if lastErr = chromedp.Evaluate(expr, &ok).Do(ctx); lastErr == nil && ok {
				return nil
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				if lastErr != nil {
					return fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
				}
				return ctx.Err()
			}
		}
	}), nil
}

// target returns the actions that wait for l to be visible and the CSS
// selector of the element they leave l pointing at. CSS locators already
// resolve to their first match.
func target(l scenario.Locator) ([]chromedp.Action, string, error) {
	if !l.IsXPath() {
		return nil, l.Expression(), nil
	}
	mark, err := markVisible(l)
	if err != nil {
		return nil, "", err
	}
	return []chromedp.Action{mark}, script.MarkSelector, nil
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (p *Page) WaitIdle(ctx context.Context) error {
	return p.idle.Wait(ctx, p.s.opts.IdleQuiet)
}

func (p *Page) WaitVisible(ctx context.Context, l scenario.Locator) error {
	actions, sel, err := target(l)
	if err != nil {
		return err
	}
	if err := p.run(ctx, append(actions, chromedp.WaitVisible(sel, chromedp.ByQuery))...); err != nil {
		return fmt.Errorf("wait for %s: %w", l, err)
	}
	return nil
}

func (p *Page) Exists(ctx context.Context, l scenario.Locator) (bool, error) {
	var n int
	if err := p.eval(ctx, &n, script.CountFunc, script.TargetOf(l)); err != nil {
		return false, fmt.Errorf("look up %s: %w", l, err)
	}
	return n > 0, nil
}

func (p *Page) Click(ctx context.Context, l scenario.Locator) error {
	actions, sel, err := target(l)
	if err != nil {
		return err
	}
	if err := p.run(ctx, append(actions, chromedp.Click(sel, chromedp.ByQuery))...); err != nil {
		return fmt.Errorf("click %s: %w", l, err)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, l scenario.Locator, value string) error {
	if err := p.WaitVisible(ctx, l); err != nil {
		return err
	}
	var ok bool
	if err := p.eval(ctx, &ok, script.FillFunc, script.Fill{Target: script.TargetOf(l), Value: value}); err != nil {
		return fmt.Errorf("fill %s: %w", l, err)
	}
	if !ok {
		return fmt.Errorf("fill %s: no such element", l)
	}
	return nil
}

func (p *Page) Highlight(ctx context.Context, a scenario.Annotation) (int, error) {
	var n int
	if err := p.eval(ctx, &n, script.HighlightFunc, script.HighlightOf(a)); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if p.s.opts.DisableAnimations {
		var ok bool
		if err := p.eval(ctx, &ok, script.DisableAnimationsFunc); err != nil {
			return nil, err
		}
	}
	var buf []byte
	if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

func (p *Page) Zoom(ctx context.Context, factor float64) error {
	var ok bool
	return p.eval(ctx, &ok, script.ZoomFunc, factor)
}

// OpenPopup clicks trigger while listening for a new tab opened by this one.
// Both must complete.
func (p *Page) OpenPopup(ctx context.Context, trigger scenario.Locator) (runner.Page, error) {
	c := chromedp.FromContext(p.ctx)
	if c == nil || c.Target == nil {
		return nil, fmt.Errorf("page has no target")
	}
	opener := c.Target.TargetID

	listenCtx, cancelListen := context.WithCancel(p.ctx)
	defer cancelListen()
	newTab := chromedp.WaitNewTarget(listenCtx, func(info *cdptarget.Info) bool {
		return info.OpenerID == opener
	})

	var id cdptarget.ID
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case id = <-newTab:
			return nil
		case <-gctx.Done():
			return fmt.Errorf("timeout waiting for popup: %w", gctx.Err())
		}
	})
	g.Go(func() error {
		return p.Click(gctx, trigger)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(p.ctx, chromedp.WithTargetID(id))
	popup, err := p.s.setupPage(ctx, tabCtx, cancel)
	if err != nil {
		return nil, err
	}
	return popup, nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture HTML: %w", err)
	}
	return html, nil
}

// Close closes the tab. The session's first tab stays open until the
// session closes.
func (p *Page) Close(ctx context.Context) error {
	if p.cancel == nil {
		return nil
	}
	defer p.cancel()
	return chromedp.Cancel(p.ctx)
}
