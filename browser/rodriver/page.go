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

package rodriver

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ttbt-io/labshots/browser/script"
	"github.com/ttbt-io/labshots/runner"
	"github.com/ttbt-io/labshots/scenario"
	"golang.org/x/sync/errgroup"
)

// streamTypes never go idle and are left out of WaitIdle.
var streamTypes = []proto.NetworkResourceType{
	proto.NetworkResourceTypeWebSocket,
	proto.NetworkResourceTypeEventSource,
}

// Page is one rod tab. It implements runner.Page.
type Page struct {
	s     *Session
	page  *rod.Page
	popup bool
}

var _ runner.Page = (*Page)(nil)

func (p *Page) with(ctx context.Context) *rod.Page {
	return p.page.Context(ctx)
}

func (p *Page) element(ctx context.Context, l scenario.Locator) (*rod.Element, error) {
	if l.IsXPath() {
		return p.with(ctx).ElementX(l.Expression())
	}
	return p.with(ctx).Element(l.Expression())
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	pg := p.with(ctx)
	if err := pg.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := pg.WaitLoad(); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (p *Page) WaitIdle(ctx context.Context) error {
	wait := p.with(ctx).WaitRequestIdle(p.s.opts.IdleQuiet, nil, nil, streamTypes)
	wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("timeout waiting for network idle: %w", err)
	}
	return nil
}

func (p *Page) WaitVisible(ctx context.Context, l scenario.Locator) error {
	el, err := p.element(ctx, l)
	if err != nil {
		return fmt.Errorf("wait for %s: %w", l, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("wait for %s: %w", l, err)
	}
	return nil
}

func (p *Page) Exists(ctx context.Context, l scenario.Locator) (bool, error) {
	var (
		ok  bool
		err error
	)
	if l.IsXPath() {
		ok, _, err = p.with(ctx).HasX(l.Expression())
	} else {
		ok, _, err = p.with(ctx).Has(l.Expression())
	}
	if err != nil {
		return false, fmt.Errorf("look up %s: %w", l, err)
	}
	return ok, nil
}

func (p *Page) Click(ctx context.Context, l scenario.Locator) error {
	el, err := p.element(ctx, l)
	if err == nil {
		err = el.WaitVisible()
	}
	if err == nil {
		err = el.Click(proto.InputMouseButtonLeft, 1)
	}
	if err != nil {
		return fmt.Errorf("click %s: %w", l, err)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, l scenario.Locator, value string) error {
	if err := p.WaitVisible(ctx, l); err != nil {
		return err
	}
	res, err := p.with(ctx).Eval(script.FillFunc, script.Fill{Target: script.TargetOf(l), Value: value})
	if err != nil {
		return fmt.Errorf("fill %s: %w", l, err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("fill %s: no such element", l)
	}
	return nil
}

func (p *Page) Highlight(ctx context.Context, a scenario.Annotation) (int, error) {
	res, err := p.with(ctx).Eval(script.HighlightFunc, script.HighlightOf(a))
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	if p.s.opts.DisableAnimations {
		if _, err := p.with(ctx).Eval(script.DisableAnimationsFunc); err != nil {
			return nil, err
		}
	}
	png, err := p.with(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return png, nil
}

func (p *Page) Zoom(ctx context.Context, factor float64) error {
	_, err := p.with(ctx).Eval(script.ZoomFunc, factor)
	return err
}

// OpenPopup clicks trigger while waiting for the tab it opens.
func (p *Page) OpenPopup(ctx context.Context, trigger scenario.Locator) (runner.Page, error) {
	g, gctx := errgroup.WithContext(ctx)
	wait := p.with(gctx).WaitOpen()

	var popup *rod.Page
	g.Go(func() error {
		var err error
		popup, err = wait()
		if err != nil {
			return fmt.Errorf("timeout waiting for popup: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return p.Click(gctx, trigger)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	np, err := p.s.setupPage(ctx, popup, true)
	if err != nil {
		return nil, err
	}
	return np, nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	html, err := p.with(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to capture HTML: %w", err)
	}
	return html, nil
}

// Close closes a popup. Other pages stay open until the session closes.
func (p *Page) Close(ctx context.Context) error {
	if !p.popup {
		return nil
	}
	return p.page.Close()
}
