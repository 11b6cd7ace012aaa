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

package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ttbt-io/labshots/scenario"
)

var errInjected = errors.New("injected failure")

// fakeDriver records every page operation. The failAt'th operation (1-based)
// fails once; later operations, including diagnostics, succeed.
type fakeDriver struct {
	mu       sync.Mutex
	ops      []string
	failAt   int
	missing  map[string]bool
	pages    int
	closed   int
	newPages int
	deadline map[string]time.Duration
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{missing: make(map[string]bool), deadline: make(map[string]time.Duration)}
}

func (d *fakeDriver) NewPage(ctx context.Context) (Page, error) {
	d.mu.Lock()
	d.newPages++
	d.mu.Unlock()
	return d.page(), nil
}

func (d *fakeDriver) page() *fakePage {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pages++
	return &fakePage{d: d, id: d.pages}
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed++
	return nil
}

func (d *fakeDriver) record(ctx context.Context, op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ops = append(d.ops, op)
	if dl, ok := ctx.Deadline(); ok {
		d.deadline[op] = time.Until(dl)
	}
	if len(d.ops) == d.failAt {
		return fmt.Errorf("%s: %w", op, errInjected)
	}
	return nil
}

func (d *fakeDriver) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ops...)
}

type fakePage struct {
	d      *fakeDriver
	id     int
	closed bool
}

func (p *fakePage) op(ctx context.Context, format string, args ...any) error {
	return p.d.record(ctx, fmt.Sprintf("p%d ", p.id)+fmt.Sprintf(format, args...))
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	return p.op(ctx, "navigate %s", url)
}

func (p *fakePage) WaitIdle(ctx context.Context) error {
	return p.op(ctx, "wait-idle")
}

func (p *fakePage) WaitVisible(ctx context.Context, l scenario.Locator) error {
	return p.op(ctx, "wait-visible %s", l)
}

func (p *fakePage) Exists(ctx context.Context, l scenario.Locator) (bool, error) {
	if err := p.op(ctx, "exists %s", l); err != nil {
		return false, err
	}
	return !p.d.missing[l.String()], nil
}

func (p *fakePage) Click(ctx context.Context, l scenario.Locator) error {
	return p.op(ctx, "click %s", l)
}

func (p *fakePage) Fill(ctx context.Context, l scenario.Locator, value string) error {
	return p.op(ctx, "fill %s", l)
}

func (p *fakePage) Highlight(ctx context.Context, a scenario.Annotation) (int, error) {
	if err := p.op(ctx, "highlight %s", a.Target); err != nil {
		return 0, err
	}
	return 1, nil
}

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := p.op(ctx, "screenshot"); err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("png-%d", p.id)), nil
}

func (p *fakePage) Zoom(ctx context.Context, factor float64) error {
	return p.op(ctx, "zoom %v", factor)
}

func (p *fakePage) OpenPopup(ctx context.Context, trigger scenario.Locator) (Page, error) {
	if err := p.op(ctx, "open-popup %s", trigger); err != nil {
		return nil, err
	}
	return p.d.page(), nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	if err := p.op(ctx, "html"); err != nil {
		return "", err
	}
	return `<html><head><title>Console</title></head><body><button>Helm</button><a href="/x">Releases</a></body></html>`, nil
}

func (p *fakePage) Close(ctx context.Context) error {
	p.closed = true
	return p.op(ctx, "close")
}
