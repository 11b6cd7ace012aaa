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
	"time"

	"github.com/chromedp/cdproto/network"
)

// IdleTracker follows the network requests of a page. The page is idle when
// no request has been in flight for a quiet period. Event streams and web
// sockets never finish and are ignored.
type IdleTracker struct {
	mu       sync.Mutex
	inflight map[string]struct{}
	last     time.Time
	now      func() time.Time
}

func NewIdleTracker() *IdleTracker {
	t := &IdleTracker{inflight: make(map[string]struct{}), now: time.Now}
	t.last = t.now()
	return t
}

// Observe is a chromedp target listener.
func (t *IdleTracker) Observe(ev any) {
	switch ev := ev.(type) {
	case *network.EventRequestWillBeSent:
		if ev.Type == network.ResourceTypeEventSource || ev.Type == network.ResourceTypeWebSocket {
			return
		}
		t.Begin(string(ev.RequestID))
	case *network.EventLoadingFinished:
		t.End(string(ev.RequestID))
	case *network.EventLoadingFailed:
		t.End(string(ev.RequestID))
	}
}

func (t *IdleTracker) Begin(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.last = t.now()
}

func (t *IdleTracker) End(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	t.last = t.now()
}

// Inflight returns the number of requests in flight.
func (t *IdleTracker) Inflight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// Idle reports whether nothing has been in flight for quiet.
func (t *IdleTracker) Idle(quiet time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight) == 0 && t.now().Sub(t.last) >= quiet
}

// Wait blocks until the page is idle or ctx is done.
func (t *IdleTracker) Wait(ctx context.Context, quiet time.Duration) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if t.Idle(quiet) {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for network idle (%d requests in flight): %w", t.Inflight(), ctx.Err())
		}
	}
}
