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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestTracker() (*IdleTracker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	tr := NewIdleTracker()
	tr.now = clock.Now
	tr.last = clock.Now()
	return tr, clock
}

func TestIdleTracker(t *testing.T) {
	tr, clock := newTestTracker()
	quiet := 500 * time.Millisecond

	if tr.Idle(quiet) {
		t.Error("Idle before the quiet period elapsed")
	}
	clock.Advance(quiet)
	if !tr.Idle(quiet) {
		t.Error("Not idle after the quiet period")
	}

	tr.Observe(&network.EventRequestWillBeSent{RequestID: "1", Type: network.ResourceTypeDocument})
	tr.Observe(&network.EventRequestWillBeSent{RequestID: "2", Type: network.ResourceTypeXHR})
	clock.Advance(time.Minute)
	if tr.Idle(quiet) || tr.Inflight() != 2 {
		t.Errorf("Idle with %d requests in flight", tr.Inflight())
	}

	tr.Observe(&network.EventLoadingFinished{RequestID: "1"})
	tr.Observe(&network.EventLoadingFailed{RequestID: "2"})
	if tr.Idle(quiet) {
		t.Error("Idle right after the last request finished")
	}
	clock.Advance(quiet)
	if !tr.Idle(quiet) {
		t.Error("Not idle after requests finished")
	}
}

func TestIdleTrackerIgnoresStreams(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Observe(&network.EventRequestWillBeSent{RequestID: "ws", Type: network.ResourceTypeWebSocket})
	tr.Observe(&network.EventRequestWillBeSent{RequestID: "sse", Type: network.ResourceTypeEventSource})
	clock.Advance(time.Second)
	if !tr.Idle(500 * time.Millisecond) {
		t.Errorf("Streams counted as in flight: %d", tr.Inflight())
	}
}

func TestIdleTrackerUnknownEnd(t *testing.T) {
	tr, clock := newTestTracker()
	clock.Advance(time.Second)
	tr.End("never-started")
	if !tr.Idle(500 * time.Millisecond) {
		t.Error("Unknown request end reset the quiet period")
	}
}

func TestIdleTrackerWait(t *testing.T) {
	tr, clock := newTestTracker()
	tr.Begin("1")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := tr.Wait(ctx, time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want deadline exceeded", err)
	}

	tr.End("1")
	clock.Advance(time.Second)
	if err := tr.Wait(context.Background(), 500*time.Millisecond); err != nil {
		t.Errorf("Wait() = %v", err)
	}
}
