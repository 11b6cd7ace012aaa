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

	"github.com/ttbt-io/labshots/scenario"
)

// Page is one browser tab. Every method blocks until the action completes or
// ctx is done.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitIdle waits until no network request has been in flight for a
	// quiet period.
	WaitIdle(ctx context.Context) error
	WaitVisible(ctx context.Context, l scenario.Locator) error
	// Exists reports whether l matches an element right now, without waiting.
	Exists(ctx context.Context, l scenario.Locator) (bool, error)
	Click(ctx context.Context, l scenario.Locator) error
	Fill(ctx context.Context, l scenario.Locator, value string) error
	// Highlight applies a and returns the number of styled elements.
	Highlight(ctx context.Context, a scenario.Annotation) (int, error)
	// Screenshot captures the viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	Zoom(ctx context.Context, factor float64) error
	// OpenPopup clicks trigger and returns the window the click opened.
	OpenPopup(ctx context.Context, trigger scenario.Locator) (Page, error)
	HTML(ctx context.Context) (string, error)
	Close(ctx context.Context) error
}

// Driver owns a browser session.
type Driver interface {
	NewPage(ctx context.Context) (Page, error)
	// Close releases the session and every page it opened.
	Close() error
}
