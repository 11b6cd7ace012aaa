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

// Package browser drives Chrome through the DevTools protocol with chromedp.
package browser

import (
	"log"
	"time"
)

// Options configure a Session.
type Options struct {
	// ChromeURL is the remote debugging URL of a running browser. When
	// empty, a local Chrome is started.
	ChromeURL string
	// ExecPath overrides the Chrome binary of a local browser.
	ExecPath string
	Headless bool
	Width    int
	Height   int
	// SlowMo pauses after every page action.
	SlowMo time.Duration
	// IdleQuiet is how long the network must be quiet to count as idle.
	IdleQuiet         time.Duration
	DisableAnimations bool
	Logf              func(format string, args ...any)
}

// WithDefaults fills unset fields: a 1920x1080 viewport, a 500ms idle
// window and log.Printf.
func (o Options) WithDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1920
	}
	if o.Height <= 0 {
		o.Height = 1080
	}
	if o.IdleQuiet <= 0 {
		o.IdleQuiet = 500 * time.Millisecond
	}
	if o.Logf == nil {
		o.Logf = log.Printf
	}
	return o
}
