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

package scenario

import (
	"fmt"
	"strconv"
	"strings"
)

// Action is the kind of a Step.
type Action string

const (
	ActNavigate       Action = "navigate"
	ActWaitIdle       Action = "wait-idle"
	ActWaitVisible    Action = "wait-visible"
	ActClick          Action = "click"
	ActClickIfPresent Action = "click-if-present"
	ActFill           Action = "fill"
	ActScreenshot     Action = "screenshot"
	ActOpenPopup      Action = "open-popup"
	ActClosePopup     Action = "close-popup"
	ActZoom           Action = "zoom"
)

// Step is one UI interaction of a chapter. Steps carry no behavior; a runner
// interprets them against a browser.
type Step struct {
	Action Action
	// Name names screenshot steps. The image is written to <Name>.png.
	Name   string
	URL    string
	Target Locator
	Value  string
	// Secret hides Value in plans and progress lines.
	Secret bool
	// Dest writes the screenshot to another chapter's image directory.
	Dest        string
	Annotations []Annotation
	Zoom        float64
	// Slow selects the slow timeout, for waits on backend work such as
	// model inference.
	Slow bool
}

func Navigate(url string) Step {
	return Step{Action: ActNavigate, URL: url}
}

// WaitIdle waits until the page has had no network request in flight for a
// quiet period.
func WaitIdle() Step {
	return Step{Action: ActWaitIdle}
}

func WaitVisible(target Locator) Step {
	return Step{Action: ActWaitVisible, Target: target}
}

func Click(target Locator) Step {
	return Step{Action: ActClick, Target: target}
}

// ClickIfPresent clicks target when it exists at the time the step runs and
// does nothing otherwise. It never waits for target to appear.
func ClickIfPresent(target Locator) Step {
	return Step{Action: ActClickIfPresent, Target: target}
}

// Fill replaces the value of an input or textarea.
func Fill(target Locator, value string) Step {
	return Step{Action: ActFill, Target: target, Value: value}
}

// FillSecret is Fill with the value masked in all output.
func FillSecret(target Locator, value string) Step {
	s := Fill(target, value)
	s.Secret = true
	return s
}

// Screenshot applies the annotations, in order, and captures the viewport.
func Screenshot(name string, annotations ...Annotation) Step {
	return Step{Action: ActScreenshot, Name: name, Annotations: annotations}
}

// OpenPopup clicks trigger and waits for the window it opens. Following steps
// run on the popup until ClosePopup.
func OpenPopup(trigger Locator) Step {
	return Step{Action: ActOpenPopup, Target: trigger}
}

func ClosePopup() Step {
	return Step{Action: ActClosePopup}
}

// Zoom scales the page body, for example to fit long output in one shot.
func Zoom(factor float64) Step {
	return Step{Action: ActZoom, Zoom: factor}
}

// Into returns a copy of the screenshot step that writes to chapter's images.
func (s Step) Into(chapter string) Step {
	s.Dest = chapter
	return s
}

// Slowly returns a copy of the step that uses the slow timeout.
func (s Step) Slowly() Step {
	s.Slow = true
	return s
}

// File returns the image file name of a screenshot step.
func (s Step) File() string {
	return s.Name + ".png"
}

// Validate checks that the step has the fields its action needs.
func (s Step) Validate() error {
	switch s.Action {
	case ActNavigate:
		if s.URL == "" {
			return fmt.Errorf("navigate: empty url")
		}
	case ActWaitIdle, ActClosePopup:
	case ActWaitVisible, ActClick, ActClickIfPresent, ActOpenPopup, ActFill:
		if err := s.Target.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.Action, err)
		}
	case ActScreenshot:
		if s.Name == "" || strings.ContainsAny(s.Name, `/\`) {
			return fmt.Errorf("screenshot: invalid name %q", s.Name)
		}
		for i, a := range s.Annotations {
			if err := a.Validate(); err != nil {
				return fmt.Errorf("screenshot %s: annotation %d: %w", s.Name, i, err)
			}
		}
	case ActZoom:
		if s.Zoom <= 0 {
			return fmt.Errorf("zoom: factor must be positive, got %v", s.Zoom)
		}
	default:
		return fmt.Errorf("unknown action %q", s.Action)
	}
	return nil
}

// Describe returns a one-line description of the step for plans and
// progress output. Secret values are masked.
func (s Step) Describe() string {
	var b strings.Builder
	b.WriteString(string(s.Action))
	switch s.Action {
	case ActNavigate:
		b.WriteString(" " + s.URL)
	case ActWaitVisible, ActClick, ActClickIfPresent, ActOpenPopup:
		b.WriteString(" " + s.Target.String())
	case ActFill:
		v := s.Value
		if s.Secret {
			v = "****"
		} else if len(v) > 40 {
			v = v[:37] + "..."
		}
		b.WriteString(" " + s.Target.String() + " = " + v)
	case ActScreenshot:
		b.WriteString(" " + s.File())
		if s.Dest != "" {
			b.WriteString(" into " + s.Dest)
		}
		if n := len(s.Annotations); n > 0 {
			b.WriteString(" highlights=" + strconv.Itoa(n))
		}
	case ActZoom:
		b.WriteString(" " + strconv.FormatFloat(s.Zoom, 'f', -1, 64))
	}
	if s.Slow {
		b.WriteString(" (slow)")
	}
	return b.String()
}
