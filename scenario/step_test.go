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
	"strings"
	"testing"
)

func TestStepDescribe(t *testing.T) {
	long := strings.Repeat("canopy ", 20)
	tests := []struct {
		step Step
		want string
	}{
		{Navigate("https://example.com"), "navigate https://example.com"},
		{WaitIdle(), "wait-idle"},
		{WaitIdle().Slowly(), "wait-idle (slow)"},
		{WaitVisible(Text("Students")), "wait-visible text=Students"},
		{FillSecret(CSS(`input[name="password"]`), "hunter2"), `fill css=input[name="password"] = ****`},
		{Fill(CSS("textarea"), long), "fill css=textarea = " + long[:37] + "..."},
		{Screenshot("add-helm", Outline(CSS("a")), Outline(CSS("b"))), "screenshot add-helm.png highlights=2"},
		{Screenshot("openshift-login").Into("2-linguistics"), "screenshot openshift-login.png into 2-linguistics"},
		{Zoom(0.8), "zoom 0.8"},
		{OpenPopup(HasText("button", "Open URL")), `open-popup button:has-text("Open URL")`},
		{ClosePopup(), "close-popup"},
	}
	for _, tc := range tests {
		if got := tc.step.Describe(); got != tc.want {
			t.Errorf("Describe() = %q, want %q", got, tc.want)
		}
	}
}

func TestDescribeNeverShowsSecret(t *testing.T) {
	s := FillSecret(CSS("#pw"), "s3cret-value")
	if strings.Contains(s.Describe(), "s3cret") {
		t.Errorf("Secret leaked: %s", s.Describe())
	}
}

func TestStepValidate(t *testing.T) {
	bad := []Step{
		Navigate(""),
		Click(Locator{}),
		Fill(Locator{}, "x"),
		Screenshot(""),
		Screenshot("a/b"),
		Screenshot("x", Outline(Locator{})),
		Zoom(0),
		{Action: "hover"},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("Expected error for %+v", s)
		}
	}
	good := []Step{
		Navigate("https://x"),
		WaitIdle(),
		ClickIfPresent(HasText("button", "Skip tour")),
		Screenshot("ok", Outline(CSS("a"))),
		Zoom(1.5),
		ClosePopup(),
	}
	for _, s := range good {
		if err := s.Validate(); err != nil {
			t.Errorf("Unexpected error for %s: %v", s.Describe(), err)
		}
	}
}
