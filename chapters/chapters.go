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

// Package chapters declares the login flow and the documentation chapters
// of the lab.
package chapters

import (
	"github.com/ttbt-io/labshots/scenario"
)

// NameLogin names the login flow. It is not a registered chapter.
const NameLogin = "login"

// Login signs in through the Students identity provider. It captures the
// login page for the linguistics chapter on the way.
func Login(p scenario.Params) scenario.Chapter {
	return scenario.Chapter{
		Name:  NameLogin,
		Title: "Log in to OpenShift",
		Steps: []scenario.Step{
			scenario.Navigate(p.ConsoleURL()),
			scenario.WaitIdle(),
			scenario.WaitVisible(scenario.Text("Students")),
			scenario.Screenshot("openshift-login",
				scenario.Outline(scenario.CSS(`a[href*="idp=Students"]`)),
			).Into(NameLinguistics),
			scenario.Click(scenario.Text("Students")),
			scenario.Fill(scenario.CSS(`input[name="username"]`), p.Username),
			scenario.FillSecret(scenario.CSS(`input[name="password"]`), p.Password),
			scenario.Click(scenario.CSS(`button[type="submit"]`)),
			scenario.WaitIdle(),
			scenario.ClickIfPresent(scenario.HasText("button", "Skip tour")),
		},
	}
}

// Registry returns every chapter in run order.
func Registry(p scenario.Params) (scenario.Registry, error) {
	return scenario.NewRegistry(
		Linguistics(p),
	)
}
