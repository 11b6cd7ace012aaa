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

package chapters

import (
	"github.com/ttbt-io/labshots/scenario"
)

const NameLinguistics = "2-linguistics"

// SampleText is summarized by the Canopy UI in the last screenshot.
const SampleText = `In biology, the canopy is the aboveground portion of a plant cropping or crop, formed by the collection of individual plant crowns. In forest ecology, canopy also refers to the upper layer or habitat zone, formed by mature tree crowns and including other biological organisms such as epiphytes, lianas, arboreal animals, and so on. Sometimes the term canopy is used to refer to the extent of the outer layer of leaves of an individual tree or group of trees. Shade trees normally have a dense canopy that blocks light from lower growing plants.

The canopy layer is the primary layer of the forest, forming a roof over the two remaining layers. The canopy contains the majority of the largest trees, typically 30 to 45 meters in height. The densest areas of biodiversity are found in the forest canopy, a more or less continuous cover of foliage formed by adjacent treetops. The canopy, by some estimates, is home to 50 percent of all plant species. Epiphytic plants attach to trunks and branches, and obtain water and minerals from rain and debris that collects on the supporting plants.

The fauna is similar to that found in the emergent layer, but more diverse. It is believed that the total arthropod species richness of the tropical canopy might be as high as 20 million. Other organisms inhabiting this layer include many species of bats, which use the canopy layer for both roosting and hunting. Snakes also frequent the canopy layer, hunting bats and birds. Many large predatory birds, such as eagles and hawks, also hunt in the canopy layer.`

// Linguistics deploys the Canopy UI Helm chart into the user's canopy
// project and summarizes SampleText with it.
func Linguistics(p scenario.Params) scenario.Chapter {
	var (
		css     = scenario.CSS
		text    = scenario.Text
		button  = func(label string) scenario.Locator { return scenario.HasText("button", label) }
		project = button("Project:")
		// The first block of prose rendered after the Summarize button.
		summary = scenario.XPath(`//button[contains(normalize-space(.), "Summarize")]/following::*` +
			`[not(self::script or self::style or self::textarea or self::button)]` +
			`[string-length(normalize-space(text())) > 40]`)
	)
	return scenario.Chapter{
		Name:  NameLinguistics,
		Title: "Linguistics",
		Steps: []scenario.Step{
			scenario.Navigate(p.ConsoleURL() + "/k8s/cluster/projects"),
			scenario.WaitIdle(),
			scenario.WaitVisible(css("table, [data-test-id]")),
			scenario.Screenshot("openshift-console"),

			scenario.Click(button("Helm")),
			scenario.Click(text("Releases")),
			scenario.WaitIdle(),

			scenario.Click(project),
			scenario.Click(text(p.Username + "-canopy")),
			scenario.WaitIdle(),
			scenario.WaitVisible(scenario.HasText("a", "Create Helm Release")),
			scenario.Screenshot("add-helm",
				scenario.Outline(project),
				scenario.Outline(scenario.HasText("a", "Create Helm Release")),
			),

			scenario.Click(text("Create Helm Release")),
			scenario.WaitIdle(),
			scenario.Click(text("Canopy Helm Charts")),
			scenario.WaitVisible(button("Canopy Ui")),
			scenario.Screenshot("canopy-helm",
				scenario.Border(css(`input[type="checkbox"][checked]`)).ClimbTo("div"),
				scenario.Border(css(`[class*="catalog-tile"], [class*="card"]`)).
					All().
					WithRadius("8px").
					Where(scenario.TextFilter{All: []string{"Canopy Ui", "Frontend"}}),
			),

			scenario.Click(button("Canopy Ui")),
			scenario.Click(button("Create")),
			scenario.WaitIdle(),
			scenario.Click(button("Canopy UI Helm Chart Values Schema")),
			scenario.WaitVisible(css(`input[id*="LLM_ENDPOINT"]`)),
			scenario.Fill(css(`input[id*="LLM_ENDPOINT"]`), p.LLMEndpoint()),
			scenario.Screenshot("helm-values",
				scenario.Border(css(`input[type="text"]`)).
					All().
					Where(scenario.TextFilter{
						Scope:  "div",
						Within: "span",
						Any:    []string{"SYSTEM_PROMPT", "MODEL_NAME", "LLM_ENDPOINT"},
					}),
				scenario.Outline(css("button")).Where(scenario.TextFilter{Exact: "Create"}),
			),

			scenario.Click(css(`button[data-test-id="submit-button"]`)),
			scenario.WaitIdle(),
			scenario.WaitVisible(button("Open URL")),
			scenario.Screenshot("canopy-ui-ocp"),

			scenario.OpenPopup(button("Open URL")),
			scenario.WaitIdle(),
			scenario.WaitVisible(css("textarea")),
			scenario.Fill(css("textarea"), SampleText),
			scenario.Click(button("Summarize")),
			scenario.WaitVisible(summary).Slowly(),
			scenario.WaitIdle(),
			scenario.Zoom(0.8),
			scenario.Screenshot("summarize-with-canopy"),
			scenario.ClosePopup(),
		},
	}
}
