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

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ttbt-io/labshots/scenario"
)

var (
	linguistics = scenario.Chapter{Name: "2-linguistics"}
	login       = scenario.Chapter{Name: "login"}
	loginShot   = scenario.Screenshot("openshift-login").Into("2-linguistics")
)

func TestObserveStep(t *testing.T) {
	r := New()
	shot := scenario.Screenshot("add-helm")
	r.ObserveStep(linguistics, shot, time.Second, nil)
	r.ObserveStep(linguistics, shot, time.Second, nil)
	r.ObserveStep(linguistics, scenario.Click(scenario.CSS("#x")), time.Second, errors.New("boom"))
	r.ObserveStep(login, loginShot, time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(r.screenshots.WithLabelValues("2-linguistics")); got != 2 {
		t.Errorf("screenshots{2-linguistics} = %v", got)
	}
	if n := testutil.CollectAndCount(r.screenshots); n != 1 {
		t.Errorf("screenshots has %d series, want 1", n)
	}
	if got := testutil.ToFloat64(r.stepFailures.WithLabelValues("2-linguistics", "click")); got != 1 {
		t.Errorf("step_failures{click} = %v", got)
	}
	if n := testutil.CollectAndCount(r.stepDuration); n != 3 {
		t.Errorf("step_duration has %d series, want 3", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	start := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	r.ObserveStep(login, loginShot, 2*time.Second, nil)
	r.ObserveRun(start, start.Add(90*time.Second), nil)

	path := filepath.Join(t.TempDir(), "textfile", "labshots.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	for _, want := range []string{
		`labshots_screenshots_total{chapter="2-linguistics"} 1`,
		`labshots_step_duration_seconds_count{action="screenshot",chapter="login"} 1`,
		`labshots_run_duration_seconds 90`,
		`labshots_last_run_success 1`,
		`# TYPE labshots_step_duration_seconds histogram`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics missing %q:\n%s", want, data)
		}
	}

	r.ObserveRun(start, start.Add(time.Second), errors.New("boom"))
	if got := testutil.ToFloat64(r.lastSuccess); got != 0 {
		t.Errorf("last_run_success = %v after failure", got)
	}
}
