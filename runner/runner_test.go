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
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ttbt-io/labshots/chapters"
	"github.com/ttbt-io/labshots/scenario"
)

type logBuffer struct {
	mu    sync.Mutex
	lines []string
}

func (l *logBuffer) Logf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *logBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

var testParams = scenario.Params{ClusterDomain: "apps.example.com", Username: "user1", Password: "pw"}

func testOptions(t *testing.T, logs *logBuffer) Options {
	dir := t.TempDir()
	return Options{
		DocsDir:         filepath.Join(dir, "docs"),
		ErrorScreenshot: filepath.Join(dir, "error-screenshot.png"),
		Timeout:         time.Second,
		SlowTimeout:     time.Hour,
		Logf:            logs.Logf,
	}
}

func listPNGs(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".png") {
			rel, _ := filepath.Rel(root, path)
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir failed: %v", err)
	}
	slices.Sort(files)
	return files
}

func twoChapters(t *testing.T) scenario.Registry {
	t.Helper()
	reg, err := scenario.NewRegistry(
		scenario.Chapter{Name: "a", Steps: []scenario.Step{
			scenario.Navigate("https://a.example.com"),
			scenario.Screenshot("a1"),
		}},
		scenario.Chapter{Name: "b", Steps: []scenario.Step{
			scenario.Navigate("https://b.example.com"),
			scenario.Screenshot("b1"),
			scenario.Screenshot("b2"),
		}},
	)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return reg
}

func TestRunAllChapters(t *testing.T) {
	var logs logBuffer
	opts := testOptions(t, &logs)
	d := newFakeDriver()
	reg, err := chapters.Registry(testParams)
	if err != nil {
		t.Fatalf("Registry failed: %v", err)
	}
	login := chapters.Login(testParams)
	r := New(d, login, reg, opts)

	if err := r.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run failed: %v\n%s", err, logs.String())
	}

	var want []string
	for _, c := range append([]scenario.Chapter{login}, reg.Chapters()...) {
		for _, p := range c.Shots(opts.DocsDir) {
			rel, _ := filepath.Rel(opts.DocsDir, p)
			want = append(want, rel)
		}
	}
	slices.Sort(want)
	if got := listPNGs(t, opts.DocsDir); !slices.Equal(got, want) {
		t.Errorf("Screenshots = %v, want %v", got, want)
	}
	if len(r.Shots()) != len(want) {
		t.Errorf("Shots() has %d entries, want %d", len(r.Shots()), len(want))
	}
	if _, err := os.Stat(opts.ErrorScreenshot); !os.IsNotExist(err) {
		t.Errorf("Unexpected error screenshot: %v", err)
	}
	if d.closed != 1 {
		t.Errorf("Driver closed %d times", d.closed)
	}
	if r.State() != StateTerminated {
		t.Errorf("State() = %s", r.State())
	}
	if !strings.Contains(logs.String(), "✓ openshift-login.png") {
		t.Errorf("Missing progress line:\n%s", logs.String())
	}
}

func TestRunSelectedChapterOnly(t *testing.T) {
	var logs logBuffer
	opts := testOptions(t, &logs)
	d := newFakeDriver()
	r := New(d, scenario.Chapter{Name: "login"}, twoChapters(t), opts)

	if err := r.Run(context.Background(), "b"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, op := range d.Ops() {
		if strings.Contains(op, "a.example.com") {
			t.Errorf("Chapter a was executed: %s", op)
		}
	}
	want := []string{filepath.Join("b", "images", "b1.png"), filepath.Join("b", "images", "b2.png")}
	if got := listPNGs(t, opts.DocsDir); !slices.Equal(got, want) {
		t.Errorf("Screenshots = %v, want %v", got, want)
	}
}

func TestRunUnknownChapter(t *testing.T) {
	var logs logBuffer
	opts := testOptions(t, &logs)
	d := newFakeDriver()
	r := New(d, scenario.Chapter{Name: "login"}, twoChapters(t), opts)

	err := r.Run(context.Background(), "9-nope")
	if !errors.Is(err, ErrUnknownChapter) {
		t.Fatalf("Run() = %v, want ErrUnknownChapter", err)
	}
	if d.newPages != 0 || len(d.Ops()) != 0 {
		t.Errorf("Browser was used: pages=%d ops=%v", d.newPages, d.Ops())
	}
	if d.closed != 1 {
		t.Errorf("Driver closed %d times", d.closed)
	}
	if !strings.Contains(logs.String(), "Available chapters: a, b") {
		t.Errorf("Chapter list missing:\n%s", logs.String())
	}
	if _, err := os.Stat(opts.ErrorScreenshot); !os.IsNotExist(err) {
		t.Error("Unknown chapter must not capture a diagnostic screenshot")
	}
}

func TestFailureAtEveryStep(t *testing.T) {
	reg, err := chapters.Registry(testParams)
	if err != nil {
		t.Fatalf("Registry failed: %v", err)
	}
	login := chapters.Login(testParams)

	var logs logBuffer
	baseline := newFakeDriver()
	if err := New(baseline, login, reg, testOptions(t, &logs)).Run(context.Background(), ""); err != nil {
		t.Fatalf("Baseline run failed: %v", err)
	}
	total := len(baseline.Ops())

	for i := 1; i <= total; i++ {
		t.Run(fmt.Sprintf("op%d", i), func(t *testing.T) {
			var logs logBuffer
			opts := testOptions(t, &logs)
			d := newFakeDriver()
			d.failAt = i
			r := New(d, login, reg, opts)

			err := r.Run(context.Background(), "")
			if !errors.Is(err, errInjected) {
				t.Fatalf("Run() = %v, want injected failure", err)
			}
			var se *StepError
			if !errors.As(err, &se) {
				t.Errorf("Run() = %T, want *StepError", err)
			}
			root := filepath.Dir(opts.ErrorScreenshot)
			var extra []string
			for _, f := range listPNGs(t, root) {
				if !strings.HasPrefix(f, "docs"+string(filepath.Separator)) {
					extra = append(extra, f)
				}
			}
			if !slices.Equal(extra, []string{"error-screenshot.png"}) {
				t.Errorf("Diagnostic files = %v", extra)
			}
			if got := len(listPNGs(t, opts.DocsDir)); got != len(r.Shots()) {
				t.Errorf("%d files on disk, %d recorded shots", got, len(r.Shots()))
			}
			if d.closed != 1 {
				t.Errorf("Driver closed %d times", d.closed)
			}
			if r.State() != StateTerminated {
				t.Errorf("State() = %s", r.State())
			}
		})
	}
}

func TestDiagnosticUsesPopup(t *testing.T) {
	reg, err := scenario.NewRegistry(scenario.Chapter{Name: "p", Steps: []scenario.Step{
		scenario.OpenPopup(scenario.CSS("#open")),
		scenario.Click(scenario.CSS("#broken")),
		scenario.ClosePopup(),
	}})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	var logs logBuffer
	opts := testOptions(t, &logs)
	d := newFakeDriver()
	d.failAt = 2
	if err := New(d, scenario.Chapter{Name: "login"}, reg, opts).Run(context.Background(), ""); err == nil {
		t.Fatal("Run succeeded")
	}
	png, err := os.ReadFile(opts.ErrorScreenshot)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(png) != "png-2" {
		t.Errorf("Diagnostic captured %q, want the popup", png)
	}
	if !strings.Contains(logs.String(), `"Helm"`) {
		t.Errorf("Page summary missing:\n%s", logs.String())
	}
}

func TestClickIfPresent(t *testing.T) {
	skip := scenario.HasText("button", "Skip tour")
	login := scenario.Chapter{Name: "login", Steps: []scenario.Step{scenario.ClickIfPresent(skip)}}
	reg := twoChapters(t)

	for _, present := range []bool{true, false} {
		var logs logBuffer
		d := newFakeDriver()
		d.missing[skip.String()] = !present
		r := New(d, login, reg, testOptions(t, &logs))
		if err := r.Run(context.Background(), "a"); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		clicked := slices.Contains(d.Ops(), "p1 click "+skip.String())
		if clicked != present {
			t.Errorf("present=%v: clicked=%v", present, clicked)
		}
	}
}

func TestSlowStepTimeout(t *testing.T) {
	login := scenario.Chapter{Name: "login", Steps: []scenario.Step{
		scenario.Navigate("https://x"),
		scenario.WaitIdle().Slowly(),
	}}
	var logs logBuffer
	d := newFakeDriver()
	if err := New(d, login, twoChapters(t), testOptions(t, &logs)).Run(context.Background(), "a"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := d.deadline["p1 navigate https://x"]; got > time.Second {
		t.Errorf("Navigate deadline %v exceeds step timeout", got)
	}
	if got := d.deadline["p1 wait-idle"]; got < time.Minute {
		t.Errorf("Slow step deadline %v, want slow timeout", got)
	}
}

func TestPopupSteps(t *testing.T) {
	reg, err := scenario.NewRegistry(scenario.Chapter{Name: "p", Steps: []scenario.Step{
		scenario.OpenPopup(scenario.CSS("#open")),
		scenario.Zoom(0.8),
		scenario.Screenshot("in-popup"),
		scenario.ClosePopup(),
		scenario.Screenshot("back"),
	}})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	var logs logBuffer
	d := newFakeDriver()
	r := New(d, scenario.Chapter{Name: "login"}, reg, testOptions(t, &logs))
	if err := r.Run(context.Background(), ""); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{
		"p1 open-popup css=#open",
		"p2 zoom 0.8",
		"p2 screenshot",
		"p2 close",
		"p1 screenshot",
	}
	if got := d.Ops(); !slices.Equal(got, want) {
		t.Errorf("Ops() = %v, want %v", got, want)
	}
}

func TestSummarizePage(t *testing.T) {
	html := `<html><head><title> Projects · Red Hat OpenShift </title><script>var x = "<button>no</button>";</script></head>
<body>
<button> Helm </button><button>Helm</button><button aria-label="Close"></button>
<button hidden>Secret</button>
<a href="/k8s/ns/user1-canopy/helmreleases">Releases</a>
</body></html>`
	got, err := SummarizePage(html)
	if err != nil {
		t.Fatalf("SummarizePage failed: %v", err)
	}
	want := `title: Projects · Red Hat OpenShift
buttons (2): "Helm" "Close"
links (1): "Releases"
`
	if got != want {
		t.Errorf("SummarizePage() =\n%s\nwant\n%s", got, want)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateNotStarted: "not-started",
		StateLoggingIn:  "logging-in",
		StateRunning:    "running",
		StateClosing:    "closing",
		StateTerminated: "terminated",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %s, want %s", s, s.String(), want)
		}
	}
}

func TestObserveSteps(t *testing.T) {
	var logs logBuffer
	opts := testOptions(t, &logs)
	type observed struct {
		chapter string
		action  scenario.Action
		failed  bool
	}
	var got []observed
	opts.Observe = func(ch scenario.Chapter, s scenario.Step, d time.Duration, err error) {
		if d < 0 {
			t.Errorf("negative duration for %s", s.Describe())
		}
		got = append(got, observed{ch.Name, s.Action, err != nil})
	}
	d := newFakeDriver()
	d.failAt = 2
	reg, err := chapters.Registry(testParams)
	if err != nil {
		t.Fatalf("Registry failed: %v", err)
	}
	login := chapters.Login(testParams)
	if err := New(d, login, reg, opts).Run(context.Background(), ""); err == nil {
		t.Fatal("Run succeeded")
	}
	want := []observed{
		{chapters.NameLogin, scenario.ActNavigate, false},
		{chapters.NameLogin, scenario.ActWaitIdle, true},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Observed %v, want %v", got, want)
	}
}
