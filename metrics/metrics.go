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

// Package metrics records run and step metrics and writes them in the
// Prometheus textfile collector format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ttbt-io/labshots/scenario"
)

const namespace = "labshots"

// Recorder collects the metrics of one run in its own registry.
type Recorder struct {
	reg *prometheus.Registry

	stepDuration *prometheus.HistogramVec
	stepFailures *prometheus.CounterVec
	screenshots  *prometheus.CounterVec
	runDuration  prometheus.Gauge
	lastRun      prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		stepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent in each scenario step.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"chapter", "action"}),
		stepFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Number of failed scenario steps.",
		}, []string{"chapter", "action"}),
		screenshots: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenshots_total",
			Help:      "Number of screenshots written.",
		}, []string{"chapter"}),
		runDuration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last run.",
		}),
		lastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run succeeded, 0 otherwise.",
		}),
	}
}

// ObserveStep records the outcome of one step. Its signature matches
// runner.Options.Observe. Screenshots are counted under the chapter
// directory they were written to.
func (r *Recorder) ObserveStep(ch scenario.Chapter, s scenario.Step, d time.Duration, err error) {
	action := string(s.Action)
	r.stepDuration.WithLabelValues(ch.Name, action).Observe(d.Seconds())
	if err != nil {
		r.stepFailures.WithLabelValues(ch.Name, action).Inc()
		return
	}
	if s.Action == scenario.ActScreenshot {
		r.screenshots.WithLabelValues(ch.Dir(s)).Inc()
	}
}

func (r *Recorder) ObserveRun(start, end time.Time, err error) {
	r.runDuration.Set(end.Sub(start).Seconds())
	r.lastRun.Set(float64(end.Unix()))
	if err == nil {
		r.lastSuccess.Set(1)
	} else {
		r.lastSuccess.Set(0)
	}
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile atomically replaces path with the current metrics.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
