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

// Package config holds the settings of a labshots run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Driver names a browser automation library.
type Driver string

const (
	DriverChromedp   Driver = "chromedp"
	DriverRod        Driver = "rod"
	DriverPlaywright Driver = "playwright"
)

// Config represents the settings of a run. Zero values in a file keep the
// defaults.
type Config struct {
	DocsDir         string `yaml:"docs_dir" validate:"required"`
	ErrorScreenshot string `yaml:"error_screenshot" validate:"required"`
	// DocsIgnore lists glob patterns of <chapter>/images/<file> paths the
	// docs check skips.
	DocsIgnore []string `yaml:"docs_ignore"`
	// HistoryDir stores run records. Empty disables history.
	HistoryDir string `yaml:"history_dir"`
	// MetricsFile receives Prometheus metrics in the textfile collector
	// format. Empty disables metrics.
	MetricsFile string  `yaml:"metrics_file"`
	Driver      Driver  `yaml:"driver" validate:"oneof=chromedp rod playwright"`
	Browser     Browser `yaml:"browser"`

	// Timeout bounds every step.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	// SlowTimeout bounds steps that wait on backend work.
	SlowTimeout time.Duration `yaml:"slow_timeout" validate:"gtefield=Timeout"`
}

// Browser configures the browser session.
type Browser struct {
	// ChromeURL connects to a running browser instead of starting one.
	ChromeURL         string        `yaml:"chrome_url"`
	ExecPath          string        `yaml:"exec_path"`
	Headless          bool          `yaml:"headless"`
	Width             int           `yaml:"width" validate:"gt=0"`
	Height            int           `yaml:"height" validate:"gt=0"`
	SlowMo            time.Duration `yaml:"slow_mo" validate:"gte=0"`
	IdleQuiet         time.Duration `yaml:"idle_quiet" validate:"gte=0"`
	DisableAnimations bool          `yaml:"disable_animations"`
}

// Default returns the settings used without a config file.
func Default() *Config {
	return &Config{
		DocsDir:         "docs",
		ErrorScreenshot: "error-screenshot.png",
		HistoryDir:      ".labshots",
		Driver:          DriverChromedp,
		Browser: Browser{
			Width:             1920,
			Height:            1080,
			SlowMo:            100 * time.Millisecond,
			IdleQuiet:         500 * time.Millisecond,
			DisableAnimations: true,
		},
		Timeout:     30 * time.Second,
		SlowTimeout: 90 * time.Second,
	}
}

// Load reads a YAML file, or a TOML file when path ends in .toml, over the
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ParseTOML decodes TOML over the defaults. The TOML document is re-encoded
// as YAML so both formats share keys and duration syntax.
func ParseTOML(data []byte) (*Config, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if len(doc) == 0 {
		return Default(), nil
	}
	y, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert config file: %w", err)
	}
	return Parse(y)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	name := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "oneof":
		return fmt.Sprintf("invalid %s: %v (must be one of %s)", name, fe.Value(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be positive", name)
	case "gte":
		return fmt.Sprintf("%s cannot be negative", name)
	case "gtefield":
		return fmt.Sprintf("%s (%v) cannot be shorter than %s", name, fe.Value(), fe.Param())
	}
	return fmt.Sprintf("%s fails %s", name, fe.Tag())
}
