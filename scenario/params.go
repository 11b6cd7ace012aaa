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
	"errors"
	"fmt"
	"path/filepath"
)

var (
	ErrMissingArgs = errors.New("missing required arguments")
	ErrTooManyArgs = errors.New("too many arguments")
)

const (
	DefaultDocsDir         = "docs"
	DefaultErrorScreenshot = "error-screenshot.png"
)

// Params are the invocation parameters of a run.
type Params struct {
	ClusterDomain string
	Username      string
	Password      string
	// Chapter selects a single chapter. Empty means all chapters.
	Chapter string
}

// ParseArgs reads <cluster-domain> <username> <password> [chapter].
func ParseArgs(args []string) (Params, error) {
	if len(args) > 4 {
		return Params{}, fmt.Errorf("%w: %q", ErrTooManyArgs, args[4:])
	}
	var p Params
	fields := []*string{&p.ClusterDomain, &p.Username, &p.Password, &p.Chapter}
	for i, a := range args {
		*fields[i] = a
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// Validate checks that the required parameters are present.
func (p Params) Validate() error {
	if p.ClusterDomain == "" || p.Username == "" || p.Password == "" {
		return ErrMissingArgs
	}
	return nil
}

// ConsoleURL is the OpenShift web console of the cluster.
func (p Params) ConsoleURL() string {
	return "https://console-openshift-console." + p.ClusterDomain
}

// LLMEndpoint is the model serving route the lab deploys on the cluster.
func (p Params) LLMEndpoint() string {
	return "https://llama32-ai501." + p.ClusterDomain
}

// ImagesDir is the directory holding a chapter's screenshots.
func ImagesDir(docsDir, chapter string) string {
	return filepath.Join(docsDir, chapter, "images")
}

// ShotPath is the file a screenshot step writes.
func ShotPath(docsDir, chapter, name string) string {
	return filepath.Join(ImagesDir(docsDir, chapter), name+".png")
}

// Usage is printed when the required arguments are missing.
const Usage = `
Usage: labshots [flags] <cluster-domain> <username> <password> [chapter]

Arguments:
  cluster-domain  The OpenShift cluster domain (e.g., apps.cluster-xyz.opentlc.com)
  username        The username for login (e.g., user1)
  password        The password for login
  chapter         Optional: specific chapter to renew (e.g., 2-linguistics)

Examples:
  labshots apps.cluster-xyz.opentlc.com user1 mypassword
  labshots apps.cluster-xyz.opentlc.com user1 mypassword 2-linguistics
`
