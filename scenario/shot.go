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
	"crypto/sha256"
	"encoding/hex"
)

// Shot records one screenshot written during a run.
type Shot struct {
	Chapter string `json:"chapter"`
	Step    string `json:"step"`
	Path    string `json:"path"`
	Size    int    `json:"size"`
	SHA256  string `json:"sha256"`
}

// NewShot describes png as written to path.
func NewShot(chapter, step, path string, png []byte) Shot {
	sum := sha256.Sum256(png)
	return Shot{
		Chapter: chapter,
		Step:    step,
		Path:    path,
		Size:    len(png),
		SHA256:  hex.EncodeToString(sum[:]),
	}
}
