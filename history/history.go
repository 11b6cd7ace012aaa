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

// Package history records screenshot runs so that consecutive runs can be
// compared.
package history

import (
	"fmt"
	"iter"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/ttbt-io/labshots/scenario"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is the record of one invocation.
type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt,omitzero"`
	Cluster    string          `json:"cluster"`
	User       string          `json:"user"`
	Chapters   []string        `json:"chapters"`
	Status     Status          `json:"status"`
	Error      string          `json:"error,omitempty"`
	Shots      []scenario.Shot `json:"shots,omitempty"`
}

// NewRun starts a record for a run of chapters.
func NewRun(p scenario.Params, chapters []string, now time.Time) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: now,
		Cluster:   p.ClusterDomain,
		User:      p.Username,
		Chapters:  slices.Clone(chapters),
		Status:    StatusRunning,
	}
}

// Finish completes the record. A nil err marks the run successful.
func (r *Run) Finish(shots []scenario.Shot, err error, now time.Time) {
	r.FinishedAt = now
	r.Shots = slices.Clone(shots)
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = StatusSucceeded
}

type latestRun struct {
	ID string `json:"id"`
}

// RunStore persists run records.
type RunStore struct {
	DataDir string
	storage *storage.Storage
	mu      sync.Mutex
}

func NewRunStore(dataDir string, s *storage.Storage) *RunStore {
	return &RunStore{DataDir: dataDir, storage: s}
}

// latestFile names the last successful run. It sits next to the run records.
var latestFile = filepath.Join("runs", "latest.json")

func runFile(id string) string {
	return filepath.Join("runs", id+".json")
}

// SaveRun saves run. A successful run also becomes the latest run.
func (rs *RunStore) SaveRun(run *Run) error {
	if err := uuid.Validate(run.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if err := rs.storage.SaveDataFile(runFile(run.ID), run); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	if run.Status == StatusSucceeded {
		if err := rs.storage.SaveDataFile(latestFile, latestRun{ID: run.ID}); err != nil {
			return fmt.Errorf("storage.SaveDataFile: %w", err)
		}
	}
	return nil
}

// LoadRun loads a run by ID. It returns os.ErrNotExist for unknown runs.
func (rs *RunStore) LoadRun(id string) (*Run, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	var r Run
	if err := rs.storage.ReadDataFile(runFile(id), &r); err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	return &r, nil
}

// Latest returns the last successful run, or os.ErrNotExist.
func (rs *RunStore) Latest() (*Run, error) {
	var l latestRun
	if err := rs.storage.ReadDataFile(latestFile, &l); err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	return rs.LoadRun(l.ID)
}

// ListRuns returns an iterator over all stored runs, oldest first.
func (rs *RunStore) ListRuns() iter.Seq2[*Run, error] {
	return func(yield func(*Run, error) bool) {
		files, err := os.ReadDir(filepath.Join(rs.DataDir, "runs"))
		if err != nil {
			if !os.IsNotExist(err) {
				yield(nil, fmt.Errorf("could not read runs directory: %w", err))
			}
			return
		}
		var runs []*Run
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") || file.Name() == filepath.Base(latestFile) {
				continue
			}
			r, err := rs.LoadRun(strings.TrimSuffix(file.Name(), ".json"))
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			runs = append(runs, r)
		}
		slices.SortFunc(runs, func(a, b *Run) int {
			return a.StartedAt.Compare(b.StartedAt)
		})
		for _, r := range runs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Diff returns a unified diff of the screenshots of prev and cur, limited to
// the chapter directories cur wrote to. It is empty when nothing changed.
func Diff(prev, cur *Run) (string, error) {
	dirs := make(map[string]bool)
	for _, s := range cur.Shots {
		dirs[s.Chapter] = true
	}
	var before []scenario.Shot
	for _, s := range prev.Shots {
		if dirs[s.Chapter] {
			before = append(before, s)
		}
	}
	a, b := shotLines(before), shotLines(cur.Shots)
	if slices.Equal(a, b) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "run " + prev.ID,
		ToFile:   "run " + cur.ID,
		Context:  1,
	})
}

func shotLines(shots []scenario.Shot) []string {
	lines := make([]string, 0, len(shots))
	for _, s := range shots {
		lines = append(lines, fmt.Sprintf("%s/%s.png %s\n", s.Chapter, s.Step, s.SHA256))
	}
	slices.Sort(lines)
	return lines
}

// OpenStorage opens the storage under dir. A non-empty passphrase unlocks,
// or creates, the master key in dir/master.key and turns on encryption.
func OpenStorage(dir, passphrase string) (*storage.Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	keyFile := filepath.Join(dir, "master.key")

	var masterKey crypto.MasterKey
	if passphrase != "" {
		var err error
		masterKey, err = crypto.ReadMasterKey([]byte(passphrase), keyFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read master key: %w", err)
			}
			log.Println("Initializing new master encryption key...")
			if masterKey, err = crypto.CreateMasterKey(); err != nil {
				return nil, fmt.Errorf("failed to create master key: %w", err)
			}
			if err := masterKey.Save([]byte(passphrase), keyFile); err != nil {
				return nil, fmt.Errorf("failed to save master key: %w", err)
			}
		}
	} else if _, err := os.Stat(keyFile); err == nil {
		return nil, fmt.Errorf("%s exists but no passphrase is set; refusing to read encrypted history", keyFile)
	}

	s := storage.New(dir, masterKey)
	s.EnableCompression(true)
	return s, nil
}
