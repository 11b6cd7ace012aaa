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

// planview prints the steps labshots would run, without starting a browser.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/ttbt-io/labshots/chapters"
	"github.com/ttbt-io/labshots/scenario"
)

var (
	domain   = flag.String("cluster-domain", "apps.example.com", "The cluster domain used in URLs")
	username = flag.String("username", "user1", "The username shown in the plan")
	chapter  = flag.String("chapter", "", "Print only this chapter")
	docsDir  = flag.String("docs-dir", "", "Also list the screenshot files under this docs root")
)

func main() {
	flag.Parse()

	p := scenario.Params{ClusterDomain: *domain, Username: *username, Password: "-"}
	reg, err := chapters.Registry(p)
	if err != nil {
		log.Fatalf("Invalid chapters: %v", err)
	}
	selected := reg.Chapters()
	if *chapter != "" {
		ch, ok := reg.Lookup(*chapter)
		if !ok {
			log.Fatalf("Unknown chapter: %s", *chapter)
		}
		selected = []scenario.Chapter{ch}
	}
	all := append([]scenario.Chapter{chapters.Login(p)}, selected...)
	if err := scenario.WritePlan(os.Stdout, all...); err != nil {
		log.Fatal(err)
	}
	if *docsDir == "" {
		return
	}
	log.Println("Screenshots:")
	for _, c := range all {
		for _, path := range c.Shots(*docsDir) {
			log.Printf("  %s", path)
		}
	}
}
