// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/talentmatch"
	"github.com/poiesic/talentmatch/config"
	"github.com/poiesic/talentmatch/core"
)

var (
	kind       = flag.String("kind", string(core.KindCandidate), "record kind to search (candidate, project)")
	limit      = flag.Int("limit", 5, "maximum number of hits")
	threshold  = flag.Float64("threshold", 0.5, "minimum similarity")
	configPath = flag.String("config", "", "path to a YAML config file")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

func main() {
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	engine, err := talentmatch.NewEngine(ctx, cfg)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	query := "Java Spring Boot"
	if flag.NArg() > 0 {
		query = strings.Join(flag.Args(), " ")
	}

	hits, err := engine.Search().Search(ctx, core.Kind(*kind), query, nil, *limit, *threshold)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits\n", len(hits))
	for i, hit := range hits {
		fmt.Printf("%d: '%s' (%s)[%0.3f]\n", i, hit.Name(), hit.ID(), hit.Similarity)
	}
}
