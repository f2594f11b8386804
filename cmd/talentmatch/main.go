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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/talentmatch"
	"github.com/poiesic/talentmatch/batch"
	"github.com/poiesic/talentmatch/config"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/orchestrator"
	"github.com/poiesic/talentmatch/reembed"
	"github.com/poiesic/talentmatch/stream"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "talentmatch",
		Usage: "Rank candidates for projects and projects for candidates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return loadConfig(c)
		},
		Commands: []*cli.Command{
			{
				Name:   "import",
				Usage:  "Store candidates and projects from JSON files and embed them",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "candidates",
						Usage: "JSON file holding an array of candidates",
					},
					&cli.StringFlag{
						Name:  "projects",
						Usage: "JSON file holding an array of projects",
					},
				},
			},
			{
				Name:   "match",
				Usage:  "Rank the stored pool for one query",
				Action: matchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "Match type (project_to_resume, resume_to_project)",
						Value: string(core.MatchProjectToResume),
					},
					&cli.StringFlag{
						Name:     "query-id",
						Usage:    "ID of the stored project or candidate to match for",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "query",
						Usage: "Free-text query used for vector search",
					},
					&cli.StringFlag{
						Name:  "location",
						Usage: "Required location",
					},
					&cli.IntFlag{
						Name:  "min-experience",
						Usage: "Minimum years of experience",
					},
					&cli.StringFlag{
						Name:  "salary-range",
						Usage: "Salary range such as 15-25",
					},
					&cli.StringSliceFlag{
						Name:  "skill",
						Usage: "Required skill (repeatable)",
					},
				},
			},
			{
				Name:   "pairs",
				Usage:  "Score every candidate/project pair from JSON files in one session",
				Action: pairsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "candidates",
						Usage:    "JSON file holding an array of candidates",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "projects",
						Usage:    "JSON file holding an array of projects",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Match type (project_to_resume, resume_to_project)",
						Value: string(core.MatchProjectToResume),
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve matching sessions over HTTP with WebSocket progress streams",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate embeddings for all stored records",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "Only reembed one kind (candidate, project)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

func openEngine(c *cli.Context, opts ...talentmatch.EngineOption) (*talentmatch.Engine, error) {
	cfg, ok := c.App.Metadata[configKey].(*config.Config)
	if !ok {
		return nil, errors.New("configuration not loaded")
	}
	engine, err := talentmatch.NewEngine(c.Context, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func importCommand(c *cli.Context) error {
	if c.String("candidates") == "" && c.String("projects") == "" {
		return errors.New("at least one of --candidates or --projects is required")
	}

	engine, err := openEngine(c, talentmatch.WithEmbedderOnly())
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	if path := c.String("candidates"); path != "" {
		var candidates []*core.Candidate
		if err := readJSONFile(path, &candidates); err != nil {
			return err
		}
		ids, err := pipeline.IngestCandidates(c.Context, candidates...)
		if err != nil {
			return fmt.Errorf("failed to import candidates: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Imported %d candidates\n", len(ids))
	}

	if path := c.String("projects"); path != "" {
		var projects []*core.Project
		if err := readJSONFile(path, &projects); err != nil {
			return err
		}
		ids, err := pipeline.IngestProjects(c.Context, projects...)
		if err != nil {
			return fmt.Errorf("failed to import projects: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Imported %d projects\n", len(ids))
	}

	fmt.Fprintln(os.Stderr, "Waiting for embeddings...")
	pipeline.Wait()
	return nil
}

func matchCommand(c *cli.Context) error {
	req, err := matchRequestFromFlags(c)
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	run, err := pipeline.Run(c.Context, req)
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}
	pipeline.Wait()

	for _, line := range run.Log {
		fmt.Fprintln(os.Stderr, line)
	}
	return printJSON(c.App.Writer, matchResponse{
		QueryID:      req.QueryID,
		Route:        run.Route.String(),
		Strategy:     run.Strategy,
		Results:      run.Results,
		Degradations: run.Degradations,
	})
}

func matchRequestFromFlags(c *cli.Context) (core.MatchRequest, error) {
	req := core.MatchRequest{
		MatchType:     core.MatchType(c.String("type")),
		QueryID:       c.String("query-id"),
		FreeTextQuery: c.String("query"),
		Requirements: core.Requirements{
			Location:           c.String("location"),
			MinExperienceYears: c.Int("min-experience"),
			SalaryRange:        c.String("salary-range"),
			RequiredSkills:     c.StringSlice("skill"),
		},
	}
	if err := core.ValidateMatchRequest(&req); err != nil {
		return core.MatchRequest{}, err
	}
	return req, nil
}

func pairsCommand(c *cli.Context) error {
	var body runRequest
	if err := readJSONFile(c.String("candidates"), &body.Candidates); err != nil {
		return err
	}
	if err := readJSONFile(c.String("projects"), &body.Projects); err != nil {
		return err
	}
	body.MatchType = core.MatchType(c.String("type"))
	requests, err := body.build()
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	executor, err := engine.NewExecutor()
	if err != nil {
		return err
	}
	defer executor.Release()

	orch, err := engine.NewOrchestrator(pipeline, executor, orchestrator.WithHeartbeat(0))
	if err != nil {
		return err
	}

	sessionID := orchestrator.NewSessionID()
	bus := orch.Registry().Session(sessionID).Bus()
	stop := bus.Observe(progressPrinter(os.Stderr))
	defer stop()

	summary, err := orch.Run(c.Context, sessionID, requests)
	if err != nil {
		return fmt.Errorf("session %s failed: %w", sessionID, err)
	}
	pipeline.Wait()
	return printJSON(c.App.Writer, summary)
}

func serveCommand(c *cli.Context) error {
	cfg := c.App.Metadata[configKey].(*config.Config)
	addr := cfg.Server.Addr
	if a := c.String("addr"); a != "" {
		addr = a
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	batchMetrics := batch.NewMetrics()
	if err := batchMetrics.Register(reg); err != nil {
		return err
	}
	runMetrics := orchestrator.NewMetrics()
	if err := runMetrics.Register(reg); err != nil {
		return err
	}

	pipeline, err := engine.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	executor, err := engine.NewExecutor(batch.WithMetrics(batchMetrics))
	if err != nil {
		return err
	}
	defer executor.Release()

	orch, err := engine.NewOrchestrator(pipeline, executor, orchestrator.WithMetrics(runMetrics))
	if err != nil {
		return err
	}

	srv := newServer(ctx, orch, pipeline, reg, slog.Default())
	go srv.cleanupLoop(ctx, cfg.Server.CleanupInterval, cfg.Server.SessionMaxAge)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during shutdown", "err", err)
		}
	}

	srv.wait()
	pipeline.Wait()
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if kind := c.String("kind"); kind != "" {
		switch core.Kind(kind) {
		case core.KindCandidate, core.KindProject:
			reembedConfig.Kinds = []core.Kind{core.Kind(kind)}
		default:
			return fmt.Errorf("invalid kind %q: must be candidate or project", kind)
		}
	}

	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	engine, err := openEngine(c, talentmatch.WithEmbedderOnly())
	if err != nil {
		return err
	}
	defer engine.Close()

	reembedder, err := engine.NewReembedder(reembedConfig, os.Stderr)
	if err != nil {
		return err
	}

	cfg := engine.Config()
	fmt.Fprintf(os.Stderr, "Storage: %s (%s)\n", cfg.Storage.Path, cfg.Storage.Backend)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

// progressPrinter renders progress events as single lines.
func progressPrinter(w io.Writer) func(stream.Event) {
	return func(ev stream.Event) {
		switch p := ev.Payload.(type) {
		case stream.ProgressPayload:
			fmt.Fprintf(w, "[%s] %d/%d (%.0f%%) %s\n", p.Stage, p.Current, p.Total, p.Percentage, p.Message)
		case stream.ErrorPayload:
			fmt.Fprintf(w, "error: %s\n", p.Message)
		}
	}
}

func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	if w == nil {
		w = os.Stdout
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
