package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/talentmatch"
	"github.com/poiesic/talentmatch/config"
	"github.com/poiesic/talentmatch/core"
	"github.com/poiesic/talentmatch/ingestion"
)

var candidates = []*core.Candidate{
	{Name: "Zhang Wei", Title: "Senior Java Engineer", Experience: "8年", Skills: "Java, Spring Boot, MySQL, Redis", LocationPreference: "Beijing", ExpectedSalary: "30-40K", Education: "本科"},
	{Name: "Li Na", Title: "Backend Engineer", Experience: "5年", Skills: "Go, Kubernetes, PostgreSQL", LocationPreference: "Shanghai", ExpectedSalary: "25-35K", Education: "硕士"},
	{Name: "Wang Fang", Title: "Data Engineer", Experience: "4 years", Skills: "Python, Spark, Airflow, Hive", LocationPreference: "Hangzhou", ExpectedSalary: "20-30K"},
	{Name: "Liu Yang", Title: "Frontend Engineer", Experience: "3年", Skills: "React, TypeScript, Node.js", LocationPreference: "remote", ExpectedSalary: "18-25K"},
	{Name: "Chen Jie", Title: "Machine Learning Engineer", Experience: "6年", Skills: "Python, PyTorch, NLP, LLM", LocationPreference: "Beijing", ExpectedSalary: "40-50K", Certificates: "AWS ML Specialty"},
	{Name: "Zhao Min", Title: "Java Developer", Experience: "2年", Skills: "Java, Spring, Vue", LocationPreference: "Shenzhen", ExpectedSalary: "12-18K"},
	{Name: "Sun Lei", Title: "DevOps Engineer", Experience: "7年", Skills: "Terraform, AWS, Docker, Prometheus", LocationPreference: "Shanghai", ExpectedSalary: "30-38K"},
	{Name: "Zhou Ting", Title: "Mobile Engineer", Experience: "5年", Skills: "Kotlin, Swift, Flutter", LocationPreference: "Guangzhou", ExpectedSalary: "22-30K"},
}

var projects = []*core.Project{
	{Title: "E-commerce order platform", Type: "fixed-term", TechRequirements: "Java, Spring Boot, MySQL", Description: "Rebuild order and inventory services", Budget: "30-40K/month", Duration: "6 months", WorkStyle: "onsite", Location: "Beijing"},
	{Title: "Recommendation pipeline", Type: "contract", TechRequirements: "Python, Spark", Description: "Batch feature pipeline for product recommendations", Budget: "25K/month", Duration: "3 months", WorkStyle: "remote", Location: "Hangzhou"},
	{Title: "Customer support assistant", Type: "contract", TechRequirements: "Python, LLM, NLP", Description: "Retrieval-augmented chat assistant for support agents", Budget: "45K/month", Duration: "4 months", WorkStyle: "hybrid", Location: "Beijing"},
	{Title: "Cloud cost dashboard", Type: "part-time", TechRequirements: "Go, Kubernetes, Prometheus", Description: "Track and alert on cluster spend", Budget: "20K/month", Duration: "2 months", WorkStyle: "remote", Location: "Shanghai"},
	{Title: "Cross-platform loyalty app", Type: "fixed-term", TechRequirements: "Flutter, Kotlin, Swift", Description: "Points and coupons app for a retail chain", Budget: "28K/month", Duration: "5 months", WorkStyle: "onsite", Location: "Guangzhou"},
}

var (
	seedFileName = flag.String("src", "", "JSON lines file of seed data; each line is {\"candidate\":{...}} or {\"project\":{...}}")
	configPath   = flag.String("config", "", "path to a YAML config file")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// seedLine is one line of a seed file.
type seedLine struct {
	Candidate *core.Candidate `json:"candidate,omitempty"`
	Project   *core.Project   `json:"project,omitempty"`
}

// linesFromFile returns an iterator over decoded lines in a file.
func linesFromFile(filename string) (iter.Seq2[seedLine, error], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(seedLine, error) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		n := 0
		for scanner.Scan() {
			n++
			if len(scanner.Bytes()) == 0 {
				continue
			}
			var line seedLine
			if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
				yield(seedLine{}, fmt.Errorf("line %d: %w", n, err))
				return
			}
			if !yield(line, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(seedLine{}, err)
		}
	}, nil
}

// linesFromSlices returns an iterator over the built-in sample records.
func linesFromSlices(cs []*core.Candidate, ps []*core.Project) iter.Seq2[seedLine, error] {
	return func(yield func(seedLine, error) bool) {
		for _, c := range cs {
			if !yield(seedLine{Candidate: c}, nil) {
				return
			}
		}
		for _, p := range ps {
			if !yield(seedLine{Project: p}, nil) {
				return
			}
		}
	}
}

// ingestBatched reads from a source iterator and ingests records in batches.
func ingestBatched(ctx context.Context, pipeline *ingestion.Pipeline, source iter.Seq2[seedLine, error], batchSize int) (int, error) {
	cs := make([]*core.Candidate, 0, batchSize)
	ps := make([]*core.Project, 0, batchSize)
	total := 0

	flush := func() error {
		if len(cs) > 0 {
			ids, err := pipeline.IngestCandidates(ctx, cs...)
			if err != nil {
				return err
			}
			total += len(ids)
			cs = cs[:0]
		}
		if len(ps) > 0 {
			ids, err := pipeline.IngestProjects(ctx, ps...)
			if err != nil {
				return err
			}
			total += len(ids)
			ps = ps[:0]
		}
		return nil
	}

	for line, err := range source {
		if err != nil {
			return total, err
		}
		if line.Candidate != nil {
			cs = append(cs, line.Candidate)
		}
		if line.Project != nil {
			ps = append(ps, line.Project)
		}
		if len(cs)+len(ps) >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}

	return total, flush()
}

func main() {
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	engine, err := talentmatch.NewEngine(ctx, cfg, talentmatch.WithEmbedderOnly())
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	ingester, err := engine.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer ingester.Release()

	var source iter.Seq2[seedLine, error]
	if *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlices(candidates, projects)
	}

	n, err := ingestBatched(ctx, ingester, source, 5)
	if err != nil {
		panic(err)
	}
	ingester.Wait()
	slog.Info("seeded records", "count", n)
}
