// Command bench measures a cold lint run against one served from the parse cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/postlint"
)

func main() {
	count := flag.Int("count", 1000, "Number of posts to generate")
	workers := flag.Int("concurrency", 0, "Parse workers (0 = one per CPU)")
	keep := flag.Bool("keep", false, "Keep the generated site after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "postlint_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	fmt.Printf("Generating %d posts in %s...\n", *count, benchDir)
	startGen := time.Now()
	postsDir := filepath.Join(benchDir, "_posts")
	if err := os.MkdirAll(postsDir, 0755); err != nil {
		panic(err)
	}
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < *count; i++ {
		date := day.AddDate(0, 0, i).Format("2006-01-02")
		content := fmt.Sprintf("---\nlayout: post\ntitle: Post %d\ndate: %s\nauthor: Bench\ntags: [benchmark, test]\nexcerpt: Post number %d.\n---\n# Post %d\nSee [the docs](https://example.com/%d) and ![a chart](/img/%d.png).\n",
			i, date, i, i, i, i)
		filename := filepath.Join(postsDir, fmt.Sprintf("%s-post-%d.md", date, i))
		if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
			panic(err)
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.TODO()

	// Run 1: cold, populates .postlint/index.json.
	fmt.Println("Running Lint (Run 1 - Cold)...")
	cold, coldPosts := lint(ctx, benchDir, logger, *workers)
	fmt.Printf("Run 1 Result: %v (Posts: %d)\n", cold, coldPosts)

	// Run 2: a fresh service, as a second CLI invocation would be.
	fmt.Println("Running Lint (Run 2 - Warm)...")
	warm, warmPosts := lint(ctx, benchDir, logger, *workers)
	fmt.Printf("Run 2 Result: %v (Posts: %d)\n", warm, warmPosts)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d posts):\n", *count)
	fmt.Printf("  Cold: %v\n", cold)
	fmt.Printf("  Warm: %v\n", warm)
	fmt.Printf("--------------------------------------------------\n")
}

func lint(ctx context.Context, dir string, logger *slog.Logger, workers int) (time.Duration, int) {
	start := time.Now()
	report, err := postlint.Lint(ctx, dir,
		postlint.WithLogger(logger),
		postlint.WithConcurrency(workers),
	)
	if err != nil {
		panic(err)
	}
	elapsed := time.Since(start)
	if n := len(report.Findings); n > 0 {
		fmt.Printf("  unexpected findings: %d (first: %s)\n", n, report.Findings[0])
	}
	return elapsed, report.Posts
}
