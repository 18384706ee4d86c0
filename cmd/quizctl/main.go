// Command quizctl takes a job post's quiz from the terminal and seeds
// quizzes from YAML files. The quiz runs as a session hosted by the API,
// which keeps the timer and grades against the answer key; the token
// (JOBIAI_TOKEN) identifies the candidate.
//
//	quizctl take -job <jobPostID> [-poll 5s]
//	quizctl seed -f quizzes.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jobiai/jobiai-assess/internal/config"
	"github.com/jobiai/jobiai-assess/internal/gateway"
	"github.com/jobiai/jobiai-assess/internal/logger"
	"github.com/jobiai/jobiai-assess/internal/quiz"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: quizctl take -job <jobPostID> [-poll 5s]")
	fmt.Fprintln(os.Stderr, "       quizctl seed -f <quizzes.yaml>")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	_ = godotenv.Load()
	cfg := config.ClientFromEnv()

	zl, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()

	client, err := gateway.NewHTTPClient(gateway.Config{
		BaseURL:      cfg.APIURL,
		Token:        cfg.Token,
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Timeout:      cfg.Timeout,
	})
	if err != nil {
		zl.Fatal("gateway client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "take":
		fs := flag.NewFlagSet("take", flag.ExitOnError)
		job := fs.String("job", "", "job post id")
		poll := fs.Duration("poll", 5*time.Second, "how often to check the server-side timer")
		_ = fs.Parse(os.Args[2:])
		if *job == "" {
			usage()
		}
		t := &taker{api: client, in: os.Stdin, out: os.Stdout, log: zl, poll: *poll}
		if err := t.run(ctx, *job); err != nil {
			os.Exit(1)
		}
	case "seed":
		fs := flag.NewFlagSet("seed", flag.ExitOnError)
		file := fs.String("f", "quizzes.yaml", "YAML file with a top-level quizzes list")
		_ = fs.Parse(os.Args[2:])
		if err := seed(ctx, client, *file); err != nil {
			zl.Fatal("seed", zap.Error(err))
		}
	default:
		usage()
	}
}

func seed(ctx context.Context, c *gateway.HTTPClient, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	qs, err := quiz.LoadSeed(f)
	if err != nil {
		return err
	}
	for _, q := range qs {
		out, err := c.CreateQuiz(ctx, q)
		if err != nil {
			return fmt.Errorf("create %q: %w", q.Title, err)
		}
		fmt.Printf("created %s  %q (job %s, %d questions)\n", out.ID, out.Title, out.JobPostID, len(out.Questions))
	}
	return nil
}
