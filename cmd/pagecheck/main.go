// Command pagecheck runs browser verification scenarios against a local web
// application and saves screenshots for manual review.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raysh454/pagecheck/internal/browser"
	"github.com/raysh454/pagecheck/internal/cli"
	"github.com/raysh454/pagecheck/internal/logging"
	"github.com/raysh454/pagecheck/internal/runner"
	"github.com/raysh454/pagecheck/internal/scenario"
	"github.com/raysh454/pagecheck/internal/webclient"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	args, err := cli.ParseArgs(argv)
	if errors.Is(err, flag.ErrHelp) {
		fmt.Println("usage: pagecheck [flags] <scenario>... | all")
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagecheck: %v\n", err)
		return 2
	}

	cfg, err := args.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagecheck: %v\n", err)
		return 1
	}

	if args.PrintConfig {
		if err := cfg.Encode(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "pagecheck: %v\n", err)
			return 1
		}
		return 0
	}
	if args.List {
		listScenarios()
		return 0
	}

	logger := cfg.Logger("pagecheck")

	scenarios, err := args.ResolveScenarios()
	if err != nil {
		logger.Error("resolving scenarios", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}

	driver, err := browser.NewDriver(cfg.Browser.Driver, logger)
	if err != nil {
		logger.Error("creating browser driver", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}

	probe, err := webclient.NewNetHTTPClient(webclient.Config{
		Timeout:   5 * time.Second,
		UserAgent: cfg.Browser.UserAgent,
	}, logger, nil)
	if err != nil {
		logger.Error("creating readiness probe", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}
	defer probe.Close()

	r, err := runner.New(driver, probe, runner.OptionsFromConfig(cfg), logger)
	if err != nil {
		logger.Error("creating runner", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := r.RunAll(ctx, scenarios)
	for _, res := range results {
		fmt.Println(res)
	}
	if err != nil {
		logger.Error("run aborted", logging.Field{Key: "error", Value: err.Error()})
		return 1
	}
	return 0
}

func listScenarios() {
	fmt.Println("Available scenarios:")
	for _, name := range scenario.List() {
		sc, err := scenario.New(name)
		if err != nil {
			fmt.Printf("  %-12s (invalid: %v)\n", name, err)
			continue
		}
		fmt.Printf("  %-12s %s\n", name, sc.Description)
	}
}
