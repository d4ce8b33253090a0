// Command demoserver serves the fixture application the built-in scenarios
// are written against.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/pagecheck/internal/demoserver"
	"github.com/raysh454/pagecheck/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// parseFlags builds the server config from args.
func parseFlags(args []string, stderr io.Writer) (demoserver.Config, error) {
	cfg := demoserver.DefaultConfig()
	fs := flag.NewFlagSet("demoserver", flag.ContinueOnError)
	fs.SetOutput(stderr)
	noAuth := fs.Bool("no-auth", false, "Serve dashboard pages without signing in")
	logFormat := fs.String("log-format", string(logging.FormatText), "Log format: text|json")
	fs.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	format, err := logging.ParseFormat(*logFormat)
	if err != nil {
		return cfg, fmt.Errorf("-log-format: %w", err)
	}
	cfg.RequireAuth = !*noAuth
	cfg.Logger = logging.NewStdoutLogger("demoserver").WithFormat(format)
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "demoserver: %v\n", err)
		}
		return 2
	}

	fmt.Fprintf(stdout, "Demo server starting on http://localhost%s\n", cfg.ListenAddr)
	if err := demoserver.NewDemoServer(cfg).Start(ctx); err != nil {
		fmt.Fprintf(stderr, "demoserver: %v\n", err)
		return 1
	}
	return 0
}
