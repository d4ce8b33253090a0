package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/raysh454/pagecheck/internal/config"
	"github.com/raysh454/pagecheck/internal/scenario"
)

// AllScenarios is the positional argument that selects every registered scenario.
const AllScenarios = "all"

// CLIArgs are the command-line arguments for one pagecheck invocation.
type CLIArgs struct {
	// ConfigPath is an optional TOML file loaded over the defaults.
	ConfigPath string

	BaseURL     string
	Driver      string
	OutputDir   string
	Headless    bool
	NoSandbox   bool
	FixedDelays bool
	LogFormat   string
	LogLevel    string

	// List prints the registered scenarios instead of running any.
	List bool
	// PrintConfig prints the effective configuration as TOML and exits.
	PrintConfig bool

	// Scenarios are the positional scenario names, in run order.
	Scenarios []string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string

	set map[string]bool
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("pagecheck", flag.ContinueOnError)
	a := &CLIArgs{RawArgs: args}
	fs.StringVar(&a.ConfigPath, "config", "", "TOML config file loaded over the defaults")
	fs.StringVar(&a.BaseURL, "base-url", "", "Target server base URL (default http://localhost:3000)")
	fs.StringVar(&a.Driver, "driver", "", "Browser driver: chromedp|rod|playwright")
	fs.StringVar(&a.OutputDir, "out", "", "Directory screenshot paths are rooted at")
	fs.BoolVar(&a.Headless, "headless", true, "Run the browser without a window")
	fs.BoolVar(&a.NoSandbox, "no-sandbox", false, "Disable the Chromium sandbox (containers)")
	fs.BoolVar(&a.FixedDelays, "fixed-delays", false, "Sleep for the full settle duration instead of waiting for network idle")
	fs.StringVar(&a.LogFormat, "log-format", "", "Log format: text|json")
	fs.StringVar(&a.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	fs.BoolVar(&a.List, "list", false, "List the registered scenarios and exit")
	fs.BoolVar(&a.PrintConfig, "print-config", false, "Print the effective configuration and exit")

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	a.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { a.set[f.Name] = true })

	for _, name := range fs.Args() {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if name == AllScenarios {
			a.Scenarios = append(a.Scenarios, scenario.List()...)
			continue
		}
		a.Scenarios = append(a.Scenarios, name)
	}
	if len(a.Scenarios) == 0 && !a.PrintConfig {
		a.List = true
	}
	return a, nil
}

// IsSet reports whether the named flag was given on the command line.
func (a *CLIArgs) IsSet(name string) bool { return a.set[name] }

// Apply copies every flag given on the command line onto cfg. Flags left
// at their defaults do not override values from the config file.
func (a *CLIArgs) Apply(cfg *config.Config) {
	if a.IsSet("base-url") {
		cfg.BaseURL = a.BaseURL
	}
	if a.IsSet("driver") {
		cfg.Browser.Driver = a.Driver
	}
	if a.IsSet("out") {
		cfg.OutputDir = a.OutputDir
	}
	if a.IsSet("headless") {
		cfg.Browser.Headless = a.Headless
	}
	if a.IsSet("no-sandbox") {
		cfg.Browser.NoSandbox = a.NoSandbox
	}
	if a.IsSet("fixed-delays") {
		cfg.FixedDelays = a.FixedDelays
	}
	if a.IsSet("log-format") {
		cfg.Log.Format = a.LogFormat
	}
	if a.IsSet("log-level") {
		cfg.Log.Level = a.LogLevel
	}
}

// LoadConfig builds the effective configuration: defaults, then the config
// file if one was given, then command-line flags. The result is validated.
func (a *CLIArgs) LoadConfig() (*config.Config, error) {
	cfg := config.Default()
	if a.ConfigPath != "" {
		loaded, err := config.Load(a.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	a.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ResolveScenarios builds the named scenarios, failing on the first unknown name.
func (a *CLIArgs) ResolveScenarios() ([]*scenario.Scenario, error) {
	out := make([]*scenario.Scenario, 0, len(a.Scenarios))
	for _, name := range a.Scenarios {
		sc, err := scenario.New(name)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}
