// Package config holds pagecheck's runtime configuration: built-in defaults,
// an optional TOML file, and command-line overrides on top.
package config

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/raysh454/pagecheck/internal/browser"
	"github.com/raysh454/pagecheck/internal/logging"
	"github.com/raysh454/pagecheck/internal/utils"
)

// Config holds all runtime configuration.
type Config struct {
	// BaseURL is the target server every scenario path is resolved against.
	BaseURL string `toml:"base_url"`

	// OutputDir is where screenshot paths are rooted.
	OutputDir string `toml:"output_dir"`

	// FixedDelays makes settle steps sleep for their full duration instead
	// of returning as soon as the network is idle.
	FixedDelays bool `toml:"fixed_delays"`

	Browser   BrowserConfig             `toml:"browser"`
	Timeouts  TimeoutConfig             `toml:"timeouts"`
	Log       LogConfig                 `toml:"log"`
	Scenarios map[string]ScenarioConfig `toml:"scenarios"`
}

type BrowserConfig struct {
	Driver    string `toml:"driver"`
	Headless  bool   `toml:"headless"`
	NoSandbox bool   `toml:"no_sandbox"`
	ExecPath  string `toml:"exec_path"`
	UserAgent string `toml:"user_agent"`
	Width     int    `toml:"window_width"`
	Height    int    `toml:"window_height"`
}

type TimeoutConfig struct {
	// Element bounds wait_visible, fill, press and click when the step sets none.
	Element time.Duration `toml:"element"`
	// Navigation bounds each navigate step.
	Navigation time.Duration `toml:"navigation"`
	// Ready bounds the plain HTTP readiness probe.
	Ready time.Duration `toml:"ready"`
	// Screenshot bounds each capture.
	Screenshot time.Duration `toml:"screenshot"`
	// IdleWindow is how long the network must be quiet to count as idle.
	IdleWindow time.Duration `toml:"idle_window"`
}

type LogConfig struct {
	Format string `toml:"format"` // text or json
	Level  string `toml:"level"`  // debug, info, warn, error
}

// ScenarioConfig overrides settings for one named scenario.
type ScenarioConfig struct {
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		BaseURL:   "http://localhost:3000",
		OutputDir: ".",
		Browser: BrowserConfig{
			Driver:   browser.DefaultDriver,
			Headless: true,
		},
		Timeouts: TimeoutConfig{
			Element:    30 * time.Second,
			Navigation: 30 * time.Second,
			Ready:      30 * time.Second,
			Screenshot: 30 * time.Second,
			IdleWindow: browser.DefaultIdleWindow,
		},
		Log: LogConfig{
			Format: string(logging.FormatText),
			Level:  "info",
		},
	}
}

// Load reads the TOML file at path over the defaults. Keys the file sets
// that Config does not know are reported as errors.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate normalizes BaseURL in place and checks the remaining fields.
func (c *Config) Validate() error {
	var errs []error

	base, err := utils.NormalizeBaseURL(c.BaseURL, utils.BaseURLOptions{DefaultScheme: "http"})
	if err != nil {
		errs = append(errs, fmt.Errorf("base_url: %w", err))
	} else {
		c.BaseURL = base
	}

	if c.Browser.Driver == "" {
		c.Browser.Driver = browser.DefaultDriver
	}
	c.Browser.Driver = strings.ToLower(strings.TrimSpace(c.Browser.Driver))
	if !slices.Contains(browser.ListDrivers(), c.Browser.Driver) {
		errs = append(errs, fmt.Errorf("browser.driver: %w %q (available: %s)",
			browser.ErrUnknownDriver, c.Browser.Driver, strings.Join(browser.ListDrivers(), ", ")))
	}
	if (c.Browser.Width > 0) != (c.Browser.Height > 0) || c.Browser.Width < 0 || c.Browser.Height < 0 {
		errs = append(errs, errors.New("browser.window_width and browser.window_height must be set together and positive"))
	}

	for name, d := range map[string]time.Duration{
		"timeouts.element":     c.Timeouts.Element,
		"timeouts.navigation":  c.Timeouts.Navigation,
		"timeouts.ready":       c.Timeouts.Ready,
		"timeouts.screenshot":  c.Timeouts.Screenshot,
		"timeouts.idle_window": c.Timeouts.IdleWindow,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}

	if f, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	} else {
		c.Log.Format = string(f)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	seen := make(map[string]string, len(c.Scenarios))
	for name, sc := range c.Scenarios {
		key := strings.ToLower(name)
		if prev, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("scenarios.%s and scenarios.%s name the same scenario", prev, name))
		}
		seen[key] = name
		if sc.BaseURL != "" {
			if _, err := utils.NormalizeBaseURL(sc.BaseURL, utils.BaseURLOptions{DefaultScheme: "http"}); err != nil {
				errs = append(errs, fmt.Errorf("scenarios.%s.base_url: %w", name, err))
			}
		}
		if sc.Timeout < 0 {
			errs = append(errs, fmt.Errorf("scenarios.%s.timeout must not be negative", name))
		}
	}

	return errors.Join(errs...)
}

// Logger builds the stdout logger described by the Log section.
func (c *Config) Logger(component string) *logging.StdoutLogger {
	return logging.NewStdoutLogger(component).
		WithFormat(logging.Format(c.Log.Format)).
		WithLevel(logging.ParseLevel(c.Log.Level))
}
