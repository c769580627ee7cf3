package browser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"mangascraper/internal/config"
)

// Strategy names one way of obtaining a browser.
type Strategy string

const (
	StrategySandboxedLaunch Strategy = "sandboxed-launch" // test runs
	StrategyDevRemote       Strategy = "dev-remote"       // development against a remote endpoint
	StrategyRemote          Strategy = "remote"           // hosted remote endpoint
	StrategySystemLaunch    Strategy = "system-launch"    // system chromium in a container
)

// Env is the slice of runtime configuration that decides how a browser is
// acquired.
type Env struct {
	Mode         config.Mode
	RemoteURL    string
	BuildVariant string
	ChromiumPath string
	ShowUI       bool
}

// EnvFromConfig extracts the browser environment from process configuration.
func EnvFromConfig(cfg *config.Config) Env {
	return Env{
		Mode:         cfg.Mode,
		RemoteURL:    cfg.Browser.RemoteURL,
		BuildVariant: cfg.Browser.BuildVariant,
		ChromiumPath: cfg.Browser.ChromiumPath,
		ShowUI:       cfg.Browser.ShowUI,
	}
}

// Rule pairs a predicate over Env with the strategy it selects.
type Rule struct {
	Strategy Strategy
	Match    func(Env) bool
}

// Rules is the acquisition policy, evaluated top to bottom. The last rule
// always matches.
var Rules = []Rule{
	{StrategySandboxedLaunch, func(e Env) bool { return e.Mode == config.ModeTest }},
	{StrategyDevRemote, func(e Env) bool { return e.Mode == config.ModeDevelopment && e.RemoteURL != "" }},
	{StrategyRemote, func(e Env) bool { return e.RemoteURL != "" && e.BuildVariant != config.BuildLocal }},
	{StrategySystemLaunch, func(Env) bool { return true }},
}

// Select returns the strategy of the first rule matching env.
func Select(env Env) Strategy {
	for _, r := range Rules {
		if r.Match(env) {
			return r.Strategy
		}
	}
	return StrategySystemLaunch
}

var sandboxFlags = []string{
	"no-sandbox",
	"disable-setuid-sandbox",
	"disable-dev-shm-usage",
}

var containerFlags = []string{
	"no-sandbox",
	"no-zygote",
	"disable-setuid-sandbox",
	"disable-dev-shm-usage",
	"disable-accelerated-2d-canvas",
	"disable-gpu",
	"disable-software-rasterizer",
}

// Manager acquires one browser per call according to Rules.
type Manager struct {
	env    Env
	logger *slog.Logger
}

// NewManager creates a Manager for env.
func NewManager(env Env, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{env: env, logger: logger}
}

// Strategy returns the strategy the manager will use.
func (m *Manager) Strategy() Strategy {
	return Select(m.env)
}

// Acquire obtains a browser. There is no retry: a launch or connect failure
// is returned as is. The caller owns the result and must Close it.
func (m *Manager) Acquire(ctx context.Context) (*Browser, error) {
	strategy := Select(m.env)
	logger := m.logger.With("strategy", string(strategy))
	logger.Debug("acquiring browser")

	var (
		b   *Browser
		err error
	)
	switch strategy {
	case StrategySandboxedLaunch:
		b, err = launch(ctx, newLauncher(!m.env.ShowUI, "", sandboxFlags), strategy)
	case StrategyDevRemote, StrategyRemote:
		b, err = connect(ctx, m.env.RemoteURL, strategy)
	case StrategySystemLaunch:
		b, err = launch(ctx, newLauncher(!m.env.ShowUI, m.env.ChromiumPath, containerFlags), strategy)
	default:
		err = fmt.Errorf("unknown browser strategy %q", strategy)
	}
	if err != nil {
		logger.Error("browser acquisition failed", "error", err)
		return nil, err
	}

	logger.Debug("browser acquired")
	return b, nil
}

func newLauncher(headless bool, bin string, extra []string) *launcher.Launcher {
	l := launcher.New().Headless(headless)
	if bin != "" {
		l = l.Bin(bin)
	}
	for _, f := range extra {
		l = l.Set(flags.Flag(f))
	}
	return l
}
