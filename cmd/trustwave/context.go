package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/samber/do/v2"

	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/di"
	"github.com/trustwaveapp/trustwave-server/internal/logger"
)

type globalFlags struct {
	configFile string
	envFile    string
	dataPath   string
	logLevel   string
}

// args renders the flags in the form config.Parse understands.
func (f *globalFlags) args() []string {
	var out []string
	add := func(name, value string) {
		if strings.TrimSpace(value) != "" {
			out = append(out, "-"+name, value)
		}
	}
	add("config", f.configFile)
	add("env-file", f.envFile)
	add("data-path", f.dataPath)
	add("log-level", f.logLevel)
	return out
}

type commandContext struct {
	flags *globalFlags

	once     sync.Once
	injector *do.RootScope
	err      error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// container loads configuration on first use and builds the service graph.
// Logs go to stderr so tables on stdout stay clean.
func (c *commandContext) container() (*do.RootScope, error) {
	c.once.Do(func() {
		cfg, err := config.Parse(c.flags.args())
		if err != nil {
			c.err = err
			return
		}
		log := logger.New(logger.Config{
			Writer:      os.Stderr,
			Level:       logger.ParseLevel(cfg.Logger.Level),
			Environment: cfg.App.Environment,
		})
		c.injector = di.NewContainerWithConfig(cfg, log)
	})
	return c.injector, c.err
}

func (c *commandContext) close() error {
	if c.injector == nil {
		return nil
	}
	if err := c.injector.Shutdown(); err != nil {
		return err
	}
	return nil
}

func invoke[T any](c *commandContext) (T, error) {
	injector, err := c.container()
	if err != nil {
		var zero T
		return zero, err
	}
	return do.Invoke[T](injector)
}

var errJobRunning = errors.New("another run of this job is in progress")

// withRunLock holds an exclusive file lock named after job in the data
// directory while fn runs.
func (c *commandContext) withRunLock(job string, fn func() error) error {
	cfg, err := invoke[*config.Config](c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Store.DataPath, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Store.DataPath, job+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire %s lock: %w", job, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", job, errJobRunning)
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}
