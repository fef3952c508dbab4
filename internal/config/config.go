// Package config builds the immutable ServerConfig this server runs with,
// from CLI flags and built-in defaults, and validates it before any socket
// is opened.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// executablePath is overridden in tests so the document-root resolution
// below doesn't depend on where the test binary itself happens to live.
var executablePath = os.Executable

// ServerConfig is built once at startup and never mutated afterwards. It
// is threaded by value (or read-only pointer) from the dispatcher into
// every worker — there is no process-wide mutable configuration state.
type ServerConfig struct {
	Address string
	Port    int
	Root    string
	Workers int

	ReadTimeout    time.Duration
	MaxRequestSize int

	MetricsAddress string

	LogLevel string
	LogFile  string
}

// Defaults mirror the CLI flags below.
func Defaults() ServerConfig {
	return ServerConfig{
		Address:        "127.0.0.1",
		Port:           8080,
		Root:           "/httptest",
		Workers:        8,
		ReadTimeout:    30 * time.Second,
		MaxRequestSize: 2048,
		MetricsAddress: "",
		LogLevel:       "info",
		LogFile:        "",
	}
}

// Parse builds a ServerConfig from args (typically os.Args[1:]), layered
// over Defaults(), and validates the result.
func Parse(args []string) (ServerConfig, error) {
	cfg := Defaults()

	fs := pflag.NewFlagSet("staticd", pflag.ContinueOnError)
	fs.StringVarP(&cfg.Address, "address", "a", cfg.Address, "bind address")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "TCP port")
	fs.StringVarP(&cfg.Root, "folder", "r", cfg.Root, "document root, relative to the executable's directory")
	fs.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "worker pool size")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "per-connection read deadline")
	fs.IntVar(&cfg.MaxRequestSize, "max-request-bytes", cfg.MaxRequestSize, "receive buffer ceiling per connection")
	fs.StringVar(&cfg.MetricsAddress, "metrics-address", cfg.MetricsAddress, "address for the Prometheus metrics listener (empty disables it)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn, or error")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file path (empty means stderr)")

	if err := fs.Parse(args); err != nil {
		return ServerConfig{}, err
	}

	root, err := resolveRoot(cfg.Root)
	if err != nil {
		return ServerConfig{}, err
	}
	cfg.Root = root

	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// resolveRoot anchors root to the executable's directory rather than the
// current working directory, stripping any leading slash first so an
// absolute-looking flag value (including the default) is still taken as
// relative to that directory.
func resolveRoot(root string) (string, error) {
	exe, err := executablePath()
	if err != nil {
		return "", fmt.Errorf("resolving executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), strings.TrimLeft(root, "/")), nil
}

// Validate enforces this configuration's invariants: the document root
// must exist and be a directory, and every tunable must be within its
// valid range. It does not check that the root is absolute; Parse makes
// it so before calling Validate.
func (c ServerConfig) Validate() error {
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("document root %q: %w", c.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("document root %q is not a directory", c.Root)
	}
	if c.Workers < 1 {
		return fmt.Errorf("worker count must be >= 1, got %d", c.Workers)
	}
	if c.Port < 1 {
		return fmt.Errorf("port must be >= 1, got %d", c.Port)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %s", c.ReadTimeout)
	}
	if c.MaxRequestSize <= 0 {
		return fmt.Errorf("max request bytes must be positive, got %d", c.MaxRequestSize)
	}
	return nil
}

// ListenAddr formats the address/port pair for net.Listen.
func (c ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Address, c.Port)
}
