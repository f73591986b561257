// Package main is the mixpad CLI entry point.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mixpad/internal/cli"
	"github.com/hyperjump/mixpad/internal/clustering"
	"github.com/hyperjump/mixpad/internal/config"
	"github.com/hyperjump/mixpad/internal/models"
	"github.com/hyperjump/mixpad/internal/oracle"
	"github.com/hyperjump/mixpad/internal/scene"
	"github.com/hyperjump/mixpad/internal/server"
	"github.com/hyperjump/mixpad/internal/session"
	"github.com/hyperjump/mixpad/internal/storage"
	"github.com/hyperjump/mixpad/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/mixpad/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development). A missing file at the
// default path yields the built-in defaults.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "replay":
		runReplay()
	case "version", "--version", "-v":
		fmt.Printf("mixpad version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components holds the long-lived pieces shared by the server.
type components struct {
	Sessions *session.Manager
	Builder  *scene.Builder
	FitLog   storage.FitLog
}

func (c *components) Close() {
	if c.FitLog != nil {
		_ = c.FitLog.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	orc, err := oracle.FromConfig(&cfg.Oracle)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	opts := []session.Option{
		session.WithLogger(logger),
		session.WithPreviewCacheSize(cfg.Preview.CacheSizeOrDefault()),
		session.WithIdleTimeout(cfg.Session.IdleTimeoutDuration()),
	}
	c := &components{Builder: scene.NewBuilder(models.SquareViewport(cfg.Scene.ViewportMin, cfg.Scene.ViewportMax))}
	if cfg.Storage.EnabledOrDefault() {
		fitLog, err := storage.NewSQLiteFitLog(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("fit log: %w", err)
		}
		c.FitLog = fitLog
		opts = append(opts, session.WithFitLog(fitLog))
	}
	c.Sessions = session.NewManager(orc, opts...)
	return c, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (fit attempts, previews, session lifecycle)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("oracle", cfg.Oracle.Kind),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go comps.Sessions.Run(sweepCtx, cfg.Session.SweepIntervalDuration())

	srv := server.NewServer(comps.Sessions, comps.Builder, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	sweepCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// action is one line of a replay script.
type action struct {
	Kind  string // "add", "go" or "clear"
	Point models.Point
}

// parseScript reads one action per line: "add X Y", "go", or "clear".
// Blank lines and lines starting with '#' are ignored.
func parseScript(r io.Reader) ([]action, error) {
	var actions []action
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch strings.ToLower(fields[0]) {
		case "add":
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: add needs x and y", lineNo)
			}
			x, errX := strconv.ParseFloat(fields[1], 64)
			y, errY := strconv.ParseFloat(fields[2], 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("line %d: invalid coordinates %q", lineNo, utils.Truncate(line, 40))
			}
			actions = append(actions, action{Kind: "add", Point: models.Point{X: x, Y: y}})
		case "go":
			actions = append(actions, action{Kind: "go"})
		case "clear":
			actions = append(actions, action{Kind: "clear"})
		default:
			return nil, fmt.Errorf("line %d: unknown action %q", lineNo, fields[0])
		}
	}
	return actions, sc.Err()
}

// replay applies actions to a fresh coordinator and returns the final state and scene.
func replay(ctx context.Context, c *clustering.Coordinator, b *scene.Builder, actions []action) *cli.ReplayResult {
	res := &cli.ReplayResult{}
	for _, a := range actions {
		switch a.Kind {
		case "add":
			c.AddPoint(ctx, a.Point)
		case "go":
			if out := c.Recluster(ctx); out.Warning != "" {
				res.Warnings = append(res.Warnings, out.Warning)
			}
		case "clear":
			c.Reset()
		}
	}
	res.State = c.State().String()
	res.Size = c.Size()
	res.CoveredCount = c.CoveredCount()
	res.Labels = c.Snapshot().Labels()
	res.Scene = b.Build(ctx, scene.InputFrom(c), c.Previewer())
	return res
}

// newReplayCoordinator builds a coordinator configured like a server session.
func newReplayCoordinator(cfg *config.Config, orc clustering.Oracle, logger *zap.Logger) *clustering.Coordinator {
	copts := []clustering.Option{clustering.WithLogger(logger)}
	if size := cfg.Preview.CacheSizeOrDefault(); size > 0 {
		copts = append(copts, clustering.WithPreviewCache(clustering.NewPreviewCache(size)))
	}
	return clustering.NewCoordinator(orc, copts...)
}

func runReplay() {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "json", "output format: json or text")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: mixpad replay [--config path] [--output json|text] <script>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open script: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	actions, err := parseScript(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid script: %v\n", err)
		os.Exit(1)
	}

	orc, err := oracle.FromConfig(&cfg.Oracle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create oracle: %v\n", err)
		os.Exit(1)
	}
	coord := newReplayCoordinator(cfg, orc, logger)
	builder := scene.NewBuilder(models.SquareViewport(cfg.Scene.ViewportMin, cfg.Scene.ViewportMax))
	res := replay(context.Background(), coord, builder, actions)

	if err := cli.WriteReplayResult(os.Stdout, res, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mixpad - Incremental 2-D point clustering service

Usage:
  mixpad server [flags]           Start the HTTP server
  mixpad replay [flags] <script>  Replay an action script and print the final state and scene
  mixpad version                  Show version
  mixpad help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/mixpad/config.yaml)
  --debug            Enable debug logging (fit attempts, previews, session lifecycle)

Replay Flags:
  --config string    Config file path (oracle and viewport settings)
  --output string    Output format: json or text (default: json)

Replay Script:
  add X Y            Add a point
  go                 Re-cluster all points
  clear              Remove every point and the clustering
  # comment          Ignored`)
}
