package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/config"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/internal/metrics"
	"github.com/aretw0/espalier/pkg/domain"
)

// defaultConfigFile is picked up from the working directory when no
// --config flag is given.
const defaultConfigFile = "espalier.yaml"

// BuildOptions contains all the configuration for the Build command.
type BuildOptions struct {
	Dir          string
	ConfigPath   string
	Output       string
	Pretty       bool
	Endpoint     string
	Token        string
	Attempts     int
	Concurrency  int
	CacheBackend string
	RedisAddr    string
	MetricsAddr  string
	LogLevel     string
	Debug        bool
	Quiet        bool
}

// Build handles the 'build' command logic: resolve the effective config,
// assemble the pipeline, run it over the transcript directory and write
// the resulting tree artifact.
func Build(opts BuildOptions) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	level, err := logging.Parse(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("error in config: %w", err)
	}
	logger := createLogger(level, opts.Debug)

	store, cleanup, err := createStore(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	pipelineOpts := []espalier.Option{
		espalier.WithLogger(logger),
		espalier.WithStore(store),
		espalier.WithEndpoint(cfg.Classifier.Endpoint),
		espalier.WithHTTPTimeout(cfg.Classifier.Timeout()),
		espalier.WithAttempts(cfg.Resolver.Attempts),
		espalier.WithConcurrency(cfg.Resolver.Concurrency),
	}
	if cfg.Classifier.Token != "" {
		pipelineOpts = append(pipelineOpts, espalier.WithToken(cfg.Classifier.Token))
	}

	var hooks []domain.LifecycleHooks
	if opts.Debug {
		hooks = append(hooks, createDebugHooks(logger))
	}
	if opts.MetricsAddr != "" {
		collector := metrics.NewCollector()
		hooks = append(hooks, collector.Hooks())
		go serveMetrics(opts.MetricsAddr, collector, logger)
	}
	if len(hooks) > 0 {
		pipelineOpts = append(pipelineOpts, espalier.WithLifecycleHooks(domain.ChainHooks(hooks...)))
	}

	pipeline, err := espalier.New(pipelineOpts...)
	if err != nil {
		return fmt.Errorf("error initializing pipeline: %w", err)
	}

	// Setup signal handling
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	tree, report, err := pipeline.BuildDir(sigCtx, opts.Dir)
	if err != nil {
		if isInterrupted(err) && !opts.Quiet {
			fmt.Printf("\n")
			printSystemMessage("Build interrupted.")
		}
		return handleExecutionError(err)
	}

	if err := writeArtifact(tree, opts.Output, opts.Pretty); err != nil {
		return err
	}

	if !opts.Quiet {
		printSummary(report, opts.Output)
	}

	return nil
}

// resolveConfig layers the effective configuration: defaults, then the
// config file, then explicit flags on top.
func resolveConfig(opts BuildOptions) (config.Config, error) {
	cfg := config.Default()

	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	} else if _, err := os.Stat(defaultConfigFile); err == nil {
		// Smart convention: pick up espalier.yaml from the working
		// directory without requiring the flag.
		loaded, err := config.Load(defaultConfigFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if opts.Endpoint != "" {
		cfg.Classifier.Endpoint = opts.Endpoint
	}
	if opts.Token != "" {
		cfg.Classifier.Token = opts.Token
	}
	if opts.Attempts > 0 {
		cfg.Resolver.Attempts = opts.Attempts
	}
	if opts.Concurrency > 0 {
		cfg.Resolver.Concurrency = opts.Concurrency
	}
	if opts.CacheBackend != "" {
		cfg.Cache.Backend = opts.CacheBackend
	}
	if opts.RedisAddr != "" {
		cfg.Cache.Redis.Addr = opts.RedisAddr
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.Classifier.Endpoint == "" {
		return cfg, fmt.Errorf("a classifier endpoint is required: set --endpoint or classifier.endpoint in %s", defaultConfigFile)
	}

	return cfg, nil
}

// writeArtifact encodes the tree as JSON to stdout or to the output path.
func writeArtifact(tree *domain.Node, output string, pretty bool) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(tree, "", "  ")
	} else {
		data, err = json.Marshal(tree)
	}
	if err != nil {
		return fmt.Errorf("failed to encode tree: %w", err)
	}
	data = append(data, '\n')

	if output == "" || output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

func printSummary(report *espalier.Report, output string) {
	printSystemMessage("Merged %d/%d transcripts (%d phrases resolved) in %s.",
		report.Merged, report.Transcripts, report.ResolvedPhrases, report.Duration.Round(time.Millisecond))
	for _, s := range report.Skipped {
		printSystemMessage("Skipped '%s': %s", s.Transcript, s.Reason)
	}
	if output != "" && output != "-" {
		printSystemMessage("Tree written to %s.", output)
	}
}

// serveMetrics exposes the build collector on a side listener. The process
// exits when the build finishes, so the listener needs no shutdown path.
func serveMetrics(addr string, collector *metrics.Collector, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	logger.Info("metrics listener started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics listener stopped", "error", err)
	}
}
