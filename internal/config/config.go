// Package config contains all knobs and defaults used to configure the pipegraph CLI.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	DefaultMaxResults       = 0
	DefaultQueryTimeout     = 30 * time.Second
	DefaultQueryConcurrency = 4
	DefaultExprCacheSize    = 1000
)

// Config defines all the configuration settings of a pipegraph run.
type Config struct {
	Log   LogConfig
	Graph GraphConfig
	Query QueryConfig
	Expr  ExprConfig
	Trace TraceConfig
}

type LogConfig struct {
	// Format is the log format to use in the log output (e.g. 'text' or 'json')
	Format string

	// Level is the log level to use in the log output (e.g. 'none', 'debug', or 'info')
	Level string
}

// GraphConfig points at the graph document queries run against.
type GraphConfig struct {
	// File is a YAML or JSON graph document.
	File string
}

type QueryConfig struct {
	// MaxResults stops every query after that many results. 0 means no limit.
	MaxResults int

	// Timeout bounds the evaluation of a single query. 0 means no timeout.
	Timeout time.Duration

	// Concurrency is the number of query documents evaluated in parallel.
	Concurrency int

	// Output is the result format, 'text' or 'json'.
	Output string
}

// ExprConfig configures the compilation of CEL filter expressions.
type ExprConfig struct {
	// CacheSize is the number of compiled expressions kept in memory. 0 disables the cache.
	CacheSize int64
}

type TraceConfig struct {
	Enabled     bool
	OTLP        OTLPTraceConfig `mapstructure:"otlp"`
	SampleRatio float64
	ServiceName string
}

type OTLPTraceConfig struct {
	Endpoint string
}

// DefaultConfig returns the pipegraph default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Query: QueryConfig{
			MaxResults:  DefaultMaxResults,
			Timeout:     DefaultQueryTimeout,
			Concurrency: DefaultQueryConcurrency,
			Output:      "text",
		},
		Expr: ExprConfig{
			CacheSize: DefaultExprCacheSize,
		},
		Trace: TraceConfig{
			Enabled:     false,
			OTLP:        OTLPTraceConfig{Endpoint: "0.0.0.0:4317"},
			SampleRatio: 0.2,
			ServiceName: "pipegraph",
		},
	}
}

// Verify checks the configuration for invalid combinations of settings.
func (cfg *Config) Verify() error {
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("config 'log.format' must be one of ['text', 'json']")
	}

	if !slices.Contains([]string{"none", "debug", "info", "warn", "error"}, cfg.Log.Level) {
		return fmt.Errorf("config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error']")
	}

	if cfg.Graph.File == "" {
		return errors.New("config 'graph.file' must be set")
	}

	if cfg.Query.MaxResults < 0 {
		return fmt.Errorf("config 'query.maxResults' (%d) cannot be negative", cfg.Query.MaxResults)
	}

	if cfg.Query.Timeout < 0 {
		return fmt.Errorf("config 'query.timeout' (%s) cannot be negative", cfg.Query.Timeout)
	}

	if cfg.Query.Concurrency < 1 {
		return fmt.Errorf("config 'query.concurrency' (%d) must be at least 1", cfg.Query.Concurrency)
	}

	if cfg.Query.Output != "text" && cfg.Query.Output != "json" {
		return fmt.Errorf("config 'query.output' must be one of ['text', 'json']")
	}

	if cfg.Expr.CacheSize < 0 {
		return fmt.Errorf("config 'expr.cacheSize' (%d) cannot be negative", cfg.Expr.CacheSize)
	}

	if cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1 {
		return fmt.Errorf("config 'trace.sampleRatio' (%v) must be between 0 and 1", cfg.Trace.SampleRatio)
	}

	if cfg.Trace.Enabled && cfg.Trace.OTLP.Endpoint == "" {
		return errors.New("config 'trace.otlp.endpoint' must be set when tracing is enabled")
	}

	return nil
}
