// Package query contains the command that evaluates traversal queries against a graph document.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openfga/pipegraph/internal/build"
	"github.com/openfga/pipegraph/internal/config"
	"github.com/openfga/pipegraph/internal/telemetry"
	"github.com/openfga/pipegraph/pkg/expr"
	"github.com/openfga/pipegraph/pkg/graph"
	"github.com/openfga/pipegraph/pkg/graph/memory"
	"github.com/openfga/pipegraph/pkg/logger"
	"github.com/openfga/pipegraph/pkg/query"
	"github.com/openfga/pipegraph/pkg/traversal"
)

var tracer = otel.Tracer("pipegraph/cmd/query")

const evalFlag = "eval"

// NewQueryCommand returns the command that runs query documents against a graph.
func NewQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [file...]",
		Short: "Run traversal queries against a graph",
		Long: `Run traversal queries against a graph document.

Each argument is a query document; --eval takes one inline. Documents are YAML or JSON lists of steps:

  - vertex: thor
  - out: parent
  - take: 2`,
		RunE: run,
	}

	defaultConfig := config.DefaultConfig()
	flags := cmd.Flags()

	flags.StringP(evalFlag, "e", "", "an inline query document")

	flags.String("graph", defaultConfig.Graph.File, "the YAML or JSON graph document to query")

	flags.Int("max-results", defaultConfig.Query.MaxResults, "the maximum number of results per query, 0 for no limit")

	flags.Duration("timeout", defaultConfig.Query.Timeout, "the maximum duration of a single query, 0 for no timeout")

	flags.Int("concurrency", defaultConfig.Query.Concurrency, "the number of queries evaluated in parallel")

	flags.StringP("output", "o", defaultConfig.Query.Output, "the output format. Can be 'text' or 'json'")

	flags.Int64("expr-cache-size", defaultConfig.Expr.CacheSize, "the number of compiled filter expressions kept in memory")

	flags.String("log-format", defaultConfig.Log.Format, "the log format to output logs in. For production we recommend 'json' format")

	flags.String("log-level", defaultConfig.Log.Level, "the log level to use. Can be 'none', 'debug', 'info', 'warn' or 'error'")

	flags.Bool("trace-enabled", defaultConfig.Trace.Enabled, "enable tracing")

	flags.String("trace-otlp-endpoint", defaultConfig.Trace.OTLP.Endpoint, "the endpoint of the trace collector")

	flags.Float64("trace-sample-ratio", defaultConfig.Trace.SampleRatio, "the fraction of traces to sample. 1 means all, 0 means none")

	flags.String("trace-service-name", defaultConfig.Trace.ServiceName, "the service name included in sampled traces")

	cmd.PreRun = bindRunFlagsFunc(flags)

	return cmd
}

// ReadConfig returns the pipegraph configuration, merging CLI flags, environment
// variables and the config file over the defaults.
func ReadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	viper.SetTypeByDefaultValue(true)
	err := viper.ReadInConfig()
	if err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := ReadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Verify(); err != nil {
		return err
	}

	log, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	eval, err := cmd.Flags().GetString(evalFlag)
	if err != nil {
		return err
	}

	sources, err := readSources(args, eval)
	if err != nil {
		return err
	}

	return Execute(cmd.Context(), cfg, log, sources, cmd.OutOrStdout())
}

// Source is a named query.
type Source struct {
	Name  string
	Query *query.Query
}

func readSources(files []string, eval string) ([]Source, error) {
	var sources []Source
	for _, file := range files {
		q, err := query.ParseFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read query '%s': %w", file, err)
		}
		sources = append(sources, Source{Name: file, Query: q})
	}

	if eval != "" {
		q, err := query.Parse([]byte(eval))
		if err != nil {
			return nil, fmt.Errorf("failed to read --%s query: %w", evalFlag, err)
		}
		sources = append(sources, Source{Name: evalFlag, Query: q})
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no query given, pass query files or --%s", evalFlag)
	}
	return sources, nil
}

// Report is the outcome of one query.
type Report struct {
	Query   string   `json:"query"`
	Program string   `json:"program"`
	RunID   string   `json:"run_id"`
	Results []Result `json:"results"`
	Issues  []string `json:"issues,omitempty"`
}

type Result struct {
	Vertex string `json:"vertex"`
	Result any    `json:"result,omitempty"`
}

// Execute loads the configured graph and evaluates sources against it, at most
// cfg.Query.Concurrency at a time. Reports are written to w in source order
// once every query succeeded.
func Execute(ctx context.Context, cfg *config.Config, log logger.Logger, sources []Source, w io.Writer) error {
	if cfg.Trace.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx,
			telemetry.WithOTLPEndpoint(cfg.Trace.OTLP.Endpoint),
			telemetry.WithServiceName(cfg.Trace.ServiceName),
			telemetry.WithSamplingRatio(cfg.Trace.SampleRatio),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn("failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	g, err := memory.LoadFile(cfg.Graph.File)
	if err != nil {
		return fmt.Errorf("failed to load graph '%s': %w", cfg.Graph.File, err)
	}
	vertices, edges := g.Len()
	log.Info("graph loaded",
		zap.String("file", cfg.Graph.File),
		zap.Int("vertices", vertices),
		zap.Int("edges", edges),
		zap.String("version", build.Version),
	)

	compiler, err := expr.NewCompiler(expr.WithMaxCacheSize(cfg.Expr.CacheSize))
	if err != nil {
		return err
	}
	defer compiler.Close()

	registry := traversal.NewBuiltinRegistry(traversal.WithExprCompiler(compiler))

	reports := make([]*Report, len(sources))
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(cfg.Query.Concurrency)
	for i, src := range sources {
		grp.Go(func() error {
			report, err := evaluate(grpCtx, cfg, log, registry, g, src)
			if err != nil {
				return fmt.Errorf("query '%s' failed: %w", src.Name, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	return writeReports(w, cfg.Query.Output, reports)
}

func evaluate(ctx context.Context, cfg *config.Config, log logger.Logger, r *traversal.Registry, g graph.Graph, src Source) (*Report, error) {
	ctx, span := tracer.Start(ctx, "query.evaluate")
	defer span.End()

	if cfg.Query.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Query.Timeout)
		defer cancel()
	}

	p, err := src.Query.Compile(r)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}

	d, err := traversal.NewDriver(g, p,
		traversal.WithLogger(log.With(zap.String("query", src.Name))),
		traversal.WithMaxResults(cfg.Query.MaxResults),
	)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("query", src.Name), attribute.String("run_id", d.RunID()))

	report := &Report{
		Query:   src.Name,
		Program: p.String(),
		RunID:   d.RunID(),
		Results: []Result{},
	}
	for gremlin, err := range d.All(ctx) {
		if err != nil {
			telemetry.TraceError(span, err)
			return nil, err
		}
		report.Results = append(report.Results, Result{Vertex: gremlin.Vertex.ID, Result: gremlin.Result})
	}

	for _, issue := range d.Issues() {
		report.Issues = append(report.Issues, issue.Error())
	}
	span.SetAttributes(attribute.Int("results", len(report.Results)))

	return report, nil
}

func writeReports(w io.Writer, format string, reports []*Report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		for _, report := range reports {
			if err := enc.Encode(report); err != nil {
				return err
			}
		}
		return nil
	}

	for _, report := range reports {
		if _, err := fmt.Fprintf(w, "# %s: %s\n", report.Query, report.Program); err != nil {
			return err
		}
		for _, res := range report.Results {
			line := res.Vertex
			if res.Result != nil {
				line = fmt.Sprintf("%s\t%v", res.Vertex, res.Result)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		for _, issue := range report.Issues {
			if _, err := fmt.Fprintf(w, "! %s\n", issue); err != nil {
				return err
			}
		}
	}
	return nil
}
