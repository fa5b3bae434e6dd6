package query

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/openfga/pipegraph/cmd/util"
)

// bindRunFlagsFunc binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(command *cobra.Command, args []string) {
		util.MustBindPFlag("graph.file", flags.Lookup("graph"))
		util.MustBindEnv("graph.file", "PIPEGRAPH_GRAPH_FILE")

		util.MustBindPFlag("query.maxResults", flags.Lookup("max-results"))
		util.MustBindEnv("query.maxResults", "PIPEGRAPH_QUERY_MAX_RESULTS", "PIPEGRAPH_QUERY_MAXRESULTS")

		util.MustBindPFlag("query.timeout", flags.Lookup("timeout"))
		util.MustBindEnv("query.timeout", "PIPEGRAPH_QUERY_TIMEOUT")

		util.MustBindPFlag("query.concurrency", flags.Lookup("concurrency"))
		util.MustBindEnv("query.concurrency", "PIPEGRAPH_QUERY_CONCURRENCY")

		util.MustBindPFlag("query.output", flags.Lookup("output"))
		util.MustBindEnv("query.output", "PIPEGRAPH_QUERY_OUTPUT")

		util.MustBindPFlag("expr.cacheSize", flags.Lookup("expr-cache-size"))
		util.MustBindEnv("expr.cacheSize", "PIPEGRAPH_EXPR_CACHE_SIZE", "PIPEGRAPH_EXPR_CACHESIZE")

		util.MustBindPFlag("log.format", flags.Lookup("log-format"))
		util.MustBindEnv("log.format", "PIPEGRAPH_LOG_FORMAT")

		util.MustBindPFlag("log.level", flags.Lookup("log-level"))
		util.MustBindEnv("log.level", "PIPEGRAPH_LOG_LEVEL")

		util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
		util.MustBindEnv("trace.enabled", "PIPEGRAPH_TRACE_ENABLED")

		util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
		util.MustBindEnv("trace.otlp.endpoint", "PIPEGRAPH_TRACE_OTLP_ENDPOINT")

		util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
		util.MustBindEnv("trace.sampleRatio", "PIPEGRAPH_TRACE_SAMPLE_RATIO", "PIPEGRAPH_TRACE_SAMPLERATIO")

		util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
		util.MustBindEnv("trace.serviceName", "PIPEGRAPH_TRACE_SERVICE_NAME", "PIPEGRAPH_TRACE_SERVICENAME")
	}
}
