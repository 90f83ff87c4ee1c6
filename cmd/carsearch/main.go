// Command carsearch pages through car search results and writes them as CSV.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Sternrassler/carsearch/pkg/client"
	"github.com/Sternrassler/carsearch/pkg/config"
	"github.com/Sternrassler/carsearch/pkg/export"
	"github.com/Sternrassler/carsearch/pkg/logging"
	"github.com/Sternrassler/carsearch/pkg/metrics"
	"github.com/Sternrassler/carsearch/pkg/search"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "carsearch",
		Short: "Page through car search results and write them as CSV",
		Long: `carsearch requests result pages for a make/model search around a postcode,
builds one row per listing and writes the rows as CSV to --output or stdout.

Every flag can also be set in the YAML file given by --config or through
CARSEARCH_* environment variables, e.g. CARSEARCH_SEARCH_SORT="Most recent".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, s, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.String("make", v.GetString("search.make"), "vehicle make")
	flags.String("model", v.GetString("search.model"), "vehicle model")
	flags.String("postcode", v.GetString("search.postcode"), "postcode to search around")
	flags.Int("radius", v.GetInt("search.radius"), "search radius in miles")
	flags.StringToString("extra", nil, "additional query parameters, e.g. min_year=2015")
	flags.String("sort", v.GetString("search.sort"), fmt.Sprintf("sort order %q", search.SortNames()))
	flags.Int("limit", v.GetInt("search.limit"), "maximum number of records, 0 for no limit")
	flags.Int("max-attempts", v.GetInt("search.max_attempts"), "failed attempts allowed per page before skipping it")
	flags.String("base-url", v.GetString("client.base_url"), "results endpoint")
	flags.String("user-agent", v.GetString("client.user_agent"), "User-Agent header")
	flags.Float64("rps", v.GetFloat64("client.requests_per_second"), "requests per second, 0 for no pacing")
	flags.String("redis", v.GetString("redis.addr"), "Redis address for sharing the failure streak")
	flags.String("log-level", v.GetString("log.level"), "debug, info, warn or error")
	flags.Bool("pretty", v.GetBool("log.pretty"), "human-readable logs")
	flags.StringP("output", "o", v.GetString("output.csv"), "CSV output path (default stdout)")
	flags.String("metrics-addr", v.GetString("metrics.addr"), "serve Prometheus metrics on this address")

	bindFlags(v, flags, map[string]string{
		"search.make":                "make",
		"search.model":               "model",
		"search.postcode":            "postcode",
		"search.radius":              "radius",
		"search.extra":               "extra",
		"search.sort":                "sort",
		"search.limit":               "limit",
		"search.max_attempts":        "max-attempts",
		"client.base_url":            "base-url",
		"client.user_agent":          "user-agent",
		"client.requests_per_second": "rps",
		"redis.addr":                 "redis",
		"log.level":                  "log-level",
		"log.pretty":                 "pretty",
		"output.csv":                 "output",
		"metrics.addr":               "metrics-addr",
	})

	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func run(ctx context.Context, s *config.Settings, out io.Writer) error {
	logging.Setup(s.LoggingConfig())
	logger := logging.NewLogger("carsearch")

	cc := s.ClientConfig()
	if s.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: s.Redis.Addr})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", s.Redis.Addr, err)
		}
		logger.Info().Str("addr", s.Redis.Addr).Msg("Connected to Redis")
		cc.Redis = rdb
	}

	c, err := client.New(cc)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer c.Close()

	if s.Metrics.Addr != "" {
		srvCtx, cancel := context.WithCancel(ctx)
		_, done, err := metrics.Serve(srvCtx, s.Metrics.Addr)
		if err != nil {
			cancel()
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() {
			cancel()
			<-done
		}()
	}

	ctrl, err := search.NewController(c, s.Parameters(), s.ControllerConfig())
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	records, err := ctrl.Search(ctx, s.SearchOptions())
	if err != nil {
		return err
	}

	table := export.NewTable(records)
	if s.Output.CSV == "" {
		if err := export.WriteCSV(out, table); err != nil {
			return err
		}
	} else if err := export.WriteFile(s.Output.CSV, table); err != nil {
		return err
	}

	logger.Info().
		Str("session_id", ctrl.Session().ID).
		Str("state", ctrl.State().String()).
		Int("records", len(records)).
		Msg("Done")
	return nil
}
