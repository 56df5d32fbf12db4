package pgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/edgeflare/pgrest/pkg/config"
	"github.com/edgeflare/pgrest/pkg/metrics"
	"github.com/edgeflare/pgrest/pkg/postgrest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string
var logLevel string
var cfg *config.Config
var rootCmd = &cobra.Command{
	Use:   "pgrest",
	Short: "pgrest is a PostgREST client",
	Long:  `pgrest reads and writes rows of a PostgREST-exposed database from the command line`,
	Run: func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Println(config.Version)
			return
		}

		// If no subcommand is provided, print help
		cmd.Help()
	},
}

func Main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pgrest.yaml)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "L", "info", "log requests at this level (debug, info, warn, error, none)")
	rootCmd.PersistentFlags().StringP("url", "u", "", "PostgREST connection URL (overrides config)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Print the version number")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	if logLevel == "none" {
		return zap.NewNop()
	}
	level, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newClient builds the client from config plus command-line overrides, and
// starts the metrics listener when one is configured.
func newClient(cmd *cobra.Command) (*postgrest.Client, error) {
	connURL := cfg.URL
	if flagURL, _ := cmd.Flags().GetString("url"); flagURL != "" {
		connURL = flagURL
	}

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}

	opts := []postgrest.Option{
		postgrest.WithLogger(newLogger()),
		postgrest.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	for name, value := range cfg.Headers {
		opts = append(opts, postgrest.WithHeader(name, value))
	}
	if metricsAddr != "" {
		opts = append(opts, postgrest.WithMetrics())
		var wg sync.WaitGroup
		metrics.StartPrometheusServer(context.Background(), &wg, &metrics.PromServerOpts{Addr: metricsAddr})
	}

	client, err := postgrest.NewClient(connURL, opts...)
	if err != nil {
		return nil, err
	}

	for name, relatedURL := range cfg.Related {
		related, err := postgrest.NewClient(relatedURL, opts...)
		if err != nil {
			return nil, fmt.Errorf("related endpoint %q: %w", name, err)
		}
		client.AddRelated(name, related)
	}

	return client, nil
}

// parsePairs splits repeated col=value flags into a map.
func parsePairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		col, value, found := strings.Cut(pair, "=")
		if !found || col == "" {
			return nil, fmt.Errorf("expected col=value, got %q", pair)
		}
		out[col] = value
	}
	return out, nil
}

// keyParams wraps raw key values as equality filters.
func keyParams(pairs []string) (postgrest.Params, error) {
	raw, err := parsePairs(pairs)
	if err != nil {
		return nil, err
	}
	params := make(postgrest.Params, len(raw))
	for col, value := range raw {
		params[col] = postgrest.Eq(value)
	}
	return params, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
