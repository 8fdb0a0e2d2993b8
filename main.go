// Copyright (c) Gabriel de Quadros Ligneul
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package contains the main function that executes the moviegraph command.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Khan/genqlient/graphql"
	"github.com/calindra/moviegraph/internal/commons"
	"github.com/calindra/moviegraph/internal/graph"
	"github.com/calindra/moviegraph/internal/graphclient"
	"github.com/calindra/moviegraph/internal/moviegraph"
	"github.com/carlmjohnson/versioninfo"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
)

var startupMessage = `
GraphQL running at http://localhost:HTTP_PORT/graphql
Metrics running at http://localhost:HTTP_PORT/metrics
Press Ctrl+C to stop the server
`

var cmd = &cobra.Command{
	Use:     "moviegraph",
	Short:   "moviegraph is a GraphQL facade over the movie database API",
	Run:     run,
	Version: versioninfo.Short(),
}

var CompletionCmd = &cobra.Command{
	Use:                   "completion",
	Short:                 "Generate shell completion scripts",
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cobra.CheckErr(cmd.Root().GenBashCompletion(os.Stdout))
		case "zsh":
			cobra.CheckErr(cmd.Root().GenZshCompletion(os.Stdout))
		case "fish":
			cobra.CheckErr(cmd.Root().GenFishCompletion(os.Stdout, true))
		case "powershell":
			cobra.CheckErr(cmd.Root().GenPowerShellCompletion(os.Stdout))
		}
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the GraphQL schema",
	Run: func(cmd *cobra.Command, args []string) {
		schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: graph.Schema})
		if err != nil {
			exitf("invalid schema: %v", err)
		}
		formatter.NewFormatter(os.Stdout).FormatSchema(schema)
	},
}

// GraphQL client
type QueryOpts struct {
	Url      string
	Page     int
	Language string
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query a running moviegraph server",
}

var (
	debug     bool
	color     bool
	opts      = moviegraph.NewMovieGraphOpts()
	queryOpts = QueryOpts{
		Url: fmt.Sprintf("http://localhost:%v/graphql", moviegraph.DefaultHttpPort),
	}
)

//go:embed .env
var envBuilded string

func init() {
	cmd.Flags().StringVar(&opts.HttpAddress, "http-address", opts.HttpAddress,
		"HTTP address used by moviegraph to serve its APIs")
	cmd.Flags().IntVar(&opts.HttpPort, "http-port", opts.HttpPort,
		"HTTP port used by moviegraph to serve its APIs")

	cmd.Flags().StringVar(&opts.TmdbUrl, "tmdb-url", opts.TmdbUrl,
		"Base URL of the movie database API")
	cmd.Flags().StringVar(&opts.ApiKey, "tmdb-api-key", opts.ApiKey,
		"Movie database API key. Defaults to the TMDB_API_KEY env")
	cmd.Flags().StringVar(&opts.Language, "language", opts.Language,
		"Default language sent to the movie database")

	cmd.Flags().DurationVar(&opts.CacheTTL, "cache-ttl", opts.CacheTTL,
		"How long upstream responses are cached. Example: moviegraph --cache-ttl 0 disables the cache")
	cmd.Flags().Int64Var(&opts.CacheMaxCost, "cache-max-cost", opts.CacheMaxCost,
		"Maximum size in bytes of the in-memory cache")
	cmd.Flags().StringVar(&opts.DbImplementation, "db-implementation", opts.DbImplementation,
		"DB used by the persistent cache. sqlite, postgres or none")
	cmd.Flags().StringVar(&opts.SqliteFile, "sqlite-file", opts.SqliteFile,
		"The sqlite file used by the cache. Empty keeps it in memory")
	cmd.Flags().StringVar(&opts.PostgresUrl, "postgres-url", opts.PostgresUrl,
		"PostgreSQL connection url. Defaults to the POSTGRES_URL env")
	cmd.Flags().DurationVar(&opts.JanitorInterval, "janitor-interval", opts.JanitorInterval,
		"Interval between removals of expired cache rows")

	cmd.Flags().StringVar(&opts.StaticDir, "static-dir", opts.StaticDir,
		"If set, serves the client bundle from this directory under /static")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"Timeout for requests. Example: moviegraph --timeout 30s")

	cmd.PersistentFlags().BoolVarP(&debug, "enable-debug", "d", false, "If set, enable debug output")
	cmd.PersistentFlags().BoolVar(&color, "enable-color", true, "If set, enables logs color")

	queryCmd.PersistentFlags().StringVar(&queryOpts.Url, "url", queryOpts.Url,
		"GraphQL endpoint of a running moviegraph")
	queryCmd.PersistentFlags().StringVar(&queryOpts.Language, "language", queryOpts.Language,
		"Language of the results")
}

func addQuerySubcommands(queryCmd *cobra.Command) {
	nowPlayingCmd := &cobra.Command{
		Use:   "now-playing",
		Short: "List the movies now playing",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := graphclient.NowPlaying(cmd.Context(), newGraphqlClient(), pageOpt(cmd), languageOpt())
			cobra.CheckErr(err)
			printJSON(resp)
		},
	}
	nowPlayingCmd.Flags().IntVar(&queryOpts.Page, "page", 1, "Result page")

	movieCmd := &cobra.Command{
		Use:   "movie <id>",
		Short: "Show the details of a movie",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := graphclient.MovieDetails(cmd.Context(), newGraphqlClient(), args[0], languageOpt())
			cobra.CheckErr(err)
			printJSON(resp)
		},
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			query := strings.Join(args, " ")
			resp, err := graphclient.SearchMovies(cmd.Context(), newGraphqlClient(), query, pageOpt(cmd), languageOpt())
			cobra.CheckErr(err)
			printJSON(resp)
		},
	}
	searchCmd.Flags().IntVar(&queryOpts.Page, "page", 1, "Result page")

	queryCmd.AddCommand(nowPlayingCmd, movieCmd, searchCmd)
}

func newGraphqlClient() graphql.Client {
	return graphql.NewClient(queryOpts.Url, nil)
}

func pageOpt(cmd *cobra.Command) *int {
	if !cmd.Flags().Changed("page") {
		return nil
	}
	return &queryOpts.Page
}

func languageOpt() *string {
	if queryOpts.Language == "" {
		return nil
	}
	return &queryOpts.Language
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	cobra.CheckErr(err)
	fmt.Println(string(out))
}

func configureLog(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	commons.ConfigureLogWithColor(level, color)
}

func run(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	startTime := time.Now()

	LoadEnv()

	if opts.ApiKey == "" {
		opts.ApiKey = os.Getenv("TMDB_API_KEY")
	}
	if opts.ApiKey == "" {
		exitf("--tmdb-api-key or TMDB_API_KEY must be set")
	}
	if !cmd.Flags().Changed("tmdb-url") {
		if url := os.Getenv("TMDB_BASE_URL"); url != "" {
			opts.TmdbUrl = url
		}
	}
	if opts.PostgresUrl == "" {
		opts.PostgresUrl = os.Getenv("POSTGRES_URL")
	}
	if opts.HttpPort == 0 {
		exitf("--http-port cannot be 0")
	}
	if opts.CacheTTL < 0 {
		exitf("--cache-ttl cannot be negative")
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ready := make(chan struct{}, 1)
	go func() {
		select {
		case <-ready:
			msg := strings.ReplaceAll(startupMessage, "HTTP_PORT", fmt.Sprint(opts.HttpPort))
			fmt.Println(msg)
			slog.Info("moviegraph: ready", "after", time.Since(startTime))
		case <-ctx.Done():
		}
	}()

	w, err := moviegraph.NewSupervisor(opts)
	if err != nil {
		exitf("%v", err)
	}
	err = w.Start(ctx, ready)
	if err != nil && ctx.Err() == nil {
		cobra.CheckErr(err)
	}
}

// Load the embedded .env without overriding the current environment.
func LoadEnv() {
	currentEnv := map[string]bool{}
	rawEnv := os.Environ()
	for _, rawEnvLine := range rawEnv {
		key := strings.Split(rawEnvLine, "=")[0]
		currentEnv[key] = true
	}

	parse, err := godotenv.Unmarshal(envBuilded)
	cobra.CheckErr(err)

	for k, v := range parse {
		if !currentEnv[k] {
			slog.Debug("env: setting env", "key", k)
			err := os.Setenv(k, v)
			cobra.CheckErr(err)
		} else {
			slog.Debug("env: skipping env", "key", k)
		}
	}

	slog.Debug("env: loaded")
}

func main() {
	cmd.PersistentPreRun = configureLog
	addQuerySubcommands(queryCmd)
	cmd.AddCommand(schemaCmd, queryCmd, CompletionCmd)
	cobra.CheckErr(cmd.ExecuteContext(context.Background()))
}

func exitf(format string, args ...any) {
	err := fmt.Sprintf(format, args...)
	slog.Error("configuration error", "error", err)
	os.Exit(1)
}
