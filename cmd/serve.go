// Package cmd — serve command.
// Starts the capsule API server: SSE capsule creation, reading
// endpoints, progress, bookmarks, the public feed, and exports.
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/codecapsule/cache"
	"github.com/gaurav-prasanna/codecapsule/config"
	"github.com/gaurav-prasanna/codecapsule/server"
	"github.com/gaurav-prasanna/codecapsule/store"
)

var (
	flagServeMockLLM bool
	flagAuthTokens   []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the CodeCapsule API server",
	Long: `Serve starts the HTTP API. Capsule creation streams progress over
server-sent events; reading, progress, bookmark, feed, and export
endpoints are served from the local SQLite database.

Authenticated endpoints resolve the caller from bearer tokens
registered with --auth-token.

Examples:
  codecapsule serve
  codecapsule serve --auth-token secret123:user-id-1
  codecapsule serve --mock-llm`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&flagServeMockLLM, "mock-llm", false, "Use the built-in mock generator instead of the configured LLM")
	serveCmd.Flags().StringArrayVar(&flagAuthTokens, "auth-token", nil, "Bearer token mapping, token:user_id (repeatable)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	log := newLogger()

	st, err := store.Open(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	gen, err := newGenerator(cfg, flagServeMockLLM)
	if err != nil {
		return err
	}

	c := cache.New(time.Duration(cfg.Cache.TTLSeconds) * time.Second)
	runner := newRunner(cfg, st, c, gen, log)

	sessions := server.NewTokenSessions()
	for _, pair := range flagAuthTokens {
		token, userID, ok := strings.Cut(pair, ":")
		if !ok || token == "" || userID == "" {
			return fmt.Errorf("invalid --auth-token %q (expected token:user_id)", pair)
		}
		sessions.Add(token, userID)
	}

	srv := server.New(st, runner, c, sessions, log)
	return server.Run(server.NewHTTPServer(cfg.HTTP.Addr, srv), log)
}
