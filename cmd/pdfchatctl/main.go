// Package main implements pdfchatctl, a command-line client that ingests
// documents and asks questions about them without running the HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat"
	logpkg "github.com/kailas-cloud/pdfchat/internal/logger"
	"github.com/kailas-cloud/pdfchat/internal/version"
)

var (
	// env selects config/<env>.yaml
	env string
	// logLevel overrides the CLI log level
	logLevel string
	// outputJSON prints machine-readable results
	outputJSON bool

	log = zap.NewNop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

var rootCmd = &cobra.Command{
	Use:   "pdfchatctl",
	Short: "Chat with your documents from the terminal",
	Long: `pdfchatctl ingests PDF, HTML and text files and answers questions about
them. It reads the same config/<env>.yaml as the server, so documents
ingested here are visible to the server when both share storage.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		l, err := logpkg.NewLogger("cli", logLevel)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", envOr("ENV", "local"), "config environment (config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output results as JSON")
}

// newClient opens the SDK client configured by --env. Client operations are
// logged to stderr at warn level and above.
func newClient(ctx context.Context) (*pdfchat.Client, error) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})
	c, err := pdfchat.New(ctx,
		pdfchat.WithConfigFile(env),
		pdfchat.WithLogger(slog.New(handler)),
	)
	if err != nil {
		log.Error("failed to open client", zap.String("env", env), zap.Error(err))
		return nil, fmt.Errorf("open client: %w", err)
	}
	return c, nil
}

func closeClient(c *pdfchat.Client) {
	if err := c.Close(); err != nil {
		log.Warn("close client", zap.Error(err))
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
