package cmd

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Start the HTTP server that receives Jira webhooks.

Routes:
  GET  /            empty body, for health checks
  GET  /robots.txt  disallows all crawlers
  POST /issue/      Jira issue payload, requires "Authorization: Bearer <API_TOKEN>"

Examples:
  # Start with defaults (0.0.0.0:8000)
  refiner serve

  # Start on a custom host and port
  refiner serve --host 127.0.0.1 --port 9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host address to bind to")
	serveCmd.Flags().IntP("port", "p", 8000, "Port to listen on")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, warnings, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	for _, w := range warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	logger.Info("starting refiner",
		"version", GetVersion(),
		"addr", addr,
		"model", cfg.OpenAI.Model,
		"jira_url", cfg.Jira.URL,
	)
	return newApp(cfg, logger).run(ctx, ln)
}
