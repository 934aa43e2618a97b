package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/RafaArmero1993/MentorIA/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MentorIA server",
	Long: `Start the MentorIA HTTP server.

Generation requests run synchronously inside the request. When the server
shuts down (via Ctrl+C or SIGTERM), requests in flight are cancelled and
their partial output is discarded.

The server provides:
  - /health            - Basic server health check
  - /ready             - Readiness check (includes the document index)
  - /documents         - Generate, plan, list and download documents
  - /exercises         - Generate and download exercise sheets
  - /audios/{id}       - Narrations linked from the QR codes
  - /llmcalls          - Recent LLM call history

Host and port default to the server section of the config file.

Examples:
  mentoria serve                    # Start on the configured port
  mentoria serve --port 3000        # Start on custom port
  mentoria serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := slog.Default()

		h, err := openHome()
		if err != nil {
			return err
		}
		cm, err := loadConfig(h)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		cfg := cm.Get().Server
		if cmd.Flags().Changed("host") || cfg.Host == "" {
			cfg.Host = serveHost
		}
		if cmd.Flags().Changed("port") || cfg.Port == "" {
			cfg.Port = servePort
		}

		srv, err := server.New(server.Config{
			Host:          cfg.Host,
			Port:          cfg.Port,
			Home:          h,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
