package cli

import (
	"fmt"

	"resumetailor/internal/config"
	"resumetailor/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP session API",
	Long: `Start an HTTP server that hosts tailoring sessions.

Available endpoints:
- POST   /sessions                          Open a session
- GET    /sessions/{id}                     Session state
- DELETE /sessions/{id}                     Close a session
- POST   /sessions/{id}/analyze             Start benchmark, score and gap analysis
- PUT    /sessions/{id}/resume              Update resume text (debounced re-score)
- POST   /sessions/{id}/gaps/{gapId}/apply  Apply a gap action and re-score
- POST   /sessions/{id}/export              Export the current resume
- POST   /sessions/{id}/reset               Reset the session
- GET    /health, /stats

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeFlags overrides server settings with the flags the user set
func applyServeFlags(cmd *cobra.Command, cfg *config.ServerConfig) {
	overrides := map[string]*string{
		"port":      &cfg.Port,
		"host":      &cfg.Host,
		"tls-mode":  &cfg.TLS.Mode,
		"cert-file": &cfg.TLS.CertFile,
		"key-file":  &cfg.TLS.KeyFile,
		"ca-file":   &cfg.TLS.CAFile,
	}
	for name, target := range overrides {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeFlags(cmd, &cfg.Server)
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer rt.Close()

	srv, err := server.NewServer(cfg, Version, server.Dependencies{
		Analyzer:      rt.client,
		Health:        rt.client,
		Exporter:      rt.exporter,
		Publisher:     rt.publisher,
		Observability: rt.om,
	}, logger)
	if err != nil {
		return err
	}
	return srv.Start(ctx)
}
