package cli

import (
	"context"
	"fmt"
	"time"

	"resumetailor/internal/auth"
	"resumetailor/internal/config"
	"resumetailor/internal/errors"
	"resumetailor/internal/events"
	"resumetailor/internal/export"
	"resumetailor/internal/observability"
	"resumetailor/internal/remote"
	"resumetailor/internal/tailoring"
)

// runtime holds the collaborators a command needs to drive tailoring sessions
type runtime struct {
	cfg       *config.Config
	logger    *errors.Logger
	tokens    auth.Provider
	client    *remote.Client
	exporter  export.Exporter
	publisher events.Publisher
	om        *observability.ObservabilityManager
}

// newRuntime wires auth, the remote client, export, events and observability from config
func newRuntime(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*runtime, error) {
	var secrets auth.SecretReader
	if cfg.Auth.Mode == "vault" {
		vc, err := config.NewVaultClient(cfg.Vault, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		// A disabled vault yields a nil *VaultClient; keep the interface nil too.
		if vc != nil {
			secrets = vc
		}
	}

	tokens, err := auth.New(cfg.Auth, secrets, logger)
	if err != nil {
		return nil, err
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg, logger)
	if err != nil {
		_ = tokens.Close()
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	client, err := remote.NewClient(cfg, tokens, logger, remote.WithTracker(om))
	if err != nil {
		_ = tokens.Close()
		return nil, err
	}

	exporter, err := export.New(ctx, cfg.Export, logger)
	if err != nil {
		_ = tokens.Close()
		return nil, err
	}

	publisher, err := events.New(cfg.Events, logger)
	if err != nil {
		_ = tokens.Close()
		return nil, err
	}

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		tokens:    tokens,
		client:    client,
		exporter:  exporter,
		publisher: publisher,
		om:        om,
	}, nil
}

// newSession opens a controller whose events also feed extra
func (rt *runtime) newSession(id string, extra ...events.Publisher) (*tailoring.Controller, error) {
	publishers := events.Multi{rt.publisher, observability.NewEventMetrics(rt.om)}
	publishers = append(publishers, extra...)

	return tailoring.New(tailoring.Options{
		SessionID:     id,
		Analyzer:      rt.client,
		Exporter:      rt.exporter,
		Publisher:     publishers,
		DebounceDelay: rt.cfg.Session.DebounceDelay,
		Logger:        rt.logger,
	})
}

// Close releases the publisher, token source and telemetry exporters
func (rt *runtime) Close() {
	if err := rt.publisher.Close(); err != nil {
		rt.logger.LogError(err, "Failed to close event publisher")
	}
	if err := rt.tokens.Close(); err != nil {
		rt.logger.LogError(err, "Failed to close token source")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.om.Shutdown(ctx); err != nil {
		rt.logger.LogError(err, "Failed to shutdown observability")
	}
}
