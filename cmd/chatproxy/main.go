package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chat-client/internal/config"
	"chat-client/internal/logging"
	"chat-client/internal/observability"
	"chat-client/internal/proxy"
	"chat-client/internal/telemetry"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatproxy: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := proxy.SetupTracing(ctx, cfg.Proxy.OTLPEndpoint, "chat-proxy", cfg.Proxy.Environment)
	if err != nil {
		logger.Fatal().Err(err).Msg("tracing setup failed")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	publisher := observability.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
	defer publisher.Close()

	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat_proxy", "chat-proxy", cfg.Proxy.Environment, logger)

	server, err := proxy.New(cfg.Proxy, emitter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("proxy setup failed")
	}

	if err := server.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("proxy server error")
	}
	logger.Info().Msg("proxy stopped")
}
