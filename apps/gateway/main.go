package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mahaj/chatroom/pkg/auth"
	"github.com/mahaj/chatroom/pkg/config"
	"github.com/mahaj/chatroom/pkg/logging"
	"github.com/mahaj/chatroom/pkg/presence"
	"github.com/mahaj/chatroom/pkg/snowflake"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "gateway.log"
	}
	closer, err := logging.Setup(cfg.LogLevel, logFile)
	if err != nil {
		log.Fatal().Err(err).Msg("logging")
	}
	defer closer.Close()

	seq, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		log.Fatal().Err(err).Msg("snowflake")
	}

	// Keyed by room so each room stays on one partition and keeps its order.
	producer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.Hash{},
	}

	// Every gateway needs every record, so each gets its own group.
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic,
		GroupID:     "gateway-group-" + uuid.NewString(),
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})

	registry := presence.NewRegistry(cfg.RedisAddr)
	defer registry.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := NewHub(producer, consumer, registry, seq)
	go hub.Run(ctx)
	go hub.Fanout(ctx)

	signer := auth.NewSigner(cfg.JWTSecret)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, signer, w, r)
	})
	srv := &http.Server{Addr: cfg.GatewayAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.GatewayAddr).Msg("gateway service starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("gateway")
	}
}
