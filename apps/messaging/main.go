package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mahaj/chatroom/pkg/config"
	"github.com/mahaj/chatroom/pkg/db"
	"github.com/mahaj/chatroom/pkg/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	closer, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("logging")
	}
	defer closer.Close()

	// Note: In production, schema creation should be handled by migration tools.
	if err := db.EnsureKeyspace(cfg.ScyllaHosts, cfg.ScyllaKeyspace); err != nil {
		log.Fatal().Err(err).Msg("failed to create keyspace")
	}

	session, err := db.NewSession(cfg.ScyllaHosts, cfg.ScyllaKeyspace)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to ScyllaDB")
	}
	defer session.Close()

	if err := session.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema")
	}

	consumer := NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, db.NewMessageRepository(session))
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("topic", cfg.KafkaTopic).Str("group", cfg.KafkaGroupID).Msg("starting Kafka consumer")
	consumer.Consume(ctx)
}
