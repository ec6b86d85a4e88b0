package main

import (
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
	if _, err := logging.Setup(cfg.LogLevel, ""); err != nil {
		log.Fatal().Err(err).Msg("logging")
	}

	if err := db.EnsureKeyspace(cfg.ScyllaHosts, cfg.ScyllaKeyspace); err != nil {
		log.Fatal().Err(err).Msg("failed to create keyspace")
	}

	session, err := db.NewSession(cfg.ScyllaHosts, cfg.ScyllaKeyspace)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to ScyllaDB")
	}
	defer session.Close()

	if err := session.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("failed to create tables")
	}
	log.Info().Str("keyspace", cfg.ScyllaKeyspace).Msg("tables created successfully")
}
