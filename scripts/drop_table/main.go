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

	session, err := db.NewSession(cfg.ScyllaHosts, cfg.ScyllaKeyspace)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to ScyllaDB")
	}
	defer session.Close()

	log.Info().Msg("dropping table messages")
	if err := session.Query("DROP TABLE IF EXISTS messages").Exec(); err != nil {
		log.Fatal().Err(err).Msg("failed to drop table")
	}
	log.Info().Msg("table dropped successfully")
}
