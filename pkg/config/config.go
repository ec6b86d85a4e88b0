// Package config loads service and client settings from the environment,
// optionally seeded by a .env file.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaGroupID   string
	RedisAddr      string
	ScyllaHosts    []string
	ScyllaKeyspace string
	JWTSecret      string
	GatewayAddr    string
	APIAddr        string
	NodeID         int64
	LogLevel       string
	LogFile        string
}

var defaults = map[string]any{
	"kafka_brokers":   "localhost:19092",
	"kafka_topic":     "chat-messages",
	"kafka_group_id":  "messaging-service-group",
	"redis_addr":      "localhost:6379",
	"scylla_hosts":    "localhost:9042",
	"scylla_keyspace": "chat",
	"jwt_secret":      "my_secret_key",
	"gateway_addr":    ":8080",
	"api_addr":        ":8081",
	"node_id":         1,
	"log_level":       "info",
	"log_file":        "",
}

// Load reads .env files (missing ones are fine) and then the environment.
// Keys map to upper-case variables: kafka_brokers <- KAFKA_BROKERS.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		log.Debug().Err(err).Msg("no .env file, using environment variables")
	}
	return FromViper(viper.New())
}

// FromViper resolves a Config from v after installing defaults and binding
// the environment.
func FromViper(v *viper.Viper) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	cfg := &Config{
		KafkaBrokers:   splitList(v.GetString("kafka_brokers")),
		KafkaTopic:     v.GetString("kafka_topic"),
		KafkaGroupID:   v.GetString("kafka_group_id"),
		RedisAddr:      v.GetString("redis_addr"),
		ScyllaHosts:    splitList(v.GetString("scylla_hosts")),
		ScyllaKeyspace: v.GetString("scylla_keyspace"),
		JWTSecret:      v.GetString("jwt_secret"),
		GatewayAddr:    v.GetString("gateway_addr"),
		APIAddr:        v.GetString("api_addr"),
		NodeID:         v.GetInt64("node_id"),
		LogLevel:       v.GetString("log_level"),
		LogFile:        v.GetString("log_file"),
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("config: KAFKA_BROKERS is empty")
	}
	if len(cfg.ScyllaHosts) == 0 {
		return nil, fmt.Errorf("config: SCYLLA_HOSTS is empty")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is empty")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
