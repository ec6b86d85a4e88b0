package db

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"
)

type Session struct {
	*gocql.Session
}

func NewSession(hosts []string, keyspace string) (*Session, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.ConnectTimeout = 5 * time.Second

	// Retry policy
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		NumRetries: 3,
		Min:        100 * time.Millisecond,
		Max:        1 * time.Second,
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("scylla connect %v/%s: %w", hosts, keyspace, err)
	}

	log.Info().Strs("hosts", hosts).Str("keyspace", keyspace).Msg("connected to ScyllaDB cluster")
	return &Session{Session: session}, nil
}

// EnsureKeyspace creates keyspace through a session on the system keyspace.
func EnsureKeyspace(hosts []string, keyspace string) error {
	sys, err := NewSession(hosts, "system")
	if err != nil {
		return err
	}
	defer sys.Close()

	stmt := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = { 'class' : 'SimpleStrategy', 'replication_factor' : 1 }`, keyspace)
	if err := sys.Query(stmt).Exec(); err != nil {
		return fmt.Errorf("create keyspace %s: %w", keyspace, err)
	}
	return nil
}

// messagesTable holds every relayed message of a room, clustered by the
// gateway sequence so reads come back in relay order.
const messagesTable = `CREATE TABLE IF NOT EXISTS messages (
	room_id text,
	seq bigint,
	id text,
	type text,
	user_id text,
	username text,
	user_avatar text,
	content text,
	reply_user_id text,
	reply_username text,
	reply_user_avatar text,
	reply_content text,
	has_reply boolean,
	created_at bigint,
	PRIMARY KEY (room_id, seq)
) WITH CLUSTERING ORDER BY (seq ASC)`

// EnsureSchema creates the tables used by the messaging and api services.
func (s *Session) EnsureSchema() error {
	if err := s.Query(messagesTable).Exec(); err != nil {
		return fmt.Errorf("create messages table: %w", err)
	}
	return nil
}
