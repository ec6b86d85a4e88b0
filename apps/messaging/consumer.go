package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mahaj/chatroom/pkg/db"
	"github.com/mahaj/chatroom/pkg/model"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type recordReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type messageSaver interface {
	Save(row db.Row) error
}

type Consumer struct {
	reader recordReader
	store  messageSaver
	retry  time.Duration
}

func NewConsumer(brokers []string, topic string, groupID string, store messageSaver) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{reader: r, store: store, retry: time.Second}
}

// Consume persists records until ctx is cancelled.
func (c *Consumer) Consume(ctx context.Context) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Dur("retry", c.retry).Msg("error reading message")
			select {
			case <-time.After(c.retry):
			case <-ctx.Done():
				return
			}
			continue
		}
		log.Debug().Int("partition", m.Partition).Int64("offset", m.Offset).Msg("received record from Kafka")

		if err := c.handle(m.Value); err != nil {
			log.Error().Err(err).Msg("failed to persist record")
		}
	}
}

// handle stores message frames. Both TEXT and SYSTEM messages are part of the
// room log; other frame kinds are not persisted.
func (c *Consumer) handle(value []byte) error {
	var env model.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return fmt.Errorf("unmarshal envelope: %w", err)
	}

	if env.Kind != model.FrameMessage {
		log.Debug().Str("kind", string(env.Kind)).Msg("skipping persistence for frame")
		return nil
	}

	row, err := db.RowFromEnvelope(env)
	if err != nil {
		return err
	}
	if err := c.store.Save(row); err != nil {
		return err
	}
	log.Debug().Str("room", row.RoomID).Int64("seq", row.Seq).Str("id", row.ID).Msg("message saved to ScyllaDB")
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
