package main

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mahaj/chatroom/pkg/model"
	"github.com/mahaj/chatroom/pkg/snowflake"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// kafkaWriter and kafkaReader are the parts of kafka-go the hub uses.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type presenceRegistry interface {
	Join(ctx context.Context, room, userID string) error
	Leave(ctx context.Context, room, userID string) error
}

type Hub struct {
	rooms      map[string]map[*Client]bool // room -> clients
	broadcast  chan *model.Envelope
	register   chan *Client
	unregister chan *Client
	leave      chan *Client
	mu         sync.RWMutex
	producer   kafkaWriter
	consumer   kafkaReader
	presence   presenceRegistry
	seq        *snowflake.Node
}

func NewHub(producer kafkaWriter, consumer kafkaReader, presence presenceRegistry, seq *snowflake.Node) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *model.Envelope),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		leave:      make(chan *Client),
		producer:   producer,
		consumer:   consumer,
		presence:   presence,
		seq:        seq,
	}
}

// Fanout delivers every record on the topic to the room's connections,
// skipping the connection the frame came from. Each gateway reads the topic
// with its own group, so all gateways see every record.
func (h *Hub) Fanout(ctx context.Context) {
	defer h.consumer.Close()
	for {
		m, err := h.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("gateway consumer")
			}
			return
		}

		var env model.Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			log.Warn().Err(err).Msg("failed to unmarshal record from Kafka")
			continue
		}

		var slow []*Client
		h.mu.RLock()
		for client := range h.rooms[env.Room] {
			if client.ConnID == env.Origin {
				continue
			}
			select {
			case client.send <- m.Value:
			default:
				slow = append(slow, client)
			}
		}
		h.mu.RUnlock()

		for _, client := range slow {
			log.Warn().Str("user", client.User.ID).Str("conn", client.ConnID).Msg("send buffer full, dropping connection")
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer h.producer.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.Room] == nil {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.mu.Unlock()

			if err := h.presence.Join(ctx, client.Room, client.User.ID); err != nil {
				log.Error().Err(err).Str("user", client.User.ID).Msg("failed to set presence")
			}
			log.Info().Str("user", client.User.ID).Str("room", client.Room).Str("conn", client.ConnID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			clients, ok := h.rooms[client.Room]
			if ok && clients[client] {
				delete(clients, client)
				close(client.send)
				if len(clients) == 0 {
					delete(h.rooms, client.Room)
				}
			} else {
				ok = false
			}
			h.mu.Unlock()
			if !ok {
				continue
			}

			// A connection that drops without a leave frame still leaves.
			if !client.left {
				h.leaveRoom(ctx, client)
			}
			log.Info().Str("user", client.User.ID).Str("room", client.Room).Msg("client unregistered")

		case client := <-h.leave:
			if !client.left {
				h.leaveRoom(ctx, client)
			}

		case env := <-h.broadcast:
			env.Seq = h.seq.Generate()

			b, err := json.Marshal(env)
			if err != nil {
				log.Error().Err(err).Msg("failed to marshal envelope")
				continue
			}

			err = h.producer.WriteMessages(ctx, kafka.Message{
				Key:   []byte(env.Room),
				Value: b,
				Time:  time.Now(),
			})
			if err != nil {
				log.Error().Err(err).Int64("seq", env.Seq).Msg("failed to write message to Kafka")
			} else {
				log.Debug().Int64("seq", env.Seq).Str("room", env.Room).Msg("message published to Kafka")
			}
		}
	}
}

func (h *Hub) leaveRoom(ctx context.Context, client *Client) {
	client.left = true
	if err := h.presence.Leave(ctx, client.Room, client.User.ID); err != nil {
		log.Error().Err(err).Str("user", client.User.ID).Msg("failed to delete presence")
	}
	log.Info().Str("user", client.User.ID).Str("room", client.Room).Msg("left room")
}
