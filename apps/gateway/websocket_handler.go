package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mahaj/chatroom/pkg/auth"
	"github.com/mahaj/chatroom/pkg/chat"
	"github.com/mahaj/chatroom/pkg/model"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from peer. A full envelope carries two
	// details of up to chat.MaxContentLength runes each.
	maxMessageSize = 16 * 1024

	defaultRoom = "general"
)

var newline = []byte{'\n'}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound frames.
	send chan []byte

	// Identity from the token.
	User model.User

	// Room the connection is in.
	Room string

	// ConnID marks frames from this connection so they are not echoed back.
	ConnID string

	// Set by the hub once presence has been removed. Owned by Hub.Run.
	left bool
}

// readPump pumps frames from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn", c.ConnID).Msg("read")
			}
			break
		}

		env, ok := c.decode(data)
		if !ok {
			continue
		}
		switch env.Kind {
		case model.FrameLeave:
			c.hub.leave <- c
		case model.FrameMessage:
			c.hub.broadcast <- env
		}
	}
}

// decode turns a client frame into an envelope for the hub. Frames that are
// not JSON envelopes are taken as plain text from the connection's user.
func (c *Client) decode(data []byte) (*model.Envelope, bool) {
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Kind == "" {
		content := string(bytes.TrimSpace(data))
		if content == "" {
			return nil, false
		}
		msg := model.New(c.hub.seq, model.SystemClock{}, model.TypeText, c.User, content, nil)
		env = model.Envelope{Kind: model.FrameMessage, Message: &msg}
	}

	env.Room = c.Room
	env.Origin = c.ConnID

	switch env.Kind {
	case model.FrameLeave:
		return &env, true
	case model.FrameMessage:
		if env.Message == nil {
			log.Warn().Str("conn", c.ConnID).Msg("message frame without message")
			return nil, false
		}
		if env.Message.Main.ID != c.User.ID {
			log.Warn().Str("conn", c.ConnID).Str("user", c.User.ID).Str("author", env.Message.Main.ID).Msg("dropping message authored as another user")
			return nil, false
		}
		if contentTooLong(env.Message) {
			log.Warn().Str("conn", c.ConnID).Msg("dropping message over length limit")
			return nil, false
		}
		if env.Message.Type == model.TypeSystem {
			env.Message.Reply = nil
		}
		return &env, true
	default:
		log.Warn().Str("conn", c.ConnID).Str("kind", string(env.Kind)).Msg("unknown frame kind")
		return nil, false
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued frames to the current websocket message, one per line.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *Hub, signer *auth.Signer, w http.ResponseWriter, r *http.Request) {
	tokenString := r.Header.Get("Authorization")
	if tokenString == "" {
		// Some websocket clients cannot set headers.
		tokenString = r.URL.Query().Get("token")
	}
	if tokenString == "" {
		log.Warn().Msg("unauthorized: no token provided")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, err := signer.ValidateToken(auth.BearerToken(tokenString))
	if err != nil {
		log.Warn().Err(err).Msg("unauthorized: invalid token")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	room := r.URL.Query().Get("room")
	if room == "" {
		room = defaultRoom
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("upgrade")
		return
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		User:   claims.User(),
		Room:   room,
		ConnID: uuid.NewString(),
	}
	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()
}

// contentTooLong reports whether a relayed message exceeds the client limit.
func contentTooLong(m *model.Message) bool {
	return len([]rune(m.Main.Content)) > chat.MaxContentLength
}
