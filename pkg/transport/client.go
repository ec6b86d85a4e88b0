// Package transport is the client side of the gateway websocket. A Client is
// both the room's message channel and its membership channel.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mahaj/chatroom/pkg/model"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a frame to the gateway.
	writeWait = 10 * time.Second

	// How long Close waits for the gateway to close its side.
	closeGrace = time.Second

	sendBuffer = 256
)

var ErrClosed = errors.New("transport: client closed")

type loginRequest struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	UserAvatar string `json:"user_avatar,omitempty"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Login asks the api service for an identity token.
func Login(ctx context.Context, apiAddr string, user model.User) (string, error) {
	reqBody, err := json.Marshal(loginRequest{UserID: user.ID, Username: user.Username, UserAvatar: user.UserAvatar})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(apiAddr, "/")+"/login", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed: %s", strings.TrimSpace(string(body)))
	}

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("login: decode: %w", err)
	}
	return loginResp.Token, nil
}

// Client is a websocket connection to the gateway for one room.
type Client struct {
	conn    *websocket.Conn
	send    chan model.Envelope
	inbound chan model.Message

	quit       chan struct{}
	closeOnce  sync.Once
	readDone   chan struct{}
	writerDone chan struct{}
}

// Dial connects to the gateway. gatewayAddr is host:port or a ws:// URL.
func Dial(ctx context.Context, gatewayAddr, room, token string) (*Client, error) {
	u, err := gatewayURL(gatewayAddr)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("room", room)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Add("Authorization", "Bearer "+token)

	log.Debug().Str("url", u.String()).Msg("connecting to gateway")
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", u.Host, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", u.Host, err)
	}
	return newClient(conn), nil
}

func newClient(conn *websocket.Conn) *Client {
	c := &Client{
		conn:       conn,
		send:       make(chan model.Envelope, sendBuffer),
		inbound:    make(chan model.Message, sendBuffer),
		quit:       make(chan struct{}),
		readDone:   make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()
	return c
}

func gatewayURL(addr string) (*url.URL, error) {
	if !strings.Contains(addr, "://") {
		return &url.URL{Scheme: "ws", Host: addr, Path: "/ws"}, nil
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("gateway address %q: %w", addr, err)
	}
	if u.Path == "" {
		u.Path = "/ws"
	}
	return u, nil
}

// Inbound delivers messages relayed from other connections in the room. It is
// closed when the connection ends.
func (c *Client) Inbound() <-chan model.Message { return c.inbound }

// Send queues msg for the gateway.
func (c *Client) Send(ctx context.Context, msg model.Message) error {
	return c.enqueue(ctx, model.Envelope{Kind: model.FrameMessage, Message: &msg})
}

// Leave tells the gateway the user is leaving the room.
func (c *Client) Leave(ctx context.Context, user model.User) error {
	return c.enqueue(ctx, model.Envelope{Kind: model.FrameLeave, User: &user})
}

func (c *Client) enqueue(ctx context.Context, env model.Envelope) error {
	select {
	case <-c.quit:
		return ErrClosed
	default:
	}
	select {
	case c.send <- env:
		return nil
	case <-c.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes queued frames, sends a close frame and waits briefly for the
// gateway to hang up.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.quit) })
	<-c.writerDone
	return nil
}

// readPump decodes gateway frames into Inbound. A websocket frame may hold
// several newline-separated envelopes.
func (c *Client) readPump() {
	defer func() {
		close(c.inbound)
		close(c.readDone)
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("gateway read")
			}
			return
		}

		dec := json.NewDecoder(bytes.NewReader(data))
		for {
			var env model.Envelope
			if err := dec.Decode(&env); err != nil {
				if !errors.Is(err, io.EOF) {
					log.Warn().Err(err).Bytes("frame", data).Msg("bad frame from gateway")
				}
				break
			}
			if env.Kind != model.FrameMessage || env.Message == nil {
				continue
			}
			select {
			case c.inbound <- *env.Message:
			case <-c.quit:
				return
			}
		}
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
		close(c.writerDone)
	}()
	for {
		select {
		case env := <-c.send:
			if err := c.write(env); err != nil {
				log.Warn().Err(err).Str("kind", string(env.Kind)).Msg("gateway write")
				c.drop()
				return
			}
		case <-c.quit:
			c.flush()
			return
		case <-c.readDone:
			c.drop()
			return
		}
	}
}

func (c *Client) write(env model.Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// flush writes whatever is still queued, then closes the connection cleanly.
func (c *Client) flush() {
	for {
		select {
		case env := <-c.send:
			if err := c.write(env); err != nil {
				log.Warn().Err(err).Str("kind", string(env.Kind)).Msg("gateway write")
				return
			}
			continue
		default:
		}
		break
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		log.Debug().Err(err).Msg("write close")
		return
	}
	select {
	case <-c.readDone:
	case <-time.After(closeGrace):
	}
}

// drop marks the client closed after the connection failed so senders stop
// blocking.
func (c *Client) drop() {
	c.closeOnce.Do(func() { close(c.quit) })
}
