package main

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kuticlicker/backend/game"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBufferSize = 256
)

var (
	errClientClosed = errors.New("client closed")
	errSendFull     = errors.New("send buffer full")
)

// Client is a middleman between the websocket connection and the game service.
type Client struct {
	svc     *game.Service
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	id      string
	log     zerolog.Logger
}

func newClient(svc *game.Service, conn *websocket.Conn, limiter *rate.Limiter, log zerolog.Logger) *Client {
	return &Client{
		svc:     svc,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		limiter: limiter,
		log:     log,
	}
}

// Send queues a frame without blocking the game loop.
func (c *Client) Send(b []byte) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}
	select {
	case c.send <- b:
		return nil
	default:
		return errSendFull
	}
}

// Close asks the write pump to send a close frame and hang up.
func (c *Client) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// readPump pumps messages from the websocket connection to the service.
// Frames are stamped on arrival; the click gate judges that time.
func (c *Client) readPump() {
	defer func() {
		c.svc.Disconnect(c.id)
		c.Close()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	dropped := 0
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Str("conn", c.id).Msg("read error")
			}
			break
		}
		receivedAt := time.Now()
		if !c.limiter.Allow() {
			dropped++
			if dropped == 1 || dropped%100 == 0 {
				c.log.Warn().Str("conn", c.id).Int("dropped", dropped).Msg("flood guard dropping messages")
			}
			continue
		}
		c.svc.Handle(c.id, message, receivedAt)
	}
}

// writePump pumps messages from the service to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes whatever is still queued, so a kicked client sees why.
func (c *Client) flush() {
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowsAnyOrigin(s.cfg.AllowedOrigins) {
				return true
			}
			for _, o := range s.cfg.AllowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
}

// serveWs handles websocket requests from the peer.
func (s *server) serveWs(c *gin.Context) {
	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	limiter := rate.NewLimiter(rate.Limit(s.cfg.MessageRate), s.cfg.MessageBurst)
	client := newClient(s.svc, conn, limiter, s.log)
	client.id = s.svc.Connect(client)
	s.log.Debug().Str("conn", client.id).Str("ip", c.ClientIP()).Msg("websocket connected")

	go client.writePump()
	go client.readPump()
}
