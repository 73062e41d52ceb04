package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/othello-viewer/internal/entity"
	"github.com/rocketscienceinc/othello-viewer/internal/render"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

type sessionController interface {
	Start(ctx context.Context, agentA, agentB entity.AgentKind) error
	Reset()
	Snapshot() entity.Snapshot
}

type fragmentRenderer interface {
	Fragments(snapshot entity.Snapshot) (*render.Fragments, error)
}

type handlerFunc func(ctx context.Context, message *Message, client *client) error

type Server struct {
	logger     *slog.Logger
	controller sessionController
	renderer   fragmentRenderer
	upgrader   websocket.Upgrader

	handlers map[string]handlerFunc

	clientsMutex sync.RWMutex
	clients      map[string]*client
}

func New(logger *slog.Logger, controller sessionController, renderer fragmentRenderer) *Server {
	server := &Server{
		logger:     logger.With("component", "websocket"),
		controller: controller,
		renderer:   renderer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the page is served from the HTTP port, so the origin never matches the socket port
			CheckOrigin: func(*http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
		clients:  make(map[string]*client),
	}

	server.handlers[actionGameStart] = server.handleGameStart
	server.handlers[actionGameReset] = server.handleGameReset

	return server
}

// Handler - routes /ws to the upgrade handler. ctx bounds the work started by client messages.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()

		that.closeClients()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down websocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Broadcast - sends the snapshot, with its rendered fragments, to every connected client.
// Slow clients whose buffer is full are dropped.
func (that *Server) Broadcast(snapshot entity.Snapshot) {
	log := that.logger.With("method", "Broadcast")

	data, err := that.stateMessage(snapshot)
	if err != nil {
		log.Error("failed to build state message", "error", err)
		return
	}

	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	for _, c := range that.clients {
		if !c.enqueue(data) {
			log.Warn("client is too slow, dropping", "clientID", c.id)
			go c.close()
		}
	}
}

// upgradeToWebSocket - upgrades the connection and serves it until the client goes away.
func (that *Server) upgradeToWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(uuid.NewString(), conn)
	log = log.With("clientID", c.id)

	that.clientsMutex.Lock()
	that.clients[c.id] = c
	that.clientsMutex.Unlock()

	defer func() {
		that.clientsMutex.Lock()
		delete(that.clients, c.id)
		that.clientsMutex.Unlock()

		c.close()
	}()

	log.Info("WebSocket connection established")

	go c.writePump(log)

	data, err := that.stateMessage(that.controller.Snapshot())
	if err != nil {
		log.Error("failed to build state message", "error", err)
		return
	}
	c.enqueue(data)

	if err = that.handleMessages(ctx, c); err != nil {
		log.Info("WebSocket connection closed", "reason", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, c *client) error {
	log := that.logger.With("method", "handleMessages", "clientID", c.id)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, body, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(body, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError(c, "", "invalid message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(c, message.Action, "unknown action")
			continue
		}

		if err = handler(ctx, &message, c); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) stateMessage(snapshot entity.Snapshot) ([]byte, error) {
	fragments, err := that.renderer.Fragments(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to render fragments: %w", err)
	}

	return encodeMessage(actionState, StatePayload{
		Snapshot: snapshot,
		HTML:     fragments,
	})
}

func (that *Server) sendError(c *client, action, text string) {
	data, err := encodeMessage(action, ErrorPayload{Error: text})
	if err != nil {
		that.logger.Error("failed to encode error message", "error", err)
		return
	}

	c.enqueue(data)
}

func (that *Server) closeClients() {
	that.clientsMutex.RLock()
	defer that.clientsMutex.RUnlock()

	for _, c := range that.clients {
		c.close()
	}
}

// client is one browser connection. Only writePump writes to conn.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(id string, conn *websocket.Conn) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (that *client) enqueue(data []byte) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.send <- data:
		return true
	default:
		return false
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
		_ = that.conn.Close()
	})
}

func (that *client) writePump(log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-that.done:
			return
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("failed to write message", "error", err)
				that.close()
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.close()
				return
			}
		}
	}
}
