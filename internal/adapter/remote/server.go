// Package remote exposes visualizer settings over a websocket so a second
// device can act as the settings panel.
//
// Clients send JSON commands and receive the current settings plus every
// change published on the event bus, whoever made it.
package remote

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/ports"
)

// Path is the websocket endpoint.
const Path = "/ws"

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
	maxMessage   = 16 << 10
)

// SettingsController is the part of the settings service the server drives.
type SettingsController interface {
	Current() domain.VisualizationSettings
	Update(patch domain.SettingsPatch) (domain.VisualizationSettings, error)
	Reset() domain.VisualizationSettings
}

// PlaybackController is the optional transport the server drives.
type PlaybackController interface {
	Play() error
	Pause() error
	Toggle() error
}

// Server is a websocket settings server.
//
// Thread-safety: Server is safe for concurrent use. Event handlers never block
// on a slow client; a client whose queue is full is disconnected.
type Server struct {
	logger   *slog.Logger
	settings SettingsController
	playback PlaybackController
	bus      ports.EventBus
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	subs    []domain.SubscriptionID
	http    *http.Server
	closed  bool

	wg sync.WaitGroup
}

// NewServer creates a server and subscribes it to the bus. playback may be nil,
// in which case transport commands are rejected.
func NewServer(
	logger *slog.Logger,
	settings SettingsController,
	playback PlaybackController,
	bus ports.EventBus,
) *Server {
	s := &Server{
		logger:   logger.With(slog.String("component", "remote")),
		settings: settings,
		playback: playback,
		bus:      bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // the panel is served from other origins on the LAN
			},
		},
		clients: make(map[*client]struct{}),
	}

	s.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventSettingsUpdated, s.handleSettingsUpdated),
		bus.Subscribe(domain.EventLoopStateChanged, s.handleLoopStateChanged),
		bus.Subscribe(domain.EventPlaybackChanged, s.handlePlaybackChanged),
	}
	return s
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)
	return mux
}

// Serve accepts connections on l until Close is called.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.http
	s.mu.Unlock()

	s.logger.Info("remote control listening", slog.String("addr", l.Addr().String()))
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe listens on addr and serves until Close is called.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return domain.NewServiceError("RemoteServer", "ListenAndServe", "failed to listen on "+addr, err)
	}
	return s.Serve(l)
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client, stops the HTTP server and unsubscribes from
// the bus. It is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, id := range s.subs {
		s.bus.Unsubscribe(id)
	}
	s.subs = nil
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	srv := s.http
	s.mu.Unlock()

	for _, c := range clients {
		s.drop(c)
	}

	var err error
	if srv != nil {
		err = srv.Close()
	}
	s.wg.Wait()
	s.logger.Debug("remote control closed")
	return err
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	conn.SetReadLimit(maxMessage)

	c := &client{conn: conn, send: make(chan outbound, sendBuffer), done: make(chan struct{})}
	// Queued before registration so it precedes any broadcast.
	c.send <- settingsMessage(s.settings.Current())

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	total := len(s.clients)
	s.wg.Add(2)
	s.mu.Unlock()

	s.logger.Info("client connected",
		slog.String("remote_addr", conn.RemoteAddr().String()),
		slog.Int("clients", total))

	go s.writeLoop(c)
	go s.readLoop(c)
}

// readLoop handles commands until the connection fails.
func (s *Server) readLoop(c *client) {
	defer s.wg.Done()
	defer s.drop(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("client read failed", slog.Any("error", err))
			}
			return
		}
		if reply, ok := s.handleCommand(data); ok {
			s.enqueue(c, reply)
		}
	}
}

// writeLoop is the only writer of c.conn.
func (s *Server) writeLoop(c *client) {
	defer s.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				s.logger.Warn("error sending to client", slog.Any("error", err))
				s.drop(c)
				return
			}
		}
	}
}

// handleCommand returns the direct reply to one command, if any. Successful
// changes reply through the bus broadcast instead.
func (s *Server) handleCommand(data []byte) (outbound, bool) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return errorMessage(domain.NewValidationError("message", string(data), "malformed JSON")), true
	}

	switch cmd.Type {
	case CommandGet:
		return settingsMessage(s.settings.Current()), true

	case CommandUpdate:
		if cmd.Settings == nil || cmd.Settings.IsEmpty() {
			return settingsMessage(s.settings.Current()), true
		}
		if _, err := s.settings.Update(*cmd.Settings); err != nil {
			return errorMessage(err), true
		}
		return outbound{}, false

	case CommandReset:
		s.settings.Reset()
		return outbound{}, false

	case CommandPlay, CommandPause, CommandToggle:
		if s.playback == nil {
			return errorMessage(domain.NewValidationError("type", string(cmd.Type), "playback control is not available")), true
		}
		var err error
		switch cmd.Type {
		case CommandPlay:
			err = s.playback.Play()
		case CommandPause:
			err = s.playback.Pause()
		default:
			err = s.playback.Toggle()
		}
		if err != nil {
			return errorMessage(err), true
		}
		return outbound{}, false

	default:
		return errorMessage(domain.NewValidationError("type", string(cmd.Type), "unknown command")), true
	}
}

func (s *Server) handleSettingsUpdated(event domain.Event) {
	e, ok := event.(domain.SettingsUpdatedEvent)
	if !ok {
		return
	}
	s.broadcast(settingsMessage(e.Current))
}

func (s *Server) handleLoopStateChanged(event domain.Event) {
	e, ok := event.(domain.LoopStateChangedEvent)
	if !ok {
		return
	}
	s.broadcast(outbound{Type: MessageLoop, Mode: e.Mode, Running: &e.Running})
}

func (s *Server) handlePlaybackChanged(event domain.Event) {
	e, ok := event.(domain.PlaybackChangedEvent)
	if !ok {
		return
	}
	s.broadcast(outbound{Type: MessagePlayback, Status: e.Status.String(), Position: e.Position.Seconds()})
}

func (s *Server) broadcast(msg outbound) {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		s.enqueue(c, msg)
	}
}

// enqueue never blocks; a full queue means the client cannot keep up.
func (s *Server) enqueue(c *client, msg outbound) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		s.logger.Warn("client too slow, disconnecting", slog.String("remote_addr", c.conn.RemoteAddr().String()))
		s.drop(c)
	}
}

// drop removes c and closes its connection once.
func (s *Server) drop(c *client) {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()

		s.mu.Lock()
		delete(s.clients, c)
		total := len(s.clients)
		s.mu.Unlock()

		s.logger.Info("client disconnected", slog.Int("clients", total))
	})
}

type client struct {
	conn *websocket.Conn
	send chan outbound
	done chan struct{}
	once sync.Once
}
