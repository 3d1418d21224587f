package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/lotas/autopin/internal/applog"
	"github.com/lotas/autopin/internal/pinner"
	"nhooyr.io/websocket"
)

// ErrNotConnected is returned by Request when no extension is connected,
// or when the extension goes away before answering.
var ErrNotConnected = errors.New("no extension connected")

// IncomingMsg is a message from the extension. Messages with an ID and
// no Type are responses to an earlier OutgoingMsg.
type IncomingMsg struct {
	Type       string          `json:"type,omitempty"`
	Tab        json.RawMessage `json:"tab,omitempty"`
	Tabs       json.RawMessage `json:"tabs,omitempty"`
	TabID      int             `json:"tabId,omitempty"`
	URL        *string         `json:"url,omitempty"`
	Pinned     bool            `json:"pinned,omitempty"`
	MenuItemID string          `json:"menuItemId,omitempty"`
	// Command response fields
	ID    string `json:"id,omitempty"`
	OK    *bool  `json:"ok,omitempty"`
	Error string `json:"error,omitempty"`
}

// OutgoingMsg is a command to the extension.
type OutgoingMsg struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	TabID  int    `json:"tabId,omitempty"`
	TabIDs []int  `json:"tabIds,omitempty"`
	Index  *int   `json:"index,omitempty"`
	Pinned *bool  `json:"pinned,omitempty"`
	*pinner.MenuState
}

// Server manages the WebSocket connection to the extension.
type Server struct {
	port    int
	msgs    chan IncomingMsg
	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context
	pending map[string]chan IncomingMsg
}

// New creates a new Server. Port 0 means the caller manages the listener.
func New(port int) *Server {
	return &Server{
		port:    port,
		msgs:    make(chan IncomingMsg, 64),
		pending: make(map[string]chan IncomingMsg),
	}
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Messages returns the channel of event messages from the extension.
// Responses to Request are not delivered here.
func (s *Server) Messages() <-chan IncomingMsg {
	return s.msgs
}

// Connected reports whether an extension is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send sends a command to the connected extension. A message without an
// ID gets a fresh one. Nothing is sent when no extension is connected.
func (s *Server) Send(msg OutgoingMsg) error {
	s.mu.Lock()
	conn := s.conn
	ctx := s.connCtx
	s.mu.Unlock()

	if conn == nil {
		applog.Debug("ws.drop", "action", msg.Action)
		return nil
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	applog.Info("ws.send", "action", msg.Action, "id", msg.ID)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// Request sends msg and waits for the response carrying the same ID.
// It fails with ErrNotConnected if the connection closes first.
func (s *Server) Request(ctx context.Context, msg OutgoingMsg) (IncomingMsg, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	ch := make(chan IncomingMsg, 1)
	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return IncomingMsg{}, ErrNotConnected
	}
	s.pending[msg.ID] = ch
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, msg.ID)
		s.mu.Unlock()
	}()

	if err := s.Send(msg); err != nil {
		return IncomingMsg{}, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return IncomingMsg{}, ErrNotConnected
		}
		return resp, nil
	case <-ctx.Done():
		return IncomingMsg{}, ctx.Err()
	}
}

// deliver hands a response to its waiting Request. It reports false
// when nobody is waiting for that ID.
func (s *Server) deliver(msg IncomingMsg) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.pending[msg.ID]
	if !ok {
		return false
	}
	delete(s.pending, msg.ID)
	ch <- msg
	return true
}

// failPending closes every waiting Request's channel. Callers hold s.mu.
func (s *Server) failPending() {
	for id, ch := range s.pending {
		close(ch)
		delete(s.pending, id)
	}
}

// Handler returns an http.Handler that accepts WebSocket upgrades.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			applog.Error("ws.accept", err)
			return
		}

		conn.SetReadLimit(16 << 20) // snapshots of large sessions

		ctx := r.Context()
		s.mu.Lock()
		if s.conn != nil {
			applog.Info("ws.replaced", "pending", len(s.pending))
			s.conn.CloseNow()
			s.failPending()
		}
		s.conn = conn
		s.connCtx = ctx
		s.mu.Unlock()

		applog.Info("ws.connected", "remote", r.RemoteAddr)

		defer func() {
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
				s.connCtx = nil
				s.failPending()
			}
			s.mu.Unlock()
			conn.CloseNow()
			applog.Info("ws.disconnected")
		}()

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var msg IncomingMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				applog.Error("ws.parse", err)
				continue
			}
			if msg.Type == "" {
				if msg.ID == "" || !s.deliver(msg) {
					applog.Debug("ws.unmatched", "id", msg.ID)
				}
				continue
			}
			applog.Debug("ws.recv", "type", msg.Type)
			select {
			case s.msgs <- msg:
			case <-ctx.Done():
				return
			}
		}
	})
}

// ListenAndServe starts the WebSocket server on the configured port.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	applog.Info("server.start", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
