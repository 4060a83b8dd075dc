// Package mopadtest provides an in-process fake server for tests: it accepts
// the websocket handshake, records decoded commands, lets the test script
// authentication replies and push arbitrary events, and serves the auxiliary
// JSON resources.
package mopadtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rohow/mopad-client/types"
)

type Server struct {
	httpServer *httptest.Server
	upgrader   websocket.Upgrader

	// AuthHandler scripts the reply to Login/Register/Relogin commands. The
	// returned event is sent back on the same connection; nil means no reply.
	AuthHandler func(types.Command) types.Event

	mu        sync.Mutex
	conns     map[*websocket.Conn]*sync.Mutex
	commands  []types.Command
	commandCh chan types.Command

	Teams     []string
	Locations map[int64]types.Location
	Calendar  []byte
}

func NewServer() *Server {
	s := &Server{
		conns:     make(map[*websocket.Conn]*sync.Mutex),
		commandCh: make(chan types.Command, 64),
		Teams:     []string{},
		Locations: make(map[int64]types.Location),
	}
	router := mux.NewRouter()
	router.HandleFunc("/api", s.handleWS)
	router.HandleFunc("/teams.json", s.handleTeams).Methods(http.MethodGet)
	router.HandleFunc("/locations.json", s.handleLocations).Methods(http.MethodGet)
	router.HandleFunc("/talks.ics", s.handleCalendar).Methods(http.MethodGet)
	s.httpServer = httptest.NewServer(router)
	return s
}

// URL is the http base URL of the fake server, suitable as a session's
// server URL.
func (s *Server) URL() string { return s.httpServer.URL }

func (s *Server) Close() {
	s.CloseClients()
	s.httpServer.Close()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	writeMu := &sync.Mutex{}
	s.mu.Lock()
	s.conns[conn] = writeMu
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		cmd, err := types.DecodeCommand(raw)
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.commands = append(s.commands, cmd)
		s.mu.Unlock()
		select {
		case s.commandCh <- cmd:
		default:
		}
		if types.IsAuthCommand(cmd) && s.AuthHandler != nil {
			if reply := s.AuthHandler(cmd); reply != nil {
				payload, err := types.MarshalEvent(reply)
				if err != nil {
					continue
				}
				writeMu.Lock()
				conn.WriteMessage(websocket.TextMessage, payload)
				writeMu.Unlock()
			}
		}
	}
}

// Push sends an event to every connected client.
func (s *Server) Push(ev types.Event) error {
	payload, err := types.MarshalEvent(ev)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, writeMu := range s.conns {
		writeMu.Lock()
		conn.WriteMessage(websocket.TextMessage, payload)
		writeMu.Unlock()
	}
	return nil
}

// CloseClients drops all websocket connections, simulating a server-side
// disconnect.
func (s *Server) CloseClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
		delete(s.conns, conn)
	}
}

// ClientCount reports the number of open websocket connections.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// WaitCommand blocks until the next command arrives or the timeout expires.
func (s *Server) WaitCommand(timeout time.Duration) (types.Command, bool) {
	select {
	case cmd := <-s.commandCh:
		return cmd, true
	case <-time.After(timeout):
		return nil, false
	}
}

// Commands returns a snapshot of all commands received so far.
func (s *Server) Commands() []types.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Command(nil), s.commands...)
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Teams)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Locations)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/calendar")
	w.Write(s.Calendar)
}
