// Package session owns the websocket connection to the server: it dials,
// authenticates, pumps events into the store and runs the reconnect policy.
// There is exactly one session per client process.
package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rohow/mopad-client/globals"
	"github.com/rohow/mopad-client/persistence"
	"github.com/rohow/mopad-client/store"
	"github.com/rohow/mopad-client/types"
)

const (
	sendChannelSize = 256
	maxMessageSize  = 1 << 20 // the Users snapshot can be large
	pongWait        = 2 * time.Minute
	pingPeriod      = time.Minute
	writeWait       = 10 * time.Second
)

var (
	ErrNotConnected     = errors.New("not connected")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSendBufferFull   = errors.New("send buffer full")
)

type Session struct {
	serverURL         string
	reconnectInterval time.Duration

	store     *store.Store
	persister persistence.Persister // may be nil
	vis       Visibility

	mu          sync.Mutex
	conn        *websocket.Conn
	sendCh      chan []byte
	pendingAuth types.Command

	// kick interrupts a reconnect wait, e.g. after LoginOrRegister.
	kick chan struct{}
}

func NewSession(serverURL string, reconnectSecs int, st *store.Store, persister persistence.Persister, vis Visibility) *Session {
	if reconnectSecs <= 0 {
		reconnectSecs = 10
	}
	if vis == nil {
		vis = AlwaysVisible()
	}
	return &Session{
		serverURL:         serverURL,
		reconnectInterval: time.Duration(reconnectSecs) * time.Second,
		store:             st,
		persister:         persister,
		vis:               vis,
		kick:              make(chan struct{}, 1),
	}
}

// Run drives the connect/reconnect cycle until ctx is cancelled. Attempts
// only happen while visible; becoming visible triggers an immediate attempt,
// otherwise failed attempts are retried on a fixed interval.
func (s *Session) Run(ctx context.Context) {
	for {
		if err := s.waitVisible(ctx); err != nil {
			return
		}
		s.store.SetStatus(store.StatusConnecting)
		conn, err := s.dial(ctx)
		if err != nil {
			globals.AppLogger.Info("could not connect", "url", s.serverURL, "error", err)
			s.store.SetStatus(store.StatusDisconnected)
			if !s.waitRetry(ctx) {
				return
			}
			continue
		}
		s.store.SetStatus(store.StatusConnected)
		s.runConnection(ctx, conn)
		s.store.SetStatus(store.StatusDisconnected)
		s.store.ClearIdentity()
		if ctx.Err() != nil {
			return
		}
		if !s.waitRetry(ctx) {
			return
		}
	}
}

func (s *Session) waitVisible(ctx context.Context) error {
	for {
		if s.vis.Visible() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.vis.Changes():
		}
	}
}

// waitRetry sleeps for the reconnect interval. A kick or a transition to
// visible cuts the wait short; the caller re-checks visibility either way.
func (s *Session) waitRetry(ctx context.Context) bool {
	timer := time.NewTimer(s.reconnectInterval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-s.kick:
			return true
		case visible := <-s.vis.Changes():
			if visible {
				return true
			}
		case <-timer.C:
			return true
		}
	}
}

func (s *Session) dial(ctx context.Context) (*websocket.Conn, error) {
	endpoint, err := wsURL(s.serverURL)
	if err != nil {
		return nil, err
	}
	dialCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, endpoint, nil)
	return conn, err
}

// wsURL derives the websocket endpoint from the configured http(s) base.
func wsURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("unsupported server URL scheme " + u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api"
	return u.String(), nil
}

// runConnection authenticates and pumps one established connection until it
// drops or ctx is cancelled.
func (s *Session) runConnection(ctx context.Context, conn *websocket.Conn) {
	sendCh := make(chan []byte, sendChannelSize)
	doneChan := make(chan struct{})

	s.mu.Lock()
	s.conn = conn
	s.sendCh = sendCh
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.sendCh = nil
		s.mu.Unlock()
	}()

	if auth := s.takeAuthCommand(); auth != nil {
		raw, err := types.MarshalCommand(auth)
		if err != nil {
			globals.AppLogger.Error("could not marshal auth command", "error", err)
		} else {
			sendCh <- raw
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-doneChan:
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(conn, sendCh, doneChan)
	}()

	s.readLoop(conn)
	close(doneChan)
	wg.Wait()
}

// takeAuthCommand picks the credential for this connection: an explicit
// pending Login/Register wins over a stored relogin token. The pending
// command is consumed either way.
func (s *Session) takeAuthCommand() types.Command {
	s.mu.Lock()
	pending := s.pendingAuth
	s.pendingAuth = nil
	s.mu.Unlock()
	if pending != nil {
		return pending
	}
	if s.persister == nil {
		return nil
	}
	token, err := s.persister.GetToken()
	if err != nil {
		globals.AppLogger.Warn("could not read stored token", "error", err)
		return nil
	}
	if token == "" {
		return nil
	}
	return types.ReloginCommand{Token: token}
}

// readLoop pumps server events into the store. It is the only reader on the
// connection and returns when the connection drops.
func (s *Session) readLoop(conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				globals.AppLogger.Info("connection closed", "error", err)
			}
			return
		}
		ev, err := types.DecodeEvent(raw)
		if err != nil {
			globals.AppLogger.Warn("could not decode event", "error", err)
			continue
		}
		s.handleTokenSideEffects(ev)
		s.store.ApplyEvent(ev)
	}
}

// handleTokenSideEffects keeps the persisted relogin token in step with the
// authentication events: success stores the fresh token, an authentication
// error means the credential is dead and the token is discarded.
func (s *Session) handleTokenSideEffects(ev types.Event) {
	if s.persister == nil {
		return
	}
	switch e := ev.(type) {
	case *types.AuthenticationSuccessEvent:
		if e.Token != "" {
			if err := s.persister.StoreToken(e.Token); err != nil {
				globals.AppLogger.Warn("could not store token", "error", err)
			}
		}
	case *types.AuthenticationErrorEvent:
		if err := s.persister.DeleteToken(); err != nil {
			globals.AppLogger.Warn("could not delete token", "error", err)
		}
	}
}

// writeLoop is the only writer on the connection. It drains sendCh and keeps
// the connection alive with pings.
func (s *Session) writeLoop(conn *websocket.Conn, sendCh chan []byte, doneChan chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case message := <-sendCh:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				globals.AppLogger.Info("could not write to connection, exiting write loop")
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				globals.AppLogger.Info("could not send ping message, exiting write loop")
				return
			}

		case <-doneChan:
			return
		}
	}
}

// Send transmits one command. Commands sent while disconnected are dropped,
// not queued: after the gap the server state may have diverged and a stale
// edit must not be replayed against it.
func (s *Session) Send(cmd types.Command) error {
	s.mu.Lock()
	sendCh := s.sendCh
	s.mu.Unlock()
	if sendCh == nil || s.store.Status() != store.StatusConnected {
		globals.AppLogger.Info("dropping command while disconnected", "command", cmd.CommandName())
		return ErrNotConnected
	}
	raw, err := types.MarshalCommand(cmd)
	if err != nil {
		return err
	}
	select {
	case sendCh <- raw:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// LoginOrRegister stages an explicit authentication command and forces a
// fresh connection for it. Any stored relogin token is discarded so the new
// credential is the only one in play.
func (s *Session) LoginOrRegister(cmd types.Command) error {
	if !types.IsAuthCommand(cmd) {
		return errors.New("not an authentication command")
	}
	s.store.SetAuthError("")
	if s.persister != nil {
		if err := s.persister.DeleteToken(); err != nil {
			globals.AppLogger.Warn("could not delete token", "error", err)
		}
	}
	s.mu.Lock()
	s.pendingAuth = cmd
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		// Dropping the connection restarts the cycle, which picks up the
		// pending command as the connection's first message.
		conn.Close()
	}
	select {
	case s.kick <- struct{}{}:
	default:
	}
	return nil
}
