// Package session implements the single-peer session lifecycle: the
// handshake/keepalive/teardown state machine described in spec.md §4.3.
package session

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/proto"
	"github.com/vdc-project/vdchost/pkg/vlog"
)

// State is a session lifecycle stage.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateHelloReceived
	StateActive
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateHelloReceived:
		return "hello-received"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Timing constants from spec.md §4.3.
const (
	HelloTimeout = 30 * time.Second
	PingInterval = 60 * time.Second
	PongTimeout  = 10 * time.Second
)

// DisconnectHook is invoked exactly once when a session tears down, for
// any reason.
type DisconnectHook func(s *Session)

// Session owns one TCP peer connection and its framing reader/writer, the
// handshake/keepalive timers, and last-activity bookkeeping. All mutation
// happens from the session's own read loop and keepalive goroutine; the
// mutex guards only the fields the dispatcher/push pipeline touch from the
// host's event loop.
type Session struct {
	ID         string
	conn       net.Conn
	reader     *proto.Reader
	writer     *proto.Writer
	remoteAddr string
	connectedAt time.Time

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	peerVersion  string

	pongCh chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup

	onDisconnect DisconnectHook
	closeOnce    sync.Once
}

// New wraps an accepted connection in a Session in StateConnected. It
// starts no goroutines: the caller runs RunHelloTimer in its own goroutine
// and drives the read loop through ReadFrame.
func New(conn net.Conn, onDisconnect DisconnectHook) *Session {
	now := time.Now()
	s := &Session{
		ID:           uuid.NewString(),
		conn:         conn,
		reader:       proto.NewReader(conn),
		writer:       proto.NewWriter(conn),
		remoteAddr:   conn.RemoteAddr().String(),
		connectedAt:  now,
		state:        StateConnected,
		lastActivity: now,
		pongCh:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		onDisconnect: onDisconnect,
	}
	return s
}

// State returns the session's current lifecycle stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemoteAddr returns the peer's address as captured at accept time.
func (s *Session) RemoteAddr() string { return s.remoteAddr }

func (s *Session) setState(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity)
}

// Write sends an envelope over the session's framed connection. Safe to
// call from any goroutine; the underlying proto.Writer serializes one
// write at a time as spec.md §5 requires ("the session writer is shared
// only by the session itself; all outbound writes go through a single
// serialized path").
func (s *Session) Write(e proto.Envelope) error {
	return s.writer.WriteEnvelope(e)
}

// OnHelloReceived cancels the hello timer (handled by the caller observing
// the state transition) and records the peer's advertised version,
// transitioning to HelloReceived.
func (s *Session) OnHelloReceived(peerVersion string) {
	s.mu.Lock()
	s.peerVersion = peerVersion
	s.state = StateHelloReceived
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// PeerVersion returns the version string the peer sent in its hello, if any.
func (s *Session) PeerVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerVersion
}

// OnHelloResponseSent transitions to Active and starts the keepalive loop.
func (s *Session) OnHelloResponseSent() {
	s.setState(StateActive)
	s.wg.Add(1)
	go s.keepaliveLoop()
}

// OnPongReceived signals the outstanding pong wait, if any.
func (s *Session) OnPongReceived() {
	s.touch()
	select {
	case s.pongCh <- struct{}{}:
	default:
	}
}

// OnByeReceived transitions to Closing so the caller can drain queued
// writes before tearing down.
func (s *Session) OnByeReceived() {
	s.setState(StateClosing)
}

// RunHelloTimer waits up to HelloTimeout for the session to leave
// StateConnected; on timeout it closes the session. The caller starts this
// in its own goroutine immediately after New.
func (s *Session) RunHelloTimer() {
	timer := time.NewTimer(HelloTimeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		if s.State() == StateConnected {
			vlog.WithSession(s.remoteAddr).Warnf("session: hello timeout after %s", HelloTimeout)
			s.Close()
		}
	case <-s.done:
	}
}

// keepaliveLoop pings every PingInterval, skipping a ping if there was any
// activity within the last interval, and closes the session if a pong
// doesn't arrive within PongTimeout.
func (s *Session) keepaliveLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if s.idleFor() < PingInterval {
				continue
			}
			if err := s.Write(pingEnvelope()); err != nil {
				vlog.WithSession(s.remoteAddr).Warnf("session: ping write failed: %v", err)
				s.Close()
				return
			}
			select {
			case <-s.pongCh:
			case <-time.After(PongTimeout):
				vlog.WithSession(s.remoteAddr).Warnf("session: pong timeout after %s", PongTimeout)
				s.Close()
				return
			case <-s.done:
				return
			}
		}
	}
}

// Close tears the session down: cancels timers, closes the connection, and
// invokes the disconnect hook exactly once.
func (s *Session) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		close(s.done)
		s.setState(StateDisconnected)
		closeErr = s.conn.Close()
		s.wg.Wait()
		if s.onDisconnect != nil {
			s.onDisconnect(s)
		}
	})
	return closeErr
}

// ReadFrame reads and decodes the next envelope from the peer. It returns
// *proto.FramingError for fatal stream violations (caller must close the
// session) and a plain error for a recoverable codec violation (caller
// logs and continues per spec.md §4.2/§7).
func (s *Session) ReadFrame() (proto.Envelope, error) {
	raw, err := s.reader.ReadFrame()
	if err != nil {
		return proto.Envelope{}, err
	}
	s.touch()
	e, err := proto.Decode(raw)
	if err != nil {
		return proto.Envelope{}, fmt.Errorf("codec violation from %s, hex=%s: %w", s.remoteAddr, proto.HexDump(raw), err)
	}
	return e, nil
}

func pingEnvelope() proto.Envelope {
	return proto.NewNotification(proto.TagPing, proptree.Null())
}
