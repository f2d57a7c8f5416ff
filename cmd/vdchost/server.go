package main

import (
	"fmt"
	"net"
	"sync"

	"github.com/vdc-project/vdchost/pkg/dispatch"
	"github.com/vdc-project/vdchost/pkg/entity"
	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/proto"
	"github.com/vdc-project/vdchost/pkg/push"
	"github.com/vdc-project/vdchost/pkg/session"
	"github.com/vdc-project/vdchost/pkg/verrors"
	"github.com/vdc-project/vdchost/pkg/vlog"
)

// Server owns the listener and the single-session gate, grounded on
// pkg/newtlab/bridge.go's accept-loop-per-listener shape, adapted here for
// a single-peer protocol (spec.md §4.3).
type Server struct {
	host     *entity.Host
	registry *dispatch.Registry
	sessions *session.Registry
	pipeline *push.Pipeline

	listener net.Listener

	mu  sync.Mutex
	cur *session.Session // active session, outside entity.SessionHandle's push-only scope
}

func (srv *Server) setCurrent(s *session.Session) {
	srv.mu.Lock()
	srv.cur = s
	srv.mu.Unlock()
}

func (srv *Server) clearCurrent(s *session.Session) {
	srv.mu.Lock()
	if srv.cur == s {
		srv.cur = nil
	}
	srv.mu.Unlock()
}

func (srv *Server) current() *session.Session {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	return srv.cur
}

// NewServer builds a dispatch registry wired to host and a fresh session
// registry enforcing the single-active-session policy.
func NewServer(host *entity.Host) *Server {
	reg := dispatch.NewRegistry()
	registerHandlers(reg, host)

	pipeline := push.NewPipeline(host)
	pipeline.Attach()

	srv := &Server{
		host:     host,
		registry: reg,
		sessions: session.NewRegistry(),
		pipeline: pipeline,
	}
	// The remove handler lives on the Server (registerHandlers does not
	// register one) so a successful removal also emits the vanish
	// notification (spec.md §4.6), which needs the
	// concrete session to address a tag outside entity.SessionHandle's
	// push-only scope.
	reg.Register(proto.TagRemove, srv.handleRemove)
	return srv
}

func (srv *Server) handleRemove(e proto.Envelope) (proptree.Value, error) {
	uidVal, _ := e.Payload.Get("uid")
	targetUID, _ := uidVal.String()
	for _, c := range srv.host.Connectors() {
		if c.UID.String() == targetUID {
			srv.host.RemoveConnector(targetUID)
			srv.vanish(targetUID)
			return proptree.Null(), nil
		}
		if c.RemoveDevice(targetUID) {
			srv.vanish(targetUID)
			return proptree.Null(), nil
		}
	}
	return proptree.Value{}, verrors.NewNotFoundError("entity", targetUID)
}

func (srv *Server) vanish(targetUID string) {
	sess := srv.current()
	if sess == nil {
		return
	}
	body := proptree.Map(map[string]proptree.Value{"uid": proptree.String(targetUID)})
	if err := sess.Write(proto.NewNotification(proto.TagVanish, body)); err != nil {
		vlog.Logger.Warnf("vdchost: vanish write for %s failed: %v", targetUID, err)
	}
}

// Serve accepts connections on addr until the listener is closed.
func (srv *Server) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("vdchost: listen %s: %w", addr, err)
	}
	srv.listener = ln
	vlog.Logger.Infof("vdchost: listening on %s", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return nil // listener closed
		}
		go srv.handleConn(conn)
	}
}

// Stop closes the listener, ending Serve's accept loop.
func (srv *Server) Stop() error {
	if srv.listener == nil {
		return nil
	}
	return srv.listener.Close()
}

func (srv *Server) handleConn(conn net.Conn) {
	var sess *session.Session
	sess = session.New(conn, func(s *session.Session) {
		srv.sessions.Release(s)
		srv.clearCurrent(s)
		srv.host.ClearSession()
	})

	if !srv.sessions.TryAccept(sess) {
		vlog.WithSession(conn.RemoteAddr().String()).Warnf("vdchost: rejecting connection, a session is already active")
		sess.Close()
		return
	}

	go sess.RunHelloTimer()

	for {
		e, err := sess.ReadFrame()
		if err != nil {
			if _, fatal := err.(*proto.FramingError); fatal {
				sess.Close()
				return
			}
			vlog.WithSession(sess.RemoteAddr()).Warnf("vdchost: %v", err)
			continue
		}

		switch e.Type {
		case proto.TagHelloRequest:
			peerVersion, _ := e.Payload.Get("apiVersion")
			v, _ := peerVersion.String()
			sess.OnHelloReceived(v)
			resp := srv.registry.Dispatch(e)
			if resp != nil {
				if err := sess.Write(*resp); err != nil {
					vlog.WithSession(sess.RemoteAddr()).Warnf("vdchost: hello response write failed: %v", err)
					sess.Close()
					return
				}
			}
			sess.OnHelloResponseSent()
			srv.setCurrent(sess)
			srv.host.SetSession(push.NewSessionAdapter(sess))
			announceAll(sess, srv.host)
		case proto.TagPing:
			if err := sess.Write(proto.NewNotification(proto.TagPong, proptree.Null())); err != nil {
				vlog.WithSession(sess.RemoteAddr()).Warnf("vdchost: pong write failed: %v", err)
				sess.Close()
				return
			}
		case proto.TagPong:
			sess.OnPongReceived()
		case proto.TagBye:
			sess.OnByeReceived()
			sess.Close()
			return
		default:
			resp := srv.registry.Dispatch(e)
			if resp != nil {
				if err := sess.Write(*resp); err != nil {
					vlog.WithSession(sess.RemoteAddr()).Warnf("vdchost: response write failed: %v", err)
					sess.Close()
					return
				}
			}
		}
	}
}

// announceAll walks every connector and emits the connector-announce
// notification followed by one device-announce per child device
// (spec.md §4.6), marking each device announced as it goes. Announcements
// address a concrete *session.Session directly (not the entity package's
// narrow SessionHandle, which is scoped to tagged property pushes) since
// each announcement needs its own notification tag.
func announceAll(sess *session.Session, host *entity.Host) {
	for _, c := range host.Connectors() {
		announceConnector(sess, c)
	}
}

func announceConnector(sess *session.Session, c *entity.Connector) {
	notify(sess, c.UID.String(), proto.TagAnnounceConnector, c.Properties())
	for _, d := range c.Devices() {
		notify(sess, d.UID.String(), proto.TagAnnounceDevice, d.Properties())
		d.MarkAnnounced()
	}
}

func notify(sess *session.Session, targetUID string, tag proto.Tag, payload proptree.Value) {
	body := proptree.Map(map[string]proptree.Value{
		"uid":      proptree.String(targetUID),
		"property": payload,
	})
	if err := sess.Write(proto.NewNotification(tag, body)); err != nil {
		vlog.Logger.Warnf("vdchost: announce write for %s failed: %v", targetUID, err)
	}
}
