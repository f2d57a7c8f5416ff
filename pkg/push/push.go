// Package push wires component-level value changes (OutputChannel,
// ButtonInput, BinaryInput, Sensor, scene-change notifications) through to
// the single active controller session as push-property notifications,
// dropping them silently when no session is attached (spec.md §4.9:
// "a vdc host with no active session discards pushes rather than
// queuing them"). Grounded on teacher pkg/audit/logger.go's async,
// mutex-guarded writer shape, adapted from file-append to session-write.
package push

import (
	"github.com/vdc-project/vdchost/pkg/entity"
	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/proto"
	"github.com/vdc-project/vdchost/pkg/session"
	"github.com/vdc-project/vdchost/pkg/vlog"
)

// SessionAdapter implements entity.SessionHandle over a live
// *session.Session, translating a bare property subtree into a
// push-property notification envelope.
type SessionAdapter struct {
	sess *session.Session
}

// NewSessionAdapter wraps a session for use as an entity.SessionHandle.
func NewSessionAdapter(s *session.Session) *SessionAdapter {
	return &SessionAdapter{sess: s}
}

// Write implements entity.SessionHandle.
func (a *SessionAdapter) Write(subtree proptree.Value) error {
	return a.sess.Write(pushEnvelope(subtree))
}

// Pipeline is the host's single outbound notification sink: it receives
// pushes tagged with an originating entity UID and forwards them to the
// host's active session, if any.
type Pipeline struct {
	host *entity.Host
}

// NewPipeline builds a push pipeline bound to a host's session slot.
func NewPipeline(h *entity.Host) *Pipeline {
	return &Pipeline{host: h}
}

// Push delivers a subtree to the active session, tagging it with the
// originating entity's UID. If no session is active, the push is logged
// at debug level and dropped.
func (p *Pipeline) Push(uid string, subtree proptree.Value) {
	sess := p.host.Session()
	if sess == nil {
		vlog.Logger.Debugf("push: no active session, dropping notification for %s", uid)
		return
	}
	tagged := proptree.Map(map[string]proptree.Value{
		"uid":      proptree.String(uid),
		"property": subtree,
	})
	if err := sess.Write(tagged); err != nil {
		vlog.Logger.Warnf("push: failed to deliver notification for %s: %v", uid, err)
	}
}

// Attach installs this pipeline as the host's push function so every
// entity (connector, device, and every component each device owns)
// routes pushes through it.
func (p *Pipeline) Attach() {
	p.host.SetPushFunc(p.Push)
}

func pushEnvelope(subtree proptree.Value) proto.Envelope {
	return proto.NewNotification(proto.TagPushProperty, subtree)
}
