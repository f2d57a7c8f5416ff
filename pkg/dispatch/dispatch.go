// Package dispatch routes inbound envelopes to registered handlers and
// enforces the request/notification error-surfacing policy of spec.md
// §4.4 and §7.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/proto"
	"github.com/vdc-project/vdchost/pkg/verrors"
	"github.com/vdc-project/vdchost/pkg/vlog"
)

// Handler processes one decoded envelope and optionally returns a response
// payload. A nil response with a nil error means "no reply" (the normal
// case for notifications); for a request, Dispatch wraps whatever the
// handler returns, a nil payload included, in the request's catalog
// response tag (see responseTagFor).
type Handler func(e proto.Envelope) (proptree.Value, error)

// Registry maps message tags to handlers.
type Registry struct {
	handlers map[proto.Tag]Handler
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[proto.Tag]Handler)}
}

// Register installs the handler for tag, overwriting any prior handler.
func (r *Registry) Register(tag proto.Tag, h Handler) {
	r.handlers[tag] = h
}

// The code* constants are the generic response codes used for all
// handler-surfaced failures; spec.md does not define a richer code catalog than
// "200/404-class/500", so the dispatcher keeps to those three.
const (
	codeOK           = 200
	codeNotFound     = 404
	codeUnsupported  = 500
	codeHandlerError = 500
)

// responseTagFor maps a request tag to its wire-catalog response tag
// (spec.md §6): hello, get-property, and remove each get their own
// response tag; set-property and generic-request share generic-response.
func responseTagFor(requestTag proto.Tag) proto.Tag {
	switch requestTag {
	case proto.TagHelloRequest:
		return proto.TagHelloResponse
	case proto.TagGetProperty:
		return proto.TagGetPropertyResponse
	case proto.TagRemove:
		return proto.TagRemoveResult
	default:
		return proto.TagGenericResponse
	}
}

// Dispatch looks up and runs the handler for e.Type, returning a response
// envelope to transmit (or nil if none is due). Unsupported-type and
// handler-error cases are folded into the request's catalog response tag
// for requests and a log line for notifications, per spec.md §4.4/§6/§7.
func (r *Registry) Dispatch(e proto.Envelope) *proto.Envelope {
	h, ok := r.handlers[e.Type]
	if !ok {
		return r.handleMissing(e)
	}

	result, err := h(e)
	if err != nil {
		return r.handleError(e, err)
	}
	if !e.Type.IsRequest() {
		return nil
	}
	resp := proto.NewResponse(responseTagFor(e.Type), e.MessageID, genericResultPayload(codeOK, "", result))
	return &resp
}

func (r *Registry) handleMissing(e proto.Envelope) *proto.Envelope {
	if !e.Type.IsRequest() {
		vlog.Logger.Warnf("dispatch: no handler for notification type %s, discarding", e.Type)
		return nil
	}
	vlog.Logger.Warnf("dispatch: no handler for request type %s", e.Type)
	resp := proto.NewResponse(responseTagFor(e.Type), e.MessageID,
		genericResultPayload(codeUnsupported, fmt.Sprintf("unsupported message type %s", e.Type), proptree.Null()))
	return &resp
}

func (r *Registry) handleError(e proto.Envelope, err error) *proto.Envelope {
	if !e.Type.IsRequest() {
		vlog.Logger.Warnf("dispatch: handler for notification %s failed: %v", e.Type, err)
		return nil
	}
	code := codeHandlerError
	if isNotFound(err) {
		code = codeNotFound
	}
	resp := proto.NewResponse(responseTagFor(e.Type), e.MessageID,
		genericResultPayload(code, err.Error(), proptree.Null()))
	return &resp
}

func isNotFound(err error) bool {
	return errors.Is(err, verrors.ErrNotFound)
}

func genericResultPayload(code int, description string, result proptree.Value) proptree.Value {
	m := map[string]proptree.Value{
		"code": proptree.Int(int64(code)),
	}
	if description != "" {
		m["description"] = proptree.String(description)
	}
	if !result.IsNull() {
		m["result"] = result
	}
	return proptree.Map(m)
}
