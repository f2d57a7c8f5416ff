package entity

import (
	"testing"

	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/uid"
)

func newTestHost() *Host {
	id := uid.Generate(uid.NamespaceHost, "acme", "host-1", 0)
	return NewHost(id, "Host", "Acme", "1.0", 8446)
}

func TestFindDeviceAcrossConnectors(t *testing.T) {
	h := newTestHost()
	c1 := newTestConnector()
	c2 := NewConnector(uid.Generate(uid.NamespaceConnector, "acme", "conn-2", 0), "Gw2", "m", ConnectorCapabilities{})
	h.AddConnector(c1)
	h.AddConnector(c2)

	d := NewDevice(uid.Generate(uid.NamespaceDevice, "acme", "dev-9", 0), "Thermostat", "m", "g")
	c2.AddDevice(d)

	found, err := h.FindDevice(d.UID.String())
	if err != nil {
		t.Fatalf("FindDevice: %v", err)
	}
	if found != d {
		t.Fatalf("FindDevice returned wrong device")
	}

	if _, err := h.FindDevice("DEADBEEF"); err == nil {
		t.Fatalf("expected not-found for missing device")
	}
}

func TestHostSetPushFuncPropagatesThroughTree(t *testing.T) {
	h := newTestHost()
	c := newTestConnector()
	d := newTestDevice()
	c.AddDevice(d)
	h.AddConnector(c)

	var got string
	h.SetPushFunc(func(uid string, subtree proptree.Value) { got = uid })

	d.Push(proptree.Bool(true))
	if got != d.UID.String() {
		t.Fatalf("push func not propagated from host to device through connector")
	}
}

func TestHostSessionLifecycle(t *testing.T) {
	h := newTestHost()
	if h.Session() != nil {
		t.Fatalf("expected nil session initially")
	}

	stub := &stubSessionHandle{}
	h.SetSession(stub)
	if h.Session() != stub {
		t.Fatalf("expected Session() to return the installed handle")
	}

	h.ClearSession()
	if h.Session() != nil {
		t.Fatalf("expected nil session after ClearSession")
	}
}

type stubSessionHandle struct{}

func (stubSessionHandle) Write(subtree proptree.Value) error { return nil }

func TestRemoveConnectorUpdatesMapAndOrder(t *testing.T) {
	h := newTestHost()
	c := newTestConnector()
	h.AddConnector(c)

	if !h.RemoveConnector(c.UID.String()) {
		t.Fatalf("expected RemoveConnector to report success")
	}
	if len(h.Connectors()) != 0 {
		t.Fatalf("expected no connectors after removal")
	}
}
