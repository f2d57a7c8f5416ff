package entity

import (
	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/verrors"
	"github.com/vdc-project/vdchost/pkg/vlog"
)

// Properties renders the device's full property subtree for a
// get-property response. Read-only fields (uid, model, primaryGroup,
// announced, modelFeatures, and the output channel values) are included
// alongside the writable ones (name, zone); button inputs, binary inputs
// and sensors are not part of the subtree. Callers narrow this to a partial query via proptree.FilterQuery
// (spec.md §4.5).
func (d *Device) Properties() proptree.Value {
	d.mu.RLock()
	defer d.mu.RUnlock()

	m := map[string]proptree.Value{
		"uid":          proptree.String(d.UID.String()),
		"name":         proptree.String(d.Name),
		"model":        proptree.String(d.ModelID),
		"primaryGroup": proptree.String(d.PrimaryGroup),
		"announced":    proptree.Bool(d.announced),
	}
	if d.Zone != nil {
		m["zone"] = proptree.String(*d.Zone)
	}
	features := make(map[string]proptree.Value, len(d.ModelFeatures))
	for k, v := range d.ModelFeatures {
		features[k] = proptree.Bool(v)
	}
	m["modelFeatures"] = proptree.Map(features)

	if d.output != nil {
		channels := map[string]proptree.Value{}
		for _, ch := range d.output.Channels() {
			channels[ch.ChannelType] = proptree.Double(ch.Value())
		}
		m["outputs"] = proptree.Map(channels)
	}
	return proptree.Map(m)
}

// writableDeviceFields names the device properties the mediator may
// apply from a controller set-property write; everything else is
// read-only and silently dropped (spec.md §4.5).
var writableDeviceFields = map[string]bool{
	"name": true,
	"zone": true,
}

// ApplyProperties walks a set-property write tree and applies each
// writable leaf, logging and skipping read-only leaves (rejected), and
// collecting type/range errors (failed) on a verrors.ValidationBuilder for
// the caller to turn into a structured failure response (spec.md §4.5,
// §7). Rejections are not failures: a request consisting only of
// read-only fields still succeeds with an empty applied/failed list.
func (d *Device) ApplyProperties(tree proptree.Value) (applied, rejected []string, err error) {
	m, ok := tree.Map()
	if !ok {
		return nil, nil, verrors.NewValidationError("set-property payload must be a map")
	}

	builder := &verrors.ValidationBuilder{}
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, val := range m {
		if !writableDeviceFields[key] {
			vlog.Logger.Debugf("device %s: rejecting write to read-only property %q", d.Name, key)
			rejected = append(rejected, key)
			continue
		}
		switch key {
		case "name":
			s, ok := val.String()
			if !ok {
				builder.Add("name: expected string")
				continue
			}
			d.Name = s
			applied = append(applied, key)
		case "zone":
			s, ok := val.String()
			if !ok {
				builder.Add("zone: expected string")
				continue
			}
			d.Zone = &s
			applied = append(applied, key)
		}
	}
	return applied, rejected, builder.Build()
}

// Properties renders the connector's property subtree.
func (c *Connector) Properties() proptree.Value {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m := map[string]proptree.Value{
		"uid":   proptree.String(c.UID.String()),
		"name":  proptree.String(c.Name),
		"model": proptree.String(c.ModelID),
		"capabilities": proptree.Map(map[string]proptree.Value{
			"metering":           proptree.Bool(c.Capabilities.Metering),
			"identification":     proptree.Bool(c.Capabilities.Identification),
			"dynamicDefinitions": proptree.Bool(c.Capabilities.DynamicDefinitions),
		}),
	}
	if c.Zone != nil {
		m["zone"] = proptree.String(*c.Zone)
	}
	devices := make([]proptree.Value, 0, len(c.order))
	for _, k := range c.order {
		devices = append(devices, proptree.String(c.devices[k].UID.String()))
	}
	m["devices"] = proptree.Seq(devices...)
	return proptree.Map(m)
}

// ApplyProperties applies writable connector fields, currently just zone
// (spec.md §3: "optional zone identifier, written by controller").
func (c *Connector) ApplyProperties(tree proptree.Value) (applied, rejected []string, err error) {
	m, ok := tree.Map()
	if !ok {
		return nil, nil, verrors.NewValidationError("set-property payload must be a map")
	}
	builder := &verrors.ValidationBuilder{}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, val := range m {
		if key != "zone" {
			vlog.Logger.Debugf("connector %s: rejecting write to read-only property %q", c.Name, key)
			rejected = append(rejected, key)
			continue
		}
		s, ok := val.String()
		if !ok {
			builder.Add("zone: expected string")
			continue
		}
		c.Zone = &s
		applied = append(applied, key)
	}
	return applied, rejected, builder.Build()
}

// Properties renders the host's property subtree; entirely read-only —
// the host's identity is fixed at construction.
func (h *Host) Properties() proptree.Value {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return proptree.Map(map[string]proptree.Value{
		"uid":        proptree.String(h.UID.String()),
		"name":       proptree.String(h.Name),
		"vendor":     proptree.String(h.Vendor),
		"apiVersion": proptree.String(h.APIVersion),
		"listenPort": proptree.Int(int64(h.ListenPort)),
	})
}

// ApplyProperties rejects every write: the host's identity fields are
// fixed at construction (spec.md §4.5's "read-only fields are defined per
// entity class"). Present so the host satisfies the same get/set-property
// mediator contract as Connector and Device. Rejection is not failure, so
// err is always nil.
func (h *Host) ApplyProperties(tree proptree.Value) (applied, rejected []string, err error) {
	m, ok := tree.Map()
	if !ok {
		return nil, nil, verrors.NewValidationError("set-property payload must be a map")
	}
	rejected = make([]string, 0, len(m))
	for key := range m {
		vlog.Logger.Debugf("host %s: rejecting write to read-only property %q", h.Name, key)
		rejected = append(rejected, key)
	}
	return nil, rejected, nil
}
