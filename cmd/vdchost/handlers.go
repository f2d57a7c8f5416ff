package main

import (
	"github.com/vdc-project/vdchost/pkg/component"
	"github.com/vdc-project/vdchost/pkg/dispatch"
	"github.com/vdc-project/vdchost/pkg/entity"
	"github.com/vdc-project/vdchost/pkg/proptree"
	"github.com/vdc-project/vdchost/pkg/proto"
	"github.com/vdc-project/vdchost/pkg/verrors"
)

// registerHandlers wires every request/notification tag the host must
// implement (spec.md §4.4) to the entity tree rooted at host. Payloads use
// a flat "uid"-keyed convention matching pkg/push's outbound tagging.
func registerHandlers(reg *dispatch.Registry, host *entity.Host) {
	reg.Register(proto.TagHelloRequest, handleHello(host))
	reg.Register(proto.TagGetProperty, handleGetProperty(host))
	reg.Register(proto.TagSetProperty, handleSetProperty(host))
	// TagRemove is registered by the Server itself (server.go), which also
	// emits the vanish notification on success.

	reg.Register(proto.TagCallScene, handleCallScene(host))
	reg.Register(proto.TagSaveScene, handleSaveScene(host))
	reg.Register(proto.TagUndoScene, handleUndoScene(host))
	reg.Register(proto.TagCallMinScene, handleCallMinScene(host))
	reg.Register(proto.TagSetLocalPriority, handleSetLocalPriority(host))

	reg.Register(proto.TagSetOutputChannelValue, handleSetOutputChannelValue(host))
	reg.Register(proto.TagDimChannel, handleDimChannel(host))
	reg.Register(proto.TagSetControlValue, handleSetControlValue(host))
	reg.Register(proto.TagIdentify, handleIdentify(host))
}

// propertyTarget is the property read/write surface shared by host,
// connector, and device. resolveTarget maps a payload's "uid" field to one
// of them, trying host, connector, then device, mirroring the mediator's
// "locate the target" step (spec.md §4.5).
type propertyTarget interface {
	Properties() proptree.Value
	ApplyProperties(tree proptree.Value) (applied, rejected []string, err error)
}

func resolveTarget(host *entity.Host, targetUID string) (propertyTarget, error) {
	if targetUID == "" || targetUID == host.UID.String() {
		return host, nil
	}
	if c, err := host.Connector(targetUID); err == nil {
		return c, nil
	}
	if d, err := host.FindDevice(targetUID); err == nil {
		return d, nil
	}
	return nil, verrors.NewNotFoundError("entity", targetUID)
}

func requireDevice(host *entity.Host, e proto.Envelope) (*entity.Device, error) {
	uidVal, _ := e.Payload.Get("uid")
	targetUID, _ := uidVal.String()
	return host.FindDevice(targetUID)
}

func handleHello(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		peerVersion, _ := firstString(e.Payload, "apiVersion", "version")
		_ = peerVersion
		return proptree.Map(map[string]proptree.Value{
			"uid":        proptree.String(host.UID.String()),
			"apiVersion": proptree.String(host.APIVersion),
		}), nil
	}
}

func handleGetProperty(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		uidVal, _ := e.Payload.Get("uid")
		targetUID, _ := uidVal.String()
		target, err := resolveTarget(host, targetUID)
		if err != nil {
			return proptree.Value{}, err
		}
		query, _ := e.Payload.Get("query")
		return proptree.FilterQuery(target.Properties(), query), nil
	}
}

// handleSetProperty applies a set-property write and fails the whole
// request only when every attempted (non-rejected) leaf failed validation
// (spec.md §4.5/§7); a write consisting solely of rejected read-only
// fields still succeeds, and a partial failure alongside at least one
// applied leaf is reported in the response rather than as a request
// failure.
func handleSetProperty(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		uidVal, _ := e.Payload.Get("uid")
		targetUID, _ := uidVal.String()
		target, err := resolveTarget(host, targetUID)
		if err != nil {
			return proptree.Value{}, err
		}
		props, _ := e.Payload.Get("properties")
		applied, rejected, applyErr := target.ApplyProperties(props)
		if applyErr != nil && len(applied) == 0 {
			return proptree.Value{}, applyErr
		}
		result := map[string]proptree.Value{
			"applied":  stringSeq(applied),
			"rejected": stringSeq(rejected),
		}
		if applyErr != nil {
			result["errors"] = proptree.String(applyErr.Error())
		}
		return proptree.Map(result), nil
	}
}

func stringSeq(paths []string) proptree.Value {
	vals := make([]proptree.Value, len(paths))
	for i, p := range paths {
		vals[i] = proptree.String(p)
	}
	return proptree.Seq(vals...)
}

func handleCallScene(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		dev, err := requireDevice(host, e)
		if err != nil {
			return proptree.Value{}, err
		}
		n, _ := intField(e.Payload, "scene")
		force, _ := boolField(e.Payload, "force")
		mode := component.ApplyNormal
		if modeStr, ok := firstString(e.Payload, "mode"); ok && modeStr == "min" {
			mode = component.ApplyMin
		}
		dev.Scenes().Call(n, force, mode)
		return proptree.Null(), nil
	}
}

func handleSaveScene(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		dev, err := requireDevice(host, e)
		if err != nil {
			return proptree.Value{}, err
		}
		n, _ := intField(e.Payload, "scene")
		ignoreLocalPriority, _ := boolField(e.Payload, "ignoreLocalPriority")
		dev.Scenes().Save(n, ignoreLocalPriority)
		return proptree.Null(), nil
	}
}

func handleUndoScene(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		dev, err := requireDevice(host, e)
		if err != nil {
			return proptree.Value{}, err
		}
		dev.Scenes().Undo()
		return proptree.Null(), nil
	}
}

func handleCallMinScene(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		dev, err := requireDevice(host, e)
		if err != nil {
			return proptree.Value{}, err
		}
		n, _ := intField(e.Payload, "scene")
		dev.Scenes().CallMin(n)
		return proptree.Null(), nil
	}
}

func handleSetLocalPriority(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		dev, err := requireDevice(host, e)
		if err != nil {
			return proptree.Value{}, err
		}
		sceneVal, ok := e.Payload.Get("scene")
		if !ok || sceneVal.IsNull() {
			dev.Scenes().SetLocalPriority(nil)
			return proptree.Null(), nil
		}
		n, _ := sceneVal.Int()
		num := int(n)
		dev.Scenes().SetLocalPriority(&num)
		return proptree.Null(), nil
	}
}

func handleSetOutputChannelValue(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		dev, err := requireDevice(host, e)
		if err != nil {
			return proptree.Value{}, err
		}
		channel, _ := firstString(e.Payload, "channel")
		value, _ := doubleField(e.Payload, "value")
		effect, _ := firstString(e.Payload, "effect")
		applyNow, _ := boolField(e.Payload, "applyNow")
		output := dev.Output()
		if output == nil {
			return proptree.Value{}, verrors.NewNotFoundError("output", dev.UID.String())
		}
		if err := output.SetChannelValue(channel, value, effect, applyNow); err != nil {
			return proptree.Value{}, err
		}
		return proptree.Null(), nil
	}
}

func handleDimChannel(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		dev, err := requireDevice(host, e)
		if err != nil {
			return proptree.Value{}, err
		}
		channel, _ := firstString(e.Payload, "channel")
		directionStr, _ := firstString(e.Payload, "direction")
		rate, _ := doubleField(e.Payload, "rate")
		stop, _ := boolField(e.Payload, "stop")
		output := dev.Output()
		if output == nil {
			return proptree.Value{}, verrors.NewNotFoundError("output", dev.UID.String())
		}
		if stop {
			return proptree.Null(), output.StopDimming(channel)
		}
		direction := component.DimUp
		if directionStr == "down" {
			direction = component.DimDown
		}
		return proptree.Null(), output.StartDimming(channel, direction, rate)
	}
}

func handleSetControlValue(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		dev, err := requireDevice(host, e)
		if err != nil {
			return proptree.Value{}, err
		}
		name, _ := firstString(e.Payload, "name")
		value, _ := e.Payload.Get("value")
		dev.SetControlValue(name, value)
		return proptree.Null(), nil
	}
}

func handleIdentify(host *entity.Host) dispatch.Handler {
	return func(e proto.Envelope) (proptree.Value, error) {
		dev, err := requireDevice(host, e)
		if err != nil {
			return proptree.Value{}, err
		}
		blinks, ok := intField(e.Payload, "blinks")
		if !ok || blinks <= 0 {
			blinks = 2
		}
		return proptree.Null(), dev.Identify(blinks)
	}
}

func firstString(v proptree.Value, keys ...string) (string, bool) {
	for _, k := range keys {
		if child, ok := v.Get(k); ok {
			if s, ok := child.String(); ok {
				return s, true
			}
		}
	}
	return "", false
}

func intField(v proptree.Value, key string) (int, bool) {
	child, ok := v.Get(key)
	if !ok {
		return 0, false
	}
	i, ok := child.Int()
	return int(i), ok
}

func doubleField(v proptree.Value, key string) (float64, bool) {
	child, ok := v.Get(key)
	if !ok {
		return 0, false
	}
	d, ok := child.Double()
	return d, ok
}

func boolField(v proptree.Value, key string) (bool, bool) {
	child, ok := v.Get(key)
	if !ok {
		return false, false
	}
	b, ok := child.Bool()
	return b, ok
}
