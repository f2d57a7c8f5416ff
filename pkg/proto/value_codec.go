package proto

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/vdc-project/vdchost/pkg/proptree"
)

// marshalValue renders a proptree.Value as JSON. Bytes leaves are
// base64-encoded so they survive a text transport.
func marshalValue(v proptree.Value) (json.RawMessage, error) {
	switch v.Kind() {
	case proptree.KindNull:
		return json.RawMessage("null"), nil
	case proptree.KindBool:
		b, _ := v.Bool()
		return json.Marshal(b)
	case proptree.KindInt:
		i, _ := v.Int()
		return json.Marshal(i)
	case proptree.KindDouble:
		d, _ := v.Double()
		return json.Marshal(d)
	case proptree.KindString:
		s, _ := v.String()
		return json.Marshal(s)
	case proptree.KindBytes:
		raw, _ := v.Bytes()
		return json.Marshal(base64.StdEncoding.EncodeToString(raw))
	case proptree.KindMap:
		m, _ := v.Map()
		out := make(map[string]json.RawMessage, len(m))
		for k, child := range m {
			raw, err := marshalValue(child)
			if err != nil {
				return nil, err
			}
			out[k] = raw
		}
		return json.Marshal(out)
	case proptree.KindSeq:
		items, _ := v.Seq()
		out := make([]json.RawMessage, len(items))
		for i, child := range items {
			raw, err := marshalValue(child)
			if err != nil {
				return nil, err
			}
			out[i] = raw
		}
		return json.Marshal(out)
	default:
		return nil, fmt.Errorf("proto: cannot marshal value of kind %s", v.Kind())
	}
}

// unmarshalValue parses raw JSON into a proptree.Value. Numbers decode to
// KindDouble unless they have no fractional part and fit an int64, in
// which case they decode to KindInt; this matches the typed-property
// mediator's expectation that whole-number channel indices and scene
// numbers arrive as ints.
func unmarshalValue(raw json.RawMessage) (proptree.Value, error) {
	if len(raw) == 0 {
		return proptree.Null(), nil
	}
	var generic interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return proptree.Value{}, err
	}
	return fromGeneric(generic)
}

func fromGeneric(generic interface{}) (proptree.Value, error) {
	switch t := generic.(type) {
	case nil:
		return proptree.Null(), nil
	case bool:
		return proptree.Bool(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return proptree.Int(i), nil
		}
		d, err := t.Float64()
		if err != nil {
			return proptree.Value{}, fmt.Errorf("proto: invalid number %q", t.String())
		}
		return proptree.Double(d), nil
	case string:
		return proptree.String(t), nil
	case map[string]interface{}:
		m := make(map[string]proptree.Value, len(t))
		for k, child := range t {
			cv, err := fromGeneric(child)
			if err != nil {
				return proptree.Value{}, err
			}
			m[k] = cv
		}
		return proptree.Map(m), nil
	case []interface{}:
		items := make([]proptree.Value, len(t))
		for i, child := range t {
			cv, err := fromGeneric(child)
			if err != nil {
				return proptree.Value{}, err
			}
			items[i] = cv
		}
		return proptree.Seq(items...), nil
	default:
		return proptree.Value{}, fmt.Errorf("proto: unsupported JSON type %T", t)
	}
}
