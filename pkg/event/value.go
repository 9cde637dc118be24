// Package event defines the tagged records emitted by the bootstrap and
// stored in the report: values, source locations, and the Get/Set/Call
// event union itself.
package event

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrInvalidValue is returned by MarshalJSON when a Value does not hold
// exactly one of the ref/literal variants (for example the zero Value).
var ErrInvalidValue = errors.New("event: value must be exactly one of ref or literal")

// jsUndefined distinguishes JavaScript's undefined from null. Both marshal
// to JSON null (JSON has no undefined), but they compare unequal in Go so
// matchesValue can tell them apart the way the bootstrap's guest-side
// comparison does.
type jsUndefined struct{}

func (jsUndefined) String() string { return "undefined" }

// Undefined is the distinguished literal value representing JavaScript's
// undefined.
var Undefined any = jsUndefined{}

// Value is the tagged union carried by every event: either a Ref naming a
// previously (or newly) observed non-primitive guest object, or a Literal
// copy of a primitive.
type Value struct {
	ref        int64
	isRef      bool
	literal    any
	isLiteral  bool
}

// Ref builds a Value naming a non-primitive object by its assigned id.
func Ref(id int64) Value {
	return Value{ref: id, isRef: true}
}

// Literal builds a Value copying a primitive: string, finite number, bool,
// nil (JS null) or event.Undefined.
func Literal(v any) Value {
	return Value{literal: v, isLiteral: true}
}

// IsRef reports whether this Value names an object by id.
func (v Value) IsRef() bool { return v.isRef }

// IsLiteral reports whether this Value carries a primitive copy.
func (v Value) IsLiteral() bool { return v.isLiteral }

// RefID returns the named object id and whether this Value is a ref.
func (v Value) RefID() (int64, bool) { return v.ref, v.isRef }

// LiteralValue returns the primitive copy and whether this Value is a literal.
func (v Value) LiteralValue() (any, bool) { return v.literal, v.isLiteral }

// Valid reports whether exactly one of ref/literal is populated, per the
// identity invariant in spec.md §3.1.
func (v Value) Valid() bool { return v.isRef != v.isLiteral }

type wireValue struct {
	Ref     *int64          `json:"ref,omitempty"`
	Literal json.RawMessage `json:"literal,omitempty"`
}

// MarshalJSON encodes the Value as {"ref": n} or {"literal": v}, matching
// spec.md §6.2's wire contract. Undefined marshals to JSON null, the same
// as null, since JSON cannot represent JavaScript's undefined distinctly.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid() {
		return nil, ErrInvalidValue
	}
	if v.isRef {
		return json.Marshal(wireValue{Ref: &v.ref})
	}
	lit, err := json.Marshal(v.literal)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Literal: lit})
}

// UnmarshalJSON decodes a wire Value. The guest's JSON.stringify drops a
// "literal" key whose value is undefined, so an object carrying neither
// "ref" nor "literal" decodes as Literal(Undefined); a JSON null literal
// decodes as Go nil (JS null).
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Ref != nil {
		*v = Ref(*w.Ref)
		return nil
	}
	if w.Literal == nil {
		*v = Literal(Undefined)
		return nil
	}
	var lit any
	dec := json.NewDecoder(bytes.NewReader(w.Literal))
	dec.UseNumber()
	if err := dec.Decode(&lit); err != nil {
		return err
	}
	*v = Literal(normalizeNumber(lit))
	return nil
}

func normalizeNumber(v any) any {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		if err == nil {
			return f
		}
	}
	return v
}
