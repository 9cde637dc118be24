package event

import "encoding/json"

// Type discriminates the three event shapes spec.md §3.3 defines.
type Type string

const (
	TypeGet  Type = "GetEvent"
	TypeSet  Type = "SetEvent"
	TypeCall Type = "CallEvent"
)

// Event is the immutable tagged union recorded for every guest property
// get, property set, and function/constructor call. Which fields are
// meaningful depends on Type; MarshalJSON only emits the fields spec.md
// §3.3 declares for that Type.
type Event struct {
	Type          Type
	Path          string
	Value         Value   // GetEvent, SetEvent
	Arguments     []Value // CallEvent; always non-nil, possibly empty
	Returns       Value   // CallEvent
	IsConstructor bool    // CallEvent
	Location      Location
}

// Get builds a GetEvent.
func Get(path string, value Value, loc Location) Event {
	return Event{Type: TypeGet, Path: path, Value: value, Location: loc}
}

// Set builds a SetEvent.
func Set(path string, value Value, loc Location) Event {
	return Event{Type: TypeSet, Path: path, Value: value, Location: loc}
}

// Call builds a CallEvent. args must be non-nil (use []Value{} for none).
func Call(path string, args []Value, returns Value, isConstructor bool, loc Location) Event {
	if args == nil {
		args = []Value{}
	}
	return Event{
		Type:          TypeCall,
		Path:          path,
		Arguments:     args,
		Returns:       returns,
		IsConstructor: isConstructor,
		Location:      loc,
	}
}

func (e Event) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":     string(e.Type),
		"path":     e.Path,
		"location": e.Location,
	}
	switch e.Type {
	case TypeGet, TypeSet:
		m["value"] = e.Value
	case TypeCall:
		m["arguments"] = e.Arguments
		m["returns"] = e.Returns
		m["isConstructor"] = e.IsConstructor
	}
	return json.Marshal(m)
}

type wireEvent struct {
	Type          string          `json:"type"`
	Path          string          `json:"path"`
	Location      Location        `json:"location"`
	Value         json.RawMessage `json:"value,omitempty"`
	Arguments     []Value         `json:"arguments,omitempty"`
	Returns       json.RawMessage `json:"returns,omitempty"`
	IsConstructor *bool           `json:"isConstructor,omitempty"`
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Type = Type(w.Type)
	e.Path = w.Path
	e.Location = w.Location
	switch e.Type {
	case TypeGet, TypeSet:
		var v Value
		if len(w.Value) > 0 {
			if err := json.Unmarshal(w.Value, &v); err != nil {
				return err
			}
		}
		e.Value = v
	case TypeCall:
		e.Arguments = w.Arguments
		if e.Arguments == nil {
			e.Arguments = []Value{}
		}
		if len(w.Returns) > 0 {
			var r Value
			if err := json.Unmarshal(w.Returns, &r); err != nil {
				return err
			}
			e.Returns = r
		}
		if w.IsConstructor != nil {
			e.IsConstructor = *w.IsConstructor
		}
	}
	return nil
}
