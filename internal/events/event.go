// Package events implements the in-memory structured-event bus shared by the
// task registry, the adaptive transport and the strategy override pipeline.
package events

import "encoding/json"

// Family is the top-level tag of an Event's serialized form.
type Family string

const (
	FamilyTask     Family = "Task"
	FamilyPolicy   Family = "Policy"
	FamilyTransport Family = "Transport"
	FamilyStrategy Family = "Strategy"
)

// Fields is the payload of a single event variant.
type Fields map[string]any

// Event is a tagged union: {"type": family, "data": {variant: fields}}.
// Field names inside Fields are camelCase to match the frontend command
// boundary described in spec.md §6, except the Strategy Summary variant,
// whose keys are snake_case (see Summary in variants.go).
type Event struct {
	Type    Family
	Variant string
	Data    Fields
}

// New builds an Event for the given family/variant/fields.
func New(family Family, variant string, fields Fields) Event {
	if fields == nil {
		fields = Fields{}
	}
	return Event{Type: family, Variant: variant, Data: fields}
}

// MarshalJSON renders the event as {"type":<family>,"data":{<variant>:<fields>}}.
func (e Event) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type Family                    `json:"type"`
		Data map[string]Fields `json:"data"`
	}
	return json.Marshal(wire{Type: e.Type, Data: map[string]Fields{e.Variant: e.Data}})
}

// UnmarshalJSON parses the tagged-union wire form back into an Event.
func (e *Event) UnmarshalJSON(b []byte) error {
	var wire struct {
		Type Family                    `json:"type"`
		Data map[string]Fields `json:"data"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	e.Type = wire.Type
	for variant, fields := range wire.Data {
		e.Variant = variant
		e.Data = fields
		break
	}
	return nil
}
