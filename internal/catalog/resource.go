package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ResourceMetadata identifies a resource by kind and id. It is the shape of
// both a resolved dependency edge and a wire-format {"type", "id"} pair.
type ResourceMetadata struct {
	Kind Kind      `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// SymbolicRef is a user-declared, not-yet-resolved dependency: a
// {type, <primary-key-field>} pair from a declaration's `requires` list.
type SymbolicRef struct {
	Kind       Kind
	PrimaryKey string
}

// Resource is implemented by every concrete resource kind. It deliberately
// carries no apply-time behaviour: per-kind reconciliation lives in the
// agent package, which dispatches over Kind the same way the compiler does
// here. See SPEC_FULL.md's design notes on per-kind polymorphism.
type Resource interface {
	Kind() Kind
	ID() uuid.UUID
	// PrimaryKey returns the value that identifies this resource uniquely
	// within its kind and that symbolic `requires` references resolve
	// against.
	PrimaryKey() string
	// Display returns a short human-readable rendering of the resource's
	// primary parameter, used when building log messages.
	Display() string
	// Dependencies returns the resolved, compiler-populated requires list.
	Dependencies() []ResourceMetadata
	// FromGroup names the group this instance was inherited from, or ""
	// if it was declared directly on the host.
	FromGroup() string
}

// Meta is embedded by every concrete resource type and supplies the parts of
// the Resource interface (and the compiler-only bookkeeping) common to all
// kinds.
type Meta struct {
	id        uuid.UUID
	fromGroup string
	requires  []ResourceMetadata
	symbolic  []SymbolicRef
}

func (m *Meta) ID() uuid.UUID                    { return m.id }
func (m *Meta) FromGroup() string                { return m.fromGroup }
func (m *Meta) Dependencies() []ResourceMetadata { return m.requires }
func (m *Meta) SymbolicRequires() []SymbolicRef   { return m.symbolic }

func (m *Meta) SetID(id uuid.UUID)                     { m.id = id }
func (m *Meta) SetFromGroup(name string)               { m.fromGroup = name }
func (m *Meta) SetSymbolicRequires(refs []SymbolicRef) { m.symbolic = refs }

// AddRequires appends a resolved dependency edge if it is not already
// present.
func (m *Meta) AddRequires(rm ResourceMetadata) {
	for _, existing := range m.requires {
		if existing == rm {
			return
		}
	}
	m.requires = append(m.requires, rm)
}

// wireResource is the shape every resource takes on the wire:
// {"type", "id", "parameters", "relationships": {"requires"}}.
type wireResource struct {
	Type          Kind            `json:"type"`
	ID            uuid.UUID       `json:"id"`
	Parameters    json.RawMessage `json:"parameters"`
	Relationships struct {
		Requires []ResourceMetadata `json:"requires"`
	} `json:"relationships"`
}

func marshalResource(kind Kind, id uuid.UUID, params any, requires []ResourceMetadata) ([]byte, error) {
	if requires == nil {
		requires = []ResourceMetadata{}
	}
	out := struct {
		Type          Kind      `json:"type"`
		ID            uuid.UUID `json:"id"`
		Parameters    any       `json:"parameters"`
		Relationships struct {
			Requires []ResourceMetadata `json:"requires"`
		} `json:"relationships"`
	}{Type: kind, ID: id, Parameters: params}
	out.Relationships.Requires = requires
	return json.Marshal(out)
}

// DecodeResource inspects raw's "type" field and unmarshals it into the
// matching concrete resource type, mirroring the externally-tagged
// deserialization the original project's serde enum performed.
func DecodeResource(raw json.RawMessage) (Resource, error) {
	var peek struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return nil, fmt.Errorf("decode resource type tag: %w", err)
	}

	var r Resource
	switch peek.Type {
	case KindDirectory:
		r = &Directory{}
	case KindFile:
		r = &File{}
	case KindSymlink:
		r = &Symlink{}
	case KindHost:
		r = &Host{}
	case KindResolvConf:
		r = &ResolvConf{}
	case KindGroup:
		r = &Group{}
	case KindUser:
		r = &User{}
	case KindAptPackage:
		r = &AptPackage{}
	case KindAptPreference:
		r = &AptPreference{}
	case KindCronJob:
		r = &CronJob{}
	default:
		return nil, fmt.Errorf("unknown resource type %q", peek.Type)
	}

	if err := json.Unmarshal(raw, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Links is the wire-format navigation envelope. Only "self" is carried; see
// SPEC_FULL.md's SUPPLEMENTED FEATURES for why the original's client/next/previous
// fields are not.
type Links struct {
	Self string `json:"self"`
}

// Envelope is the top-level catalog document served by pullconfd and parsed
// by pullconf-agent.
type Envelope struct {
	Links Links      `json:"links"`
	Data  []Resource `json:"data"`
}

// UnmarshalJSON decodes each element of data through DecodeResource, since
// Resource is an interface and cannot be unmarshaled generically.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw struct {
		Links Links             `json:"links"`
		Data  []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.Links = raw.Links
	e.Data = make([]Resource, 0, len(raw.Data))
	for _, item := range raw.Data {
		r, err := DecodeResource(item)
		if err != nil {
			return err
		}
		e.Data = append(e.Data, r)
	}
	return nil
}
