package catalog

import "encoding/json"

// GroupParameters is Group's (a Unix group account's) declarative desired
// state.
type GroupParameters struct {
	Ensure Ensure `json:"ensure"`
	Name   string `json:"name"`
	System bool   `json:"system"`
}

// Group manages the existence of a Unix group account.
type Group struct {
	Meta
	Parameters GroupParameters
}

func (g *Group) Kind() Kind         { return KindGroup }
func (g *Group) PrimaryKey() string { return g.Parameters.Name }
func (g *Group) Display() string    { return g.Parameters.Name }

func (p GroupParameters) Validate() error {
	return ValidateName("name", p.Name)
}

func (g *Group) MarshalJSON() ([]byte, error) {
	return marshalResource(g.Kind(), g.ID(), g.Parameters, g.Dependencies())
}

func (g *Group) UnmarshalJSON(data []byte) error {
	var w wireResource
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := json.Unmarshal(w.Parameters, &g.Parameters); err != nil {
		return err
	}
	g.SetID(w.ID)
	g.requires = w.Relationships.Requires
	return nil
}
