package catalog

import "encoding/json"

// SymlinkParameters is Symlink's declarative desired state.
type SymlinkParameters struct {
	Path   string `json:"path"`
	Ensure Ensure `json:"ensure"`
	Target string `json:"target"`
}

// Symlink manages the existence and target of a symbolic link.
type Symlink struct {
	Meta
	Parameters SymlinkParameters
}

func (s *Symlink) Kind() Kind         { return KindSymlink }
func (s *Symlink) PrimaryKey() string { return s.Parameters.Path }
func (s *Symlink) Display() string    { return s.Parameters.Path }

func (p SymlinkParameters) Validate() error {
	if err := ValidateSafePath("path", p.Path); err != nil {
		return err
	}
	return ValidateSafePath("target", p.Target)
}

func (s *Symlink) MarshalJSON() ([]byte, error) {
	return marshalResource(s.Kind(), s.ID(), s.Parameters, s.Dependencies())
}

func (s *Symlink) UnmarshalJSON(data []byte) error {
	var w wireResource
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := json.Unmarshal(w.Parameters, &s.Parameters); err != nil {
		return err
	}
	s.SetID(w.ID)
	s.requires = w.Relationships.Requires
	return nil
}
