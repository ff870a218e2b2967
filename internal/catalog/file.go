package catalog

import (
	"encoding/json"
	"fmt"
)

// FileParameters is File's declarative desired state. Exactly one of
// Content or Source may be set (spec.md §4.7); a File that is the target of
// a Host or ResolvConf resource must set neither (invariant 10).
type FileParameters struct {
	Path    string  `json:"path"`
	Ensure  Ensure  `json:"ensure"`
	Mode    string  `json:"mode"`
	Owner   string  `json:"owner"`
	Group   string  `json:"group,omitempty"`
	Content *string `json:"content,omitempty"`
	Source  *string `json:"source,omitempty"`
}

// File manages the existence, mode, ownership and contents of a regular
// file.
type File struct {
	Meta
	Parameters FileParameters
}

func (f *File) Kind() Kind         { return KindFile }
func (f *File) PrimaryKey() string { return f.Parameters.Path }
func (f *File) Display() string    { return f.Parameters.Path }

// HasContentOrSource reports whether either payload field is set, used by
// the compiler to enforce invariant 10 against Host/ResolvConf targets.
func (p FileParameters) HasContentOrSource() bool {
	return p.Content != nil || p.Source != nil
}

func (p FileParameters) Validate() error {
	if err := ValidateSafePath("path", p.Path); err != nil {
		return err
	}
	mode := p.Mode
	if mode == "" {
		mode = "644"
	}
	if err := ValidateMode(mode); err != nil {
		return err
	}
	if err := ValidateName("owner", p.Owner); err != nil {
		return err
	}
	if p.Group != "" {
		if err := ValidateName("group", p.Group); err != nil {
			return err
		}
	}
	if p.Ensure.IsPresent() && p.Content != nil && p.Source != nil {
		return fmt.Errorf("file %q must set at most one of content or source", p.Path)
	}
	return nil
}

func (f *File) MarshalJSON() ([]byte, error) {
	return marshalResource(f.Kind(), f.ID(), f.Parameters, f.Dependencies())
}

func (f *File) UnmarshalJSON(data []byte) error {
	var w wireResource
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := json.Unmarshal(w.Parameters, &f.Parameters); err != nil {
		return err
	}
	f.SetID(w.ID)
	f.requires = w.Relationships.Requires
	return nil
}
