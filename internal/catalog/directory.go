package catalog

import "encoding/json"

// ChildKind identifies what sort of filesystem entry a directory's recorded
// child is, used by the agent's purge pass to classify foreign directory
// entries without re-deriving it from the filesystem.
type ChildKind string

const (
	ChildDirectory     ChildKind = "directory"
	ChildFile          ChildKind = "file"
	ChildSymlink       ChildKind = "symlink"
	ChildAptPreference ChildKind = "apt::preference"
)

// Child is one entry the compiler recorded as belonging under a managed
// directory, per spec.md §4.3's "Children recording" step.
type Child struct {
	Kind ChildKind `json:"kind"`
	Path string    `json:"path"`
}

func (c Child) IsDir() bool  { return c.Kind == ChildDirectory }
func (c Child) IsFile() bool { return c.Kind == ChildFile || c.Kind == ChildAptPreference }
func (c Child) IsSymlink() bool { return c.Kind == ChildSymlink }

// DirectoryParameters is Directory's declarative desired state.
type DirectoryParameters struct {
	Path  string `json:"path"`
	Ensure Ensure `json:"ensure"`
	Owner string `json:"owner"`
	Group string `json:"group,omitempty"`
	Purge bool   `json:"purge"`
}

// Directory manages the existence, ownership and (optionally) the foreign
// contents of a filesystem directory.
type Directory struct {
	Meta
	Parameters DirectoryParameters
	Children   []Child
}

func (d *Directory) Kind() Kind         { return KindDirectory }
func (d *Directory) PrimaryKey() string { return d.Parameters.Path }
func (d *Directory) Display() string    { return d.Parameters.Path }

// Validate checks DirectoryParameters in isolation, independent of the
// compiler's cross-resource checks.
func (p DirectoryParameters) Validate() error {
	if err := ValidateSafePath("path", p.Path); err != nil {
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
	return nil
}

func (d *Directory) MarshalJSON() ([]byte, error) {
	return marshalResource(d.Kind(), d.ID(), d.Parameters, d.Dependencies())
}

func (d *Directory) UnmarshalJSON(data []byte) error {
	var w wireResource
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := json.Unmarshal(w.Parameters, &d.Parameters); err != nil {
		return err
	}
	d.SetID(w.ID)
	d.requires = w.Relationships.Requires
	return nil
}
