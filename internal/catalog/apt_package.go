package catalog

import "encoding/json"

// AptPackageParameters is AptPackage's declarative desired state.
type AptPackageParameters struct {
	Ensure  PackageEnsure `json:"ensure"`
	Name    string        `json:"name"`
	Version *string       `json:"version,omitempty"`
}

// AptPackage manages the installation state of a Debian package via apt-get.
type AptPackage struct {
	Meta
	Parameters AptPackageParameters
}

func (a *AptPackage) Kind() Kind         { return KindAptPackage }
func (a *AptPackage) PrimaryKey() string { return a.Parameters.Name }
func (a *AptPackage) Display() string    { return a.Parameters.Name }

func (p AptPackageParameters) Validate() error {
	if err := ValidatePackageName(p.Name); err != nil {
		return err
	}
	if p.Version != nil {
		return ValidatePackageVersion(*p.Version)
	}
	return nil
}

func (a *AptPackage) MarshalJSON() ([]byte, error) {
	return marshalResource(a.Kind(), a.ID(), a.Parameters, a.Dependencies())
}

func (a *AptPackage) UnmarshalJSON(data []byte) error {
	var w wireResource
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := json.Unmarshal(w.Parameters, &a.Parameters); err != nil {
		return err
	}
	a.SetID(w.ID)
	a.requires = w.Relationships.Requires
	return nil
}
