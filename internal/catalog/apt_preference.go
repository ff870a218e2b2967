package catalog

import (
	"encoding/json"
	"fmt"
)

// PackageSelector is the "Package" field of an apt preference (pin): either
// the wildcard "*" matching every package, or an explicit list of package
// names. Grounded on original_source/client/src/resources/apt/preference.rs
// (no direct applier there, but the declaration shape is shared).
type PackageSelector struct {
	Wildcard bool
	Names    []string
}

func (s PackageSelector) MarshalJSON() ([]byte, error) {
	if s.Wildcard {
		return json.Marshal("*")
	}
	return json.Marshal(s.Names)
}

func (s *PackageSelector) UnmarshalJSON(data []byte) error {
	var wildcard string
	if err := json.Unmarshal(data, &wildcard); err == nil {
		if wildcard != "*" {
			return fmt.Errorf("package selector string must be \"*\", got %q", wildcard)
		}
		s.Wildcard = true
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("package selector must be \"*\" or an array of package names: %w", err)
	}
	s.Names = names
	return nil
}

func (s PackageSelector) Validate() error {
	if s.Wildcard {
		return nil
	}
	if len(s.Names) == 0 {
		return fmt.Errorf("package selector must be \"*\" or a non-empty array of package names")
	}
	for _, name := range s.Names {
		if err := ValidatePackageName(name); err != nil {
			return err
		}
	}
	return nil
}

// AptPreferenceParameters is AptPreference's declarative desired state: an
// apt pinning stanza (/etc/apt/preferences.d/*).
type AptPreferenceParameters struct {
	Ensure      Ensure          `json:"ensure"`
	Target      string          `json:"target"`
	Name        string          `json:"name"`
	Explanation *string         `json:"explanation,omitempty"`
	Package     PackageSelector `json:"package"`
	Pin         string          `json:"pin"`
	PinPriority int16           `json:"pin-priority"`
}

// AptPreference manages one apt pinning stanza.
type AptPreference struct {
	Meta
	Parameters AptPreferenceParameters
}

func (a *AptPreference) Kind() Kind         { return KindAptPreference }
func (a *AptPreference) PrimaryKey() string { return a.Parameters.Name }
func (a *AptPreference) Display() string    { return a.Parameters.Name }

func (p AptPreferenceParameters) Validate() error {
	if err := ValidateSafePath("target", p.Target); err != nil {
		return err
	}
	if err := ValidateName("name", p.Name); err != nil {
		return err
	}
	if err := p.Package.Validate(); err != nil {
		return err
	}
	if p.Pin == "" {
		return fmt.Errorf("pin must not be empty")
	}
	return nil
}

// Render builds the canonical preferences stanza text, matching the format
// apt_preferences(5) expects: an optional explanation comment, then
// Package/Pin/Pin-Priority.
func (p AptPreferenceParameters) Render() string {
	var packageField string
	if p.Package.Wildcard {
		packageField = "*"
	} else {
		packageField = joinSpace(p.Package.Names)
	}
	out := ""
	if p.Explanation != nil {
		out += "Explanation: " + *p.Explanation + "\n"
	}
	out += fmt.Sprintf("Package: %s\nPin: %s\nPin-Priority: %d\n", packageField, p.Pin, p.PinPriority)
	return out
}

func joinSpace(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += " "
		}
		out += item
	}
	return out
}

func (a *AptPreference) MarshalJSON() ([]byte, error) {
	return marshalResource(a.Kind(), a.ID(), a.Parameters, a.Dependencies())
}

func (a *AptPreference) UnmarshalJSON(data []byte) error {
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
