package catalog

import (
	"encoding/json"
	"fmt"
	"net"
)

// HostParameters is Host's (a hosts-file entry's) declarative desired
// state.
type HostParameters struct {
	Ensure    Ensure   `json:"ensure"`
	Target    string   `json:"target"`
	IPAddress string   `json:"ip-address"`
	Hostname  string   `json:"hostname"`
	Aliases   []string `json:"aliases,omitempty"`
}

// Host manages one entry of a hosts file (default /etc/hosts).
type Host struct {
	Meta
	Parameters HostParameters
}

func (h *Host) Kind() Kind         { return KindHost }
func (h *Host) PrimaryKey() string { return h.Parameters.IPAddress }
func (h *Host) Display() string    { return h.Parameters.IPAddress }

const MaxHostAliases = 4

func (p HostParameters) Validate() error {
	if err := ValidateSafePath("target", p.Target); err != nil {
		return err
	}
	if net.ParseIP(p.IPAddress) == nil {
		return fmt.Errorf("ip-address %q is not a valid IP address", p.IPAddress)
	}
	if err := ValidateHostname("hostname", p.Hostname); err != nil {
		return err
	}
	if len(p.Aliases) > MaxHostAliases {
		return fmt.Errorf("host %q has %d aliases, at most %d are allowed", p.IPAddress, len(p.Aliases), MaxHostAliases)
	}
	for _, alias := range p.Aliases {
		if err := ValidateHostname("alias", alias); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) MarshalJSON() ([]byte, error) {
	return marshalResource(h.Kind(), h.ID(), h.Parameters, h.Dependencies())
}

func (h *Host) UnmarshalJSON(data []byte) error {
	var w wireResource
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := json.Unmarshal(w.Parameters, &h.Parameters); err != nil {
		return err
	}
	h.SetID(w.ID)
	h.requires = w.Relationships.Requires
	return nil
}
