package catalog

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"
)

// ResolvConfParameters is ResolvConf's declarative desired state. At most
// one ResolvConf resource may exist per host (invariant 6).
type ResolvConfParameters struct {
	Ensure      Ensure   `json:"ensure"`
	Target      string   `json:"target"`
	Nameservers []string `json:"nameservers,omitempty"`
	Search      []string `json:"search,omitempty"`
	Sortlist    []string `json:"sortlist,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// ResolvConf manages the contents of a resolver configuration file (default
// /etc/resolv.conf).
type ResolvConf struct {
	Meta
	Parameters ResolvConfParameters
}

func (r *ResolvConf) Kind() Kind         { return KindResolvConf }
func (r *ResolvConf) PrimaryKey() string { return "singleton" }
func (r *ResolvConf) Display() string    { return r.Parameters.Target }

func (p ResolvConfParameters) Validate() error {
	if err := ValidateSafePath("target", p.Target); err != nil {
		return err
	}
	for _, ns := range p.Nameservers {
		if net.ParseIP(ns) == nil {
			return fmt.Errorf("nameserver %q is not a valid IP address", ns)
		}
	}
	for _, pair := range p.Sortlist {
		if err := validateSortlistPair(pair); err != nil {
			return err
		}
	}
	for _, opt := range p.Options {
		if err := ValidateResolverOption(opt); err != nil {
			return err
		}
	}
	return nil
}

// validateSortlistPair validates an entry of resolv.conf's "sortlist"
// directive: either a bare IP address or "ip/netmask".
func validateSortlistPair(value string) error {
	ip, netmask, hasNetmask := strings.Cut(value, "/")
	if net.ParseIP(ip) == nil {
		return fmt.Errorf("sortlist entry %q has an invalid IP address", value)
	}
	if hasNetmask && net.ParseIP(netmask) == nil {
		return fmt.Errorf("sortlist entry %q has an invalid netmask", value)
	}
	return nil
}

// Render builds the canonical resolv.conf text: nameserver lines, then
// search, then sortlist, then options, each in declaration order. Grounded
// on original_source/client/src/resources/resolv_conf.rs.
func (p ResolvConfParameters) Render() string {
	var b strings.Builder
	for _, ns := range p.Nameservers {
		fmt.Fprintf(&b, "nameserver %s\n", ns)
	}
	if len(p.Search) > 0 {
		fmt.Fprintf(&b, "search %s\n", strings.Join(p.Search, " "))
	}
	if len(p.Sortlist) > 0 {
		fmt.Fprintf(&b, "sortlist %s\n", strings.Join(p.Sortlist, " "))
	}
	if len(p.Options) > 0 {
		fmt.Fprintf(&b, "options %s\n", strings.Join(p.Options, " "))
	}
	return b.String()
}

func (r *ResolvConf) MarshalJSON() ([]byte, error) {
	return marshalResource(r.Kind(), r.ID(), r.Parameters, r.Dependencies())
}

func (r *ResolvConf) UnmarshalJSON(data []byte) error {
	var w wireResource
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := json.Unmarshal(w.Parameters, &r.Parameters); err != nil {
		return err
	}
	r.SetID(w.ID)
	r.requires = w.Relationships.Requires
	return nil
}
