package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Password models a Unix account password field: either Locked (the account
// cannot be logged into directly, serialized as "!") or Unlocked carrying a
// pre-hashed password string. Grounded on
// original_source/common/src/resources/user.rs's Password enum.
type Password struct {
	Locked bool
	Hash   string // only meaningful when Locked is false
}

var unlockedHashPrefixes = []string{"$5$", "$6$", "$7$", "$2b$", "$gy$", "$y$"}

// ParsePassword parses the wire representation of a password field: "!" or
// "*" mean Locked; otherwise the value must start with one of the
// recognized hash prefixes.
func ParsePassword(value string) (Password, error) {
	if value == "" || value == "!" || value == "*" {
		return Password{Locked: true}, nil
	}
	for _, prefix := range unlockedHashPrefixes {
		if strings.HasPrefix(value, prefix) {
			return Password{Hash: value}, nil
		}
	}
	return Password{}, fmt.Errorf("password %q does not start with a recognized hash prefix", value)
}

func (p Password) String() string {
	if p.Locked {
		return "!"
	}
	return p.Hash
}

func (p Password) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Password) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePassword(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

const ExpiryDateLayout = "2006-01-02"

// UserParameters is User's declarative desired state.
type UserParameters struct {
	Ensure      Ensure    `json:"ensure"`
	Name        string    `json:"name"`
	System      bool      `json:"system"`
	Comment     *string   `json:"comment,omitempty"`
	Shell       *string   `json:"shell,omitempty"`
	Home        string    `json:"home"`
	Password    Password  `json:"password"`
	ExpiryDate  *string   `json:"expiry-date,omitempty"`
	Group       string    `json:"group"`
	Groups      []string  `json:"groups,omitempty"`
}

// User manages the existence of a Unix user account.
type User struct {
	Meta
	Parameters UserParameters
}

func (u *User) Kind() Kind         { return KindUser }
func (u *User) PrimaryKey() string { return u.Parameters.Name }
func (u *User) Display() string    { return u.Parameters.Name }

func (p UserParameters) Validate() error {
	if err := ValidateName("name", p.Name); err != nil {
		return err
	}
	if err := ValidateSafePath("home", p.Home); err != nil {
		return err
	}
	if p.Shell != nil {
		if err := ValidateSafePath("shell", *p.Shell); err != nil {
			return err
		}
	}
	if err := ValidateName("group", p.Group); err != nil {
		return err
	}
	for _, supplementary := range p.Groups {
		if err := ValidateName("groups", supplementary); err != nil {
			return err
		}
		if supplementary == p.Group {
			return fmt.Errorf("user %q has primary group %q listed among its supplementary groups", p.Name, p.Group)
		}
	}
	if p.ExpiryDate != nil {
		if _, err := time.Parse(ExpiryDateLayout, *p.ExpiryDate); err != nil {
			return fmt.Errorf("expiry-date %q is not in YYYY-MM-DD format: %w", *p.ExpiryDate, err)
		}
	}
	return nil
}

// SortedGroups returns the user's supplementary groups sorted, matching the
// comparison basis the agent's account lookup uses.
func (p UserParameters) SortedGroups() []string {
	out := append([]string(nil), p.Groups...)
	sort.Strings(out)
	return out
}

func (u *User) MarshalJSON() ([]byte, error) {
	return marshalResource(u.Kind(), u.ID(), u.Parameters, u.Dependencies())
}

func (u *User) UnmarshalJSON(data []byte) error {
	var w wireResource
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := json.Unmarshal(w.Parameters, &u.Parameters); err != nil {
		return err
	}
	u.SetID(w.ID)
	u.requires = w.Relationships.Requires
	return nil
}
