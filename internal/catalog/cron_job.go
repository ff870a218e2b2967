package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// EnvVar is one environment variable line of a cron job declaration. A nil
// Value renders as "NAME=" (an explicitly empty assignment), matching
// original_source/client/src/resources/cron/job.rs.
type EnvVar struct {
	Name  string  `json:"name"`
	Value *string `json:"value,omitempty"`
}

func (e EnvVar) render() string {
	if e.Value == nil {
		return fmt.Sprintf("%s=\n", e.Name)
	}
	return fmt.Sprintf("%s=%q\n", e.Name, *e.Value)
}

// CronJobParameters is CronJob's declarative desired state: a crontab file
// (/etc/cron.d/*) holding one job line after its environment assignments.
type CronJobParameters struct {
	Ensure      Ensure   `json:"ensure"`
	Target      string   `json:"target"`
	Name        string   `json:"name"`
	Schedule    string   `json:"schedule"`
	User        string   `json:"user"`
	Command     string   `json:"command"`
	Environment []EnvVar `json:"environment,omitempty"`
}

// CronJob manages a whole crontab file holding a single job.
type CronJob struct {
	Meta
	Parameters CronJobParameters
}

func (c *CronJob) Kind() Kind         { return KindCronJob }
func (c *CronJob) PrimaryKey() string { return c.Parameters.Name }
func (c *CronJob) Display() string    { return c.Parameters.Name }

func (p CronJobParameters) Validate() error {
	if err := ValidateSafePath("target", p.Target); err != nil {
		return err
	}
	if err := ValidateName("name", p.Name); err != nil {
		return err
	}
	if p.Schedule == "" {
		return fmt.Errorf("schedule must not be empty")
	}
	if err := ValidateName("user", p.User); err != nil {
		return err
	}
	if p.Command == "" {
		return fmt.Errorf("command must not be empty")
	}
	seen := make(map[string]bool, len(p.Environment))
	for _, env := range p.Environment {
		if seen[env.Name] {
			return fmt.Errorf("environment variable %q is declared more than once", env.Name)
		}
		seen[env.Name] = true
	}
	return nil
}

// Render builds the canonical crontab file text: each environment variable
// assignment first (in reverse declaration order, matching the original's
// reverse-insert behavior), then "{schedule} {user} {command}\n". Grounded
// on original_source/client/src/resources/cron/job.rs's _apply.
func (p CronJobParameters) Render() string {
	var b strings.Builder
	for i := len(p.Environment) - 1; i >= 0; i-- {
		b.WriteString(p.Environment[i].render())
	}
	fmt.Fprintf(&b, "%s %s %s\n", p.Schedule, p.User, p.Command)
	return b.String()
}

// sortedEnvironmentNames returns the declared environment variable names in
// sorted order.
func (p CronJobParameters) sortedEnvironmentNames() []string {
	names := make([]string, len(p.Environment))
	for i, env := range p.Environment {
		names[i] = env.Name
	}
	sort.Strings(names)
	return names
}

func (c *CronJob) MarshalJSON() ([]byte, error) {
	return marshalResource(c.Kind(), c.ID(), c.Parameters, c.Dependencies())
}

func (c *CronJob) UnmarshalJSON(data []byte) error {
	var w wireResource
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := json.Unmarshal(w.Parameters, &c.Parameters); err != nil {
		return err
	}
	c.SetID(w.ID)
	c.requires = w.Relationships.Requires
	return nil
}
