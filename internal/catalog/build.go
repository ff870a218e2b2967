package catalog

import (
	"fmt"

	"github.com/puetzp/pullconf/internal/variable"
)

// primaryKeyField names the raw declaration field that a symbolic `requires`
// entry of this kind carries its target's primary key in. ResolvConf has
// none: its primary key is the fixed literal "singleton".
func primaryKeyField(kind Kind) string {
	switch kind {
	case KindDirectory, KindFile, KindSymlink:
		return "path"
	case KindHost:
		return "ip-address"
	default:
		return "name"
	}
}

// parseRequires extracts and resolves the symbolic dependency list parked
// under a declaration's "requires" key, per spec.md §4.3 step 1.
func parseRequires(raw map[string]interface{}) ([]SymbolicRef, error) {
	rawList, ok := raw["requires"]
	if !ok || rawList == nil {
		return nil, nil
	}
	list, ok := rawList.([]interface{})
	if !ok {
		return nil, fmt.Errorf("requires must be an array of {type, key} tables")
	}

	out := make([]SymbolicRef, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("requires entry must be a table")
		}
		typeStr, _ := entry["type"].(string)
		if typeStr == "" {
			return nil, fmt.Errorf("requires entry missing \"type\"")
		}
		kind := Kind(typeStr)
		if kind == KindResolvConf {
			if err := rejectUnknownKeys("requires entry", entry, "type"); err != nil {
				return nil, err
			}
			out = append(out, SymbolicRef{Kind: kind, PrimaryKey: "singleton"})
			continue
		}
		field := primaryKeyField(kind)
		if err := rejectUnknownKeys("requires entry", entry, "type", field); err != nil {
			return nil, err
		}
		value, _ := entry[field].(string)
		if value == "" {
			return nil, fmt.Errorf("requires entry of type %q missing %q", typeStr, field)
		}
		out = append(out, SymbolicRef{Kind: kind, PrimaryKey: value})
	}
	return out, nil
}

// rejectUnknownKeys fails a declaration table that carries a field outside
// known, matching every original_source/**/de.rs parameter struct's
// #[serde(deny_unknown_fields)].
func rejectUnknownKeys(field string, raw map[string]interface{}, known ...string) error {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	for k := range raw {
		if !allowed[k] {
			return fmt.Errorf("%s: unknown field %q", field, k)
		}
	}
	return nil
}

// rejectUnknownResourceKeys is rejectUnknownKeys for a top-level resource
// declaration, where "type" and "requires" are always accepted alongside
// the kind's own fields.
func rejectUnknownResourceKeys(field string, raw map[string]interface{}, known ...string) error {
	return rejectUnknownKeys(field, raw, append([]string{"type", "requires"}, known...)...)
}

func resolveString(field string, raw map[string]interface{}, key string, vars map[string]any) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: %q must be a string", field, key)
	}
	return variable.ResolveString(field, s, vars)
}

func resolveOptionalString(field string, raw map[string]interface{}, key string, vars map[string]any) (*string, error) {
	v, ok := raw[key]
	if !ok {
		return nil, nil
	}
	return variable.ResolveOptionalString(field, v, vars)
}

func resolveBool(field string, raw map[string]interface{}, key string, vars map[string]any, def bool) (bool, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return def, nil
	}
	return variable.ResolveBool(field, v, vars)
}

func resolveStringSlice(field string, raw map[string]interface{}, key string, vars map[string]any) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	return variable.ResolveStringSlice(field, v, vars)
}

func resolveEnsure(raw map[string]interface{}, vars map[string]any) (Ensure, error) {
	s, err := resolveString("ensure", raw, "ensure", vars)
	if err != nil {
		return "", err
	}
	if s == "" {
		return EnsurePresent, nil
	}
	return Ensure(s), nil
}

// buildResource dispatches raw declaration data, tagged by its "type" field,
// to the matching concrete resource's builder, resolving every
// variable-or-value field against vars along the way.
func buildResource(raw map[string]interface{}, vars map[string]any) (Resource, []SymbolicRef, error) {
	typeStr, _ := raw["type"].(string)
	if typeStr == "" {
		return nil, nil, fmt.Errorf("resource declaration missing \"type\"")
	}

	requires, err := parseRequires(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("resource %q: %w", typeStr, err)
	}

	var r Resource
	switch Kind(typeStr) {
	case KindDirectory:
		r, err = buildDirectory(raw, vars)
	case KindFile:
		r, err = buildFile(raw, vars)
	case KindSymlink:
		r, err = buildSymlink(raw, vars)
	case KindHost:
		r, err = buildHost(raw, vars)
	case KindResolvConf:
		r, err = buildResolvConf(raw, vars)
	case KindGroup:
		r, err = buildGroup(raw, vars)
	case KindUser:
		r, err = buildUser(raw, vars)
	case KindAptPackage:
		r, err = buildAptPackage(raw, vars)
	case KindAptPreference:
		r, err = buildAptPreference(raw, vars)
	case KindCronJob:
		r, err = buildCronJob(raw, vars)
	default:
		return nil, nil, fmt.Errorf("unknown resource type %q", typeStr)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resource %q: %w", typeStr, err)
	}
	return r, requires, nil
}

func buildDirectory(raw map[string]interface{}, vars map[string]any) (Resource, error) {
	if err := rejectUnknownResourceKeys("directory", raw, "path", "ensure", "owner", "group", "purge"); err != nil {
		return nil, err
	}
	path, err := resolveString("directory", raw, "path", vars)
	if err != nil {
		return nil, err
	}
	ensure, err := resolveEnsure(raw, vars)
	if err != nil {
		return nil, err
	}
	owner, err := resolveString("directory", raw, "owner", vars)
	if err != nil {
		return nil, err
	}
	group, err := resolveString("directory", raw, "group", vars)
	if err != nil {
		return nil, err
	}
	purge, err := resolveBool("directory", raw, "purge", vars, false)
	if err != nil {
		return nil, err
	}
	d := &Directory{Parameters: DirectoryParameters{Path: path, Ensure: ensure, Owner: owner, Group: group, Purge: purge}}
	if err := d.Parameters.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func buildFile(raw map[string]interface{}, vars map[string]any) (Resource, error) {
	if err := rejectUnknownResourceKeys("file", raw, "path", "ensure", "mode", "owner", "group", "content", "source"); err != nil {
		return nil, err
	}
	path, err := resolveString("file", raw, "path", vars)
	if err != nil {
		return nil, err
	}
	ensure, err := resolveEnsure(raw, vars)
	if err != nil {
		return nil, err
	}
	mode, err := resolveString("file", raw, "mode", vars)
	if err != nil {
		return nil, err
	}
	owner, err := resolveString("file", raw, "owner", vars)
	if err != nil {
		return nil, err
	}
	group, err := resolveString("file", raw, "group", vars)
	if err != nil {
		return nil, err
	}
	content, err := resolveOptionalString("file", raw, "content", vars)
	if err != nil {
		return nil, err
	}
	source, err := resolveOptionalString("file", raw, "source", vars)
	if err != nil {
		return nil, err
	}
	f := &File{Parameters: FileParameters{Path: path, Ensure: ensure, Mode: mode, Owner: owner, Group: group, Content: content, Source: source}}
	if err := f.Parameters.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func buildSymlink(raw map[string]interface{}, vars map[string]any) (Resource, error) {
	if err := rejectUnknownResourceKeys("symlink", raw, "path", "ensure", "target"); err != nil {
		return nil, err
	}
	path, err := resolveString("symlink", raw, "path", vars)
	if err != nil {
		return nil, err
	}
	ensure, err := resolveEnsure(raw, vars)
	if err != nil {
		return nil, err
	}
	target, err := resolveString("symlink", raw, "target", vars)
	if err != nil {
		return nil, err
	}
	s := &Symlink{Parameters: SymlinkParameters{Path: path, Ensure: ensure, Target: target}}
	if err := s.Parameters.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func buildHost(raw map[string]interface{}, vars map[string]any) (Resource, error) {
	if err := rejectUnknownResourceKeys("host", raw, "target", "ensure", "ip-address", "hostname", "aliases"); err != nil {
		return nil, err
	}
	target, err := resolveString("host", raw, "target", vars)
	if err != nil {
		return nil, err
	}
	ensure, err := resolveEnsure(raw, vars)
	if err != nil {
		return nil, err
	}
	ip, err := resolveString("host", raw, "ip-address", vars)
	if err != nil {
		return nil, err
	}
	hostname, err := resolveString("host", raw, "hostname", vars)
	if err != nil {
		return nil, err
	}
	aliases, err := resolveStringSlice("host", raw, "aliases", vars)
	if err != nil {
		return nil, err
	}
	h := &Host{Parameters: HostParameters{Target: target, Ensure: ensure, IPAddress: ip, Hostname: hostname, Aliases: aliases}}
	if err := h.Parameters.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func buildResolvConf(raw map[string]interface{}, vars map[string]any) (Resource, error) {
	if err := rejectUnknownResourceKeys("resolv.conf", raw, "target", "ensure", "nameservers", "search", "sortlist", "options"); err != nil {
		return nil, err
	}
	target, err := resolveString("resolv.conf", raw, "target", vars)
	if err != nil {
		return nil, err
	}
	ensure, err := resolveEnsure(raw, vars)
	if err != nil {
		return nil, err
	}
	nameservers, err := resolveStringSlice("resolv.conf", raw, "nameservers", vars)
	if err != nil {
		return nil, err
	}
	search, err := resolveStringSlice("resolv.conf", raw, "search", vars)
	if err != nil {
		return nil, err
	}
	sortlist, err := resolveStringSlice("resolv.conf", raw, "sortlist", vars)
	if err != nil {
		return nil, err
	}
	options, err := resolveStringSlice("resolv.conf", raw, "options", vars)
	if err != nil {
		return nil, err
	}
	r := &ResolvConf{Parameters: ResolvConfParameters{Ensure: ensure, Target: target, Nameservers: nameservers, Search: search, Sortlist: sortlist, Options: options}}
	if err := r.Parameters.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func buildGroup(raw map[string]interface{}, vars map[string]any) (Resource, error) {
	if err := rejectUnknownResourceKeys("group", raw, "name", "ensure", "system"); err != nil {
		return nil, err
	}
	name, err := resolveString("group", raw, "name", vars)
	if err != nil {
		return nil, err
	}
	ensure, err := resolveEnsure(raw, vars)
	if err != nil {
		return nil, err
	}
	system, err := resolveBool("group", raw, "system", vars, false)
	if err != nil {
		return nil, err
	}
	g := &Group{Parameters: GroupParameters{Ensure: ensure, Name: name, System: system}}
	if err := g.Parameters.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func buildUser(raw map[string]interface{}, vars map[string]any) (Resource, error) {
	if err := rejectUnknownResourceKeys("user", raw, "name", "ensure", "system", "comment", "shell", "home", "password", "expiry-date", "group", "groups"); err != nil {
		return nil, err
	}
	name, err := resolveString("user", raw, "name", vars)
	if err != nil {
		return nil, err
	}
	ensure, err := resolveEnsure(raw, vars)
	if err != nil {
		return nil, err
	}
	system, err := resolveBool("user", raw, "system", vars, false)
	if err != nil {
		return nil, err
	}
	comment, err := resolveOptionalString("user", raw, "comment", vars)
	if err != nil {
		return nil, err
	}
	shell, err := resolveOptionalString("user", raw, "shell", vars)
	if err != nil {
		return nil, err
	}
	home, err := resolveString("user", raw, "home", vars)
	if err != nil {
		return nil, err
	}
	passwordRaw, err := resolveString("user", raw, "password", vars)
	if err != nil {
		return nil, err
	}
	password, err := ParsePassword(passwordRaw)
	if err != nil {
		return nil, err
	}
	expiryDate, err := resolveOptionalString("user", raw, "expiry-date", vars)
	if err != nil {
		return nil, err
	}
	group, err := resolveString("user", raw, "group", vars)
	if err != nil {
		return nil, err
	}
	groups, err := resolveStringSlice("user", raw, "groups", vars)
	if err != nil {
		return nil, err
	}
	u := &User{Parameters: UserParameters{
		Ensure: ensure, Name: name, System: system, Comment: comment, Shell: shell,
		Home: home, Password: password, ExpiryDate: expiryDate, Group: group, Groups: groups,
	}}
	if err := u.Parameters.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func buildAptPackage(raw map[string]interface{}, vars map[string]any) (Resource, error) {
	if err := rejectUnknownResourceKeys("apt::package", raw, "name", "ensure", "version"); err != nil {
		return nil, err
	}
	name, err := resolveString("apt::package", raw, "name", vars)
	if err != nil {
		return nil, err
	}
	ensureStr, err := resolveString("apt::package", raw, "ensure", vars)
	if err != nil {
		return nil, err
	}
	if ensureStr == "" {
		ensureStr = string(PackageEnsurePresent)
	}
	version, err := resolveOptionalString("apt::package", raw, "version", vars)
	if err != nil {
		return nil, err
	}
	a := &AptPackage{Parameters: AptPackageParameters{Ensure: PackageEnsure(ensureStr), Name: name, Version: version}}
	if err := a.Parameters.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func buildAptPreference(raw map[string]interface{}, vars map[string]any) (Resource, error) {
	if err := rejectUnknownResourceKeys("apt::preference", raw, "target", "ensure", "name", "explanation", "pin", "pin-priority", "package"); err != nil {
		return nil, err
	}
	target, err := resolveString("apt::preference", raw, "target", vars)
	if err != nil {
		return nil, err
	}
	ensure, err := resolveEnsure(raw, vars)
	if err != nil {
		return nil, err
	}
	name, err := resolveString("apt::preference", raw, "name", vars)
	if err != nil {
		return nil, err
	}
	explanation, err := resolveOptionalString("apt::preference", raw, "explanation", vars)
	if err != nil {
		return nil, err
	}
	pin, err := resolveString("apt::preference", raw, "pin", vars)
	if err != nil {
		return nil, err
	}
	priority, err := variable.ResolveInt("apt::preference", raw["pin-priority"], vars)
	if err != nil {
		return nil, err
	}

	var selector PackageSelector
	switch v := raw["package"].(type) {
	case string:
		resolved, err := variable.ResolveString("apt::preference", v, vars)
		if err != nil {
			return nil, err
		}
		if resolved == "*" {
			selector.Wildcard = true
		} else {
			selector.Names = []string{resolved}
		}
	default:
		names, err := resolveStringSlice("apt::preference", raw, "package", vars)
		if err != nil {
			return nil, err
		}
		selector.Names = names
	}

	a := &AptPreference{Parameters: AptPreferenceParameters{
		Ensure: ensure, Target: target, Name: name, Explanation: explanation,
		Package: selector, Pin: pin, PinPriority: int16(priority),
	}}
	if err := a.Parameters.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

func buildCronJob(raw map[string]interface{}, vars map[string]any) (Resource, error) {
	if err := rejectUnknownResourceKeys("cron::job", raw, "target", "ensure", "name", "schedule", "user", "command", "environment"); err != nil {
		return nil, err
	}
	target, err := resolveString("cron::job", raw, "target", vars)
	if err != nil {
		return nil, err
	}
	ensure, err := resolveEnsure(raw, vars)
	if err != nil {
		return nil, err
	}
	name, err := resolveString("cron::job", raw, "name", vars)
	if err != nil {
		return nil, err
	}
	schedule, err := resolveString("cron::job", raw, "schedule", vars)
	if err != nil {
		return nil, err
	}
	user, err := resolveString("cron::job", raw, "user", vars)
	if err != nil {
		return nil, err
	}
	command, err := resolveString("cron::job", raw, "command", vars)
	if err != nil {
		return nil, err
	}

	var environment []EnvVar
	if rawEnv, ok := raw["environment"].([]interface{}); ok {
		for _, item := range rawEnv {
			entry, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("cron::job %q: environment entry must be a table", name)
			}
			if err := rejectUnknownKeys("cron::job environment entry", entry, "name", "value"); err != nil {
				return nil, err
			}
			envName, err := resolveString("cron::job", entry, "name", vars)
			if err != nil {
				return nil, err
			}
			envValue, err := resolveOptionalString("cron::job", entry, "value", vars)
			if err != nil {
				return nil, err
			}
			environment = append(environment, EnvVar{Name: envName, Value: envValue})
		}
	}

	c := &CronJob{Parameters: CronJobParameters{
		Ensure: ensure, Target: target, Name: name, Schedule: schedule,
		User: user, Command: command, Environment: environment,
	}}
	if err := c.Parameters.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
