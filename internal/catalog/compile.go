package catalog

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/puetzp/pullconf/internal/declaration"
	"github.com/puetzp/pullconf/internal/dependency"
)

// metaSetter is the compile-time-only mutation surface every concrete
// resource type exposes through its embedded Meta. Resource itself stays
// read-only so that the agent and server packages cannot accidentally
// re-wire a compiled catalog.
type metaSetter interface {
	SetID(uuid.UUID)
	SetFromGroup(string)
	SetSymbolicRequires([]SymbolicRef)
	SymbolicRequires() []SymbolicRef
	AddRequires(ResourceMetadata)
}

type resourceKey struct {
	Kind       Kind
	PrimaryKey string
}

// Catalog is one host's fully compiled, dependency-linked, loop-free
// resource set, ready for serialization as the server's response body.
type Catalog struct {
	Host      string
	Resources []Resource
}

// Compile runs the three-step pipeline of spec.md §4.3 for a single host:
// instantiate the host's own resources, inherit from its assigned groups,
// then validate and wire dependencies kind by kind.
func Compile(host declaration.Host, groups map[string]declaration.Group) (*Catalog, error) {
	vars := host.Variables
	if vars == nil {
		vars = map[string]any{}
	}

	byKey := make(map[resourceKey]Resource)
	groupContributed := make(map[resourceKey]string)
	var order []resourceKey

	// Step 1 — instantiate host-owned resources.
	for _, raw := range host.Resources {
		r, requires, err := buildResource(raw, vars)
		if err != nil {
			return nil, compileErr(host.Name, ErrValidation, "%v", err)
		}
		key := resourceKey{Kind: r.Kind(), PrimaryKey: r.PrimaryKey()}
		if _, dup := byKey[key]; dup {
			return nil, compileErr(host.Name, ErrDuplicateResource, "duplicate %s %q declared directly on host", r.Kind(), r.PrimaryKey())
		}
		ms := r.(metaSetter)
		ms.SetID(uuid.New())
		ms.SetSymbolicRequires(requires)
		byKey[key] = r
		order = append(order, key)
	}

	// Step 2 — inherit from groups, in declared order.
	for _, groupName := range host.Groups {
		group, ok := groups[groupName]
		if !ok {
			return nil, compileErr(host.Name, ErrUnknownGroup, "host assigns unknown group %q", groupName)
		}
		for _, raw := range group.Resources {
			r, requires, err := buildResource(raw, vars)
			if err != nil {
				return nil, compileErr(host.Name, ErrValidation, "group %q: %v", groupName, err)
			}
			key := resourceKey{Kind: r.Kind(), PrimaryKey: r.PrimaryKey()}
			if contributor, already := groupContributed[key]; already {
				if contributor == groupName {
					continue
				}
				return nil, compileErr(host.Name, ErrDuplicateGroupResource,
					"group %q and group %q both contribute %s %q", contributor, groupName, r.Kind(), r.PrimaryKey())
			}
			if _, ownedByHost := byKey[key]; ownedByHost {
				continue
			}
			ms := r.(metaSetter)
			ms.SetID(uuid.New())
			ms.SetSymbolicRequires(requires)
			ms.SetFromGroup(groupName)
			byKey[key] = r
			groupContributed[key] = groupName
			order = append(order, key)
		}
	}

	byKindPK := make(map[Kind]map[string]Resource)
	graph := dependency.New()
	for _, key := range order {
		r := byKey[key]
		graph.AddNode(r.ID())
		if byKindPK[key.Kind] == nil {
			byKindPK[key.Kind] = make(map[string]Resource)
		}
		byKindPK[key.Kind][key.PrimaryKey] = r
	}

	c := &compiler{
		host:       host.Name,
		byKindPK:   byKindPK,
		pathOwners: make(map[string]Resource),
		graph:      graph,
	}

	// Step 3 — validate and wire each kind.
	if err := c.registerPaths(); err != nil {
		return nil, err
	}
	if err := c.wireContainment(); err != nil {
		return nil, err
	}
	c.recordChildren()
	if err := c.wireTargets(); err != nil {
		return nil, err
	}
	if err := c.wireGroupsAndUsers(); err != nil {
		return nil, err
	}
	if err := c.wireExplicit(byKey); err != nil {
		return nil, err
	}

	resources := make([]Resource, 0, len(order))
	for _, key := range order {
		resources = append(resources, byKey[key])
	}
	sort.Slice(resources, func(i, j int) bool {
		ki, kj := kindOrderIndex(resources[i].Kind()), kindOrderIndex(resources[j].Kind())
		if ki != kj {
			return ki < kj
		}
		return resources[i].PrimaryKey() < resources[j].PrimaryKey()
	})

	return &Catalog{Host: host.Name, Resources: resources}, nil
}

func kindOrderIndex(k Kind) int {
	for i, kind := range AllKinds {
		if kind == k {
			return i
		}
	}
	return len(AllKinds)
}

// compiler carries the per-host wiring state across step 3's passes.
type compiler struct {
	host       string
	byKindPK   map[Kind]map[string]Resource
	pathOwners map[string]Resource // file/directory/symlink path namespace
	graph      *dependency.Graph
}

func resourcePath(r Resource) (string, bool) {
	switch v := r.(type) {
	case *File:
		return v.Parameters.Path, true
	case *Directory:
		return v.Parameters.Path, true
	case *Symlink:
		return v.Parameters.Path, true
	}
	return "", false
}

func targetOf(r Resource) (string, bool) {
	switch v := r.(type) {
	case *Host:
		return v.Parameters.Target, true
	case *ResolvConf:
		return v.Parameters.Target, true
	case *AptPreference:
		return v.Parameters.Target, true
	case *CronJob:
		return v.Parameters.Target, true
	}
	return "", false
}

// targetOfKinds behaves like targetOf but only reports a target for the
// given subset of target-carrying kinds, so each mayDependOn branch below
// restricts against exactly the kinds original_source/server/src/types/resources/{directory,file,symlink}.rs's
// may_depend_on restricts against, rather than sharing one over-broad set.
func targetOfKinds(r Resource, kinds ...Kind) (string, bool) {
	for _, k := range kinds {
		if r.Kind() != k {
			continue
		}
		return targetOf(r)
	}
	return "", false
}

// registerPaths enforces uniqueness within the shared file/directory/symlink
// path namespace and the structural rule that a file cannot be the parent
// of another file, directory or symlink.
func (c *compiler) registerPaths() error {
	for _, kind := range []Kind{KindFile, KindDirectory, KindSymlink} {
		for _, r := range c.byKindPK[kind] {
			path, _ := resourcePath(r)
			if existing, dup := c.pathOwners[path]; dup {
				return compileErr(c.host, ErrDuplicateResource, "%s %q and %s %q share the path %q",
					existing.Kind(), existing.PrimaryKey(), r.Kind(), r.PrimaryKey(), path)
			}
			c.pathOwners[path] = r
		}
	}
	for _, r := range c.byKindPK[KindFile] {
		path, _ := resourcePath(r)
		for _, other := range c.pathOwners {
			if other == r {
				continue
			}
			otherPath, _ := resourcePath(other)
			if filepath.Dir(otherPath) == path {
				return compileErr(c.host, ErrStructural, "file %q cannot be the parent of %s %q", path, other.Kind(), other.PrimaryKey())
			}
		}
	}
	return nil
}

func ancestors(p string) []string {
	var out []string
	cur := p
	for {
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		out = append(out, parent)
		cur = parent
		if parent == "/" {
			break
		}
	}
	return out
}

func (c *compiler) addEdge(from, to Resource) error {
	if from.ID() == to.ID() {
		return nil
	}
	if c.graph.WouldCycle(from.ID(), to.ID()) {
		return compileErr(c.host, ErrDependencyCycle, "%s %q -> %s %q would introduce a cycle",
			from.Kind(), from.PrimaryKey(), to.Kind(), to.PrimaryKey())
	}
	c.graph.AddEdge(from.ID(), to.ID())
	from.(metaSetter).AddRequires(ResourceMetadata{Kind: to.Kind(), ID: to.ID()})
	return nil
}

// wireContainment adds the implicit "self -> ancestor" edges for every
// file, directory and symlink whose path is nested under a directory or
// symlink resource, plus the symlink -> target edge.
func (c *compiler) wireContainment() error {
	for _, kind := range []Kind{KindFile, KindDirectory, KindSymlink} {
		for _, r := range c.byKindPK[kind] {
			path, _ := resourcePath(r)
			for _, ancestor := range ancestors(path) {
				owner, ok := c.pathOwners[ancestor]
				if !ok {
					continue
				}
				if owner.Kind() != KindDirectory && owner.Kind() != KindSymlink {
					continue
				}
				if err := c.addEdge(r, owner); err != nil {
					return err
				}
			}
		}
	}
	for _, r := range c.byKindPK[KindSymlink] {
		sym := r.(*Symlink)
		if target, ok := c.pathOwners[sym.Parameters.Target]; ok {
			if err := c.addEdge(r, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func childKindOf(r Resource) (ChildKind, bool) {
	switch r.Kind() {
	case KindFile:
		return ChildFile, true
	case KindDirectory:
		return ChildDirectory, true
	case KindSymlink:
		return ChildSymlink, true
	case KindAptPreference:
		return ChildAptPreference, true
	}
	return "", false
}

// recordChildren populates each directory's Children list with the path
// resources (and apt preference stanzas) directly nested under it, used by
// the agent's purge mode.
func (c *compiler) recordChildren() {
	for _, d := range c.byKindPK[KindDirectory] {
		dir := d.(*Directory)
		var children []Child
		for _, kind := range []Kind{KindFile, KindDirectory, KindSymlink} {
			for _, r := range c.byKindPK[kind] {
				path, _ := resourcePath(r)
				if filepath.Dir(path) != dir.Parameters.Path {
					continue
				}
				ck, _ := childKindOf(r)
				children = append(children, Child{Kind: ck, Path: path})
			}
		}
		for _, r := range c.byKindPK[KindAptPreference] {
			pref := r.(*AptPreference)
			if filepath.Dir(pref.Parameters.Target) != dir.Parameters.Path {
				continue
			}
			children = append(children, Child{Kind: ChildAptPreference, Path: pref.Parameters.Target})
		}
		sort.Slice(children, func(i, j int) bool { return children[i].Path < children[j].Path })
		dir.Children = children
	}
}

// wireTargets links Host, ResolvConf, AptPreference and CronJob resources
// to an existing File or Symlink resource at their target path, per
// spec.md §4.3's "Target linkage" step.
func (c *compiler) wireTargets() error {
	targetKinds := []Kind{KindHost, KindResolvConf, KindAptPreference, KindCronJob}
	for _, kind := range targetKinds {
		for _, r := range c.byKindPK[kind] {
			target, _ := targetOf(r)
			owner, ok := c.pathOwners[target]
			if !ok {
				continue
			}
			if file, isFile := owner.(*File); isFile {
				if file.Parameters.HasContentOrSource() {
					return compileErr(c.host, ErrStructural, "%s %q targets file %q, which must not set content or source",
						r.Kind(), r.PrimaryKey(), target)
				}
			}
			if err := c.addEdge(r, owner); err != nil {
				return err
			}
		}
	}
	return nil
}

// wireGroupsAndUsers adds the Group -> User (primary group) and
// User -> Group (supplementary group) edges.
func (c *compiler) wireGroupsAndUsers() error {
	for _, g := range c.byKindPK[KindGroup] {
		group := g.(*Group)
		for _, u := range c.byKindPK[KindUser] {
			user := u.(*User)
			if user.Parameters.Group == group.Parameters.Name {
				if err := c.addEdge(g, u); err != nil {
					return err
				}
			}
		}
	}
	for _, u := range c.byKindPK[KindUser] {
		user := u.(*User)
		for _, name := range user.Parameters.Groups {
			g, ok := c.byKindPK[KindGroup][name]
			if !ok {
				continue
			}
			if err := c.addEdge(u, g); err != nil {
				return err
			}
		}
	}
	return nil
}

// mayDependOn implements spec.md §4.3's per-kind "forbids dependencies on"
// predicate table. It returns false when from must not depend on to.
func mayDependOn(from, to Resource) bool {
	if from.ID() == to.ID() {
		return false
	}
	switch f := from.(type) {
	case *Directory:
		if toPath, ok := resourcePath(to); ok {
			if strings.HasPrefix(toPath, f.Parameters.Path+"/") {
				return false
			}
		}
		if sym, ok := to.(*Symlink); ok && within(f.Parameters.Path, sym.Parameters.Target) {
			return false
		}
		if target, ok := targetOfKinds(to, KindHost, KindResolvConf, KindAptPreference); ok && within(f.Parameters.Path, target) {
			return false
		}
		return true
	case *File:
		if target, ok := targetOfKinds(to, KindHost, KindResolvConf); ok && target == f.Parameters.Path {
			return false
		}
		if sym, ok := to.(*Symlink); ok && sym.Parameters.Target == f.Parameters.Path {
			return false
		}
		return true
	case *Symlink:
		if toPath, ok := resourcePath(to); ok && (to.Kind() == KindDirectory || to.Kind() == KindFile) && toPath == f.Parameters.Target {
			return false
		}
		if target, ok := targetOfKinds(to, KindHost, KindResolvConf); ok && target == f.Parameters.Path {
			return false
		}
		return true
	case *Group:
		if u, ok := to.(*User); ok && u.Parameters.Group == f.Parameters.Name {
			return false
		}
		return true
	case *User:
		if d, ok := to.(*Directory); ok && d.Parameters.Path == f.Parameters.Home {
			return false
		}
		if g, ok := to.(*Group); ok {
			for _, sup := range f.Parameters.Groups {
				if sup == g.Parameters.Name {
					return false
				}
			}
		}
		return true
	default:
		return true
	}
}

func within(dir, path string) bool {
	return path == dir || strings.HasPrefix(path, dir+"/")
}

// wireExplicit resolves each resource's parked symbolic `requires` entries
// against the fully populated catalog.
func (c *compiler) wireExplicit(byKey map[resourceKey]Resource) error {
	for _, r := range byKey {
		ms := r.(metaSetter)
		for _, ref := range ms.SymbolicRequires() {
			target, ok := c.byKindPK[ref.Kind][ref.PrimaryKey]
			if !ok {
				return compileErr(c.host, ErrUnknownDependency, "%s %q requires unknown %s %q",
					r.Kind(), r.PrimaryKey(), ref.Kind, ref.PrimaryKey)
			}
			if !mayDependOn(r, target) {
				return compileErr(c.host, ErrForbiddenDependency, "%s %q must not depend on %s %q",
					r.Kind(), r.PrimaryKey(), target.Kind(), target.PrimaryKey())
			}
			if err := c.addEdge(r, target); err != nil {
				return err
			}
		}
	}
	return nil
}
