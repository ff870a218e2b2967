// Package catalog implements the pullconf data model: the tagged-sum
// resource kinds, the per-host and per-group collections that hold them, and
// the compiler that turns a set of unresolved declarations into a complete,
// dependency-linked, loop-free catalog per host.
package catalog

// Kind identifies a resource's variant. It is the wire-format "type" tag and
// the dispatch key used throughout the compiler and the agent.
type Kind string

const (
	KindDirectory     Kind = "directory"
	KindFile          Kind = "file"
	KindSymlink       Kind = "symlink"
	KindUser          Kind = "user"
	KindGroup         Kind = "group"
	KindHost          Kind = "host"
	KindResolvConf    Kind = "resolv.conf"
	KindAptPackage    Kind = "apt::package"
	KindAptPreference Kind = "apt::preference"
	KindCronJob       Kind = "cron::job"
)

// AllKinds lists every resource kind exactly once. Compile sorts a catalog's
// resources by their kind's position in this list, then by primary key.
var AllKinds = []Kind{
	KindFile,
	KindDirectory,
	KindSymlink,
	KindHost,
	KindGroup,
	KindUser,
	KindResolvConf,
	KindAptPackage,
	KindAptPreference,
	KindCronJob,
}

// Ensure is the two-state desired-state flag shared by most resource kinds.
type Ensure string

const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

func (e Ensure) IsPresent() bool { return e == EnsurePresent || e == "" }
func (e Ensure) IsAbsent() bool  { return e == EnsureAbsent }

// PackageEnsure is AptPackage's three-state desired-state flag: unlike every
// other kind, a package can be merely removed (leaving configuration files
// behind) or purged (removing those too).
type PackageEnsure string

const (
	PackageEnsurePresent PackageEnsure = "present"
	PackageEnsureAbsent  PackageEnsure = "absent"
	PackageEnsurePurged  PackageEnsure = "purged"
)

func (e PackageEnsure) IsPresent() bool { return e == PackageEnsurePresent || e == "" }
