package catalog

import "fmt"

// CompileErrorKind names the reason a compilation step rejected a host's
// declarations, mirroring the distinct failure modes spec.md §4.3 lists.
type CompileErrorKind string

const (
	ErrDuplicateResource      CompileErrorKind = "duplicate_resource"
	ErrDuplicateGroupResource CompileErrorKind = "duplicate_group_resource"
	ErrUnknownDependency      CompileErrorKind = "unknown_dependency"
	ErrForbiddenDependency    CompileErrorKind = "forbidden_dependency"
	ErrDependencyCycle        CompileErrorKind = "dependency_cycle"
	ErrStructural             CompileErrorKind = "structural"
	ErrValidation             CompileErrorKind = "validation"
	ErrUnknownGroup           CompileErrorKind = "unknown_group"
	ErrDuplicateApiKey        CompileErrorKind = "duplicate_api_key"
)

// CompileError is returned by Compile when a host's declarations cannot be
// turned into a catalog.
type CompileError struct {
	Kind    CompileErrorKind
	Host    string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %s: %s", e.Host, e.Kind, e.Message)
}

func compileErr(host string, kind CompileErrorKind, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Host: host, Message: fmt.Sprintf(format, args...)}
}

// NewCompileError builds a CompileError for callers outside this package
// (the server package's Reload, which checks cross-host invariants that
// Compile itself cannot see since it compiles one host at a time).
func NewCompileError(host string, kind CompileErrorKind, format string, args ...any) *CompileError {
	return compileErr(host, kind, format, args...)
}
