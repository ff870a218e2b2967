package catalog

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// ValidateName checks the shared identifier shape used by Unix group and
// user names: non-empty, at most 32 characters, first character alphabetic
// or underscore, remaining characters alphanumeric, hyphen or underscore.
// Grounded on original_source/common/src/resources/group.rs's Name type,
// which User's Name reuses verbatim.
func ValidateName(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if len(value) > 32 {
		return fmt.Errorf("%s must be at most 32 characters, got %d", field, len(value))
	}

	first := rune(value[0])
	if !(isAlpha(first) || first == '_') {
		return fmt.Errorf("%s must start with a letter or underscore, got %q", field, value)
	}

	for _, r := range value[1:] {
		if !(isAlphaNumeric(r) || r == '-' || r == '_') {
			return fmt.Errorf("%s contains an invalid character %q", field, r)
		}
	}

	return nil
}

// ValidateHostname checks the DNS hostname shape used by Host resources and
// by client names: non-empty, at most 253 characters, must not start with an
// underscore, dot-separated labels of 1-63 characters each drawn from
// alphanumerics, hyphen and dot. Grounded on
// original_source/common/src/name.rs.
func ValidateHostname(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if len(value) > 253 {
		return fmt.Errorf("%s must be at most 253 characters, got %d", field, len(value))
	}
	if strings.HasPrefix(value, "_") {
		return fmt.Errorf("%s must not start with an underscore, got %q", field, value)
	}

	for _, r := range value {
		if !(isAlphaNumeric(r) || r == '-' || r == '.') {
			return fmt.Errorf("%s contains an invalid character %q", field, r)
		}
	}

	for _, label := range strings.Split(value, ".") {
		if len(label) < 1 || len(label) > 63 {
			return fmt.Errorf("%s has a label %q that is not 1-63 characters long", field, label)
		}
	}

	return nil
}

// ValidateSafePath checks that p is an absolute path containing no "."
// or ".." components, grounded on
// original_source/common/src/path.rs's SafePathBuf.
func ValidateSafePath(field, p string) error {
	if !path.IsAbs(p) {
		return fmt.Errorf("%s must be an absolute path, got %q", field, p)
	}
	for _, component := range strings.Split(p, "/") {
		if component == "." || component == ".." {
			return fmt.Errorf("%s must not contain \".\" or \"..\" components, got %q", field, p)
		}
	}
	return nil
}

// ValidateMode checks a file mode string is 3 or 4 octal digits, grounded on
// original_source/common/src/resources/file.rs's Mode newtype.
func ValidateMode(mode string) error {
	if len(mode) < 3 || len(mode) > 4 {
		return fmt.Errorf("mode must be 3 or 4 digits, got %q", mode)
	}
	if _, err := strconv.ParseUint(mode, 8, 32); err != nil {
		return fmt.Errorf("mode %q is not valid octal: %w", mode, err)
	}
	return nil
}

// ValidatePackageName checks a Debian package name: at least 2 characters,
// first character a lowercase letter or digit, remaining characters
// lowercase alphanumerics, '+', '-' or '.'. Grounded on
// original_source/common/src/resources/apt.rs's PackageName.
func ValidatePackageName(value string) error {
	if len(value) < 2 {
		return fmt.Errorf("package name must be at least 2 characters, got %q", value)
	}
	first := rune(value[0])
	if !(isLowerAlphaNumeric(first)) {
		return fmt.Errorf("package name must start with a lowercase letter or digit, got %q", value)
	}
	for _, r := range value[1:] {
		if !(isLowerAlphaNumeric(r) || r == '+' || r == '-' || r == '.') {
			return fmt.Errorf("package name %q contains an invalid character %q", value, r)
		}
	}
	return nil
}

// ValidatePackageVersion checks a Debian package version string of the form
// [epoch:]upstream-version[-debian-revision]. Grounded on
// original_source/common/src/resources/apt.rs's PackageVersion.
func ValidatePackageVersion(value string) error {
	rest := value
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		epoch := rest[:idx]
		if _, err := strconv.ParseUint(epoch, 10, 8); err != nil {
			return fmt.Errorf("package version epoch %q is not a valid number: %w", epoch, err)
		}
		rest = rest[idx+1:]
	}

	upstream := rest
	if idx := strings.LastIndexByte(rest, '-'); idx >= 0 {
		upstream = rest[:idx]
		revision := rest[idx+1:]
		for _, r := range revision {
			if !(isAlphaNumeric(r) || r == '+' || r == '~' || r == '.') {
				return fmt.Errorf("package version revision %q contains an invalid character %q", revision, r)
			}
		}
	}

	if upstream == "" {
		return fmt.Errorf("package version %q has an empty upstream portion", value)
	}
	for _, r := range upstream {
		if !(isAlphaNumeric(r) || r == '+' || r == '-' || r == '~' || r == '.') {
			return fmt.Errorf("package version %q contains an invalid character %q", value, r)
		}
	}

	return nil
}

var resolverOptionAllowList = map[string]bool{
	"debug": true, "rotate": true, "no-check-names": true, "inet6": true,
	"edns0": true, "single-request": true, "single-request-reopen": true,
	"no-tld-query": true, "use-vc": true, "no-reload": true, "trust-ad": true,
}

// ValidateResolverOption checks a resolv.conf "options" entry against the
// fixed set recognized by glibc's resolver, grounded on
// original_source/common/src/resources/resolv_conf.rs.
func ValidateResolverOption(value string) error {
	if resolverOptionAllowList[value] {
		return nil
	}

	name, arg, hasArg := strings.Cut(value, ":")
	if !hasArg {
		return fmt.Errorf("unrecognized resolver option %q", value)
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("resolver option %q has a non-numeric argument", value)
	}

	switch name {
	case "ndots":
		if n < 0 || n > 15 {
			return fmt.Errorf("ndots must be between 0 and 15, got %d", n)
		}
	case "timeout":
		if n < 0 || n > 30 {
			return fmt.Errorf("timeout must be between 0 and 30, got %d", n)
		}
	case "attempts":
		if n < 0 || n > 5 {
			return fmt.Errorf("attempts must be between 0 and 5, got %d", n)
		}
	default:
		return fmt.Errorf("unrecognized resolver option %q", value)
	}

	return nil
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || (r >= '0' && r <= '9')
}

func isLowerAlphaNumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
