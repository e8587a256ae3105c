package doctor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var versionPattern = regexp.MustCompile(`v?\d+\.\d+(\.\d+)?(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

// ParseVersion finds the first semantic version in the analyzer's
// --version output, e.g. "unity_context_generator v1.4.2".
func ParseVersion(output string) (*semver.Version, error) {
	for _, field := range strings.Fields(output) {
		m := versionPattern.FindString(field)
		if m == "" {
			continue
		}
		v, err := semver.NewVersion(m)
		if err != nil {
			continue
		}
		return v, nil
	}
	return nil, fmt.Errorf("no version found in %q", strings.TrimSpace(output))
}

// IsRange returns true if the constraint is a SemVer range (e.g.
// ">= 1.0.0", "^1.2") rather than an exact version.
func IsRange(constraint string) bool {
	return strings.ContainsAny(constraint, "^~><!=, *xX|")
}

// Satisfies reports whether v meets constraint. An empty constraint
// accepts any version; an exact version must match exactly.
func Satisfies(v *semver.Version, constraint string) (bool, error) {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" {
		return true, nil
	}
	if !IsRange(constraint) {
		exact, err := semver.NewVersion(constraint)
		if err != nil {
			return false, fmt.Errorf("invalid version %q: %w", constraint, err)
		}
		return v.Equal(exact), nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	return c.Check(v), nil
}
