package pkgdb

import (
	"fmt"
	"regexp"
	"strings"
)

// CPV holds the decomposed parts of a Portage package identifier.
// Version carries no revision; Revision is the bare "rN" suffix, empty
// when absent.
type CPV struct {
	Category string
	Package  string
	Version  string
	Revision string
}

var (
	// A version token: 1, 1.2.3, 1.2b, 1.0_rc3, 20240101. A trailing '*'
	// is tolerated so that glob patterns such as "cat/foo-1.0*" keep their
	// version part when split.
	versionRe = regexp.MustCompile(`^\d+(\.\d+)*[a-zA-Z]?(_(alpha|beta|pre|rc|p)\d*)*\*?$`)

	revisionRe = regexp.MustCompile(`^r\d+$`)
)

// CP returns the category/package identifier, without version or slot.
func (c CPV) CP() string {
	if c.Category == "" {
		return c.Package
	}
	return c.Category + "/" + c.Package
}

// VersionRev returns the version with its revision suffix, if any.
func (c CPV) VersionRev() string {
	if c.Revision == "" {
		return c.Version
	}
	return c.Version + "-" + c.Revision
}

func (c CPV) String() string {
	s := c.CP()
	if v := c.VersionRev(); v != "" {
		s += "-" + v
	}
	return s
}

// SplitCPV decomposes a CPV string such as "foo/app1-1.2.3-r4" into its
// category, package, version and revision parts. The category and the
// version may each be absent; in strict mode their absence is an error,
// otherwise the result is best effort (used for matching partial
// patterns). The version is taken to be the last hyphen-separated token
// that looks like a Portage version, optionally followed by an "rN"
// revision token.
func SplitCPV(s string, strict bool) (CPV, error) {
	var out CPV

	rest := s
	if i := strings.Index(rest, "/"); i >= 0 {
		out.Category = rest[:i]
		rest = rest[i+1:]
		if strings.Contains(rest, "/") {
			return CPV{}, fmt.Errorf("%w: %q", ErrMalformedCPV, s)
		}
	}

	tokens := strings.Split(rest, "-")
	n := len(tokens)
	switch {
	case n >= 3 && revisionRe.MatchString(tokens[n-1]) && versionRe.MatchString(tokens[n-2]):
		out.Revision = tokens[n-1]
		out.Version = tokens[n-2]
		out.Package = strings.Join(tokens[:n-2], "-")
	case n >= 2 && versionRe.MatchString(tokens[n-1]):
		out.Version = tokens[n-1]
		out.Package = strings.Join(tokens[:n-1], "-")
	default:
		out.Package = rest
	}

	if out.Package == "" {
		return CPV{}, fmt.Errorf("%w: %q", ErrMalformedCPV, s)
	}
	if strict && (out.Category == "" || out.Version == "") {
		return CPV{}, fmt.Errorf("%w: %q", ErrMalformedCPV, s)
	}
	return out, nil
}

// GetCP extracts the CP value from a CPV or dependency atom remainder.
// Both category and package must be present.
func GetCP(s string) (string, error) {
	attrs, err := SplitCPV(s, false)
	if err != nil {
		return "", err
	}
	if attrs.Category == "" || attrs.Package == "" {
		return "", fmt.Errorf("%w: cannot get CP value for %q", ErrMalformedCPV, s)
	}
	return attrs.CP(), nil
}
