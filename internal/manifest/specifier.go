package manifest

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// FallbackName is used when a dependency's name cannot be extracted from a
// URL or path form. The dependency is kept under this placeholder rather than
// silently dropped.
const FallbackName = "unnamed-dependency"

// Specifier is one parsed dependency specification.
type Specifier struct {
	Name       string   // normalized package name
	Extras     []string // bracketed extras, e.g. pkg[extra1,extra2]
	Constraint string   // version constraint, e.g. ">=1.0.0" or "==2.1"
	Marker     string   // environment marker after ';', e.g. python_version>='3.8'
	Source     Source   // where the package comes from
	URL        string   // set for SourceVCS/SourceURL/SourcePath
	Editable   bool     // pip -e flag
}

// Source classifies where a dependency is fetched from.
type Source string

const (
	SourceRegistry Source = "registry"
	SourceVCS      Source = "vcs"
	SourceURL      Source = "url"
	SourcePath     Source = "path"
)

var (
	vcsPrefixes = []string{"git+", "hg+", "bzr+", "svn+"}

	// name-1.2.3-py3-none-any.whl or name-1.2.3.tar.gz
	wheelNameRe   = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*?)-\d`)
	archiveSuffix = regexp.MustCompile(`\.(whl|tar\.gz|tgz|zip|tar\.bz2)$`)

	operatorRe = regexp.MustCompile(`(===|==|!=|<=|>=|~=|<|>)`)

	nameSepRe = regexp.MustCompile(`[-_.]+`)
)

// NormalizeName lowercases a package name and collapses runs of '.', '_' and
// '-' to a single '-' (PEP 503 normalization).
func NormalizeName(name string) string {
	return strings.ToLower(nameSepRe.ReplaceAllString(strings.TrimSpace(name), "-"))
}

// ParseSpecifier parses a single dependency specifier in the requirements
// dialect. It accepts registry specifiers with optional extras, version
// operators and environment markers, plus three non-registry forms: VCS URLs
// (name from an explicit #egg= alias), direct download URLs (name from the
// archive filename), and local filesystem paths (name from the basename).
func ParseSpecifier(raw string) Specifier {
	s := strings.TrimSpace(raw)
	spec := Specifier{Source: SourceRegistry}

	if strings.HasPrefix(s, "-e ") || strings.HasPrefix(s, "--editable ") {
		spec.Editable = true
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "-e "), "--editable "))
	}

	// Environment marker applies to every form.
	if i := strings.Index(s, ";"); i >= 0 {
		spec.Marker = strings.TrimSpace(s[i+1:])
		s = strings.TrimSpace(s[:i])
	}

	switch {
	case isVCS(s):
		spec.Source = SourceVCS
		spec.URL = s
		spec.Name = nameFromVCS(s)
	case isURL(s):
		spec.Source = SourceURL
		spec.URL = s
		spec.Name = nameFromURL(s)
	case isLocalPath(s):
		spec.Source = SourcePath
		spec.URL = s
		spec.Name = nameFromPath(s)
	default:
		parseRegistry(s, &spec)
	}

	if spec.Name == "" {
		spec.Name = FallbackName
	}
	return spec
}

// String reassembles the specifier in registry form, used when constructing
// install command lines.
func (s Specifier) String() string {
	if s.Source != SourceRegistry {
		return s.URL
	}
	out := s.Name
	if len(s.Extras) > 0 {
		out += "[" + strings.Join(s.Extras, ",") + "]"
	}
	out += s.Constraint
	if s.Marker != "" {
		out += "; " + s.Marker
	}
	return out
}

func parseRegistry(s string, spec *Specifier) {
	// Split extras first: name[extra1,extra2]>=1.0
	name := s
	rest := ""
	if open := strings.Index(s, "["); open >= 0 {
		if end := strings.Index(s, "]"); end > open {
			name = s[:open]
			for _, e := range strings.Split(s[open+1:end], ",") {
				if e = strings.TrimSpace(e); e != "" {
					spec.Extras = append(spec.Extras, e)
				}
			}
			rest = s[end+1:]
		}
	} else if loc := operatorRe.FindStringIndex(s); loc != nil {
		name = s[:loc[0]]
		rest = s[loc[0]:]
	}
	spec.Name = NormalizeName(name)
	spec.Constraint = strings.ReplaceAll(strings.TrimSpace(rest), " ", "")
}

func isVCS(s string) bool {
	for _, p := range vcsPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "file://")
}

func isLocalPath(s string) bool {
	return strings.HasPrefix(s, "/") || strings.HasPrefix(s, "./") ||
		strings.HasPrefix(s, "../") || strings.HasPrefix(s, "~") || s == "."
}

// nameFromVCS extracts the package name from a VCS URL. The explicit
// "#egg=name" fragment is the only reliable alias; without it we fall back to
// the repository basename.
func nameFromVCS(s string) string {
	if i := strings.Index(s, "#"); i >= 0 {
		frag := s[i+1:]
		for _, part := range strings.Split(frag, "&") {
			if strings.HasPrefix(part, "egg=") {
				return NormalizeName(strings.TrimPrefix(part, "egg="))
			}
		}
	}
	u, err := url.Parse(stripVCSPrefix(s))
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	base = strings.TrimSuffix(base, ".git")
	if i := strings.Index(base, "@"); i >= 0 {
		base = base[:i]
	}
	if base == "" || base == "." || base == "/" {
		return ""
	}
	return NormalizeName(base)
}

func stripVCSPrefix(s string) string {
	for _, p := range vcsPrefixes {
		if strings.HasPrefix(s, p) {
			return strings.TrimPrefix(s, p)
		}
	}
	return s
}

// nameFromURL extracts the package name from a download URL by matching the
// archive filename pattern (name-version-tags.whl, name-version.tar.gz).
func nameFromURL(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if !archiveSuffix.MatchString(base) {
		return ""
	}
	if m := wheelNameRe.FindStringSubmatch(base); m != nil {
		return NormalizeName(m[1])
	}
	return ""
}

// nameFromPath extracts the package name from a local filesystem path. For
// archive files the filename pattern applies; for directories the basename is
// taken as-is.
func nameFromPath(s string) string {
	base := path.Base(strings.TrimSuffix(s, "/"))
	if archiveSuffix.MatchString(base) {
		if m := wheelNameRe.FindStringSubmatch(base); m != nil {
			return NormalizeName(m[1])
		}
		return ""
	}
	if base == "." || base == "/" || base == "~" {
		return ""
	}
	return NormalizeName(base)
}
