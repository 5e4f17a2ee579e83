package manifest

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bottlehq/bottle/internal/fault"
)

// ParseRequirements parses one requirements.txt-style file into a Manifest,
// following -r include and -c constraint directives relative to the file's
// directory. Include cycles are broken by tracking visited paths.
func ParseRequirements(path string) (*Manifest, error) {
	m := New()
	m.Metadata["source_files"] = []string{}
	seen := make(map[string]bool)
	if err := parseRequirementsInto(path, m, seen, false); err != nil {
		return nil, err
	}
	return m, nil
}

func parseRequirementsInto(path string, m *Manifest, seen map[string]bool, constraintsOnly bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if seen[abs] {
		return nil
	}
	seen[abs] = true

	f, err := os.Open(path)
	if err != nil {
		return fault.Wrap(fault.CodeParseFailed, err, "cannot open requirements file %s", path).
			WithSuggestion("check that the file exists and is readable")
	}
	defer f.Close()

	if files, ok := m.Metadata["source_files"].([]string); ok {
		m.Metadata["source_files"] = append(files, abs)
	}

	dir := filepath.Dir(path)
	scanner := bufio.NewScanner(f)
	var pending string
	for scanner.Scan() {
		line := scanner.Text()

		// Backslash continuation joins physical lines before any other parsing.
		if strings.HasSuffix(line, `\`) {
			pending += strings.TrimSuffix(line, `\`)
			continue
		}
		line = pending + line
		pending = ""

		line = stripComment(line)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "-r ") || strings.HasPrefix(line, "--requirement "):
			ref := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "-r "), "--requirement "))
			if err := parseRequirementsInto(join(dir, ref), m, seen, constraintsOnly); err != nil {
				return err
			}
		case strings.HasPrefix(line, "-c ") || strings.HasPrefix(line, "--constraint "):
			ref := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "-c "), "--constraint "))
			// Constraints pin versions but don't add new requirements; parsed
			// entries only apply to names already present.
			if err := parseRequirementsInto(join(dir, ref), m, seen, true); err != nil {
				return err
			}
		case strings.HasPrefix(line, "-e ") || strings.HasPrefix(line, "--editable "):
			// Editable installs are dependencies, not flags; ParseSpecifier
			// strips the flag and resolves the name from the path or URL.
			addSpecLine(m, line, constraintsOnly)
		case strings.HasPrefix(line, "-"):
			// Index URLs, hash options and other pip flags don't contribute
			// dependencies.
			continue
		default:
			addSpecLine(m, line, constraintsOnly)
		}
	}
	if err := scanner.Err(); err != nil {
		return fault.Wrap(fault.CodeParseFailed, err, "error reading %s", path)
	}
	return nil
}

// addSpecLine records one parsed specifier line. In constraints mode entries
// only pin names already present; otherwise non-registry sources are kept as
// "<source>:<url>" constraints so the origin survives normalization.
func addSpecLine(m *Manifest, line string, constraintsOnly bool) {
	spec := ParseSpecifier(line)
	if constraintsOnly {
		if _, ok := m.Dependencies[spec.Name]; ok && spec.Constraint != "" {
			m.Dependencies[spec.Name] = spec.Constraint
		}
		return
	}
	constraint := spec.Constraint
	if spec.Source != SourceRegistry {
		constraint = string(spec.Source) + ":" + spec.URL
	}
	m.SetDependency(spec.Name, constraint)
}

// stripComment removes a trailing " #" comment. A '#' inside a URL fragment
// (e.g. #egg=) is not a comment: pip only treats '#' preceded by whitespace
// or at column zero as one.
func stripComment(line string) string {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return ""
	}
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}
	return line
}

func join(dir, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(dir, ref)
}
