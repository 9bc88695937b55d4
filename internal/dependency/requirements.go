package dependency

import (
	"bufio"
	"io"
	"strings"
)

var versionOperators = []string{"===", "==", ">=", "<=", "~=", "!=", ">", "<"}

// NormalizeName lower-cases a package name and folds "_" and "." into "-"
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", ".", "-").Replace(name)
}

// ParseRequirements returns the package names listed in a requirements file.
// Comments, blank lines, pip options and editable installs are skipped.
func ParseRequirements(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if name := requirementName(scanner.Text()); name != "" {
			names = append(names, name)
		}
	}
	return names, scanner.Err()
}

func requirementName(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "-") {
		return ""
	}

	// environment markers
	if i := strings.Index(line, ";"); i >= 0 {
		line = line[:i]
	}
	// direct references: "name @ https://..."
	if i := strings.Index(line, "@"); i >= 0 {
		line = line[:i]
	}
	for _, op := range versionOperators {
		if i := strings.Index(line, op); i >= 0 {
			line = line[:i]
		}
	}
	// extras
	if i := strings.Index(line, "["); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}
