package sourcecode

import "strings"

// Dedent strips the longest common leading whitespace from the given lines,
// then trims fully blank lines at both ends. Blank lines do not take part in
// the common-prefix computation.
func Dedent(lines []string) []string {
	prefix := ""
	first := true

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = indent
			first = false
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}

	dedented := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			dedented[i] = ""
			continue
		}
		dedented[i] = strings.TrimPrefix(line, prefix)
	}

	start := 0
	end := len(dedented)
	for start < end && dedented[start] == "" {
		start++
	}
	for end > start && dedented[end-1] == "" {
		end--
	}
	return dedented[start:end]
}
