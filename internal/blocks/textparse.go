package blocks

import (
	"math/rand"
	"strings"
	"unicode"
)

// scanLabeled reads "Label: value" lines. A label with an empty value opens
// a list filled by the "- item" or "1. item" lines that follow it. Lines that
// are neither continue the previous value.
func scanLabeled(s string) (map[string]string, map[string][]string) {
	values := map[string]string{}
	lists := map[string][]string{}
	list, last := "", ""
	for _, raw := range strings.Split(s, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if item, ok := listItem(line); ok && list != "" {
			lists[list] = append(lists[list], item)
			continue
		}
		if label, value, ok := strings.Cut(line, ":"); ok && isLabel(label) {
			key := strings.ToLower(strings.TrimSpace(label))
			value = strings.TrimSpace(value)
			if value == "" {
				list, last = key, ""
				continue
			}
			values[key] = value
			list, last = "", key
			continue
		}
		if last != "" {
			values[last] += "\n" + line
		}
	}
	return values, lists
}

func isLabel(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 24 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' && r != '_' {
			return false
		}
	}
	return true
}

func listItem(line string) (string, bool) {
	for _, p := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(line[len(p):]), true
		}
	}
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		return strings.TrimSpace(line[i+2:]), true
	}
	return "", false
}

func splitList(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// permutation returns a shuffled 0..n-1 that is stable for a given seed.
func permutation(n int, seed int64) []int {
	r := rand.New(rand.NewSource(seed))
	return r.Perm(n)
}
