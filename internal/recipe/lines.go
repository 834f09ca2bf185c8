package recipe

import "strings"

// SplitLines turns multi-line form input into an ordered list.
// Lines are split on "\n" with any trailing "\r" removed; lines that are
// blank after trimming are dropped. Other whitespace is kept as typed.
func SplitLines(s string) []string {
	parts := strings.Split(s, "\n")
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(p, "\r")
		if strings.TrimSpace(p) == "" {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}

// JoinLines is the inverse used to prefill an edit form.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// CleanImages drops blank image references, keeping order.
func CleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img != "" {
			out = append(out, img)
		}
	}
	return out
}
