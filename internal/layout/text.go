package layout

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// SplitNotes turns the free-text notes field into highlight bullets: split on
// ';' or line breaks, trimmed, empty fragments dropped, order kept.
func SplitNotes(notes string) []string {
	parts := strings.FieldsFunc(notes, func(r rune) bool {
		return r == ';' || r == '\n' || r == '\r'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Truncate cuts s to at most max runes, ending in "..." when shortened.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= len(ellipsis) {
		return string([]rune(s)[:max])
	}
	return string([]rune(s)[:max-len(ellipsis)]) + ellipsis
}

// Wrap breaks s into lines of at most width runes, on spaces where it can.
// Words longer than width are hard-split.
func Wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var (
		lines []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}
	for _, w := range words {
		r := []rune(w)
		for len(r) > width {
			flush()
			lines = append(lines, string(r[:width]))
			r = r[width:]
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, r...)
		case len(cur)+1+len(r) <= width:
			cur = append(cur, ' ')
			cur = append(cur, r...)
		default:
			flush()
			cur = append(cur, r...)
		}
	}
	flush()
	return lines
}
