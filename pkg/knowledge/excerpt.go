package knowledge

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type section struct {
	text     string
	size     int
	relevant bool
}

// Excerpt reduces body to at most limit runes.
// The text before the first "##" heading is always kept. Sections mentioning a purpose term
// are taken first, then the rest in document order while they fit. A limit <= 0 disables it.
func Excerpt(body, purpose string, limit int) string {
	body = strings.TrimSpace(body)
	if limit <= 0 || utf8.RuneCountInString(body) <= limit {
		return body
	}

	sections := split(body)
	terms := purposeTerms(purpose)
	for i := range sections {
		lower := strings.ToLower(sections[i].text)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				sections[i].relevant = true
				break
			}
		}
	}

	keep := make([]bool, len(sections))
	budget := limit
	take := func(i int) {
		if keep[i] || sections[i].size > budget {
			return
		}
		keep[i] = true
		budget -= sections[i].size
	}

	// The lead is kept even when it alone exceeds the limit; Truncate handles that below.
	keep[0] = true
	budget -= sections[0].size
	for i := 1; i < len(sections); i++ {
		if sections[i].relevant {
			take(i)
		}
	}
	for i := 1; i < len(sections); i++ {
		take(i)
	}

	parts := make([]string, 0, len(sections))
	for i, s := range sections {
		if keep[i] {
			parts = append(parts, s.text)
		}
	}
	return Truncate(strings.Join(parts, "\n\n"), limit)
}

// Truncate cuts s to at most n runes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return strings.TrimSpace(s[:pos])
		}
		i++
	}
	return s
}

// split cuts body at level-2 headings. The first section is the lead and may be empty.
func split(body string) []section {
	var (
		out     []section
		current []string
	)
	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		// separator "\n\n" is charged to each section
		out = append(out, section{text: text, size: utf8.RuneCountInString(text) + 2})
		current = current[:0]
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "## ") || line == "##" {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return out
}

func purposeTerms(purpose string) []string {
	fields := strings.FieldsFunc(strings.ToLower(purpose), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}
