package scoring

import (
	"strings"
	"unicode"
)

// clitics split off the end of a word, longest first
var clitics = []string{"n't", "'ll", "'re", "'ve", "'s", "'m", "'d"}

// inner punctuation that always separates tokens, even mid-word
const separators = ",;:!?\"()[]{}"

// Tokenize splits text into word tokens the way a Penn Treebank tokenizer
// does: punctuation becomes its own token, an ellipsis stays whole, and
// clitics ("n't", "'s", "'ll", ...) are split from their host word.
func Tokenize(text string) []string {
	text = strings.NewReplacer("’", "'", "‘", "'", "“", "\"", "”", "\"").Replace(text)

	var out []string
	for _, field := range strings.Fields(text) {
		for _, part := range splitSeparators(field) {
			out = append(out, splitWord(part)...)
		}
	}
	return out
}

func splitSeparators(field string) []string {
	var parts []string
	start := 0
	for i, r := range field {
		if strings.ContainsRune(separators, r) && !numericSeparator(field, i, r) {
			if i > start {
				parts = append(parts, field[start:i])
			}
			parts = append(parts, string(r))
			start = i + len(string(r))
		}
	}
	if start < len(field) {
		parts = append(parts, field[start:])
	}
	return parts
}

// numericSeparator reports whether the comma or colon at i sits before a
// digit, as in "1,000" or "10:30", and so stays inside the token.
func numericSeparator(field string, i int, r rune) bool {
	if r != ',' && r != ':' {
		return false
	}
	next := i + len(string(r))
	return next < len(field) && field[next] >= '0' && field[next] <= '9'
}

// splitHyphens breaks letter-hyphen-letter runs ("well-known") into their
// parts. Only the grammar check sees these; word counts keep the whole word.
func splitHyphens(tok string) []string {
	rs := []rune(tok)
	var out []string
	start := 0
	for i := 1; i < len(rs)-1; i++ {
		if rs[i] == '-' && unicode.IsLetter(rs[i-1]) && unicode.IsLetter(rs[i+1]) {
			out = append(out, string(rs[start:i]), "-")
			start = i + 1
		}
	}
	return append(out, string(rs[start:]))
}

func splitWord(w string) []string {
	if isPunct(w) {
		// runs of dots or dashes ("...", "--") stay whole
		if strings.Trim(w, ".") == "" || strings.Trim(w, "-") == "" {
			return []string{w}
		}
		var out []string
		for _, r := range w {
			out = append(out, string(r))
		}
		return out
	}

	var lead []string
	for w != "" {
		if strings.HasPrefix(w, "...") {
			lead = append(lead, "...")
			w = w[3:]
			continue
		}
		r := []rune(w)[0]
		if !unicode.IsPunct(r) || r == '\'' && hasClitic(w) {
			break
		}
		lead = append(lead, string(r))
		w = w[len(string(r)):]
	}

	var trail []string
	for w != "" {
		if strings.HasSuffix(w, "...") {
			trail = append([]string{"..."}, trail...)
			w = w[:len(w)-3]
			continue
		}
		rs := []rune(w)
		r := rs[len(rs)-1]
		if !unicode.IsPunct(r) {
			break
		}
		// keep the final period of abbreviations like "U.S."
		if r == '.' && strings.Contains(w[:len(w)-1], ".") {
			break
		}
		trail = append([]string{string(r)}, trail...)
		w = string(rs[:len(rs)-1])
	}

	out := lead
	if w != "" {
		out = append(out, splitClitic(w)...)
	}
	return append(out, trail...)
}

func hasClitic(w string) bool {
	lw := strings.ToLower(w)
	for _, c := range clitics {
		if lw == c {
			return true
		}
	}
	return false
}

func splitClitic(w string) []string {
	lw := strings.ToLower(w)
	for _, c := range clitics {
		if len(lw) > len(c) && strings.HasSuffix(lw, c) {
			cut := len(w) - len(c)
			return []string{w[:cut], w[cut:]}
		}
	}
	return []string{w}
}

func isAlpha(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isPunct(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}
