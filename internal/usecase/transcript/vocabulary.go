package transcript

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PhoneticVariants returns the misrecognitions corrected back to word:
// the lower-cased word, e→i, doubled consonants collapsed, and ck→k.
func PhoneticVariants(word string) []string {
	lower := strings.ToLower(word)
	candidates := []string{
		lower,
		strings.ReplaceAll(lower, "e", "i"),
		collapseDoubledConsonants(lower),
		strings.ReplaceAll(lower, "ck", "k"),
	}

	seen := make(map[string]bool, len(candidates))
	var variants []string
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		variants = append(variants, c)
	}
	return variants
}

func collapseDoubledConsonants(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev && isConsonant(r) {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

func isConsonant(r rune) bool {
	if r > unicode.MaxASCII || !unicode.IsLetter(r) {
		return false
	}
	return !strings.ContainsRune("aeiou", unicode.ToLower(r))
}

// Corrector rewrites phonetic variants of custom vocabulary to their canonical form
type Corrector struct {
	pattern *regexp.Regexp
	// owners maps a lower-cased variant to the vocabulary word it corrects to
	owners map[string]string
}

// NewCorrector compiles one case-insensitive alternation over the variants of every word.
// A word's own spelling always maps to itself, even when it is also a variant of another word.
func NewCorrector(words []string) *Corrector {
	owners := make(map[string]string)
	for _, w := range words {
		if lower := strings.ToLower(w); lower != "" {
			if _, taken := owners[lower]; !taken {
				owners[lower] = w
			}
		}
	}
	for _, w := range words {
		for _, v := range PhoneticVariants(w) {
			if _, taken := owners[v]; !taken {
				owners[v] = w
			}
		}
	}
	if len(owners) == 0 {
		return &Corrector{}
	}

	variants := make([]string, 0, len(owners))
	for v := range owners {
		variants = append(variants, v)
	}
	// longest first so a variant never shadows a longer one
	sort.Slice(variants, func(i, j int) bool {
		if len(variants[i]) != len(variants[j]) {
			return len(variants[i]) > len(variants[j])
		}
		return variants[i] < variants[j]
	})

	alts := make([]string, 0, len(variants))
	for _, v := range variants {
		alts = append(alts, regexp.QuoteMeta(v))
	}
	return &Corrector{
		pattern: regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`),
		owners:  owners,
	}
}

// Apply corrects text. Every match is replaced once, so a canonical word is never rewritten
// by the variants of another.
func (c *Corrector) Apply(text string) string {
	if c == nil || c.pattern == nil || text == "" {
		return text
	}

	var b strings.Builder
	last, pos := 0, 0
	for pos < len(text) {
		loc := c.pattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end == start || !wholeWord(text, start, end) {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + size
			continue
		}

		canonical, ok := c.owners[strings.ToLower(text[start:end])]
		if !ok {
			canonical = text[start:end]
		}
		b.WriteString(text[last:start])
		b.WriteString(canonical)
		last, pos = end, end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// ApplyCustomWords is a one-shot helper around Corrector
func ApplyCustomWords(text string, words []string) string {
	return NewCorrector(cleanVocabulary(words)).Apply(text)
}

// wholeWord reports whether text[start:end] is not glued to neighbouring letters or digits.
// Edges of the match that are not word characters need no boundary.
func wholeWord(text string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(text[start:end])
	if isWordRune(first) && start > 0 {
		if prev, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(prev) {
			return false
		}
	}
	lastRune, _ := utf8.DecodeLastRuneInString(text[start:end])
	if isWordRune(lastRune) && end < len(text) {
		if next, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}
