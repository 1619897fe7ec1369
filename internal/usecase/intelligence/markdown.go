package intelligence

import (
	"html"
	"regexp"
	"strings"
)

var boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

// MarkdownToHTML renders the small markdown subset follow-up bodies use: **bold**,
// "- " or "* " bullets, blank-line separated paragraphs and single line breaks.
// Input is HTML-escaped first.
func MarkdownToHTML(md string) string {
	md = strings.ReplaceAll(strings.TrimSpace(md), "\r\n", "\n")
	if md == "" {
		return ""
	}

	var out []string
	for _, block := range strings.Split(md, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		out = append(out, renderBlock(block))
	}
	return strings.Join(out, "\n")
}

func renderBlock(block string) string {
	var (
		parts     []string
		paragraph []string
		bullets   []string
	)
	flushParagraph := func() {
		if len(paragraph) > 0 {
			parts = append(parts, "<p>"+strings.Join(paragraph, "<br>")+"</p>")
			paragraph = nil
		}
	}
	flushBullets := func() {
		if len(bullets) > 0 {
			parts = append(parts, "<ul><li>"+strings.Join(bullets, "</li><li>")+"</li></ul>")
			bullets = nil
		}
	}

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if item, ok := bulletText(line); ok {
			flushParagraph()
			bullets = append(bullets, inline(item))
			continue
		}
		flushBullets()
		paragraph = append(paragraph, inline(line))
	}
	flushParagraph()
	flushBullets()
	return strings.Join(parts, "\n")
}

func bulletText(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}

func inline(s string) string {
	return boldPattern.ReplaceAllString(html.EscapeString(s), "<strong>$1</strong>")
}
