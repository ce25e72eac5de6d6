// Package tabletext renders HTML table markup as plain, readable rows.
//
// Document parsers report tables as HTML. Embedding raw markup wastes
// tokens and buries cell values in angle brackets, so table fragments
// are flattened to one line per row with cells joined by " | " before
// they are embedded or shown to a language model.
package tabletext

import (
	"html"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for table parsing.
var (
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	rowTag        = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	cellTag       = regexp.MustCompile(`(?is)<t[dh][^>]*>(.*?)</t[dh]>`)
	brTags        = regexp.MustCompile(`(?i)<br\s*/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{2,}`)
)

// Render converts HTML table markup into plain text, one line per row
// with cells separated by " | ". Markup without any <tr> rows is
// stripped of tags and returned as collapsed plain text, so callers
// can pass parser output through without inspecting it first.
func Render(markup string) string {
	markup = htmlComments.ReplaceAllString(markup, "")

	rows := rowTag.FindAllStringSubmatch(markup, -1)
	if len(rows) == 0 {
		return stripTags(markup)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := cellTag.FindAllStringSubmatch(row[1], -1)
		if len(cells) == 0 {
			continue
		}
		values := make([]string, 0, len(cells))
		for _, cell := range cells {
			values = append(values, cleanCell(cell[1]))
		}
		line := strings.TrimSpace(strings.Join(values, " | "))
		if line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}

// cleanCell strips nested markup from a single cell value.
func cleanCell(content string) string {
	content = brTags.ReplaceAllString(content, " ")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")
	content = strings.ReplaceAll(content, "\n", " ")
	return strings.TrimSpace(content)
}

// stripTags removes all markup and collapses whitespace.
func stripTags(content string) string {
	content = brTags.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, " ")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")
	content = multiNewlines.ReplaceAllString(content, "\n")

	lines := strings.Split(content, "\n")
	var result []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}
