// Package textnorm prepares raw document text for extraction: it undoes
// escaping left by upstream serialisation, locates requirement sections and
// folds Unicode so keyword matching sees a stable form.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSectionMinLength is the trimmed length a located section must exceed to be used.
const DefaultSectionMinLength = 100

var unescaper = strings.NewReplacer(
	`\+`, "+",
	`\-`, "-",
	`\'`, "'",
	`\"`, `"`,
	`\n`, " ",
	`\t`, " ",
)

// Unescape replaces literal escape sequences (\+, \-, \', \") with their
// characters and literal \n, \t with a space.
func Unescape(text string) string {
	if text == "" {
		return ""
	}
	return unescaper.Replace(text)
}

// IsBlank reports whether text has no printable content.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// LocateSection tries each header in order. For the first header found it cuts
// the text at the earliest end marker after the header start and returns the
// section when its trimmed length exceeds minLen; otherwise the next header is
// tried. The boolean is false when no header yields a usable section.
func LocateSection(text string, headers, endMarkers []*regexp.Regexp, minLen int) (string, bool) {
	if IsBlank(text) {
		return "", false
	}
	if minLen <= 0 {
		minLen = DefaultSectionMinLength
	}

	for _, header := range headers {
		loc := header.FindStringIndex(text)
		if loc == nil {
			continue
		}

		start := loc[0]
		end := len(text)
		rest := text[start:]
		for _, marker := range endMarkers {
			if m := marker.FindStringIndex(rest); m != nil && start+m[0] < end {
				end = start + m[0]
			}
		}

		section := text[start:end]
		if len(strings.TrimSpace(section)) > minLen {
			return section, true
		}
	}

	return "", false
}

// Between returns the text from the first start keyword found (case-insensitive)
// up to the earliest end keyword located at least skip bytes after the start.
// Without an end keyword the section runs to the end of the text.
func Between(text string, starts, ends []string, skip int) (string, bool) {
	start := -1
	for _, keyword := range starts {
		if idx := indexFold(text, keyword, 0); idx != -1 {
			start = idx
			break
		}
	}
	if start == -1 {
		return "", false
	}

	end := len(text)
	from := start + skip
	for _, keyword := range ends {
		if idx := indexFold(text, keyword, from); idx != -1 && idx < end {
			end = idx
		}
	}

	return text[start:end], true
}

// Window returns up to size bytes following the first keyword found (case-insensitive),
// skipping the keyword itself.
func Window(text string, keywords []string, size int) (string, bool) {
	for _, keyword := range keywords {
		idx := indexFold(text, keyword, 0)
		if idx == -1 {
			continue
		}
		from := idx + len(keyword)
		to := from + size
		if to > len(text) {
			to = len(text)
		}
		return text[from:to], true
	}
	return "", false
}

func indexFold(text, keyword string, from int) int {
	if from >= len(text) || keyword == "" {
		return -1
	}
	if from < 0 {
		from = 0
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword))
	loc := re.FindStringIndex(text[from:])
	if loc == nil {
		return -1
	}
	return from + loc[0]
}

// Fold decomposes s, strips combining marks and recomposes it, so "Résumé"
// becomes "Resume".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

var blockElements = "p, li, h1, h2, h3, h4, h5, h6, div, tr, section, article, header, footer"

// StripHTML returns the visible text of an HTML document with block elements
// separated by newlines.
func StripHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockElements).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return collapseBlankLines(doc.Text()), nil
}

var blankLines = regexp.MustCompile(`\n[ \t]*(\n[ \t]*)+`)

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
