package indexer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// sentenceSplitter picks out sentence-like segments when a page overflows the
// chunk size bound.
var sentenceSplitter = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// chunkPages applies the page-level chunking policy: one chunk per page,
// unless the page exceeds maxChars, in which case it is split on sentence
// boundaries into segments that respect the embedding model's input limit.
func chunkPages(pages []string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = 4096
	}

	var out []string
	for _, page := range pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		if len(page) <= maxChars {
			out = append(out, page)
			continue
		}
		out = append(out, splitLongPage(page, maxChars)...)
	}
	return out
}

func splitLongPage(page string, maxChars int) []string {
	matches := sentenceSplitter.FindAllStringIndex(page, -1)
	if len(matches) == 0 {
		return hardSplit(page, maxChars)
	}

	var sentences []string
	for _, m := range matches {
		sentences = append(sentences, page[m[0]:m[1]])
	}
	// Text past the last terminator (a trailing table row, an unterminated
	// clause) is still indexable content and must not be dropped.
	if tail := page[matches[len(matches)-1][1]:]; strings.TrimSpace(tail) != "" {
		sentences = append(sentences, tail)
	}

	var (
		out []string
		cur strings.Builder
	)
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if len(s) > maxChars {
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			out = append(out, hardSplit(s, maxChars)...)
			continue
		}
		if cur.Len() > 0 && cur.Len()+1+len(s) > maxChars {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(s)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// hardSplit cuts text that has no usable sentence boundaries. Cuts land on
// rune boundaries so no chunk carries invalid UTF-8.
func hardSplit(s string, maxChars int) []string {
	var out []string
	for len(s) > maxChars {
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxChars
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
